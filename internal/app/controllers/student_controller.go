package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/models/dto"
	"github.com/yigit/schoolrecords/internal/app/services"
	"github.com/yigit/schoolrecords/internal/middleware"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	"github.com/yigit/schoolrecords/internal/pkg/export"
	"github.com/yigit/schoolrecords/internal/pkg/helpers"
	"github.com/yigit/schoolrecords/internal/pkg/metrics"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StudentController handles student record operations. Every route runs
// behind RequireActiveYear.
type StudentController struct {
	studentService    services.StudentService
	correctionService services.CorrectionService
	logger            zerolog.Logger
	now               func() time.Time
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService services.StudentService, correctionService services.CorrectionService, logger zerolog.Logger) *StudentController {
	return &StudentController{
		studentService:    studentService,
		correctionService: correctionService,
		logger:            logger,
		now:               time.Now,
	}
}

// CreateStudent adds a record to the active academic year
// @Summary Create student
// @Description Creates a student record in the caller's active academic year
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateStudentRequest true "Student profile"
// @Success 201 {object} dto.APIResponse{data=dto.CreatedResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 428 {object} dto.ErrorResponse "No academic year selected"
// @Failure 503 {object} dto.ErrorResponse "Store unavailable"
// @Router /students [post]
func (c *StudentController) CreateStudent(ctx *gin.Context) {
	var req dto.CreateStudentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	id, err := c.studentService.Create(ctx.Request.Context(), middleware.GetAcademicYear(ctx), req.StudentProfile)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.CreatedResponse{ID: id}))
}

// ListStudents returns one page of the active year's records
// @Summary List students
// @Description Cursor paginated listing, newest first. With q set the listing is filtered by a case-insensitive match on name, NISN or class (kelas).
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param pageSize query int false "Page size" default(20)
// @Param cursor query string false "Cursor returned by the previous page"
// @Param q query string false "Search text"
// @Success 200 {object} dto.APIResponse{data=models.StudentPage}
// @Failure 400 {object} dto.ErrorResponse "Malformed cursor"
// @Failure 428 {object} dto.ErrorResponse "No academic year selected"
// @Router /students [get]
func (c *StudentController) ListStudents(ctx *gin.Context) {
	pageSize, cursor := helpers.ParsePaginationParams(ctx)
	year := middleware.GetAcademicYear(ctx)

	var (
		page *models.StudentPage
		err  error
	)
	if q := strings.TrimSpace(ctx.Query("q")); q != "" {
		page, err = c.studentService.Search(ctx.Request.Context(), year, q, pageSize, cursor)
	} else {
		page, err = c.studentService.ListPage(ctx.Request.Context(), year, pageSize, cursor)
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(page))
}

// GetStudent returns a single record
// @Summary Get student
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} dto.APIResponse{data=models.Student}
// @Failure 404 {object} dto.ErrorResponse "Student not found in the active year"
// @Router /students/{id} [get]
func (c *StudentController) GetStudent(ctx *gin.Context) {
	student, ok := c.studentInActiveYear(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(student))
}

// studentInActiveYear loads the :id record. Records of other academic years
// are reported as not found. On failure the error response is already written.
func (c *StudentController) studentInActiveYear(ctx *gin.Context) (*models.Student, bool) {
	student, err := c.studentService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err == nil && student.AcademicYear != middleware.GetAcademicYear(ctx) {
		err = apperrors.NewResourceNotFoundError("student not found")
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return nil, false
	}
	return student, true
}

// UpdateStudent patches profile fields of a record
// @Summary Update student
// @Description Applies a partial patch keyed by profile field name. id, academicYear, createdAt and updatedAt cannot be changed.
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param request body dto.UpdateStudentRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Student}
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [patch]
func (c *StudentController) UpdateStudent(ctx *gin.Context) {
	var req dto.UpdateStudentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	if _, ok := c.studentInActiveYear(ctx); !ok {
		return
	}

	student, err := c.studentService.Update(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(student))
}

// DeleteStudent removes a record
// @Summary Delete student
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [delete]
func (c *StudentController) DeleteStudent(ctx *gin.Context) {
	if _, ok := c.studentInActiveYear(ctx); !ok {
		return
	}
	if err := c.studentService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Student deleted"}))
}

// ListFields returns the editable profile fields, their labels and the
// values offered for constrained fields
// @Summary Student fields
// @Tags students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.StudentFieldResponse}
// @Router /students/fields [get]
func (c *StudentController) ListFields(ctx *gin.Context) {
	fields := models.StudentFields()
	resp := make([]dto.StudentFieldResponse, 0, len(fields))
	for _, f := range fields {
		resp = append(resp, dto.StudentFieldResponse{Name: f.Name, Label: f.Label, Options: f.Options})
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// ListCorrections returns every correction request filed against a record
// @Summary Student corrections
// @Tags corrections
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} dto.APIResponse{data=[]models.CorrectionRequest}
// @Failure 404 {object} dto.ErrorResponse "Student not found in the active year"
// @Router /students/{id}/corrections [get]
func (c *StudentController) ListCorrections(ctx *gin.Context) {
	student, ok := c.studentInActiveYear(ctx)
	if !ok {
		return
	}
	requests, err := c.correctionService.ListByStudent(ctx.Request.Context(), student.ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(requests))
}

// ExportStudents downloads every record of the active year as a workbook
// @Summary Export students
// @Description Streams an xlsx workbook with one row per student of the active academic year
// @Tags students
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file "Data_Siswa_Lengkap.xlsx"
// @Failure 428 {object} dto.ErrorResponse "No academic year selected"
// @Failure 503 {object} dto.ErrorResponse "Store unavailable"
// @Router /students/export [get]
func (c *StudentController) ExportStudents(ctx *gin.Context) {
	year := middleware.GetAcademicYear(ctx)
	records, err := c.studentService.ListAll(ctx.Request.Context(), year)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, export.BuildSheet(records, c.now())); err != nil {
		middleware.HandleAPIError(ctx, fmt.Errorf("write workbook: %w", err))
		return
	}
	metrics.ExportGenerated()
	c.logger.Info().Str("academicYear", year).Int("records", len(records)).Msg("Students exported")

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName))
	ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
