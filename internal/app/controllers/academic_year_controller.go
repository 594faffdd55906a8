package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolrecords/internal/app/models/dto"
	"github.com/yigit/schoolrecords/internal/app/services"
	"github.com/yigit/schoolrecords/internal/middleware"
)

// AcademicYearController handles the year catalog and the per-session selection
type AcademicYearController struct {
	yearService services.AcademicYearService
	selector    *services.YearSelector
}

// NewAcademicYearController creates a new AcademicYearController
func NewAcademicYearController(yearService services.AcademicYearService, selector *services.YearSelector) *AcademicYearController {
	return &AcademicYearController{
		yearService: yearService,
		selector:    selector,
	}
}

// ListYears returns the catalog, newest first
// @Summary List academic years
// @Tags academic-years
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.AcademicYear}
// @Router /academic-years [get]
func (c *AcademicYearController) ListYears(ctx *gin.Context) {
	years, err := c.yearService.List(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(years))
}

// AddYear adds a year to the catalog
// @Summary Add academic year
// @Tags academic-years
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AddAcademicYearRequest true "Year"
// @Success 201 {object} dto.APIResponse{data=models.AcademicYear}
// @Failure 400 {object} dto.ErrorResponse "Malformed year"
// @Failure 409 {object} dto.ErrorResponse "Year already exists"
// @Router /admin/academic-years [post]
func (c *AcademicYearController) AddYear(ctx *gin.Context) {
	var req dto.AddAcademicYearRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	entry, err := c.yearService.Add(ctx.Request.Context(), req.Year)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(entry))
}

// DeleteYear removes a year from the catalog. Student records are kept.
// @Summary Delete academic year
// @Tags academic-years
// @Produce json
// @Security BearerAuth
// @Param id path string true "Catalog entry ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 404 {object} dto.ErrorResponse "Year not found"
// @Router /admin/academic-years/{id} [delete]
func (c *AcademicYearController) DeleteYear(ctx *gin.Context) {
	if err := c.yearService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Academic year deleted"}))
}

// GetActive returns the caller's active academic year
// @Summary Active academic year
// @Description Returns the selected year, or an empty year when none is selected
// @Tags session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ActiveYearResponse}
// @Router /session/academic-year [get]
func (c *AcademicYearController) GetActive(ctx *gin.Context) {
	identity, _ := middleware.GetIdentity(ctx)
	year, err := c.selector.Active(ctx.Request.Context(), identity.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ActiveYearResponse{Year: year}))
}

// SetActive selects the caller's academic year
// @Summary Select academic year
// @Tags session
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ActiveYearRequest true "Year"
// @Success 200 {object} dto.APIResponse{data=dto.ActiveYearResponse}
// @Failure 400 {object} dto.ErrorResponse "Malformed year"
// @Failure 404 {object} dto.ErrorResponse "Year not in catalog"
// @Router /session/academic-year [put]
func (c *AcademicYearController) SetActive(ctx *gin.Context) {
	var req dto.ActiveYearRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	identity, _ := middleware.GetIdentity(ctx)

	if err := c.selector.SetActive(ctx.Request.Context(), identity.UserID, req.Year); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	year, err := c.selector.Active(ctx.Request.Context(), identity.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ActiveYearResponse{Year: year}))
}

// ClearActive forgets the caller's academic year selection
// @Summary Clear academic year selection
// @Tags session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ActiveYearResponse}
// @Router /session/academic-year [delete]
func (c *AcademicYearController) ClearActive(ctx *gin.Context) {
	identity, _ := middleware.GetIdentity(ctx)
	if err := c.selector.Clear(ctx.Request.Context(), identity.UserID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ActiveYearResponse{}))
}
