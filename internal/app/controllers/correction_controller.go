package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/models/dto"
	"github.com/yigit/schoolrecords/internal/app/services"
	"github.com/yigit/schoolrecords/internal/middleware"
)

// CorrectionController handles the correction request workflow
type CorrectionController struct {
	correctionService services.CorrectionService
}

// NewCorrectionController creates a new CorrectionController
func NewCorrectionController(correctionService services.CorrectionService) *CorrectionController {
	return &CorrectionController{correctionService: correctionService}
}

// SubmitCorrection files a correction request
// @Summary Submit correction
// @Description Proposes a new value for one field of a student. The current value is captured at submission.
// @Tags corrections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubmitCorrectionRequest true "Correction"
// @Success 201 {object} dto.APIResponse{data=dto.CreatedResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /corrections [post]
func (c *CorrectionController) SubmitCorrection(ctx *gin.Context) {
	var req dto.SubmitCorrectionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	requester, _ := middleware.GetIdentity(ctx)

	id, err := c.correctionService.Submit(ctx.Request.Context(), services.SubmitCorrectionInput{
		StudentID:      req.StudentID,
		FieldToCorrect: req.FieldToCorrect,
		NewValue:       req.NewValue,
		Notes:          req.Notes,
		Requester:      requester,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.CreatedResponse{ID: id}))
}

// GetCorrection returns a single request
// @Summary Get correction
// @Tags corrections
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} dto.APIResponse{data=models.CorrectionRequest}
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Router /corrections/{id} [get]
func (c *CorrectionController) GetCorrection(ctx *gin.Context) {
	request, err := c.correctionService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(request))
}

// ListPending returns the pending requests, newest first
// @Summary Pending corrections
// @Tags corrections
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.CorrectionRequest}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /corrections/pending [get]
func (c *CorrectionController) ListPending(ctx *gin.Context) {
	requests, err := c.correctionService.PendingSnapshot(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(requests))
}

// Approve applies a pending request to its student record
// @Summary Approve correction
// @Tags corrections
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} dto.APIResponse{data=models.CorrectionRequest}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Request or student not found"
// @Failure 409 {object} dto.ErrorResponse "Already resolved"
// @Router /corrections/{id}/approve [post]
func (c *CorrectionController) Approve(ctx *gin.Context) {
	c.resolve(ctx, models.DecisionApprove)
}

// Reject closes a pending request without touching the record
// @Summary Reject correction
// @Tags corrections
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} dto.APIResponse{data=models.CorrectionRequest}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Failure 409 {object} dto.ErrorResponse "Already resolved"
// @Router /corrections/{id}/reject [post]
func (c *CorrectionController) Reject(ctx *gin.Context) {
	c.resolve(ctx, models.DecisionReject)
}

func (c *CorrectionController) resolve(ctx *gin.Context, decision models.Decision) {
	resolver, _ := middleware.GetIdentity(ctx)
	request, err := c.correctionService.Resolve(ctx.Request.Context(), ctx.Param("id"), decision, resolver)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(request))
}
