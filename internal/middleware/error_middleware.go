package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolrecords/internal/app/models/dto"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	"github.com/yigit/schoolrecords/internal/pkg/logger"
)

type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// Checked in order, the first match wins.
var errorMappings = []errorMapping{
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Bad request"},
	{apperrors.ErrNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},
	{apperrors.ErrAlreadyResolved, http.StatusConflict, dto.ErrorCodeAlreadyResolved, "Correction request already resolved"},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{apperrors.ErrPreconditionFailed, http.StatusPreconditionRequired, dto.ErrorCodeAcademicYearMissing, "Select an academic year first"},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeRevokedToken, "Token revoked"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrUnauthenticated, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Authentication required"},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{apperrors.ErrStoreUnavailable, http.StatusServiceUnavailable, dto.ErrorCodeStoreUnavailable, "Data store unavailable"},
	{apperrors.ErrIdentityUnavailable, http.StatusServiceUnavailable, dto.ErrorCodeIdentityUnavailable, "Identity provider unavailable"},
}

// StatusFor returns the HTTP status and error detail for err
func StatusFor(err error) (int, *dto.ErrorDetail) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		detail := dto.NewErrorDetail(m.status, m.code, m.message)

		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			detail.Fields = verr.Fields
		}
		// Custom messages are meant for users, backend causes are not.
		var cerr *apperrors.CustomError
		if m.status < http.StatusInternalServerError && errors.As(err, &cerr) && cerr.Message != "" {
			detail.Details = cerr.Message
		}
		return m.status, detail
	}
	return http.StatusInternalServerError, dto.NewErrorDetail(http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error")
}

// HandleAPIError writes the error response for err and aborts the request
func HandleAPIError(c *gin.Context, err error) {
	status, detail := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ReportError(err, "Request failed", map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": status,
		})
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}
