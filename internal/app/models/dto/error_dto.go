package dto

import (
	"net/http"
	"time"

	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
)

// ErrorCode is the stable machine-readable code of a failed response
type ErrorCode string

const (
	// Authentication errors
	ErrorCodeInvalidCredentials ErrorCode = "AUTH_001"
	ErrorCodeInvalidToken       ErrorCode = "AUTH_005"
	ErrorCodeExpiredToken       ErrorCode = "AUTH_006"
	ErrorCodeRevokedToken       ErrorCode = "AUTH_007"
	ErrorCodeUnauthorized       ErrorCode = "AUTH_008"
	ErrorCodeForbidden          ErrorCode = "AUTH_009"

	// Resource errors
	ErrorCodeResourceNotFound      ErrorCode = "RES_001"
	ErrorCodeResourceAlreadyExists ErrorCode = "RES_002"

	// Validation errors
	ErrorCodeValidationFailed ErrorCode = "VAL_001"
	ErrorCodeBadRequest       ErrorCode = "VAL_002"

	// Workflow errors
	ErrorCodeAlreadyResolved     ErrorCode = "WF_001"
	ErrorCodeAcademicYearMissing ErrorCode = "YEAR_001"

	// Server errors
	ErrorCodeInternalServer      ErrorCode = "SRV_001"
	ErrorCodeStoreUnavailable    ErrorCode = "SRV_002"
	ErrorCodeIdentityUnavailable ErrorCode = "SRV_003"
	ErrorCodeRateLimited         ErrorCode = "SRV_004"
)

// ErrorSeverity tells clients and log readers how serious a failure is
type ErrorSeverity string

const (
	ErrorSeverityWarning  ErrorSeverity = "WARNING"  // The client can fix the request
	ErrorSeverityError    ErrorSeverity = "ERROR"    // A dependency failed, retry later
	ErrorSeverityCritical ErrorSeverity = "CRITICAL" // Unexpected server fault
)

// SeverityForStatus grades an HTTP status
func SeverityForStatus(status int) ErrorSeverity {
	switch {
	case status == http.StatusInternalServerError:
		return ErrorSeverityCritical
	case status >= http.StatusInternalServerError:
		return ErrorSeverityError
	default:
		return ErrorSeverityWarning
	}
}

// ErrorDetail is the error member of a failed response
type ErrorDetail struct {
	Code     ErrorCode              `json:"code" example:"VAL_001"`
	Message  string                 `json:"message" example:"Validation failed"`
	Severity ErrorSeverity          `json:"severity" example:"WARNING"`
	Fields   []apperrors.FieldError `json:"fields,omitempty"`
	Details  string                 `json:"details,omitempty" example:"notes must be at least 10 characters"`
}

// ErrorResponse is the envelope of a failed request
type ErrorResponse struct {
	Success   bool         `json:"success" example:"false"`
	Error     *ErrorDetail `json:"error"`
	Timestamp time.Time    `json:"timestamp" example:"2025-04-23T12:01:05.123Z"`
}

// NewErrorDetail builds the detail for a response with the given status
func NewErrorDetail(status int, code ErrorCode, message string) *ErrorDetail {
	return &ErrorDetail{
		Code:     code,
		Message:  message,
		Severity: SeverityForStatus(status),
	}
}

// NewErrorResponse wraps detail in the failure envelope
func NewErrorResponse(detail *ErrorDetail) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     detail,
		Timestamp: time.Now(),
	}
}
