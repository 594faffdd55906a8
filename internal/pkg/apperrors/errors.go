package apperrors

import "errors"

// Sentinels matched with errors.Is by the HTTP error mapping
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("conflict")

	ErrAlreadyResolved    = errors.New("correction request already resolved")
	ErrPreconditionFailed = errors.New("precondition failed")

	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrIdentityUnavailable = errors.New("identity provider unavailable")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrPermissionDenied   = errors.New("permission denied")

	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// ErrAcademicYearNotSelected is returned by year-scoped operations before a year is chosen
var ErrAcademicYearNotSelected = NewCustomError(ErrPreconditionFailed, "no academic year selected")

// CustomError pairs a sentinel with a message safe to show users.
// cause keeps the backend error reachable for errors.Is and logging.
type CustomError struct {
	Err     error
	Message string

	cause error
}

func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap exposes both the sentinel and the backend cause
func (e *CustomError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// NewCustomError attaches message to the sentinel err
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{Err: err, Message: message}
}

func NewResourceNotFoundError(message string) error {
	return NewCustomError(ErrNotFound, message)
}

func NewConflictError(message string) error {
	return NewCustomError(ErrConflict, message)
}

func NewForbiddenError(message string) error {
	return NewCustomError(ErrPermissionDenied, message)
}

func NewBadRequestError(message string) error {
	return NewCustomError(ErrBadRequest, message)
}

// NewStoreUnavailableError wraps a failed backend call made for op
func NewStoreUnavailableError(op string, cause error) error {
	return &CustomError{
		Err:     ErrStoreUnavailable,
		Message: op + ": " + cause.Error(),
		cause:   cause,
	}
}

// NewIdentityUnavailableError wraps a failure of the account or role lookup
func NewIdentityUnavailableError(cause error) error {
	return &CustomError{
		Err:     ErrIdentityUnavailable,
		Message: "identity provider unavailable: " + cause.Error(),
		cause:   cause,
	}
}

// Is reports whether err matches target or any of others
func Is(err, target error, others ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range others {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
