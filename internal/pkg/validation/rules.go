package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
)

// Validation rule patterns
var (
	// Email validation pattern
	EmailPattern = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`

	// Academic year pattern, e.g. 2024/2025
	AcademicYearPattern = `^\d{4}/\d{4}$`

	// Identifier fields such as NISN and NIK hold digits only
	DigitsPattern = `^\d+$`

	// Password min length
	PasswordMinLength = 6

	// Correction notes min length
	NotesMinLength = 10
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Email        *regexp.Regexp
	AcademicYear *regexp.Regexp
	Digits       *regexp.Regexp
}{
	Email:        regexp.MustCompile(EmailPattern),
	AcademicYear: regexp.MustCompile(AcademicYearPattern),
	Digits:       regexp.MustCompile(DigitsPattern),
}

var validate = New()

// New returns a validator that reports JSON field names and knows the
// digits, isodate and academicyear tags.
func New() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return CompiledPatterns.Digits.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("academicyear", func(fl validator.FieldLevel) bool {
		return IsAcademicYear(fl.Field().String())
	})

	return v
}

// Struct validates s and converts failures into an *apperrors.ValidationError
// listing every failed field. It returns nil when s is valid.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(apperrors.FieldError{Field: "_", Message: err.Error()})
	}

	verr := apperrors.NewValidationError()
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), Message(fe))
	}
	return verr
}

// Message creates a human-readable validation error message
func Message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + e.Param()
	case "digits":
		return "must contain digits only"
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	case "academicyear":
		return "must look like 2024/2025"
	default:
		return "failed validation: " + e.Tag()
	}
}

// IsAcademicYear reports whether s is a YYYY/YYYY academic year label.
func IsAcademicYear(s string) bool {
	return CompiledPatterns.AcademicYear.MatchString(s)
}

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool {
	return CompiledPatterns.Email.MatchString(strings.ToLower(s))
}
