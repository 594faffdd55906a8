package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolrecords/internal/app/services"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
)

// ContextAcademicYear holds the caller's active academic year
const ContextAcademicYear = "academicYear"

// RequireActiveYear rejects requests of sessions without an active academic
// year with 428 and YEAR_001. Must run after JWTAuth.
func RequireActiveYear(selector *services.YearSelector) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			HandleAPIError(c, apperrors.ErrUnauthenticated)
			return
		}

		year, err := selector.Require(c.Request.Context(), identity.UserID)
		if err != nil {
			HandleAPIError(c, err)
			return
		}

		c.Set(ContextAcademicYear, year)
		c.Next()
	}
}

// GetAcademicYear returns the year set by RequireActiveYear
func GetAcademicYear(c *gin.Context) string {
	return c.GetString(ContextAcademicYear)
}
