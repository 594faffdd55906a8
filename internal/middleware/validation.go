package middleware

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	"github.com/yigit/schoolrecords/internal/pkg/validation"
)

var configureBinding sync.Once

// ConfigureBinding makes gin's binding validator report JSON field names
func ConfigureBinding() {
	configureBinding.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// BindJSON binds the request body into obj. On failure it writes a 400
// response and returns false.
func BindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		verr := apperrors.NewValidationError()
		for _, fe := range fieldErrs {
			verr.Add(fe.Field(), validation.Message(fe))
		}
		HandleAPIError(c, verr)
		return false
	}

	HandleAPIError(c, apperrors.NewBadRequestError("malformed JSON body"))
	return false
}
