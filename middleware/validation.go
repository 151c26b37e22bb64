package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/biizlabs/jobengine/common"
)

var validate = validator.New()

// Bind decodes the request body into dest and validates it, recording an
// APIError on the context when either step fails.
func Bind[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.Error(common.Errf(http.StatusBadRequest, "invalid json: %v", err.Error()))
		return false
	}

	if err := validate.Struct(dest); err != nil {
		c.Error(common.APIError{
			Status:  http.StatusBadRequest,
			Message: "validation failed",
			Fields:  FormatValidationErrors(err),
		})
		return false
	}

	return true
}

func FormatValidationErrors(err error) map[string]any {
	errors := map[string]any{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]any{"body": err.Error()}
	}
	for _, e := range verrs {
		errors[e.Field()] = "failed " + e.Tag()
	}
	return errors
}
