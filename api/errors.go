package api

import (
	"errors"
	"fmt"

	"github.com/Domenick1991/parkbooking/internal/apperrors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// respondError writes err as {code, message, details} with the status of its
// kind. Errors that carry no kind are reported as INTERNAL_ERROR.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.As(err)
	c.AbortWithStatusJSON(appErr.StatusCode(), appErr.Response())
}

// bindingError turns a gin binding failure into an INVALID_INPUT error with
// one entry per offending field.
func bindingError(err error) *apperrors.AppError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return apperrors.InvalidInput("malformed request").WithDetails(map[string]any{"error": err.Error()})
	}

	fields := make([]fieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		message := fe.Error()
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", fe.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
		}
		fields = append(fields, fieldError{Field: fe.Field(), Message: message})
	}
	return apperrors.InvalidInput("validation failed").WithDetails(map[string]any{"fields": fields})
}
