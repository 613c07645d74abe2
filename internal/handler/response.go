package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prperemyshlev/starterkit-auth/internal/apperrors"
	"github.com/prperemyshlev/starterkit-auth/internal/dto"
	"go.uber.org/zap"
)

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, dto.Envelope{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, message string) {
	respondOK(c, status, dto.MessageResponse{Message: message})
}

// respondError renders err in the error envelope. Anything that is not an
// apperrors.Error becomes a logged 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	appErr := apperrors.From(err)

	if appErr.Kind == apperrors.KindInternal {
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	c.AbortWithStatusJSON(appErr.Kind.HTTPStatus(), dto.Envelope{
		Success: false,
		Error: &dto.ErrorBody{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		},
	})
}

// bindJSON decodes the request body, rendering a VALIDATION_ERROR on failure
func bindJSON(c *gin.Context, logger *zap.Logger, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, logger, bindingError(err))
		return false
	}
	return true
}

func bindingError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return apperrors.Validation(apperrors.CodeValidation, "Invalid request body")
	}

	details := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		details = append(details, fieldMessage(fe))
	}
	return apperrors.Validation(apperrors.CodeValidation, "Invalid request body", details...)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "len":
		return fmt.Sprintf("%s must be %s characters long", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return field + " is invalid"
}

var registerFieldNames sync.Once

// UseJSONFieldNames makes binding errors name fields by their JSON key
func UseJSONFieldNames() {
	registerFieldNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
	})
}
