package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RequestValidator validates bound request bodies using struct tags.
// It implements echo.Validator.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator that reports fields by their JSON names
func NewRequestValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Validate implements echo.Validator
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// toValidationErrors flattens validator errors into problem-detail field errors.
// Errors that did not come from the validator yield nil.
func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	result := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		result = append(result, ValidationError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return result
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Is required"
	case "max":
		return fmt.Sprintf("Must be %s characters or less", fe.Param())
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "Is invalid"
	}
}
