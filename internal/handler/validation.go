package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"currency-exchange-api/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("handler: register validation " + tag + ": " + err.Error())
	}
}

// selfValidating is implemented by requests with rules the struct tags cannot express
type selfValidating interface {
	Validate() error
}

// validateRequest runs the struct tag rules, then the request's own Validate method
func validateRequest(req interface{}) []model.ValidationError {
	var validationErrors []model.ValidationError

	if err := validate.Struct(req); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return []model.ValidationError{{Message: err.Error()}}
		}
		for _, fe := range fieldErrors {
			validationErrors = append(validationErrors, model.ValidationError{
				Field:   fe.Field(),
				Message: getErrorMsg(fe),
			})
		}
		return validationErrors
	}

	if sv, ok := req.(selfValidating); ok {
		if err := sv.Validate(); err != nil {
			var ve *model.ValidationError
			if errors.As(err, &ve) {
				return []model.ValidationError{*ve}
			}
			return []model.ValidationError{{Message: err.Error()}}
		}
	}

	return nil
}

func getErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "notblank":
		return "Value must not be blank"
	case "len":
		return "Value must be exactly " + fe.Param() + " characters long"
	case "alpha":
		return "Value must contain letters only"
	case "max":
		return "Value is too long"
	default:
		return "Invalid value"
	}
}
