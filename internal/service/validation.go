package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/snippets/internal/apperror"
)

// choiceSet reports which languages and styles are accepted.
type choiceSet interface {
	HasLanguage(name string) bool
	HasStyle(name string) bool
}

// newValidator builds a validator whose error field names are the JSON names
// clients send ("show_line_numbers", "owner"), with the custom tags used by the input
// structs in this package:
//
//	notblank  string must contain a non-space character
//	language  value must be a language known to the renderer
//	style     value must be a style known to the renderer
//	username  letters, digits and @/./+/-/_ only
func newValidator(h choiceSet) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return h.HasLanguage(fl.Field().String())
	})
	v.RegisterValidation("style", func(fl validator.FieldLevel) bool {
		return h.HasStyle(fl.Field().String())
	})
	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			case strings.ContainsRune("@.+-_", r):
			default:
				return false
			}
		}
		return true
	})

	return v
}

// validateStruct runs v over input and converts any failures into a single
// apperror validation error keyed by JSON field name.
func validateStruct(v *validator.Validate, input any) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating input: %w", err)
	}

	fields := make(map[string][]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
	}
	return apperror.Invalid(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "notblank":
		return "This field may not be blank."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "language", "style":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(reflect.Indirect(reflect.ValueOf(fe.Value()))))
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return fmt.Sprintf("failed the %q check", fe.Tag())
	}
}
