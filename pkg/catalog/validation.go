package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks catalog payloads against their struct tags.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator that reports fields by their JSON names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s and returns a *ValidationError describing every failure.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validate payload: %w", err)
	}
	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		name := fe.Field()
		// Slice elements are reported as actors[0]; keep the index.
		if ns := fe.Namespace(); strings.Contains(ns, ".") {
			name = ns[strings.Index(ns, ".")+1:]
		}
		fields[name] = message(fe)
	}
	return &ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must be provided"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s character(s)", fe.Param())
	case "numeric":
		return "must be a number"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
