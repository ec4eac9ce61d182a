package lib

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var goValidator = newValidator()

// newValidator reports fields by their JSON name when they have one.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		default:
			return name
		}
	})
	return v
}

// FieldError describes a single failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
}

// ValidationErrors represents multiple validation errors.
type ValidationErrors struct {
	Fields []FieldError `json:"fields"`
}

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	if len(ve.Fields) == 0 {
		return "no validation errors"
	}

	parts := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		parts[i] = fmt.Sprintf("%s %s", f.Field, f.Tag)
	}
	return strings.Join(parts, "; ")
}

// ValidateStruct validates a struct using go-playground/validator.
// When validation passes, it returns nil.
func ValidateStruct(s any) error {
	err := goValidator.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	out := ValidationErrors{Fields: make([]FieldError, 0, len(ve))}
	for _, e := range ve {
		out.Fields = append(out.Fields, FieldError{Field: e.Field(), Tag: e.ActualTag()})
	}
	return out
}
