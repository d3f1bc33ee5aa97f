// Package validation wraps go-playground/validator with a shared, lazily built
// validator instance and human readable error messages.
//
// Structs opt in through `validate` struct tags. Field names in messages are taken
// from the `tag` struct tag when present, so errors refer to the metadata key a user
// actually wrote (e.g. "retention-days") rather than the Go field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single failed rule.
type FieldError struct {
	Field   string
	Rule    string
	Param   string
	Value   any
	Message string
}

func (e FieldError) Error() string {
	return e.Message
}

// Error is the collection of field errors returned by Struct.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		messages = append(messages, f.Message)
	}
	return strings.Join(messages, "; ")
}

// Get returns the shared validator instance.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("tag"), ",", 2)[0]
			switch name {
			case "-":
				return ""
			case "":
				return fld.Name
			default:
				return name
			}
		})
	})
	return validate
}

// Struct validates s and returns *Error on failure, nil otherwise.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &Error{Fields: []FieldError{{Field: "unknown", Rule: "unknown", Message: err.Error()}}}
	}

	fields := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: translate(fe),
		}
	}
	return &Error{Fields: fields}
}

var messageTemplates = map[string]string{
	"required": "%s is required",
	"timezone": "%s must be a valid IANA timezone, got '%v'",
	"url":      "%s must be a valid URL, got '%v'",
}

var paramTemplates = map[string]string{
	"oneof":    "%s must be one of [%s], got '%v'",
	"datetime": "%s must match layout %s, got '%v'",
	"min":      "%s must be at least %s, got '%v'",
	"max":      "%s must be at most %s, got '%v'",
	"gte":      "%s must be greater than or equal to %s, got '%v'",
	"lte":      "%s must be less than or equal to %s, got '%v'",
}

func translate(fe validator.FieldError) string {
	if tmpl, ok := messageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Field(), fe.Value())
	}
	if tmpl, ok := paramTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Field(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed '%s' validation", fe.Field(), fe.Tag())
}
