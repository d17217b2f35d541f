// Package validation wraps go-playground/validator with readable error
// messages for struct-tag validation of configuration values.
package validation

import (
	"errors"
	"fmt"
	"strings"

	gvalidator "github.com/go-playground/validator/v10"
)

// Validator wraps a validator engine.
type Validator struct {
	v *gvalidator.Validate
}

// New creates a Validator instance.
func New() *Validator {
	return &Validator{v: gvalidator.New()}
}

// Struct validates a struct by its `validate` tags, returning a single error
// listing every failed field.
func (vl *Validator) Struct(s any) error {
	err := vl.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs gvalidator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}

func fieldMessage(fe gvalidator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag())
	}
}

var defaultValidator = New()

// Struct validates using a shared default instance.
func Struct(s any) error { return defaultValidator.Struct(s) }
