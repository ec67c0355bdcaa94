// Package validation wraps go-playground/validator so that request DTOs can
// declare their rules with `validate` tags and their user-facing messages with
// `message` tags. A failed check becomes an apperror.ValidationError listing
// every failed field, keyed by the field's JSON name.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/user/inkwell/apperror"
)

// validate is safe for concurrent use and caches struct metadata, so one instance is shared.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct validates v and returns nil when every rule passes.
func Struct(v interface{}) *apperror.AppError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.NewBadRequestError("invalid request", err)
	}

	t := reflect.Indirect(reflect.ValueOf(v)).Type()
	fields := make([]apperror.FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, apperror.FieldError{
			Field:   fe.Field(),
			Message: messageFor(t, fe),
		})
	}
	return apperror.NewValidationError("validation failed", fields)
}

func messageFor(t reflect.Type, fe validator.FieldError) string {
	if sf, ok := t.FieldByName(fe.StructField()); ok {
		if msg := sf.Tag.Get("message"); msg != "" {
			return msg
		}
	}
	return fe.Error()
}
