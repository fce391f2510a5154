// Package form decodes submitted HTML forms and validates them.
//
// Each form is a struct whose fields carry two tags:
//
//	form:"email"                 the input's name attribute
//	validate:"required,email"    go-playground/validator rules
//
// Decode fills the struct from the request body and returns field-level
// error messages keyed by the form name, ready to show next to each input.
// A form that fails validation is re-rendered with its values intact, so the
// visitor doesn't have to retype everything.
package form

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form is implemented by every form struct in this package.
type Form interface {
	bind(values url.Values)
}

// Errors maps a form field name to the message shown next to it.
type Errors map[string]string

// Add records msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

// Get returns the message for field, or "".
func (e Errors) Get(field string) string {
	return e[field]
}

// Any reports whether at least one field failed.
func (e Errors) Any() bool {
	return len(e) > 0
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their form name ("img_url") instead of the Go name ("ImgURL").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode parses r's form body into f and validates it.
//
// The returned error is only non-nil when the body itself could not be parsed.
// Validation failures come back as Errors, empty when f is valid.
func Decode(r *http.Request, f Form) (Errors, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parsing form: %w", err)
	}
	f.bind(r.PostForm)
	return Validate(f), nil
}

// Validate runs the validate tags of f.
func Validate(f Form) Errors {
	errs := Errors{}

	err := validate.Struct(f)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Only InvalidValidationError lands here, which means a programming
		// mistake (f is not a struct pointer).
		panic(fmt.Sprintf("form: validating %T: %v", f, err))
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "url":
		return "Invalid URL."
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	}
	return "Invalid value."
}

func text(values url.Values, key string) string {
	return strings.TrimSpace(values.Get(key))
}
