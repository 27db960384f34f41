// Package validation wraps go-playground/validator with json-tag field names
// and joi-style violation messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New returns a validator that reports fields by their json tag name.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FirstMessage renders the first violation of a validation error as a
// client-facing message.
func FirstMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request payload"
	}

	e := verrs[0]
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", e.Field())
	case "email":
		return fmt.Sprintf("%q must be a valid email", e.Field())
	case "datetime":
		return fmt.Sprintf("%q must be a valid date", e.Field())
	case "gt":
		return fmt.Sprintf("%q must be greater than %s", e.Field(), e.Param())
	case "min":
		return fmt.Sprintf("%q length must be at least %s characters long", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%q is invalid", e.Field())
	}
}
