// Package validator configures request validation for gin bindings and formats its failures.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	brandColorRe = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
	subdomainRe  = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)
)

// ValidSubdomain reports whether s is an acceptable tenant subdomain label.
// Callers lowercase s first; "www" is reserved.
func ValidSubdomain(s string) bool {
	return s != "www" && subdomainRe.MatchString(s) && !strings.HasSuffix(s, "-")
}

// ValidBrandColor reports whether s is a #RGB or #RRGGBB hex color.
func ValidBrandColor(s string) bool {
	return brandColorRe.MatchString(s)
}

// Register installs json field naming and the custom tags on gin's default validator.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return configure(v)
}

// New returns a standalone validator with the same configuration, for non-gin callers.
func New() (*validator.Validate, error) {
	v := validator.New()
	if err := configure(v); err != nil {
		return nil, err
	}
	return v, nil
}

func configure(v *validator.Validate) error {
	// Use JSON tag names instead of struct field names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("brandcolor", func(fl validator.FieldLevel) bool {
		return ValidBrandColor(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("subdomain", func(fl validator.FieldLevel) bool {
		return ValidSubdomain(strings.ToLower(strings.TrimSpace(fl.Field().String())))
	})
}

// FieldErrors converts validation failures into a field → message map.
// It returns nil when err is not a validation error.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain only digits", field)
	case "brandcolor":
		return "Primary color must be a valid hex color code (e.g., #FFFF00 or #FFF)"
	case "subdomain":
		return "Subdomain must be 2-63 lowercase letters, digits or hyphens and cannot be www"
	default:
		return fmt.Sprintf("%s failed validation for %s", field, fe.Tag())
	}
}
