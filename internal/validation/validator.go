// Package validation wraps go-playground/validator and converts its
// failures into domain validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/shutterboxapp/shutterbox/internal/errors"
)

// Tag text rules, registered as the "tagtext" validation tag.
const (
	TagTextRules   = "required,max=100,tagtext"
	RatingRules    = "gte=0,lte=5"
	MaxTagTextSize = 100
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the library's custom rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("tagtext", func(fl validator.FieldLevel) bool {
		return IsTagText(fl.Field().String())
	})

	return &Validator{v: v}
}

// IsTagText reports whether s is non-blank after trimming and contains only
// letters, digits and whitespace.
func IsTagText(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err, "")
	}
	return nil
}

// Var validates a single value against rules, reporting failures under field.
func (v *Validator) Var(field string, value any, rules string) error {
	if err := v.v.Var(value, rules); err != nil {
		return v.formatError(err, field)
	}
	return nil
}

// TagText validates tag text.
func (v *Validator) TagText(text string) error {
	return v.Var("text", text, TagTextRules)
}

// Rating validates a star rating.
func (v *Validator) Rating(rating int) error {
	return v.Var("rating", rating, RatingRules)
}

func (v *Validator) formatError(err error, field string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	details := make(map[string]string, len(verrs))
	for _, e := range verrs {
		name := e.Field()
		if field != "" {
			name = field
		}
		details[name] = friendlyMessage(e)
	}
	return domainerrors.ValidationWithDetails("validation failed", details)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return "must be at most " + e.Param()
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "tagtext":
		return "may only contain letters, digits and spaces"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "dive", "unique":
		return "contains an invalid entry"
	default:
		return "is invalid"
	}
}
