// Package validation turns struct tag validation into a field → code map
// that templates translate with i18n.
package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Error lets services return violations as an error; fields are sorted.
func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for field, code := range v {
		parts = append(parts, field+": "+code)
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, ", ")
}

// Err returns v as an error, or nil when there is no violation.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

// Add records code for field unless the field already has one.
func (v Violations) Add(field, code string) {
	if _, exists := v[field]; !exists {
		v[field] = code
	}
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v.Add(field, "out_of_range")
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report fields by their form name so templates can match inputs
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates s using its `validate` tags.
// A non-struct argument yields a single "_" violation.
func Struct(s any) Violations {
	out := Violations{}
	err := instance().Struct(s)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add("_", "invalid")
		return out
	}
	for _, fe := range verrs {
		out.Add(fe.Field(), codeFor(fe))
	}
	return out
}

func codeFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "required"
	case "oneof":
		return "invalid_choice"
	case "datetime":
		return "invalid_date"
	case "min":
		if fe.Kind() == reflect.String {
			return "too_short"
		}
		return "out_of_range"
	case "max", "gte", "lte", "gt", "lt":
		return "out_of_range"
	}
	return "invalid"
}
