// Package validate checks prediction form input before it is sent to the backend.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Values is a decoded form: field name to number, numeric string or empty.
type Values map[string]any

type Range struct {
	Field string  `json:"field"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// RequiredFields must be present and non-empty in every submission.
var RequiredFields = []string{"slope_angle", "joint_spacing", "rock_strength"}

// DefaultRanges are the bounds enforced on every submission.
var DefaultRanges = []Range{
	{Field: "slope_angle", Min: 0, Max: 90},
	{Field: "joint_spacing", Min: 0, Max: 10},
	{Field: "rock_strength", Min: 0, Max: 200},
}

type MissingError struct {
	Fields []string
}

func (e *MissingError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

type RangeError struct {
	Field string
	Min   float64
	Max   float64
	Value float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s must be between %s and %s", e.Field, formatNumber(e.Min), formatNumber(e.Max))
}

type NumberError struct {
	Field string
	Raw   any
}

func (e *NumberError) Error() string {
	return fmt.Sprintf("%s must be a number, got %v", e.Field, e.Raw)
}

type Validator struct {
	required []string
	ranges   []Range
}

func New(required []string, ranges []Range) *Validator {
	return &Validator{
		required: append([]string(nil), required...),
		ranges:   append([]Range(nil), ranges...),
	}
}

func Default() *Validator {
	return New(RequiredFields, DefaultRanges)
}

// Strict enforces the form bounds of every input field.
func Strict() *Validator {
	fields := FormFields()
	ranges := make([]Range, 0, len(fields))
	for _, f := range fields {
		ranges = append(ranges, Range{Field: f.Key, Min: f.Min, Max: f.Max})
	}
	return New(RequiredFields, ranges)
}

// ForMode returns Strict when strict is set, Default otherwise.
func ForMode(strict bool) *Validator {
	if strict {
		return Strict()
	}
	return Default()
}

func (v *Validator) Ranges() []Range {
	return append([]Range(nil), v.ranges...)
}

// Validate returns the first problem found: missing required fields take
// precedence over range checks, which run in declaration order.
func (v *Validator) Validate(values Values) error {
	if missing := v.missing(values); len(missing) > 0 {
		return &MissingError{Fields: missing}
	}
	for _, r := range v.ranges {
		if err := checkRange(values, r); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAll reports every problem at once as a combined error.
func (v *Validator) ValidateAll(values Values) error {
	var err error
	if missing := v.missing(values); len(missing) > 0 {
		err = multierr.Append(err, &MissingError{Fields: missing})
	}
	for _, r := range v.ranges {
		err = multierr.Append(err, checkRange(values, r))
	}
	return err
}

// Messages flattens a Validate or ValidateAll error into display strings.
func Messages(err error) []string {
	errs := multierr.Errors(err)
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}

func (v *Validator) missing(values Values) []string {
	var out []string
	for _, field := range v.required {
		raw, ok := values[field]
		if !ok || isEmpty(raw) {
			out = append(out, field)
		}
	}
	return out
}

func checkRange(values Values, r Range) error {
	raw, ok := values[r.Field]
	if !ok || isEmpty(raw) {
		return nil
	}
	n, ok := toFloat(raw)
	if !ok {
		return &NumberError{Field: r.Field, Raw: raw}
	}
	if n < r.Min || n > r.Max {
		return &RangeError{Field: r.Field, Min: r.Min, Max: r.Max, Value: n}
	}
	return nil
}

func isEmpty(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case json.Number:
		return strings.TrimSpace(string(v)) == ""
	}
	return false
}

// toFloat accepts finite numbers only.
func toFloat(raw any) (float64, bool) {
	f, ok := parseFloat(raw)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
