package envelope

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// String returns m[key] rendered as a string, or "" when absent.
func String(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Object returns m[key] as a JSON object, or nil.
func Object(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	o, _ := m[key].(map[string]any)
	return o
}

// Array returns v as a JSON array, or nil.
func Array(v any) []any {
	a, _ := v.([]any)
	return a
}

// Int reads an integer field that may be encoded as a number or a string.
func Int(m map[string]any, key string) (int64, error) {
	if m == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	v, ok := m[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	n, err := Minor(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// IntOr is Int with a fallback for absent or malformed fields.
func IntOr(m map[string]any, key string, fallback int64) int64 {
	n, err := Int(m, key)
	if err != nil {
		return fallback
	}
	return n
}

// Minor normalizes a money amount in minor units. GraphQL encodes money as a
// decimal string ("24999"), REST as a JSON number (24999). Fractional minor
// units are rejected.
func Minor(v any) (int64, error) {
	var d decimal.Decimal
	var err error

	switch t := v.(type) {
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(t))
	case json.Number:
		d, err = decimal.NewFromString(t.String())
	case float64:
		d = decimal.NewFromFloat(t)
	case int:
		d = decimal.NewFromInt(int64(t))
	case int64:
		d = decimal.NewFromInt(t)
	default:
		return 0, fmt.Errorf("%w: %T is not a number", ErrInvalidValue, v)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: %s has fractional minor units", ErrInvalidValue, d.String())
	}
	if d.GreaterThan(maxMinor) || d.LessThan(minMinor) {
		return 0, fmt.Errorf("%w: %s overflows int64 minor units", ErrInvalidValue, d.String())
	}
	return d.IntPart(), nil
}

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// FormatMinor renders minor units the way the zero-default balance is
// reported ("0", "950002").
func FormatMinor(n int64) string {
	return decimal.NewFromInt(n).String()
}
