// internal/rules/coercion.go
package rules

import (
	"fmt"
	"strconv"
	"strings"
)

/*
 * Type coercion for rule evaluation.
 *
 * Coercion is total: every function here returns a value for every input
 * and never errors. Rule testing runs against arbitrary, sometimes
 * adversarial claim data, and a malformed value must degrade to a defined
 * fallback instead of crashing the authoring UI.
 *
 * Rules:
 *   - CoerceNumeric: float64 passthrough; strings get a trimmed base-10
 *     integer parse with fallback 0; booleans and anything else coerce
 *     to 0. "abc" greater 0 therefore compares 0 > 0, not a type error.
 *   - CoerceString: canonical string rendering of any JSON value.
 *   - LooselyEqual: numeric comparison when both sides parse as numbers,
 *     otherwise string comparison. equals and not_equals are exact
 *     complements by construction.
 */

// CoerceNumeric converts any JSON value to a float64 with fallback 0.
func CoerceNumeric(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0
		}
		return float64(i)
	default:
		// booleans, nulls, containers
		return 0
	}
}

// CoerceString converts any JSON value to its canonical string rendering.
func CoerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		if s {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

// LooselyEqual compares two values after attempting same-type coercion:
// numeric strings are compared as numbers, everything else as strings.
func LooselyEqual(a, b any) bool {
	if na, ok := asNumber(a); ok {
		if nb, ok := asNumber(b); ok {
			return na == nb
		}
	}
	return CoerceString(a) == CoerceString(b)
}

// asNumber converts v to float64 when it is a number or a numeric string.
// Unlike CoerceNumeric there is no zero fallback: the ok flag gates
// whether numeric comparison applies at all.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
