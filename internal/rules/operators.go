// internal/rules/operators.go
package rules

import (
	"strings"

	"github.com/finelli/fraudgate/internal/types"
)

/*
 * Operator comparison logic.
 *
 * Apply decides a single condition given a resolved field value and the
 * condition's comparison value. Outcomes are three-valued: deferred
 * operators (within_time, is_duplicate, count) need cross-claim data the
 * synchronous tester does not have and always come back indeterminate,
 * never false.
 *
 * Absent policy: an absent field fails every operator except not_equals
 * against a concrete value, which is vacuously different.
 *
 * Why function-based: five pure operators via switch statement read
 * better than five interface implementations with minimal behavior
 * variation.
 */

// NoteDeferred is surfaced on deferred operators so UIs don't misreport
// them as failures.
const NoteDeferred = "not evaluable in test mode"

// Apply evaluates op against a resolved field value and comparison value.
func Apply(op types.Operator, field FieldValue, value any) types.Outcome {
	if op.Deferred() {
		return types.OutcomeIndeterminate
	}

	if !field.Present {
		if op == types.OpNotEquals {
			// Absent is vacuously different from any concrete value
			return types.OutcomeMatched
		}
		return types.OutcomeNotMatched
	}

	switch op {
	case types.OpGreater:
		return outcome(CoerceNumeric(field.Value) > CoerceNumeric(value))
	case types.OpLess:
		return outcome(CoerceNumeric(field.Value) < CoerceNumeric(value))
	case types.OpEquals:
		return outcome(LooselyEqual(field.Value, value))
	case types.OpNotEquals:
		return outcome(!LooselyEqual(field.Value, value))
	case types.OpContains:
		return outcome(strings.Contains(CoerceString(field.Value), CoerceString(value)))
	default:
		return types.OutcomeNotMatched
	}
}

func outcome(matched bool) types.Outcome {
	if matched {
		return types.OutcomeMatched
	}
	return types.OutcomeNotMatched
}
