// internal/rules/evaluate.go
package rules

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/finelli/fraudgate/internal/types"
)

/*
 * Rule evaluation orchestration.
 *
 * Evaluate runs a RuleLogic tree against a single claim payload and
 * produces per-condition diagnostics for the authoring UI. Pure and
 * deterministic: no I/O, no randomness, no errors for malformed payloads
 * (an unparseable payload evaluates like an empty claim).
 *
 * Group semantics: groups combine with AND across the rule. Within a
 * group the OR label means any condition must match; IF and AND mean all
 * must match. Indeterminate outcomes (deferred operators) never veto a
 * group, and a group with only indeterminate conditions is vacuously
 * satisfied.
 *
 * Trigger rule: the rule triggers iff every group is satisfied and at
 * least one condition produced a determinate match. Conditions with an
 * empty field or value are excluded from the conjunction and flagged as
 * issues; a rule consisting solely of such conditions never triggers and
 * is marked invalid.
 */

// Evaluate runs logic against payload and echoes severity into the result.
func Evaluate(logic types.RuleLogic, severity types.Severity, payload types.Payload) types.EvaluationResult {
	claim := parseClaim(payload)

	result := types.EvaluationResult{
		Severity:   severity,
		Conditions: make([]types.ConditionResult, 0, logic.ConditionCount()),
	}

	var (
		validCount  int
		matched     int
		determinate int
		allGroupsOK = true
	)

	for _, group := range logic.Groups {
		var groupMatched, groupDeterminate int

		for _, cond := range group.Conditions {
			cr := types.ConditionResult{
				ConditionID: cond.ID,
				Field:       cond.Field,
				Operator:    cond.Operator,
			}

			if issue := validateCondition(cond); issue != "" {
				cr.Outcome = types.OutcomeSkipped
				cr.Note = issue
				result.Conditions = append(result.Conditions, cr)
				result.Issues = append(result.Issues, types.ConditionIssue{
					ConditionID: cond.ID,
					Field:       cond.Field,
					Reason:      issue,
				})
				continue
			}

			validCount++
			field := Resolve(cond.Field, claim)
			if field.Present {
				cr.FieldValue = field.Value
			}

			cr.Outcome = Apply(cond.Operator, field, cond.Value)
			switch cr.Outcome {
			case types.OutcomeIndeterminate:
				cr.Note = NoteDeferred
			case types.OutcomeMatched:
				matched++
				determinate++
				groupMatched++
				groupDeterminate++
			case types.OutcomeNotMatched:
				determinate++
				groupDeterminate++
			}
			result.Conditions = append(result.Conditions, cr)
		}

		if !groupSatisfied(group.LogicOperator, groupMatched, groupDeterminate) {
			allGroupsOK = false
		}
	}

	result.IsValid = validCount > 0
	result.Triggered = result.IsValid && determinate > 0 && allGroupsOK
	if result.IsValid {
		result.Details = fmt.Sprintf("%d of %d conditions matched", matched, validCount)
		if deferred := validCount - determinate; deferred > 0 {
			result.Details += fmt.Sprintf(" (%d %s)", deferred, NoteDeferred)
		}
	} else {
		result.Details = "no valid conditions"
	}

	return result
}

// groupSatisfied applies the group's logic-operator label to its
// determinate outcomes. Groups with no determinate outcome never veto.
func groupSatisfied(op types.LogicOperator, matched, determinate int) bool {
	if determinate == 0 {
		return true
	}
	if op == types.LogicOr {
		return matched > 0
	}
	return matched == determinate
}

// validateCondition returns the issue excluding cond from evaluation,
// or "" when the condition is evaluable.
func validateCondition(cond types.RuleCondition) string {
	if strings.TrimSpace(cond.Field) == "" {
		return "missing field"
	}
	if emptyValue(cond.Value) {
		return "missing value"
	}
	if !cond.Operator.Known() {
		return "unknown operator"
	}
	return ""
}

// emptyValue reports whether a condition's comparison value is absent.
// Zero is a legitimate comparison value; only nil and blank strings are empty.
func emptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// parseClaim unmarshals the payload into a generic object. Malformed or
// non-object payloads evaluate like an empty claim; the never-throw
// policy means absent fields, not errors.
func parseClaim(payload types.Payload) map[string]any {
	if len(payload) == 0 {
		return map[string]any{}
	}
	var claim map[string]any
	if err := json.Unmarshal(payload, &claim); err != nil || claim == nil {
		return map[string]any{}
	}
	return claim
}
