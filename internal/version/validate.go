// internal/version/validate.go
package version

import (
	"fmt"
	"strings"

	"github.com/finelli/fraudgate/internal/types"
)

/*
 * Draft and publish validation.
 *
 * Validation failures are reported as a structured field list and never
 * partially apply. Draft validation requires a name and complete
 * conditions (field, known operator, non-empty value). Publish adds
 * category and severity, since a live rule must be classifiable and must
 * carry the severity echoed into evaluation results.
 */

// ValidateDraft checks the fields saveDraft requires.
// Returns nil when the draft is saveable.
func ValidateDraft(name string, logic types.RuleLogic) *types.ValidationError {
	var issues []types.FieldIssue

	if strings.TrimSpace(name) == "" {
		issues = append(issues, types.FieldIssue{Field: "name", Reason: "required"})
	}
	if logic.ConditionCount() > types.MaxConditionsPerRule {
		issues = append(issues, types.FieldIssue{
			Field:  "logic",
			Reason: fmt.Sprintf("more than %d conditions", types.MaxConditionsPerRule),
		})
	}

	for gi, group := range logic.Groups {
		for ci, cond := range group.Conditions {
			prefix := fmt.Sprintf("groups[%d].conditions[%d]", gi, ci)
			if strings.TrimSpace(cond.Field) == "" {
				issues = append(issues, types.FieldIssue{Field: prefix + ".field", Reason: "required"})
			}
			if !cond.Operator.Known() {
				issues = append(issues, types.FieldIssue{
					Field:  prefix + ".operator",
					Reason: fmt.Sprintf("unknown operator %q", cond.Operator),
				})
			}
			if cond.Value == nil {
				issues = append(issues, types.FieldIssue{Field: prefix + ".value", Reason: "required"})
			} else if s, ok := cond.Value.(string); ok && strings.TrimSpace(s) == "" {
				issues = append(issues, types.FieldIssue{Field: prefix + ".value", Reason: "required"})
			}
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return &types.ValidationError{Fields: issues}
}

// ValidatePublish checks everything ValidateDraft does plus the metadata
// a live rule requires.
func ValidatePublish(name string, category types.Category, severity types.Severity, logic types.RuleLogic) *types.ValidationError {
	var issues []types.FieldIssue
	if ve := ValidateDraft(name, logic); ve != nil {
		issues = ve.Fields
	}

	if category == "" {
		issues = append(issues, types.FieldIssue{Field: "category", Reason: "required"})
	} else if !category.Known() {
		issues = append(issues, types.FieldIssue{Field: "category", Reason: fmt.Sprintf("unknown category %q", category)})
	}
	if severity == "" {
		issues = append(issues, types.FieldIssue{Field: "severity", Reason: "required"})
	} else if !severity.Known() {
		issues = append(issues, types.FieldIssue{Field: "severity", Reason: fmt.Sprintf("unknown severity %q", severity)})
	}

	if len(issues) == 0 {
		return nil
	}
	return &types.ValidationError{Fields: issues}
}
