package version

import (
	"testing"

	"github.com/finelli/fraudgate/internal/types"
)

func validLogic() types.RuleLogic {
	return types.RuleLogic{
		Groups: []types.ConditionGroup{
			{
				ID:            "g1",
				LogicOperator: types.LogicIf,
				Conditions: []types.RuleCondition{
					{ID: "c1", Field: "claim.amount", Operator: types.OpGreater, Value: float64(5000)},
				},
			},
		},
	}
}

func issueFields(ve *types.ValidationError) map[string]string {
	out := make(map[string]string)
	if ve == nil {
		return out
	}
	for _, f := range ve.Fields {
		out[f.Field] = f.Reason
	}
	return out
}

func TestValidateDraft(t *testing.T) {
	t.Run("valid draft passes", func(t *testing.T) {
		if ve := ValidateDraft("High value claims", validLogic()); ve != nil {
			t.Errorf("ValidateDraft() = %v, want nil", ve)
		}
	})

	t.Run("empty logic is a saveable draft", func(t *testing.T) {
		if ve := ValidateDraft("Work in progress", types.RuleLogic{}); ve != nil {
			t.Errorf("ValidateDraft() = %v, want nil", ve)
		}
	})

	t.Run("name required", func(t *testing.T) {
		ve := ValidateDraft("   ", validLogic())
		if ve == nil {
			t.Fatalf("ValidateDraft() = nil, want error")
		}
		if reason := issueFields(ve)["name"]; reason != "required" {
			t.Errorf("name reason = %q, want required", reason)
		}
	})

	t.Run("incomplete conditions reported positionally", func(t *testing.T) {
		logic := types.RuleLogic{
			Groups: []types.ConditionGroup{
				{
					ID:            "g1",
					LogicOperator: types.LogicIf,
					Conditions: []types.RuleCondition{
						{ID: "c1", Field: "", Operator: types.OpGreater, Value: float64(1)},
						{ID: "c2", Field: "claim.amount", Operator: "between", Value: nil},
					},
				},
			},
		}
		ve := ValidateDraft("name", logic)
		if ve == nil {
			t.Fatalf("ValidateDraft() = nil, want error")
		}
		fields := issueFields(ve)
		if _, ok := fields["groups[0].conditions[0].field"]; !ok {
			t.Errorf("missing issue for groups[0].conditions[0].field, got %v", fields)
		}
		if _, ok := fields["groups[0].conditions[1].operator"]; !ok {
			t.Errorf("missing issue for groups[0].conditions[1].operator, got %v", fields)
		}
		if _, ok := fields["groups[0].conditions[1].value"]; !ok {
			t.Errorf("missing issue for groups[0].conditions[1].value, got %v", fields)
		}
	})

	t.Run("zero is a legitimate value", func(t *testing.T) {
		logic := validLogic()
		logic.Groups[0].Conditions[0].Value = float64(0)
		if ve := ValidateDraft("name", logic); ve != nil {
			t.Errorf("ValidateDraft() = %v, want nil", ve)
		}
	})

	t.Run("condition cap enforced", func(t *testing.T) {
		conditions := make([]types.RuleCondition, types.MaxConditionsPerRule+1)
		for i := range conditions {
			conditions[i] = types.RuleCondition{ID: "c", Field: "x", Operator: types.OpEquals, Value: "y"}
		}
		logic := types.RuleLogic{Groups: []types.ConditionGroup{
			{ID: "g1", LogicOperator: types.LogicIf, Conditions: conditions},
		}}
		ve := ValidateDraft("name", logic)
		if ve == nil {
			t.Fatalf("ValidateDraft() = nil, want error")
		}
		if _, ok := issueFields(ve)["logic"]; !ok {
			t.Errorf("missing issue for logic")
		}
	})
}

func TestValidatePublish(t *testing.T) {
	t.Run("valid publish passes", func(t *testing.T) {
		ve := ValidatePublish("name", types.CategoryTransaction, types.SeverityHigh, validLogic())
		if ve != nil {
			t.Errorf("ValidatePublish() = %v, want nil", ve)
		}
	})

	t.Run("category and severity required", func(t *testing.T) {
		ve := ValidatePublish("name", "", "", validLogic())
		if ve == nil {
			t.Fatalf("ValidatePublish() = nil, want error")
		}
		fields := issueFields(ve)
		if fields["category"] != "required" {
			t.Errorf("category reason = %q, want required", fields["category"])
		}
		if fields["severity"] != "required" {
			t.Errorf("severity reason = %q, want required", fields["severity"])
		}
	})

	t.Run("unknown enum members rejected", func(t *testing.T) {
		ve := ValidatePublish("name", "billing", "critical", validLogic())
		if ve == nil {
			t.Fatalf("ValidatePublish() = nil, want error")
		}
		fields := issueFields(ve)
		if _, ok := fields["category"]; !ok {
			t.Errorf("missing issue for category")
		}
		if _, ok := fields["severity"]; !ok {
			t.Errorf("missing issue for severity")
		}
	})

	t.Run("draft issues carried through", func(t *testing.T) {
		ve := ValidatePublish("", types.CategoryIdentity, types.SeverityLow, validLogic())
		if ve == nil {
			t.Fatalf("ValidatePublish() = nil, want error")
		}
		if _, ok := issueFields(ve)["name"]; !ok {
			t.Errorf("missing issue for name")
		}
	})
}
