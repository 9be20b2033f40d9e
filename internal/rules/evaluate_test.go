package rules

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/finelli/fraudgate/internal/types"
)

func singleCondition(op types.Operator, field string, value any) types.RuleLogic {
	return types.RuleLogic{
		Groups: []types.ConditionGroup{
			{
				ID:            "g1",
				LogicOperator: types.LogicIf,
				Conditions: []types.RuleCondition{
					{ID: "c1", Field: field, Operator: op, Value: value},
				},
			},
		},
	}
}

func TestEvaluate_ThresholdIsStrict(t *testing.T) {
	logic := singleCondition(types.OpGreater, "claim.amount", float64(5000))

	tests := []struct {
		name          string
		payload       string
		wantTriggered bool
	}{
		{
			name:          "amount at threshold does not trigger",
			payload:       `{"claim": {"amount": 5000}}`,
			wantTriggered: false,
		},
		{
			name:          "amount above threshold triggers",
			payload:       `{"claim": {"amount": 5001}}`,
			wantTriggered: true,
		},
		{
			name:          "numeric string amount above threshold triggers",
			payload:       `{"claim": {"amount": "7500"}}`,
			wantTriggered: true,
		},
		{
			name:          "non-numeric amount coerces to zero and does not trigger",
			payload:       `{"claim": {"amount": "lots"}}`,
			wantTriggered: false,
		},
		{
			name:          "absent amount does not trigger",
			payload:       `{"claim": {}}`,
			wantTriggered: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(logic, types.SeverityHigh, types.Payload(tt.payload))
			if result.Triggered != tt.wantTriggered {
				t.Errorf("Triggered = %v, want %v", result.Triggered, tt.wantTriggered)
			}
			if !result.IsValid {
				t.Errorf("IsValid = false, want true")
			}
		})
	}
}

func TestEvaluate_LooseEquality(t *testing.T) {
	logic := singleCondition(types.OpEquals, "device.is_new", "true")

	result := Evaluate(logic, types.SeverityMedium, types.Payload(`{"device": {"is_new": true}}`))
	if !result.Triggered {
		t.Errorf("bool true against string %q: Triggered = false, want true", "true")
	}

	result = Evaluate(logic, types.SeverityMedium, types.Payload(`{"device": {"is_new": false}}`))
	if result.Triggered {
		t.Errorf("bool false against string %q: Triggered = true, want false", "true")
	}
}

func TestEvaluate_GroupsCombineWithAND(t *testing.T) {
	logic := types.RuleLogic{
		Groups: []types.ConditionGroup{
			{
				ID:            "g1",
				LogicOperator: types.LogicIf,
				Conditions: []types.RuleCondition{
					{ID: "c1", Field: "claim.amount", Operator: types.OpGreater, Value: float64(5000)},
				},
			},
			{
				ID:            "g2",
				LogicOperator: types.LogicAnd,
				Conditions: []types.RuleCondition{
					{ID: "c2", Field: "geo_distance", Operator: types.OpGreater, Value: float64(50)},
				},
			},
		},
	}

	result := Evaluate(logic, types.SeverityHigh, types.Payload(`{"claim": {"amount": 7500}, "geo_distance": 120}`))
	if !result.Triggered {
		t.Errorf("both groups satisfied: Triggered = false, want true")
	}

	result = Evaluate(logic, types.SeverityHigh, types.Payload(`{"claim": {"amount": 7500}, "geo_distance": 10}`))
	if result.Triggered {
		t.Errorf("second group fails: Triggered = true, want false")
	}
}

func TestEvaluate_ORGroupAnyMatch(t *testing.T) {
	logic := types.RuleLogic{
		Groups: []types.ConditionGroup{
			{
				ID:            "g1",
				LogicOperator: types.LogicOr,
				Conditions: []types.RuleCondition{
					{ID: "c1", Field: "claim.amount", Operator: types.OpGreater, Value: float64(5000)},
					{ID: "c2", Field: "geo_distance", Operator: types.OpGreater, Value: float64(50)},
				},
			},
		},
	}

	// Only the second condition matches
	result := Evaluate(logic, types.SeverityLow, types.Payload(`{"claim": {"amount": 10}, "geo_distance": 120}`))
	if !result.Triggered {
		t.Errorf("OR group with one match: Triggered = false, want true")
	}

	// Neither matches
	result = Evaluate(logic, types.SeverityLow, types.Payload(`{"claim": {"amount": 10}, "geo_distance": 10}`))
	if result.Triggered {
		t.Errorf("OR group with no match: Triggered = true, want false")
	}
}

func TestEvaluate_DeferredConditionsAreIndeterminate(t *testing.T) {
	logic := types.RuleLogic{
		Groups: []types.ConditionGroup{
			{
				ID:            "g1",
				LogicOperator: types.LogicIf,
				Conditions: []types.RuleCondition{
					{ID: "c1", Field: "claim.amount", Operator: types.OpGreater, Value: float64(5000)},
					{ID: "c2", Field: "claim.submitted_at", Operator: types.OpWithinTime, Value: float64(24), Unit: "hours"},
				},
			},
		},
	}

	result := Evaluate(logic, types.SeverityHigh, types.Payload(`{"claim": {"amount": 7500}}`))
	if !result.Triggered {
		t.Errorf("indeterminate condition vetoed the group: Triggered = false, want true")
	}

	var deferred *types.ConditionResult
	for i := range result.Conditions {
		if result.Conditions[i].ConditionID == "c2" {
			deferred = &result.Conditions[i]
		}
	}
	if deferred == nil {
		t.Fatalf("deferred condition missing from results")
	}
	if deferred.Outcome != types.OutcomeIndeterminate {
		t.Errorf("deferred Outcome = %s, want indeterminate", deferred.Outcome)
	}
	if deferred.Note != NoteDeferred {
		t.Errorf("deferred Note = %q, want %q", deferred.Note, NoteDeferred)
	}

	// Deferred conditions count toward the total, not the matches
	want := "1 of 2 conditions matched (1 " + NoteDeferred + ")"
	if result.Details != want {
		t.Errorf("Details = %q, want %q", result.Details, want)
	}
}

func TestEvaluate_OnlyDeferredNeverTriggers(t *testing.T) {
	logic := singleCondition(types.OpIsDuplicate, "document.hash", true)

	result := Evaluate(logic, types.SeverityHigh, types.Payload(`{"document": {"hash": "abc"}}`))
	if result.Triggered {
		t.Errorf("rule with only deferred conditions: Triggered = true, want false")
	}
	if !result.IsValid {
		t.Errorf("IsValid = false, want true (condition is well-formed)")
	}
	want := "0 of 1 conditions matched (1 " + NoteDeferred + ")"
	if result.Details != want {
		t.Errorf("Details = %q, want %q", result.Details, want)
	}
}

func TestEvaluate_InvalidConditionsSkipped(t *testing.T) {
	logic := types.RuleLogic{
		Groups: []types.ConditionGroup{
			{
				ID:            "g1",
				LogicOperator: types.LogicIf,
				Conditions: []types.RuleCondition{
					{ID: "c1", Field: "", Operator: types.OpGreater, Value: float64(5000)},
					{ID: "c2", Field: "claim.amount", Operator: types.OpGreater, Value: nil},
					{ID: "c3", Field: "claim.amount", Operator: "between", Value: float64(5000)},
					{ID: "c4", Field: "claim.amount", Operator: types.OpGreater, Value: float64(5000)},
				},
			},
		},
	}

	result := Evaluate(logic, types.SeverityHigh, types.Payload(`{"claim": {"amount": 7500}}`))
	if !result.Triggered {
		t.Errorf("valid condition matched: Triggered = false, want true")
	}
	if len(result.Issues) != 3 {
		t.Fatalf("Issues count = %d, want 3", len(result.Issues))
	}

	wantReasons := map[string]string{
		"c1": "missing field",
		"c2": "missing value",
		"c3": "unknown operator",
	}
	for _, issue := range result.Issues {
		if want := wantReasons[issue.ConditionID]; issue.Reason != want {
			t.Errorf("issue %s reason = %q, want %q", issue.ConditionID, issue.Reason, want)
		}
	}

	for _, cr := range result.Conditions {
		if cr.ConditionID != "c4" && cr.Outcome != types.OutcomeSkipped {
			t.Errorf("condition %s Outcome = %s, want skipped", cr.ConditionID, cr.Outcome)
		}
	}
}

func TestEvaluate_NoValidConditions(t *testing.T) {
	tests := []struct {
		name  string
		logic types.RuleLogic
	}{
		{
			name:  "empty logic",
			logic: types.RuleLogic{},
		},
		{
			name: "all conditions invalid",
			logic: types.RuleLogic{
				Groups: []types.ConditionGroup{
					{
						ID:            "g1",
						LogicOperator: types.LogicIf,
						Conditions: []types.RuleCondition{
							{ID: "c1", Field: "", Operator: types.OpGreater, Value: float64(1)},
							{ID: "c2", Field: "x", Operator: types.OpEquals, Value: "  "},
						},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(tt.logic, types.SeverityLow, types.Payload(`{"x": 1}`))
			if result.Triggered {
				t.Errorf("Triggered = true, want false")
			}
			if result.IsValid {
				t.Errorf("IsValid = true, want false")
			}
			if result.Details != "no valid conditions" {
				t.Errorf("Details = %q, want %q", result.Details, "no valid conditions")
			}
		})
	}
}

func TestEvaluate_MalformedPayload(t *testing.T) {
	logic := singleCondition(types.OpNotEquals, "claim.amount", float64(5000))

	// Unparseable payloads evaluate like an empty claim: the field is
	// absent, which vacuously matches not_equals
	for _, payload := range []string{`{not json`, `[]`, `"scalar"`, `null`, ``} {
		result := Evaluate(logic, types.SeverityLow, types.Payload(payload))
		if !result.Triggered {
			t.Errorf("payload %q: Triggered = false, want true", payload)
		}
	}
}

func TestEvaluate_SeverityEchoed(t *testing.T) {
	logic := singleCondition(types.OpGreater, "claim.amount", float64(5000))
	result := Evaluate(logic, types.SeverityMedium, types.Payload(`{"claim": {"amount": 7500}}`))
	if result.Severity != types.SeverityMedium {
		t.Errorf("Severity = %s, want medium", result.Severity)
	}
}

func TestEvaluate_Details(t *testing.T) {
	logic := types.RuleLogic{
		Groups: []types.ConditionGroup{
			{
				ID:            "g1",
				LogicOperator: types.LogicOr,
				Conditions: []types.RuleCondition{
					{ID: "c1", Field: "claim.amount", Operator: types.OpGreater, Value: float64(5000)},
					{ID: "c2", Field: "geo_distance", Operator: types.OpGreater, Value: float64(500)},
				},
			},
		},
	}

	result := Evaluate(logic, types.SeverityHigh, types.Payload(`{"claim": {"amount": 7500}, "geo_distance": 120}`))
	if result.Details != "1 of 2 conditions matched" {
		t.Errorf("Details = %q, want %q", result.Details, "1 of 2 conditions matched")
	}
}

// Property-based test: evaluation is pure and never panics
func TestEvaluate_PropertyNeverPanics(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	operators := []types.Operator{
		types.OpGreater, types.OpLess, types.OpEquals, types.OpNotEquals,
		types.OpContains, types.OpWithinTime, types.OpIsDuplicate, types.OpCount,
		"bogus",
	}

	properties.Property("evaluation never panics on arbitrary payload bytes", prop.ForAll(
		func(payload string, opIdx int, field string, value string) bool {
			logic := singleCondition(operators[opIdx%len(operators)], field, value)

			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Evaluate() panicked: %v", r)
				}
			}()
			_ = Evaluate(logic, types.SeverityLow, types.Payload(payload))
			return true
		},
		gen.AnyString(),
		gen.IntRange(0, len(operators)-1),
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("evaluation is deterministic", prop.ForAll(
		func(amount int) bool {
			logic := singleCondition(types.OpGreater, "claim.amount", float64(5000))
			payload := types.Payload(fmt.Sprintf(`{"claim": {"amount": %d}}`, amount))

			r1 := Evaluate(logic, types.SeverityHigh, payload)
			r2 := Evaluate(logic, types.SeverityHigh, payload)

			b1, _ := json.Marshal(r1)
			b2, _ := json.Marshal(r2)
			return string(b1) == string(b2)
		},
		gen.IntRange(-1000000, 1000000),
	))

	properties.TestingRun(t)
}
