// internal/types/rules.go
package types

import "time"

/*
 * Domain types for fraud rule authoring and evaluation.
 *
 * Provides FraudRule, RuleVersion, RuleLogic, ConditionGroup and
 * RuleCondition structures used by internal/rules for evaluation and by
 * internal/version for the publish workflow. These types are wire-format
 * compatible with the admin UI: JSON field names follow the UI contract
 * (ruleId, logicOperator, logic_snapshot).
 *
 * Key types:
 *   - RuleLogic: ordered sequence of condition groups
 *   - ConditionGroup: conditions sharing a logic-operator label
 *   - RuleCondition: single comparison of a payload field against a value
 *   - FraudRule: aggregate with lifecycle status and version history
 *   - RuleVersion: immutable snapshot created on publish
 *   - EvaluationResult: per-test outcome with per-condition diagnostics
 */

// Operator identifies a condition's comparison semantics. Closed enum.
type Operator string

const (
	OpGreater     Operator = "greater"
	OpLess        Operator = "less"
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpWithinTime  Operator = "within_time"
	OpIsDuplicate Operator = "is_duplicate"
	OpCount       Operator = "count"
)

// Known reports whether op is a member of the closed operator enum.
func (op Operator) Known() bool {
	switch op {
	case OpGreater, OpLess, OpEquals, OpNotEquals, OpContains,
		OpWithinTime, OpIsDuplicate, OpCount:
		return true
	}
	return false
}

// Deferred reports whether op is a declarative marker consumed by the
// batch scorer (time-window joins, cross-claim duplicate detection).
// Deferred operators cannot be decided against a single payload.
func (op Operator) Deferred() bool {
	switch op {
	case OpWithinTime, OpIsDuplicate, OpCount:
		return true
	}
	return false
}

// LogicOperator labels a condition group in the builder UI.
// IF marks the opening group; AND and OR label subsequent groups.
type LogicOperator string

const (
	LogicIf  LogicOperator = "IF"
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// RuleCondition is a single comparison of a payload field against a value.
// Field is a dot-delimited path into the claim payload (e.g. "claim.amount").
// Immutable once part of a published version; mutable while in a draft.
type RuleCondition struct {
	ID       string   `json:"id"`
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
	Unit     string   `json:"unit,omitempty"`
}

// ConditionGroup is an ordered set of conditions sharing a logic-operator
// label. Groups with zero conditions are not representable: the builder
// removes a group when its last condition is deleted.
type ConditionGroup struct {
	ID            string          `json:"id"`
	LogicOperator LogicOperator   `json:"logicOperator"`
	Conditions    []RuleCondition `json:"conditions"`
}

// RuleLogic is a rule's full boolean definition: an ordered sequence of
// condition groups combined by AND across groups.
type RuleLogic struct {
	Groups []ConditionGroup `json:"groups"`
}

// ConditionCount returns the flattened number of conditions across groups.
func (l RuleLogic) ConditionCount() int {
	n := 0
	for _, g := range l.Groups {
		n += len(g.Conditions)
	}
	return n
}

// RuleStatus is a rule's lifecycle state.
type RuleStatus string

const (
	StatusDraft    RuleStatus = "draft"
	StatusActive   RuleStatus = "active"
	StatusInactive RuleStatus = "inactive"
)

// Known reports whether s is a member of the status enum.
func (s RuleStatus) Known() bool {
	return s == StatusDraft || s == StatusActive || s == StatusInactive
}

// Category classifies a rule for the admin console.
type Category string

const (
	CategoryIdentity    Category = "identity"
	CategoryTransaction Category = "transaction"
	CategoryGeolocation Category = "geolocation"
	CategoryDocument    Category = "document"
)

// Known reports whether c is a member of the category enum.
func (c Category) Known() bool {
	switch c {
	case CategoryIdentity, CategoryTransaction, CategoryGeolocation, CategoryDocument:
		return true
	}
	return false
}

// Severity is the configured severity echoed into evaluation results.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Known reports whether s is a member of the severity enum.
func (s Severity) Known() bool {
	return s == SeverityHigh || s == SeverityMedium || s == SeverityLow
}

// FraudRule is the aggregate rule entity. Logic holds the working copy
// edited in drafts; published snapshots live in Versions (newest first).
type FraudRule struct {
	ID             RuleID        `json:"id" db:"id"`
	RuleRef        string        `json:"ruleId" db:"rule_ref"`
	Name           string        `json:"name" db:"name"`
	Description    string        `json:"description" db:"description"`
	Category       Category      `json:"category" db:"category"`
	Severity       Severity      `json:"severity" db:"severity"`
	Status         RuleStatus    `json:"status" db:"status"`
	Tags           []string      `json:"tags"`
	Logic          RuleLogic     `json:"logic"`
	CurrentVersion string        `json:"currentVersion" db:"current_version"`
	CreatedBy      string        `json:"createdBy" db:"created_by"`
	OwnerName      string        `json:"ownerName" db:"owner_name"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	Triggers24h    int           `json:"triggers24h"`
	Versions       []RuleVersion `json:"versions"`
}

// RuleVersion is an immutable snapshot of a rule's logic at publish time.
// Exactly one version per rule has IsActive=true (or zero if never
// published); at most one has IsDraft=true. Only Notes may change after
// creation.
type RuleVersion struct {
	ID            VersionID `json:"id" db:"id"`
	RuleID        RuleID    `json:"ruleId" db:"rule_id"`
	Version       string    `json:"version" db:"version"`
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy" db:"created_by"`
	Notes         string    `json:"notes" db:"notes"`
	IsActive      bool      `json:"isActive" db:"is_active"`
	IsDraft       bool      `json:"isDraft" db:"is_draft"`
	LogicSnapshot RuleLogic `json:"logic_snapshot"`
}

// Outcome is the three-valued result of a single condition test.
// Indeterminate marks deferred operators that need cross-claim data the
// synchronous tester does not have. Skipped marks conditions excluded
// from evaluation because their definition is incomplete.
type Outcome string

const (
	OutcomeMatched       Outcome = "matched"
	OutcomeNotMatched    Outcome = "not_matched"
	OutcomeIndeterminate Outcome = "indeterminate"
	OutcomeSkipped       Outcome = "skipped"
)

// ConditionResult is one entry of EvaluationResult.Conditions, in group
// order, so the UI can highlight failing conditions.
type ConditionResult struct {
	ConditionID string   `json:"conditionId"`
	Field       string   `json:"field"`
	Operator    Operator `json:"operator"`
	FieldValue  any      `json:"fieldValue"`
	Outcome     Outcome  `json:"result"`
	Note        string   `json:"note,omitempty"`
}

// ConditionIssue flags a condition excluded from evaluation.
type ConditionIssue struct {
	ConditionID string `json:"conditionId"`
	Field       string `json:"field"`
	Reason      string `json:"reason"`
}

// EvaluationResult is the ephemeral outcome of one test invocation.
// Severity echoes the rule's configured severity; the evaluator never
// computes it.
type EvaluationResult struct {
	Triggered  bool              `json:"triggered"`
	Severity   Severity          `json:"severity"`
	Details    string            `json:"details"`
	IsValid    bool              `json:"isValid"`
	Issues     []ConditionIssue  `json:"issues,omitempty"`
	Conditions []ConditionResult `json:"perConditionResults"`
}
