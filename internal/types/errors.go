package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy for the rule administration core.
//
// ValidationError: malformed or incomplete rule definition, field list
// attached, recoverable by the caller correcting input.
// ConflictError: concurrent modification detected during publish or
// status change, recoverable via refresh-and-retry.
// NotFoundError: referenced rule or version does not exist, terminal for
// that request.
//
// The evaluator itself never raises errors for malformed payload data;
// it degrades via coercion so rule testing never crashes the authoring UI.

// Sentinel errors for store-level failures.
var (
	// ErrPayloadTooLarge indicates a test or execution payload exceeds MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")

	// ErrTooManyConditions indicates a rule exceeds MaxConditionsPerRule.
	ErrTooManyConditions = errors.New("rule has too many conditions")
)

// FieldIssue identifies one offending field in a validation failure.
type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports an incomplete or malformed rule definition.
// Validation never partially applies: the rule is left untouched.
type ValidationError struct {
	Fields []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConflictError reports that a compare-and-swap on a rule's current
// version failed because another writer got there first. Callers refresh
// and retry (bounded) or surface the conflict to the operator.
type ConflictError struct {
	RuleID   RuleID
	Expected string
	Actual   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("rule %s modified concurrently: expected version %q, found %q",
		e.RuleID, e.Expected, e.Actual)
}

// NotFoundError reports a missing rule or version.
type NotFoundError struct {
	Kind string // "rule" or "version"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
