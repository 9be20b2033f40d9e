package types

import (
	"fmt"

	"github.com/google/uuid"
)

// RuleID represents a UUIDv7 rule identifier.
// String alias enables type safety while maintaining JSON string serialization.
// UUIDv7 time-ordering ensures sequential IDs cluster in B-tree indexes.
type RuleID string

// VersionID represents a UUIDv7 rule-version identifier.
type VersionID string

// AuditID represents a UUIDv7 audit-log entry identifier.
type AuditID string

// NewRuleID generates a UUIDv7 rule identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRuleID() RuleID {
	return RuleID(uuid.Must(uuid.NewV7()).String())
}

// NewVersionID generates a UUIDv7 rule-version identifier.
func NewVersionID() VersionID {
	return VersionID(uuid.Must(uuid.NewV7()).String())
}

// NewAuditID generates a UUIDv7 audit-log entry identifier.
func NewAuditID() AuditID {
	return AuditID(uuid.Must(uuid.NewV7()).String())
}

// NewExecutionID generates a UUIDv7 execution-record identifier.
func NewExecutionID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewRuleRef generates the short human-facing rule reference shown in the
// console (e.g. "FR-9f2c81d4"). Not a primary key; rules are keyed by RuleID.
func NewRuleRef() string {
	u := uuid.Must(uuid.NewV7())
	return fmt.Sprintf("FR-%x", u[:4])
}

// ParseRuleID validates and converts a string to RuleID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseRuleID(s string) (RuleID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return RuleID(s), nil
}

// ParseVersionID validates and converts a string to VersionID.
func ParseVersionID(s string) (VersionID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return VersionID(s), nil
}
