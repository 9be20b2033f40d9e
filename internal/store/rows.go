package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/finelli/fraudgate/internal/types"
)

// ruleRow mirrors the rules table. Timestamps are stored as RFC 3339
// text and logic/tags as JSON text so the same row shape works on both
// SQLite and PostgreSQL.
type ruleRow struct {
	ID             string `db:"id"`
	RuleRef        string `db:"rule_ref"`
	Name           string `db:"name"`
	Description    string `db:"description"`
	Category       string `db:"category"`
	Severity       string `db:"severity"`
	Status         string `db:"status"`
	Logic          string `db:"logic"`
	Tags           string `db:"tags"`
	CurrentVersion string `db:"current_version"`
	CreatedBy      string `db:"created_by"`
	OwnerName      string `db:"owner_name"`
	CreatedAt      string `db:"created_at"`
	UpdatedAt      string `db:"updated_at"`
}

func (row ruleRow) toRule() (*types.FraudRule, error) {
	var logic types.RuleLogic
	if err := json.Unmarshal([]byte(row.Logic), &logic); err != nil {
		return nil, fmt.Errorf("decode logic for rule %s: %w", row.ID, err)
	}
	var tags []string
	if err := json.Unmarshal([]byte(row.Tags), &tags); err != nil {
		return nil, fmt.Errorf("decode tags for rule %s: %w", row.ID, err)
	}
	createdAt, err := parseTimestamp(row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("rule %s created_at: %w", row.ID, err)
	}
	updatedAt, err := parseTimestamp(row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("rule %s updated_at: %w", row.ID, err)
	}
	return &types.FraudRule{
		ID:             types.RuleID(row.ID),
		RuleRef:        row.RuleRef,
		Name:           row.Name,
		Description:    row.Description,
		Category:       types.Category(row.Category),
		Severity:       types.Severity(row.Severity),
		Status:         types.RuleStatus(row.Status),
		Logic:          logic,
		Tags:           tags,
		CurrentVersion: row.CurrentVersion,
		CreatedBy:      row.CreatedBy,
		OwnerName:      row.OwnerName,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// versionRow mirrors the rule_versions table.
type versionRow struct {
	ID            string `db:"id"`
	RuleID        string `db:"rule_id"`
	Version       string `db:"version"`
	LogicSnapshot string `db:"logic_snapshot"`
	Notes         string `db:"notes"`
	IsActive      bool   `db:"is_active"`
	IsDraft       bool   `db:"is_draft"`
	CreatedBy     string `db:"created_by"`
	CreatedAt     string `db:"created_at"`
}

func (row versionRow) toVersion() (types.RuleVersion, error) {
	var logic types.RuleLogic
	if err := json.Unmarshal([]byte(row.LogicSnapshot), &logic); err != nil {
		return types.RuleVersion{}, fmt.Errorf("decode snapshot for version %s: %w", row.ID, err)
	}
	createdAt, err := parseTimestamp(row.CreatedAt)
	if err != nil {
		return types.RuleVersion{}, fmt.Errorf("version %s created_at: %w", row.ID, err)
	}
	return types.RuleVersion{
		ID:            types.VersionID(row.ID),
		RuleID:        types.RuleID(row.RuleID),
		Version:       row.Version,
		LogicSnapshot: logic,
		Notes:         row.Notes,
		IsActive:      row.IsActive,
		IsDraft:       row.IsDraft,
		CreatedBy:     row.CreatedBy,
		CreatedAt:     createdAt,
	}, nil
}

// activeVersionRow is versionRow joined with the owning rule's severity.
type activeVersionRow struct {
	versionRow
	RuleSeverity string `db:"rule_severity"`
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
