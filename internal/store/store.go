// Package store persists fraud rules, version snapshots and the execution
// log on SQLite or PostgreSQL.
//
// All access goes through named queries loaded by internal/core/db; the
// only hand-built SQL lives in the .sql files. Publish and status changes
// are compare-and-swapped on the rule's current version: the UPDATE's
// WHERE clause carries the expected version and a zero row count surfaces
// as ConflictError. That is the store-side primitive the version manager's
// lost-update prevention relies on.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/finelli/fraudgate/internal/core/db"
	"github.com/finelli/fraudgate/internal/types"
)

const defaultListLimit = 100

// Execution is one recorded evaluation of an active rule version against
// an incoming claim.
type Execution struct {
	ID         string
	RuleID     types.RuleID
	VersionID  types.VersionID
	Payload    types.Payload
	Triggered  bool
	Severity   types.Severity
	ExecutedAt time.Time
}

// SQLStore implements rule persistence over sqlx and named queries.
type SQLStore struct {
	conn *sqlx.DB
	q    *db.Queries
}

// New creates a store over an open connection.
func New(conn *sqlx.DB, queries *db.Queries) *SQLStore {
	return &SQLStore{conn: conn, q: queries}
}

// GetRule loads a rule without its version history.
func (s *SQLStore) GetRule(ctx context.Context, id types.RuleID) (*types.FraudRule, error) {
	var row ruleRow
	err := s.q.Get(ctx, "get-rule", &row, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.NotFoundError{Kind: "rule", ID: string(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("get rule: %w", err)
	}
	return row.toRule()
}

// ListRules returns rules ordered newest first.
func (s *SQLStore) ListRules(ctx context.Context, limit, offset int) ([]*types.FraudRule, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var rows []ruleRow
	if err := s.q.Select(ctx, "list-rules", &rows, limit, offset); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	out := make([]*types.FraudRule, 0, len(rows))
	for _, row := range rows {
		rule, err := row.toRule()
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

// CreateRule persists a new rule.
func (s *SQLStore) CreateRule(ctx context.Context, r *types.FraudRule) error {
	logic, tags, err := encodeLogicTags(r)
	if err != nil {
		return err
	}
	_, err = s.q.Exec(ctx, "insert-rule",
		string(r.ID), r.RuleRef, r.Name, r.Description, string(r.Category), string(r.Severity),
		string(r.Status), logic, tags, r.CurrentVersion, r.CreatedBy, r.OwnerName,
		r.CreatedAt.UTC().Format(time.RFC3339), r.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}

// UpdateDraft persists a rule's mutable fields and marks the newest
// version, if any, as carrying unsaved edits. Status and current version
// are never touched here.
func (s *SQLStore) UpdateDraft(ctx context.Context, r *types.FraudRule) error {
	logic, tags, err := encodeLogicTags(r)
	if err != nil {
		return err
	}

	tx, err := s.conn.Beginx()
	if err != nil {
		return fmt.Errorf("begin draft update: %w", err)
	}
	defer tx.Rollback()

	res, err := s.q.ExecTx(ctx, tx, "update-rule-draft",
		r.Name, r.Description, string(r.Category), string(r.Severity), tags, logic,
		r.UpdatedAt.UTC().Format(time.RFC3339), string(r.ID))
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &types.NotFoundError{Kind: "rule", ID: string(r.ID)}
	}

	if _, err := s.q.ExecTx(ctx, tx, "clear-draft-flags", false, string(r.ID)); err != nil {
		return fmt.Errorf("clear draft flags: %w", err)
	}
	if _, err := s.q.ExecTx(ctx, tx, "mark-latest-draft", true, string(r.ID)); err != nil {
		return fmt.Errorf("mark latest draft: %w", err)
	}

	return tx.Commit()
}

// PublishVersion atomically applies the publish transition: the rule
// update is compare-and-swapped on expected, all prior versions are
// deactivated and de-drafted, and the new snapshot is inserted active.
// Either the whole transition commits or nothing changes.
func (s *SQLStore) PublishVersion(ctx context.Context, r *types.FraudRule, expected string, v *types.RuleVersion) error {
	logic, tags, err := encodeLogicTags(r)
	if err != nil {
		return err
	}
	snapshot, err := json.Marshal(v.LogicSnapshot)
	if err != nil {
		return fmt.Errorf("encode logic snapshot: %w", err)
	}

	tx, err := s.conn.Beginx()
	if err != nil {
		return fmt.Errorf("begin publish: %w", err)
	}
	defer tx.Rollback()

	res, err := s.q.ExecTx(ctx, tx, "update-rule-published",
		r.Name, r.Description, string(r.Category), string(r.Severity), tags, logic,
		string(r.Status), r.CurrentVersion, r.UpdatedAt.UTC().Format(time.RFC3339),
		string(r.ID), expected)
	if err != nil {
		return fmt.Errorf("update rule on publish: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Release the transaction's connection before the disambiguating
		// read; on a single-connection pool it would otherwise block
		tx.Rollback()
		return s.conflictOrNotFound(ctx, r.ID, expected)
	}

	if _, err := s.q.ExecTx(ctx, tx, "deactivate-versions", false, string(r.ID)); err != nil {
		return fmt.Errorf("deactivate versions: %w", err)
	}
	if _, err := s.q.ExecTx(ctx, tx, "clear-draft-flags", false, string(r.ID)); err != nil {
		return fmt.Errorf("clear draft flags: %w", err)
	}
	if _, err := s.q.ExecTx(ctx, tx, "insert-version",
		string(v.ID), string(v.RuleID), v.Version, string(snapshot), v.Notes,
		v.IsActive, v.IsDraft, v.CreatedBy, v.CreatedAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("insert version: %w", err)
	}

	return tx.Commit()
}

// SetRuleStatus flips a rule's status. A non-empty expected version makes
// the write compare-and-swapped.
func (s *SQLStore) SetRuleStatus(ctx context.Context, id types.RuleID, status types.RuleStatus, expected string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	var res sql.Result
	var err error
	if expected == "" {
		res, err = s.q.Exec(ctx, "update-rule-status", string(status), now, string(id))
	} else {
		res, err = s.q.Exec(ctx, "update-rule-status-cas", string(status), now, string(id), expected)
	}
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if expected == "" {
			return &types.NotFoundError{Kind: "rule", ID: string(id)}
		}
		return s.conflictOrNotFound(ctx, id, expected)
	}
	return nil
}

// DeleteRule hard-deletes a rule; versions cascade.
func (s *SQLStore) DeleteRule(ctx context.Context, id types.RuleID) error {
	res, err := s.q.Exec(ctx, "delete-rule", string(id))
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &types.NotFoundError{Kind: "rule", ID: string(id)}
	}
	return nil
}

// ListVersions returns a rule's snapshots, newest first.
func (s *SQLStore) ListVersions(ctx context.Context, id types.RuleID) ([]types.RuleVersion, error) {
	var rows []versionRow
	if err := s.q.Select(ctx, "list-versions", &rows, string(id)); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versionsFromRows(rows)
}

// GetVersion loads a single snapshot.
func (s *SQLStore) GetVersion(ctx context.Context, id types.VersionID) (*types.RuleVersion, error) {
	var row versionRow
	err := s.q.Get(ctx, "get-version", &row, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.NotFoundError{Kind: "version", ID: string(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("get version: %w", err)
	}
	v, err := row.toVersion()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// UpdateVersionNotes edits a snapshot's notes, its sole mutable field.
func (s *SQLStore) UpdateVersionNotes(ctx context.Context, id types.VersionID, notes string) error {
	res, err := s.q.Exec(ctx, "update-version-notes", notes, string(id))
	if err != nil {
		return fmt.Errorf("update version notes: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &types.NotFoundError{Kind: "version", ID: string(id)}
	}
	return nil
}

// ActiveVersion pairs an active snapshot with its rule's configured
// severity, which snapshots themselves do not carry.
type ActiveVersion struct {
	types.RuleVersion
	Severity types.Severity
}

// ListActiveVersions returns the active snapshot of every active rule,
// the set the execution endpoint scores claims against.
func (s *SQLStore) ListActiveVersions(ctx context.Context) ([]ActiveVersion, error) {
	var rows []activeVersionRow
	if err := s.q.Select(ctx, "list-active-versions", &rows, true, string(types.StatusActive)); err != nil {
		return nil, fmt.Errorf("list active versions: %w", err)
	}
	out := make([]ActiveVersion, 0, len(rows))
	for _, row := range rows {
		v, err := row.versionRow.toVersion()
		if err != nil {
			return nil, err
		}
		out = append(out, ActiveVersion{RuleVersion: v, Severity: types.Severity(row.RuleSeverity)})
	}
	return out, nil
}

// AppendExecutions records a batch of evaluation outcomes in one
// transaction: either every rule's record lands or none does, so a
// failed execute request never moves trigger counters partway.
func (s *SQLStore) AppendExecutions(ctx context.Context, execs []Execution) error {
	if len(execs) == 0 {
		return nil
	}

	tx, err := s.conn.Beginx()
	if err != nil {
		return fmt.Errorf("begin execution append: %w", err)
	}
	defer tx.Rollback()

	for _, e := range execs {
		if _, err := s.q.ExecTx(ctx, tx, "insert-execution",
			e.ID, string(e.RuleID), string(e.VersionID), string(e.Payload),
			e.Triggered, string(e.Severity), e.ExecutedAt.UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("insert execution: %w", err)
		}
	}

	return tx.Commit()
}

// CountTriggersSince counts triggered executions for a rule after since.
func (s *SQLStore) CountTriggersSince(ctx context.Context, id types.RuleID, since time.Time) (int, error) {
	var n int
	err := s.q.Get(ctx, "count-triggers-since", &n, string(id), true, since.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("count triggers: %w", err)
	}
	return n, nil
}

// CountExecutionsSince counts all executions for a rule after since.
func (s *SQLStore) CountExecutionsSince(ctx context.Context, id types.RuleID, since time.Time) (int, error) {
	var n int
	err := s.q.Get(ctx, "count-executions-since", &n, string(id), since.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("count executions: %w", err)
	}
	return n, nil
}

// conflictOrNotFound disambiguates a zero-row CAS update: the rule is
// either gone or was moved past the expected version by another writer.
func (s *SQLStore) conflictOrNotFound(ctx context.Context, id types.RuleID, expected string) error {
	current, err := s.GetRule(ctx, id)
	if err != nil {
		return err
	}
	return &types.ConflictError{RuleID: id, Expected: expected, Actual: current.CurrentVersion}
}

func encodeLogicTags(r *types.FraudRule) (logic string, tags string, err error) {
	lb, err := json.Marshal(r.Logic)
	if err != nil {
		return "", "", fmt.Errorf("encode logic: %w", err)
	}
	t := r.Tags
	if t == nil {
		t = []string{}
	}
	tb, err := json.Marshal(t)
	if err != nil {
		return "", "", fmt.Errorf("encode tags: %w", err)
	}
	return string(lb), string(tb), nil
}

func versionsFromRows(rows []versionRow) ([]types.RuleVersion, error) {
	out := make([]types.RuleVersion, 0, len(rows))
	for _, row := range rows {
		v, err := row.toVersion()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
