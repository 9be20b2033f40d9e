package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	coredb "github.com/finelli/fraudgate/internal/core/db"
	"github.com/finelli/fraudgate/internal/types"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	conn, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// A pooled second connection would see a different :memory: database
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := coredb.MigrateUp(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	queries, err := coredb.LoadQueries(conn)
	if err != nil {
		t.Fatalf("load queries: %v", err)
	}
	return New(conn, queries)
}

func testLogic() types.RuleLogic {
	return types.RuleLogic{Groups: []types.ConditionGroup{{
		ID:            "g1",
		LogicOperator: types.LogicIf,
		Conditions: []types.RuleCondition{{
			ID:       "c1",
			Field:    "claim.amount",
			Operator: types.OpGreater,
			Value:    float64(5000),
		}},
	}}}
}

func seedRule(t *testing.T, s *SQLStore) *types.FraudRule {
	t.Helper()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rule := &types.FraudRule{
		ID:             types.NewRuleID(),
		RuleRef:        types.NewRuleRef(),
		Name:           "High value claim",
		Description:    "Flags claims above the manual review threshold",
		Category:       types.CategoryTransaction,
		Severity:       types.SeverityHigh,
		Status:         types.StatusDraft,
		Logic:          testLogic(),
		CurrentVersion: "",
		CreatedBy:      "analyst",
		OwnerName:      "Fraud Ops",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.CreateRule(context.Background(), rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}
	return rule
}

// publishAt drives the publish transition with a caller-chosen timestamp
// so tests can create versions sharing a created_at second.
func publishAt(t *testing.T, s *SQLStore, rule *types.FraudRule, expected, version string, at time.Time) types.VersionID {
	t.Helper()
	rule.Status = types.StatusActive
	rule.CurrentVersion = version
	rule.UpdatedAt = at
	v := &types.RuleVersion{
		ID:            types.NewVersionID(),
		RuleID:        rule.ID,
		Version:       version,
		CreatedAt:     at,
		CreatedBy:     "analyst",
		IsActive:      true,
		LogicSnapshot: rule.Logic,
	}
	if err := s.PublishVersion(context.Background(), rule, expected, v); err != nil {
		t.Fatalf("publish %s: %v", version, err)
	}
	return v.ID
}

func TestCreateRule_GetRoundtrip(t *testing.T) {
	s := newTestStore(t)
	rule := seedRule(t, s)

	got, err := s.GetRule(context.Background(), rule.ID)
	if err != nil {
		t.Fatalf("GetRule() error = %v", err)
	}
	if got.Name != rule.Name || got.Severity != rule.Severity || got.Status != types.StatusDraft {
		t.Errorf("GetRule() = %+v, want fields of %+v", got, rule)
	}
	if got.Logic.ConditionCount() != 1 {
		t.Errorf("ConditionCount() = %d, want 1", got.Logic.ConditionCount())
	}
}

func TestListVersions_SameSecondNewestFirst(t *testing.T) {
	s := newTestStore(t)
	rule := seedRule(t, s)

	// Both snapshots share a created_at second; ordering must still put
	// the later publish first
	at := time.Date(2026, 8, 30, 12, 0, 1, 0, time.UTC)
	publishAt(t, s, rule, "", "v1.1", at)
	v2 := publishAt(t, s, rule, "v1.1", "v1.2", at)

	versions, err := s.ListVersions(context.Background(), rule.ID)
	if err != nil {
		t.Fatalf("ListVersions() error = %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("ListVersions() returned %d versions, want 2", len(versions))
	}
	if versions[0].Version != "v1.2" || versions[0].ID != v2 {
		t.Errorf("newest version = %s (%s), want v1.2 (%s)", versions[0].Version, versions[0].ID, v2)
	}
	if !versions[0].IsActive || versions[1].IsActive {
		t.Errorf("active flags = [%v %v], want [true false]", versions[0].IsActive, versions[1].IsActive)
	}
}

func TestUpdateDraft_FlagsNewestSameSecondVersion(t *testing.T) {
	s := newTestStore(t)
	rule := seedRule(t, s)

	at := time.Date(2026, 8, 30, 12, 0, 1, 0, time.UTC)
	v1 := publishAt(t, s, rule, "", "v1.1", at)
	v2 := publishAt(t, s, rule, "v1.1", "v1.2", at)

	rule.Description = "tightened threshold"
	rule.UpdatedAt = at.Add(time.Minute)
	if err := s.UpdateDraft(context.Background(), rule); err != nil {
		t.Fatalf("UpdateDraft() error = %v", err)
	}

	newest, err := s.GetVersion(context.Background(), v2)
	if err != nil {
		t.Fatalf("GetVersion(v2) error = %v", err)
	}
	if !newest.IsDraft {
		t.Error("newest version IsDraft = false, want true")
	}
	older, err := s.GetVersion(context.Background(), v1)
	if err != nil {
		t.Fatalf("GetVersion(v1) error = %v", err)
	}
	if older.IsDraft {
		t.Error("older version IsDraft = true, want false")
	}
}

func TestPublishVersion_StaleExpectedConflicts(t *testing.T) {
	s := newTestStore(t)
	rule := seedRule(t, s)

	at := time.Date(2026, 8, 30, 12, 0, 1, 0, time.UTC)
	publishAt(t, s, rule, "", "v1.1", at)

	stale := &types.RuleVersion{
		ID:            types.NewVersionID(),
		RuleID:        rule.ID,
		Version:       "v1.2",
		CreatedAt:     at,
		CreatedBy:     "analyst",
		IsActive:      true,
		LogicSnapshot: rule.Logic,
	}
	err := s.PublishVersion(context.Background(), rule, "v1.0", stale)
	var conflict *types.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("PublishVersion() error = %v, want ConflictError", err)
	}
	if conflict.Actual != "v1.1" {
		t.Errorf("conflict actual = %s, want v1.1", conflict.Actual)
	}

	versions, err := s.ListVersions(context.Background(), rule.ID)
	if err != nil {
		t.Fatalf("ListVersions() error = %v", err)
	}
	if len(versions) != 1 {
		t.Errorf("ListVersions() returned %d versions after failed publish, want 1", len(versions))
	}
}

func TestAppendExecutions_AllOrNothing(t *testing.T) {
	s := newTestStore(t)
	rule := seedRule(t, s)
	at := time.Date(2026, 8, 30, 12, 0, 1, 0, time.UTC)
	vid := publishAt(t, s, rule, "", "v1.1", at)

	since := at.Add(-time.Hour)
	exec := func(id string, triggered bool) Execution {
		return Execution{
			ID:         id,
			RuleID:     rule.ID,
			VersionID:  vid,
			Payload:    types.Payload(`{"claim":{"amount":9000}}`),
			Triggered:  triggered,
			Severity:   rule.Severity,
			ExecutedAt: at,
		}
	}

	// The duplicate primary key fails mid-batch; the earlier row must
	// roll back with it
	dup := types.NewExecutionID()
	err := s.AppendExecutions(context.Background(), []Execution{
		exec(dup, true),
		exec(dup, false),
	})
	if err == nil {
		t.Fatal("AppendExecutions() with duplicate ids returned nil error")
	}
	n, err := s.CountExecutionsSince(context.Background(), rule.ID, since)
	if err != nil {
		t.Fatalf("CountExecutionsSince() error = %v", err)
	}
	if n != 0 {
		t.Errorf("executions after failed batch = %d, want 0", n)
	}

	if err := s.AppendExecutions(context.Background(), []Execution{
		exec(types.NewExecutionID(), true),
		exec(types.NewExecutionID(), false),
	}); err != nil {
		t.Fatalf("AppendExecutions() error = %v", err)
	}
	n, err = s.CountExecutionsSince(context.Background(), rule.ID, since)
	if err != nil {
		t.Fatalf("CountExecutionsSince() error = %v", err)
	}
	if n != 2 {
		t.Errorf("executions after batch = %d, want 2", n)
	}
	triggers, err := s.CountTriggersSince(context.Background(), rule.ID, since)
	if err != nil {
		t.Fatalf("CountTriggersSince() error = %v", err)
	}
	if triggers != 1 {
		t.Errorf("triggers after batch = %d, want 1", triggers)
	}

	if err := s.AppendExecutions(context.Background(), nil); err != nil {
		t.Errorf("AppendExecutions(nil) error = %v", err)
	}
}
