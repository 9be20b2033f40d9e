// internal/version/manager.go
package version

import (
	"context"
	"fmt"
	"time"

	"github.com/finelli/fraudgate/internal/audit"
	"github.com/finelli/fraudgate/internal/payload"
	"github.com/finelli/fraudgate/internal/rules"
	"github.com/finelli/fraudgate/internal/types"
)

/*
 * Rule lifecycle state machine.
 *
 * States: draft -> active -> inactive, with active <-> inactive toggling.
 * Rules are created in draft; publish snapshots the logic into an
 * immutable RuleVersion, flips the prior active version off, and
 * activates the rule, all in one store transaction.
 *
 * Concurrency: every publish and status change is compare-and-swapped on
 * the rule's current version by the store. When the caller supplies the
 * version its edit was derived from, a mismatch surfaces as
 * ConflictError for client-side refresh-and-retry. When no expected
 * version is supplied the manager re-reads and retries a bounded number
 * of times before giving up.
 */

// publishRetries bounds refresh-and-retry when the caller pins no
// expected version.
const publishRetries = 3

// Store is the persistence contract the manager drives. The SQL
// implementation lives in internal/store; tests substitute fakes.
type Store interface {
	GetRule(ctx context.Context, id types.RuleID) (*types.FraudRule, error)
	CreateRule(ctx context.Context, r *types.FraudRule) error

	// UpdateDraft persists a rule's mutable fields without touching
	// status or current version, and marks the newest version (if any)
	// as carrying unsaved edits.
	UpdateDraft(ctx context.Context, r *types.FraudRule) error

	// PublishVersion atomically inserts v, deactivates all prior
	// versions, and applies the rule update, guarded by a
	// compare-and-swap on expected against the stored current version.
	PublishVersion(ctx context.Context, r *types.FraudRule, expected string, v *types.RuleVersion) error

	// SetRuleStatus flips a rule's status, compare-and-swapped on
	// expected when non-empty.
	SetRuleStatus(ctx context.Context, id types.RuleID, status types.RuleStatus, expected string) error

	ListVersions(ctx context.Context, id types.RuleID) ([]types.RuleVersion, error)
	GetVersion(ctx context.Context, id types.VersionID) (*types.RuleVersion, error)
	UpdateVersionNotes(ctx context.Context, id types.VersionID, notes string) error
}

// Manager coordinates draft, publish, clone and status transitions.
type Manager struct {
	store Store
	audit audit.Recorder
	now   func() time.Time
}

// NewManager creates a manager. A nil recorder discards audit events.
func NewManager(store Store, recorder audit.Recorder) *Manager {
	if recorder == nil {
		recorder = audit.Discard{}
	}
	return &Manager{
		store: store,
		audit: recorder,
		now:   time.Now,
	}
}

// RuleInput carries the mutable fields shared by create, draft and
// publish operations.
type RuleInput struct {
	Name        string
	Description string
	Category    types.Category
	Severity    types.Severity
	Tags        []string
	Logic       types.RuleLogic
	Actor       string
}

// Create validates and persists a new rule in draft state. No version is
// created: a draft has no published snapshot until the first publish.
func (m *Manager) Create(ctx context.Context, in RuleInput) (*types.FraudRule, error) {
	if ve := ValidateDraft(in.Name, in.Logic); ve != nil {
		return nil, ve
	}

	now := m.now().UTC()
	rule := &types.FraudRule{
		ID:          types.NewRuleID(),
		RuleRef:     types.NewRuleRef(),
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Severity:    in.Severity,
		Status:      types.StatusDraft,
		Tags:        in.Tags,
		Logic:       in.Logic,
		CreatedBy:   in.Actor,
		OwnerName:   in.Actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := m.store.CreateRule(ctx, rule); err != nil {
		return nil, err
	}
	m.record(ctx, in.Actor, audit.ActionCreatedRule, audit.EntityRule, string(rule.ID), rule.Name)
	return rule, nil
}

// SaveDraft persists a rule's mutable fields. Status, current version and
// the version history are untouched; the newest version is flagged as
// carrying unsaved edits.
func (m *Manager) SaveDraft(ctx context.Context, id types.RuleID, in RuleInput) (*types.FraudRule, error) {
	if ve := ValidateDraft(in.Name, in.Logic); ve != nil {
		return nil, ve
	}

	rule, err := m.store.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	rule.Name = in.Name
	rule.Description = in.Description
	rule.Category = in.Category
	rule.Severity = in.Severity
	rule.Tags = in.Tags
	rule.Logic = in.Logic
	rule.UpdatedAt = m.now().UTC()

	if err := m.store.UpdateDraft(ctx, rule); err != nil {
		return nil, err
	}
	m.record(ctx, in.Actor, audit.ActionUpdatedRule, audit.EntityRule, string(rule.ID), rule.Name)
	return rule, nil
}

// PublishInput extends RuleInput with publish-only fields.
type PublishInput struct {
	RuleInput

	// Notes annotate the created version snapshot.
	Notes string

	// ExpectedVersion is the current version the caller's edit was
	// derived from. Empty means "derive from a fresh read"; the manager
	// then retries conflicts a bounded number of times.
	ExpectedVersion string
}

// Publish snapshots the logic into a new immutable version, activates it,
// and marks the rule active. Atomic from the caller's perspective: either
// the snapshot is persisted and the rule updated, or nothing changes.
func (m *Manager) Publish(ctx context.Context, id types.RuleID, in PublishInput) (*types.FraudRule, error) {
	if ve := ValidatePublish(in.Name, in.Category, in.Severity, in.Logic); ve != nil {
		return nil, ve
	}

	attempts := 1
	if in.ExpectedVersion == "" {
		attempts = publishRetries
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		rule, err := m.store.GetRule(ctx, id)
		if err != nil {
			return nil, err
		}

		expected := in.ExpectedVersion
		if expected == "" {
			expected = rule.CurrentVersion
		}
		next := NextVersion(expected)
		now := m.now().UTC()

		rule.Name = in.Name
		rule.Description = in.Description
		rule.Category = in.Category
		rule.Severity = in.Severity
		rule.Tags = in.Tags
		rule.Logic = in.Logic
		rule.Status = types.StatusActive
		rule.CurrentVersion = next
		rule.UpdatedAt = now

		snapshot := &types.RuleVersion{
			ID:            types.NewVersionID(),
			RuleID:        rule.ID,
			Version:       next,
			CreatedAt:     now,
			CreatedBy:     in.Actor,
			Notes:         in.Notes,
			IsActive:      true,
			LogicSnapshot: in.Logic,
		}

		err = m.store.PublishVersion(ctx, rule, expected, snapshot)
		if err == nil {
			m.record(ctx, in.Actor, audit.ActionPublishedVersion, audit.EntityRule, string(rule.ID),
				fmt.Sprintf("published %s", next))
			return rule, nil
		}
		if !types.IsConflict(err) || in.ExpectedVersion != "" {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// Clone produces a fresh draft rule from the source rule's current
// snapshot. Version history and trigger counters are never copied.
func (m *Manager) Clone(ctx context.Context, id types.RuleID, actor string) (*types.FraudRule, error) {
	src, err := m.store.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	logic := src.Logic
	versions, err := m.store.ListVersions(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		if v.IsActive {
			logic = v.LogicSnapshot
			break
		}
	}

	now := m.now().UTC()
	clone := &types.FraudRule{
		ID:          types.NewRuleID(),
		RuleRef:     types.NewRuleRef(),
		Name:        src.Name + " (copy)",
		Description: src.Description,
		Category:    src.Category,
		Severity:    src.Severity,
		Status:      types.StatusDraft,
		Tags:        append([]string(nil), src.Tags...),
		Logic:       logic,
		CreatedBy:   actor,
		OwnerName:   actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := m.store.CreateRule(ctx, clone); err != nil {
		return nil, err
	}
	m.record(ctx, actor, audit.ActionClonedRule, audit.EntityRule, string(clone.ID),
		fmt.Sprintf("cloned from %s", src.ID))
	return clone, nil
}

// SetStatus toggles active/inactive. A rule with no published version
// cannot be toggled; it must go through Publish first. The current
// version and the version history are untouched.
func (m *Manager) SetStatus(ctx context.Context, id types.RuleID, status types.RuleStatus, expectedVersion, actor string) error {
	if status != types.StatusActive && status != types.StatusInactive {
		return &types.ValidationError{Fields: []types.FieldIssue{
			{Field: "status", Reason: fmt.Sprintf("cannot transition to %q", status)},
		}}
	}

	versions, err := m.store.ListVersions(ctx, id)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		return &types.ValidationError{Fields: []types.FieldIssue{
			{Field: "status", Reason: "rule has no published version"},
		}}
	}

	if err := m.store.SetRuleStatus(ctx, id, status, expectedVersion); err != nil {
		return err
	}
	m.record(ctx, actor, audit.ActionStatusChanged, audit.EntityRule, string(id), string(status))
	return nil
}

// UpdateVersionNotes edits a version's notes, the sole permitted mutation
// of an existing snapshot.
func (m *Manager) UpdateVersionNotes(ctx context.Context, id types.VersionID, notes, actor string) error {
	if err := m.store.UpdateVersionNotes(ctx, id, notes); err != nil {
		return err
	}
	m.record(ctx, actor, audit.ActionUpdatedVersionNotes, audit.EntityVersion, string(id), "")
	return nil
}

// Test evaluates logic against the supplied claim, or the generated
// sample claim when none is given.
func (m *Manager) Test(logic types.RuleLogic, severity types.Severity, claim types.Payload) (types.EvaluationResult, error) {
	if len(claim) > types.MaxPayloadSize {
		return types.EvaluationResult{}, types.ErrPayloadTooLarge
	}
	if logic.ConditionCount() > types.MaxConditionsPerRule {
		return types.EvaluationResult{}, types.ErrTooManyConditions
	}
	if len(claim) == 0 {
		claim = payload.Sample()
	}
	return rules.Evaluate(logic, severity, claim), nil
}

// record appends an audit event. Audit failures are deliberately not
// propagated: the operation itself already committed.
func (m *Manager) record(ctx context.Context, actor, action, entityType, entityID, detail string) {
	_ = m.audit.Record(ctx, audit.Event{
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
	})
}
