// Package audit provides the append-only action log for the admin console.
//
// Every state-changing operation of the version manager records a semantic
// event keyed by actor and entity. Entries are write-once: there is no
// update or delete path, matching the append-only contract the audit
// viewer relies on.
package audit

import (
	"context"
	"time"

	"github.com/finelli/fraudgate/internal/types"
)

// Actions recorded by the version manager.
const (
	ActionCreatedRule         = "created_rule"
	ActionUpdatedRule         = "updated_rule"
	ActionPublishedVersion    = "published_version"
	ActionStatusChanged       = "status_changed"
	ActionClonedRule          = "cloned_rule"
	ActionDeletedRule         = "deleted_rule"
	ActionUpdatedVersionNotes = "updated_version_notes"
)

// Entity types referenced by audit entries.
const (
	EntityRule    = "rule"
	EntityVersion = "rule_version"
)

// Event is one semantic action to append to the log.
type Event struct {
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	Detail     string
}

// Entry is a persisted audit record.
type Entry struct {
	ID         types.AuditID `json:"id"`
	Actor      string        `json:"actor"`
	Action     string        `json:"action"`
	EntityType string        `json:"entityType"`
	EntityID   string        `json:"entityId"`
	Detail     string        `json:"detail,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	Actor      string
	Limit      int
	Offset     int
}

// Recorder appends semantic events. Implemented by the SQL-backed Log;
// the version manager depends only on this interface.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// Discard is a Recorder that drops events, for tests and tooling that
// run manager operations without an audit store.
type Discard struct{}

func (Discard) Record(context.Context, Event) error { return nil }
