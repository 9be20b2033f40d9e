package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/finelli/fraudgate/internal/core/db"
	"github.com/finelli/fraudgate/internal/types"
)

const defaultListLimit = 100

// Log is the SQL-backed audit store.
type Log struct {
	q   *db.Queries
	now func() time.Time
}

// NewLog creates an audit log over loaded queries.
func NewLog(queries *db.Queries) *Log {
	return &Log{q: queries, now: time.Now}
}

// Record appends one event to the log.
func (l *Log) Record(ctx context.Context, e Event) error {
	_, err := l.q.Exec(ctx, "insert-audit",
		string(types.NewAuditID()), e.Actor, e.Action, e.EntityType, e.EntityID, e.Detail,
		l.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns entries matching the filter, newest first.
func (l *Log) List(ctx context.Context, f Filter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	var rows []entryRow
	err := l.q.Select(ctx, "list-audit", &rows,
		f.Action, f.Action,
		f.EntityType, f.EntityType,
		f.EntityID, f.EntityID,
		f.Actor, f.Actor,
		limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		e, err := row.toEntry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

type entryRow struct {
	ID         string `db:"id"`
	Actor      string `db:"actor"`
	Action     string `db:"action"`
	EntityType string `db:"entity_type"`
	EntityID   string `db:"entity_id"`
	Detail     string `db:"detail"`
	CreatedAt  string `db:"created_at"`
}

func (row entryRow) toEntry() (Entry, error) {
	createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("audit entry %s created_at: %w", row.ID, err)
	}
	return Entry{
		ID:         types.AuditID(row.ID),
		Actor:      row.Actor,
		Action:     row.Action,
		EntityType: row.EntityType,
		EntityID:   row.EntityID,
		Detail:     row.Detail,
		CreatedAt:  createdAt.UTC(),
	}, nil
}
