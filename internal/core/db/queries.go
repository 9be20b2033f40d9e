package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// Queries provides access to named SQL queries loaded from embedded .sql
// files. dotsql handles name lookup; sqlx Rebind converts ? placeholders
// to $1, $2 for PostgreSQL.
type Queries struct {
	dot *dotsql.DotSql
	db  *sqlx.DB
}

// LoadQueries loads all .sql files from the embedded filesystem.
// Named queries are addressed by name (e.g. "get-rule", "list-versions").
func LoadQueries(conn *sqlx.DB) (*Queries, error) {
	var combinedSQL string

	err := fs.WalkDir(queriesFS, "queries", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".sql" {
			return nil
		}
		content, err := queriesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		combinedSQL += string(content) + "\n"
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load query files: %w", err)
	}

	dot, err := dotsql.LoadFromString(combinedSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse queries: %w", err)
	}

	return &Queries{dot: dot, db: conn}, nil
}

// DB exposes the underlying connection for transaction management.
func (q *Queries) DB() *sqlx.DB {
	return q.db
}

// Raw returns the SQL text of a named query, for use inside transactions.
func (q *Queries) Raw(name string) (string, error) {
	query, err := q.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("query not found: %s", name)
	}
	return query, nil
}

// Exec executes a named query with placeholder conversion.
func (q *Queries) Exec(ctx context.Context, name string, args ...any) (sql.Result, error) {
	query, err := q.Raw(name)
	if err != nil {
		return nil, err
	}
	return q.db.ExecContext(ctx, q.db.Rebind(query), args...)
}

// Get retrieves a single row into dest using a named query.
func (q *Queries) Get(ctx context.Context, name string, dest any, args ...any) error {
	query, err := q.Raw(name)
	if err != nil {
		return err
	}
	return q.db.GetContext(ctx, dest, q.db.Rebind(query), args...)
}

// Select retrieves multiple rows into dest using a named query.
func (q *Queries) Select(ctx context.Context, name string, dest any, args ...any) error {
	query, err := q.Raw(name)
	if err != nil {
		return err
	}
	return q.db.SelectContext(ctx, dest, q.db.Rebind(query), args...)
}

// ExecTx executes a named query within an open transaction.
func (q *Queries) ExecTx(ctx context.Context, tx *sqlx.Tx, name string, args ...any) (sql.Result, error) {
	query, err := q.Raw(name)
	if err != nil {
		return nil, err
	}
	return tx.ExecContext(ctx, tx.Rebind(query), args...)
}

// GetTx retrieves a single row within an open transaction.
func (q *Queries) GetTx(ctx context.Context, tx *sqlx.Tx, name string, dest any, args ...any) error {
	query, err := q.Raw(name)
	if err != nil {
		return err
	}
	return tx.GetContext(ctx, dest, tx.Rebind(query), args...)
}
