package db

import (
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	embeddedmigrations "github.com/finelli/fraudgate/migrations"
)

// MigrationStatus reports the state of a single migration file.
type MigrationStatus struct {
	ID        string
	Checksum  string
	Applied   bool
	AppliedAt *time.Time
}

// migration is a parsed migration file.
type migration struct {
	ID       string
	Checksum string
	SQL      string
}

// MigrateUp applies all pending migrations in filename order.
// Already-applied migrations are checksum-validated first; a modified
// applied migration aborts the run.
func MigrateUp(conn *sqlx.DB) error {
	migrations, err := embeddedForDriver(conn.DriverName())
	if err != nil {
		return err
	}

	if err := createMigrationsTable(conn); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	if err := validateChecksums(conn, migrations); err != nil {
		return fmt.Errorf("migration checksum validation failed: %w", err)
	}

	applied, err := appliedMigrations(conn)
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.ID] {
			continue
		}

		// Execution and recording share a transaction so a failed record
		// never leaves a half-applied migration behind
		tx, err := conn.Beginx()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %s: %w", m.ID, err)
		}
		if err := applyMigration(tx, m); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %s: %w", m.ID, err)
		}
		if _, err := tx.Exec(tx.Rebind(
			"INSERT INTO migrations (migration_id, checksum, applied_at) VALUES (?, ?, ?)"),
			m.ID, m.Checksum, time.Now().UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", m.ID, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.ID, err)
		}
	}

	return nil
}

// MigrateStatus returns applied and pending migrations for the CLI.
func MigrateStatus(conn *sqlx.DB) ([]MigrationStatus, error) {
	migrations, err := embeddedForDriver(conn.DriverName())
	if err != nil {
		return nil, err
	}
	if err := createMigrationsTable(conn); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := conn.Queryx("SELECT migration_id, applied_at FROM migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]*time.Time)
	for rows.Next() {
		var id, at string
		if err := rows.Scan(&id, &at); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, at); err == nil {
			applied[id] = &t
		} else {
			applied[id] = nil
		}
	}

	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, m := range migrations {
		at, ok := applied[m.ID]
		statuses = append(statuses, MigrationStatus{
			ID:        m.ID,
			Checksum:  m.Checksum,
			Applied:   ok,
			AppliedAt: at,
		})
	}
	return statuses, nil
}

// embeddedForDriver selects the embedded migration set for the driver.
func embeddedForDriver(driver string) ([]migration, error) {
	var fsys embed.FS
	var dir string
	switch driver {
	case "sqlite3":
		fsys, dir = embeddedmigrations.SqliteMigrations, "sqlite"
	case "postgres":
		fsys, dir = embeddedmigrations.PostgresMigrations, "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	var migrations []migration
	err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		content, err := fsys.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		migrations = append(migrations, migration{
			ID:       filepath.Base(path),
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
			SQL:      string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].ID < migrations[j].ID
	})
	return migrations, nil
}

func createMigrationsTable(conn *sqlx.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			migration_id TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`)
	return err
}

func appliedMigrations(conn *sqlx.DB) (map[string]bool, error) {
	rows, err := conn.Queryx("SELECT migration_id FROM migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		applied[id] = true
	}
	return applied, nil
}

func validateChecksums(conn *sqlx.DB, migrations []migration) error {
	expected := make(map[string]string, len(migrations))
	for _, m := range migrations {
		expected[m.ID] = m.Checksum
	}

	rows, err := conn.Queryx("SELECT migration_id, checksum FROM migrations")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, got string
		if err := rows.Scan(&id, &got); err != nil {
			return err
		}
		want, ok := expected[id]
		if !ok {
			return fmt.Errorf("migration %s exists in database but not in embedded files", id)
		}
		if got != want {
			return fmt.Errorf("checksum mismatch for migration %s: expected %s, got %s", id, want, got)
		}
	}
	return nil
}

// applyMigration executes one migration, statement by statement.
// lib/pq doesn't support multiple statements in a single Exec.
func applyMigration(tx *sqlx.Tx, m migration) error {
	for _, stmt := range strings.Split(m.SQL, ";") {
		stmt = stripCommentLines(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("statement failed: %w", err)
		}
	}
	return nil
}

// stripCommentLines drops -- comment lines from a statement chunk.
// A statement preceded by header comments must not be mistaken for a
// pure-comment chunk and skipped.
func stripCommentLines(chunk string) string {
	var kept []string
	for _, line := range strings.Split(chunk, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
