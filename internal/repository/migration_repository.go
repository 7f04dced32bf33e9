package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/DefinetlyNotAI/WESMUN-NFC/internal/models"
)

// MigrationRepository records applied schema migrations in a tracking table.
type MigrationRepository struct {
	db    *sqlx.DB
	table string
}

// NewMigrationRepository creates a repository backed by the named tracking table.
func NewMigrationRepository(db *sqlx.DB, table string) *MigrationRepository {
	return &MigrationRepository{db: db, table: table}
}

// EnsureTable creates the tracking table when it does not exist yet.
func (r *MigrationRepository) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  checksum TEXT NOT NULL,
  applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  execution_ms BIGINT NOT NULL DEFAULT 0
)`, quoteQualified(r.table))
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}
	return nil
}

// ListApplied returns the recorded migrations ordered by id.
func (r *MigrationRepository) ListApplied(ctx context.Context) ([]models.AppliedMigration, error) {
	query := fmt.Sprintf(`SELECT id, name, checksum, applied_at, execution_ms FROM %s ORDER BY id ASC`, quoteQualified(r.table))
	var applied []models.AppliedMigration
	if err := r.db.SelectContext(ctx, &applied, query); err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	return applied, nil
}

// Apply runs a migration and records it in one transaction. The advisory lock
// serialises concurrent appliers; it returns false when another applier
// recorded the migration first.
func (r *MigrationRepository) Apply(ctx context.Context, m models.Migration) (bool, time.Duration, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("begin migration tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, r.table); err != nil {
		_ = tx.Rollback()
		return false, 0, fmt.Errorf("acquire migration lock: %w", err)
	}

	var exists bool
	existsQuery := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, quoteQualified(r.table))
	if err := tx.GetContext(ctx, &exists, existsQuery, m.ID); err != nil {
		_ = tx.Rollback()
		return false, 0, fmt.Errorf("check migration %s: %w", m.ID, err)
	}
	if exists {
		_ = tx.Rollback()
		return false, 0, nil
	}

	start := time.Now()
	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		_ = tx.Rollback()
		return false, 0, fmt.Errorf("execute migration %s: %w", m.Label(), err)
	}
	elapsed := time.Since(start)

	insertQuery := fmt.Sprintf(`INSERT INTO %s (id, name, checksum, applied_at, execution_ms) VALUES ($1, $2, $3, $4, $5)`, quoteQualified(r.table))
	if _, err := tx.ExecContext(ctx, insertQuery, m.ID, m.Name, m.Checksum, time.Now().UTC(), elapsed.Milliseconds()); err != nil {
		_ = tx.Rollback()
		return false, 0, fmt.Errorf("record migration %s: %w", m.Label(), err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit migration %s: %w", m.Label(), err)
	}
	return true, elapsed, nil
}

// quoteQualified quotes an optionally schema-qualified identifier.
func quoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}
