package models

import "time"

// Migration is one versioned schema step.
type Migration struct {
	ID       string
	Name     string
	SQL      string
	Checksum string
}

// Label renders the migration as it appears in file listings, e.g. 0004_users.
func (m Migration) Label() string {
	return m.ID + "_" + m.Name
}

// AppliedMigration is a row of the migrations tracking table.
type AppliedMigration struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Checksum    string    `db:"checksum" json:"checksum"`
	AppliedAt   time.Time `db:"applied_at" json:"applied_at"`
	ExecutionMS int64     `db:"execution_ms" json:"execution_ms"`
}

// MigrationStatus pairs a known migration with its applied record, if any.
type MigrationStatus struct {
	Migration Migration
	Applied   *AppliedMigration
}

// Pending reports whether the migration has not been recorded yet.
func (s MigrationStatus) Pending() bool {
	return s.Applied == nil
}

// Modified reports whether the file changed after it was applied.
func (s MigrationStatus) Modified() bool {
	return s.Applied != nil && s.Applied.Checksum != s.Migration.Checksum
}

// MigrationReport summarises one run of the migration applier.
type MigrationReport struct {
	RunID    string
	Applied  []string
	Skipped  []string
	Pending  []string
	DryRun   bool
	Duration time.Duration
}
