package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DefinetlyNotAI/WESMUN-NFC/internal/models"
	"github.com/DefinetlyNotAI/WESMUN-NFC/internal/repository"
	"github.com/DefinetlyNotAI/WESMUN-NFC/internal/schema"
	"github.com/DefinetlyNotAI/WESMUN-NFC/pkg/config"
	"github.com/DefinetlyNotAI/WESMUN-NFC/pkg/database"
	appErrors "github.com/DefinetlyNotAI/WESMUN-NFC/pkg/errors"
)

const trackingTable = "schema_migrations"

// openTestDB connects to TEST_DATABASE_URL and resets its public schema.
// The database must be disposable.
func openTestDB(t *testing.T, driver string) *sqlx.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.NewPostgres(context.Background(), config.DatabaseConfig{
		URL:            url,
		Driver:         driver,
		MaxOpenConns:   1,
		ConnectTimeout: 10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func resetSchema(t *testing.T, db *sqlx.DB) {
	t.Helper()
	_, err := db.Exec(`DROP SCHEMA public CASCADE; CREATE SCHEMA public;`)
	require.NoError(t, err)
	_, err = db.Exec(`DROP TYPE IF EXISTS user_role, diet_type CASCADE`)
	require.NoError(t, err)
}

func migrate(t *testing.T, db *sqlx.DB) *models.MigrationReport {
	t.Helper()
	migrations, err := schema.Load()
	require.NoError(t, err)
	svc := NewMigrationService(repository.NewMigrationRepository(db, trackingTable), migrations, zap.NewNop(), nil)
	report, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	return report
}

func insertUser(t *testing.T, db *sqlx.DB, email string) models.User {
	t.Helper()
	var u models.User
	err := db.Get(&u, `INSERT INTO users (email, name) VALUES ($1, $2)
RETURNING id, email, name, image, role_id, password_hash, approval_status, approved_by, approved_at, created_at, updated_at`, email, "Delegate")
	require.NoError(t, err)
	return u
}

func TestIntegrationMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t, config.DriverPQ)
	resetSchema(t, db)

	first := migrate(t, db)
	assert.Len(t, first.Applied, 17)

	second := migrate(t, db)
	assert.Empty(t, second.Applied)
	assert.Len(t, second.Skipped, 17)

	var roles []models.Role
	require.NoError(t, db.Select(&roles, `SELECT id, name, description, created_at FROM roles ORDER BY id`))
	require.Len(t, roles, len(models.AllRoles))
	for i, r := range roles {
		assert.Equal(t, models.AllRoles[i], r.Name)
	}
	assert.Equal(t, models.BaseRoleID, roles[0].ID)
}

func TestIntegrationMigrateWithPgxDriver(t *testing.T) {
	db := openTestDB(t, config.DriverPGX)
	resetSchema(t, db)

	report := migrate(t, db)
	assert.Len(t, report.Applied, 17)
	assert.Empty(t, migrate(t, db).Applied)
}

func TestIntegrationLegacyDatabaseIsAdopted(t *testing.T) {
	db := openTestDB(t, config.DriverPQ)
	resetSchema(t, db)
	migrate(t, db)

	// A database set up before migrations were tracked has every object but no history.
	_, err := db.Exec(`DROP TABLE ` + trackingTable)
	require.NoError(t, err)

	report := migrate(t, db)
	assert.Len(t, report.Applied, 17)

	var roles int
	require.NoError(t, db.Get(&roles, `SELECT COUNT(*) FROM roles`))
	assert.Equal(t, 4, roles)
}

func TestIntegrationDefaultsAndConstraints(t *testing.T) {
	db := openTestDB(t, config.DriverPQ)
	resetSchema(t, db)
	migrate(t, db)

	u := insertUser(t, db, "delegate@example.org")
	assert.Equal(t, models.BaseRoleID, u.RoleID)
	assert.Equal(t, models.ApprovalPending, u.ApprovalStatus)

	_, err := db.Exec(`INSERT INTO users (email, name) VALUES ($1, 'Again')`, "delegate@example.org")
	require.Error(t, err)
	assert.Equal(t, "23505", appErrors.SQLState(err))

	_, err = db.Exec(`UPDATE users SET approval_status = 'banned' WHERE id = $1`, u.ID)
	require.Error(t, err)
	assert.Equal(t, "23514", appErrors.SQLState(err))

	var p models.Profile
	require.NoError(t, db.Get(&p, `INSERT INTO profiles (user_id) VALUES ($1)
RETURNING id, user_id, bags_checked, attendance, received_food, diet, allergens, created_at, updated_at`, u.ID))
	assert.Equal(t, models.DefaultDiet, p.Diet)
	assert.False(t, p.BagsChecked)
	assert.False(t, p.ReceivedFood)

	_, err = db.Exec(`INSERT INTO profiles (user_id) VALUES ($1)`, u.ID)
	require.Error(t, err)

	badge := uuid.NewString()
	_, err = db.Exec(`INSERT INTO nfc_links (user_id, uuid) VALUES ($1, $2)`, u.ID, badge)
	require.NoError(t, err)
	other := insertUser(t, db, "other@example.org")
	_, err = db.Exec(`INSERT INTO nfc_links (user_id, uuid) VALUES ($1, $2)`, other.ID, badge)
	require.Error(t, err)

	window := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	_, err = db.Exec(`INSERT INTO rate_limits (identifier, action, window_start) VALUES ('10.0.0.1', 'login', $1)`, window)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO rate_limits (identifier, action, window_start) VALUES ('10.0.0.1', 'login', $1)`, window)
	require.Error(t, err)
	var limit models.RateLimit
	require.NoError(t, db.Get(&limit, `SELECT id, identifier, action, count, window_start, created_at FROM rate_limits`))
	assert.Equal(t, 1, limit.Count)
}

func TestIntegrationDeleteCascadesAndNullsAudit(t *testing.T) {
	db := openTestDB(t, config.DriverPQ)
	resetSchema(t, db)
	migrate(t, db)

	actor := insertUser(t, db, "admin@example.org")
	target := insertUser(t, db, "attendee@example.org")

	_, err := db.Exec(`INSERT INTO profiles (user_id) VALUES ($1)`, target.ID)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO nfc_links (user_id, uuid) VALUES ($1, $2)`, target.ID, uuid.NewString())
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO session_tokens (user_id, token_hash, expires_at) VALUES ($1, 'hash', NOW() + INTERVAL '1 day')`, target.ID)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO audit_logs (actor_id, target_user_id, action, target_user_email) VALUES ($1, $2, $3, $4)`,
		actor.ID, target.ID, models.AuditActionUserDelete, target.Email)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM users WHERE id = $1`, target.ID)
	require.NoError(t, err)

	for _, table := range []string{"profiles", "nfc_links", "session_tokens"} {
		var n int
		require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM `+table))
		assert.Zero(t, n, table)
	}

	var entry models.AuditLog
	require.NoError(t, db.Get(&entry, `SELECT id, actor_id, target_user_id, action, target_user_email FROM audit_logs`))
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, actor.ID, *entry.ActorID)
	assert.Nil(t, entry.TargetUserID)
	require.NotNil(t, entry.TargetUserEmail)
	assert.Equal(t, target.Email, *entry.TargetUserEmail)
}

func TestIntegrationUpdatedAtTrigger(t *testing.T) {
	db := openTestDB(t, config.DriverPQ)
	resetSchema(t, db)
	migrate(t, db)

	u := insertUser(t, db, "chair@example.org")
	before := u.UpdatedAt
	time.Sleep(10 * time.Millisecond)

	_, err := db.Exec(`UPDATE users SET name = 'Chair' WHERE id = $1`, u.ID)
	require.NoError(t, err)

	var after models.User
	require.NoError(t, db.Get(&after, `SELECT id, email, name, image, role_id, password_hash, approval_status, approved_by, approved_at, created_at, updated_at FROM users WHERE id = $1`, u.ID))
	assert.True(t, after.UpdatedAt.After(before))
	assert.Equal(t, "Chair", after.Name)

	var p models.Profile
	require.NoError(t, db.Get(&p, `INSERT INTO profiles (user_id) VALUES ($1)
RETURNING id, user_id, bags_checked, attendance, received_food, diet, allergens, created_at, updated_at`, u.ID))
	time.Sleep(10 * time.Millisecond)

	_, err = db.Exec(`UPDATE profiles SET bags_checked = TRUE WHERE id = $1`, p.ID)
	require.NoError(t, err)

	var updated models.Profile
	require.NoError(t, db.Get(&updated, `SELECT id, user_id, bags_checked, attendance, received_food, diet, allergens, created_at, updated_at FROM profiles WHERE id = $1`, p.ID))
	assert.True(t, updated.BagsChecked)
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))
	assert.True(t, p.CreatedAt.Equal(updated.CreatedAt))
}

func TestIntegrationAuditActionsAreStorable(t *testing.T) {
	db := openTestDB(t, config.DriverPQ)
	resetSchema(t, db)
	migrate(t, db)

	actor := insertUser(t, db, "secretariat@example.org")
	for _, action := range models.AuditActions {
		_, err := db.Exec(`INSERT INTO audit_logs (actor_id, action, actor_email) VALUES ($1, $2, $3)`, actor.ID, action, actor.Email)
		require.NoError(t, err, action)
	}

	var stored []string
	require.NoError(t, db.Select(&stored, `SELECT action FROM audit_logs ORDER BY id`))
	assert.Equal(t, models.AuditActions, stored)
}

func TestIntegrationInventory(t *testing.T) {
	db := openTestDB(t, config.DriverPQ)
	resetSchema(t, db)

	svc := NewInventoryService(repository.NewCatalogRepository(db), nil, nil, InventoryServiceConfig{ExcludeTables: []string{trackingTable}})
	empty, err := svc.Report(context.Background())
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	migrate(t, db)
	inv, err := svc.Report(context.Background())
	require.NoError(t, err)
	require.Len(t, inv.Tables, 7)
	for i, tbl := range inv.Tables {
		assert.Equal(t, models.DomainTables[i], tbl.Name)
		if tbl.Name == "roles" {
			assert.EqualValues(t, 4, tbl.RowCount)
		} else {
			assert.Zero(t, tbl.RowCount, tbl.Name)
		}
	}
	assert.Empty(t, svc.Verify(inv))
}
