package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/database"
)

// TestDatabaseSetup holds a migrated connection to the integration database.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies the migrations.
// Tests are skipped when the variable is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	if err := database.RunMigrations(dsn); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db, err := database.NewPostgreSQLDB(dsn, database.PoolConfig{MaxConns: 4, MinConns: 1})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	setup := &TestDatabaseSetup{DB: db}
	if err := setup.TruncateAllTables(context.Background()); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
	t.Cleanup(setup.Close)

	return setup
}

// TruncateAllTables removes all rows from every table
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"notifications",
		"attendances",
		"clinic_networks",
		"identity_templates",
		"approved_leaves",
		"roster_entries",
		"workers",
		"clinics",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// Close closes the database connection
func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}

// seed inserts a clinic and one worker of role and returns their IDs.
func (t *TestDatabaseSetup) seed(ctx context.Context, role string) (clinicID, workerID string, err error) {
	err = t.DB.QueryRow(ctx, `
		INSERT INTO clinics (name, timezone) VALUES ('Klinik Sehat', 'Asia/Jakarta') RETURNING id
	`).Scan(&clinicID)
	if err != nil {
		return "", "", err
	}
	err = t.DB.QueryRow(ctx, `
		INSERT INTO workers (full_name, role, clinic_id) VALUES ('Test Worker', $1, $2) RETURNING id
	`, role, clinicID).Scan(&workerID)
	return clinicID, workerID, err
}
