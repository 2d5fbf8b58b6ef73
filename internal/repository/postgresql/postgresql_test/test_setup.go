//go:build integration

package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/workforce-core/internal/pkg/database"
	"github.com/cmlabs-hris/workforce-core/internal/repository/postgresql"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// TestDatabaseSetup holds the database shared by the integration tests.
type TestDatabaseSetup struct {
	DB        *database.DB
	container testcontainers.Container
}

var testSetup *TestDatabaseSetup

func TestMain(m *testing.M) {
	ctx := context.Background()

	setup, err := NewTestDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up test database: %v\n", err)
		os.Exit(1)
	}
	testSetup = setup

	code := m.Run()
	setup.Close(ctx)
	os.Exit(code)
}

// NewTestDatabase connects to TEST_DATABASE_URL when set, otherwise starts a
// throwaway PostgreSQL container. The schema is migrated either way.
func NewTestDatabase(ctx context.Context) (*TestDatabaseSetup, error) {
	setup := &TestDatabaseSetup{}

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("workforce_test"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("postgres"),
			tcpostgres.BasicWaitStrategies(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to start postgres container: %w", err)
		}
		setup.container = container

		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			setup.Close(ctx)
			return nil, fmt.Errorf("failed to get connection string: %w", err)
		}
	}

	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolConfig{MaxConns: 10, MinConns: 1})
	if err != nil {
		setup.Close(ctx)
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	setup.DB = db

	if err := postgresql.Migrate(ctx, db); err != nil {
		setup.Close(ctx)
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}

	return setup, nil
}

// TruncateAllTables removes all rows written by the tests.
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tables := []string{
		"payrolls",
		"leave_budget_entries",
		"shifts",
		"attendance_events",
		"employee_day_schedules",
		"employees",
	}

	for _, table := range tables {
		if _, err := t.DB.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

func (t *TestDatabaseSetup) Close(ctx context.Context) {
	if t.DB != nil {
		t.DB.Close()
	}
	if t.container != nil {
		_ = t.container.Terminate(ctx)
	}
}
