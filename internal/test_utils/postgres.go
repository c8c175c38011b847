package test_utils

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ratiobudget/ratiobudget/internal/config"
	"github.com/ratiobudget/ratiobudget/internal/database"
	log "github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	testDbName     = "ratiobudget"
	testDbUser     = "test_ratiobudget"
	testDbPassword = "test_ratiobudget"
)

func preparePostgresContainer(ctx context.Context) (*postgres.PostgresContainer, error) {
	pgContainer, err := postgres.Run(
		ctx, "postgres:18.1-alpine",
		postgres.WithDatabase(testDbName),
		postgres.WithUsername(testDbUser),
		postgres.WithPassword(testDbPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return nil, err
	}
	return pgContainer, nil
}

// TestWithDB starts a Postgres container, applies all migrations and returns
// an open pool. The test is skipped when no container runtime is available.
func TestWithDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := preparePostgresContainer(ctx)
	if err != nil {
		t.Skipf("postgres container not available: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			log.Warnf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to read container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("Failed to read container port: %v", err)
	}

	log.Infof("Postgres container started at %s:%d", host, port.Int())

	cfg := config.Database{
		Host:   host,
		Port:   port.Int(),
		User:   testDbUser,
		Pass:   testDbPassword,
		Name:   testDbName,
		Schema: "public",
	}

	if err := database.Migrate(cfg); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	pool, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open database connection: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}
