//go:build integration

// Package testdb starts a disposable Postgres with the schema migrated.
package testdb

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/noah-isme/academic-records-api/pkg/database"
)

// Handle owns the container and the connection pool.
type Handle struct {
	DB     *sqlx.DB
	cancel func()
	stop   func(context.Context) error
}

// Close releases the pool and terminates the container.
func (h *Handle) Close() {
	if h.DB != nil {
		_ = h.DB.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// Start runs postgres and applies the embedded migrations.
func Start(ctx context.Context) (*Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("academic_records"),
		postgres.WithUsername("records"),
		postgres.WithPassword("records"),
		tc.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	fail := func(err error) (*Handle, error) {
		_ = pg.Terminate(context.Background())
		cancel()
		return nil, err
	}

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fail(err)
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", uri)
	if err != nil {
		return fail(fmt.Errorf("connect postgres: %w", err))
	}
	if err := database.Migrate(ctx, db.DB); err != nil {
		_ = db.Close()
		return fail(err)
	}

	return &Handle{DB: db, cancel: cancel, stop: pg.Terminate}, nil
}
