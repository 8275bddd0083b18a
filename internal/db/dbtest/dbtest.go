// Package dbtest connects integration tests to a migrated PostgreSQL
// database described by DB_*_TEST variables.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GabrielMhv/D-Market-sub000/internal/config"
	"github.com/GabrielMhv/D-Market-sub000/internal/db"
)

// New returns a migrated, truncated database or skips the test when
// DB_HOST_TEST is unset.
func New(t *testing.T) *db.Postgres {
	t.Helper()

	host := os.Getenv("DB_HOST_TEST")
	if host == "" {
		t.Skip("DB_HOST_TEST not set, skipping database test")
	}

	cfg := config.PostgresConfig{
		Host:            host,
		Port:            envOr("DB_PORT_TEST", "5432"),
		User:            envOr("DB_USER_TEST", "postgres"),
		Password:        envOr("DB_PASSWORD_TEST", "123456"),
		DBName:          envOr("DB_NAME_TEST", "storefront_test"),
		SSLMode:         envOr("DB_SSLMODE_TEST", "disable"),
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: time.Minute,
	}

	require.NoError(t, db.Migrate(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pg, err := db.New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	truncate := func() {
		_, err := pg.Pool.Exec(context.Background(),
			"TRUNCATE TABLE order_items, orders, addresses, products, settings, users RESTART IDENTITY CASCADE")
		require.NoError(t, err, "failed to truncate tables")
	}
	truncate()
	t.Cleanup(truncate)

	return pg
}

// InsertUser creates a bare customer row and returns its id.
func InsertUser(t *testing.T, pg *db.Postgres, email string) string {
	t.Helper()

	var id string
	err := pg.Pool.QueryRow(context.Background(),
		`INSERT INTO users (id, name, email, password_hash) VALUES (gen_random_uuid(), 'Test', $1, 'x') RETURNING id::text`,
		email).Scan(&id)
	require.NoError(t, err)
	return id
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
