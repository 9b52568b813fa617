package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/mornview/reviewd/internal/config"
	"github.com/mornview/reviewd/internal/repo"
)

func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := repo.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "reviewd",
		Password: "reviewd_pass",
		DBName:   "reviewd_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := repo.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	reset(t, conn)
	return conn, func() {
		reset(t, conn)
		_ = conn.Close()
	}
}

func reset(t *testing.T, conn *sql.DB) {
	t.Helper()
	for _, stmt := range []string{"DELETE FROM reviews", "DELETE FROM users"} {
		if _, err := conn.Exec(stmt); err != nil {
			t.Fatalf("reset tables: %v", err)
		}
	}
}
