package testutil

import (
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/MeganHarrison/alleato-core/internal/config"
	"github.com/MeganHarrison/alleato-core/internal/db"
)

// OpenTestDB connects to the postgres named by TEST_DB_HOST, applies the
// migrations and empties the core tables. Tests skip when it is unset.
func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     envOr("TEST_DB_USER", "alleato"),
		Password: envOr("TEST_DB_PASSWORD", "alleato_pass"),
		DBName:   envOr("TEST_DB_NAME", "alleato_test"),
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	tables := []string{"document_insights", "document_chunks", "documents", "fm_global_vectors", "fm_sprinkler_configs", "fm_global_tables"}
	if _, err := conn.Exec("TRUNCATE " + strings.Join(tables, ", ") + " CASCADE"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
