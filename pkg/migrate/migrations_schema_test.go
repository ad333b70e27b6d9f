package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir invalid: %v", err)
	}
}

func TestInitSchemaContainsOrderConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"order_ref          TEXT NOT NULL UNIQUE",
		"license_id         UUID NOT NULL UNIQUE REFERENCES licenses (id)",
		"payment_id   TEXT NOT NULL UNIQUE",
		"CREATE TABLE order_counters",
		"DROP TABLE IF EXISTS orders",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestSeedMigrationSeedsCounterRow(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_seed_catalog.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no seed migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}

	if !strings.Contains(string(data), "INSERT INTO order_counters (id, sequence) VALUES ('counter', 0)") {
		t.Error("seed migration must initialize the order counter row")
	}
}
