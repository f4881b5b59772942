package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestEmbeddedMatchesDisk(t *testing.T) {
	if err := ValidateDir(DefaultDir); err != nil {
		t.Fatalf("validate embedded migrations: %v", err)
	}
	embeddedNames, err := fs.Glob(Embedded(), "*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	diskNames, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob disk: %v", err)
	}
	if len(embeddedNames) == 0 || len(embeddedNames) != len(diskNames) {
		t.Fatalf("expected embedded set to mirror disk, got %d embedded vs %d on disk", len(embeddedNames), len(diskNames))
	}
}

func TestRentalMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_rentals.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS rentals",
		"FOREIGN KEY (locker_id) REFERENCES lockers(id)",
		"CHECK (fee > 0)",
		"CHECK (owner_id <> renter_id)",
		"CHECK (due_date >= start_date)",
		"idx_rentals_locker_id",
		"DROP TABLE IF EXISTS rentals",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestWalletMigrationForbidsNegativeBalance(t *testing.T) {
	content := readMigration(t, "*_create_wallets.sql")
	if !strings.Contains(content, "CHECK (balance >= 0)") {
		t.Fatal("wallet balance must be constrained non-negative")
	}
}

func TestValidateFSRejectsBrokenFiles(t *testing.T) {
	good := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose StatementEnd\n-- +goose Down\n"
	cases := map[string]fstest.MapFS{
		"bad name": {
			"create_lockers.sql": {Data: []byte(good)},
		},
		"duplicate version": {
			"20260301090000_a.sql": {Data: []byte(good)},
			"20260301090000_b.sql": {Data: []byte(good)},
		},
		"missing down": {
			"20260301090000_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")},
		},
		"unbalanced statement block": {
			"20260301090000_a.sql": {Data: []byte("-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n")},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			if err := ValidateFS(fsys); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	path, err := createSQLMigration(dir, "Add Locker Sites!", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(path) != "20260302100000_add_locker_sites.sql" {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
	if _, err := createSQLMigration(dir, "other", now); err == nil {
		t.Fatal("expected version collision error")
	}
	if _, err := createSQLMigration(dir, "!!!", now); err == nil {
		t.Fatal("expected empty name error")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
