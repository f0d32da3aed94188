package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/angelmondragon/hookrelay-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one %s migration, found %d", suffix, len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsContainConstraints(t *testing.T) {
	cases := map[string][]string{
		"create_integrations": {
			"CREATE TABLE IF NOT EXISTS integrations",
			"CONSTRAINT integrations_url_code_key UNIQUE (url_code)",
			"additional_fields jsonb NOT NULL",
			"DROP TABLE IF EXISTS integrations",
		},
		"create_webhooks": {
			"CREATE TABLE IF NOT EXISTS webhooks",
			"CHECK (status IN ('SUCCESS', 'ERROR'))",
			"CHECK (is_retry = (original_webhook_id IS NOT NULL))",
			"webhooks_account_triggered_idx ON webhooks (account_id, triggered_at DESC)",
			"DROP TABLE IF EXISTS webhooks",
		},
		"create_user_stats": {
			"CONSTRAINT user_stats_account_id_key UNIQUE (account_id)",
			"CHECK (used_webhook_quota >= 0)",
			"DROP TABLE IF EXISTS user_stats",
		},
		"create_signatures": {
			"log_view_quota integer",
			"DROP TABLE IF EXISTS signatures",
		},
	}

	for suffix, checks := range cases {
		content := readMigration(t, suffix)
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", suffix, sub)
			}
		}
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Webhook Index!")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_webhook_index.sql") {
		t.Fatalf("unexpected path %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}

func TestCreateSQLMigrationRejectsDuplicateName(t *testing.T) {
	dir := t.TempDir()
	if _, err := migrate.CreateSQLMigration(dir, "add_dedup_index"); err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "Add Dedup Index"); err == nil {
		t.Fatal("expected duplicate migration name to fail")
	}
}

func TestValidateDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"20260301100000_create_integrations.sql": "-- +goose Up\n-- +goose Down\n",
		"20260301100000_create_webhooks.sql":     "-- +goose Up\n-- +goose Down\n",
		"20260301100100_create_integrations.sql": "-- +goose Up\n-- +goose Down\n",
		"20260301100200_missing_down.sql":        "-- +goose Up\n",
		"create_signatures.sql":                  "-- +goose Up\n-- +goose Down\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	err := migrate.ValidateDir(dir)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if got := len(multierr.Errors(err)); got != 4 {
		t.Fatalf("expected 4 problems, got %d: %v", got, err)
	}
}
