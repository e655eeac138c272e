package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestShippedMigrationsValidate(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir failed: %v", err)
	}
}

func TestBookingsMigrationContainsStatusEnum(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_bookings.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("no bookings migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE booking_status AS ENUM ('pending', 'accepted', 'in_progress', 'completed', 'cancelled')",
		"technician_id uuid REFERENCES technicians(id)",
		"total_amount  numeric(12,2) NOT NULL",
		"DROP TABLE bookings",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestNotificationRecipientsMigrationEnforcesDedup(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_notifications.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("no notifications migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	if !strings.Contains(string(data), "UNIQUE (notification_id, user_id)") {
		t.Error("missing per-recipient uniqueness constraint")
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Something New!")
	if err != nil {
		t.Fatalf("CreateSQLMigration failed: %v", err)
	}
	if !strings.HasSuffix(path, "_add_something_new.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration did not validate: %v", err)
	}
}
