// ABOUTME: Tests for database schema creation
// ABOUTME: Uses in-memory SQLite for fast isolated tests
package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestInitSchema(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := InitSchema(db); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	for _, table := range []string{"contacts", "activities", "tasks", "settings", "discovery_sessions"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	indexes := []string{
		"idx_contacts_email",
		"idx_activities_date",
		"idx_tasks_status",
		"idx_discovery_client",
	}
	for _, idx := range indexes {
		var indexName string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&indexName)
		if err != nil {
			t.Errorf("Index %s not found: %v", idx, err)
		}
	}
}

func TestInitSchemaIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	if err := InitSchema(db); err != nil {
		t.Fatalf("first InitSchema failed: %v", err)
	}
	if err := InitSchema(db); err != nil {
		t.Fatalf("second InitSchema failed: %v", err)
	}
}

func TestInitSchemaBackfillsPhoneDigits(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "legacy.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	_, err = db.Exec(`CREATE TABLE contacts (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT,
		phone TEXT,
		stage TEXT NOT NULL DEFAULT 'NEW_LEAD',
		source TEXT,
		notes TEXT,
		dob TEXT,
		zip TEXT,
		state TEXT,
		last_contacted_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`)
	if err != nil {
		t.Fatalf("legacy table: %v", err)
	}
	_, err = db.Exec(`INSERT INTO contacts (id, first_name, phone, created_at, updated_at)
		VALUES ('00000000-0000-0000-0000-000000000001', 'Old', '555/123/4567', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	if err != nil {
		t.Fatalf("legacy row: %v", err)
	}

	if err := InitSchema(db); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	var digits string
	if err := db.QueryRow(`SELECT phone_digits FROM contacts`).Scan(&digits); err != nil {
		t.Fatalf("phone_digits not readable: %v", err)
	}
	if digits != "5551234567" {
		t.Errorf("phone_digits = %q, want 5551234567", digits)
	}

	match, err := FindDuplicateContact(db, "", "(555) 123-4567")
	if err != nil {
		t.Fatalf("FindDuplicateContact failed: %v", err)
	}
	if match == nil || match.FirstName != "Old" {
		t.Errorf("legacy contact not matched: %+v", match)
	}
}
