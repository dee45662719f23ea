// ABOUTME: Database schema definitions
// ABOUTME: Handles SQLite table creation and initialization
package db

import (
	"database/sql"
	"fmt"

	"github.com/harperreed/leadline/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	email TEXT,
	phone TEXT,
	phone_digits TEXT,
	stage TEXT NOT NULL DEFAULT 'NEW_LEAD',
	source TEXT,
	notes TEXT,
	dob TEXT,
	zip TEXT,
	state TEXT,
	last_contacted_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);
CREATE INDEX IF NOT EXISTS idx_contacts_phone ON contacts(phone);
CREATE INDEX IF NOT EXISTS idx_contacts_stage ON contacts(stage);

CREATE TABLE IF NOT EXISTS activities (
	id TEXT PRIMARY KEY,
	contact_id TEXT,
	type TEXT NOT NULL,
	outcome TEXT,
	count INTEGER NOT NULL DEFAULT 1,
	revenue REAL,
	notes TEXT,
	date DATETIME NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (contact_id) REFERENCES contacts(id)
);

CREATE INDEX IF NOT EXISTS idx_activities_date ON activities(date);
CREATE INDEX IF NOT EXISTS idx_activities_contact ON activities(contact_id);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	contact_id TEXT,
	title TEXT NOT NULL,
	label TEXT,
	status TEXT NOT NULL DEFAULT 'OPEN' CHECK(status IN ('OPEN', 'DONE')),
	priority TEXT NOT NULL DEFAULT 'MEDIUM' CHECK(priority IN ('LOW', 'MEDIUM', 'HIGH')),
	due_at DATETIME,
	completed_at DATETIME,
	archived_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (contact_id) REFERENCES contacts(id)
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_due_at ON tasks(due_at);
CREATE INDEX IF NOT EXISTS idx_tasks_contact ON tasks(contact_id);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS discovery_sessions (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL UNIQUE,
	client_id TEXT,
	client_name TEXT NOT NULL DEFAULT '',
	primary_dob TEXT NOT NULL DEFAULT '',
	zip TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL DEFAULT '',
	county TEXT NOT NULL DEFAULT '',
	json_payload TEXT NOT NULL,
	yaml_payload TEXT NOT NULL DEFAULT '',
	rapport TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_discovery_client ON discovery_sessions(client_id, updated_at DESC);
`

func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return migratePhoneDigits(db)
}

// migratePhoneDigits adds contacts.phone_digits to databases created before
// the column existed and fills it for rows that have a phone but no digits.
func migratePhoneDigits(db *sql.DB) error {
	has, err := hasColumn(db, "contacts", "phone_digits")
	if err != nil {
		return err
	}
	if !has {
		if _, err := db.Exec(`ALTER TABLE contacts ADD COLUMN phone_digits TEXT`); err != nil {
			return fmt.Errorf("failed to add phone_digits: %w", err)
		}
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_contacts_phone_digits ON contacts(phone_digits)`); err != nil {
		return fmt.Errorf("failed to index phone_digits: %w", err)
	}

	rows, err := db.Query(`SELECT id, phone FROM contacts WHERE phone IS NOT NULL AND phone_digits IS NULL`)
	if err != nil {
		return fmt.Errorf("failed to scan phones: %w", err)
	}
	pending := map[string]string{}
	for rows.Next() {
		var id, phone string
		if err := rows.Scan(&id, &phone); err != nil {
			_ = rows.Close()
			return err
		}
		pending[id] = models.NormalizePhone(phone)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for id, digits := range pending {
		if _, err := db.Exec(`UPDATE contacts SET phone_digits = ? WHERE id = ?`, digits, id); err != nil {
			return fmt.Errorf("failed to backfill phone_digits: %w", err)
		}
	}
	return nil
}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return false, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
