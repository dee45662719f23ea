// ABOUTME: Contact database operations
// ABOUTME: Handles CRUD operations, search, stage counts and contact touch tracking
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/leadline/models"
)

const contactColumns = `id, first_name, last_name, email, phone, stage, source, notes, dob, zip, state, last_contacted_at, created_at, updated_at`

func scanContact(row scanner) (*models.Contact, error) {
	c := &models.Contact{}
	var email, phone, source, notes, dob, zip, state sql.NullString
	var lastContacted sql.NullTime
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &email, &phone, &c.Stage, &source, &notes,
		&dob, &zip, &state, &lastContacted, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Email = email.String
	c.Phone = phone.String
	c.Source = source.String
	c.Notes = notes.String
	c.DOB = dob.String
	c.Zip = zip.String
	c.State = state.String
	c.LastContactedAt = timePtr(lastContacted)
	return c, nil
}

func CreateContact(db *sql.DB, contact *models.Contact) error {
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	if contact.Stage == "" {
		contact.Stage = models.StageNewLead
	}
	if !models.IsValidStage(contact.Stage) {
		return fmt.Errorf("invalid stage: %s", contact.Stage)
	}
	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	_, err := db.Exec(`
		INSERT INTO contacts (`+contactColumns+`, phone_digits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, contact.ID.String(), contact.FirstName, contact.LastName, nullIfEmpty(contact.Email), nullIfEmpty(contact.Phone),
		contact.Stage, nullIfEmpty(contact.Source), nullIfEmpty(contact.Notes), nullIfEmpty(contact.DOB),
		nullIfEmpty(contact.Zip), nullIfEmpty(contact.State), utc(contact.LastContactedAt), contact.CreatedAt, contact.UpdatedAt,
		phoneDigits(contact.Phone))

	return err
}

func GetContact(db *sql.DB, id uuid.UUID) (*models.Contact, error) {
	contact, err := scanContact(db.QueryRow(`SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return contact, nil
}

// FindContacts searches names, email and phone. An empty stage matches all
// stages.
func FindContacts(db *sql.DB, query, stage string, limit int) ([]models.Contact, error) {
	if limit <= 0 {
		limit = 50
	}

	var where []string
	var args []any
	if query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		where = append(where, `(LOWER(first_name || ' ' || last_name) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ? OR COALESCE(phone, '') LIKE ?)`)
		args = append(args, pattern, pattern, pattern)
	}
	if stage != "" {
		where = append(where, `stage = ?`)
		args = append(args, stage)
	}

	q := `SELECT ` + contactColumns + ` FROM contacts`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var contacts []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

func UpdateContact(db *sql.DB, id uuid.UUID, updates *models.Contact) error {
	if !models.IsValidStage(updates.Stage) {
		return fmt.Errorf("invalid stage: %s", updates.Stage)
	}
	updates.UpdatedAt = time.Now().UTC()

	_, err := db.Exec(`
		UPDATE contacts
		SET first_name = ?, last_name = ?, email = ?, phone = ?, phone_digits = ?, stage = ?, source = ?, notes = ?,
		    dob = ?, zip = ?, state = ?, updated_at = ?
		WHERE id = ?
	`, updates.FirstName, updates.LastName, nullIfEmpty(updates.Email), nullIfEmpty(updates.Phone),
		phoneDigits(updates.Phone), updates.Stage,
		nullIfEmpty(updates.Source), nullIfEmpty(updates.Notes), nullIfEmpty(updates.DOB), nullIfEmpty(updates.Zip),
		nullIfEmpty(updates.State), updates.UpdatedAt, id.String())

	return err
}

func UpdateContactStage(db *sql.DB, id uuid.UUID, stage string) error {
	if !models.IsValidStage(stage) {
		return fmt.Errorf("invalid stage: %s", stage)
	}
	_, err := db.Exec(`UPDATE contacts SET stage = ?, updated_at = ? WHERE id = ?`, stage, time.Now().UTC(), id.String())
	return err
}

func DeleteContact(db *sql.DB, id uuid.UUID) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	// Keep history, drop the link
	if _, err := tx.Exec(`UPDATE activities SET contact_id = NULL WHERE contact_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to detach activities: %w", err)
	}
	if _, err := tx.Exec(`UPDATE tasks SET contact_id = NULL WHERE contact_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to detach tasks: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM contacts WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	return tx.Commit()
}

func UpdateContactLastContacted(db *sql.DB, contactID uuid.UUID, timestamp time.Time) error {
	_, err := db.Exec(`
		UPDATE contacts
		SET last_contacted_at = ?, updated_at = ?
		WHERE id = ?
	`, timestamp.UTC(), time.Now().UTC(), contactID.String())

	return err
}

// CountContactsByStage returns the number of contacts per pipeline stage.
func CountContactsByStage(db *sql.DB) (map[string]int, error) {
	rows, err := db.Query(`SELECT stage, COUNT(*) FROM contacts GROUP BY stage`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var stage string
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, err
		}
		counts[stage] = n
	}
	return counts, rows.Err()
}

func allContacts(q querier) ([]models.Contact, error) {
	rows, err := q.Query(`SELECT ` + contactColumns + ` FROM contacts ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var contacts []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}
