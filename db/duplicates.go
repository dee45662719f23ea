// ABOUTME: Duplicate contact detection by normalised email and phone
// ABOUTME: Used before creating or editing leads and during CSV import
package db

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/harperreed/leadline/models"
)

// phoneDigits is the value stored in contacts.phone_digits for phone.
func phoneDigits(phone string) *string {
	return nullIfEmpty(models.NormalizePhone(phone))
}

// FindDuplicateContact returns the oldest contact whose email equals the
// normalised email, or whose normalised phone contains the normalised phone.
// Phones with fewer than ten digits are not matched. Returns nil when neither
// input is usable or nothing matches.
func FindDuplicateContact(db *sql.DB, email, phone string) (*models.Contact, error) {
	return findDuplicate(db, email, phone, nil)
}

// FindConflictingContact is FindDuplicateContact ignoring excludeID, so a
// contact being edited does not conflict with itself.
func FindConflictingContact(db *sql.DB, email, phone string, excludeID *uuid.UUID) (*models.Contact, error) {
	return findDuplicate(db, email, phone, excludeID)
}

func IsDuplicateContact(db *sql.DB, email, phone string, excludeID *uuid.UUID) (bool, error) {
	match, err := findDuplicate(db, email, phone, excludeID)
	if err != nil {
		return false, err
	}
	return match != nil, nil
}

func findDuplicate(db *sql.DB, email, phone string, excludeID *uuid.UUID) (*models.Contact, error) {
	email = models.NormalizeEmail(email)
	phone = models.NormalizePhone(phone)

	var or []string
	var args []any
	if email != "" {
		or = append(or, `LOWER(TRIM(COALESCE(email, ''))) = ?`)
		args = append(args, email)
	}
	if len(phone) >= models.MinPhoneDigits {
		or = append(or, `COALESCE(phone_digits, '') LIKE ?`)
		args = append(args, "%"+phone+"%")
	}
	if len(or) == 0 {
		return nil, nil
	}

	q := `SELECT ` + contactColumns + ` FROM contacts WHERE (` + strings.Join(or, " OR ") + `)`
	if excludeID != nil {
		q += ` AND id != ?`
		args = append(args, excludeID.String())
	}
	q += ` ORDER BY created_at ASC LIMIT 1`

	contact, err := scanContact(db.QueryRow(q, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return contact, nil
}
