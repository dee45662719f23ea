// ABOUTME: Classification of SQLite errors
// ABOUTME: Detects missing tables and unique constraint violations
package db

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// IsSchemaMissing reports whether err means a table has not been created yet.
func IsSchemaMissing(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such table") || strings.Contains(msg, "does not exist")
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
