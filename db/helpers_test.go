package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadline/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "leadline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustContact(t *testing.T, db *sql.DB, first, last, email, phone string) *models.Contact {
	t.Helper()
	c := &models.Contact{FirstName: first, LastName: last, Email: email, Phone: phone}
	require.NoError(t, CreateContact(db, c))
	// created_at ordering needs distinct timestamps
	time.Sleep(2 * time.Millisecond)
	return c
}

func mustTask(t *testing.T, db *sql.DB, title string, contactID *uuid.UUID) *models.Task {
	t.Helper()
	task := &models.Task{Title: title, ContactID: contactID}
	require.NoError(t, CreateTask(db, task))
	return task
}
