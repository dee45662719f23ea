package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadline/models"
)

func TestCreateAndGetContact(t *testing.T) {
	db := setupTestDB(t)

	c := mustContact(t, db, "Ana", "Lopez", "ana@example.com", "555-123-4567")
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, models.StageNewLead, c.Stage)

	got, err := GetContact(db, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ana Lopez", got.FullName())
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Nil(t, got.LastContactedAt)
}

func TestGetContactMissing(t *testing.T) {
	db := setupTestDB(t)

	got, err := GetContact(db, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateContactRejectsBadStage(t *testing.T) {
	db := setupTestDB(t)

	err := CreateContact(db, &models.Contact{FirstName: "X", Stage: "MAYBE"})
	assert.Error(t, err)
}

func TestFindContacts(t *testing.T) {
	db := setupTestDB(t)

	ana := mustContact(t, db, "Ana", "Lopez", "ana@example.com", "")
	mustContact(t, db, "Ben", "Okafor", "ben@example.com", "3125550000")
	require.NoError(t, UpdateContactStage(db, ana.ID, models.StageQuote))

	found, err := FindContacts(db, "lopez", "", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ana.ID, found[0].ID)

	found, err = FindContacts(db, "", models.StageQuote, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = FindContacts(db, "312555", "", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Ben", found[0].FirstName)

	all, err := FindContacts(db, "", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateContact(t *testing.T) {
	db := setupTestDB(t)

	c := mustContact(t, db, "Ana", "Lopez", "", "")
	c.Email = "new@example.com"
	c.Stage = models.StageSold
	require.NoError(t, UpdateContact(db, c.ID, c))

	got, err := GetContact(db, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)
	assert.Equal(t, models.StageSold, got.Stage)
}

func TestDeleteContactDetachesHistory(t *testing.T) {
	db := setupTestDB(t)

	c := mustContact(t, db, "Ana", "Lopez", "", "")
	task := mustTask(t, db, "Call back", &c.ID)
	require.NoError(t, LogActivity(db, &models.Activity{Type: models.ActivityDial, ContactID: &c.ID}))

	require.NoError(t, DeleteContact(db, c.ID))

	got, err := GetContact(db, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	kept, err := GetTask(db, task.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Nil(t, kept.ContactID)

	acts, err := FindActivities(db, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Nil(t, acts[0].ContactID)
}

func TestCountContactsByStage(t *testing.T) {
	db := setupTestDB(t)

	a := mustContact(t, db, "A", "", "", "")
	mustContact(t, db, "B", "", "", "")
	require.NoError(t, UpdateContactStage(db, a.ID, models.StageSold))

	counts, err := CountContactsByStage(db)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[models.StageNewLead])
	assert.Equal(t, 1, counts[models.StageSold])
}
