package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadline/models"
)

func strPtr(s string) *string { return &s }

func TestCreateTaskDefaults(t *testing.T) {
	db := setupTestDB(t)

	task := mustTask(t, db, "Send quote", nil)
	assert.Equal(t, models.TaskOpen, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)

	assert.Error(t, CreateTask(db, &models.Task{Title: "  "}))
}

func TestBulkUpdateTasksDoneArchives(t *testing.T) {
	db := setupTestDB(t)

	a := mustTask(t, db, "A", nil)
	b := mustTask(t, db, "B", nil)
	untouched := mustTask(t, db, "C", nil)

	n, err := BulkUpdateTasks(db, models.BulkTarget{IDs: []uuid.UUID{a.ID, b.ID}}, models.TaskPatch{Status: strPtr(models.TaskDone)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		got, err := GetTask(db, id)
		require.NoError(t, err)
		assert.Equal(t, models.TaskDone, got.Status)
		require.NotNil(t, got.ArchivedAt)
		require.NotNil(t, got.CompletedAt)
	}

	got, err := GetTask(db, untouched.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ArchivedAt)

	// Archived tasks drop out of the default listing
	open, err := FindTasks(db, models.TaskFilter{}, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, untouched.ID, open[0].ID)
}

func TestBulkUpdateTasksReopenClears(t *testing.T) {
	db := setupTestDB(t)

	task := mustTask(t, db, "A", nil)
	target := models.BulkTarget{IDs: []uuid.UUID{task.ID}}
	_, err := BulkUpdateTasks(db, target, models.TaskPatch{Status: strPtr(models.TaskDone)})
	require.NoError(t, err)

	_, err = BulkUpdateTasks(db, target, models.TaskPatch{Status: strPtr(models.TaskOpen)})
	require.NoError(t, err)

	got, err := GetTask(db, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskOpen, got.Status)
	assert.Nil(t, got.ArchivedAt)
	assert.Nil(t, got.CompletedAt)
}

func TestBulkUpdateTasksGlobalFilter(t *testing.T) {
	db := setupTestDB(t)

	quoted := mustContact(t, db, "Q", "", "", "")
	fresh := mustContact(t, db, "F", "", "", "")
	require.NoError(t, UpdateContactStage(db, quoted.ID, models.StageQuote))

	hit := mustTask(t, db, "Follow up quote", &quoted.ID)
	miss := mustTask(t, db, "Intro call", &fresh.ID)

	due := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	target := models.BulkTarget{
		Scope:   models.BulkScopeGlobal,
		Filters: models.TaskFilter{Stage: []string{models.StageQuote}},
	}
	n, err := BulkUpdateTasks(db, target, models.TaskPatch{
		DueAt:    &due,
		Priority: strPtr(models.PriorityHigh),
		Label:    strPtr("hot"),
		Stage:    strPtr(models.StageFollowUp),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := GetTask(db, hit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, "hot", got.Label)
	require.NotNil(t, got.DueAt)
	assert.True(t, due.Equal(*got.DueAt))

	contact, err := GetContact(db, quoted.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageFollowUp, contact.Stage)

	other, err := GetTask(db, miss.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, other.Priority)

	untouched, err := GetContact(db, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageNewLead, untouched.Stage)
}

func TestBulkUpdateTasksRejectsBadValues(t *testing.T) {
	db := setupTestDB(t)

	target := models.BulkTarget{Scope: models.BulkScopeGlobal}
	_, err := BulkUpdateTasks(db, target, models.TaskPatch{Status: strPtr("SNOOZED")})
	assert.Error(t, err)
	_, err = BulkUpdateTasks(db, target, models.TaskPatch{Priority: strPtr("URGENT")})
	assert.Error(t, err)
	_, err = BulkUpdateTasks(db, target, models.TaskPatch{Stage: strPtr("WON")})
	assert.Error(t, err)
}

func TestBulkUpdateTasksEmptyIDsMatchesNothing(t *testing.T) {
	db := setupTestDB(t)

	mustTask(t, db, "A", nil)
	n, err := BulkUpdateTasks(db, models.BulkTarget{}, models.TaskPatch{Priority: strPtr(models.PriorityLow)})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBulkDeleteTasks(t *testing.T) {
	db := setupTestDB(t)

	a := mustTask(t, db, "Call Ana", nil)
	mustTask(t, db, "Email Ben", nil)

	n, err := BulkDeleteTasks(db, models.BulkTarget{
		Scope:   models.BulkScopeGlobal,
		Filters: models.TaskFilter{Query: "call"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := GetTask(db, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindTasksFilters(t *testing.T) {
	db := setupTestDB(t)

	c := mustContact(t, db, "Ana", "", "", "")
	soon := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	later := soon.AddDate(0, 1, 0)
	require.NoError(t, CreateTask(db, &models.Task{Title: "soon", DueAt: &soon, ContactID: &c.ID, Priority: models.PriorityHigh}))
	require.NoError(t, CreateTask(db, &models.Task{Title: "later", DueAt: &later}))

	to := soon.Add(24 * time.Hour)
	found, err := FindTasks(db, models.TaskFilter{DueTo: &to}, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "soon", found[0].Title)

	found, err = FindTasks(db, models.TaskFilter{ContactID: &c.ID}, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = FindTasks(db, models.TaskFilter{Priority: []string{models.PriorityLow}}, 0)
	require.NoError(t, err)
	assert.Empty(t, found)
}
