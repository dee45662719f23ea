// ABOUTME: Task database operations including bulk update and delete
// ABOUTME: Bulk operations target explicit ids or every task matching a filter
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/leadline/models"
)

const taskColumns = `id, contact_id, title, label, status, priority, due_at, completed_at, archived_at, created_at, updated_at`

func scanTask(row scanner) (*models.Task, error) {
	t := &models.Task{}
	var contactID uuid.NullUUID
	var label sql.NullString
	var dueAt, completedAt, archivedAt sql.NullTime
	if err := row.Scan(&t.ID, &contactID, &t.Title, &label, &t.Status, &t.Priority,
		&dueAt, &completedAt, &archivedAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.ContactID = uuidPtr(contactID)
	t.Label = label.String
	t.DueAt = timePtr(dueAt)
	t.CompletedAt = timePtr(completedAt)
	t.ArchivedAt = timePtr(archivedAt)
	return t, nil
}

func CreateTask(db *sql.DB, task *models.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Status == "" {
		task.Status = models.TaskOpen
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == models.TaskDone {
		task.CompletedAt = &now
		task.ArchivedAt = &now
	}

	_, err := db.Exec(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID.String(), nullUUID(task.ContactID), task.Title, nullIfEmpty(task.Label), task.Status, task.Priority,
		utc(task.DueAt), utc(task.CompletedAt), utc(task.ArchivedAt), task.CreatedAt, task.UpdatedAt)

	return err
}

func GetTask(db *sql.DB, id uuid.UUID) (*models.Task, error) {
	task, err := scanTask(db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// FindTasks lists tasks matching filter, soonest due first.
func FindTasks(db *sql.DB, filter models.TaskFilter, limit int) ([]models.Task, error) {
	if limit <= 0 {
		limit = 100
	}
	where, args := filterClauses(filter)
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY due_at IS NULL, due_at ASC, created_at DESC LIMIT ?`
	args = append(args, limit)
	return queryTasks(db, q, args...)
}

func DeleteTask(db *sql.DB, id uuid.UUID) error {
	_, err := db.Exec(`DELETE FROM tasks WHERE id = ?`, id.String())
	return err
}

func queryTasks(q querier, query string, args ...any) ([]models.Task, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// filterClauses always returns at least one clause.
func filterClauses(f models.TaskFilter) ([]string, []any) {
	where := []string{"1=1"}
	var args []any

	if !f.ShowArchived {
		where = append(where, "archived_at IS NULL")
	}
	if len(f.Status) > 0 {
		where = append(where, "status IN ("+placeholders(len(f.Status))+")")
		args = append(args, stringArgs(f.Status)...)
	}
	if len(f.Priority) > 0 {
		where = append(where, "priority IN ("+placeholders(len(f.Priority))+")")
		args = append(args, stringArgs(f.Priority)...)
	}
	if len(f.Stage) > 0 {
		where = append(where, "contact_id IN (SELECT id FROM contacts WHERE stage IN ("+placeholders(len(f.Stage))+"))")
		args = append(args, stringArgs(f.Stage)...)
	}
	if f.ContactID != nil {
		where = append(where, "contact_id = ?")
		args = append(args, f.ContactID.String())
	}
	if f.Label != "" {
		where = append(where, "LOWER(COALESCE(label, '')) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Label)+"%")
	}
	if f.Query != "" {
		pattern := "%" + strings.ToLower(f.Query) + "%"
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(COALESCE(label, '')) LIKE ?)")
		args = append(args, pattern, pattern)
	}
	if f.DueFrom != nil {
		where = append(where, "due_at >= ?")
		args = append(args, f.DueFrom.UTC())
	}
	if f.DueTo != nil {
		where = append(where, "due_at <= ?")
		args = append(args, f.DueTo.UTC())
	}
	return where, args
}

// targetWhere builds the WHERE clause for a bulk target. A non-global target
// with no ids matches nothing.
func targetWhere(target models.BulkTarget) (string, []any) {
	if !target.IsGlobal() {
		if len(target.IDs) == 0 {
			return "0", nil
		}
		args := make([]any, len(target.IDs))
		for i, id := range target.IDs {
			args[i] = id.String()
		}
		return "id IN (" + placeholders(len(target.IDs)) + ")", args
	}
	where, args := filterClauses(target.Filters)
	return strings.Join(where, " AND "), args
}

// BulkUpdateTasks applies patch to every targeted task and returns the number
// of tasks changed. Marking DONE archives and completes; marking OPEN clears
// both. A stage in the patch moves the linked contacts.
func BulkUpdateTasks(db *sql.DB, target models.BulkTarget, patch models.TaskPatch) (int64, error) {
	if patch.Status != nil && *patch.Status != models.TaskOpen && *patch.Status != models.TaskDone {
		return 0, fmt.Errorf("invalid status: %s", *patch.Status)
	}
	if patch.Priority != nil {
		switch *patch.Priority {
		case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		default:
			return 0, fmt.Errorf("invalid priority: %s", *patch.Priority)
		}
	}
	if patch.Stage != nil && !models.IsValidStage(*patch.Stage) {
		return 0, fmt.Errorf("invalid stage: %s", *patch.Stage)
	}

	where, args := targetWhere(target)

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	// Resolve the target once so the stage filter sees pre-update stages.
	ids, err := selectTaskIDs(tx, where, args)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve tasks: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	idWhere := "id IN (" + placeholders(len(ids)) + ")"

	now := time.Now().UTC()

	if patch.Stage != nil {
		stageArgs := append([]any{*patch.Stage, now}, ids...)
		_, err := tx.Exec(`
			UPDATE contacts SET stage = ?, updated_at = ?
			WHERE id IN (SELECT contact_id FROM tasks WHERE contact_id IS NOT NULL AND `+idWhere+`)
		`, stageArgs...)
		if err != nil {
			return 0, fmt.Errorf("failed to update contact stages: %w", err)
		}
	}

	sets := []string{"updated_at = ?"}
	setArgs := []any{now}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		setArgs = append(setArgs, *patch.Status)
		if *patch.Status == models.TaskDone {
			sets = append(sets, "archived_at = ?", "completed_at = ?")
			setArgs = append(setArgs, now, now)
		} else {
			sets = append(sets, "archived_at = NULL", "completed_at = NULL")
		}
	}
	if patch.DueAt != nil {
		sets = append(sets, "due_at = ?")
		setArgs = append(setArgs, patch.DueAt.UTC())
	}
	if patch.Priority != nil {
		sets = append(sets, "priority = ?")
		setArgs = append(setArgs, *patch.Priority)
	}
	if patch.Label != nil {
		sets = append(sets, "label = ?")
		setArgs = append(setArgs, nullIfEmpty(*patch.Label))
	}

	result, err := tx.Exec(`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE `+idWhere, append(setArgs, ids...)...)
	if err != nil {
		return 0, fmt.Errorf("failed to update tasks: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return n, nil
}

func selectTaskIDs(tx *sql.Tx, where string, args []any) ([]any, error) {
	rows, err := tx.Query(`SELECT id FROM tasks WHERE `+where, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []any
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// BulkDeleteTasks deletes every targeted task and returns how many were removed.
func BulkDeleteTasks(db *sql.DB, target models.BulkTarget) (int64, error) {
	where, args := targetWhere(target)
	result, err := db.Exec(`DELETE FROM tasks WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks: %w", err)
	}
	return result.RowsAffected()
}
