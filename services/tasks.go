// ABOUTME: Task creation, listing, and bulk update or delete
// ABOUTME: Validates bulk targets so a global edit is always explicit
package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/models"
)

func (s *CRM) CreateTask(ctx context.Context, t *models.Task) (*models.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return nil, apperr.Validationf("title is required")
	}
	if t.Status != "" && t.Status != models.TaskOpen && t.Status != models.TaskDone {
		return nil, apperr.Validationf("unknown status %q", t.Status)
	}
	if t.Priority != "" && !validPriority(t.Priority) {
		return nil, apperr.Validationf("unknown priority %q", t.Priority)
	}
	if t.ContactID != nil {
		if _, err := s.GetLead(ctx, *t.ContactID); err != nil {
			return nil, err
		}
	}
	t.ID = uuid.Nil
	if err := db.CreateTask(s.db, t); err != nil {
		return nil, s.storeErr("failed to create task", err)
	}
	return t, nil
}

func (s *CRM) ListTasks(ctx context.Context, filter models.TaskFilter, limit int) ([]models.Task, error) {
	tasks, err := db.FindTasks(s.db, filter, limit)
	if db.IsSchemaMissing(err) {
		return []models.Task{}, nil
	}
	if err != nil {
		return nil, s.storeErr("failed to list tasks", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func validPriority(p string) bool {
	switch p {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return true
	}
	return false
}

func validateTarget(target models.BulkTarget) error {
	if !target.IsGlobal() && len(target.IDs) == 0 {
		return apperr.Validationf("ids are required unless scope is GLOBAL")
	}
	f := target.Filters
	for _, st := range f.Status {
		if st != models.TaskOpen && st != models.TaskDone {
			return apperr.Validationf("unknown status filter %q", st)
		}
	}
	for _, p := range f.Priority {
		if !validPriority(p) {
			return apperr.Validationf("unknown priority filter %q", p)
		}
	}
	for _, st := range f.Stage {
		if !models.IsValidStage(st) {
			return apperr.Validationf("unknown stage filter %q", st)
		}
	}
	return nil
}

// BulkUpdateTasks applies patch to the target and returns how many tasks
// changed.
func (s *CRM) BulkUpdateTasks(ctx context.Context, target models.BulkTarget, patch models.TaskPatch) (int64, error) {
	if err := validateTarget(target); err != nil {
		return 0, err
	}
	if patch.IsEmpty() {
		return 0, apperr.Validationf("patch must set at least one of status, dueAt, priority, label, stage")
	}
	if patch.Status != nil && *patch.Status != models.TaskOpen && *patch.Status != models.TaskDone {
		return 0, apperr.Validationf("unknown status %q", *patch.Status)
	}
	if patch.Priority != nil && !validPriority(*patch.Priority) {
		return 0, apperr.Validationf("unknown priority %q", *patch.Priority)
	}
	if patch.Stage != nil && !models.IsValidStage(*patch.Stage) {
		return 0, apperr.Validationf("unknown stage %q", *patch.Stage)
	}

	n, err := db.BulkUpdateTasks(s.db, target, patch)
	if err != nil {
		return 0, s.storeErr("failed to update tasks", err)
	}
	s.log.Info("bulk task update", "scope", target.Scope, "updated", n)
	return n, nil
}

func (s *CRM) BulkDeleteTasks(ctx context.Context, target models.BulkTarget) (int64, error) {
	if err := validateTarget(target); err != nil {
		return 0, err
	}
	n, err := db.BulkDeleteTasks(s.db, target)
	if err != nil {
		return 0, s.storeErr("failed to delete tasks", err)
	}
	s.log.Info("bulk task delete", "scope", target.Scope, "deleted", n)
	return n, nil
}
