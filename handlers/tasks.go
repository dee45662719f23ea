// ABOUTME: Task MCP tool handlers
// ABOUTME: Implements bulk_update_tasks over an id list or a global filter
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/leadline/models"
	"github.com/harperreed/leadline/services"
)

type TaskHandlers struct {
	crm *services.CRM
}

func NewTaskHandlers(crm *services.CRM) *TaskHandlers {
	return &TaskHandlers{crm: crm}
}

type BulkUpdateTasksInput struct {
	Scope        string   `json:"scope,omitempty" jsonschema:"GLOBAL to target every task matching the filters; otherwise ids are used"`
	IDs          []string `json:"ids,omitempty" jsonschema:"Task IDs to update when scope is not GLOBAL"`
	Status       []string `json:"filter_status,omitempty" jsonschema:"Filter: task statuses (OPEN, DONE)"`
	Stage        []string `json:"filter_stage,omitempty" jsonschema:"Filter: stages of the linked lead"`
	Priority     []string `json:"filter_priority,omitempty" jsonschema:"Filter: priorities (LOW, MEDIUM, HIGH)"`
	Query        string   `json:"filter_query,omitempty" jsonschema:"Filter: text in title or label"`
	ShowArchived bool     `json:"filter_show_archived,omitempty" jsonschema:"Filter: include archived tasks"`

	SetStatus   string `json:"set_status,omitempty" jsonschema:"New status (OPEN or DONE)"`
	SetDueAt    string `json:"set_due_at,omitempty" jsonschema:"New due date, RFC3339 or YYYY-MM-DD"`
	SetPriority string `json:"set_priority,omitempty" jsonschema:"New priority"`
	SetLabel    string `json:"set_label,omitempty" jsonschema:"New label"`
	SetStage    string `json:"set_stage,omitempty" jsonschema:"New stage for each task's lead"`
}

type BulkUpdateTasksOutput struct {
	Updated int64 `json:"updated"`
}

func (h *TaskHandlers) BulkUpdateTasks(ctx context.Context, request *mcp.CallToolRequest, input BulkUpdateTasksInput) (*mcp.CallToolResult, BulkUpdateTasksOutput, error) {
	target := models.BulkTarget{
		Scope: strings.ToUpper(input.Scope),
		Filters: models.TaskFilter{
			Status:       upperAll(input.Status),
			Stage:        upperAll(input.Stage),
			Priority:     upperAll(input.Priority),
			Query:        input.Query,
			ShowArchived: input.ShowArchived,
		},
	}
	for _, s := range input.IDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, BulkUpdateTasksOutput{}, fmt.Errorf("invalid task id %q: %w", s, err)
		}
		target.IDs = append(target.IDs, id)
	}

	var patch models.TaskPatch
	if input.SetStatus != "" {
		s := strings.ToUpper(input.SetStatus)
		patch.Status = &s
	}
	if input.SetPriority != "" {
		p := strings.ToUpper(input.SetPriority)
		patch.Priority = &p
	}
	if input.SetLabel != "" {
		patch.Label = &input.SetLabel
	}
	if input.SetStage != "" {
		s := strings.ToUpper(input.SetStage)
		patch.Stage = &s
	}
	if input.SetDueAt != "" {
		due, err := parseDue(input.SetDueAt)
		if err != nil {
			return nil, BulkUpdateTasksOutput{}, err
		}
		patch.DueAt = &due
	}

	n, err := h.crm.BulkUpdateTasks(ctx, target, patch)
	if err != nil {
		return nil, BulkUpdateTasksOutput{}, toolErr(err)
	}

	return nil, BulkUpdateTasksOutput{Updated: n}, nil
}

func parseDue(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid set_due_at: %q", s)
	}
	return t, nil
}

func upperAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToUpper(strings.TrimSpace(v))
	}
	return out
}
