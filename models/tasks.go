// ABOUTME: Task filter, bulk target, and patch types
// ABOUTME: Shared by the db layer and every transport
package models

import (
	"time"

	"github.com/google/uuid"
)

// BulkScopeGlobal targets every task matching a filter; any other scope
// targets an explicit id list.
const BulkScopeGlobal = "GLOBAL"

// TaskFilter holds the recognised bulk filters. Zero values do not filter.
type TaskFilter struct {
	Status       []string   `json:"status,omitempty"`
	Stage        []string   `json:"stage,omitempty"`
	Priority     []string   `json:"priority,omitempty"`
	ContactID    *uuid.UUID `json:"contactId,omitempty"`
	Query        string     `json:"q,omitempty"`
	Label        string     `json:"label,omitempty"`
	DueFrom      *time.Time `json:"dueFrom,omitempty"`
	DueTo        *time.Time `json:"dueTo,omitempty"`
	ShowArchived bool       `json:"showArchived,omitempty"`
}

// BulkTarget selects tasks for a bulk operation.
type BulkTarget struct {
	Scope   string      `json:"scope"`
	Filters TaskFilter  `json:"filters"`
	IDs     []uuid.UUID `json:"ids,omitempty"`
}

func (b BulkTarget) IsGlobal() bool { return b.Scope == BulkScopeGlobal }

// TaskPatch lists the fields a bulk update may change. Nil means unchanged.
// Stage applies to the contact each task is linked to.
type TaskPatch struct {
	Status   *string    `json:"status,omitempty"`
	DueAt    *time.Time `json:"dueAt,omitempty"`
	Priority *string    `json:"priority,omitempty"`
	Label    *string    `json:"label,omitempty"`
	Stage    *string    `json:"stage,omitempty"`
}

func (p TaskPatch) IsEmpty() bool {
	return p.Status == nil && p.DueAt == nil && p.Priority == nil && p.Label == nil && p.Stage == nil
}
