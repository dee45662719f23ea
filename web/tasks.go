// ABOUTME: HTTP handlers for task listing, creation, and bulk edits
// ABOUTME: Translates query filters and bulk targets for the service
package web

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/models"
)

// GET /api/tasks?status=OPEN&priority=HIGH&stage=QUOTE&contactId=&q=&label=&dueFrom=&dueTo=&showArchived=true
func (s *Server) listTasks(c *gin.Context) {
	filter := models.TaskFilter{
		Status:   queryList(c, "status"),
		Priority: queryList(c, "priority"),
		Stage:    queryList(c, "stage"),
		Query:    c.Query("q"),
		Label:    c.Query("label"),
	}
	var err error
	if filter.ContactID, err = queryUUID(c, "contactId"); err != nil {
		s.respondError(c, err)
		return
	}
	for name, dst := range map[string]**time.Time{"dueFrom": &filter.DueFrom, "dueTo": &filter.DueTo} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.respondError(c, apperr.Validationf("invalid %s, expected RFC 3339", name))
			return
		}
		*dst = &t
	}
	filter.ShowArchived, _ = strconv.ParseBool(c.Query("showArchived"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	tasks, err := s.crm.ListTasks(c.Request.Context(), filter, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, tasks)
}

// POST /api/tasks
func (s *Server) createTask(c *gin.Context) {
	var req models.Task
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	task, err := s.crm.CreateTask(c.Request.Context(), &req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondCreated(c, task)
}

type bulkUpdateRequest struct {
	models.BulkTarget
	Patch models.TaskPatch `json:"patch"`
}

// POST /api/tasks/bulk-update
func (s *Server) bulkUpdateTasks(c *gin.Context) {
	var req bulkUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	n, err := s.crm.BulkUpdateTasks(c.Request.Context(), req.BulkTarget, req.Patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"updated": n})
}

// POST /api/tasks/bulk-delete
func (s *Server) bulkDeleteTasks(c *gin.Context) {
	var req models.BulkTarget
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	n, err := s.crm.BulkDeleteTasks(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": n})
}
