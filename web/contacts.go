// ABOUTME: HTTP handlers for lead CRUD and duplicate checks
// ABOUTME: Maps request bodies onto models.Contact
package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/models"
)

// GET /api/contacts?q=&stage=&limit=
func (s *Server) listContacts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	leads, err := s.crm.FindLeads(c.Request.Context(), c.Query("q"), c.Query("stage"), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, leads)
}

// POST /api/contacts
func (s *Server) createContact(c *gin.Context) {
	var req models.Contact
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	lead, err := s.crm.AddLead(c.Request.Context(), &req)
	if err != nil {
		if apperr.KindOf(err) == apperr.Conflict && lead != nil {
			c.JSON(http.StatusConflict, gin.H{
				"error":    APIError{Message: apperr.Public(err), Code: apperr.Conflict.String()},
				"existing": lead,
			})
			return
		}
		s.respondError(c, err)
		return
	}
	respondCreated(c, lead)
}

// GET /api/contacts/duplicates?email=&phone=&excludeId=
func (s *Server) checkDuplicate(c *gin.Context) {
	excludeID, err := queryUUID(c, "excludeId")
	if err != nil {
		s.respondError(c, err)
		return
	}
	match, err := s.crm.CheckDuplicate(c.Request.Context(), c.Query("email"), c.Query("phone"), excludeID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"duplicate": match != nil, "match": match})
}

// GET /api/contacts/:id
func (s *Server) getContact(c *gin.Context) {
	id, err := paramUUID(c, "id")
	if err != nil {
		s.respondError(c, err)
		return
	}
	lead, err := s.crm.GetLead(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, lead)
}

// PUT /api/contacts/:id
func (s *Server) updateContact(c *gin.Context) {
	id, err := paramUUID(c, "id")
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req models.Contact
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	lead, err := s.crm.UpdateLead(c.Request.Context(), id, &req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, lead)
}

// DELETE /api/contacts/:id
func (s *Server) deleteContact(c *gin.Context) {
	id, err := paramUUID(c, "id")
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.crm.DeleteLead(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
