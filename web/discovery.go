// ABOUTME: HTTP handlers for discovery sessions
// ABOUTME: Lookup, create, save, and Markdown or YAML export
package web

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/discovery"
	"github.com/harperreed/leadline/services"
)

// GET /api/discovery/by-client/:clientId
func (s *Server) lookupDiscovery(c *gin.Context) {
	clientID, err := paramUUID(c, "clientId")
	if err != nil {
		s.respondError(c, err)
		return
	}
	session, err := s.crm.LookupDiscovery(c.Request.Context(), clientID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if session == nil {
		respondOK(c, gin.H{"exists": false, "sessionId": nil, "clientId": clientID})
		return
	}
	respondOK(c, gin.H{
		"exists":     true,
		"id":         session.ID,
		"sessionId":  session.SessionID,
		"clientId":   session.ClientID,
		"clientName": session.ClientName,
		"primaryDob": session.PrimaryDOB,
		"zip":        session.Zip,
		"state":      session.State,
		"county":     session.County,
		"createdAt":  session.CreatedAt,
		"updatedAt":  session.UpdatedAt,
	})
}

type createDiscoveryRequest struct {
	ClientID   *uuid.UUID      `json:"clientId"`
	ClientName string          `json:"clientName"`
	Seed       json.RawMessage `json:"seed"`
}

// POST /api/discovery
func (s *Server) createDiscovery(c *gin.Context) {
	var req createDiscoveryRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	if req.ClientID == nil {
		s.respondError(c, apperr.Validationf("clientId is required"))
		return
	}
	session, err := s.crm.CreateDiscovery(c.Request.Context(), req.ClientID, req.ClientName, req.Seed)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondCreated(c, gin.H{
		"sessionId": session.SessionID,
		"id":        session.ID,
		"clientId":  session.ClientID,
		"createdAt": session.CreatedAt,
	})
}

// GET /api/discovery?limit=
func (s *Server) listDiscovery(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	sessions, err := s.crm.ListDiscovery(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, sessions)
}

// GET /api/discovery/:sessionId
func (s *Server) getDiscovery(c *gin.Context) {
	session, err := s.crm.GetDiscovery(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, session)
}

// POST /api/discovery/save
func (s *Server) saveDiscovery(c *gin.Context) {
	var req services.SaveDiscoveryInput
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	session, err := s.crm.SaveDiscovery(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"sessionId": session.SessionID, "id": session.ID, "updatedAt": session.UpdatedAt})
}

type exportDiscoveryRequest struct {
	SessionID   string              `json:"sessionId"`
	Data        *discovery.Document `json:"data"`
	YAMLPayload string              `json:"yamlPayload"`
}

// POST /api/discovery/export
func (s *Server) exportDiscovery(c *gin.Context) {
	var req exportDiscoveryRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	if req.SessionID == "" && req.Data == nil {
		s.respondError(c, apperr.Validationf("sessionId or data is required"))
		return
	}
	if req.Data != nil {
		req.Data.Normalize()
	}
	files, err := s.crm.ExportDiscovery(c.Request.Context(), req.SessionID, req.Data, req.YAMLPayload)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"dir": files.Dir, "jsonFile": files.JSON, "yamlFile": files.YAML})
}

type rapportRequest struct {
	Text string `json:"text"`
}

// POST /api/discovery/:sessionId/rapport
func (s *Server) addRapport(c *gin.Context) {
	var req rapportRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	session, err := s.crm.AddDiscoveryRapport(c.Request.Context(), c.Param("sessionId"), req.Text)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"sessionId": session.SessionID, "rapport": session.Rapport})
}
