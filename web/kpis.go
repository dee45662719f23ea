// ABOUTME: HTTP handlers for KPI dashboards and activity logging
// ABOUTME: Parses range query parameters and quick-log bodies
package web

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/models"
	"github.com/harperreed/leadline/services"
)

// GET /api/kpis?days=7 | ?range=week | ?from=2026-10-01&to=2026-10-14
func (s *Server) getKPIs(c *gin.Context) {
	var q services.RangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.respondError(c, apperr.Validationf("invalid query: %v", err))
		return
	}
	res, r, err := s.crm.KPIs(c.Request.Context(), q)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"dials":          res.Dials,
		"connects":       res.Connects,
		"closes":         res.Closes,
		"revenue":        res.Revenue,
		"conversionRate": res.ConversionRate,
		"from":           r.From,
		"to":             r.To,
		"basis":          s.crm.Basis(),
	})
}

// POST /api/kpis/log
func (s *Server) quickLog(c *gin.Context) {
	var req services.QuickLog
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	activity, err := s.crm.QuickLog(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondCreated(c, activity)
}

// GET /api/activities?limit=
func (s *Server) recentActivities(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	acts, err := s.crm.RecentActivities(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, acts)
}

// POST /api/activities
func (s *Server) logActivity(c *gin.Context) {
	var req models.Activity
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	activity, err := s.crm.LogActivity(c.Request.Context(), &req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondCreated(c, activity)
}
