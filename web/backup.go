// ABOUTME: HTTP handlers for snapshot export, import, and backups
// ABOUTME: Streams JSON snapshots through the CRM service
package web

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/exporter"
)

// GET /api/backup/export
func (s *Server) exportStore(c *gin.Context) {
	snap, err := s.crm.ExportStore(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="leadline-backup.json"`)
	respondOK(c, snap)
}

// POST /api/backup/import?replace=true
func (s *Server) importStore(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.respondError(c, apperr.Validationf("failed to read body"))
		return
	}
	snap, err := exporter.DecodeSnapshot(body)
	if err != nil {
		s.respondError(c, apperr.Wrap(apperr.Validation, err.Error(), err))
		return
	}
	replace, _ := strconv.ParseBool(c.Query("replace"))
	stats, err := s.crm.ImportStore(c.Request.Context(), snap, replace)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, stats)
}

// GET /api/backups
func (s *Server) listBackups(c *gin.Context) {
	backups, err := s.crm.ListBackups()
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, backups)
}

// POST /api/backups
func (s *Server) createBackup(c *gin.Context) {
	jsonPath, dbPath, err := s.crm.BackupToDisk(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondCreated(c, gin.H{"snapshot": jsonPath, "database": dbPath})
}
