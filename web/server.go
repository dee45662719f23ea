// ABOUTME: HTTP JSON API server built on gin
// ABOUTME: Routes every request through the shared CRM service
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/leadline/logger"
	"github.com/harperreed/leadline/services"
)

type Server struct {
	crm *services.CRM
	log *logger.Logger
}

func NewServer(crm *services.CRM, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{crm: crm, log: log.Component("web")}
}

// Router builds the gin engine with every API route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.log))

	r.GET("/healthcheck", s.health)

	api := r.Group("/api")
	{
		api.GET("/health", s.health)

		// Discovery sessions
		api.GET("/discovery", s.listDiscovery)
		api.POST("/discovery", s.createDiscovery)
		api.GET("/discovery/by-client/:clientId", s.lookupDiscovery)
		api.POST("/discovery/save", s.saveDiscovery)
		api.POST("/discovery/export", s.exportDiscovery)
		api.GET("/discovery/:sessionId", s.getDiscovery)
		api.POST("/discovery/:sessionId/rapport", s.addRapport)

		// KPIs
		api.GET("/kpis", s.getKPIs)
		api.POST("/kpis/log", s.quickLog)
		api.GET("/activities", s.recentActivities)
		api.POST("/activities", s.logActivity)

		// Contacts
		api.GET("/contacts", s.listContacts)
		api.POST("/contacts", s.createContact)
		api.GET("/contacts/duplicates", s.checkDuplicate)
		api.GET("/contacts/:id", s.getContact)
		api.PUT("/contacts/:id", s.updateContact)
		api.DELETE("/contacts/:id", s.deleteContact)

		// Tasks
		api.GET("/tasks", s.listTasks)
		api.POST("/tasks", s.createTask)
		api.POST("/tasks/bulk-update", s.bulkUpdateTasks)
		api.POST("/tasks/bulk-delete", s.bulkDeleteTasks)

		// Backup
		api.GET("/backup/export", s.exportStore)
		api.POST("/backup/import", s.importStore)
		api.GET("/backups", s.listBackups)
		api.POST("/backups", s.createBackup)
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	respondOK(c, gin.H{"status": "ok"})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
