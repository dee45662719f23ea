// ABOUTME: Application service shared by the HTTP API, MCP tools and CLI
// ABOUTME: Validates input, calls the store, and maps failures to apperr kinds
package services

import (
	"database/sql"
	"sync"
	"time"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/kpi"
	"github.com/harperreed/leadline/logger"
)

type Options struct {
	Agent     string
	Basis     kpi.Basis
	ExportDir string
	BackupDir string
}

// CRM is the single entry point for every transport. It is only built when a
// database is available.
type CRM struct {
	db        *sql.DB
	sessions  *db.DiscoveryStore
	mu        sync.RWMutex
	basis     kpi.Basis
	exportDir string
	backupDir string
	log       *logger.Logger
	now       func() time.Time
}

func NewCRM(database *sql.DB, log *logger.Logger, opts Options) *CRM {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Basis == "" {
		opts.Basis = kpi.ByType
	}
	return &CRM{
		db:        database,
		sessions:  db.NewDiscoveryStore(database, opts.Agent),
		basis:     opts.Basis,
		exportDir: opts.ExportDir,
		backupDir: opts.BackupDir,
		log:       log.Component("crm"),
		now:       time.Now,
	}
}

// DB exposes the underlying handle for read-only helpers such as viz.
func (s *CRM) DB() *sql.DB { return s.db }

// Sessions is the discovery store, which doubles as the wizard's saver.
func (s *CRM) Sessions() *db.DiscoveryStore { return s.sessions }

func (s *CRM) Basis() kpi.Basis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.basis
}

// storeErr classifies a store failure and logs the detail, which never
// reaches the caller.
func (s *CRM) storeErr(op string, err error) error {
	if db.IsSchemaMissing(err) {
		s.log.Warn("schema missing", "op", op, "error", err)
		return apperr.Wrap(apperr.SchemaMissing, "database schema is not provisioned", err)
	}
	s.log.Error("store failure", "op", op, "error", err)
	return apperr.Wrap(apperr.Internal, op, err)
}
