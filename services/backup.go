// ABOUTME: Snapshot export, import, and on-disk backup operations
// ABOUTME: Wraps the db snapshot layer and the exporter backup directory
package services

import (
	"context"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/exporter"
)

func (s *CRM) ExportStore(ctx context.Context) (*db.Snapshot, error) {
	snap, err := db.ExportStore(ctx, s.db)
	if err != nil {
		return nil, s.storeErr("failed to export store", err)
	}
	return snap, nil
}

func (s *CRM) ImportStore(ctx context.Context, snap *db.Snapshot, replace bool) (*db.ImportStats, error) {
	if snap == nil {
		return nil, apperr.Validationf("snapshot is required")
	}
	stats, err := db.ImportStore(ctx, s.db, snap, replace)
	if err != nil {
		return nil, s.storeErr("failed to import store", err)
	}
	s.log.Info("store imported", "replace", replace, "contacts", stats.Contacts, "sessions", stats.Discovery)
	return stats, nil
}

// BackupToDisk writes a JSON snapshot and a database copy into the backup
// directory and returns both paths.
func (s *CRM) BackupToDisk(ctx context.Context) (string, string, error) {
	snap, err := s.ExportStore(ctx)
	if err != nil {
		return "", "", err
	}
	jsonPath, err := exporter.WriteSnapshot(s.backupDir, snap)
	if err != nil {
		return "", "", apperr.Wrap(apperr.Internal, "failed to write snapshot", err)
	}
	dbPath, err := exporter.BackupDatabase(s.db, s.backupDir)
	if err != nil {
		return "", "", apperr.Wrap(apperr.Internal, "failed to copy database", err)
	}
	s.log.Info("backup written", "snapshot", jsonPath, "database", dbPath)
	return jsonPath, dbPath, nil
}

// RestoreFromFile imports a snapshot file.
func (s *CRM) RestoreFromFile(ctx context.Context, path string, replace bool) (*db.ImportStats, error) {
	snap, err := exporter.ReadSnapshot(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, err.Error(), err)
	}
	return s.ImportStore(ctx, snap, replace)
}

func (s *CRM) ListBackups() ([]exporter.Backup, error) {
	backups, err := exporter.ListBackups(s.backupDir)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to list backups", err)
	}
	return backups, nil
}
