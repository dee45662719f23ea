// ABOUTME: Full-store JSON snapshot export and import
// ABOUTME: Import upserts by id and can optionally replace the store first
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/leadline/models"
)

// SnapshotVersion is written into every exported snapshot.
const SnapshotVersion = 1

// Snapshot is the full-store backup document. Leads holds every contact;
// Contacts is accepted on import from older backups and merged with Leads.
type Snapshot struct {
	Version    int                       `json:"version"`
	ExportedAt time.Time                 `json:"exportedAt"`
	Leads      []models.Contact          `json:"leads"`
	Activities []models.Activity         `json:"activities"`
	Tasks      []models.Task             `json:"tasks"`
	Settings   []models.Setting          `json:"settings"`
	Contacts   []models.Contact          `json:"contacts"`
	Discovery  []models.DiscoverySession `json:"discovery"`
}

// ImportStats counts rows written by ImportStore.
type ImportStats struct {
	Contacts   int `json:"contacts"`
	Activities int `json:"activities"`
	Tasks      int `json:"tasks"`
	Settings   int `json:"settings"`
	Discovery  int `json:"discovery"`
}

func ExportStore(ctx context.Context, db *sql.DB) (*Snapshot, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	snap := &Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: time.Now().UTC(),
		Contacts:   []models.Contact{},
	}

	if snap.Leads, err = allContacts(tx); err != nil {
		return nil, fmt.Errorf("failed to export contacts: %w", err)
	}
	if snap.Activities, err = queryActivities(tx, `SELECT `+activityColumns+` FROM activities ORDER BY date`); err != nil {
		return nil, fmt.Errorf("failed to export activities: %w", err)
	}
	if snap.Tasks, err = queryTasks(tx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("failed to export tasks: %w", err)
	}
	if snap.Settings, err = allSettings(tx); err != nil {
		return nil, fmt.Errorf("failed to export settings: %w", err)
	}
	if snap.Discovery, err = allSessions(tx); err != nil {
		return nil, fmt.Errorf("failed to export discovery sessions: %w", err)
	}

	if snap.Leads == nil {
		snap.Leads = []models.Contact{}
	}
	if snap.Activities == nil {
		snap.Activities = []models.Activity{}
	}
	if snap.Tasks == nil {
		snap.Tasks = []models.Task{}
	}
	if snap.Settings == nil {
		snap.Settings = []models.Setting{}
	}
	return snap, nil
}

func allSessions(q querier) ([]models.DiscoverySession, error) {
	rows, err := q.Query(`SELECT ` + sessionColumns + ` FROM discovery_sessions ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	sessions := []models.DiscoverySession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// ImportStore writes snap in one transaction. With replace set, existing rows
// are deleted first; otherwise rows are upserted by id.
func ImportStore(ctx context.Context, db *sql.DB, snap *Snapshot, replace bool) (*ImportStats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	if replace {
		for _, table := range []string{"tasks", "activities", "discovery_sessions", "contacts", "settings"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return nil, fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
	}

	stats := &ImportStats{}
	seen := make(map[uuid.UUID]bool)
	for _, list := range [][]models.Contact{snap.Leads, snap.Contacts} {
		for _, c := range list {
			if c.ID == uuid.Nil {
				c.ID = uuid.New()
			}
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			if err := importContact(ctx, tx, c); err != nil {
				return nil, fmt.Errorf("failed to import contact %s: %w", c.ID, err)
			}
			stats.Contacts++
		}
	}

	for _, a := range snap.Activities {
		count := a.Count
		if count == 0 {
			count = 1
		}
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO activities (`+activityColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID.String(), nullUUID(a.ContactID), a.Type, nullIfEmpty(a.Outcome), count, a.Revenue,
			nullIfEmpty(a.Notes), a.Date.UTC(), a.CreatedAt.UTC())
		if err != nil {
			return nil, fmt.Errorf("failed to import activity %s: %w", a.ID, err)
		}
		stats.Activities++
	}

	for _, t := range snap.Tasks {
		status, priority := t.Status, t.Priority
		if status == "" {
			status = models.TaskOpen
		}
		if priority == "" {
			priority = models.PriorityMedium
		}
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID.String(), nullUUID(t.ContactID), t.Title, nullIfEmpty(t.Label), status, priority,
			utc(t.DueAt), utc(t.CompletedAt), utc(t.ArchivedAt), t.CreatedAt.UTC(), t.UpdatedAt.UTC())
		if err != nil {
			return nil, fmt.Errorf("failed to import task %s: %w", t.ID, err)
		}
		stats.Tasks++
	}

	for _, s := range snap.Settings {
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value, updated_at) VALUES (?, ?, ?)`,
			s.Key, s.Value, s.UpdatedAt.UTC())
		if err != nil {
			return nil, fmt.Errorf("failed to import setting %s: %w", s.Key, err)
		}
		stats.Settings++
	}

	for i := range snap.Discovery {
		session := &snap.Discovery[i]
		if session.ID == uuid.Nil {
			session.ID = uuid.New()
		}
		payload, rapport, err := encodeSession(session)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO discovery_sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			session.ID.String(), session.SessionID, nullUUID(session.ClientID), session.ClientName, session.PrimaryDOB,
			session.Zip, session.State, session.County, payload, session.YAMLPayload, rapport,
			session.CreatedAt.UTC(), session.UpdatedAt.UTC())
		if err != nil {
			return nil, fmt.Errorf("failed to import discovery session %s: %w", session.SessionID, err)
		}
		stats.Discovery++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}
	return stats, nil
}

func importContact(ctx context.Context, tx *sql.Tx, c models.Contact) error {
	stage := c.Stage
	if stage == "" {
		stage = models.StageNewLead
	}
	created, updated := c.CreatedAt.UTC(), c.UpdatedAt.UTC()
	if c.CreatedAt.IsZero() {
		created = time.Now().UTC()
	}
	if c.UpdatedAt.IsZero() {
		updated = created
	}
	_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO contacts (`+contactColumns+`, phone_digits) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.FirstName, c.LastName, nullIfEmpty(c.Email), nullIfEmpty(c.Phone), stage,
		nullIfEmpty(c.Source), nullIfEmpty(c.Notes), nullIfEmpty(c.DOB), nullIfEmpty(c.Zip), nullIfEmpty(c.State),
		utc(c.LastContactedAt), created, updated, phoneDigits(c.Phone))
	return err
}
