// ABOUTME: Persistent store for discovery sessions
// ABOUTME: The JSON document is the record of truth; lookup columns are re-extracted on every write
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/leadline/discovery"
	"github.com/harperreed/leadline/models"
)

// createAttempts bounds session id regeneration after a collision.
const createAttempts = 3

const sessionColumns = `id, session_id, client_id, client_name, primary_dob, zip, state, county, json_payload, yaml_payload, rapport, created_at, updated_at`

// DiscoveryStore reads and writes discovery sessions. It satisfies
// discovery.Saver.
type DiscoveryStore struct {
	db    *sql.DB
	agent string
	newID func() string
}

func NewDiscoveryStore(db *sql.DB, agent string) *DiscoveryStore {
	return &DiscoveryStore{db: db, agent: agent, newID: discovery.NewSessionID}
}

func scanSession(row scanner) (*models.DiscoverySession, error) {
	s := &models.DiscoverySession{}
	var clientID uuid.NullUUID
	var payload, rapport string
	if err := row.Scan(&s.ID, &s.SessionID, &clientID, &s.ClientName, &s.PrimaryDOB, &s.Zip, &s.State, &s.County,
		&payload, &s.YAMLPayload, &rapport, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.ClientID = uuidPtr(clientID)
	if err := json.Unmarshal([]byte(payload), &s.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", s.SessionID, err)
	}
	s.Payload.Normalize()
	if err := json.Unmarshal([]byte(rapport), &s.Rapport); err != nil {
		s.Rapport = s.Payload.Rapport
	}
	if s.Rapport == nil {
		s.Rapport = []discovery.RapportNote{}
	}
	return s, nil
}

// GetByClientID returns the most recently updated session for the client, or
// nil when there is none or the table does not exist yet.
func (s *DiscoveryStore) GetByClientID(ctx context.Context, clientID uuid.UUID) (*models.DiscoverySession, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM discovery_sessions
		WHERE client_id = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, clientID.String()))
	if err == sql.ErrNoRows || IsSchemaMissing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *DiscoveryStore) GetBySessionID(ctx context.Context, sessionID string) (*models.DiscoverySession, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM discovery_sessions WHERE session_id = ?`, sessionID))
	if err == sql.ErrNoRows || IsSchemaMissing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// List returns sessions, most recently updated first.
func (s *DiscoveryStore) List(ctx context.Context, limit int) ([]models.DiscoverySession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM discovery_sessions ORDER BY updated_at DESC LIMIT ?`, limit)
	if IsSchemaMissing(err) {
		return []models.DiscoverySession{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	sessions := []models.DiscoverySession{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// CreateForClient starts a new session for a client with a default document.
// clientName, when given, fills the client's first and last name.
func (s *DiscoveryStore) CreateForClient(ctx context.Context, clientID *uuid.UUID, clientName string, seed json.RawMessage) (*models.DiscoverySession, error) {
	var clientRef string
	if clientID != nil {
		clientRef = clientID.String()
	}

	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		sessionID := s.newID()
		doc, err := discovery.CreateDefault(sessionID, clientRef, seed)
		if err != nil {
			return nil, err
		}
		if doc.Meta.Agent == "" {
			doc.Meta.Agent = s.agent
		}
		if clientName != "" {
			doc.ApplyClientName(clientName)
		}

		session := sessionFromDocument(sessionID, clientID, doc, "")
		session.ID = uuid.New()
		session.CreatedAt = doc.Meta.CreatedAt
		session.UpdatedAt = doc.Meta.UpdatedAt

		err = s.insert(ctx, session)
		if err == nil {
			return session, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create discovery session: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed to allocate a unique session id after %d attempts: %w", createAttempts, lastErr)
}

func (s *DiscoveryStore) insert(ctx context.Context, session *models.DiscoverySession) error {
	payload, rapport, err := encodeSession(session)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO discovery_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, session.ID.String(), session.SessionID, nullUUID(session.ClientID), session.ClientName, session.PrimaryDOB,
		session.Zip, session.State, session.County, payload, session.YAMLPayload, rapport,
		session.CreatedAt.UTC(), session.UpdatedAt.UTC())
	return err
}

// CarryForward fills the session identity doc leaves blank (meta.clientId,
// meta.createdAt) from the stored session, so a partial document never
// detaches a session from its client.
func (s *DiscoveryStore) CarryForward(ctx context.Context, sessionID string, doc *discovery.Document) error {
	if doc.Meta.ClientID != "" && !doc.Meta.CreatedAt.IsZero() {
		return nil
	}
	existing, err := s.GetBySessionID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load discovery session: %w", err)
	}
	if existing == nil {
		return nil
	}
	if doc.Meta.ClientID == "" {
		switch {
		case existing.Payload.Meta.ClientID != "":
			doc.Meta.ClientID = existing.Payload.Meta.ClientID
		case existing.ClientID != nil:
			doc.Meta.ClientID = existing.ClientID.String()
		}
	}
	if doc.Meta.CreatedAt.IsZero() {
		doc.Meta.CreatedAt = existing.Payload.Meta.CreatedAt
		if doc.Meta.CreatedAt.IsZero() {
			doc.Meta.CreatedAt = existing.CreatedAt.UTC()
		}
	}
	return nil
}

// Save writes doc under sessionID, creating the session when it does not
// exist. Client name, dob, zip, state, county and rapport are re-extracted
// from doc; the client link and creation time survive a doc that omits them.
func (s *DiscoveryStore) Save(ctx context.Context, sessionID string, doc *discovery.Document, yamlText string) (*models.DiscoverySession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if err := s.CarryForward(ctx, sessionID, doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	doc.Meta.SessionID = sessionID
	if doc.Meta.Agent == "" {
		doc.Meta.Agent = s.agent
	}

	var clientID *uuid.UUID
	if doc.Meta.ClientID != "" {
		if id, err := uuid.Parse(doc.Meta.ClientID); err == nil {
			clientID = &id
		}
	}

	session := sessionFromDocument(sessionID, clientID, doc, yamlText)
	now := time.Now().UTC()
	session.ID = uuid.New()
	session.CreatedAt = now
	session.UpdatedAt = now

	payload, rapport, err := encodeSession(session)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO discovery_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			client_id = COALESCE(excluded.client_id, discovery_sessions.client_id),
			client_name = excluded.client_name,
			primary_dob = excluded.primary_dob,
			zip = excluded.zip,
			state = excluded.state,
			county = excluded.county,
			json_payload = excluded.json_payload,
			yaml_payload = excluded.yaml_payload,
			rapport = excluded.rapport,
			updated_at = excluded.updated_at
	`, session.ID.String(), sessionID, nullUUID(clientID), session.ClientName, session.PrimaryDOB,
		session.Zip, session.State, session.County, payload, yamlText, rapport, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to save discovery session: %w", err)
	}

	return s.GetBySessionID(ctx, sessionID)
}

// SaveDocument lets the wizard persist through the store.
func (s *DiscoveryStore) SaveDocument(ctx context.Context, doc *discovery.Document, yamlText string) error {
	_, err := s.Save(ctx, doc.Meta.SessionID, doc, yamlText)
	return err
}

func sessionFromDocument(sessionID string, clientID *uuid.UUID, doc *discovery.Document, yamlText string) *models.DiscoverySession {
	return &models.DiscoverySession{
		SessionID:   sessionID,
		ClientID:    clientID,
		ClientName:  doc.FullName(),
		PrimaryDOB:  doc.Client.DOB,
		Zip:         doc.Client.Zip,
		State:       doc.Client.State,
		County:      doc.Client.County,
		Payload:     *doc,
		YAMLPayload: yamlText,
		Rapport:     doc.Rapport,
	}
}

func encodeSession(session *models.DiscoverySession) (string, string, error) {
	payload, err := json.Marshal(session.Payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode document: %w", err)
	}
	rapport := session.Rapport
	if rapport == nil {
		rapport = []discovery.RapportNote{}
	}
	notes, err := json.Marshal(rapport)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode rapport: %w", err)
	}
	return string(payload), string(notes), nil
}
