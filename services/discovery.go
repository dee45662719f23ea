// ABOUTME: Discovery session lookup, creation, and saving
// ABOUTME: Renders YAML and keeps sessions linked to their lead
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/discovery"
	"github.com/harperreed/leadline/exporter"
	"github.com/harperreed/leadline/models"
)

// LookupDiscovery returns the client's most recent session, or nil.
func (s *CRM) LookupDiscovery(ctx context.Context, clientID uuid.UUID) (*models.DiscoverySession, error) {
	session, err := s.sessions.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, s.storeErr("failed to look up discovery session", err)
	}
	return session, nil
}

func (s *CRM) GetDiscovery(ctx context.Context, sessionID string) (*models.DiscoverySession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.Validationf("sessionId is required")
	}
	session, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, s.storeErr("failed to load discovery session", err)
	}
	if session == nil {
		return nil, apperr.NotFoundf("discovery session %s not found", sessionID)
	}
	return session, nil
}

func (s *CRM) ListDiscovery(ctx context.Context, limit int) ([]models.DiscoverySession, error) {
	sessions, err := s.sessions.List(ctx, limit)
	if err != nil {
		return nil, s.storeErr("failed to list discovery sessions", err)
	}
	return sessions, nil
}

// CreateDiscovery starts a session. When clientID names a lead and no
// clientName is given, the lead's name is used.
func (s *CRM) CreateDiscovery(ctx context.Context, clientID *uuid.UUID, clientName string, seed json.RawMessage) (*models.DiscoverySession, error) {
	if len(seed) > 0 && !json.Valid(seed) {
		return nil, apperr.Validationf("seed must be a JSON object")
	}
	if clientID != nil {
		lead, err := s.GetLead(ctx, *clientID)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(clientName) == "" {
			clientName = lead.FullName()
		}
	}
	session, err := s.sessions.CreateForClient(ctx, clientID, clientName, seed)
	if err != nil {
		if errors.Is(err, discovery.ErrInvalidSeed) {
			return nil, apperr.Wrap(apperr.Validation, "seed must be a JSON object", err)
		}
		return nil, s.storeErr("failed to create discovery session", err)
	}
	s.log.Info("discovery session created", "session_id", session.SessionID)
	return session, nil
}

// OpenDiscovery resumes the client's latest session or starts one.
func (s *CRM) OpenDiscovery(ctx context.Context, clientID uuid.UUID) (*models.DiscoverySession, bool, error) {
	session, err := s.LookupDiscovery(ctx, clientID)
	if err != nil {
		return nil, false, err
	}
	if session != nil {
		return session, false, nil
	}
	session, err = s.CreateDiscovery(ctx, &clientID, "", nil)
	if err != nil {
		return nil, false, err
	}
	return session, true, nil
}

// SaveDiscoveryInput is the save request. YAML is rendered from Data when
// empty; CallDuration, when set, lands in meta.callDuration.
type SaveDiscoveryInput struct {
	SessionID    string              `json:"sessionId"`
	Data         *discovery.Document `json:"data"`
	YAMLPayload  string              `json:"yamlPayload,omitempty"`
	CallDuration *int64              `json:"callDuration,omitempty"`
}

func (s *CRM) SaveDiscovery(ctx context.Context, in SaveDiscoveryInput) (*models.DiscoverySession, error) {
	if strings.TrimSpace(in.SessionID) == "" {
		return nil, apperr.Validationf("sessionId is required")
	}
	if in.Data == nil {
		return nil, apperr.Validationf("data is required")
	}
	if in.Data.Meta.SessionID != "" && in.Data.Meta.SessionID != in.SessionID {
		return nil, apperr.Validationf("data.meta.sessionId does not match sessionId")
	}
	if in.CallDuration != nil {
		d := *in.CallDuration
		in.Data.Meta.CallDuration = &d
	}
	in.Data.Meta.SessionID = in.SessionID
	if err := s.sessions.CarryForward(ctx, in.SessionID, in.Data); err != nil {
		return nil, s.storeErr("failed to load discovery session", err)
	}
	in.Data.Touch()

	text := in.YAMLPayload
	if strings.TrimSpace(text) == "" {
		rendered, err := discovery.ToText(in.Data)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "failed to render document", err)
		}
		text = rendered
	}

	session, err := s.sessions.Save(ctx, in.SessionID, in.Data, text)
	if err != nil {
		return nil, s.storeErr("failed to save discovery session", err)
	}
	return session, nil
}

// SetDiscoveryField sets one field on a stored session and saves it.
func (s *CRM) SetDiscoveryField(ctx context.Context, sessionID, path string, value any) (*models.DiscoverySession, error) {
	session, err := s.GetDiscovery(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	doc := session.Payload
	if err := doc.Set(path, value); err != nil {
		return nil, apperr.Wrap(apperr.Validation, err.Error(), err)
	}
	return s.SaveDiscovery(ctx, SaveDiscoveryInput{SessionID: sessionID, Data: &doc})
}

// AddDiscoveryRapport appends a rapport note to a stored session.
func (s *CRM) AddDiscoveryRapport(ctx context.Context, sessionID, text string) (*models.DiscoverySession, error) {
	session, err := s.GetDiscovery(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	doc := session.Payload
	if !doc.AppendRapport(text) {
		return nil, apperr.Validationf("rapport text is required")
	}
	return s.SaveDiscovery(ctx, SaveDiscoveryInput{SessionID: sessionID, Data: &doc})
}

// ExportDiscovery writes the JSON and YAML files for a document. With a nil
// doc the stored session is exported.
func (s *CRM) ExportDiscovery(ctx context.Context, sessionID string, doc *discovery.Document, yamlText string) (*exporter.DiscoveryFiles, error) {
	if doc == nil {
		session, err := s.GetDiscovery(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		doc = &session.Payload
		if yamlText == "" {
			yamlText = session.YAMLPayload
		}
	}
	files, err := exporter.WriteDiscovery(s.exportDir, doc, yamlText)
	if err != nil {
		s.log.Error("discovery export failed", "session_id", sessionID, "error", err)
		return nil, apperr.Wrap(apperr.Internal, "failed to export discovery session", err)
	}
	s.log.Info("discovery exported", "session_id", sessionID, "dir", files.Dir)
	return files, nil
}

// Wizard builds a step wizard over a stored session that saves through the
// store.
func (s *CRM) Wizard(ctx context.Context, sessionID string, autosave bool) (*discovery.Wizard, error) {
	session, err := s.GetDiscovery(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	doc := session.Payload
	return discovery.NewWizard(&doc, s.sessions, autosave), nil
}

var _ discovery.Saver = (*db.DiscoveryStore)(nil)
