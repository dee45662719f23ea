// ABOUTME: Discovery session MCP tool handlers
// ABOUTME: Lookup, create, field edits, rapport notes and file export for agents
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/leadline/models"
	"github.com/harperreed/leadline/services"
)

type DiscoveryHandlers struct {
	crm *services.CRM
}

func NewDiscoveryHandlers(crm *services.CRM) *DiscoveryHandlers {
	return &DiscoveryHandlers{crm: crm}
}

type SessionOutput struct {
	ID           string  `json:"id"`
	SessionID    string  `json:"session_id"`
	ClientID     *string `json:"client_id,omitempty"`
	ClientName   string  `json:"client_name"`
	State        string  `json:"state,omitempty"`
	Zip          string  `json:"zip,omitempty"`
	RapportNotes int     `json:"rapport_notes"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func sessionToOutput(s *models.DiscoverySession) SessionOutput {
	out := SessionOutput{
		ID:           s.ID.String(),
		SessionID:    s.SessionID,
		ClientName:   s.ClientName,
		State:        s.State,
		Zip:          s.Zip,
		RapportNotes: len(s.Rapport),
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt.Format(time.RFC3339),
	}
	if s.ClientID != nil {
		id := s.ClientID.String()
		out.ClientID = &id
	}
	return out
}

type LookupInput struct {
	ClientID string `json:"client_id" jsonschema:"Lead ID (required)"`
}

type LookupOutput struct {
	Exists  bool           `json:"exists"`
	Session *SessionOutput `json:"session,omitempty"`
}

func (h *DiscoveryHandlers) Lookup(ctx context.Context, request *mcp.CallToolRequest, input LookupInput) (*mcp.CallToolResult, LookupOutput, error) {
	if input.ClientID == "" {
		return nil, LookupOutput{}, fmt.Errorf("client_id is required")
	}
	clientID, err := uuid.Parse(input.ClientID)
	if err != nil {
		return nil, LookupOutput{}, fmt.Errorf("invalid client_id: %w", err)
	}

	session, err := h.crm.LookupDiscovery(ctx, clientID)
	if err != nil {
		return nil, LookupOutput{}, toolErr(err)
	}
	if session == nil {
		return nil, LookupOutput{Exists: false}, nil
	}

	out := sessionToOutput(session)
	return nil, LookupOutput{Exists: true, Session: &out}, nil
}

type CreateInput struct {
	ClientID   string         `json:"client_id,omitempty" jsonschema:"Lead ID the session belongs to"`
	ClientName string         `json:"client_name,omitempty" jsonschema:"Display name (defaults to the lead's name)"`
	Seed       map[string]any `json:"seed,omitempty" jsonschema:"Initial sections, e.g. {\"client\": {\"zip\": \"78701\"}}; each section replaces the default"`
}

func (h *DiscoveryHandlers) Create(ctx context.Context, request *mcp.CallToolRequest, input CreateInput) (*mcp.CallToolResult, SessionOutput, error) {
	clientID, err := parseOptionalUUID("client_id", input.ClientID)
	if err != nil {
		return nil, SessionOutput{}, err
	}

	var seed json.RawMessage
	if len(input.Seed) > 0 {
		seed, err = json.Marshal(input.Seed)
		if err != nil {
			return nil, SessionOutput{}, fmt.Errorf("invalid seed: %w", err)
		}
	}

	session, err := h.crm.CreateDiscovery(ctx, clientID, input.ClientName, seed)
	if err != nil {
		return nil, SessionOutput{}, toolErr(err)
	}

	return nil, sessionToOutput(session), nil
}

type SetFieldInput struct {
	SessionID string `json:"session_id" jsonschema:"Discovery session ID (required)"`
	Path      string `json:"path" jsonschema:"Dotted field path such as client.firstName or coverage.current.premium (required)"`
	Value     any    `json:"value" jsonschema:"New value; must fit the field's type"`
}

func (h *DiscoveryHandlers) SetField(ctx context.Context, request *mcp.CallToolRequest, input SetFieldInput) (*mcp.CallToolResult, SessionOutput, error) {
	if input.SessionID == "" || input.Path == "" {
		return nil, SessionOutput{}, fmt.Errorf("session_id and path are required")
	}

	session, err := h.crm.SetDiscoveryField(ctx, input.SessionID, input.Path, input.Value)
	if err != nil {
		return nil, SessionOutput{}, toolErr(err)
	}

	return nil, sessionToOutput(session), nil
}

type AddRapportInput struct {
	SessionID string `json:"session_id" jsonschema:"Discovery session ID (required)"`
	Text      string `json:"text" jsonschema:"Note text (required)"`
}

func (h *DiscoveryHandlers) AddRapport(ctx context.Context, request *mcp.CallToolRequest, input AddRapportInput) (*mcp.CallToolResult, SessionOutput, error) {
	if input.SessionID == "" {
		return nil, SessionOutput{}, fmt.Errorf("session_id is required")
	}

	session, err := h.crm.AddDiscoveryRapport(ctx, input.SessionID, input.Text)
	if err != nil {
		return nil, SessionOutput{}, toolErr(err)
	}

	return nil, sessionToOutput(session), nil
}

type ExportInput struct {
	SessionID string `json:"session_id" jsonschema:"Discovery session ID (required)"`
}

type ExportOutput struct {
	Dir      string `json:"dir"`
	JSONFile string `json:"json_file"`
	YAMLFile string `json:"yaml_file"`
}

func (h *DiscoveryHandlers) Export(ctx context.Context, request *mcp.CallToolRequest, input ExportInput) (*mcp.CallToolResult, ExportOutput, error) {
	if input.SessionID == "" {
		return nil, ExportOutput{}, fmt.Errorf("session_id is required")
	}

	files, err := h.crm.ExportDiscovery(ctx, input.SessionID, nil, "")
	if err != nil {
		return nil, ExportOutput{}, toolErr(err)
	}

	return nil, ExportOutput{Dir: files.Dir, JSONFile: files.JSON, YAMLFile: files.YAML}, nil
}
