// ABOUTME: Lead MCP tool handlers
// ABOUTME: Implements add_lead and find_leads tools
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/models"
	"github.com/harperreed/leadline/services"
)

type LeadHandlers struct {
	crm *services.CRM
}

func NewLeadHandlers(crm *services.CRM) *LeadHandlers {
	return &LeadHandlers{crm: crm}
}

type AddLeadInput struct {
	FirstName string `json:"first_name,omitempty" jsonschema:"Lead first name"`
	LastName  string `json:"last_name,omitempty" jsonschema:"Lead last name"`
	Email     string `json:"email,omitempty" jsonschema:"Email address"`
	Phone     string `json:"phone,omitempty" jsonschema:"Phone number, any format"`
	Stage     string `json:"stage,omitempty" jsonschema:"Pipeline stage (NEW_LEAD, CONTACTED, QUOTE, FOLLOW_UP, SOLD, LOST)"`
	Source    string `json:"source,omitempty" jsonschema:"Where the lead came from"`
	State     string `json:"state,omitempty" jsonschema:"Two-letter state"`
	Zip       string `json:"zip,omitempty" jsonschema:"ZIP code"`
	Notes     string `json:"notes,omitempty" jsonschema:"Additional notes"`
}

type LeadOutput struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email,omitempty"`
	Phone           string  `json:"phone,omitempty"`
	Stage           string  `json:"stage"`
	Source          string  `json:"source,omitempty"`
	Notes           string  `json:"notes,omitempty"`
	LastContactedAt *string `json:"last_contacted_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

func (h *LeadHandlers) AddLead(ctx context.Context, request *mcp.CallToolRequest, input AddLeadInput) (*mcp.CallToolResult, LeadOutput, error) {
	contact := &models.Contact{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Stage:     strings.ToUpper(input.Stage),
		Source:    input.Source,
		State:     input.State,
		Zip:       input.Zip,
		Notes:     input.Notes,
	}

	created, err := h.crm.AddLead(ctx, contact)
	if err != nil {
		if apperr.KindOf(err) == apperr.Conflict && created != nil {
			return nil, LeadOutput{}, fmt.Errorf("duplicate lead: %s already exists with id %s", created.FullName(), created.ID)
		}
		return nil, LeadOutput{}, toolErr(err)
	}

	return nil, leadToOutput(created), nil
}

type FindLeadsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Search text matched against name, email and phone"`
	Stage string `json:"stage,omitempty" jsonschema:"Only leads in this stage"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type FindLeadsOutput struct {
	Leads []LeadOutput `json:"leads"`
}

func (h *LeadHandlers) FindLeads(ctx context.Context, request *mcp.CallToolRequest, input FindLeadsInput) (*mcp.CallToolResult, FindLeadsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 10
	}

	leads, err := h.crm.FindLeads(ctx, input.Query, strings.ToUpper(input.Stage), limit)
	if err != nil {
		return nil, FindLeadsOutput{}, toolErr(err)
	}

	result := make([]LeadOutput, len(leads))
	for i := range leads {
		result[i] = leadToOutput(&leads[i])
	}

	return nil, FindLeadsOutput{Leads: result}, nil
}

func leadToOutput(c *models.Contact) LeadOutput {
	out := LeadOutput{
		ID:        c.ID.String(),
		Name:      c.FullName(),
		Email:     c.Email,
		Phone:     c.Phone,
		Stage:     c.Stage,
		Source:    c.Source,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
	if c.LastContactedAt != nil {
		s := c.LastContactedAt.Format(time.RFC3339)
		out.LastContactedAt = &s
	}
	return out
}
