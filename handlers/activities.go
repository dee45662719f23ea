// ABOUTME: Activity and KPI MCP tool handlers
// ABOUTME: Implements log_activity and get_kpis tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/leadline/models"
	"github.com/harperreed/leadline/services"
)

type ActivityHandlers struct {
	crm *services.CRM
}

func NewActivityHandlers(crm *services.CRM) *ActivityHandlers {
	return &ActivityHandlers{crm: crm}
}

type LogActivityInput struct {
	Type      string   `json:"type" jsonschema:"Activity type: DIAL, CONNECT, CLOSE, REVENUE, CALL, TASK, NOTE, EMAIL or MEETING (required)"`
	Outcome   string   `json:"outcome,omitempty" jsonschema:"Call outcome: DIAL, CONNECT or CLOSE"`
	Count     int      `json:"count,omitempty" jsonschema:"How many to record (default 1)"`
	Revenue   *float64 `json:"revenue,omitempty" jsonschema:"Revenue in dollars for CLOSE or REVENUE"`
	ContactID string   `json:"contact_id,omitempty" jsonschema:"Lead ID this activity belongs to"`
	Notes     string   `json:"notes,omitempty" jsonschema:"Free-form notes"`
	Date      string   `json:"date,omitempty" jsonschema:"When it happened, RFC3339 (default now)"`
}

type ActivityOutput struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Outcome   string   `json:"outcome,omitempty"`
	Count     int      `json:"count"`
	Revenue   *float64 `json:"revenue,omitempty"`
	ContactID *string  `json:"contact_id,omitempty"`
	Date      string   `json:"date"`
}

func (h *ActivityHandlers) LogActivity(ctx context.Context, request *mcp.CallToolRequest, input LogActivityInput) (*mcp.CallToolResult, ActivityOutput, error) {
	if input.Type == "" {
		return nil, ActivityOutput{}, fmt.Errorf("type is required")
	}

	contactID, err := parseOptionalUUID("contact_id", input.ContactID)
	if err != nil {
		return nil, ActivityOutput{}, err
	}

	activity := &models.Activity{
		Type:      input.Type,
		Outcome:   input.Outcome,
		Count:     input.Count,
		Revenue:   input.Revenue,
		ContactID: contactID,
		Notes:     input.Notes,
	}
	if input.Date != "" {
		activity.Date, err = time.Parse(time.RFC3339, input.Date)
		if err != nil {
			return nil, ActivityOutput{}, fmt.Errorf("invalid date: %w", err)
		}
	}

	logged, err := h.crm.LogActivity(ctx, activity)
	if err != nil {
		return nil, ActivityOutput{}, toolErr(err)
	}

	out := ActivityOutput{
		ID:      logged.ID.String(),
		Type:    logged.Type,
		Outcome: logged.Outcome,
		Count:   logged.Count,
		Revenue: logged.Revenue,
		Date:    logged.Date.Format(time.RFC3339),
	}
	if logged.ContactID != nil {
		s := logged.ContactID.String()
		out.ContactID = &s
	}
	return nil, out, nil
}

type GetKPIsInput struct {
	Days  int    `json:"days,omitempty" jsonschema:"Last N calendar days including today"`
	Range string `json:"range,omitempty" jsonschema:"Preset: today, week, 7d or 30d"`
	From  string `json:"from,omitempty" jsonschema:"Start date YYYY-MM-DD (with to)"`
	To    string `json:"to,omitempty" jsonschema:"End date YYYY-MM-DD (with from)"`
}

type KPIOutput struct {
	From           string  `json:"from"`
	To             string  `json:"to"`
	Basis          string  `json:"basis"`
	Dials          int     `json:"dials"`
	Connects       int     `json:"connects"`
	Closes         int     `json:"closes"`
	Revenue        float64 `json:"revenue"`
	ConversionRate string  `json:"conversion_rate"`
}

func (h *ActivityHandlers) GetKPIs(ctx context.Context, request *mcp.CallToolRequest, input GetKPIsInput) (*mcp.CallToolResult, KPIOutput, error) {
	result, r, err := h.crm.KPIs(ctx, services.RangeQuery{
		Days:   input.Days,
		Preset: input.Range,
		From:   input.From,
		To:     input.To,
	})
	if err != nil {
		return nil, KPIOutput{}, toolErr(err)
	}

	return nil, KPIOutput{
		From:           r.From.Format(time.RFC3339),
		To:             r.To.Format(time.RFC3339),
		Basis:          string(h.crm.Basis()),
		Dials:          result.Dials,
		Connects:       result.Connects,
		Closes:         result.Closes,
		Revenue:        result.Revenue,
		ConversionRate: result.ConversionRate,
	}, nil
}
