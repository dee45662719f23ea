// ABOUTME: MCP tool registration and shared handler helpers
// ABOUTME: Every tool calls the CRM service and reports caller-safe errors
package handlers

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/services"
)

// Register adds every leadline tool to server.
func Register(server *mcp.Server, crm *services.CRM) {
	leads := NewLeadHandlers(crm)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_lead",
		Description: "Add a new lead. Fails with the existing lead when the email or phone is already on file",
	}, leads.AddLead)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_leads",
		Description: "Search leads by name, email or phone, optionally filtered by stage",
	}, leads.FindLeads)

	activities := NewActivityHandlers(crm)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_activity",
		Description: "Log a dial, connect, close, revenue or other activity, optionally against a lead",
	}, activities.LogActivity)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_kpis",
		Description: "Get dials, connects, closes, revenue and conversion rate for a date range",
	}, activities.GetKPIs)

	tasks := NewTaskHandlers(crm)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "bulk_update_tasks",
		Description: "Update status, due date, priority, label or lead stage for many tasks at once",
	}, tasks.BulkUpdateTasks)

	sessions := NewDiscoveryHandlers(crm)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "discovery_lookup",
		Description: "Find the most recent discovery session for a lead",
	}, sessions.Lookup)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "discovery_create",
		Description: "Start a new discovery session for a lead",
	}, sessions.Create)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "discovery_set_field",
		Description: "Set one field of a discovery session by dotted path (e.g. client.zip, doctors.0.mustKeep)",
	}, sessions.SetField)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "discovery_add_rapport",
		Description: "Append a timestamped rapport note to a discovery session",
	}, sessions.AddRapport)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "discovery_export",
		Description: "Write a discovery session to JSON and YAML files",
	}, sessions.Export)

	viz := NewVizHandlers(crm)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz DOT graph of the pipeline or of one lead",
	}, viz.GenerateGraph)
}

// toolErr hides internal detail; only the public message reaches the agent.
func toolErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(apperr.Public(err))
}

func parseOptionalUUID(field, s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return &id, nil
}
