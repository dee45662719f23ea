// ABOUTME: Tests for the MCP tool handlers
// ABOUTME: Calls handlers directly against a temp-file CRM
package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/logger"
	"github.com/harperreed/leadline/models"
	"github.com/harperreed/leadline/services"
)

func setupTestCRM(t *testing.T) *services.CRM {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.OpenDatabase(filepath.Join(dir, "leadline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return services.NewCRM(conn, logger.Nop(), services.Options{
		Agent:     "Dana",
		ExportDir: filepath.Join(dir, "exports"),
		BackupDir: filepath.Join(dir, "backups"),
	})
}

func TestAddLeadHandler(t *testing.T) {
	crm := setupTestCRM(t)
	h := NewLeadHandlers(crm)
	ctx := context.Background()

	_, out, err := h.AddLead(ctx, nil, AddLeadInput{FirstName: "Ana", LastName: "Lopez", Phone: "555-123-4567", Stage: "quote"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lopez", out.Name)
	assert.Equal(t, "QUOTE", out.Stage)
	assert.NotEmpty(t, out.ID)

	_, _, err = h.AddLead(ctx, nil, AddLeadInput{FirstName: "Ana L", Phone: "(555) 123 4567"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate lead")
	assert.Contains(t, err.Error(), out.ID)

	_, _, err = h.AddLead(ctx, nil, AddLeadInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name, email or phone")
}

func TestFindLeadsHandler(t *testing.T) {
	crm := setupTestCRM(t)
	h := NewLeadHandlers(crm)
	ctx := context.Background()

	_, _, err := h.AddLead(ctx, nil, AddLeadInput{FirstName: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	_, _, err = h.AddLead(ctx, nil, AddLeadInput{FirstName: "Ben", Email: "ben@example.com", Stage: "SOLD"})
	require.NoError(t, err)

	_, out, err := h.FindLeads(ctx, nil, FindLeadsInput{Query: "ana"})
	require.NoError(t, err)
	require.Len(t, out.Leads, 1)
	assert.Equal(t, "Ana", out.Leads[0].Name)

	_, out, err = h.FindLeads(ctx, nil, FindLeadsInput{Stage: "sold"})
	require.NoError(t, err)
	require.Len(t, out.Leads, 1)
	assert.Equal(t, "Ben", out.Leads[0].Name)

	_, _, err = h.FindLeads(ctx, nil, FindLeadsInput{Stage: "WON"})
	assert.Error(t, err)
}

func TestLogActivityAndKPIs(t *testing.T) {
	crm := setupTestCRM(t)
	h := NewActivityHandlers(crm)
	ctx := context.Background()

	_, _, err := h.LogActivity(ctx, nil, LogActivityInput{Type: "dial", Count: 10})
	require.NoError(t, err)
	revenue := 250.0
	_, act, err := h.LogActivity(ctx, nil, LogActivityInput{Type: "CLOSE", Revenue: &revenue})
	require.NoError(t, err)
	assert.Equal(t, 1, act.Count)

	_, kpis, err := h.GetKPIs(ctx, nil, GetKPIsInput{Range: "today"})
	require.NoError(t, err)
	assert.Equal(t, 10, kpis.Dials)
	assert.Equal(t, 1, kpis.Closes)
	assert.Equal(t, 250.0, kpis.Revenue)
	assert.Equal(t, "10.0", kpis.ConversionRate)
	assert.Equal(t, "type", kpis.Basis)

	_, _, err = h.LogActivity(ctx, nil, LogActivityInput{})
	assert.Error(t, err)
	_, _, err = h.LogActivity(ctx, nil, LogActivityInput{Type: "DIAL", ContactID: "nope"})
	assert.Error(t, err)
	_, _, err = h.GetKPIs(ctx, nil, GetKPIsInput{From: "2024-01-01"})
	assert.Error(t, err)
}

func TestBulkUpdateTasksHandler(t *testing.T) {
	crm := setupTestCRM(t)
	ctx := context.Background()
	h := NewTaskHandlers(crm)

	for _, title := range []string{"Call Ana", "Email Ben", "Quote Cy"} {
		_, err := crm.CreateTask(ctx, newTask(title))
		require.NoError(t, err)
	}

	_, out, err := h.BulkUpdateTasks(ctx, nil, BulkUpdateTasksInput{
		Scope:       "global",
		Status:      []string{"open"},
		SetPriority: "high",
		SetDueAt:    "2030-01-02",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Updated)

	_, _, err = h.BulkUpdateTasks(ctx, nil, BulkUpdateTasksInput{Scope: "global"})
	assert.Error(t, err, "empty patch")

	_, _, err = h.BulkUpdateTasks(ctx, nil, BulkUpdateTasksInput{SetStatus: "DONE"})
	assert.Error(t, err, "no ids without global scope")

	_, _, err = h.BulkUpdateTasks(ctx, nil, BulkUpdateTasksInput{IDs: []string{"bad"}, SetStatus: "DONE"})
	assert.Error(t, err)
}

func TestDiscoveryTools(t *testing.T) {
	crm := setupTestCRM(t)
	ctx := context.Background()
	leads := NewLeadHandlers(crm)
	h := NewDiscoveryHandlers(crm)

	_, lead, err := leads.AddLead(ctx, nil, AddLeadInput{FirstName: "Ana", LastName: "Lopez", Email: "ana@example.com"})
	require.NoError(t, err)

	_, found, err := h.Lookup(ctx, nil, LookupInput{ClientID: lead.ID})
	require.NoError(t, err)
	assert.False(t, found.Exists)

	_, session, err := h.Create(ctx, nil, CreateInput{
		ClientID: lead.ID,
		Seed:     map[string]any{"client": map[string]any{"zip": "78701", "state": "TX"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lopez", session.ClientName)
	assert.Equal(t, "78701", session.Zip)

	_, found, err = h.Lookup(ctx, nil, LookupInput{ClientID: lead.ID})
	require.NoError(t, err)
	require.True(t, found.Exists)
	assert.Equal(t, session.SessionID, found.Session.SessionID)

	_, updated, err := h.SetField(ctx, nil, SetFieldInput{SessionID: session.SessionID, Path: "client.county", Value: "Travis"})
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, updated.SessionID)

	_, _, err = h.SetField(ctx, nil, SetFieldInput{SessionID: session.SessionID, Path: "client.nope", Value: "x"})
	assert.Error(t, err)

	_, withNote, err := h.AddRapport(ctx, nil, AddRapportInput{SessionID: session.SessionID, Text: "Has two dogs"})
	require.NoError(t, err)
	assert.Equal(t, 1, withNote.RapportNotes)

	_, _, err = h.AddRapport(ctx, nil, AddRapportInput{SessionID: session.SessionID, Text: "  "})
	assert.Error(t, err)

	_, files, err := h.Export(ctx, nil, ExportInput{SessionID: session.SessionID})
	require.NoError(t, err)
	yamlText, err := os.ReadFile(files.YAMLFile)
	require.NoError(t, err)
	assert.Contains(t, string(yamlText), "Travis")
	assert.Contains(t, string(yamlText), "Has two dogs")

	_, _, err = h.Export(ctx, nil, ExportInput{SessionID: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGenerateGraphHandler(t *testing.T) {
	crm := setupTestCRM(t)
	h := NewVizHandlers(crm)

	_, out, err := h.GenerateGraph(context.Background(), nil, GenerateGraphInput{Type: "pipeline"})
	require.NoError(t, err)
	assert.Equal(t, "pipeline", out.GraphType)
	assert.Positive(t, out.EdgeCount)

	_, _, err = h.GenerateGraph(context.Background(), nil, GenerateGraphInput{Type: "company"})
	assert.Error(t, err)
}

func newTask(title string) *models.Task {
	return &models.Task{Title: title}
}

func TestGenerateLeadGraphHandler(t *testing.T) {
	ctx := context.Background()
	crm := setupTestCRM(t)
	h := NewVizHandlers(crm)

	lead, err := crm.AddLead(ctx, &models.Contact{FirstName: "Travis", LastName: "Reed", Phone: "555-123-4567"})
	require.NoError(t, err)
	_, err = crm.CreateTask(ctx, &models.Task{Title: "Send quote", ContactID: &lead.ID})
	require.NoError(t, err)

	_, out, err := h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "lead", EntityID: lead.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "Travis Reed", out.Title)
	assert.GreaterOrEqual(t, out.NodeCount, 2)
	assert.Equal(t, 1, out.EdgeCount)

	_, _, err = h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "lead"})
	assert.Error(t, err)

	_, _, err = h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "lead", EntityID: "00000000-0000-0000-0000-000000000001"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
