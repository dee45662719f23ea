// ABOUTME: Tests for the discovery wizard TUI
// ABOUTME: Drives the bubbletea model with key messages and checks persistence
package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/logger"
	"github.com/harperreed/leadline/models"
	"github.com/harperreed/leadline/services"
)

func setupTestCRM(t *testing.T) *services.CRM {
	t.Helper()
	conn, err := db.OpenDatabase(filepath.Join(t.TempDir(), "leadline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return services.NewCRM(conn, logger.Nop(), services.Options{Agent: "Dana"})
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func typeText(m Model, text string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func press(m Model, k tea.KeyType) (Model, tea.Cmd) {
	next, cmd := m.Update(key(k))
	return next.(Model), cmd
}

func newWizardModel(t *testing.T, autosave bool) (Model, *services.CRM, string) {
	t.Helper()
	crm := setupTestCRM(t)
	ctx := context.Background()
	lead, err := crm.AddLead(ctx, &models.Contact{FirstName: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	session, _, err := crm.OpenDiscovery(ctx, lead.ID)
	require.NoError(t, err)
	w, err := crm.Wizard(ctx, session.SessionID, autosave)
	require.NoError(t, err)
	return NewWizardModel(ctx, crm, w), crm, session.SessionID
}

func TestWizardEditAndSave(t *testing.T) {
	m, crm, sessionID := newWizardModel(t, false)

	// Step 1 field order: first name, last name, dob, zip
	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "Lopez")
	m, _ = press(m, tea.KeyTab)
	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "78701")

	m, _ = press(m, tea.KeyCtrlS)
	require.NoError(t, m.err)
	assert.Contains(t, m.status, "Saved")
	assert.False(t, m.wizard.Dirty())

	stored, err := crm.GetDiscovery(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, "Lopez", stored.Payload.Client.LastName)
	assert.Equal(t, "78701", stored.Zip)
}

func TestWizardStepNavigation(t *testing.T) {
	m, _, _ := newWizardModel(t, false)
	assert.Equal(t, 0, m.wizard.Index())

	m, _ = press(m, tea.KeyCtrlN)
	assert.Equal(t, 1, m.wizard.Index())
	assert.Contains(t, m.View(), "Lead source")

	m, _ = press(m, tea.KeyCtrlP)
	m, _ = press(m, tea.KeyCtrlP)
	assert.Equal(t, 0, m.wizard.Index())

	m, _ = press(m, tea.KeyShiftTab)
	assert.Equal(t, len(m.inputs)-1, m.focusIndex)
}

func TestWizardAutosavesOnNextStep(t *testing.T) {
	m, crm, sessionID := newWizardModel(t, true)

	m, _ = press(m, tea.KeyCtrlN)
	m = typeText(m, "Facebook ad")
	m, _ = press(m, tea.KeyCtrlN)
	require.NoError(t, m.err)
	assert.Contains(t, m.status, "Autosaved")

	stored, err := crm.GetDiscovery(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, "Facebook ad", stored.Payload.Discovery.LeadSource)
}

func TestWizardRejectsBadNumber(t *testing.T) {
	m, _, _ := newWizardModel(t, false)

	for m.wizard.Current().Key != "coverage" {
		m, _ = press(m, tea.KeyCtrlN)
	}
	// COBRA cost is the fourth coverage field
	for i := 0; i < 3; i++ {
		m, _ = press(m, tea.KeyTab)
	}
	m = typeText(m, "lots")
	m, _ = press(m, tea.KeyCtrlN)
	require.Error(t, m.err)
	assert.Equal(t, "coverage", m.wizard.Current().Key)
	assert.Contains(t, m.View(), "not a number")
}

func TestWizardRapportNote(t *testing.T) {
	m, crm, sessionID := newWizardModel(t, false)

	m, _ = press(m, tea.KeyCtrlR)
	assert.True(t, m.rapportMode)
	m = typeText(m, "Coaches little league")
	m, _ = press(m, tea.KeyEnter)
	assert.False(t, m.rapportMode)
	assert.True(t, m.wizard.Dirty())
	assert.Contains(t, m.View(), "Coaches little league")

	// esc saves the dirty session and quits
	m, cmd := press(m, tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.False(t, m.wizard.Dirty())

	stored, err := crm.GetDiscovery(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, stored.Rapport, 1)
	assert.Equal(t, "Coaches little league", stored.Rapport[0].Text)
}

func TestLeadListOpensWizard(t *testing.T) {
	crm := setupTestCRM(t)
	ctx := context.Background()
	_, err := crm.AddLead(ctx, &models.Contact{FirstName: "Ana", LastName: "Lopez", Phone: "5551234567"})
	require.NoError(t, err)

	m := NewModel(ctx, crm, true)
	assert.Contains(t, m.View(), "Ana Lopez")

	m, _ = press(m, tea.KeyEnter)
	require.NoError(t, m.err)
	assert.Equal(t, ViewWizard, m.viewMode)
	assert.True(t, strings.HasPrefix(m.status, "Started session"))

	m, _ = press(m, tea.KeyEsc)
	assert.Equal(t, ViewLeads, m.viewMode)

	m, _ = press(m, tea.KeyEnter)
	assert.True(t, strings.HasPrefix(m.status, "Resumed session"))
}
