// ABOUTME: Lead list screen for the terminal UI
// ABOUTME: Shows the pipeline table and opens discovery for a lead
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/leadline/models"
)

const listLimit = 100

func (m Model) leads() ([]models.Contact, error) {
	return m.crm.FindLeads(m.ctx, m.searchQuery, "", listLimit)
}

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("LEADLINE"))
	s.WriteString("\n")

	if m.searching || m.searchQuery != "" {
		s.WriteString(m.searchInput.View())
		s.WriteString("\n\n")
	}

	s.WriteString(m.renderLeadsTable())
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}

	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderLeadsTable() string {
	leads, err := m.leads()
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	columns := []table.Column{
		{Title: "Name", Width: 26},
		{Title: "Stage", Width: 11},
		{Title: "Phone", Width: 16},
		{Title: "Email", Width: 28},
	}

	var rows []table.Row
	for _, lead := range leads {
		rows = append(rows, table.Row{
			lead.FullName(),
			lead.Stage,
			lead.Phone,
			lead.Email,
		})
	}

	height := m.height - 10
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Enter: Discovery call",
		"/: Search",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "enter", "esc":
			m.searching = false
			m.searchInput.Blur()
			m.searchQuery = strings.TrimSpace(m.searchInput.Value())
			m.selectedRow = 0
			return m, nil
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		leads, _ := m.leads()
		if m.selectedRow < len(leads)-1 {
			m.selectedRow++
		}
	case "/":
		m.searching = true
		cmd := m.searchInput.Focus()
		return m, cmd
	case "enter":
		return m.startDiscovery()
	}

	return m, nil
}

// startDiscovery resumes or creates the selected lead's session.
func (m Model) startDiscovery() (tea.Model, tea.Cmd) {
	leads, err := m.leads()
	if err != nil {
		m.err = err
		return m, nil
	}
	if m.selectedRow >= len(leads) {
		return m, nil
	}

	session, created, err := m.crm.OpenDiscovery(m.ctx, leads[m.selectedRow].ID)
	if err != nil {
		m.err = err
		return m, nil
	}
	w, err := m.crm.Wizard(m.ctx, session.SessionID, m.autosave)
	if err != nil {
		m.err = err
		return m, nil
	}

	m.err = nil
	m.openWizard(w)
	if created {
		m.status = "Started session " + session.SessionID
	} else {
		m.status = "Resumed session " + session.SessionID
	}
	return m, textinput.Blink
}
