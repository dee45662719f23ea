// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Lead picker and step-by-step discovery call wizard
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/leadline/discovery"
	"github.com/harperreed/leadline/services"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewLeads ViewMode = iota
	ViewWizard
)

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	crm      *services.CRM
	viewMode ViewMode
	autosave bool

	// Lead list state
	selectedRow int
	searching   bool
	searchInput textinput.Model
	searchQuery string

	// Wizard state. standalone wizards quit on esc instead of returning
	// to the lead list.
	wizard       *discovery.Wizard
	standalone   bool
	inputs       []textinput.Model
	focusIndex   int
	rapportMode  bool
	rapportInput textinput.Model

	// UI state
	status string
	width  int
	height int
	err    error
}

// NewModel starts on the lead list.
func NewModel(ctx context.Context, crm *services.CRM, autosave bool) Model {
	search := textinput.New()
	search.Placeholder = "name, email or phone"
	search.Prompt = "/ "
	return Model{
		ctx:         ctx,
		crm:         crm,
		viewMode:    ViewLeads,
		autosave:    autosave,
		searchInput: search,
		width:       80,
		height:      24,
	}
}

// NewWizardModel starts directly in the wizard for w; esc saves and quits.
func NewWizardModel(ctx context.Context, crm *services.CRM, w *discovery.Wizard) Model {
	m := NewModel(ctx, crm, false)
	m.standalone = true
	m.openWizard(w)
	return m
}

// Run runs m full-screen until the user quits.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewLeads:
		return m.renderListView()
	case ViewWizard:
		return m.renderWizardView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.viewMode {
	case ViewLeads:
		return m.handleListKeys(msg)
	case ViewWizard:
		return m.handleWizardKeys(msg)
	}
	return m, nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	stepActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	stepInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Width(36).
			Foreground(lipgloss.Color("245"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)
