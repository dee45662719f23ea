// ABOUTME: Discovery wizard screen for the terminal UI
// ABOUTME: Edits one step of fields at a time and captures rapport notes
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/leadline/discovery"
)

// rapportShown is how many of the latest rapport notes the wizard lists.
const rapportShown = 5

func (m *Model) openWizard(w *discovery.Wizard) {
	m.wizard = w
	m.viewMode = ViewWizard
	m.rapportMode = false
	m.rapportInput = textinput.New()
	m.rapportInput.Placeholder = "Kids, pets, hobbies, anything worth remembering"
	m.rapportInput.Prompt = "✎ "
	m.rapportInput.CharLimit = 500
	m.buildInputs()
}

// buildInputs loads the current step's fields into fresh inputs.
func (m *Model) buildInputs() {
	step := m.wizard.Current()
	m.inputs = make([]textinput.Model, len(step.Fields))
	for i, field := range step.Fields {
		in := textinput.New()
		in.Prompt = ""
		in.Width = 40
		in.CharLimit = 500
		in.SetValue(m.wizard.InputValue(field))
		m.inputs[i] = in
	}
	m.focusIndex = 0
	if len(m.inputs) > 0 {
		m.inputs[0].Focus()
	}
}

func (m *Model) setFocus(i int) {
	if len(m.inputs) == 0 {
		return
	}
	m.inputs[m.focusIndex].Blur()
	m.focusIndex = (i + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focusIndex].Focus()
}

// commitInputs writes edited inputs back to the document. Unchanged inputs
// are skipped so merely visiting a step does not dirty the session.
func (m *Model) commitInputs() error {
	step := m.wizard.Current()
	for i, field := range step.Fields {
		value := m.inputs[i].Value()
		if value == m.wizard.InputValue(field) {
			continue
		}
		if err := m.wizard.SetInput(field, value); err != nil {
			m.setFocus(i)
			return err
		}
	}
	return nil
}

func (m *Model) save() error {
	if err := m.commitInputs(); err != nil {
		return err
	}
	if err := m.wizard.Save(m.ctx); err != nil {
		return err
	}
	m.status = "Saved at " + m.wizard.LastSaved().Local().Format("15:04:05")
	return nil
}

func (m Model) handleWizardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.rapportMode {
		return m.handleRapportKeys(msg)
	}

	switch msg.String() {
	case "esc", "ctrl+c":
		if err := m.commitInputs(); err != nil {
			m.err = err
			return m, nil
		}
		if m.wizard.Dirty() {
			if err := m.save(); err != nil {
				m.err = err
				return m, nil
			}
		}
		if m.standalone {
			return m, tea.Quit
		}
		m.viewMode = ViewLeads
		m.wizard = nil
		m.err = nil
		return m, nil

	case "tab", "down":
		m.setFocus(m.focusIndex + 1)
		return m, nil

	case "shift+tab", "up":
		m.setFocus(m.focusIndex - 1)
		return m, nil

	case "ctrl+n", "enter":
		if err := m.commitInputs(); err != nil {
			m.err = err
			return m, nil
		}
		if m.wizard.IsLast() {
			m.status = "Last step. ctrl+s saves, esc finishes"
			return m, nil
		}
		saved := m.wizard.LastSaved()
		if err := m.wizard.Next(m.ctx); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.status = ""
		if m.wizard.LastSaved() != saved {
			m.status = "Autosaved at " + m.wizard.LastSaved().Local().Format("15:04:05")
		}
		m.buildInputs()
		return m, nil

	case "ctrl+p":
		if err := m.commitInputs(); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.wizard.Prev()
		m.buildInputs()
		return m, nil

	case "ctrl+r":
		m.rapportMode = true
		m.rapportInput.SetValue("")
		if len(m.inputs) > 0 {
			m.inputs[m.focusIndex].Blur()
		}
		cmd := m.rapportInput.Focus()
		return m, cmd

	case "ctrl+s":
		if err := m.save(); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		return m, nil
	}

	if len(m.inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m Model) handleRapportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.wizard.AddRapport(m.rapportInput.Value()) {
			m.status = "Rapport note added"
		}
		fallthrough
	case "esc":
		m.rapportMode = false
		m.rapportInput.Blur()
		var cmd tea.Cmd
		if len(m.inputs) > 0 {
			cmd = m.inputs[m.focusIndex].Focus()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.rapportInput, cmd = m.rapportInput.Update(msg)
	return m, cmd
}

func (m Model) renderWizardView() string {
	var s strings.Builder
	doc := m.wizard.Document()

	name := doc.FullName()
	if name == "" {
		name = "New client"
	}
	title := fmt.Sprintf("DISCOVERY · %s · %s", name, doc.Meta.SessionID)
	if m.wizard.Dirty() {
		title += " ●"
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n")

	s.WriteString(m.renderSteps())
	s.WriteString("\n\n")

	step := m.wizard.Current()
	for i, field := range step.Fields {
		marker := "  "
		if i == m.focusIndex && !m.rapportMode {
			marker = "> "
		}
		s.WriteString(marker)
		s.WriteString(labelStyle.Render(field.Label))
		s.WriteString(m.inputs[i].View())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(m.renderRapport(doc.Rapport))

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	} else if m.status != "" {
		s.WriteString(statusStyle.Render(m.status))
		s.WriteString("\n")
	}

	s.WriteString(m.renderWizardHelp())

	return s.String()
}

func (m Model) renderSteps() string {
	steps := m.wizard.Steps()
	rendered := make([]string, 0, len(steps))
	for i, step := range steps {
		label := fmt.Sprintf("%d %s", i+1, step.Title)
		if i == m.wizard.Index() {
			rendered = append(rendered, stepActiveStyle.Render(label))
		} else {
			rendered = append(rendered, stepInactiveStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderRapport(notes []discovery.RapportNote) string {
	var s strings.Builder
	s.WriteString(lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("RAPPORT (%d)", len(notes))))
	s.WriteString("\n")

	start := 0
	if len(notes) > rapportShown {
		start = len(notes) - rapportShown
	}
	for _, note := range notes[start:] {
		s.WriteString(fmt.Sprintf("  %s  %s\n", note.Ts.Local().Format("15:04"), note.Text))
	}
	if m.rapportMode {
		s.WriteString("  ")
		s.WriteString(m.rapportInput.View())
		s.WriteString("\n")
	}
	s.WriteString("\n")
	return s.String()
}

func (m Model) renderWizardHelp() string {
	if m.rapportMode {
		return helpStyle.Render("Enter: Add note • Esc: Cancel")
	}
	help := []string{
		"Tab/Shift+Tab: Field",
		"Ctrl+N/Ctrl+P: Step",
		"Ctrl+R: Rapport",
		"Ctrl+S: Save",
		"Esc: Done",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}
