package dialog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sendto/internal/model"
	"github.com/sendto/internal/plugin"
)

// sendModel asks which action to take and, for case-bound modes, which case.
type sendModel struct {
	url       string
	modeIndex int
	caseInput textinput.Model
	caseFocus bool
	err       string

	confirmed bool
	canceled  bool
	result    plugin.SendChoice

	styles Styles
}

func newSendModel(url string, lastCaseID int) sendModel {
	ci := textinput.New()
	ci.Placeholder = "case number"
	ci.CharLimit = 10
	ci.Width = 12
	if lastCaseID > 0 {
		ci.SetValue(strconv.Itoa(lastCaseID))
	}

	return sendModel{
		url:       url,
		caseInput: ci,
		styles:    DefaultStyles(),
	}
}

func (m sendModel) mode() model.SendMode {
	return model.SendModes[m.modeIndex]
}

func (m sendModel) Init() tea.Cmd {
	return nil
}

func (m sendModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "esc", "ctrl+c":
		m.canceled = true
		return m, tea.Quit
	case "enter":
		return m.confirm()
	case "tab", "shift+tab":
		return m.toggleFocus(), nil
	}

	if m.caseFocus {
		var cmd tea.Cmd
		m.caseInput, cmd = m.caseInput.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "left", "h":
		m.modeIndex = (m.modeIndex + len(model.SendModes) - 1) % len(model.SendModes)
	case "right", "l":
		m.modeIndex = (m.modeIndex + 1) % len(model.SendModes)
	case "1", "2", "3", "4":
		m.modeIndex = int(key.String()[0] - '1')
	}
	m.err = ""
	return m, nil
}

func (m sendModel) toggleFocus() sendModel {
	if m.caseFocus {
		m.caseFocus = false
		m.caseInput.Blur()
		return m
	}
	if m.mode().CaseBound() {
		m.caseFocus = true
		m.caseInput.Focus()
	}
	return m
}

func (m sendModel) confirm() (tea.Model, tea.Cmd) {
	choice := plugin.SendChoice{Mode: m.mode()}
	if choice.Mode.CaseBound() {
		id, err := strconv.Atoi(strings.TrimSpace(m.caseInput.Value()))
		if err != nil || id < 1 {
			m.err = "enter a case number greater than zero"
			return m, nil
		}
		choice.CaseID = id
	}
	m.result = choice
	m.confirmed = true
	return m, tea.Quit
}

func (m sendModel) View() string {
	if m.confirmed || m.canceled {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Send to " + m.url))
	b.WriteString("\n")

	for i, mode := range model.SendModes {
		label := fmt.Sprintf("%d %s", i+1, mode.Label())
		if i == m.modeIndex {
			b.WriteString(m.styles.Selected.Render("[" + label + "]"))
		} else {
			b.WriteString(" " + label + " ")
		}
		b.WriteString("  ")
	}
	b.WriteString("\n\n")

	if m.mode().CaseBound() {
		b.WriteString(m.styles.Label.Render("Case") + m.caseInput.View() + "\n")
	} else {
		b.WriteString(m.styles.Muted.Render("A new case is created.") + "\n")
	}
	if m.err != "" {
		b.WriteString(m.styles.Error.Render(m.err) + "\n")
	}
	b.WriteString(m.styles.Help.Render("←/→ or 1-4: mode • tab: case • enter: send • esc: cancel"))
	return b.String()
}
