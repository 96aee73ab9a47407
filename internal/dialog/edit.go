package dialog

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sendto/internal/model"
)

const (
	editFieldName = iota
	editFieldURL
	editFieldCount
)

// editModel edits an output's name and URL.
type editModel struct {
	original model.Output
	inputs   []textinput.Model
	focus    int
	err      string

	confirmed bool
	canceled  bool
	result    model.Output

	styles Styles
}

func newEditModel(out model.Output) editModel {
	name := textinput.New()
	name.Placeholder = "Manuscript"
	name.CharLimit = 100
	name.Width = 40
	name.SetValue(out.Name)

	url := textinput.New()
	url.Placeholder = "https://example.manuscript.com/"
	url.CharLimit = 2048
	url.Width = 60
	url.SetValue(out.URL)

	m := editModel{
		original: out,
		inputs:   []textinput.Model{name, url},
		styles:   DefaultStyles(),
	}
	m.inputs[editFieldName].Focus()
	return m
}

func (m editModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "esc", "ctrl+c":
		m.canceled = true
		return m, tea.Quit
	case "tab", "down":
		return m.moveFocus(1), nil
	case "shift+tab", "up":
		return m.moveFocus(-1), nil
	case "enter":
		if m.focus < editFieldCount-1 {
			return m.moveFocus(1), nil
		}
		return m.confirm()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m editModel) moveFocus(delta int) editModel {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + editFieldCount) % editFieldCount
	m.inputs[m.focus].Focus()
	return m
}

func (m editModel) confirm() (tea.Model, tea.Cmd) {
	out := model.Output{
		Name:       strings.TrimSpace(m.inputs[editFieldName].Value()),
		URL:        strings.TrimSpace(m.inputs[editFieldURL].Value()),
		LastCaseID: m.original.LastCaseID,
	}
	if err := out.Validate(); err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.result = out
	m.confirmed = true
	return m, tea.Quit
}

func (m editModel) View() string {
	if m.confirmed || m.canceled {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Manuscript output"))
	b.WriteString("\n")
	b.WriteString(m.styles.Label.Render("Name") + m.inputs[editFieldName].View() + "\n")
	b.WriteString(m.styles.Label.Render("URL") + m.inputs[editFieldURL].View() + "\n")
	if m.err != "" {
		b.WriteString(m.styles.Error.Render(m.err) + "\n")
	}
	b.WriteString(m.styles.Help.Render("tab: next field • enter: save • esc: cancel"))
	return b.String()
}
