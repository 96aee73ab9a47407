// Package dialog implements the Manuscript plugin's dialogs, as terminal
// programs or as scripted answers.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sendto/internal/model"
	"github.com/sendto/internal/plugin"
)

// Terminal runs the dialogs as bubbletea programs.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

// NewTerminal returns dialogs reading from in and drawing to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{In: in, Out: out}
}

func (t *Terminal) EditOutput(ctx context.Context, out model.Output) (model.Output, error) {
	final, err := t.run(ctx, newEditModel(out))
	if err != nil {
		return model.Output{}, err
	}
	m := final.(editModel)
	if !m.confirmed {
		return model.Output{}, plugin.ErrCanceled
	}
	return m.result, nil
}

func (t *Terminal) ConfirmSend(ctx context.Context, url string, lastCaseID int) (plugin.SendChoice, error) {
	final, err := t.run(ctx, newSendModel(url, lastCaseID))
	if err != nil {
		return plugin.SendChoice{}, err
	}
	m := final.(sendModel)
	if !m.confirmed {
		return plugin.SendChoice{}, plugin.ErrCanceled
	}
	return m.result, nil
}

func (t *Terminal) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if t.In != nil {
		opts = append(opts, tea.WithInput(t.In))
	}
	if t.Out != nil {
		opts = append(opts, tea.WithOutput(t.Out))
	}

	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("dialog: %w", err)
	}
	return final, nil
}

// Scripted answers dialogs without user interaction. A nil answer cancels.
type Scripted struct {
	Output *model.Output
	Choice *plugin.SendChoice
}

func (s *Scripted) EditOutput(_ context.Context, out model.Output) (model.Output, error) {
	if s.Output == nil {
		return model.Output{}, plugin.ErrCanceled
	}
	edited := *s.Output
	if edited.Name == "" {
		edited.Name = out.Name
	}
	return edited, nil
}

func (s *Scripted) ConfirmSend(_ context.Context, _ string, lastCaseID int) (plugin.SendChoice, error) {
	if s.Choice == nil {
		return plugin.SendChoice{}, plugin.ErrCanceled
	}
	choice := *s.Choice
	if choice.Mode.CaseBound() && choice.CaseID == 0 {
		choice.CaseID = lastCaseID
	}
	return choice, nil
}
