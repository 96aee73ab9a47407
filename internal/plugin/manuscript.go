package plugin

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/sendto/internal/model"
	"github.com/sendto/internal/submission"
)

// ManuscriptName is the name the Manuscript plugin registers under.
const ManuscriptName = "Manuscript"

// SendChoice is what the user confirms in the pre-send dialog.
type SendChoice struct {
	Mode   model.SendMode
	CaseID int
}

// Dialogs shows the plugin's modal dialogs. Both return ErrCanceled when dismissed.
type Dialogs interface {
	EditOutput(ctx context.Context, out model.Output) (model.Output, error)
	ConfirmSend(ctx context.Context, url string, lastCaseID int) (SendChoice, error)
}

// Launcher opens a file with the system's default handler without waiting for it.
type Launcher interface {
	Open(ctx context.Context, path string) error
}

// Manuscript attaches screenshots to Manuscript cases through a self-submitting
// page opened in the browser.
type Manuscript struct {
	logger   *slog.Logger
	dialogs  Dialogs
	launcher Launcher
	builder  *submission.Builder

	// PruneAge removes send pages older than this before each send. Zero disables pruning.
	PruneAge time.Duration
}

// NewManuscript returns the Manuscript plugin.
func NewManuscript(logger *slog.Logger, dialogs Dialogs, launcher Launcher, builder *submission.Builder) *Manuscript {
	return &Manuscript{
		logger:   logger,
		dialogs:  dialogs,
		launcher: launcher,
		builder:  builder,
		PruneAge: time.Hour,
	}
}

func (m *Manuscript) Name() string { return ManuscriptName }

func (m *Manuscript) Description() string { return "Attach screenshots to Manuscript cases." }

func (m *Manuscript) Editable() bool { return true }

// CreateOutput starts from an unnamed-URL output and lets the user edit it.
func (m *Manuscript) CreateOutput(ctx context.Context) (*model.Output, error) {
	return m.EditOutput(ctx, model.Output{
		Name:       m.Name(),
		LastCaseID: model.DefaultLastCaseID,
	})
}

// EditOutput shows the edit dialog. The last case ID is never edited here.
func (m *Manuscript) EditOutput(ctx context.Context, out model.Output) (*model.Output, error) {
	edited, err := m.dialogs.EditOutput(ctx, out)
	if err != nil {
		return nil, err
	}

	result := &model.Output{
		Name:       edited.Name,
		URL:        edited.URL,
		LastCaseID: out.LastCaseID,
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

func (m *Manuscript) SerializeOutput(out model.Output) model.OutputValues {
	return out.Values()
}

func (m *Manuscript) DeserializeOutput(values model.OutputValues) (*model.Output, error) {
	return model.OutputFromValues(values, m.Name())
}

// Send asks for the mode and case, writes the send page and opens it. For
// case-bound modes the result carries the output with the chosen case ID.
func (m *Manuscript) Send(ctx context.Context, out model.Output, img image.Image) (result SendResult) {
	state := newSendState(m.logger)

	defer func() {
		if r := recover(); r != nil {
			state.to(StateFailed)
			m.logger.Error("send: panic", "output", out.Name, "panic", r)
			result = SendResult{Result: Failed, Message: fmt.Sprint(r)}
		}
	}()

	choice, err := m.dialogs.ConfirmSend(ctx, out.URL, out.LastCaseID)
	if errors.Is(err, ErrCanceled) {
		state.to(StateCanceled)
		return SendResult{Result: Canceled}
	}
	if err != nil {
		return m.fail(state, out, err)
	}

	state.to(StateBuilding)
	req := model.SendRequest{URL: out.URL, Mode: choice.Mode, CaseID: choice.CaseID}
	if err := req.Validate(); err != nil {
		return m.fail(state, out, err)
	}

	if m.PruneAge > 0 {
		if n, err := m.builder.Prune(m.PruneAge); err != nil {
			m.logger.Warn("send: prune failed", "err", err)
		} else if n > 0 {
			m.logger.Debug("send: pruned old send pages", "count", n)
		}
	}

	path, err := m.builder.Create(req, img)
	if err != nil {
		return m.fail(state, out, err)
	}
	if err := m.launcher.Open(ctx, path); err != nil {
		return m.fail(state, out, err)
	}
	state.to(StateDone)

	m.logger.Info("send: handed off to browser",
		"output", out.Name,
		"mode", req.Mode.String(),
		"file", path,
	)

	if req.Mode.CaseBound() {
		return SendResult{
			Result: Success,
			Output: &model.Output{Name: out.Name, URL: out.URL, LastCaseID: req.CaseID},
		}
	}
	return SendResult{Result: Success}
}

func (m *Manuscript) fail(state *sendState, out model.Output, err error) SendResult {
	state.to(StateFailed)
	m.logger.Error("send: failed", "output", out.Name, "err", err)
	return SendResult{Result: Failed, Message: err.Error()}
}
