package app

import (
	"bytes"
	"context"
	"html"
	"image"
	"image/color"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendto/internal/config"
	"github.com/sendto/internal/dialog"
	"github.com/sendto/internal/model"
	"github.com/sendto/internal/plugin"
	"github.com/sendto/internal/store"
)

type recordingLauncher struct {
	paths []string
}

func (l *recordingLauncher) Open(_ context.Context, path string) error {
	l.paths = append(l.paths, path)
	return nil
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Env:             "production",
		DatabasePath:    filepath.Join(dir, "outputs.db"),
		TempDir:         filepath.Join(dir, "send"),
		ReceiverPort:    8089,
		ReceiverKeep:    5,
		MaxUploadSizeMB: 5,
	}
}

func newTestApp(t *testing.T, cfg *config.Config, dialogs plugin.Dialogs) (*App, *recordingLauncher) {
	t.Helper()
	launcher := &recordingLauncher{}
	a, err := New(context.Background(), cfg, Options{
		LogOutput: io.Discard,
		Dialogs:   dialogs,
		Launcher:  launcher,
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a, launcher
}

func testImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	img.Set(3, 2, color.NRGBA{G: 255, A: 255})
	return img
}

func TestCreateAndListOutputs(t *testing.T) {
	ctx := context.Background()
	dialogs := &dialog.Scripted{Output: &model.Output{Name: "Work", URL: "https://tracker.example.com/default.asp"}}
	a, _ := newTestApp(t, newTestConfig(t), dialogs)

	assert.Equal(t, []string{plugin.ManuscriptName}, a.Plugins())

	out, err := a.CreateOutput(ctx, plugin.ManuscriptName)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultLastCaseID, out.LastCaseID)

	_, err = a.CreateOutput(ctx, plugin.ManuscriptName)
	assert.ErrorIs(t, err, ErrOutputExists)

	outputs, err := a.Outputs(ctx)
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, plugin.ManuscriptName, outputs[0].Plugin)
	assert.Equal(t, "https://tracker.example.com/default.asp", outputs[0].Output.URL)
}

func TestCreateOutputCanceled(t *testing.T) {
	a, _ := newTestApp(t, newTestConfig(t), &dialog.Scripted{})

	_, err := a.CreateOutput(context.Background(), plugin.ManuscriptName)
	assert.ErrorIs(t, err, plugin.ErrCanceled)

	_, err = a.CreateOutput(context.Background(), "Nope")
	assert.Error(t, err)
}

func TestEditOutputRenames(t *testing.T) {
	ctx := context.Background()
	dialogs := &dialog.Scripted{Output: &model.Output{Name: "Old", URL: "http://a.example.com/"}}
	a, _ := newTestApp(t, newTestConfig(t), dialogs)

	_, err := a.CreateOutput(ctx, plugin.ManuscriptName)
	require.NoError(t, err)

	dialogs.Output = &model.Output{Name: "New", URL: "http://b.example.com/", LastCaseID: 999}
	out, err := a.EditOutput(ctx, "Old")
	require.NoError(t, err)
	assert.Equal(t, "New", out.Name)
	assert.Equal(t, model.DefaultLastCaseID, out.LastCaseID, "edit keeps the last case ID")

	_, err = a.Output(ctx, "Old")
	assert.ErrorIs(t, err, store.ErrNotFound)

	so, err := a.Output(ctx, "New")
	require.NoError(t, err)
	assert.Equal(t, "http://b.example.com/", so.Output.URL)
}

func TestSendStoresCaseID(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)
	dialogs := &dialog.Scripted{
		Output: &model.Output{Name: "Work", URL: "https://tracker.example.com/default.asp"},
		Choice: &plugin.SendChoice{Mode: model.AttachToCase, CaseID: 314},
	}
	a, launcher := newTestApp(t, cfg, dialogs)

	_, err := a.CreateOutput(ctx, plugin.ManuscriptName)
	require.NoError(t, err)

	result, err := a.Send(ctx, "Work", testImage())
	require.NoError(t, err)
	require.Equal(t, plugin.Success, result.Result, result.Message)
	require.Len(t, launcher.paths, 1)
	assert.Equal(t, cfg.TempDir, filepath.Dir(launcher.paths[0]))

	so, err := a.Output(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, 314, so.Output.LastCaseID)

	// Non-case modes leave the stored case ID alone.
	dialogs.Choice = &plugin.SendChoice{Mode: model.NewCase}
	result, err = a.Send(ctx, "Work", testImage())
	require.NoError(t, err)
	require.Equal(t, plugin.Success, result.Result)

	so, err = a.Output(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, 314, so.Output.LastCaseID)
}

func TestSendReportsUnsavedCaseID(t *testing.T) {
	ctx := context.Background()
	dialogs := &dialog.Scripted{
		Output: &model.Output{Name: "Work", URL: "https://tracker.example.com/default.asp"},
		Choice: &plugin.SendChoice{Mode: model.ReplyToCase, CaseID: 88},
	}
	a, launcher := newTestApp(t, newTestConfig(t), dialogs)

	_, err := a.CreateOutput(ctx, plugin.ManuscriptName)
	require.NoError(t, err)

	_, err = a.db.ExecContext(ctx, `
		CREATE TRIGGER outputs_read_only BEFORE UPDATE ON outputs
		BEGIN SELECT RAISE(ABORT, 'read only'); END
	`)
	require.NoError(t, err)

	result, err := a.Send(ctx, "Work", testImage())
	assert.ErrorIs(t, err, ErrOutputNotUpdated)
	assert.Equal(t, plugin.Success, result.Result)
	require.NotNil(t, result.Output)
	assert.Equal(t, 88, result.Output.LastCaseID)
	assert.Len(t, launcher.paths, 1)

	so, err := a.Output(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultLastCaseID, so.Output.LastCaseID)
}

func TestSendFailures(t *testing.T) {
	ctx := context.Background()
	dialogs := &dialog.Scripted{Output: &model.Output{Name: "NoURL"}}
	a, launcher := newTestApp(t, newTestConfig(t), dialogs)

	_, err := a.Send(ctx, "missing", testImage())
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = a.CreateOutput(ctx, plugin.ManuscriptName)
	require.NoError(t, err)

	result, err := a.Send(ctx, "NoURL", testImage())
	require.NoError(t, err)
	assert.Equal(t, plugin.Canceled, result.Result)

	dialogs.Choice = &plugin.SendChoice{Mode: model.NewCase}
	result, err = a.Send(ctx, "NoURL", testImage())
	require.NoError(t, err)
	assert.Equal(t, plugin.Failed, result.Result)
	assert.NotEmpty(t, result.Message)
	assert.Empty(t, launcher.paths)
}

func TestExportImportEncrypted(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)
	cfg.EncryptionSecret = strings.Repeat("s", 32)
	dialogs := &dialog.Scripted{Output: &model.Output{Name: "Work", URL: "https://tracker.example.com/"}}
	a, _ := newTestApp(t, cfg, dialogs)

	_, err := a.CreateOutput(ctx, plugin.ManuscriptName)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := a.ExportOutputs(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), "https://tracker.example.com/")

	other, _ := newTestApp(t, newTestConfig(t), &dialog.Scripted{})
	n, err = other.ImportOutputs(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	so, err := other.Output(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, "https://tracker.example.com/", so.Output.URL)

	bad := "outputs:\n  - plugin: Manuscript\n    values:\n      Name: Bad\n      LastCaseID: abc\n"
	_, err = other.ImportOutputs(ctx, strings.NewReader(bad))
	assert.Error(t, err)

	require.NoError(t, other.DeleteOutput(ctx, "Work"))
	assert.ErrorIs(t, other.DeleteOutput(ctx, "Work"), store.ErrNotFound)
}

var hiddenInput = regexp.MustCompile(`<input type="hidden" name="([^"]*)" value="([^"]*)">`)

// TestSendPageReachesReceiver posts the written send page to the receiver routes.
func TestSendPageReachesReceiver(t *testing.T) {
	ctx := context.Background()
	dialogs := &dialog.Scripted{
		Output: &model.Output{Name: "Local", URL: "http://127.0.0.1:8089/default.asp"},
		Choice: &plugin.SendChoice{Mode: model.ReplyToCase, CaseID: 12},
	}
	a, launcher := newTestApp(t, newTestConfig(t), dialogs)

	_, err := a.CreateOutput(ctx, plugin.ManuscriptName)
	require.NoError(t, err)
	result, err := a.Send(ctx, "Local", testImage())
	require.NoError(t, err)
	require.Equal(t, plugin.Success, result.Result)

	page, err := os.ReadFile(launcher.paths[0])
	require.NoError(t, err)
	form := url.Values{}
	for _, m := range hiddenInput.FindAllStringSubmatch(string(page), -1) {
		form.Add(html.UnescapeString(m[1]), html.UnescapeString(m[2]))
	}

	srv := httptest.NewServer(a.routes())
	defer srv.Close()

	resp, err := http.PostForm(srv.URL+"/default.asp", form)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	subs := a.inbox.List()
	require.Len(t, subs, 1)
	assert.Equal(t, model.ReplyToCase, subs[0].Mode)
	assert.Equal(t, 12, subs[0].CaseID)

	resp, err = http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestServeStopsOnCancel(t *testing.T) {
	a, _ := newTestApp(t, newTestConfig(t), &dialog.Scripted{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, freePort(t)) }()
	cancel()

	assert.NoError(t, <-done)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
