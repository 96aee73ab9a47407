package submission

import (
	"encoding/base64"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sendto/internal/media"
	"github.com/sendto/internal/model"
	"github.com/sendto/internal/web"
)

const (
	// LegacyFileName is the fixed page name. Concurrent sends race on it.
	LegacyFileName = "SendToManuscript.html"

	filePrefix = "SendToManuscript-"
	fileSuffix = ".html"
)

// Builder renders send pages and writes them where a browser can open them.
type Builder struct {
	// Dir receives the generated pages. Empty means os.TempDir().
	Dir string
	// Legacy writes every page to LegacyFileName instead of a unique name.
	Legacy bool
	// FragmentSize overrides FragmentSize; zero keeps the default.
	FragmentSize int
	// Template overrides web.SendTemplate; empty keeps the default.
	Template string

	logger *slog.Logger
}

// NewBuilder returns a Builder writing to dir.
func NewBuilder(logger *slog.Logger, dir string, legacy bool) *Builder {
	return &Builder{Dir: dir, Legacy: legacy, logger: logger}
}

// Build encodes img and renders the auto-submitting page for url.
func Build(url string, img image.Image, mode model.SendMode, caseID int) (string, error) {
	b := &Builder{}
	return b.Build(model.SendRequest{URL: url, Mode: mode, CaseID: caseID}, img)
}

// Build renders the page for req. The case ID is only emitted for case-bound modes.
func (b *Builder) Build(req model.SendRequest, img image.Image) (string, error) {
	data, err := media.EncodePNG(img)
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	fragments := Fragments(encoded, b.FragmentSize)

	b.log().Debug("submission: encoded image",
		"png_bytes", len(data),
		"base64_chars", len(encoded),
		"fragments", len(fragments),
		"mode", req.Mode.String(),
	)

	tmpl := b.Template
	if tmpl == "" {
		tmpl = web.SendTemplate
	}
	form := RenderFields(Fields(req.Mode, req.CaseID, fragments))
	return RenderPage(tmpl, req.URL, form), nil
}

// WriteFile stores doc in the builder's directory and returns its path.
func (b *Builder) WriteFile(doc string) (string, error) {
	dir := b.dir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create send directory: %w", err)
	}

	name := LegacyFileName
	if !b.Legacy {
		name = filePrefix + uuid.NewString() + fileSuffix
	}
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte(doc+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write send file: %w", err)
	}
	return path, nil
}

// Create builds the page for req and writes it, returning the file path.
func (b *Builder) Create(req model.SendRequest, img image.Image) (string, error) {
	doc, err := b.Build(req, img)
	if err != nil {
		return "", err
	}
	return b.WriteFile(doc)
}

// Prune removes unique send pages older than maxAge. The legacy page is
// overwritten on every send and left alone.
func (b *Builder) Prune(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(b.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read send directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(b.dir(), name)); err != nil {
			b.log().Warn("submission: failed to prune send file", "file", name, "err", err)
			continue
		}
		removed++
	}
	return removed, nil
}

func (b *Builder) dir() string {
	if b.Dir != "" {
		return b.Dir
	}
	return os.TempDir()
}

func (b *Builder) log() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return slog.Default()
}
