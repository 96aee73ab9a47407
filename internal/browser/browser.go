// Package browser opens files with the operating system's default handler.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// System starts the platform opener for a path and does not wait for it.
type System struct {
	// Command overrides the platform opener, e.g. "firefox --new-window".
	// The path is appended as the last argument.
	Command string

	logger *slog.Logger
	goos   string
	start  func(cmd *exec.Cmd) error
}

// New returns a launcher for the current platform.
func New(logger *slog.Logger, command string) *System {
	return &System{
		Command: command,
		logger:  logger,
		goos:    runtime.GOOS,
		start:   func(cmd *exec.Cmd) error { return cmd.Start() },
	}
}

// Open hands path to the default handler. Nothing is read back from the process.
func (s *System) Open(ctx context.Context, path string) error {
	name, args, err := commandFor(s.goos, s.Command, path)
	if err != nil {
		return err
	}

	// The opener outlives this call, so it is not bound to ctx.
	cmd := exec.Command(name, args...)
	if err := s.start(cmd); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	s.logger.DebugContext(ctx, "browser: started", "cmd", name, "path", path)

	if cmd.Process != nil {
		go func() { _ = cmd.Wait() }()
	}
	return nil
}

func commandFor(goos, override, path string) (string, []string, error) {
	if fields := strings.Fields(override); len(fields) > 0 {
		return fields[0], append(fields[1:], path), nil
	}

	switch goos {
	case "darwin":
		return "open", []string{path}, nil
	case "windows":
		return "cmd", []string{"/c", "start", "", path}, nil
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly":
		return "xdg-open", []string{path}, nil
	default:
		return "", nil, fmt.Errorf("cannot open a browser on %s, open %s manually", goos, path)
	}
}
