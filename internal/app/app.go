package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sendto/internal/browser"
	"github.com/sendto/internal/config"
	"github.com/sendto/internal/crypto"
	"github.com/sendto/internal/db"
	"github.com/sendto/internal/dialog"
	"github.com/sendto/internal/plugin"
	"github.com/sendto/internal/receiver"
	"github.com/sendto/internal/store"
	"github.com/sendto/internal/submission"
)

// Options overrides the interactive pieces of the app.
type Options struct {
	// Verbose enables debug logging regardless of environment.
	Verbose bool
	// LogOutput defaults to stderr.
	LogOutput io.Writer
	// Dialogs defaults to terminal dialogs on stdin/stdout.
	Dialogs plugin.Dialogs
	// Launcher defaults to the system browser.
	Launcher plugin.Launcher
}

type App struct {
	config  *config.Config
	logger  *slog.Logger
	db      *sql.DB
	outputs *store.OutputStore
	plugins *plugin.Registry
	builder *submission.Builder
	inbox   *receiver.Inbox
}

func (app *App) Close() error {
	return app.db.Close()
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := newLogger(cfg, opts)

	pool, err := db.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var crypter *crypto.Crypter
	if cfg.Encrypted() {
		crypter, err = crypto.NewFromSecret(cfg.EncryptionSecret)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("derive store key: %w", err)
		}
	}

	dialogs := opts.Dialogs
	if dialogs == nil {
		dialogs = dialog.NewTerminal(os.Stdin, os.Stdout)
	}
	launcher := opts.Launcher
	if launcher == nil {
		launcher = browser.New(logger, cfg.BrowserCommand)
	}

	builder := submission.NewBuilder(logger, cfg.TempDir, cfg.LegacyFileName)

	plugins := plugin.NewRegistry()
	if err := plugins.Register(plugin.NewManuscript(logger, dialogs, launcher, builder)); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Debug("app: ready",
		"database", cfg.DatabasePath,
		"encrypted", cfg.Encrypted(),
		"temp_dir", cfg.TempDir,
		"legacy_filename", cfg.LegacyFileName,
	)

	return &App{
		config:  cfg,
		logger:  logger,
		db:      pool,
		outputs: store.NewOutputStore(pool, crypter),
		plugins: plugins,
		builder: builder,
		inbox:   receiver.NewInbox(cfg.ReceiverKeep),
	}, nil
}

// Plugins lists the registered plugin names.
func (app *App) Plugins() []string {
	return app.plugins.Names()
}

// Serve runs the local receiver until ctx is done.
func (app *App) Serve(ctx context.Context, port int) error {
	if port == 0 {
		port = app.config.ReceiverPort
	}

	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:         "127.0.0.1:" + strconv.Itoa(port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	g.Go(func() error {
		app.logger.Info("receiver: listening", "addr", "http://"+srv.Addr, "keep", app.config.ReceiverKeep)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		app.logger.Info("receiver: shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("receiver shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("receiver: %w", err)
	}

	app.logger.Info("receiver: stopped")
	return nil
}

func newLogger(cfg *config.Config, opts Options) *slog.Logger {
	logLevel := slog.LevelInfo

	if cfg.IsDevelopment() || opts.Verbose {
		logLevel = slog.LevelDebug
	}

	w := opts.LogOutput
	if w == nil {
		w = os.Stderr
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))

	slog.SetDefault(logger)
	return logger
}
