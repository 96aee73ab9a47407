// Command sendto attaches images to Manuscript cases through the browser.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sendto/internal/app"
	"github.com/sendto/internal/config"
	"github.com/sendto/internal/plugin"
)

var (
	verbose  bool
	database string
	envName  string
	envFile  string
)

var rootCmd = &cobra.Command{
	Use:   "sendto",
	Short: "Send screenshots to Manuscript cases",
	Long: `sendto stores Manuscript outputs and sends images to them.

Sending writes a self-submitting page to the temp directory and opens it
in the default browser, which posts the image to the configured URL.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&database, "database", "", "Output database path (or set SENDTO_DATABASE)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "Environment: development or production (or set SENDTO_ENV)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file to load")

	rootCmd.AddCommand(outputsCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(receiveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if database != "" {
		cfg.DatabasePath = database
	}
	if envName != "" {
		cfg.Env = envName
	}
	return cfg, cfg.Validate()
}

// openApp loads configuration and wires the app. dialogs may be nil for the
// terminal dialogs.
func openApp(ctx context.Context, dialogs plugin.Dialogs) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, app.Options{Verbose: verbose, Dialogs: dialogs})
}
