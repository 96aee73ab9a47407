package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Env string // development, production

	// Output store
	DatabasePath     string
	EncryptionSecret string

	// Send pages
	TempDir        string
	LegacyFileName bool
	BrowserCommand string

	// Receiver
	ReceiverPort    int
	ReceiverKeep    int
	MaxUploadSizeMB int
}

// Load reads .env (when present) and the SENDTO_* environment.
func Load(envFiles ...string) (*Config, error) {
	// Missing .env files are fine.
	_ = godotenv.Load(envFiles...)

	cfg := &Config{
		Env:              getEnv("SENDTO_ENV", "production"),
		DatabasePath:     getEnv("SENDTO_DATABASE", ""),
		EncryptionSecret: getEnv("SENDTO_ENCRYPTION_SECRET", ""),
		TempDir:          getEnv("SENDTO_TEMP_DIR", os.TempDir()),
		BrowserCommand:   getEnv("SENDTO_BROWSER", ""),
	}

	var err error
	if cfg.LegacyFileName, err = getBool("SENDTO_LEGACY_FILENAME", false); err != nil {
		return nil, err
	}
	if cfg.ReceiverPort, err = getInt("SENDTO_RECEIVER_PORT", 8089); err != nil {
		return nil, err
	}
	if cfg.ReceiverKeep, err = getInt("SENDTO_RECEIVER_KEEP", 20); err != nil {
		return nil, err
	}
	if cfg.MaxUploadSizeMB, err = getInt("SENDTO_MAX_UPLOAD_MB", 50); err != nil {
		return nil, err
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath, err = DefaultDatabasePath()
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("SENDTO_DATABASE is required")
	}

	if c.EncryptionSecret != "" && len(c.EncryptionSecret) < 32 {
		return fmt.Errorf("SENDTO_ENCRYPTION_SECRET must be at least 32 characters")
	}

	if c.ReceiverPort < 1 || c.ReceiverPort > 65535 {
		return fmt.Errorf("SENDTO_RECEIVER_PORT out of range: %d", c.ReceiverPort)
	}

	if c.ReceiverKeep < 1 {
		return fmt.Errorf("SENDTO_RECEIVER_KEEP must be positive")
	}

	if c.MaxUploadSizeMB < 1 {
		return fmt.Errorf("SENDTO_MAX_UPLOAD_MB must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Encrypted reports whether stored outputs are encrypted.
func (c *Config) Encrypted() bool {
	return c.EncryptionSecret != ""
}

// DefaultDatabasePath is outputs.db under the user's config directory.
func DefaultDatabasePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, "sendto", "outputs.db"), nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
