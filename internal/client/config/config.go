package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Cloud backends.
const (
	BackendFolder = "folder"
	BackendS3     = "s3"
)

// Config holds runtime settings for the seedkeeper CLI.
type Config struct {
	// ContainerRoot is the directory holding ubiquity containers
	// (e.g. "~/Library/Mobile Documents").
	ContainerRoot string
	// ContainerID names the app's container below ContainerRoot.
	ContainerID string
	// DatabasePath is the SQLite file tracking upload state.
	DatabasePath string

	StatusCheckInterval time.Duration
	SyncInterval        time.Duration

	// Backend is BackendFolder or BackendS3.
	Backend string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	LogLevel   string
	LogBackend string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	c.ContainerRoot = filepath.Join(home, "Library", "Mobile Documents")
	c.ContainerID = "iCloud~io~seedkeeper~wallet"
	c.DatabasePath = "seedkeeper.db"
	c.StatusCheckInterval = 3 * time.Second
	c.SyncInterval = 30 * time.Second
	c.Backend = BackendFolder
	c.S3Region = "us-east-1"
	c.LogLevel = "info"
	c.LogBackend = "slog"
}

// ContainerPath is the container directory for ContainerID.
func (c *Config) ContainerPath() string {
	return filepath.Join(c.ContainerRoot, c.ContainerID)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.ContainerRoot, validation.Required),
		validation.Field(&c.ContainerID, validation.Required),
		validation.Field(&c.DatabasePath, validation.Required),
		validation.Field(&c.StatusCheckInterval, validation.Required, validation.Min(100*time.Millisecond)),
		validation.Field(&c.SyncInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Backend, validation.Required, validation.In(BackendFolder, BackendS3)),
		validation.Field(&c.S3Bucket, validation.When(c.Backend == BackendS3, validation.Required)),
		validation.Field(&c.S3Region, validation.When(c.Backend == BackendS3, validation.Required)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.LogBackend, validation.In("slog", "zap")),
	)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (and a .env file), a config file (if given) and
// command-line flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
