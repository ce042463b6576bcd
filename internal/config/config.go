// Package config provides configuration management for Recall.
// Settings come from three layers, lowest to highest precedence: built-in
// defaults, an optional YAML config file, and environment variables with the
// RECALL_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the Recall application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	AI       AIConfig       `yaml:"ai"`
	Engine   EngineConfig   `yaml:"engine"`
	Capture  CaptureConfig  `yaml:"capture"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"` // Server port (default: 7878)
	Host string `yaml:"host"` // Server host (default: 127.0.0.1)
}

// StorageConfig contains database and media storage configuration.
type StorageConfig struct {
	Engine      string `yaml:"engine"`       // Storage engine: sqlite, postgres (default: sqlite)
	DataPath    string `yaml:"data_path"`    // Path to data directory (default: ./data)
	PostgresDSN string `yaml:"postgres_dsn"` // Postgres connection string (when engine=postgres)
	MediaPath   string `yaml:"media_path"`   // Directory for captured images/audio (default: ./data/media)
}

// AIConfig contains analysis provider configuration.
type AIConfig struct {
	Provider       string        `yaml:"provider"`        // openai, anthropic (default: openai)
	APIKey         string        `yaml:"api_key"`         // Provider API key
	Model          string        `yaml:"model"`           // Model name (provider default when empty)
	BaseURL        string        `yaml:"base_url"`        // Override provider base URL
	RequestTimeout time.Duration `yaml:"request_timeout"` // Per-call timeout (default: 120s)
}

// EngineConfig contains enrichment engine tuning.
type EngineConfig struct {
	QueueSize    int           `yaml:"queue_size"`     // Job channel capacity (default: 100)
	MaxAttempts  int           `yaml:"max_attempts"`   // Retries before a memory is marked failed (default: 3)
	StaleTimeout time.Duration `yaml:"stale_timeout"`  // Age before a processing row is recovered (default: 15m)
	SweepOnStart bool          `yaml:"sweep_on_start"` // Enqueue pending backlog at startup (default: true)
}

// CaptureConfig contains screenshot capture configuration.
type CaptureConfig struct {
	ScreenshotDir string `yaml:"screenshot_dir"` // Directory watched for new screenshots
}

// SecurityConfig contains authentication settings.
type SecurityConfig struct {
	APIToken string `yaml:"api_token"` // Bearer token for the REST API (empty disables auth)
}

// Load builds the configuration from defaults, the optional YAML file named
// by RECALL_CONFIG_FILE (or ./recall.yaml when present), and RECALL_*
// environment variables, in that order of precedence.
func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("RECALL_CONFIG_FILE")
	if path == "" {
		if _, err := os.Stat("recall.yaml"); err == nil {
			path = "recall.yaml"
		}
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 7878,
			Host: "127.0.0.1",
		},
		Storage: StorageConfig{
			Engine:    "sqlite",
			DataPath:  "./data",
			MediaPath: "./data/media",
		},
		AI: AIConfig{
			Provider:       "openai",
			RequestTimeout: 120 * time.Second,
		},
		Engine: EngineConfig{
			QueueSize:    100,
			MaxAttempts:  3,
			StaleTimeout: 15 * time.Minute,
			SweepOnStart: true,
		},
		Capture:  CaptureConfig{},
		Security: SecurityConfig{},
	}
}

// applyFile overlays values from a YAML config file.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays values from RECALL_* environment variables.
func (c *Config) applyEnv() {
	c.Server.Port = getEnvInt("RECALL_PORT", c.Server.Port)
	c.Server.Host = getEnv("RECALL_HOST", c.Server.Host)

	c.Storage.Engine = getEnv("RECALL_STORAGE_ENGINE", c.Storage.Engine)
	c.Storage.DataPath = getEnv("RECALL_DATA_PATH", c.Storage.DataPath)
	c.Storage.PostgresDSN = getEnv("RECALL_POSTGRES_DSN", c.Storage.PostgresDSN)
	c.Storage.MediaPath = getEnv("RECALL_MEDIA_PATH", c.Storage.MediaPath)

	c.AI.Provider = getEnv("RECALL_AI_PROVIDER", c.AI.Provider)
	c.AI.APIKey = getEnv("RECALL_AI_API_KEY", c.AI.APIKey)
	c.AI.Model = getEnv("RECALL_AI_MODEL", c.AI.Model)
	c.AI.BaseURL = getEnv("RECALL_AI_BASE_URL", c.AI.BaseURL)
	c.AI.RequestTimeout = getEnvDuration("RECALL_AI_TIMEOUT", c.AI.RequestTimeout)

	c.Engine.QueueSize = getEnvInt("RECALL_QUEUE_SIZE", c.Engine.QueueSize)
	c.Engine.MaxAttempts = getEnvInt("RECALL_MAX_ATTEMPTS", c.Engine.MaxAttempts)
	c.Engine.StaleTimeout = getEnvDuration("RECALL_STALE_TIMEOUT", c.Engine.StaleTimeout)
	c.Engine.SweepOnStart = getEnvBool("RECALL_SWEEP_ON_START", c.Engine.SweepOnStart)

	c.Capture.ScreenshotDir = getEnv("RECALL_SCREENSHOT_DIR", c.Capture.ScreenshotDir)

	c.Security.APIToken = getEnv("RECALL_API_TOKEN", c.Security.APIToken)
}

func (c *Config) validate() error {
	switch c.Storage.Engine {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported storage engine %q", c.Storage.Engine)
	}
	if c.Storage.Engine == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("config: postgres storage engine requires RECALL_POSTGRES_DSN")
	}
	if c.Engine.QueueSize < 1 {
		return fmt.Errorf("config: queue size must be at least 1, got %d", c.Engine.QueueSize)
	}
	if c.Engine.MaxAttempts < 1 {
		return fmt.Errorf("config: max attempts must be at least 1, got %d", c.Engine.MaxAttempts)
	}
	return nil
}

// SQLitePath returns the path to the SQLite database file under the data
// directory.
func (c *Config) SQLitePath() string {
	return c.Storage.DataPath + "/recall.db"
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (e.g. "90s", "5m")
// or returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
