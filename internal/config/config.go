// Package config handles configuration for chatwidget.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/diogo/chatwidget/internal/models"
)

// MarkdownConfig configures markdown rendering of assistant turns
type MarkdownConfig struct {
	Style            string `json:"style" env:"CHATWIDGET_MARKDOWN_STYLE"` // "dark", "light", "notty" or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`
	PreserveNewLines bool   `json:"preserve_newlines"`
}

// LogConfig configures the diagnostic log file
type LogConfig struct {
	Level  string `json:"level" env:"CHATWIDGET_LOG_LEVEL"`
	File   string `json:"file,omitempty" env:"CHATWIDGET_LOG_FILE"`
	Format string `json:"format,omitempty" env:"CHATWIDGET_LOG_FORMAT"` // "json" or "text"
}

// Config represents the user configuration
type Config struct {
	Model    string `json:"model" env:"CHATWIDGET_MODEL"`
	Backend  string `json:"backend" env:"CHATWIDGET_BACKEND"` // "rest" or "sdk"
	Endpoint string `json:"endpoint" env:"CHATWIDGET_ENDPOINT"`
	// APIKey is only ever read from the environment. It is never written to disk.
	APIKey   string `json:"-" env:"GEMINI_API_KEY"`
	Greeting string `json:"greeting" env:"CHATWIDGET_GREETING"`
	// RequestTimeoutSeconds bounds a single completion request and the REST transport.
	// 0 disables both bounds.
	RequestTimeoutSeconds int            `json:"request_timeout_seconds" env:"CHATWIDGET_REQUEST_TIMEOUT"`
	StartOpen             bool           `json:"start_open" env:"CHATWIDGET_START_OPEN"`
	CopyToClipboard       bool           `json:"copy_to_clipboard"`
	TranscriptDir         string         `json:"transcript_dir,omitempty" env:"CHATWIDGET_TRANSCRIPT_DIR"`
	TranscriptFormat      string         `json:"transcript_format,omitempty" env:"CHATWIDGET_TRANSCRIPT_FORMAT"` // "markdown" or "json"
	Markdown              MarkdownConfig `json:"markdown"`
	Log                   LogConfig      `json:"log"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Model:                 models.DefaultModel,
		Backend:               models.DefaultBackend,
		Endpoint:              models.EndpointBase,
		Greeting:              models.DefaultGreeting,
		RequestTimeoutSeconds: 60,
		Markdown:              DefaultMarkdownConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// RequestTimeout returns the per-request timeout as a duration
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// MaskedAPIKey returns the API key with everything but the last four characters hidden
func (c Config) MaskedAPIKey() string {
	if c.APIKey == "" {
		return "(not set)"
	}
	if len(c.APIKey) <= 4 {
		return strings.Repeat("*", len(c.APIKey))
	}
	return strings.Repeat("*", len(c.APIKey)-4) + c.APIKey[len(c.APIKey)-4:]
}

// Validate checks the configuration for values the widget cannot run with
func (c Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model must not be empty")
	}
	if !slices.Contains(models.AllBackends(), c.Backend) {
		return fmt.Errorf("unknown backend %q (available: %s)", c.Backend, strings.Join(models.AllBackends(), ", "))
	}
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds must not be negative")
	}
	return nil
}

// GetConfigDir returns the configuration directory path.
// CHATWIDGET_HOME overrides the default of ~/.chatwidget.
func GetConfigDir() (string, error) {
	if dir := os.Getenv("CHATWIDGET_HOME"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".chatwidget"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetTranscriptDir returns the transcript directory from config, creating it if necessary
func GetTranscriptDir(cfg Config) (string, error) {
	dir := cfg.TranscriptDir
	if dir == "" {
		configDir, err := GetConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(configDir, "transcripts")
	}

	// Transcripts hold user text, keep them private
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create transcript directory: %w", err)
	}

	return dir, nil
}

// LoadConfig loads the configuration from disk and applies environment overrides
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults plus environment
	default:
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk. The API key is never written.
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
