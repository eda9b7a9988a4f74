package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// configDir is the configuration directory path
	// Can be set via SetConfigDir before loading config
	configDir     string
	configDirInit bool
)

// SetConfigDir sets a custom configuration directory
// Must be called before any config loading functions
func SetConfigDir(dir string) {
	configDir = dir
	configDirInit = true
}

// GetConfigDir returns the configuration directory
// Priority: 1. Manually set via SetConfigDir, 2. ./config in current directory
func GetConfigDir() string {
	if !configDirInit {
		cwd, err := os.Getwd()
		if err == nil {
			configDir = filepath.Join(cwd, "config")
		}
		configDirInit = true
	}
	return configDir
}

// Search modes accepted in search.default_mode
const (
	SearchModeVector = "vector"
	SearchModeSQLite = "sqlite"
)

// Suggestion modes accepted in suggestions.mode
const (
	SuggestionModeCurated = "curated"
	SuggestionModeRandom  = "random"
)

// Config application configuration structure
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Search      SearchConfig      `yaml:"search"`
	Suggestions SuggestionsConfig `yaml:"suggestions"`
	Log         LogConfig         `yaml:"log"`
	UI          UIConfig          `yaml:"ui"`
}

// ServerConfig remote memory service configuration
type ServerConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIPrefix string `yaml:"api_prefix"`
	APIToken  string `yaml:"api_token"`
	UserAgent string `yaml:"user_agent"`

	// BreakerFailures consecutive calls without any HTTP response pause
	// requests for BreakerCooldown seconds; 0 (the default) disables it
	BreakerFailures int `yaml:"breaker_failures"`
	BreakerCooldown int `yaml:"breaker_cooldown"`
}

// SearchConfig search defaults
type SearchConfig struct {
	DefaultMode string `yaml:"default_mode"`
	Limit       int    `yaml:"limit"`
}

// SuggestionsConfig quick-create suggestion settings
type SuggestionsConfig struct {
	Mode  string `yaml:"mode"`
	Count int    `yaml:"count"`
	Seed  int64  `yaml:"seed"` // 0 seeds from the clock
}

// LogConfig log output settings
type LogConfig struct {
	Level   string `yaml:"level"`
	MaxDays int    `yaml:"max_days"`
	Console bool   `yaml:"console"`
}

// UIConfig terminal settings
type UIConfig struct {
	HistoryFile string `yaml:"history_file"`
	Color       bool   `yaml:"color"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:   "http://localhost:8000",
			APIPrefix: "/api/v1",
			APIToken:  "",
			UserAgent: "memhub/0.1",

			BreakerFailures: 0,
			BreakerCooldown: 30,
		},
		Search: SearchConfig{
			DefaultMode: SearchModeVector,
			Limit:       10,
		},
		Suggestions: SuggestionsConfig{
			Mode:  SuggestionModeCurated,
			Count: 3,
		},
		Log: LogConfig{
			Level:   "info",
			MaxDays: 7,
			Console: false,
		},
		UI: UIConfig{
			HistoryFile: "history",
			Color:       true,
		},
	}
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", fmt.Errorf("failed to determine config directory")
	}
	return dir, nil
}

// LogDir returns the log directory path
func LogDir() string {
	dir := GetConfigDir()
	if dir == "" {
		return "logs"
	}
	return filepath.Join(dir, "logs")
}

// HistoryPath returns the REPL history file path, or "" when history is disabled
func (c *Config) HistoryPath() string {
	name := strings.TrimSpace(c.UI.HistoryFile)
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	dir := GetConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, name)
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from file and merges with secrets
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		mergeSecrets(cfg)

		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig() // Use default values as base
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeSecrets(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeSecrets fills the API token from .secrets when the config file leaves it empty
func mergeSecrets(cfg *Config) {
	secrets, _ := LoadSecrets()
	if secrets == nil || cfg.Server.APIToken != "" {
		return
	}
	if token := secrets.GetAPIToken(); token != "" {
		cfg.Server.APIToken = token
	}
}

// Save saves configuration to file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The token stays in .secrets unless the user put it in config.yaml themselves
	out := *cfg
	if secrets, _ := LoadSecrets(); secrets != nil && secrets.GetAPIToken() == cfg.Server.APIToken {
		out.Server.APIToken = ""
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	content := "# memhub configuration file\n# Points the terminal client at a memory service.\n\n" + string(data)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.BaseURL) == "" {
		return fmt.Errorf("config error: server.base_url cannot be empty")
	}
	if !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		return fmt.Errorf("config error: server.base_url must start with http:// or https://")
	}
	if c.Server.APIPrefix != "" && !strings.HasPrefix(c.Server.APIPrefix, "/") {
		return fmt.Errorf("config error: server.api_prefix must start with /")
	}
	if c.Server.BreakerFailures < 0 || c.Server.BreakerCooldown < 0 {
		return fmt.Errorf("config error: server.breaker_failures and server.breaker_cooldown cannot be negative")
	}

	switch c.Search.DefaultMode {
	case SearchModeVector, SearchModeSQLite:
	default:
		return fmt.Errorf("config error: search.default_mode must be %q or %q", SearchModeVector, SearchModeSQLite)
	}
	if c.Search.Limit <= 0 {
		return fmt.Errorf("config error: search.limit must be greater than 0")
	}

	switch c.Suggestions.Mode {
	case SuggestionModeCurated, SuggestionModeRandom:
	default:
		return fmt.Errorf("config error: suggestions.mode must be %q or %q", SuggestionModeCurated, SuggestionModeRandom)
	}
	if c.Suggestions.Count < 0 {
		return fmt.Errorf("config error: suggestions.count cannot be negative")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config error: log.level must be one of debug, info, warn, error")
	}
	if c.Log.MaxDays <= 0 {
		return fmt.Errorf("config error: log.max_days must be greater than 0")
	}

	return nil
}

// IsTokenConfigured checks if an API token is configured
func (c *Config) IsTokenConfigured() bool {
	return c.Server.APIToken != ""
}

// String returns string representation of config (hides sensitive info)
func (c *Config) String() string {
	return fmt.Sprintf(`memhub configuration:
  Server:
    Base URL: %s
    API Prefix: %s
    API Token: %s
    User Agent: %s
    Breaker: %d failures, %ds cooldown
  Search:
    Default Mode: %s
    Limit: %d
  Suggestions:
    Mode: %s
    Count: %d
    Seed: %d
  Log:
    Level: %s
    Max Days: %d
    Console: %v
  UI:
    History File: %s
    Color: %v`,
		c.Server.BaseURL,
		c.Server.APIPrefix,
		redactToken(c.Server.APIToken),
		c.Server.UserAgent,
		c.Server.BreakerFailures,
		c.Server.BreakerCooldown,
		c.Search.DefaultMode,
		c.Search.Limit,
		c.Suggestions.Mode,
		c.Suggestions.Count,
		c.Suggestions.Seed,
		c.Log.Level,
		c.Log.MaxDays,
		c.Log.Console,
		c.HistoryPath(),
		c.UI.Color,
	)
}

func redactToken(value string) string {
	if value == "" {
		return "(not configured)"
	}
	if len(value) > 8 {
		return value[:8] + "..."
	}
	return "***"
}
