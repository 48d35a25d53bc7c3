package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override file configuration
const (
	EnvLogLevel     = "WFR_LOG_LEVEL"
	EnvResultsDir   = "WFR_RESULTS_DIR"
	EnvHistoryDB    = "WFR_HISTORY_DB"
	EnvSlackWebhook = "WFR_SLACK_WEBHOOK"
	EnvAIBinary     = "WFR_AI_BINARY"
	EnvAIModel      = "WFR_AI_MODEL"
	EnvGitBackend   = "WFR_GIT_BACKEND"
	EnvOpenAIKey    = "OPENAI_API_KEY"
)

// Backends accepted in [committer].backend
const (
	BackendGitCLI = "git"
	BackendGoGit  = "go-git"
)

// Config holds all application configuration
type Config struct {
	General       GeneralConfig       `toml:"general"`
	Committer     CommitterConfig     `toml:"committer"`
	Smoke         SmokeConfig         `toml:"smoke"`
	Notifications NotificationsConfig `toml:"notifications"`
	Logging       LoggingConfig       `toml:"logging"`
}

// GeneralConfig holds settings shared by all tools
type GeneralConfig struct {
	ResultsDir string `toml:"results_dir"`
	Prefix     string `toml:"prefix"`
	Keep       int    `toml:"keep"`
	ListLimit  int    `toml:"list_limit"`
	HistoryDB  string `toml:"history_db"`
}

// CommitterConfig holds result committer settings
type CommitterConfig struct {
	Backend     string `toml:"backend"`
	GitBinary   string `toml:"git_binary"`
	RepoDir     string `toml:"repo_dir"`
	SummaryFile string `toml:"summary_file"`
	AuthorName  string `toml:"author_name"`
	AuthorEmail string `toml:"author_email"`
}

// SmokeConfig holds the smoke test literals
type SmokeConfig struct {
	Binary          string   `toml:"binary"`
	Model           string   `toml:"model"`
	VersionMarker   string   `toml:"version_marker"`
	Prompt          string   `toml:"prompt"`
	CacheDir        string   `toml:"cache_dir"`
	Timeout         Duration `toml:"timeout"`
	GenerateTimeout Duration `toml:"generate_timeout"`
	APICheck        bool     `toml:"api_check"`
	APIBaseURL      string   `toml:"api_base_url"`
	APIKey          string   `toml:"api_key"`
}

// NotificationsConfig holds notification settings
type NotificationsConfig struct {
	SlackWebhook string `toml:"slack_webhook"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration is a time.Duration that reads and writes TOML strings like "30s"
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			ResultsDir: "results",
			Prefix:     "workflow",
			Keep:       5,
			ListLimit:  10,
		},
		Committer: CommitterConfig{
			Backend:     BackendGitCLI,
			GitBinary:   "git",
			SummaryFile: "workflow_summary.json",
		},
		Smoke: SmokeConfig{
			Binary:          "ollama",
			Model:           "llama3.2:1b",
			VersionMarker:   "ollama version",
			Prompt:          "Respond with exactly: TEST_PASSED",
			CacheDir:        "~/.ollama",
			Timeout:         Duration{30 * time.Second},
			GenerateTimeout: Duration{60 * time.Second},
			APIBaseURL:      "http://localhost:11434/v1",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults.
// A .env file in the working directory is loaded first so that WFR_*
// overrides can live next to the CI checkout.
func Load(path string) (*Config, error) {
	cfg := Default()

	// Missing .env is the normal case
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()

	// Expand paths
	cfg.General.ResultsDir = ExpandPath(cfg.General.ResultsDir)
	cfg.General.HistoryDB = ExpandPath(cfg.General.HistoryDB)
	cfg.Committer.RepoDir = ExpandPath(cfg.Committer.RepoDir)
	cfg.Smoke.CacheDir = ExpandPath(cfg.Smoke.CacheDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays WFR_* environment variables onto the config
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvResultsDir); v != "" {
		c.General.ResultsDir = v
	}
	if v := os.Getenv(EnvHistoryDB); v != "" {
		c.General.HistoryDB = v
	}
	if v := os.Getenv(EnvSlackWebhook); v != "" {
		c.Notifications.SlackWebhook = v
	}
	if v := os.Getenv(EnvAIBinary); v != "" {
		c.Smoke.Binary = v
	}
	if v := os.Getenv(EnvAIModel); v != "" {
		c.Smoke.Model = v
	}
	if v := os.Getenv(EnvGitBackend); v != "" {
		c.Committer.Backend = v
	}
	if v := os.Getenv(EnvOpenAIKey); v != "" && c.Smoke.APIKey == "" {
		c.Smoke.APIKey = v
	}
}

// Validate rejects values the tools cannot work with
func (c *Config) Validate() error {
	switch c.Committer.Backend {
	case BackendGitCLI, BackendGoGit:
	default:
		return fmt.Errorf("unknown committer backend %q (want %q or %q)", c.Committer.Backend, BackendGitCLI, BackendGoGit)
	}
	if c.General.Keep < 0 {
		return fmt.Errorf("general.keep must not be negative, got %d", c.General.Keep)
	}
	if c.Smoke.Timeout.Duration <= 0 || c.Smoke.GenerateTimeout.Duration <= 0 {
		return fmt.Errorf("smoke timeouts must be positive")
	}
	return nil
}

// Save writes the config as TOML, creating parent directories
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "workflow-results", "config.toml")
}
