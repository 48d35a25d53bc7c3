package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Default()

	if cfg.General.Keep != 5 {
		t.Errorf("Keep = %d, want 5", cfg.General.Keep)
	}
	if cfg.General.Prefix != "workflow" {
		t.Errorf("Prefix = %q, want workflow", cfg.General.Prefix)
	}
	if cfg.Committer.SummaryFile != "workflow_summary.json" {
		t.Errorf("SummaryFile = %q, want workflow_summary.json", cfg.Committer.SummaryFile)
	}
	if cfg.Smoke.Model != "llama3.2:1b" {
		t.Errorf("Model = %q, want llama3.2:1b", cfg.Smoke.Model)
	}
	if cfg.Smoke.Timeout.Duration != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", cfg.Smoke.Timeout)
	}
	if cfg.Smoke.GenerateTimeout.Duration != 60*time.Second {
		t.Errorf("GenerateTimeout = %s, want 60s", cfg.Smoke.GenerateTimeout)
	}
	if cfg.Smoke.APICheck {
		t.Error("API check should be disabled by default")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Committer.Backend != BackendGitCLI {
		t.Errorf("Backend = %q, want %q", cfg.Committer.Backend, BackendGitCLI)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	content := `
[general]
results_dir = "/srv/results"
keep = 3

[committer]
backend = "go-git"

[smoke]
binary = "/opt/ollama/bin/ollama"
generate_timeout = "2m"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.General.ResultsDir != "/srv/results" {
		t.Errorf("ResultsDir = %q, want /srv/results", cfg.General.ResultsDir)
	}
	if cfg.General.Keep != 3 {
		t.Errorf("Keep = %d, want 3", cfg.General.Keep)
	}
	if cfg.Committer.Backend != BackendGoGit {
		t.Errorf("Backend = %q, want go-git", cfg.Committer.Backend)
	}
	if cfg.Smoke.Binary != "/opt/ollama/bin/ollama" {
		t.Errorf("Binary = %q", cfg.Smoke.Binary)
	}
	if cfg.Smoke.GenerateTimeout.Duration != 2*time.Minute {
		t.Errorf("GenerateTimeout = %s, want 2m", cfg.Smoke.GenerateTimeout)
	}
	// untouched keys keep their defaults
	if cfg.Smoke.Timeout.Duration != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", cfg.Smoke.Timeout)
	}
}

func TestLoad_InvalidBackend(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[committer]\nbackend = \"svn\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[smoke]\ntimeout = \"soon\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected error for bad duration")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAIBinary, "/usr/local/bin/ollama")
	t.Setenv(EnvAIModel, "qwen2:0.5b")
	t.Setenv(EnvGitBackend, BackendGoGit)
	t.Setenv(EnvHistoryDB, "/tmp/history.db")
	t.Setenv(EnvOpenAIKey, "sk-test")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.Smoke.Binary != "/usr/local/bin/ollama" {
		t.Errorf("Binary = %q", cfg.Smoke.Binary)
	}
	if cfg.Smoke.Model != "qwen2:0.5b" {
		t.Errorf("Model = %q", cfg.Smoke.Model)
	}
	if cfg.Committer.Backend != BackendGoGit {
		t.Errorf("Backend = %q", cfg.Committer.Backend)
	}
	if cfg.General.HistoryDB != "/tmp/history.db" {
		t.Errorf("HistoryDB = %q", cfg.General.HistoryDB)
	}
	if cfg.Smoke.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", cfg.Smoke.APIKey)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.General.Keep = 9
	cfg.Smoke.Timeout = Duration{45 * time.Second}
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.General.Keep != 9 {
		t.Errorf("Keep = %d, want 9", got.General.Keep)
	}
	if got.Smoke.Timeout.Duration != 45*time.Second {
		t.Errorf("Timeout = %s, want 45s", got.Smoke.Timeout)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input string
		want  string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
		{"", ""},
	}

	for _, tt := range tests {
		got := ExpandPath(tt.input)
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
