package smoke

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hochfrequenz/workflow-results/internal/config"
)

// Settings are the literals the checks compare against
type Settings struct {
	Binary          string
	Model           string
	VersionMarker   string
	Prompt          string
	CacheDir        string
	Timeout         time.Duration
	GenerateTimeout time.Duration

	APICheck   bool
	APIBaseURL string
	APIKey     string
}

// SettingsFromConfig converts the [smoke] config section
func SettingsFromConfig(c config.SmokeConfig) Settings {
	return Settings{
		Binary:          c.Binary,
		Model:           c.Model,
		VersionMarker:   c.VersionMarker,
		Prompt:          c.Prompt,
		CacheDir:        config.ExpandPath(c.CacheDir),
		Timeout:         c.Timeout.Duration,
		GenerateTimeout: c.GenerateTimeout.Duration,
		APICheck:        c.APICheck,
		APIBaseURL:      c.APIBaseURL,
		APIKey:          c.APIKey,
	}
}

// DefaultSettings returns the stock Ollama expectations
func DefaultSettings() Settings {
	return SettingsFromConfig(config.Default().Smoke)
}

// Result is the outcome of one check
type Result struct {
	Name    string
	Passed  bool
	Message string
}

// Check is one named health probe
type Check struct {
	Name string
	// Announce is printed before the check runs
	Announce string
	Run      func(ctx context.Context) Result
}

// BuildChecks returns the checks in execution order
func BuildChecks(runner CommandRunner, s Settings) []Check {
	checks := []Check{
		ServiceHealthCheck(runner, s),
		ModelAvailabilityCheck(runner, s),
		GenerationCheck(runner, s),
		CacheDirCheck(s),
	}
	if s.APICheck {
		checks = append(checks, APIGenerationCheck(s))
	}
	return checks
}

// ServiceHealthCheck runs `<binary> --version` and looks for the version marker
func ServiceHealthCheck(runner CommandRunner, s Settings) Check {
	const name = "service health"
	return Check{
		Name:     name,
		Announce: "Testing service health...",
		Run: func(ctx context.Context) Result {
			res := runner.Run(ctx, s.Timeout, s.Binary, "--version")
			if res.ExitCode == 0 && strings.Contains(strings.ToLower(res.Stdout), strings.ToLower(s.VersionMarker)) {
				return pass(name, "Service health check passed")
			}
			return fail(name, "Service health check failed: %s", reason(res))
		},
	}
}

// ModelAvailabilityCheck runs `<binary> list` and looks for the model name
func ModelAvailabilityCheck(runner CommandRunner, s Settings) Check {
	const name = "model availability"
	return Check{
		Name:     name,
		Announce: "Testing model availability...",
		Run: func(ctx context.Context) Result {
			res := runner.Run(ctx, s.Timeout, s.Binary, "list")
			if res.ExitCode == 0 && strings.Contains(res.Stdout, s.Model) {
				return pass(name, "Model availability check passed")
			}
			return fail(name, "Model availability check failed: %s", reason(res))
		},
	}
}

// GenerationCheck runs the model on the fixed prompt and expects any output
func GenerationCheck(runner CommandRunner, s Settings) Check {
	const name = "basic AI functionality"
	return Check{
		Name:     name,
		Announce: "Testing basic AI functionality...",
		Run: func(ctx context.Context) Result {
			res := runner.Run(ctx, s.GenerateTimeout, s.Binary, "run", s.Model, s.Prompt)
			if res.ExitCode == 0 && strings.TrimSpace(res.Stdout) != "" {
				return pass(name, "AI functionality test passed")
			}
			return fail(name, "AI functionality test failed: %s", reason(res))
		},
	}
}

// CacheDirCheck expects the model cache directory to exist
func CacheDirCheck(s Settings) Check {
	const name = "cache directory"
	return Check{
		Name:     name,
		Announce: "Testing cache directory...",
		Run: func(ctx context.Context) Result {
			if _, err := os.Stat(s.CacheDir); err == nil {
				return pass(name, "Cache directory exists: %s", s.CacheDir)
			}
			return fail(name, "Cache directory missing: %s", s.CacheDir)
		},
	}
}

// Title is the banner for the binary under test, e.g. OLLAMA WORKFLOW VALIDATION TESTS
func Title(binary string) string {
	base := strings.TrimSuffix(filepath.Base(binary), filepath.Ext(binary))
	if base == "" || base == "." {
		base = "AI"
	}
	return strings.ToUpper(base) + " WORKFLOW VALIDATION TESTS"
}

func pass(name, format string, args ...interface{}) Result {
	return Result{Name: name, Passed: true, Message: fmt.Sprintf(format, args...)}
}

func fail(name, format string, args ...interface{}) Result {
	return Result{Name: name, Passed: false, Message: fmt.Sprintf(format, args...)}
}

// reason is the text shown after "failed:"; stderr, or the exit code when
// the command printed nothing useful.
func reason(res CommandResult) string {
	if msg := strings.TrimSpace(res.Stderr); msg != "" {
		return msg
	}
	if res.ExitCode != 0 {
		return fmt.Sprintf("exit code %d", res.ExitCode)
	}
	return "unexpected output"
}
