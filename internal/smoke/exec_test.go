package smoke

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_Success(t *testing.T) {
	requireShell(t)
	res := ExecRunner{}.Run(context.Background(), 5*time.Second, "sh", "-c", "echo ollama version is 0.5.7")
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "ollama version is 0.5.7", strings.TrimSpace(res.Stdout))
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	requireShell(t)
	res := ExecRunner{}.Run(context.Background(), 5*time.Second, "sh", "-c", "echo nope >&2; exit 3")
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "nope", strings.TrimSpace(res.Stderr))
}

func TestExecRunner_Timeout(t *testing.T) {
	requireShell(t)
	start := time.Now()
	res := ExecRunner{}.Run(context.Background(), 100*time.Millisecond, "sh", "-c", "sleep 10")
	assert.Equal(t, CommandResult{ExitCode: 1, Stderr: "Command timed out"}, res)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecRunner_Cancelled(t *testing.T) {
	requireShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := ExecRunner{}.Run(ctx, time.Minute, "sh", "-c", "sleep 10")
	assert.Equal(t, 1, res.ExitCode)
	assert.Equal(t, "Command cancelled", res.Stderr)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	res := ExecRunner{}.Run(context.Background(), time.Second, "definitely-not-an-installed-binary-xyz")
	assert.Equal(t, 1, res.ExitCode)
	assert.Contains(t, res.Stderr, "executable file not found")
}
