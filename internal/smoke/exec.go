package smoke

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// CommandResult is the outcome of one subprocess invocation
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandRunner abstracts subprocess execution so checks can be tested
// without the AI binary installed.
type CommandRunner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) CommandResult
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

// Run never returns an error: timeouts and start failures are folded into
// exit code 1 with a message on Stderr.
func (ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) CommandResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = 2 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return CommandResult{ExitCode: 0, Stdout: stdout.String(), Stderr: stderr.String()}
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return CommandResult{ExitCode: 1, Stderr: "Command timed out"}
	case errors.Is(ctx.Err(), context.Canceled):
		return CommandResult{ExitCode: 1, Stderr: "Command cancelled"}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return CommandResult{ExitCode: exitErr.ExitCode(), Stdout: stdout.String(), Stderr: stderr.String()}
	}
	return CommandResult{ExitCode: 1, Stderr: err.Error()}
}
