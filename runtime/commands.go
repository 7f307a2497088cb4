package runtime

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"
)

// DefaultCommandTimeout bounds a single shell command.
const DefaultCommandTimeout = 5 * time.Minute

// CommandResult captures one executed shell command.
type CommandResult struct {
	// Command is the shell command line as extracted.
	Command string
	// ExitCode is the process exit code. -1 if the process never started.
	ExitCode int
	// Stdout is the captured standard output.
	Stdout string
	// Stderr is the captured standard error.
	Stderr string
	// Duration is the wall-clock execution time.
	Duration time.Duration
}

// CommandRunner executes shell commands inside the materialized workspace.
type CommandRunner interface {
	// Run executes command in workdir and returns its result.
	// A non-zero exit code is reported in the result, not as an error;
	// the error return covers spawn failures only.
	Run(ctx context.Context, workdir, command string) (*CommandResult, error)
}

// ExecRunner runs commands through the system shell.
type ExecRunner struct {
	// Timeout bounds each command. Zero uses DefaultCommandTimeout.
	Timeout time.Duration
}

// Run executes command with `sh -c` in workdir.
func (r *ExecRunner) Run(ctx context.Context, workdir, command string) (*CommandResult, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = workdir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := &CommandResult{
		Command:  command,
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		result.ExitCode = -1
		return result, err
	}
	return result, nil
}

// StubRunner records commands without executing them.
// Exit codes can be scripted per command for failure-path tests.
type StubRunner struct {
	mu sync.Mutex

	// Ran holds every command passed to Run, in order.
	Ran []string
	// ExitCodes maps a command to its scripted exit code. Unlisted
	// commands exit 0.
	ExitCodes map[string]int
	// Err, if non-nil, is returned by Run as a spawn failure.
	Err error
}

// NewStubRunner creates a stub runner where every command succeeds.
func NewStubRunner() *StubRunner {
	return &StubRunner{}
}

// Run records the command and returns its scripted result.
func (r *StubRunner) Run(_ context.Context, _ string, command string) (*CommandResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return &CommandResult{Command: command, ExitCode: -1}, r.Err
	}

	r.Ran = append(r.Ran, command)
	return &CommandResult{Command: command, ExitCode: r.ExitCodes[command]}, nil
}

var (
	_ CommandRunner = (*ExecRunner)(nil)
	_ CommandRunner = (*StubRunner)(nil)
)
