package runtime

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExecRunnerCapturesOutput(t *testing.T) {
	runner := &ExecRunner{}
	result, err := runner.Run(context.Background(), t.TempDir(), "echo hello")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
	if strings.TrimSpace(result.Stdout) != "hello" {
		t.Errorf("Stdout = %q", result.Stdout)
	}
}

func TestExecRunnerNonZeroExitIsNotAnError(t *testing.T) {
	runner := &ExecRunner{}
	result, err := runner.Run(context.Background(), t.TempDir(), "exit 3")
	if err != nil {
		t.Fatalf("Run() error = %v, want nil for non-zero exit", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}
}

func TestExecRunnerRunsInWorkdir(t *testing.T) {
	dir := t.TempDir()
	runner := &ExecRunner{}
	result, err := runner.Run(context.Background(), dir, "pwd")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(result.Stdout) != dir {
		t.Errorf("pwd = %q, want %q", strings.TrimSpace(result.Stdout), dir)
	}
}

func TestStubRunnerScriptedExitCodes(t *testing.T) {
	runner := NewStubRunner()
	runner.ExitCodes = map[string]int{"npm test": 1}

	ok, err := runner.Run(context.Background(), "", "npm install")
	if err != nil || ok.ExitCode != 0 {
		t.Errorf("Run(npm install) = %d, %v", ok.ExitCode, err)
	}

	fail, err := runner.Run(context.Background(), "", "npm test")
	if err != nil || fail.ExitCode != 1 {
		t.Errorf("Run(npm test) = %d, %v, want scripted exit 1", fail.ExitCode, err)
	}

	if len(runner.Ran) != 2 || runner.Ran[0] != "npm install" {
		t.Errorf("Ran = %v", runner.Ran)
	}
}

func TestStubRunnerSpawnFailure(t *testing.T) {
	spawnErr := errors.New("no shell")
	runner := &StubRunner{Err: spawnErr}

	result, err := runner.Run(context.Background(), "", "ls")
	if !errors.Is(err, spawnErr) {
		t.Fatalf("error = %v", err)
	}
	if result.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", result.ExitCode)
	}
}
