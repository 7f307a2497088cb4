package runtime

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/codeloom-io/loom/log"
	"github.com/codeloom-io/loom/metrics"
	"github.com/codeloom-io/loom/relay"
	"github.com/codeloom-io/loom/types"
)

// FileStore persists materialized file snapshots alongside the action log.
// Satisfied by store.Store.
type FileStore interface {
	PutFile(ctx context.Context, path string, data []byte) error
}

// MaterializerConfig configures a Materializer.
type MaterializerConfig struct {
	// Tree receives extracted file contents. Required.
	Tree *FileTree
	// Runner executes extracted shell commands. If nil, command actions
	// are marked completed without execution (dry-run).
	Runner CommandRunner
	// Workdir is the directory where files are mirrored to disk and
	// commands run. Empty keeps the workspace in memory only; command
	// actions then skip execution.
	Workdir string
	// Store persists file snapshots. May be nil.
	Store FileStore
	// Collector records materialization metrics. May be nil.
	Collector *metrics.Collector
	// Logger is optional.
	Logger *log.Logger
}

// Materializer applies extracted actions to the workspace: file actions
// land in the FileTree (and on disk when a workdir is set), command actions
// run through the CommandRunner.
//
// Action statuses are mutated in place before any later sink in the fan-out
// sees the batch, so persisted and streamed statuses reflect materialization.
// A failed command marks its action failed but does not fail the turn.
//
// Delivery is at-least-once: a buffered relay re-delivers the whole batch
// when a later sink fails the flush. Each sequence ID is applied exactly
// once; re-delivered actions are skipped.
type Materializer struct {
	config MaterializerConfig

	mu             sync.Mutex
	applied        map[int64]bool
	containerTitle string
	commands       []*CommandResult
}

// NewMaterializer creates a materializer.
func NewMaterializer(config MaterializerConfig) *Materializer {
	return &Materializer{
		config:  config,
		applied: make(map[int64]bool),
	}
}

// ApplyActions implements relay.Sink.
func (m *Materializer) ApplyActions(ctx context.Context, actions []*types.Action) error {
	for _, a := range actions {
		m.mu.Lock()
		seen := m.applied[a.SequenceID]
		m.mu.Unlock()
		if seen {
			continue
		}

		switch a.Kind {
		case types.ActionCreateContainer:
			m.mu.Lock()
			m.containerTitle = a.Title
			m.mu.Unlock()
			m.logInfo("container declared", map[string]any{"title": a.Title})

		case types.ActionWriteFile:
			if err := m.applyFile(ctx, a); err != nil {
				return err
			}

		case types.ActionRunCommand:
			m.applyCommand(ctx, a)
		}

		// A snapshot persistence failure returns above without marking, so
		// the retried batch re-attempts that action.
		m.mu.Lock()
		m.applied[a.SequenceID] = true
		m.mu.Unlock()
	}
	return nil
}

// applyFile writes one file action into the tree, mirrors it to disk and
// the store when configured. A rejected path marks the action failed and
// is skipped; workspace escape attempts never abort the turn.
func (m *Materializer) applyFile(ctx context.Context, a *types.Action) error {
	a.Status = types.StatusInProgress

	if err := m.config.Tree.Write(a.Path, a.Content); err != nil {
		a.Status = types.StatusFailed
		m.logWarn("file rejected", map[string]any{"path": a.Path, "error": err.Error()})
		return nil
	}

	if m.config.Workdir != "" {
		target := filepath.Join(m.config.Workdir, filepath.FromSlash(a.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err == nil {
			err = os.WriteFile(target, []byte(a.Content), 0o644)
			if err != nil {
				a.Status = types.StatusFailed
				m.logWarn("file write failed", map[string]any{"path": a.Path, "error": err.Error()})
				return nil
			}
		} else {
			a.Status = types.StatusFailed
			m.logWarn("file write failed", map[string]any{"path": a.Path, "error": err.Error()})
			return nil
		}
	}

	if m.config.Store != nil {
		if err := m.config.Store.PutFile(ctx, a.Path, []byte(a.Content)); err != nil {
			// Snapshot persistence failure is a store failure, which does
			// abort the turn.
			a.Status = types.StatusFailed
			return err
		}
	}

	a.Status = types.StatusCompleted
	m.config.Collector.IncFileWritten()
	m.logInfo("file written", map[string]any{"path": a.Path, "bytes": len(a.Content)})
	return nil
}

// applyCommand runs one command action. Skipped without a runner or workdir.
func (m *Materializer) applyCommand(ctx context.Context, a *types.Action) {
	if m.config.Runner == nil || m.config.Workdir == "" {
		a.Status = types.StatusCompleted
		m.logInfo("command skipped (dry-run)", map[string]any{"command": a.Content})
		return
	}

	a.Status = types.StatusInProgress
	result, err := m.config.Runner.Run(ctx, m.config.Workdir, a.Content)

	m.mu.Lock()
	m.commands = append(m.commands, result)
	m.mu.Unlock()

	m.config.Collector.IncCommandRun()

	if err != nil || result.ExitCode != 0 {
		a.Status = types.StatusFailed
		m.config.Collector.IncCommandFailed()
		fields := map[string]any{"command": a.Content, "exit_code": result.ExitCode}
		if err != nil {
			fields["error"] = err.Error()
		}
		m.logWarn("command failed", fields)
		return
	}

	a.Status = types.StatusCompleted
	m.logInfo("command completed", map[string]any{
		"command":  a.Content,
		"duration": result.Duration.String(),
	})
}

// Close implements relay.Sink.
func (m *Materializer) Close() error {
	return nil
}

// ContainerTitle returns the declared container title, if any.
func (m *Materializer) ContainerTitle() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.containerTitle
}

// Commands returns the executed command results in order.
func (m *Materializer) Commands() []*CommandResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*CommandResult, len(m.commands))
	copy(out, m.commands)
	return out
}

func (m *Materializer) logInfo(msg string, fields map[string]any) {
	if m.config.Logger != nil {
		m.config.Logger.Info(msg, fields)
	}
}

func (m *Materializer) logWarn(msg string, fields map[string]any) {
	if m.config.Logger != nil {
		m.config.Logger.Warn(msg, fields)
	}
}

var _ relay.Sink = (*Materializer)(nil)
