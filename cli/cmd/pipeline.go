package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/codeloom-io/loom/adapter"
	redisadapter "github.com/codeloom-io/loom/adapter/redis"
	"github.com/codeloom-io/loom/adapter/webhook"
	"github.com/codeloom-io/loom/classify"
	"github.com/codeloom-io/loom/cli/config"
	"github.com/codeloom-io/loom/metrics"
	"github.com/codeloom-io/loom/model"
	"github.com/codeloom-io/loom/relay"
	"github.com/codeloom-io/loom/runtime"
	"github.com/codeloom-io/loom/store"
	"github.com/codeloom-io/loom/types"
)

// adapterPublishTimeout bounds the completion event publish after a turn.
const adapterPublishTimeout = 30 * time.Second

// loadConfigFile loads the YAML config named by --config, or returns an
// empty config when the flag is unset.
func loadConfigFile(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// turnMetaFromContext builds turn identity from flags. A missing turn ID
// gets a generated UUID.
func turnMetaFromContext(c *cli.Context) *types.TurnMeta {
	meta := &types.TurnMeta{
		TurnID:  c.String("turn-id"),
		Attempt: c.Int("attempt"),
	}
	if meta.TurnID == "" {
		meta.TurnID = uuid.NewString()
	}
	if sessionID := c.String("session-id"); sessionID != "" {
		meta.SessionID = &sessionID
	}
	if parentTurnID := c.String("parent-turn-id"); parentTurnID != "" {
		meta.ParentTurnID = &parentTurnID
	}
	return meta
}

// relayChoice holds resolved relay configuration.
type relayChoice struct {
	mode          string
	flushCount    int
	flushInterval time.Duration
}

func relayFromContext(c *cli.Context, cfg *config.Config) relayChoice {
	choice := relayChoice{
		mode:          cfg.Relay.Mode,
		flushCount:    cfg.Relay.FlushCount,
		flushInterval: cfg.Relay.FlushInterval.Duration,
	}
	if c.IsSet("relay") || choice.mode == "" {
		choice.mode = c.String("relay")
	}
	if c.IsSet("flush-count") {
		choice.flushCount = c.Int("flush-count")
	}
	if c.IsSet("flush-interval") {
		choice.flushInterval = c.Duration("flush-interval")
	}
	return choice
}

func buildRelay(choice relayChoice, sink relay.Sink) (relay.Relay, error) {
	switch choice.mode {
	case "live", "":
		return relay.NewLiveRelay(sink, nil), nil
	case "buffered":
		return relay.NewBufferedRelay(sink, relay.BufferedConfig{
			FlushCount:    choice.flushCount,
			FlushInterval: choice.flushInterval,
		})
	default:
		return nil, fmt.Errorf("invalid relay mode: %s (must be live or buffered)", choice.mode)
	}
}

// adapterChoice holds resolved completion adapter configuration.
type adapterChoice struct {
	kind    string
	url     string
	channel string
	headers map[string]string
	timeout time.Duration
	retries int
}

func adapterFromContext(c *cli.Context, cfg *config.Config) adapterChoice {
	choice := adapterChoice{
		kind:    cfg.Adapter.Type,
		url:     cfg.Adapter.URL,
		channel: cfg.Adapter.Channel,
		headers: cfg.Adapter.Headers,
		timeout: cfg.Adapter.Timeout.Duration,
		retries: -1,
	}
	if cfg.Adapter.Retries != nil {
		choice.retries = *cfg.Adapter.Retries
	}
	if c.IsSet("adapter") || choice.kind == "" {
		choice.kind = c.String("adapter")
	}
	if c.IsSet("adapter-url") || choice.url == "" {
		choice.url = c.String("adapter-url")
	}
	if c.IsSet("adapter-channel") || choice.channel == "" {
		choice.channel = c.String("adapter-channel")
	}
	return choice
}

// buildAdapter creates the completion adapter, or nil when none configured.
func buildAdapter(choice adapterChoice) (adapter.Adapter, error) {
	retries := choice.retries
	if retries < 0 {
		retries = adapter.DefaultRetries
	}

	switch choice.kind {
	case "", "none":
		return nil, nil
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     choice.url,
			Headers: choice.headers,
			Timeout: choice.timeout,
			Retries: retries,
		})
	case "redis":
		return redisadapter.New(redisadapter.Config{
			URL:     choice.url,
			Channel: choice.channel,
			Timeout: choice.timeout,
			Retries: retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter type: %s (must be webhook, redis, or none)", choice.kind)
	}
}

// executeTurn runs one full turn through the pipeline: classify, store,
// materialize, relay, orchestrate, notify. The streamer is provided by the
// calling command (live provider for generate, transcript for replay).
func executeTurn(c *cli.Context, cfg *config.Config, streamer model.Streamer, prompt string) error {
	meta := turnMetaFromContext(c)
	startTime := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Project partition key: explicit flag wins, otherwise classify the
	// prompt (keywords first, model fallback).
	project := c.String("project")
	if project == "" {
		project = classify.New(streamer).Classify(ctx, prompt)
	}

	relayCfg := relayFromContext(c, cfg)

	// Storage is optional: without a path the turn runs in memory only.
	storage := storageFromContext(c, storageChoice{
		backend:   cfg.Storage.Backend,
		path:      cfg.Storage.Path,
		region:    cfg.Storage.Region,
		endpoint:  cfg.Storage.Endpoint,
		pathStyle: cfg.Storage.S3PathStyle,
	})

	var turnStore *store.Store
	backendName := "none"
	if storage.path != "" {
		backend, err := buildBackend(ctx, storage)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		backendName = storage.backend

		turnStore, err = store.New(backend, store.Config{
			Provider: streamer.Name(),
			Project:  project,
			Day:      store.DeriveDay(startTime),
			TurnID:   meta.TurnID,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		defer func() { _ = turnStore.Close() }()
	}

	var sessionID string
	if meta.SessionID != nil {
		sessionID = *meta.SessionID
	}
	collector := metrics.NewCollector(streamer.Name(), relayCfg.mode, backendName, meta.TurnID, sessionID)

	// Workspace materialization. Command execution is opt-in and requires a
	// workdir; file actions always land in the in-memory tree.
	workdir := c.String("workdir")
	if workdir == "" {
		workdir = cfg.Runner.Workdir
	}
	var runner runtime.CommandRunner
	if c.Bool("exec") || cfg.Runner.Enabled {
		runner = &runtime.ExecRunner{Timeout: cfg.Runner.Timeout.Duration}
	}

	tree := runtime.NewFileTree()
	materializer := runtime.NewMaterializer(runtime.MaterializerConfig{
		Tree:      tree,
		Runner:    runner,
		Workdir:   workdir,
		Store:     fileStoreOrNil(turnStore),
		Collector: collector,
	})

	// Materializer runs first in the fan-out so persisted statuses reflect
	// materialization.
	sinks := []relay.Sink{materializer}
	if turnStore != nil {
		sinks = append(sinks, store.NewSink(turnStore, meta, collector))
	}

	rly, err := buildRelay(relayCfg, relay.NewMulti(sinks...))
	if err != nil {
		return err
	}

	orchestrator, err := runtime.NewTurnOrchestrator(&runtime.TurnConfig{
		Meta:         meta,
		Prompt:       prompt,
		Streamer:     streamer,
		Relay:        rly,
		Materializer: materializer,
		Tree:         tree,
		Store:        turnStore,
		Collector:    collector,
	})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	result, err := orchestrator.Execute(ctx)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	exitCode := runtime.ExitCodeFor(result.Outcome.Status)

	publishCompletion(c, cfg, result, streamer.Name(), project, store.DeriveDay(startTime))

	if !c.Bool("quiet") {
		printTurnResult(result, relayCfg)
	}

	if reportPath := c.String("report"); reportPath != "" {
		report := runtime.BuildTurnReport(result, collector.Snapshot(), exitCode)
		if err := runtime.WriteTurnReport(report, reportPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write report: %v\n", err)
		}
	}

	return cli.Exit("", exitCode)
}

// fileStoreOrNil avoids a typed-nil FileStore interface when no store is
// configured.
func fileStoreOrNil(s *store.Store) runtime.FileStore {
	if s == nil {
		return nil
	}
	return s
}

// publishCompletion sends the turn completion event through the configured
// adapter. Publish failures warn but never change the turn outcome.
func publishCompletion(c *cli.Context, cfg *config.Config, result *runtime.TurnResult, provider, project, day string) {
	choice := adapterFromContext(c, cfg)
	pub, err := buildAdapter(choice)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: adapter setup failed: %v\n", err)
		return
	}
	if pub == nil {
		return
	}
	defer func() { _ = pub.Close() }()

	event := &adapter.TurnCompletedEvent{
		EventType:      adapter.EventType,
		TurnID:         result.Meta.TurnID,
		Attempt:        result.Meta.Attempt,
		Outcome:        string(result.Outcome.Status),
		Provider:       provider,
		Project:        project,
		Day:            day,
		ContainerTitle: result.ContainerTitle,
		ActionCount:    result.ActionCount,
		FilesWritten:   int64(len(result.Files)),
		DurationMs:     result.Duration.Milliseconds(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
	if result.Meta.SessionID != nil {
		event.SessionID = *result.Meta.SessionID
	}

	ctx, cancel := context.WithTimeout(context.Background(), adapterPublishTimeout)
	defer cancel()

	if err := pub.Publish(ctx, event); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: completion publish failed: %v\n", err)
	}
}

func printTurnResult(result *runtime.TurnResult, choice relayChoice) {
	fmt.Printf("\nturn_id=%s, attempt=%d, outcome=%s, duration=%s\n",
		result.Meta.TurnID,
		result.Meta.Attempt,
		result.Outcome.Status,
		result.Duration.Round(time.Millisecond),
	)

	if choice.mode == "buffered" {
		fmt.Printf("relay=buffered, flush_count=%d, flushes=%d\n",
			choice.flushCount, result.RelayStats.FlushCount)
	} else {
		fmt.Printf("relay=live\n")
	}

	fmt.Printf("\n=== Turn Result ===\n")
	fmt.Printf("Turn ID:      %s\n", result.Meta.TurnID)
	if result.Meta.SessionID != nil {
		fmt.Printf("Session:      %s\n", *result.Meta.SessionID)
	}
	if result.Meta.ParentTurnID != nil {
		fmt.Printf("Parent Turn:  %s\n", *result.Meta.ParentTurnID)
	}
	fmt.Printf("Attempt:      %d\n", result.Meta.Attempt)
	fmt.Printf("Outcome:      %s\n", result.Outcome.Status)
	fmt.Printf("Message:      %s\n", result.Outcome.Message)
	fmt.Printf("Duration:     %s\n", result.Duration)
	if result.ContainerTitle != "" {
		fmt.Printf("Artifact:     %s\n", result.ContainerTitle)
	}
	fmt.Printf("Actions:      %d\n", result.ActionCount)

	if len(result.Files) > 0 {
		fmt.Printf("\n=== Files ===\n")
		for _, f := range result.Files {
			fmt.Printf("  %s (%d bytes)\n", f.Path, f.Size)
		}
	}

	if len(result.Commands) > 0 {
		fmt.Printf("\n=== Commands ===\n")
		for _, cmd := range result.Commands {
			fmt.Printf("  [exit %d] %s (%s)\n", cmd.ExitCode, cmd.Command, cmd.Duration.Round(time.Millisecond))
		}
	}

	fmt.Printf("\n=== Relay Stats ===\n")
	fmt.Printf("Actions Received:  %d\n", result.RelayStats.ActionsReceived)
	fmt.Printf("Actions Delivered: %d\n", result.RelayStats.ActionsDelivered)
	fmt.Printf("Flushes:           %d\n", result.RelayStats.FlushCount)
	fmt.Printf("Errors:            %d\n", result.RelayStats.Errors)
}
