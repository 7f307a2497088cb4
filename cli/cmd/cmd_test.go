package cmd

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/codeloom-io/loom/relay"
	"github.com/codeloom-io/loom/store"
	"github.com/codeloom-io/loom/types"
)

const replayMarkup = `Here is your project.
<boltArtifact id="demo-app" title="Demo App">
<boltAction type="file" path="index.html"><!doctype html>
<h1>hello</h1>
</boltAction>
<boltAction type="shell">npx serve .</boltAction>
</boltArtifact>
Done.`

// testApp builds the CLI app with a no-op exit handler so cli.Exit errors
// come back from Run instead of terminating the test process.
func testApp() *cli.App {
	return &cli.App{
		Name:           "loom",
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			GenerateCommand(),
			ReplayCommand(),
			InspectCommand(),
			StatsCommand(),
			ListCommand(),
			DebugCommand(),
			VersionCommand("test"),
		},
	}
}

func exitCodeOf(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var coder cli.ExitCoder
	if !errors.As(err, &coder) {
		t.Fatalf("error is not an ExitCoder: %v", err)
	}
	return coder.ExitCode()
}

func writeTranscript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReplayPersistsTurn(t *testing.T) {
	transcript := writeTranscript(t, replayMarkup)
	storeDir := t.TempDir()

	err := testApp().Run([]string{
		"loom", "replay",
		"--transcript", transcript,
		"--storage-backend", "fs",
		"--storage-path", storeDir,
		"--project", "static",
		"--turn-id", "turn-cli-1",
		"--quiet",
	})
	if code := exitCodeOf(t, err); code != 0 {
		t.Fatalf("exit code = %d, want 0 (err: %v)", code, err)
	}

	reader := store.NewReader(store.NewFSBackend(storeDir))
	ctx := t.Context()

	cfg, err := reader.FindTurn(ctx, "turn-cli-1")
	if err != nil {
		t.Fatalf("FindTurn() error = %v", err)
	}
	if cfg.Provider != "transcript" || cfg.Project != "static" {
		t.Errorf("partition = %+v", cfg)
	}

	records, err := reader.ReadActions(ctx, cfg)
	if err != nil {
		t.Fatalf("ReadActions() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("actions = %d, want container + file + shell", len(records))
	}

	result, err := reader.ReadResult(ctx, cfg)
	if err != nil {
		t.Fatalf("ReadResult() error = %v", err)
	}
	if result.Status != string(types.OutcomeCompleted) {
		t.Errorf("result status = %s, want completed", result.Status)
	}
	if result.ActionCount != 3 {
		t.Errorf("action count = %d, want 3", result.ActionCount)
	}
}

func TestReplayEmptyTranscriptExitCode(t *testing.T) {
	transcript := writeTranscript(t, "just prose, no build markup")

	err := testApp().Run([]string{
		"loom", "replay",
		"--transcript", transcript,
		"--project", "static",
		"--quiet",
	})
	if code := exitCodeOf(t, err); code != 1 {
		t.Fatalf("exit code = %d, want 1 for empty output", code)
	}
}

func TestReplayMissingTranscriptExitCode(t *testing.T) {
	err := testApp().Run([]string{
		"loom", "replay",
		"--transcript", filepath.Join(t.TempDir(), "absent.txt"),
		"--project", "static",
		"--quiet",
	})
	if code := exitCodeOf(t, err); code != 2 {
		t.Fatalf("exit code = %d, want 2 for transport failure", code)
	}
}

func TestReplayWritesReport(t *testing.T) {
	transcript := writeTranscript(t, replayMarkup)
	reportPath := filepath.Join(t.TempDir(), "report.json")

	err := testApp().Run([]string{
		"loom", "replay",
		"--transcript", transcript,
		"--project", "static",
		"--report", reportPath,
		"--quiet",
	})
	if code := exitCodeOf(t, err); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("report is empty")
	}
}

// seedTurn persists one turn directly through the store for read-command tests.
func seedTurn(t *testing.T, backend store.Backend, turnID, project, status string) {
	t.Helper()
	ctx := t.Context()

	s, err := store.New(backend, store.Config{
		Provider: "transcript",
		Project:  project,
		Day:      "2026-08-30",
		TurnID:   turnID,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	meta := &types.TurnMeta{TurnID: turnID, Attempt: 1}
	actions := []*types.Action{
		{SequenceID: 0, Kind: types.ActionCreateContainer, Title: "Demo App", Status: types.StatusInProgress},
		{SequenceID: 1, Kind: types.ActionWriteFile, Path: "index.html", Content: "<h1>hi</h1>", Status: types.StatusCompleted},
	}
	if err := s.WriteActions(ctx, meta, actions); err != nil {
		t.Fatal(err)
	}

	record := &store.TurnRecord{
		RecordKind:   store.RecordKindTurn,
		Status:       status,
		TurnID:       turnID,
		Attempt:      1,
		ActionCount:  2,
		FilesWritten: 1,
		Provider:     "transcript",
		Project:      project,
		Day:          "2026-08-30",
	}
	if err := s.WriteResult(ctx, record); err != nil {
		t.Fatal(err)
	}
}

func TestListTurnRows(t *testing.T) {
	backend := store.NewMemBackend()
	seedTurn(t, backend, "turn-a", "react", "completed")
	seedTurn(t, backend, "turn-b", "static", "empty_output")

	rows, err := listTurnRows(t.Context(), store.NewReader(backend))
	if err != nil {
		t.Fatalf("listTurnRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	byID := make(map[string]TurnRow)
	for _, row := range rows {
		byID[row.TurnID] = row
	}
	if byID["turn-a"].Status != "completed" || byID["turn-a"].Project != "react" {
		t.Errorf("turn-a = %+v", byID["turn-a"])
	}
	if byID["turn-b"].Status != "empty_output" {
		t.Errorf("turn-b = %+v", byID["turn-b"])
	}
}

func TestLoadTurnDetail(t *testing.T) {
	backend := store.NewMemBackend()
	seedTurn(t, backend, "turn-detail", "vue", "completed")

	detail, err := loadTurnDetail(t.Context(), store.NewReader(backend), "turn-detail")
	if err != nil {
		t.Fatalf("loadTurnDetail() error = %v", err)
	}

	if detail.Project != "vue" || detail.Status != "completed" {
		t.Errorf("detail = %+v", detail)
	}
	if detail.ContainerTitle != "Demo App" {
		t.Errorf("container title = %q", detail.ContainerTitle)
	}
	if len(detail.Actions) != 2 {
		t.Errorf("actions = %d, want 2", len(detail.Actions))
	}
}

func TestLoadTurnDetailNotFound(t *testing.T) {
	_, err := loadTurnDetail(t.Context(), store.NewReader(store.NewMemBackend()), "nope")
	if !errors.Is(err, store.ErrTurnNotFound) {
		t.Fatalf("error = %v, want ErrTurnNotFound", err)
	}
}

func TestAggregateTurnStats(t *testing.T) {
	backend := store.NewMemBackend()
	seedTurn(t, backend, "turn-1", "react", "completed")
	seedTurn(t, backend, "turn-2", "react", "completed")
	seedTurn(t, backend, "turn-3", "static", "empty_output")
	seedTurn(t, backend, "turn-4", "node", "transport_failure")

	stats, err := aggregateTurnStats(t.Context(), store.NewReader(backend))
	if err != nil {
		t.Fatalf("aggregateTurnStats() error = %v", err)
	}

	if stats.Total != 4 || stats.Completed != 2 || stats.EmptyOutput != 1 || stats.TransportFailed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ByProject["react"] != 2 {
		t.Errorf("by_project = %v", stats.ByProject)
	}
	if stats.ByProvider["transcript"] != 4 {
		t.Errorf("by_provider = %v", stats.ByProvider)
	}
}

func TestBuildRelayModes(t *testing.T) {
	sink := relay.NewStubSink()

	if _, err := buildRelay(relayChoice{mode: "live"}, sink); err != nil {
		t.Errorf("live relay error = %v", err)
	}
	if _, err := buildRelay(relayChoice{mode: "buffered", flushCount: 5}, sink); err != nil {
		t.Errorf("buffered relay error = %v", err)
	}
	if _, err := buildRelay(relayChoice{mode: "buffered"}, sink); err == nil {
		t.Error("buffered relay without triggers should fail")
	}
	if _, err := buildRelay(relayChoice{mode: "bogus"}, sink); err == nil {
		t.Error("unknown relay mode should fail")
	}
}

func TestBuildAdapterChoices(t *testing.T) {
	if a, err := buildAdapter(adapterChoice{kind: "none", retries: -1}); err != nil || a != nil {
		t.Errorf("none adapter = (%v, %v), want (nil, nil)", a, err)
	}
	if a, err := buildAdapter(adapterChoice{retries: -1}); err != nil || a != nil {
		t.Errorf("empty adapter = (%v, %v), want (nil, nil)", a, err)
	}
	if _, err := buildAdapter(adapterChoice{kind: "webhook", retries: -1}); err == nil {
		t.Error("webhook without URL should fail")
	}
	if _, err := buildAdapter(adapterChoice{kind: "kafka", retries: -1}); err == nil {
		t.Error("unknown adapter kind should fail")
	}
	a, err := buildAdapter(adapterChoice{kind: "webhook", url: "http://localhost:1/hook", retries: -1})
	if err != nil || a == nil {
		t.Fatalf("webhook adapter = (%v, %v)", a, err)
	}
	_ = a.Close()
}

func TestTurnMetaFromContext(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("turn-id", "", "")
	set.String("session-id", "", "")
	set.String("parent-turn-id", "", "")
	set.Int("attempt", 1, "")
	if err := set.Parse([]string{}); err != nil {
		t.Fatal(err)
	}
	c := cli.NewContext(testApp(), set, nil)

	meta := turnMetaFromContext(c)
	if meta.TurnID == "" {
		t.Error("missing turn ID should be generated")
	}
	if meta.Attempt != 1 || meta.SessionID != nil || meta.ParentTurnID != nil {
		t.Errorf("meta = %+v", meta)
	}

	set2 := flag.NewFlagSet("test", flag.ContinueOnError)
	set2.String("turn-id", "", "")
	set2.String("session-id", "", "")
	set2.String("parent-turn-id", "", "")
	set2.Int("attempt", 1, "")
	if err := set2.Parse([]string{"-turn-id", "t2", "-session-id", "s1", "-parent-turn-id", "t1", "-attempt", "2"}); err != nil {
		t.Fatal(err)
	}
	c2 := cli.NewContext(testApp(), set2, nil)

	meta2 := turnMetaFromContext(c2)
	if meta2.TurnID != "t2" || meta2.Attempt != 2 {
		t.Errorf("meta2 = %+v", meta2)
	}
	if meta2.SessionID == nil || *meta2.SessionID != "s1" {
		t.Errorf("session = %v", meta2.SessionID)
	}
	if meta2.ParentTurnID == nil || *meta2.ParentTurnID != "t1" {
		t.Errorf("parent = %v", meta2.ParentTurnID)
	}
}
