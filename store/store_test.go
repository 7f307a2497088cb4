package store

import (
	"context"
	"testing"

	"github.com/codeloom-io/loom/types"
)

func testConfig() Config {
	return Config{
		Provider: "openai",
		Project:  "node",
		Day:      "2026-08-30",
		TurnID:   "turn-1",
	}
}

func testMeta() *types.TurnMeta {
	return &types.TurnMeta{TurnID: "turn-1", Attempt: 1}
}

func testActions() []*types.Action {
	return []*types.Action{
		{SequenceID: 1, Kind: types.ActionCreateContainer, Title: "Demo", Status: types.StatusCompleted},
		{SequenceID: 2, Kind: types.ActionWriteFile, Title: "a.txt", Path: "a.txt", Content: "hi", Status: types.StatusCompleted},
		{SequenceID: 3, Kind: types.ActionRunCommand, Title: "npm install", Content: "npm install", Status: types.StatusCompleted},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing provider", func(c *Config) { c.Provider = "" }, true},
		{"missing project", func(c *Config) { c.Project = "" }, true},
		{"missing day", func(c *Config) { c.Day = "" }, true},
		{"missing turn_id", func(c *Config) { c.TurnID = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStoreRoundTripMem(t *testing.T) {
	ctx := context.Background()
	backend := NewMemBackend()
	s, err := New(backend, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	actions := testActions()
	if err := s.WriteActions(ctx, testMeta(), actions[:2]); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteActions(ctx, testMeta(), actions[2:]); err != nil {
		t.Fatal(err)
	}

	records, err := NewReader(backend).ReadActions(ctx, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	for i, r := range records {
		if r.SequenceID != int64(i+1) {
			t.Errorf("record %d sequence_id = %d, want %d", i, r.SequenceID, i+1)
		}
		if r.RecordKind != RecordKindAction || r.TurnID != "turn-1" {
			t.Errorf("record %d = %+v", i, r)
		}
	}

	back := records[1].ToAction()
	if back.Kind != types.ActionWriteFile || back.Path != "a.txt" || back.Content != "hi" {
		t.Errorf("ToAction() = %+v", back)
	}
}

func TestStoreRoundTripFS(t *testing.T) {
	ctx := context.Background()
	backend := NewFSBackend(t.TempDir())
	s, err := New(backend, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	if err := s.WriteActions(ctx, testMeta(), testActions()); err != nil {
		t.Fatal(err)
	}
	if err := s.PutFile(ctx, "src/app.js", []byte("const a = 1;")); err != nil {
		t.Fatal(err)
	}

	records, err := NewReader(backend).ReadActions(ctx, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}

	data, err := backend.Get(ctx,
		"datasets/loom/partitions/provider=openai/project=node/day=2026-08-30/turn_id=turn-1/files/src/app.js")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "const a = 1;" {
		t.Errorf("file data = %q", data)
	}
}

func TestStoreWriteResult(t *testing.T) {
	ctx := context.Background()
	backend := NewMemBackend()
	s, err := New(backend, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	record := &TurnRecord{
		Status:      string(types.OutcomeCompleted),
		TurnID:      "turn-1",
		Attempt:     1,
		ActionCount: 3,
	}
	if err := s.WriteResult(ctx, record); err != nil {
		t.Fatal(err)
	}

	got, err := NewReader(backend).ReadResult(ctx, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "completed" || got.ActionCount != 3 {
		t.Errorf("result = %+v", got)
	}
	if got.Provider != "openai" || got.Day != "2026-08-30" {
		t.Errorf("partition keys not stamped: %+v", got)
	}
	if got.Ts == "" {
		t.Error("timestamp not set")
	}
}

func TestStoreEmptyBatchIsNoop(t *testing.T) {
	ctx := context.Background()
	backend := NewMemBackend()
	s, err := New(backend, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	if err := s.WriteActions(ctx, testMeta(), nil); err != nil {
		t.Fatal(err)
	}
	keys, err := backend.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("empty batch wrote %v", keys)
	}
}

func TestStoreInvalidConfig(t *testing.T) {
	if _, err := New(NewMemBackend(), Config{}); err == nil {
		t.Fatal("New() accepted empty config")
	}
}

func TestDeriveDay(t *testing.T) {
	day := DeriveDay(mustTime(t, "2026-08-30T23:59:00-04:00"))
	if day != "2026-08-31" {
		t.Errorf("DeriveDay() = %q, want UTC date 2026-08-31", day)
	}
}
