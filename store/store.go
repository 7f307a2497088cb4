package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/codeloom-io/loom/types"
)

// DatasetName is the fixed dataset identifier for all stored turns.
const DatasetName = "loom"

// DeriveDay computes the partition day from turn start time.
// Format: YYYY-MM-DD in UTC.
func DeriveDay(startTime time.Time) string {
	return startTime.UTC().Format("2006-01-02")
}

// Config holds store partition configuration.
// All partition keys are required.
type Config struct {
	// Provider is the partition key for the model provider (openai, anthropic,
	// ollama, transcript).
	Provider string
	// Project is the partition key for the classified project type.
	Project string
	// Day is the partition key derived from turn start time (YYYY-MM-DD UTC).
	Day string
	// TurnID is the partition key for the turn identifier.
	TurnID string
}

// Validate checks that all partition keys are present.
func (c *Config) Validate() error {
	switch {
	case c.Provider == "":
		return errors.New("store config: provider is required")
	case c.Project == "":
		return errors.New("store config: project is required")
	case c.Day == "":
		return errors.New("store config: day is required")
	case c.TurnID == "":
		return errors.New("store config: turn_id is required")
	}
	return nil
}

// partitionPrefix computes the Hive-partitioned key prefix for this turn.
// Format: datasets/loom/partitions/provider=<p>/project=<t>/day=<d>/turn_id=<id>
func (c *Config) partitionPrefix() string {
	return fmt.Sprintf("datasets/%s/partitions/provider=%s/project=%s/day=%s/turn_id=%s",
		DatasetName, c.Provider, c.Project, c.Day, c.TurnID)
}

// Backend abstracts byte storage for segments and sidecar files.
// Keys are slash-separated paths relative to the backend root.
type Backend interface {
	// Put writes an object. Overwrites any existing object at key.
	Put(ctx context.Context, key string, data []byte) error

	// Get reads an object in full.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all keys under the given prefix, sorted lexically.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases backend resources.
	Close() error
}

// Store persists a single turn's actions, result, and materialized files
// under one Hive partition.
type Store struct {
	backend Backend
	config  Config

	mu      sync.Mutex // guards segment numbering
	nextSeg int
}

// New creates a store for one turn. Config must be valid.
func New(backend Backend, config Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Store{backend: backend, config: config}, nil
}

// Config returns the store's partition configuration.
func (s *Store) Config() Config {
	return s.config
}

// WriteActions persists a batch of actions as one numbered segment.
// Ordering within the batch is preserved; batches are ordered by segment
// number. Segment state is only advanced after a successful write.
func (s *Store) WriteActions(ctx context.Context, meta *types.TurnMeta, actions []*types.Action) error {
	if len(actions) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	now := time.Now()
	for _, a := range actions {
		if err := EncodeFrame(&buf, toActionRecord(a, meta, s.config, now)); err != nil {
			return err
		}
	}

	key := fmt.Sprintf("%s/actions-%05d.seg", s.config.partitionPrefix(), s.nextSeg)
	if err := s.backend.Put(ctx, key, buf.Bytes()); err != nil {
		return WrapWriteError(err, key)
	}

	s.nextSeg++
	return nil
}

// WriteResult persists the turn's final result record.
func (s *Store) WriteResult(ctx context.Context, record *TurnRecord) error {
	record.RecordKind = RecordKindTurn
	record.Provider = s.config.Provider
	record.Project = s.config.Project
	record.Day = s.config.Day
	record.TurnID = s.config.TurnID
	if record.Ts == "" {
		record.Ts = time.Now().UTC().Format(time.RFC3339Nano)
	}

	var buf bytes.Buffer
	if err := EncodeFrame(&buf, record); err != nil {
		return err
	}

	key := s.config.partitionPrefix() + "/result.seg"
	if err := s.backend.Put(ctx, key, buf.Bytes()); err != nil {
		return WrapWriteError(err, key)
	}
	return nil
}

// PutFile writes a materialized file snapshot under the files/ prefix.
// The path is the workspace-relative file path.
func (s *Store) PutFile(ctx context.Context, path string, data []byte) error {
	key := s.config.partitionPrefix() + "/files/" + path
	if err := s.backend.Put(ctx, key, data); err != nil {
		return WrapWriteError(err, key)
	}
	return nil
}

// Close releases the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
