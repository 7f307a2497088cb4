package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrTurnNotFound is returned when no partition exists for a turn ID.
var ErrTurnNotFound = errors.New("turn not found")

// Reader reads stored turns back from a backend.
type Reader struct {
	backend Backend
}

// NewReader creates a reader over a backend.
func NewReader(backend Backend) *Reader {
	return &Reader{backend: backend}
}

// ReadActions returns every action record of one turn partition, ordered by
// segment number and frame position. Segment numbering makes lexical key
// order equal to write order.
func (r *Reader) ReadActions(ctx context.Context, cfg Config) ([]*ActionRecord, error) {
	prefix := cfg.partitionPrefix() + "/"
	keys, err := r.backend.List(ctx, prefix)
	if err != nil {
		return nil, WrapListError(err, prefix)
	}

	var records []*ActionRecord
	for _, key := range keys {
		name := strings.TrimPrefix(key, prefix)
		if !strings.HasPrefix(name, "actions-") || !strings.HasSuffix(name, ".seg") {
			continue
		}

		data, err := r.backend.Get(ctx, key)
		if err != nil {
			return nil, WrapReadError(err, key)
		}

		decoder := NewFrameDecoder(bytes.NewReader(data))
		for {
			payload, err := decoder.ReadFrame()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("segment %s: %w", key, err)
			}
			record, err := DecodeActionRecord(payload)
			if err != nil {
				return nil, fmt.Errorf("segment %s: %w", key, err)
			}
			records = append(records, record)
		}
	}

	return records, nil
}

// ReadResult returns the turn's result record, or ErrTurnNotFound if the
// turn never wrote one.
func (r *Reader) ReadResult(ctx context.Context, cfg Config) (*TurnRecord, error) {
	key := cfg.partitionPrefix() + "/result.seg"
	data, err := r.backend.Get(ctx, key)
	if err != nil {
		wrapped := WrapReadError(err, key)
		if errors.Is(wrapped, ErrNotFound) {
			return nil, ErrTurnNotFound
		}
		return nil, wrapped
	}

	decoder := NewFrameDecoder(bytes.NewReader(data))
	payload, err := decoder.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", key, err)
	}
	return DecodeTurnRecord(payload)
}

// FindTurn locates the partition for a turn ID by scanning the dataset.
// Returns ErrTurnNotFound if no partition carries the ID.
func (r *Reader) FindTurn(ctx context.Context, turnID string) (Config, error) {
	prefix := fmt.Sprintf("datasets/%s/partitions/", DatasetName)
	keys, err := r.backend.List(ctx, prefix)
	if err != nil {
		return Config{}, WrapListError(err, prefix)
	}

	target := "turn_id=" + turnID
	for _, key := range keys {
		if !pathHasSegment(key, target) {
			continue
		}
		cfg := Config{
			Provider: partitionValue(key, "provider"),
			Project:  partitionValue(key, "project"),
			Day:      partitionValue(key, "day"),
			TurnID:   turnID,
		}
		if cfg.Validate() == nil {
			return cfg, nil
		}
	}
	return Config{}, fmt.Errorf("%w: %s", ErrTurnNotFound, turnID)
}

// ListTurns enumerates every stored turn partition, sorted by partition key.
func (r *Reader) ListTurns(ctx context.Context) ([]Config, error) {
	prefix := fmt.Sprintf("datasets/%s/partitions/", DatasetName)
	keys, err := r.backend.List(ctx, prefix)
	if err != nil {
		return nil, WrapListError(err, prefix)
	}

	seen := make(map[string]Config)
	for _, key := range keys {
		cfg := Config{
			Provider: partitionValue(key, "provider"),
			Project:  partitionValue(key, "project"),
			Day:      partitionValue(key, "day"),
			TurnID:   partitionValue(key, "turn_id"),
		}
		if cfg.Validate() != nil {
			continue
		}
		seen[cfg.partitionPrefix()] = cfg
	}

	prefixes := make([]string, 0, len(seen))
	for p := range seen {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	out := make([]Config, 0, len(seen))
	for _, p := range prefixes {
		out = append(out, seen[p])
	}
	return out, nil
}

// pathHasSegment checks whether a slash-delimited key contains an exact
// segment. Exact matching avoids substring false positives (turn_id=t-1
// matching turn_id=t-10).
func pathHasSegment(key, segment string) bool {
	for _, part := range strings.Split(key, "/") {
		if part == segment {
			return true
		}
	}
	return false
}

// partitionValue extracts the value of a Hive partition key from a path,
// or "" if the key is absent.
func partitionValue(key, name string) string {
	marker := name + "="
	for _, part := range strings.Split(key, "/") {
		if strings.HasPrefix(part, marker) {
			return strings.TrimPrefix(part, marker)
		}
	}
	return ""
}
