package model

import (
	"context"
	"fmt"
	"os"
)

// DefaultTranscriptChunkSize matches the typical fragment size of a hosted
// model stream closely enough to exercise chunk-boundary handling.
const DefaultTranscriptChunkSize = 64

// Transcript replays a recorded model response from a file, ignoring the
// prompt. Used by the replay command and for offline development.
type Transcript struct {
	path      string
	chunkSize int
}

// NewTranscript creates a transcript streamer for the given file.
// chunkSize <= 0 uses DefaultTranscriptChunkSize.
func NewTranscript(path string, chunkSize int) *Transcript {
	if chunkSize <= 0 {
		chunkSize = DefaultTranscriptChunkSize
	}
	return &Transcript{path: path, chunkSize: chunkSize}
}

// Stream replays the file contents in fixed-size chunks.
func (t *Transcript) Stream(ctx context.Context, _ string, onChunk ChunkFunc) error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return &TransportError{
			Provider:  ProviderTranscript,
			Retriable: false,
			Err:       fmt.Errorf("read transcript: %w", err),
		}
	}

	for len(data) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(t.chunkSize, len(data))
		if err := onChunk(ctx, data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// Name identifies the transcript provider.
func (t *Transcript) Name() string {
	return ProviderTranscript
}

var _ Streamer = (*Transcript)(nil)
