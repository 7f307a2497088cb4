package model

import "context"

// Stub is a scripted streamer for testing.
// Emits Chunks in order, then returns Err (nil for a clean end).
type Stub struct {
	// Chunks are the fragments delivered in order.
	Chunks []string
	// Err is returned after all chunks are delivered.
	Err error
	// FailAfter, when >= 0, returns Err after delivering that many chunks.
	// Defaults to -1 (deliver everything first).
	FailAfter int

	// Calls counts Stream invocations, for retry assertions.
	Calls int
}

// NewStub creates a stub that delivers all chunks then ends cleanly.
func NewStub(chunks ...string) *Stub {
	return &Stub{Chunks: chunks, FailAfter: -1}
}

// Stream delivers the scripted chunks.
func (s *Stub) Stream(ctx context.Context, _ string, onChunk ChunkFunc) error {
	s.Calls++
	for i, c := range s.Chunks {
		if s.FailAfter >= 0 && i == s.FailAfter {
			return s.Err
		}
		if err := onChunk(ctx, []byte(c)); err != nil {
			return err
		}
	}
	if s.FailAfter >= 0 && s.FailAfter >= len(s.Chunks) {
		return s.Err
	}
	if s.FailAfter < 0 && s.Err != nil {
		return s.Err
	}
	return nil
}

// Name identifies the stub provider.
func (s *Stub) Name() string {
	return "stub"
}

var _ Streamer = (*Stub)(nil)
