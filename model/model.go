// Package model abstracts the streaming model transport.
//
// A Streamer issues one prompt and hands the response to a callback chunk by
// chunk, in arrival order. Chunks carry no alignment guarantees; the consumer
// is responsible for reassembly.
package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ChunkFunc receives one response fragment. Returning an error aborts the
// stream and surfaces the error from Stream.
type ChunkFunc func(ctx context.Context, chunk []byte) error

// Streamer issues a prompt and streams the response.
type Streamer interface {
	// Stream sends the prompt and invokes onChunk for every response
	// fragment in order. Returns nil when the stream ends cleanly, or the
	// transport error that ended it.
	Stream(ctx context.Context, prompt string, onChunk ChunkFunc) error

	// Name identifies the provider for logging and partition keys.
	Name() string
}

// Generate runs one prompt to completion and returns the full response text.
// Buffered fallback for callers that have no use for incremental chunks.
// Text received before a transport failure is returned alongside the error.
func Generate(ctx context.Context, s Streamer, prompt string) (string, error) {
	var out strings.Builder
	err := s.Stream(ctx, prompt, func(_ context.Context, chunk []byte) error {
		out.Write(chunk)
		return nil
	})
	return out.String(), err
}

// Provider names accepted by NewClient.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOllama     = "ollama"
	ProviderTranscript = "transcript"
)

// ErrUnknownProvider is returned for provider names NewClient does not know.
var ErrUnknownProvider = errors.New("unknown model provider")

// TransportError wraps a provider failure. Retriable reports whether the
// resilient wrapper may retry the request.
type TransportError struct {
	Provider  string
	Retriable bool
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRetriable reports whether err allows a retry. Errors that are not
// TransportError default to retriable; the wrapper's attempt budget bounds
// the damage of a wrong guess.
func IsRetriable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retriable
	}
	return true
}
