// Package adapter defines the completion notification boundary.
//
// Adapters publish turn completion notifications to downstream systems
// (build pipelines, session coordinators). The runtime owns adapter
// lifecycle; users provide configuration only.
package adapter

import "context"

// EventType is the fixed event discriminator for turn completion payloads.
const EventType = "turn_completed"

// TurnCompletedEvent is the payload published when a turn finishes.
type TurnCompletedEvent struct {
	EventType string `json:"event_type"` // always "turn_completed"
	TurnID    string `json:"turn_id"`
	SessionID string `json:"session_id,omitempty"`
	Attempt   int    `json:"attempt"`

	// Outcome is the terminal outcome status (completed, empty_output,
	// transport_failure, store_failure).
	Outcome string `json:"outcome"`

	// Partition keys of the persisted turn.
	Provider string `json:"provider"`
	Project  string `json:"project"`
	Day      string `json:"day"`

	ContainerTitle string `json:"container_title,omitempty"`
	ActionCount    int64  `json:"action_count"`
	FilesWritten   int64  `json:"files_written"`
	DurationMs     int64  `json:"duration_ms"`
	Timestamp      string `json:"timestamp"` // ISO 8601
}

// Adapter publishes turn completion events to a downstream system.
// Implementations must be safe for single-use per turn.
type Adapter interface {
	// Publish sends a turn completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *TurnCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
