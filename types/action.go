// Package types defines core domain types for the loom runtime.
//
//nolint:revive // types is a common Go package naming convention
package types

// ActionKind discriminates the build actions extracted from model output.
type ActionKind string

// Action kind constants.
const (
	// ActionCreateContainer is the root marker: it declares the project
	// container and carries the artifact title.
	ActionCreateContainer ActionKind = "create_container"
	// ActionWriteFile writes a file into the project tree.
	ActionWriteFile ActionKind = "write_file"
	// ActionRunCommand executes a shell command in the project workspace.
	ActionRunCommand ActionKind = "run_command"
)

// ActionStatus is the lifecycle tag of an action.
type ActionStatus string

// Action status constants.
const (
	// StatusPending marks a file/command action that has been extracted
	// but not yet applied.
	StatusPending ActionStatus = "pending"
	// StatusInProgress marks the container action while the stream is open.
	StatusInProgress ActionStatus = "in_progress"
	// StatusCompleted marks an applied action (or the container after finalize).
	StatusCompleted ActionStatus = "completed"
	// StatusFailed marks a command action whose execution failed.
	StatusFailed ActionStatus = "failed"
)

// Action is one discrete build instruction extracted from model output.
//
// SequenceID is assigned at emission time and defines a total order
// independent of chunk arrival timing. An action, once emitted with a given
// SequenceID, is never re-emitted; Path and Content are immutable after
// emission. Status is the only mutable field and transitions are idempotent
// for consumers (applying the same transition twice is a no-op).
type Action struct {
	// SequenceID is a strictly increasing integer assigned at emission.
	SequenceID int64 `json:"sequence_id"`
	// Kind is the action discriminator.
	Kind ActionKind `json:"kind"`
	// Title is a human-readable label. For the container action this is
	// the artifact title; for child actions it is derived from the payload.
	Title string `json:"title"`
	// Path is the target file path, present only for write_file.
	Path string `json:"path,omitempty"`
	// Content is the literal text payload for write_file and run_command.
	Content string `json:"content,omitempty"`
	// Status is the lifecycle tag.
	Status ActionStatus `json:"status"`
}

// FileRecord describes one file in a materialized project snapshot.
type FileRecord struct {
	// Path is the slash-separated path relative to the project root.
	Path string `json:"path"`
	// Size is the content length in bytes.
	Size int64 `json:"size"`
}
