package store

import (
	"time"

	"github.com/codeloom-io/loom/types"
)

// RecordKind discriminator values.
const (
	RecordKindAction = "action"
	RecordKindTurn   = "turn_result"
)

// ActionRecord is the storage format for one extracted action.
// Partition keys are embedded so records stay self-describing when read
// outside their path context.
type ActionRecord struct {
	// Record discriminator
	RecordKind string `msgpack:"record_kind"`

	// Action fields
	SequenceID int64  `msgpack:"sequence_id"`
	Kind       string `msgpack:"kind"`
	Title      string `msgpack:"title"`
	Path       string `msgpack:"path,omitempty"`
	Content    string `msgpack:"content,omitempty"`
	Status     string `msgpack:"status"`

	// Turn lineage
	TurnID       string  `msgpack:"turn_id"`
	SessionID    *string `msgpack:"session_id,omitempty"`
	ParentTurnID *string `msgpack:"parent_turn_id,omitempty"`
	Attempt      int     `msgpack:"attempt"`

	Ts string `msgpack:"ts"`

	// Partition keys
	Provider string `msgpack:"provider"`
	Project  string `msgpack:"project"`
	Day      string `msgpack:"day"`
}

// TurnRecord is the storage format for a turn's final result.
type TurnRecord struct {
	// Record discriminator
	RecordKind string `msgpack:"record_kind"`

	// Outcome fields
	Status  string `msgpack:"status"`
	Message string `msgpack:"message,omitempty"`

	// Turn lineage
	TurnID       string  `msgpack:"turn_id"`
	SessionID    *string `msgpack:"session_id,omitempty"`
	ParentTurnID *string `msgpack:"parent_turn_id,omitempty"`
	Attempt      int     `msgpack:"attempt"`

	// Summary counters
	ActionCount    int64 `msgpack:"action_count"`
	FilesWritten   int64 `msgpack:"files_written"`
	CommandsRun    int64 `msgpack:"commands_run"`
	CommandsFailed int64 `msgpack:"commands_failed"`
	BytesReceived  int64 `msgpack:"bytes_received"`

	Ts string `msgpack:"ts"`

	// Partition keys
	Provider string `msgpack:"provider"`
	Project  string `msgpack:"project"`
	Day      string `msgpack:"day"`
}

// toActionRecord converts an Action into its storage form.
func toActionRecord(a *types.Action, meta *types.TurnMeta, cfg Config, ts time.Time) *ActionRecord {
	return &ActionRecord{
		RecordKind:   RecordKindAction,
		SequenceID:   a.SequenceID,
		Kind:         string(a.Kind),
		Title:        a.Title,
		Path:         a.Path,
		Content:      a.Content,
		Status:       string(a.Status),
		TurnID:       meta.TurnID,
		SessionID:    meta.SessionID,
		ParentTurnID: meta.ParentTurnID,
		Attempt:      meta.Attempt,
		Ts:           ts.UTC().Format(time.RFC3339Nano),
		Provider:     cfg.Provider,
		Project:      cfg.Project,
		Day:          cfg.Day,
	}
}

// ToAction converts a stored record back into a domain action.
func (r *ActionRecord) ToAction() *types.Action {
	return &types.Action{
		SequenceID: r.SequenceID,
		Kind:       types.ActionKind(r.Kind),
		Title:      r.Title,
		Path:       r.Path,
		Content:    r.Content,
		Status:     types.ActionStatus(r.Status),
	}
}
