package runtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/codeloom-io/loom/metrics"
	"github.com/codeloom-io/loom/relay"
	"github.com/codeloom-io/loom/types"
)

// TurnReport is the structured JSON report written by --report.
type TurnReport struct {
	TurnID       string              `json:"turn_id"`
	SessionID    string              `json:"session_id,omitempty"`
	ParentTurnID string              `json:"parent_turn_id,omitempty"`
	Attempt      int                 `json:"attempt"`
	Outcome      types.OutcomeStatus `json:"outcome"`
	Message      string              `json:"message"`
	ExitCode     int                 `json:"exit_code"`
	DurationMs   int64               `json:"duration_ms"`

	ContainerTitle string `json:"container_title,omitempty"`
	ActionCount    int64  `json:"action_count"`

	Relay    *ReportRelay       `json:"relay"`
	Files    []types.FileRecord `json:"files,omitempty"`
	Commands []ReportCommand    `json:"commands,omitempty"`
	Metrics  *metrics.Snapshot  `json:"metrics"`
}

// ReportRelay holds relay stats in the report.
type ReportRelay struct {
	ActionsReceived  int64            `json:"actions_received"`
	ActionsDelivered int64            `json:"actions_delivered"`
	DeliveredByKind  map[string]int64 `json:"delivered_by_kind,omitempty"`
	FlushCount       int64            `json:"flush_count"`
	Errors           int64            `json:"errors"`
}

// ReportCommand holds one executed command in the report.
type ReportCommand struct {
	Command    string `json:"command"`
	ExitCode   int    `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
}

// BuildTurnReport composes a TurnReport from a TurnResult and metrics
// snapshot. The exitCode is the process exit code that will be returned
// to the caller.
func BuildTurnReport(result *TurnResult, snap metrics.Snapshot, exitCode int) *TurnReport {
	report := &TurnReport{
		TurnID:         result.Meta.TurnID,
		Attempt:        result.Meta.Attempt,
		Outcome:        result.Outcome.Status,
		Message:        result.Outcome.Message,
		ExitCode:       exitCode,
		DurationMs:     result.Duration.Milliseconds(),
		ContainerTitle: result.ContainerTitle,
		ActionCount:    result.ActionCount,
		Relay:          reportRelay(result.RelayStats),
		Files:          result.Files,
		Metrics:        &snap,
	}

	if result.Meta.SessionID != nil {
		report.SessionID = *result.Meta.SessionID
	}
	if result.Meta.ParentTurnID != nil {
		report.ParentTurnID = *result.Meta.ParentTurnID
	}

	for _, c := range result.Commands {
		report.Commands = append(report.Commands, ReportCommand{
			Command:    c.Command,
			ExitCode:   c.ExitCode,
			DurationMs: c.Duration.Milliseconds(),
		})
	}

	return report
}

func reportRelay(stats relay.Stats) *ReportRelay {
	byKind := make(map[string]int64, len(stats.DeliveredByKind))
	for k, v := range stats.DeliveredByKind {
		byKind[string(k)] = v
	}
	return &ReportRelay{
		ActionsReceived:  stats.ActionsReceived,
		ActionsDelivered: stats.ActionsDelivered,
		DeliveredByKind:  byKind,
		FlushCount:       stats.FlushCount,
		Errors:           stats.Errors,
	}
}

// WriteTurnReport writes the report as JSON to the specified path.
// If path is "-", writes to stderr.
func WriteTurnReport(report *TurnReport, path string) error {
	if path == "" {
		return errors.New("report path must not be empty")
	}

	if path == "-" {
		return writeTurnReportTo(report, os.Stderr)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}

// writeTurnReportTo writes report JSON to any writer (for testing).
func writeTurnReportTo(report *TurnReport, w io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
