package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/codeloom-io/loom/cli/render"
	"github.com/codeloom-io/loom/cli/tui"
	"github.com/codeloom-io/loom/store"
	"github.com/codeloom-io/loom/types"
)

// StatsCommand returns the stats command with subcommands.
// Stats returns aggregated, derived facts over the store.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show aggregated statistics (turns)",
		Subcommands: []*cli.Command{
			statsTurnsCommand(),
		},
	}
}

func statsTurnsCommand() *cli.Command {
	return &cli.Command{
		Name:   "turns",
		Usage:  "Show turn outcome statistics",
		Flags:  readStorageFlags(),
		Action: statsTurnsAction,
	}
}

func statsTurnsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	reader, closeFn, err := openReader(c)
	if err != nil {
		return err
	}
	defer closeFn()

	stats, err := aggregateTurnStats(c.Context, reader)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewStatsTurns, stats)
	}

	return r.Render(stats)
}

// aggregateTurnStats folds every persisted result record into outcome and
// partition counts. Turns without a readable result record count toward the
// total only.
func aggregateTurnStats(ctx context.Context, reader *store.Reader) (*tui.TurnStats, error) {
	partitions, err := reader.ListTurns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}

	stats := &tui.TurnStats{
		ByProject:  make(map[string]int),
		ByProvider: make(map[string]int),
	}

	for _, cfg := range partitions {
		stats.Total++
		stats.ByProject[cfg.Project]++
		stats.ByProvider[cfg.Provider]++

		record, err := reader.ReadResult(ctx, cfg)
		if err != nil {
			continue
		}
		switch types.OutcomeStatus(record.Status) {
		case types.OutcomeCompleted:
			stats.Completed++
		case types.OutcomeEmptyOutput:
			stats.EmptyOutput++
		case types.OutcomeTransportFailure:
			stats.TransportFailed++
		case types.OutcomeStoreFailure:
			stats.StoreFailed++
		}
	}

	return stats, nil
}
