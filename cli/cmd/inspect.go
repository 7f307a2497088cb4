package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/codeloom-io/loom/cli/render"
	"github.com/codeloom-io/loom/cli/tui"
	"github.com/codeloom-io/loom/store"
	"github.com/codeloom-io/loom/types"
)

// InspectCommand returns the inspect command with subcommands.
// Inspect returns a deep view of a single entity.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect a single entity (turn)",
		Subcommands: []*cli.Command{
			inspectTurnCommand(),
		},
	}
}

func inspectTurnCommand() *cli.Command {
	return &cli.Command{
		Name:      "turn",
		Usage:     "Inspect a turn by ID",
		ArgsUsage: "<turn-id>",
		Flags:     readStorageFlags(),
		Action:    inspectTurnAction,
	}
}

func inspectTurnAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("turn-id required", 1)
	}
	turnID := c.Args().First()

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	reader, closeFn, err := openReader(c)
	if err != nil {
		return err
	}
	defer closeFn()

	detail, err := loadTurnDetail(c.Context, reader, turnID)
	if err != nil {
		if errors.Is(err, store.ErrTurnNotFound) {
			return cli.Exit(fmt.Sprintf("turn not found: %s", turnID), 1)
		}
		return err
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewInspectTurn, detail)
	}

	return r.Render(detail)
}

// loadTurnDetail assembles the deep view of one turn: partition keys, result
// record, and the final state of every action.
func loadTurnDetail(ctx context.Context, reader *store.Reader, turnID string) (*tui.TurnDetail, error) {
	cfg, err := reader.FindTurn(ctx, turnID)
	if err != nil {
		return nil, err
	}

	detail := &tui.TurnDetail{
		TurnID:   cfg.TurnID,
		Provider: cfg.Provider,
		Project:  cfg.Project,
		Day:      cfg.Day,
		Status:   "unknown",
	}

	if record, err := reader.ReadResult(ctx, cfg); err == nil {
		detail.Status = record.Status
		detail.Message = record.Message
		detail.ActionCount = record.ActionCount
		detail.FilesWritten = record.FilesWritten
	}

	records, err := reader.ReadActions(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read actions: %w", err)
	}

	actions := make([]*types.Action, 0, len(records))
	for _, rec := range records {
		a := rec.ToAction()
		if a.Kind == types.ActionCreateContainer && detail.ContainerTitle == "" {
			detail.ContainerTitle = a.Title
		}
		actions = append(actions, a)
	}
	detail.Actions = actions

	return detail, nil
}
