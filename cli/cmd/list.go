package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/codeloom-io/loom/cli/render"
	"github.com/codeloom-io/loom/store"
)

// TurnRow is the list view of one persisted turn.
type TurnRow struct {
	TurnID       string `json:"turn_id"`
	Provider     string `json:"provider"`
	Project      string `json:"project"`
	Day          string `json:"day"`
	Status       string `json:"status"`
	ActionCount  int64  `json:"action_count"`
	FilesWritten int64  `json:"files_written"`
}

// ListCommand returns the list command with subcommands.
// List returns shallow summaries; inspect gives the deep view.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List persisted entities (turns)",
		Subcommands: []*cli.Command{
			listTurnsCommand(),
		},
	}
}

func listTurnsCommand() *cli.Command {
	return &cli.Command{
		Name:   "turns",
		Usage:  "List persisted turns",
		Flags:  readStorageFlags(),
		Action: listTurnsAction,
	}
}

func listTurnsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", 1)
	}

	reader, closeFn, err := openReader(c)
	if err != nil {
		return err
	}
	defer closeFn()

	rows, err := listTurnRows(c.Context, reader)
	if err != nil {
		return err
	}

	return r.Render(rows)
}

// listTurnRows loads a summary row per persisted turn. Turns with an
// unreadable result record still list, with an unknown status.
func listTurnRows(ctx context.Context, reader *store.Reader) ([]TurnRow, error) {
	partitions, err := reader.ListTurns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}

	rows := make([]TurnRow, 0, len(partitions))
	for _, cfg := range partitions {
		row := TurnRow{
			TurnID:   cfg.TurnID,
			Provider: cfg.Provider,
			Project:  cfg.Project,
			Day:      cfg.Day,
			Status:   "unknown",
		}
		if record, err := reader.ReadResult(ctx, cfg); err == nil {
			row.Status = record.Status
			row.ActionCount = record.ActionCount
			row.FilesWritten = record.FilesWritten
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// openReader builds a store reader from storage flags. The returned close
// function releases the backend.
func openReader(c *cli.Context) (*store.Reader, func(), error) {
	cfg, err := loadConfigFile(c)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	storage := storageFromContext(c, storageChoice{
		backend:   cfg.Storage.Backend,
		path:      cfg.Storage.Path,
		region:    cfg.Storage.Region,
		endpoint:  cfg.Storage.Endpoint,
		pathStyle: cfg.Storage.S3PathStyle,
	})

	backend, err := buildBackend(c.Context, storage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return store.NewReader(backend), func() { _ = backend.Close() }, nil
}
