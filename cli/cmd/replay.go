package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/codeloom-io/loom/model"
)

// ReplayCommand returns the replay command.
// Replay runs the full pipeline against a recorded transcript file instead
// of a live provider, for deterministic reprocessing and debugging.
func ReplayCommand() *cli.Command {
	flags := append(turnFlags(),
		&cli.StringFlag{
			Name:     "transcript",
			Usage:    "Path to recorded model output",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "chunk-size",
			Usage: "Replay chunk size in bytes",
		},
	)

	return &cli.Command{
		Name:   "replay",
		Usage:  "Replay a recorded model transcript through the pipeline",
		Flags:  flags,
		Action: replayAction,
	}
}

func replayAction(c *cli.Context) error {
	cfg, err := loadConfigFile(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	streamer := model.NewTranscript(c.String("transcript"), c.Int("chunk-size"))

	// The prompt is informational for replay; the transcript already holds
	// the model output.
	prompt := c.Args().First()
	if prompt == "" {
		prompt = "replay: " + c.String("transcript")
	}

	return executeTurn(c, cfg, streamer, prompt)
}
