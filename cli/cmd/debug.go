package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/codeloom-io/loom/classify"
	"github.com/codeloom-io/loom/cli/render"
	"github.com/codeloom-io/loom/extract"
	"github.com/codeloom-io/loom/types"
)

// DebugCommand returns the debug command with subcommands.
// Debug commands exercise single pipeline stages in isolation.
func DebugCommand() *cli.Command {
	return &cli.Command{
		Name:  "debug",
		Usage: "Debug pipeline stages (extract, classify)",
		Subcommands: []*cli.Command{
			debugExtractCommand(),
			debugClassifyCommand(),
		},
	}
}

// DebugAction is the extractor debug view of one action.
type DebugAction struct {
	SequenceID int64  `json:"sequence_id"`
	Kind       string `json:"kind"`
	Title      string `json:"title,omitempty"`
	Path       string `json:"path,omitempty"`
	Status     string `json:"status"`
	Bytes      int    `json:"bytes"`
}

func debugExtractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Run the action extractor over a markup file (\"-\" for stdin)",
		ArgsUsage: "<file>",
		Flags: append(ReadOnlyFlags(),
			&cli.IntFlag{
				Name:  "chunk-size",
				Usage: "Feed the input in chunks of this size",
				Value: 64,
			},
		),
		Action: debugExtractAction,
	}
}

func debugExtractAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("file required (\"-\" for stdin)", 1)
	}

	input, err := readDebugInput(c.Args().First())
	if err != nil {
		return err
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	// Chunked feeding surfaces boundary bugs that a single Feed would hide.
	chunkSize := c.Int("chunk-size")
	if chunkSize <= 0 {
		chunkSize = len(input)
	}

	extractor := extract.New()
	var actions []*types.Action
	for i := 0; i < len(input); i += chunkSize {
		end := i + chunkSize
		if end > len(input) {
			end = len(input)
		}
		actions = append(actions, extractor.Feed(string(input[i:end]))...)
	}
	actions = append(actions, extractor.Finalize()...)

	rows := make([]DebugAction, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, DebugAction{
			SequenceID: a.SequenceID,
			Kind:       string(a.Kind),
			Title:      a.Title,
			Path:       a.Path,
			Status:     string(a.Status),
			Bytes:      len(a.Content),
		})
	}

	return r.Render(rows)
}

func readDebugInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

// DebugClassification is the classifier debug view of one prompt.
type DebugClassification struct {
	Prompt  string `json:"prompt"`
	Project string `json:"project"`
	Matched bool   `json:"keyword_matched"`
}

func debugClassifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Show the keyword classification for a prompt",
		ArgsUsage: "<prompt>",
		Flags:     ReadOnlyFlags(),
		Action:    debugClassifyAction,
	}
}

func debugClassifyAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("prompt required", 1)
	}
	prompt := c.Args().First()

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	project, matched := classify.MatchKeywords(prompt)
	if !matched {
		project = classify.ProjectUnknown
	}

	return r.Render(DebugClassification{
		Prompt:  prompt,
		Project: project,
		Matched: matched,
	})
}
