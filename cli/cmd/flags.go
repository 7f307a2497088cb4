// Package cmd provides CLI commands for the loom binary.
package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/codeloom-io/loom/store"
)

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for select read-only commands (inspect, stats).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (inspect, stats only)",
	}

	// ConfigFlag points at a YAML config file. Flags override config values.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to YAML config file",
		EnvVars: []string{"LOOM_CONFIG"},
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error
// messages instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// TUIReadOnlyFlags returns flags for commands that support TUI mode.
// This is an alias for ReadOnlyFlags, kept for documentation clarity.
func TUIReadOnlyFlags() []cli.Flag {
	return ReadOnlyFlags()
}

// readStorageFlags returns the flag set for read-only commands that consult
// the store: output flags plus config and storage selection.
func readStorageFlags() []cli.Flag {
	flags := append(ReadOnlyFlags(), ConfigFlag)
	return append(flags, StorageFlags()...)
}

// StorageFlags returns the flags that select and configure a storage backend.
// Read commands and write commands share them.
func StorageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "storage-backend",
			Usage: "Storage backend: fs or s3",
			Value: "fs",
		},
		&cli.StringFlag{
			Name:  "storage-path",
			Usage: "Storage path (fs: directory, s3: bucket/prefix)",
		},
		&cli.StringFlag{
			Name:  "storage-region",
			Usage: "AWS region for S3 backend",
		},
		&cli.StringFlag{
			Name:  "storage-endpoint",
			Usage: "Custom S3 endpoint URL (R2, MinIO)",
		},
		&cli.BoolFlag{
			Name:  "storage-path-style",
			Usage: "Force path-style S3 addressing",
		},
	}
}

// storageChoice holds resolved storage backend configuration.
type storageChoice struct {
	backend   string
	path      string
	region    string
	endpoint  string
	pathStyle bool
}

// storageFromContext merges storage flags over loaded config values.
func storageFromContext(c *cli.Context, fallback storageChoice) storageChoice {
	choice := fallback
	if c.IsSet("storage-backend") || choice.backend == "" {
		choice.backend = c.String("storage-backend")
	}
	if c.IsSet("storage-path") || choice.path == "" {
		choice.path = c.String("storage-path")
	}
	if c.IsSet("storage-region") || choice.region == "" {
		choice.region = c.String("storage-region")
	}
	if c.IsSet("storage-endpoint") || choice.endpoint == "" {
		choice.endpoint = c.String("storage-endpoint")
	}
	if c.IsSet("storage-path-style") {
		choice.pathStyle = c.Bool("storage-path-style")
	}
	return choice
}

// buildBackend creates a storage backend from the resolved choice.
func buildBackend(ctx context.Context, choice storageChoice) (store.Backend, error) {
	if choice.path == "" {
		return nil, fmt.Errorf("--storage-path is required")
	}

	switch choice.backend {
	case "fs", "":
		return store.NewFSBackend(choice.path), nil
	case "s3":
		bucket, prefix := store.ParseS3Path(choice.path)
		return store.NewS3Backend(ctx, store.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       choice.region,
			Endpoint:     choice.endpoint,
			UsePathStyle: choice.pathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage-backend: %s (must be fs or s3)", choice.backend)
	}
}
