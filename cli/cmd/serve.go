package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/codeloom-io/loom/classify"
	"github.com/codeloom-io/loom/server"
)

// shutdownTimeout bounds graceful server shutdown after a signal.
const shutdownTimeout = 15 * time.Second

// ServeCommand returns the serve command.
// Serve exposes the generation pipeline over HTTP with SSE streaming.
func ServeCommand() *cli.Command {
	flags := append([]cli.Flag{
		ConfigFlag,
		&cli.StringFlag{
			Name:  "addr",
			Usage: "Listen address",
			Value: ":8080",
		},
	}, providerFlags()...)
	flags = append(flags, StorageFlags()...)

	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the generation API over HTTP",
		Flags:  flags,
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfigFile(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	streamer, err := buildStreamer(c, cfg)
	if err != nil {
		return err
	}

	storage := storageFromContext(c, storageChoice{
		backend:   cfg.Storage.Backend,
		path:      cfg.Storage.Path,
		region:    cfg.Storage.Region,
		endpoint:  cfg.Storage.Endpoint,
		pathStyle: cfg.Storage.S3PathStyle,
	})
	backend, err := buildBackend(context.Background(), storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = backend.Close() }()

	addr := c.String("addr")
	if !c.IsSet("addr") && cfg.Server.Addr != "" {
		addr = cfg.Server.Addr
	}

	srv := server.New(server.Config{
		Addr:       addr,
		Streamer:   streamer,
		Backend:    backend,
		Classifier: classify.New(streamer),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	fmt.Fprintf(os.Stderr, "loom server listening on %s\n", addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
