package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/reorder/internal/adapter"
	"github.com/roach88/reorder/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Database string
	Listen   string
	Seed     string // optional surfaces dir written before serving
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine behind the WebSocket adapter",
		Long: `Run the drag engine and serve the WebSocket adapter until interrupted.

Clients connect to /ws and exchange JSON frames (drag.start, drag.over,
drag.drop, drag.end, surface.items). /up answers health checks.
On SIGINT or SIGTERM the server stops accepting connections, open
gestures are ended and queued events are drained.

Examples:
  reorder serve --db ./reorder.db --listen 127.0.0.1:8080
  reorder serve --config reorder.toml --seed ./surfaces`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (default from config)")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "compile and write surfaces from this directory before serving")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := opts.logger(cmd.ErrOrStderr())

	dbPath := opts.database(opts.Database)
	listen := opts.Listen
	if listen == "" {
		listen = opts.Config.Listen
	}

	logger.Info("opening database", "path", dbPath)
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if opts.Seed != "" {
		if err := seedSurfaces(ctx, st, opts.Seed); err != nil {
			return err
		}
		logger.Info("surfaces seeded", "dir", opts.Seed)
	}

	// The engine outlives the HTTP server so disconnect cleanup can still
	// end open gestures during shutdown.
	eng, err := startEngine(context.WithoutCancel(ctx), opts.RootOptions, st, logger)
	if err != nil {
		return err
	}

	srv, err := adapter.NewServer(eng, adapter.Config{Addr: listen, Logger: logger})
	if err != nil {
		_ = eng.stop()
		return WrapExitError(ExitCommandError, "invalid adapter config", err)
	}

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		_ = eng.stop()
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", ln.Addr())
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	serveErr := srv.Serve(ctx, ln)
	if err := eng.stop(); err != nil {
		logger.Error("engine stopped with error", "error", err)
	}
	if serveErr != nil {
		return WrapExitError(ExitFailure, "adapter error", serveErr)
	}

	logger.Info("server stopped gracefully")
	return nil
}

// seedSurfaces compiles dir and writes every surface into st.
func seedSurfaces(ctx context.Context, st *store.Store, dir string) error {
	loadResult, loadErrors := LoadSurfaces(dir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		return WrapExitError(ExitCommandError, "failed to compile surfaces", loadErrors[0])
	}
	for _, s := range loadResult.Surfaces {
		if err := st.PutSurface(ctx, s); err != nil {
			return WrapExitError(ExitCommandError, "failed to seed surface", err)
		}
	}
	return nil
}
