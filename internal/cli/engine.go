package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/reorder/internal/engine"
	"github.com/roach88/reorder/internal/store"
)

// runningEngine is an engine whose Run loop is active in a goroutine.
type runningEngine struct {
	*engine.Engine
	done chan error
}

// startEngine builds an engine over st with the configured session options,
// resumes the drag log clock and starts the Run loop.
func startEngine(ctx context.Context, opts *RootOptions, st *store.Store, logger *slog.Logger) (*runningEngine, error) {
	sessionOpts, err := opts.Config.SessionOptions()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid session config", err)
	}

	clock, err := engine.ResumeClock(ctx, st)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read drag log", err)
	}

	eng := engine.New(st,
		engine.WithLogger(logger),
		engine.WithClock(clock),
		engine.WithSessionOptions(sessionOpts...),
	)

	re := &runningEngine{Engine: eng, done: make(chan error, 1)}
	go func() {
		re.done <- eng.Run(ctx)
	}()
	return re, nil
}

// stop drains the queue and waits for the Run loop to return.
func (re *runningEngine) stop() error {
	re.Stop()
	err := <-re.done
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
