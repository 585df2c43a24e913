package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reorder/internal/engine"
	"github.com/roach88/reorder/internal/model"
	"github.com/roach88/reorder/internal/reorder"
	"github.com/roach88/reorder/internal/session"
)

// MoveOptions holds flags for the move command.
type MoveOptions struct {
	*RootOptions
	Database string
	Surface  string
	Drag     string
	Onto     string
	Payload  string // raw transfer payload; empty uses the one encoded at start
}

// MoveResult is the outcome of one gesture run by the move command.
type MoveResult struct {
	Surface    string   `json:"surface"`
	Gesture    string   `json:"gesture"`
	Dragged    string   `json:"dragged"`
	Target     string   `json:"target"`
	DropEffect string   `json:"drop_effect"`
	Outcome    string   `json:"outcome"`
	Reason     string   `json:"reason,omitempty"`
	Stale      string   `json:"stale,omitempty"`
	Order      []string `json:"order"`
	Seq        int64    `json:"seq"`
}

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MoveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "move",
		Short: "Drag one item onto another",
		Long: `Run one full drag gesture through the engine: start on --drag,
hover and drop on --onto. The new order is written to the store and the
gesture is recorded in the drag log.

Exit codes:
  0 - The drop reordered the surface
  1 - The drop was rejected (invalid, stale or malformed payload)
  2 - Command error (unknown surface or item, database not found, etc.)

Examples:
  reorder move --db ./reorder.db --surface board --drag A --onto C
  reorder move --db ./reorder.db --surface board --drag A --onto C --payload '{"id":"B"}'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMove(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Surface, "surface", "", "surface id (required)")
	_ = cmd.MarkFlagRequired("surface")
	cmd.Flags().StringVar(&opts.Drag, "drag", "", "id of the item to drag (required)")
	_ = cmd.MarkFlagRequired("drag")
	cmd.Flags().StringVar(&opts.Onto, "onto", "", "id of the drop target (required)")
	_ = cmd.MarkFlagRequired("onto")
	cmd.Flags().StringVar(&opts.Payload, "payload", "", "override the transfer payload sent with the drop")

	return cmd
}

func runMove(opts *MoveOptions, cmd *cobra.Command) (err error) {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	st, err := openExistingStore(opts.database(opts.Database))
	if err != nil {
		return err
	}
	defer st.Close()

	eng, err := startEngine(ctx, opts.RootOptions, st, opts.logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer func() {
		if stopErr := eng.stop(); stopErr != nil && err == nil {
			err = WrapExitError(ExitCommandError, "engine shutdown failed", stopErr)
		}
	}()

	start, err := eng.StartDrag(ctx, opts.Surface, opts.Drag, model.Point{})
	if err != nil {
		return outputEngineError(formatter, err)
	}
	formatter.VerboseLog("Started gesture %s on %s", start.Gesture, opts.Drag)

	over, err := eng.DragOver(ctx, opts.Surface, opts.Onto, model.Point{})
	if err != nil {
		return outputEngineError(formatter, err)
	}
	formatter.VerboseLog("Hovering %s: %s", opts.Onto, over.Legality.DropEffect())

	payload := start.Payload
	if opts.Payload != "" {
		payload = []byte(opts.Payload)
	}
	reply, err := eng.Drop(ctx, opts.Surface, opts.Onto, payload)
	if err != nil {
		return outputEngineError(formatter, err)
	}

	result := newMoveResult(opts, over, reply)
	if formatter.JSON() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputMoveText(formatter, result)
	}

	if reply.Drop.Outcome != session.OutcomeReordered {
		return NewExitError(ExitFailure, fmt.Sprintf("drop %s", reply.Drop.Outcome))
	}
	return nil
}

func newMoveResult(opts *MoveOptions, over, reply engine.Reply) MoveResult {
	res := reply.Drop
	result := MoveResult{
		Surface:    opts.Surface,
		Gesture:    reply.Gesture,
		Dragged:    opts.Drag,
		Target:     opts.Onto,
		DropEffect: over.Legality.DropEffect(),
		Outcome:    string(res.Outcome),
		Reason:     string(res.Reason),
		Order:      model.IDs(reply.Items),
		Seq:        reply.Seq,
	}
	if res.Dragged.ID != "" {
		result.Dragged = res.Dragged.ID
	}
	if res.Stale != reorder.StaleNone {
		result.Stale = res.Stale.String()
	}
	return result
}

func outputMoveText(formatter *OutputFormatter, result MoveResult) {
	w := formatter.Writer
	switch result.Outcome {
	case string(session.OutcomeReordered):
		fmt.Fprintf(w, "✓ Moved %s onto %s\n", result.Dragged, result.Target)
	case string(session.OutcomeInvalid):
		fmt.Fprintf(w, "✗ Drop of %s onto %s rejected: %s\n", result.Dragged, result.Target, result.Reason)
	case string(session.OutcomeStale):
		fmt.Fprintf(w, "✗ Drop of %s onto %s is stale: %s not on surface\n", result.Dragged, result.Target, result.Stale)
	default:
		fmt.Fprintf(w, "✗ Drop of %s onto %s: %s\n", result.Dragged, result.Target, result.Outcome)
	}
	fmt.Fprintf(w, "  order: %s\n", formatOrder(result.Order))
}

// outputEngineError reports an engine failure with its engine code.
func outputEngineError(formatter *OutputFormatter, err error) error {
	details := map[string]string{}
	if code := engine.CodeOf(err); code != "" {
		details["engine_code"] = string(code)
	}
	_ = formatter.Error(ErrCodeEngine, err.Error(), details)
	return WrapExitError(ExitCommandError, "engine rejected event", err)
}
