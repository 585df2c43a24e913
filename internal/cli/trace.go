package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/reorder/internal/model"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Surface  string
	Gesture  string // optional - filter to one gesture
}

// TraceResult holds the drag log of one surface.
type TraceResult struct {
	Surface string            `json:"surface"`
	Events  []model.DragEvent `json:"events"`
	Stats   TraceStats        `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	Gestures    int            `json:"gestures"`
	Drops       map[string]int `json:"drops"` // drop count by outcome
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the drag event log of a surface",
		Long: `Show the drag event log of a surface in seq order.

Each record names the gesture, the event type, the items involved and,
for drops, the outcome. Reordering drops carry the fingerprint of the
order they produced (shown with --verbose).

Examples:
  reorder trace --db ./reorder.db --surface board
  reorder trace --db ./reorder.db --surface board --gesture 0190c3e2-...
  reorder trace --db ./reorder.db --surface board --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Surface, "surface", "", "surface to trace (required)")
	_ = cmd.MarkFlagRequired("surface")
	cmd.Flags().StringVar(&opts.Gesture, "gesture", "", "filter to one gesture")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	st, err := openExistingStore(opts.database(opts.Database))
	if err != nil {
		return err
	}
	defer st.Close()

	events, err := st.ReadEvents(ctx, opts.Surface)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read drag log", err)
	}

	result := buildTrace(opts.Surface, events, opts.Gesture)

	if formatter := opts.formatter(cmd); formatter.JSON() {
		return formatter.Respond(CLIResponse{Status: "ok", Data: result})
	}
	if len(result.Events) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No events found for surface: %s\n", opts.Surface)
		return nil
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

// buildTrace filters the log and computes its statistics.
func buildTrace(surface string, events []model.DragEvent, gesture string) TraceResult {
	result := TraceResult{
		Surface: surface,
		Events:  []model.DragEvent{},
		Stats:   TraceStats{Drops: map[string]int{}},
	}

	gestures := make(map[string]bool)
	for _, ev := range events {
		if gesture != "" && ev.Gesture != gesture {
			continue
		}
		result.Events = append(result.Events, ev)
		if ev.Gesture != "" {
			gestures[ev.Gesture] = true
		}
		if ev.Type == model.EventDrop {
			result.Stats.Drops[ev.Outcome]++
		}
	}

	result.Stats.TotalEvents = len(result.Events)
	result.Stats.Gestures = len(gestures)
	return result
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace for Surface: %s\n", result.Surface)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	for _, ev := range result.Events {
		formatDragEvent(w, ev, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Events:   %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Gestures: %d\n", result.Stats.Gestures)
	for _, outcome := range []string{"reordered", "invalid", "stale", "malformed_payload"} {
		if n := result.Stats.Drops[outcome]; n > 0 {
			fmt.Fprintf(w, "  Drops %s: %d\n", outcome, n)
		}
	}
	return nil
}

func formatDragEvent(w io.Writer, ev model.DragEvent, verbose bool) {
	line := fmt.Sprintf("  [%d] %-5s", ev.Seq, ev.Type)
	if ev.DraggedID != "" {
		line += " " + ev.DraggedID
	}
	if ev.TargetID != "" {
		line += " → " + ev.TargetID
	}
	if ev.Outcome != "" {
		line += ": " + ev.Outcome
	}
	if ev.Detail != "" {
		line += " (" + ev.Detail + ")"
	}
	fmt.Fprintln(w, line)

	if verbose {
		if ev.Gesture != "" {
			fmt.Fprintf(w, "        gesture: %s\n", ev.Gesture)
		}
		if ev.OrderFingerprint != "" {
			fmt.Fprintf(w, "        order:   %s\n", ev.OrderFingerprint)
		}
	}
}
