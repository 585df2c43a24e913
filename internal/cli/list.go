package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reorder/internal/model"
	"github.com/roach88/reorder/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Database string
	Surface  string
}

// SurfaceSummary is one row of the surface listing.
type SurfaceSummary struct {
	ID      string `json:"id"`
	Items   int    `json:"items"`
	Version int64  `json:"version"`
}

// SurfaceListing is the current order of one surface.
type SurfaceListing struct {
	ID      string                `json:"id"`
	Version int64                 `json:"version"`
	Items   []model.DraggableItem `json:"items"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show surfaces or the current order of one surface",
		Long: `Show the surfaces in the store, or with --surface the items of one
surface in their current order.

Examples:
  reorder list --db ./reorder.db
  reorder list --db ./reorder.db --surface board
  reorder list --db ./reorder.db --surface board --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Surface, "surface", "", "surface to show")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	st, err := openExistingStore(opts.database(opts.Database))
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.Surface == "" {
		return listSurfaces(cmd, opts, formatter, st)
	}

	items, err := st.ReadItems(ctx, opts.Surface)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read items", err)
	}
	version, err := st.SurfaceVersion(ctx, opts.Surface)
	if errors.Is(err, store.ErrSurfaceNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("surface not found: %s", opts.Surface), nil, nil)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read surface", err)
	}

	listing := SurfaceListing{ID: opts.Surface, Version: version, Items: items}
	if formatter.JSON() {
		return formatter.Success(listing)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Surface: %s (version %d)\n\n", listing.ID, listing.Version)
	if len(items) == 0 {
		fmt.Fprintln(w, "  (no items)")
		return nil
	}
	for _, it := range items {
		line := fmt.Sprintf("  %3d  %-20s %s", it.Position, it.ID, it.Kind)
		if it.ParentGroupID != "" {
			line += " in " + it.ParentGroupID
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func listSurfaces(cmd *cobra.Command, opts *ListOptions, formatter *OutputFormatter, st *store.Store) error {
	ctx := commandContext(cmd)

	ids, err := st.ListSurfaces(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list surfaces", err)
	}

	summaries := make([]SurfaceSummary, 0, len(ids))
	for _, id := range ids {
		items, err := st.ReadItems(ctx, id)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read items", err)
		}
		version, err := st.SurfaceVersion(ctx, id)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read surface", err)
		}
		summaries = append(summaries, SurfaceSummary{ID: id, Items: len(items), Version: version})
	}

	if formatter.JSON() {
		return formatter.Success(summaries)
	}

	w := formatter.Writer
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No surfaces found.")
		return nil
	}
	fmt.Fprintln(w, "Surfaces:")
	for _, s := range summaries {
		fmt.Fprintf(w, "  %s: %d item(s), version %d\n", s.ID, s.Items, s.Version)
	}
	return nil
}
