package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reorder/internal/model"
	"github.com/roach88/reorder/internal/store"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Database string
}

// SeededSurface is one surface written by seed.
type SeededSurface struct {
	ID    string   `json:"id"`
	Order []string `json:"order"`
}

// SeedResult is the output of the seed command.
type SeedResult struct {
	Database string          `json:"database"`
	Surfaces []SeededSurface `json:"surfaces"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed [surfaces-dir]",
		Short: "Write compiled surfaces into the item store",
		Long: `Compile CUE surface definitions and write them into the SQLite store.

A surface that already exists has its constraints and items replaced.
The drag event log is left untouched.

Examples:
  reorder seed --db ./reorder.db ./surfaces
  reorder seed --config reorder.toml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.Config.SurfacesDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runSeed(opts, dir, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runSeed(opts *SeedOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loadResult, loadErrors := LoadSurfaces(dir, LoadModeCollectAll)
	if len(loadErrors) > 0 {
		return reportLoadErrors(formatter, loadResult, loadErrors)
	}

	dbPath := opts.database(opts.Database)
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := commandContext(cmd)

	result := SeedResult{Database: dbPath, Surfaces: []SeededSurface{}}
	for _, s := range loadResult.Surfaces {
		if err := st.PutSurface(ctx, s); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to seed surface", map[string]string{"surface": s.ID}, err)
		}
		formatter.VerboseLog("Seeded surface %s with %d item(s)", s.ID, len(s.Items))

		result.Surfaces = append(result.Surfaces, SeededSurface{ID: s.ID, Order: model.IDs(s.Items)})
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Seeded %d surface(s) into %s\n\n", len(result.Surfaces), dbPath)
	for _, s := range result.Surfaces {
		fmt.Fprintf(w, "  %s: %s\n", s.ID, formatOrder(s.Order))
	}
	for _, warn := range loadResult.Warnings {
		fmt.Fprintf(w, "  ⚠ %s\n", warn.Message)
	}
	return nil
}
