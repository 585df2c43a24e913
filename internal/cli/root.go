package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/reorder/internal/config"
	"github.com/roach88/reorder/internal/model"
	"github.com/roach88/reorder/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is the loaded configuration file, or the defaults when
	// --config is not given. Set by the root command before any RunE.
	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatText, FormatJSON}

// NewRootCommand creates the root command for the reorder CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Config: config.Default()}

	cmd := &cobra.Command{
		Use:     "reorder",
		Short:   "Drag-and-drop reordering engine",
		Version: fmt.Sprintf("%s (model %s)", model.EngineVersion, model.ModelVersion),
		Long: `Reorder runs drag gestures against ordered item lists.

Surfaces are defined in CUE, stored in SQLite and driven either from the
command line or over the WebSocket adapter started by "reorder serve".`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			opts.Config = cfg
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to TOML config file")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewMoveCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter builds the output formatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// logger returns a text logger at the configured level; --verbose forces debug.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := o.Config.Level()
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// database returns the --db flag value, falling back to the config file.
func (o *RootOptions) database(flag string) string {
	if flag != "" {
		return flag
	}
	return o.Config.Database
}

// openExistingStore opens a store that must already exist on disk.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// formatOrder renders an id sequence as [A, B, C].
func formatOrder(ids []string) string {
	return "[" + strings.Join(ids, ", ") + "]"
}
