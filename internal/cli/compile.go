package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/reorder/internal/compiler"
	"github.com/roach88/reorder/internal/model"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string
}

// CompilationResult is what compile prints in JSON mode and writes to -o.
type CompilationResult struct {
	Surfaces []model.Surface         `json:"surfaces"`
	Warnings []compiler.CycleWarning `json:"warnings"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [surfaces-dir]",
		Short: "Compile CUE surface definitions",
		Long: `Compile CUE surface definitions and validate them.

Each surface is checked for duplicate ids, unknown kinds, malformed
constraints and group nesting loops. Loops are reported as warnings.
The directory defaults to surfaces_dir from the config file.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.Config.SurfacesDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runCompile(opts, dir, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write compiled surfaces as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loaded, errs := LoadSurfaces(dir, LoadModeCollectAll)
	if loaded != nil {
		formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)
		for _, s := range loaded.Surfaces {
			formatter.VerboseLog("Compiled surface: %s", s.ID)
		}
	}
	if len(errs) > 0 {
		return reportLoadErrors(formatter, loaded, errs)
	}

	result := &CompilationResult{Surfaces: loaded.Surfaces, Warnings: loaded.Warnings}
	if opts.Output != "" {
		if err := writeCompilation(result, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil, nil)
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	printCompilation(formatter.Writer, result, opts.Output)
	return nil
}

func printCompilation(w io.Writer, result *CompilationResult, outputFile string) {
	fmt.Fprintf(w, "✓ Compiled %d surface(s)\n\nSurfaces:\n", len(result.Surfaces))
	for _, s := range result.Surfaces {
		fmt.Fprintf(w, "  %s: %d item(s)%s\n", s.ID, len(s.Items), describeConstraints(s.Config))
	}
	fmt.Fprintln(w)

	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range result.Warnings {
			fmt.Fprintf(w, "  ⚠ %s\n", warn.Message)
		}
		fmt.Fprintln(w)
	}
	if outputFile != "" {
		fmt.Fprintf(w, "Wrote compiled surfaces to %s\n", outputFile)
	}
}

// describeConstraints renders the enforced constraints of a surface.
func describeConstraints(cfg model.ConstraintConfig) string {
	var parts []string
	if cfg.HasKindRestriction() {
		parts = append(parts, "accepts "+strings.Join(cfg.AllowedDropKinds.Tags(), ","))
	}
	if cfg.PredicateName != "" {
		parts = append(parts, "predicate "+cfg.PredicateName)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, "; ") + ")"
}

// outputCompileErrors reports every compile error. JSON mode puts the first
// error in the envelope and the full list in data.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	failed := NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		list := make([]CLIError, 0, len(errs))
		for _, err := range errs {
			code, message := parseCompileError(err)
			list = append(list, CLIError{Code: code, Message: message})
		}
		if err := formatter.Respond(CLIResponse{Status: "error", Error: &list[0], Data: list}); err != nil {
			return err
		}
		return failed
	}

	w := formatter.Writer
	fmt.Fprint(w, "✗ Compilation failed\n\n")
	for _, err := range errs {
		var le *LoadError
		if errors.As(err, &le) && le.Pos.IsValid() {
			fmt.Fprintf(w, "%s:%d:%d\n", le.Pos.Filename(), le.Pos.Line(), le.Pos.Column())
		}
		code, message := parseCompileError(err)
		fmt.Fprintf(w, "  %s: %s\n\n", code, message)
	}
	return failed
}

// parseCompileError splits err into an error code and message.
func parseCompileError(err error) (code, message string) {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code, le.Message
	}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return MapFieldToErrorCode(ce.Field), ce.Message
	}
	return ErrCodeGeneric, err.Error()
}

func writeCompilation(result *CompilationResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding compiled surfaces: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}
