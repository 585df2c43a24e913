package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/reorder/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios>",
		Short: "Run drag scenarios",
		Long: `Run YAML drag scenarios against a fresh engine each.

<scenarios> is a scenario file or a directory searched recursively for
.yaml and .yml files. Each scenario's trace is compared with
golden/<name>.golden next to it when that file exists.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  reorder test ./scenarios
  reorder test ./scenarios --filter "stale-*"
  reorder test ./scenarios --update
  reorder test ./scenarios/self-drop.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, path string, cmd *cobra.Command) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios not found: %s", path))
	}

	files, err := harness.FindScenarioFiles(path, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	formatter := opts.formatter(cmd)
	if len(files) == 0 {
		if formatter.JSON() {
			return outputTestJSON(formatter, &harness.SuiteResult{Scenarios: []harness.ScenarioOutcome{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	result := harness.RunSuite(files, harness.SuiteOptions{
		Filter: opts.Filter,
		Update: opts.Update,
	})

	if formatter.JSON() {
		if err := outputTestJSON(formatter, result); err != nil {
			return err
		}
	} else {
		outputTestText(cmd, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestJSON outputs test results as JSON.
func outputTestJSON(formatter *OutputFormatter, result *harness.SuiteResult) error {
	status := "ok"
	if result.Failed > 0 {
		status = "error"
	}

	return formatter.Respond(CLIResponse{Status: status, Data: result})
}

// outputTestText outputs one line per scenario and a summary.
func outputTestText(cmd *cobra.Command, result *harness.SuiteResult) {
	w := cmd.OutOrStdout()

	for _, s := range result.Scenarios {
		switch {
		case s.Pass && s.Golden == harness.GoldenUpdated:
			fmt.Fprintf(w, "✓ %s (golden updated)\n", s.Name)
		case s.Pass:
			fmt.Fprintf(w, "✓ %s\n", s.Name)
		default:
			fmt.Fprintf(w, "✗ %s\n", s.Name)
			for _, e := range s.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
	}

	fmt.Fprintln(w)
	if result.Failed == 0 {
		fmt.Fprintf(w, "All %d scenario(s) passed\n", result.Total)
		return
	}
	fmt.Fprintf(w, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
