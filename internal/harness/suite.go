package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Golden comparison states reported per scenario.
const (
	GoldenMatch    = "match"
	GoldenMismatch = "mismatch"
	GoldenUpdated  = "updated"
	GoldenMissing  = "missing"
)

// SuiteOptions controls RunSuite.
type SuiteOptions struct {
	// Filter is a glob matched against scenario file names without extension.
	Filter string

	// Update rewrites golden files instead of comparing against them.
	Update bool
}

// ScenarioOutcome is the result of one scenario file.
type ScenarioOutcome struct {
	Path   string   `json:"path"`
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden"`
	Errors []string `json:"errors,omitempty"`
}

// SuiteResult summarizes a scenario run.
type SuiteResult struct {
	Scenarios []ScenarioOutcome `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Total     int               `json:"total"`
}

// FindScenarioFiles returns the YAML scenario files at path. A file path is
// returned as-is; a directory is walked recursively.
func FindScenarioFiles(path string, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	files := []string{}
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		// Only process .yaml and .yml files
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		// Apply filter if specified
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(p), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, p)
		return nil
	})

	return files, err
}

// GoldenPath returns the golden file for a scenario file:
// <dir>/golden/<name>.golden next to the scenario.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// RunSuite loads and runs every scenario file, comparing each trace with
// its golden file when one exists.
//
// A scenario passes when its expect clauses and assertions hold and its
// golden file matches or is absent.
func RunSuite(files []string, opts SuiteOptions) *SuiteResult {
	result := &SuiteResult{
		Scenarios: make([]ScenarioOutcome, 0, len(files)),
		Total:     len(files),
	}

	for _, file := range files {
		outcome := runScenarioFile(file, opts)
		if outcome.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, outcome)
	}

	return result
}

func runScenarioFile(file string, opts SuiteOptions) ScenarioOutcome {
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	outcome := ScenarioOutcome{Path: file, Name: name, Golden: GoldenMissing}

	scenario, err := LoadScenario(file)
	if err != nil {
		outcome.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return outcome
	}
	outcome.Name = scenario.Name

	result, err := Run(scenario)
	if err != nil {
		outcome.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return outcome
	}
	outcome.Errors = result.Errors

	snapshot := NewTraceSnapshot(scenario.Name, result)
	current, err := snapshot.MarshalCanonical()
	if err != nil {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("failed to marshal trace: %v", err))
		return outcome
	}

	goldenPath := GoldenPath(file)
	if opts.Update {
		if err := writeGolden(goldenPath, current); err != nil {
			outcome.Errors = append(outcome.Errors, err.Error())
			return outcome
		}
		outcome.Golden = GoldenUpdated
		outcome.Pass = result.Pass
		return outcome
	}

	golden, err := os.ReadFile(goldenPath)
	switch {
	case os.IsNotExist(err):
		// No golden file - assertion-based validation only
	case err != nil:
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("failed to read golden file: %v", err))
		return outcome
	case bytes.Equal(bytes.TrimSpace(golden), current):
		outcome.Golden = GoldenMatch
	default:
		outcome.Golden = GoldenMismatch
		outcome.Errors = append(outcome.Errors, "trace does not match golden file (run with --update to regenerate)")
		return outcome
	}

	outcome.Pass = result.Pass
	return outcome
}

func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}
