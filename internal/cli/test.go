package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/predgen/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // case filter (glob pattern)
}

// CaseResult holds the result of a single case execution.
type CaseResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Cases  []CaseResult `json:"cases"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Total  int          `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <cases-dir>",
		Short: "Run conformance cases",
		Long: `Run YAML conformance cases through the expander.

Each case expands its input and checks the expected peers, snippets or
diagnostic. When golden/<case>.golden exists next to a case file, the full
expanded output must match it as well.

Exit codes:
  0 - All cases passed
  1 - One or more cases failed
  2 - Command error (invalid paths, etc.)

Examples:
  predgen test ./cases
  predgen test ./cases --filter "go_*"
  predgen test ./cases --update
  predgen test ./cases --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter cases by glob pattern")

	return cmd
}

func runTests(ctx context.Context, opts *TestOptions, casesDir string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	f := opts.formatter(cmd)

	// Validate directory
	if _, err := os.Stat(casesDir); os.IsNotExist(err) {
		return reportError(f, ExitCommandError, ErrCodeNotFound, fmt.Sprintf("cases directory not found: %s", casesDir), nil)
	}

	caseFiles, err := findCaseFiles(casesDir, opts.Filter)
	if err != nil {
		return reportError(f, ExitCommandError, ErrCodeGeneric, "failed to find cases", err)
	}

	if len(caseFiles) == 0 {
		if f.JSON() {
			return outputTestJSON(f, TestResult{
				Cases: []CaseResult{},
				Total: 0,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No cases found.")
		return nil
	}

	cfg, logger, cleanup, err := opts.setup(f, "")
	if err != nil {
		return err
	}
	defer cleanup()
	h := harness.New(cfg, logger)

	result := TestResult{
		Cases: make([]CaseResult, 0, len(caseFiles)),
		Total: len(caseFiles),
	}

	for _, caseFile := range caseFiles {
		caseResult := runCase(ctx, h, caseFile, opts, cmd)
		result.Cases = append(result.Cases, caseResult)

		if caseResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if f.JSON() {
		return outputTestJSON(f, result)
	}

	return outputTestText(cmd, result)
}

// findCaseFiles finds all YAML case files in a directory.
func findCaseFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		// Only process .yaml and .yml files
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		// Apply filter if specified
		if filter != "" {
			base := filepath.Base(path)
			name := strings.TrimSuffix(base, ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// runCase executes a single case and returns the result.
func runCase(ctx context.Context, h *harness.Harness, caseFile string, opts *TestOptions, cmd *cobra.Command) CaseResult {
	w := cmd.OutOrStdout()
	text := opts.Format != FormatJSON

	fail := func(name string, errs ...string) CaseResult {
		if text {
			fmt.Fprintf(w, "✗ %s\n", name)
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		return CaseResult{Name: name, Pass: false, Errors: errs}
	}
	pass := func(name, note string) CaseResult {
		if text {
			fmt.Fprintf(w, "✓ %s%s\n", name, note)
		}
		return CaseResult{Name: name, Pass: true}
	}

	c, err := harness.LoadCase(caseFile)
	if err != nil {
		return fail(filepath.Base(caseFile), fmt.Sprintf("failed to load case: %v", err))
	}

	result, err := h.Run(ctx, c)
	if err != nil {
		return fail(c.Name, fmt.Sprintf("execution failed: %v", err))
	}

	goldenPath := goldenFilePath(caseFile)

	if opts.Update {
		if err := updateGoldenFile(result, goldenPath); err != nil {
			return fail(c.Name, fmt.Sprintf("failed to update golden file: %v", err))
		}
		if !result.Pass {
			return fail(c.Name, result.Errors...)
		}
		return pass(c.Name, " (golden updated)")
	}

	if _, err := os.Stat(goldenPath); err == nil {
		match, err := compareWithGolden(result, goldenPath)
		if err != nil {
			return fail(c.Name, fmt.Sprintf("golden comparison failed: %v", err))
		}
		if !match {
			return fail(c.Name, append([]string{"output does not match golden file (run with --update to regenerate)"}, result.Errors...)...)
		}
	}

	if !result.Pass {
		return fail(c.Name, result.Errors...)
	}
	return pass(c.Name, "")
}

// goldenFilePath returns the path to the golden file for a case.
func goldenFilePath(caseFile string) string {
	dir := filepath.Dir(caseFile)
	base := filepath.Base(caseFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// updateGoldenFile writes the expanded output as the golden file.
func updateGoldenFile(result *harness.Result, goldenPath string) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(goldenPath, []byte(result.Output), 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// compareWithGolden compares the expanded output against the golden file.
func compareWithGolden(result *harness.Result, goldenPath string) (bool, error) {
	goldenData, err := os.ReadFile(goldenPath)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	return string(goldenData) == result.Output, nil
}

// outputTestJSON writes the test result as one envelope.
func outputTestJSON(f *OutputFormatter, result TestResult) error {
	var failure *CLIError
	if result.Failed > 0 {
		failure = &CLIError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%d case(s) failed", result.Failed)}
	}
	if err := f.Respond(result, failure); err != nil {
		return err
	}
	if failure != nil {
		return NewExitError(ExitFailure, failure.Message)
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d case(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All cases passed")
	return nil
}
