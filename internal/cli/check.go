package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// CheckResult holds the check result.
type CheckResult struct {
	Files        []FileResult `json:"files"`
	Declarations int          `json:"declarations"`
	Failed       int          `json:"failed"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Report expansion diagnostics without writing output",
		Long: `Expand the given files in memory and report diagnostics only.

Exit codes:
  0 - Every annotated declaration expands
  1 - One or more declarations or files failed
  2 - Command error (no input, bad config)

Examples:
  predgen check Sources/*.swift
  predgen check catalog.go --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), rootOpts, args, cmd)
		},
	}

	return cmd
}

func runCheck(ctx context.Context, opts *RootOptions, files []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	if len(files) == 0 {
		return reportError(f, ExitCommandError, ErrCodeNoFiles, "no input files", nil)
	}

	cfg, logger, cleanup, err := opts.setup(f, "")
	if err != nil {
		return err
	}
	defer cleanup()

	result := CheckResult{Files: make([]FileResult, 0, len(files))}
	for _, path := range files {
		fr, _ := expandFile(ctx, cfg, path, true, logger)
		result.Declarations += fr.Declarations
		result.Failed += fr.Failed
		result.Files = append(result.Files, fr)
	}

	if f.JSON() {
		if err := f.Respond(result, expansionFailure(result.Files, result.Failed)); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, fr := range result.Files {
			f.FileProblems(w, fr)
			if fr.Error == nil && fr.Failed == 0 {
				f.VerboseLog("✓ %s: %d declaration(s)", fr.File, fr.Declarations)
			}
		}
		fmt.Fprintf(w, "Check Summary: %d declaration(s), %d failed\n", result.Declarations, result.Failed)
		if result.Failed == 0 {
			fmt.Fprintln(w, "✓ All declarations expand")
		}
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d declaration(s) or file(s) failed", result.Failed))
	}
	return nil
}
