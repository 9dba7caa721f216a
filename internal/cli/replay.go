package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/predgen/internal/pipeline"
	"github.com/roach88/predgen/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string           `json:"run_id"`
	ToolVersion   string           `json:"tool_version"`
	Checked       int              `json:"checked"`
	Deterministic bool             `json:"deterministic"`
	Mismatches    []store.Mismatch `json:"mismatches,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-expand recorded declarations and verify determinism",
		Long: `Re-expand every declaration recorded in a ledger and verify determinism.

Each recorded input is expanded again under the configuration stored with
its run. The output hash and error code must match the recorded ones
byte for byte.

Exit codes:
  0 - All runs are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  predgen replay --db ./predgen.db
  predgen replay --db ./predgen.db --run 0192f0c4-...
  predgen replay --db ./predgen.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite ledger (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	// store.Open creates missing databases; replay only reads existing ones
	if _, err := os.Stat(opts.Database); err != nil {
		return reportError(f, ExitCommandError, ErrCodeNotFound, "ledger not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return reportError(f, ExitCommandError, ErrCodeLedger, "failed to open ledger", err)
	}
	defer st.Close()

	logger, cleanup, err := opts.logger()
	if err != nil {
		return reportError(f, ExitCommandError, ErrCodeGeneric, "failed to set up logging", err)
	}
	defer cleanup()

	// Get runs to process
	var runs []store.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrNotFound) {
			return reportError(f, ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run %s not found", opts.RunID), err)
		}
		if err != nil {
			return reportError(f, ExitCommandError, ErrCodeLedger, "failed to read run", err)
		}
		runs = []store.Run{run}
	} else {
		runs, err = st.ReadRuns(ctx)
		if err != nil {
			return reportError(f, ExitCommandError, ErrCodeLedger, "failed to list runs", err)
		}
	}

	if len(runs) == 0 {
		if f.JSON() {
			result := ReplayResult{
				Runs:             []ReplayRunResult{},
				TotalRuns:        0,
				AllDeterministic: true,
			}
			return outputReplayJSON(f, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in ledger.")
		return nil
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}

	regen := pipeline.Regenerate(logger)
	for _, run := range runs {
		f.VerboseLog("Replaying run %s", run.ID)
		replay, err := st.Replay(ctx, run.ID, regen)
		if err != nil {
			return reportError(f, ExitCommandError, ErrCodeLedger, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}

		runResult := ReplayRunResult{
			RunID:         run.ID,
			ToolVersion:   run.ToolVersion,
			Checked:       replay.Checked,
			Deterministic: replay.Deterministic(),
			Mismatches:    replay.Mismatches,
		}
		result.Runs = append(result.Runs, runResult)
		if !runResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if f.JSON() {
		return outputReplayJSON(f, result)
	}

	return outputReplayText(cmd, result, opts.Verbose)
}

// outputReplayJSON writes the replay result as one envelope.
func outputReplayJSON(f *OutputFormatter, result ReplayResult) error {
	var failure *CLIError
	if !result.AllDeterministic {
		failure = &CLIError{Code: ErrCodeLedger, Message: "determinism verification failed"}
	}
	if err := f.Respond(result, failure); err != nil {
		return err
	}
	if failure != nil {
		return NewExitError(ExitFailure, failure.Message)
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Run: %s\n", status, run.RunID)
		fmt.Fprintf(w, "  Declarations: %d\n", run.Checked)
		if verbose {
			fmt.Fprintf(w, "  Tool version: %s\n", run.ToolVersion)
		}

		for _, m := range run.Mismatches {
			fmt.Fprintf(w, "  %s %s (%s): %s differs\n", m.File, m.Decl, m.Macro, m.Field)
			if verbose {
				fmt.Fprintf(w, "    want: %s\n", m.Want)
				fmt.Fprintf(w, "    got:  %s\n", m.Got)
			}
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	// Determinism failure = exit code 1
	return NewExitError(ExitFailure, "determinism verification failed")
}
