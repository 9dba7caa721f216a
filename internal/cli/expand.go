package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/predgen/internal/config"
	"github.com/roach88/predgen/internal/expand"
	"github.com/roach88/predgen/internal/macro"
	"github.com/roach88/predgen/internal/pipeline"
	"github.com/roach88/predgen/internal/store"
	"github.com/roach88/predgen/internal/syntax"
)

// ExpandOptions holds flags for the expand command.
type ExpandOptions struct {
	*RootOptions
	Output    string // output file, or directory when several inputs are given
	PeersOnly bool   // print only the generated peers
	Style     string // overrides the configured style
	Ledger    string // SQLite ledger to record the run in
}

// FileResult holds the expansion outcome for one input file.
type FileResult struct {
	File         string             `json:"file"`
	Lang         string             `json:"lang"`
	Declarations int                `json:"declarations"`
	Failed       int                `json:"failed"`
	Written      string             `json:"written,omitempty"`
	Output       string             `json:"output,omitempty"`
	Diagnostics  []macro.Diagnostic `json:"diagnostics,omitempty"`
	Error        *CLIError          `json:"error,omitempty"`
}

// ExpandResult holds the overall expand result.
type ExpandResult struct {
	Files        []FileResult `json:"files"`
	RunID        string       `json:"run_id,omitempty"`
	Declarations int          `json:"declarations"`
	Failed       int          `json:"failed"`
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpandOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "expand <file>...",
		Short: "Expand annotated declarations",
		Long: `Expand every annotated declaration in the given files.

Attribute sources are printed to stdout with the generated peers inserted
after each annotated function, or written to --output. Go sources get their
generated methods in a sibling file (foo.go -> foo_predicates.go by default).

With --ledger, every expansion is recorded in a SQLite ledger together with
the configuration of the run, so that 'predgen replay' can verify it later.

Exit codes:
  0 - All declarations expanded
  1 - One or more declarations or files failed
  2 - Command error (no input, bad config, ledger unavailable)

Examples:
  predgen expand Item.swift
  predgen expand Item.swift --peers-only --style compact
  predgen expand a.swift b.swift -o ./out
  predgen expand catalog.go --ledger ./predgen.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file, or directory for several inputs")
	cmd.Flags().BoolVar(&opts.PeersOnly, "peers-only", false, "print only the generated peers")
	cmd.Flags().StringVar(&opts.Style, "style", "", "output style (multiline|compact)")
	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "record expansions in this SQLite ledger")

	return cmd
}

func runExpand(ctx context.Context, opts *ExpandOptions, files []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	if len(files) == 0 {
		return reportError(f, ExitCommandError, ErrCodeNoFiles, "no input files", nil)
	}

	cfg, logger, cleanup, err := opts.setup(f, opts.Style)
	if err != nil {
		return err
	}
	defer cleanup()

	outDir := ""
	if opts.Output != "" && len(files) > 1 {
		outDir = opts.Output
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return reportError(f, ExitCommandError, ErrCodeWrite, "failed to create output directory", err)
		}
	}

	var st *store.Store
	var run store.Run
	if opts.Ledger != "" {
		st, run, err = beginLedgerRun(ctx, opts.Ledger, cfg)
		if err != nil {
			return reportError(f, ExitCommandError, ErrCodeLedger, "failed to start ledger run", err)
		}
		defer st.Close()
		f.VerboseLog("Recording run %s in %s", run.ID, opts.Ledger)
	}

	result := ExpandResult{
		Files: make([]FileResult, 0, len(files)),
		RunID: run.ID,
	}

	for _, path := range files {
		fr, res := expandFile(ctx, cfg, path, opts.PeersOnly, logger)

		if res != nil {
			if dest := outputPath(cfg, fr.Lang, path, opts.Output, outDir); dest != "" {
				if err := writeOutput(dest, res.Output); err != nil {
					fr.Failed++
					fr.Error = &CLIError{Code: ErrCodeWrite, Message: "failed to write output", Details: err.Error()}
				} else {
					fr.Written = dest
					f.VerboseLog("Wrote %s", dest)
				}
			} else {
				fr.Output = res.Output
			}

			if st != nil {
				if _, err := pipeline.RecordResult(ctx, st, run, fr.Lang, res); err != nil {
					return reportError(f, ExitCommandError, ErrCodeLedger, "failed to record expansions", err)
				}
			}
		}

		result.Declarations += fr.Declarations
		result.Failed += fr.Failed
		result.Files = append(result.Files, fr)
	}

	if f.JSON() {
		return outputExpandJSON(f, result)
	}
	return outputExpandText(cmd, f, result)
}

// setup loads the configuration, applies a --style override and builds the
// logger. The returned cleanup must be called when the command finishes.
func (o *RootOptions) setup(f *OutputFormatter, style string) (*config.Config, *slog.Logger, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, nil, reportError(f, ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	if style != "" {
		parsed, err := syntax.ParseStyle(style)
		if err != nil {
			return nil, nil, nil, reportError(f, ExitCommandError, ErrCodeGeneric, "invalid --style", err)
		}
		cfg.Style = parsed.String()
	}

	logger, cleanup, err := o.logger()
	if err != nil {
		return nil, nil, nil, reportError(f, ExitCommandError, ErrCodeGeneric, "failed to set up logging", err)
	}
	return cfg, logger, cleanup, nil
}

// beginLedgerRun opens the ledger and starts a run carrying cfg.
func beginLedgerRun(ctx context.Context, path string, cfg *config.Config) (*store.Store, store.Run, error) {
	canonical, err := cfg.Canonical()
	if err != nil {
		return nil, store.Run{}, fmt.Errorf("canonical config: %w", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, store.Run{}, err
	}
	run, err := st.BeginRun(ctx, store.UUIDv7Generator{}, canonical, Version)
	if err != nil {
		st.Close()
		return nil, store.Run{}, err
	}
	return st, run, nil
}

// expandFile reads and expands one file. The expand.Result is nil when the
// file could not be read or parsed; the FileResult then carries the error.
func expandFile(ctx context.Context, cfg *config.Config, path string, peersOnly bool, logger *slog.Logger) (FileResult, *expand.Result) {
	lang := pipeline.LangOf(path)
	fr := FileResult{File: path, Lang: lang}

	src, err := os.ReadFile(path)
	if err != nil {
		fr.Failed = 1
		fr.Error = &CLIError{Code: errorCode(err), Message: "failed to read file", Details: err.Error()}
		return fr, nil
	}

	exp, err := pipeline.NewExpander(cfg, lang, peersOnly, logger)
	if err != nil {
		fr.Failed = 1
		fr.Error = &CLIError{Code: errorCode(err), Message: "invalid configuration", Details: err.Error()}
		return fr, nil
	}

	res, err := exp.ExpandSource(ctx, path, src)
	if err != nil {
		fr.Failed = 1
		message := "expansion aborted"
		var perr *expand.ParseError
		if errors.As(err, &perr) {
			message = "failed to parse file"
		}
		fr.Error = &CLIError{Code: errorCode(err), Message: message, Details: err.Error()}
		return fr, nil
	}

	fr.Declarations = len(res.Expansions)
	fr.Failed = res.Failed()
	fr.Diagnostics = res.Diagnostics
	return fr, res
}

// outputPath returns where the expansion of path is written, or "" for
// stdout. Go sources always go to a file.
func outputPath(cfg *config.Config, lang, path, output, outDir string) string {
	if lang == store.LangGo {
		generated := pipeline.GeneratedPath(cfg, path)
		switch {
		case outDir != "":
			return filepath.Join(outDir, filepath.Base(generated))
		case output != "":
			return output
		default:
			return generated
		}
	}

	switch {
	case outDir != "":
		return filepath.Join(outDir, filepath.Base(path))
	default:
		return output
	}
}

func writeOutput(path, content string) error {
	if content == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// outputExpandJSON writes the expand result as one envelope.
func outputExpandJSON(f *OutputFormatter, result ExpandResult) error {
	if err := f.Respond(result, expansionFailure(result.Files, result.Failed)); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d declaration(s) or file(s) failed", result.Failed))
	}
	return nil
}

// outputExpandText prints expanded sources to stdout and diagnostics to
// stderr.
func outputExpandText(cmd *cobra.Command, f *OutputFormatter, result ExpandResult) error {
	w := cmd.OutOrStdout()
	ew := f.GetErrWriter()

	for _, fr := range result.Files {
		if fr.Output != "" {
			fmt.Fprint(w, fr.Output)
		}
		f.FileProblems(ew, fr)
	}

	if result.Failed > 0 {
		fmt.Fprintf(ew, "✗ %d of %d declaration(s) failed\n", result.Failed, result.Declarations)
		return NewExitError(ExitFailure, fmt.Sprintf("%d declaration(s) or file(s) failed", result.Failed))
	}

	f.VerboseLog("✓ Expanded %d declaration(s) in %d file(s)", result.Declarations, len(result.Files))
	return nil
}
