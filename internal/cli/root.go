package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/predgen/internal/config"
	"github.com/roach88/predgen/internal/logging"
)

// Version is recorded with every ledger run.
const Version = "0.3.0"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string // path to predgen.cue; discovered in the working directory when empty
	LogLevel string // "debug" | "info" | "warn" | "error"
	LogFile  string // optional JSONL log file

	// logWriter receives structured logs; stderr when nil.
	logWriter io.Writer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatText, FormatJSON}

// NewRootCommand creates the root command for the predgen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "predgen",
		Short: "predgen - predicate helper generator",
		Long: `Generate instance methods from declarative predicate factories.

A static function annotated with @PredicateHelper whose last statement builds
a #Predicate gets a peer method that replays the function's statements and
evaluates the predicate closure against self. Go sources use a //predgen:helper
directive instead and get their methods in a generated file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if _, err := logging.ParseLevel(opts.LogLevel); err != nil {
				return err
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to predgen.cue (default: ./predgen.cue if present)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "also write JSON logs to this file")

	// Add subcommands
	cmd.AddCommand(NewExpandCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewMacrosCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// logger builds the structured logger. The returned cleanup closes the log
// file, if any.
func (o *RootOptions) logger() (*slog.Logger, func(), error) {
	level, err := logging.ParseLevel(o.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	w := o.logWriter
	if w == nil {
		w = os.Stderr
	}
	return logging.Setup(w, o.LogFile, level)
}

// loadConfig loads the --config file, or predgen.cue from the working
// directory, or the defaults.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	path := o.Config
	if path == "" {
		wd, err := os.Getwd()
		if err == nil {
			path = config.Discover(wd)
		}
	}
	return config.Load(path)
}
