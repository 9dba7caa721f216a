package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/predgen/internal/macro"
)

// MacrosResult lists the registered macros and the Go directive.
type MacrosResult struct {
	Macros      []macro.Entry `json:"macros"`
	GoDirective string        `json:"go_directive"`
}

// NewMacrosCommand creates the macros command.
func NewMacrosCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "macros",
		Short: "List registered macros",
		Long: `List the attribute names the expander recognises and the macro each one
applies, as configured by predgen.cue.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMacros(rootOpts, cmd)
		},
	}
}

func runMacros(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return reportError(f, ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	reg, err := cfg.Registry()
	if err != nil {
		return reportError(f, ExitCommandError, ErrCodeConfig, "invalid macro table", err)
	}

	result := MacrosResult{
		Macros:      reg.Entries(),
		GoDirective: "//" + cfg.Go.Directive,
	}

	if f.JSON() {
		return f.Success(result)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ATTRIBUTE\tKIND")
	for _, e := range result.Macros {
		fmt.Fprintf(tw, "@%s\t%s\n", e.Attribute, e.Kind)
	}
	fmt.Fprintf(tw, "%s\t%s\n", result.GoDirective, macro.KindSplice)
	return tw.Flush()
}
