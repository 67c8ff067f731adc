package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/playback/internal/demo"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in scripts",
		Long: `List the built-in demo scripts.

Any command that takes a script accepts a built-in name, with or
without the "builtin:" prefix.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	infos, err := demo.List()
	if err != nil {
		_ = f.Error(ErrCodeScript, err.Error(), nil)
		return WrapExitError(ExitFailure, "built-in script is invalid", err)
	}
	if f.JSON() {
		if infos == nil {
			infos = []demo.Info{}
		}
		return f.Success(infos)
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTEPS\tFORMAT\tDESCRIPTION")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", info.Name, info.Steps, info.Format, info.Description)
	}
	return tw.Flush()
}
