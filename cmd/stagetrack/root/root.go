package root

import (
	"github.com/flarebyte/stagetrack/cli"
	"github.com/flarebyte/stagetrack/cmd/stagetrack/list"
	"github.com/flarebyte/stagetrack/cmd/stagetrack/show"
	"github.com/flarebyte/stagetrack/cmd/stagetrack/version"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for stagetrack.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stagetrack",
		Short: "Inspect tracked pipeline stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cli.AddProjectFlags(cmd)

	cmd.AddCommand(version.VersionCmd)
	cmd.AddCommand(list.NewCmd())
	cmd.AddCommand(show.NewCmd())

	return cmd
}

// Execute runs the root command with provided args.
func Execute(args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}
