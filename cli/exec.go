package cli

import (
	"context"
	"fmt"

	"github.com/flarebyte/stagetrack/track"
	"github.com/spf13/cobra"
)

// NewExecCommand returns the `exec` command the pipeline tool runs for
// each registered stage. It loads the stage and runs it.
func NewExecCommand(p *track.Project) *cobra.Command {
	var (
		module string
		class  string
		name   string
		id     int
	)
	cmd := &cobra.Command{
		Use:           "exec",
		Short:         "Run one registered stage",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if module == "" || class == "" {
				return fmt.Errorf("missing required flags: --module and --class")
			}
			c, err := p.Registry().Lookup(module, class)
			if err != nil {
				return err
			}
			n, err := p.Load(c, track.WithName(name), track.WithID(id))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			p.Logger().Printf("running stage %s", n.Identity())
			return n.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&module, "module", "", "Module of the stage class")
	cmd.Flags().StringVar(&class, "class", "", "Stage class name")
	cmd.Flags().StringVar(&name, "name", "", "Stage name (defaults to the class name)")
	cmd.Flags().IntVar(&id, "id", 0, "Stage instance id")
	return cmd
}

// NewStageCommand returns the root command of a pipeline binary.
func NewStageCommand(use string, p *track.Project) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: "Pipeline stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(NewExecCommand(p))
	return cmd
}

// Execute runs a pipeline binary's command line.
func Execute(ctx context.Context, use string, p *track.Project, args []string) error {
	cmd := NewStageCommand(use, p)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
