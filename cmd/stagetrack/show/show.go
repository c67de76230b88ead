package show

import (
	"github.com/flarebyte/stagetrack/cli"
	"github.com/flarebyte/stagetrack/internal/metafile"
	"github.com/spf13/cobra"
)

// NewCmd returns the `stagetrack show` command.
func NewCmd() *cobra.Command {
	var (
		id  int
		out string
	)
	cmd := &cobra.Command{
		Use:           "show NAME",
		Short:         "Print a stored stage as canonical YAML",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cli.OpenProject(cmd)
			if err != nil {
				return err
			}
			info, err := p.StoredStage(args[0], id)
			if err != nil {
				return err
			}
			options := map[string]any{}
			for k, v := range info.Options {
				options[k] = v
			}
			if len(info.Results) > 0 {
				options["result"] = info.Results
			}
			if out != "" {
				return metafile.Write(out, info.Name, info.ID, options)
			}
			b, err := metafile.Marshal(info.Name, info.ID, options)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	cmd.Flags().IntVar(&id, "id", 0, "Stage instance id")
	cmd.Flags().StringVar(&out, "out", "", "Write the YAML to this file instead of stdout")
	return cmd
}
