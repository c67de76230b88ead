package list

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/flarebyte/stagetrack/cli"
	"github.com/flarebyte/stagetrack/internal/config"
	"github.com/flarebyte/stagetrack/internal/layout"
	"github.com/flarebyte/stagetrack/internal/luafilter"
	"github.com/flarebyte/stagetrack/internal/metafile"
	"github.com/spf13/cobra"
)

// NewCmd returns the `stagetrack list` command.
func NewCmd() *cobra.Command {
	var where string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored stages and whether the pipeline file registers them",
		Long: "List prints one line per stored stage: name, id and registration status.\n" +
			"--where takes a Lua expression over the global table `stage`\n" +
			"(name, id, options, results, registered).",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cli.OpenProject(cmd)
			if err != nil {
				return err
			}
			filter, err := luafilter.New(where, limits(p.Config().Lua))
			if err != nil {
				return fmt.Errorf("--where: %w", err)
			}
			stages, err := p.StoredStages()
			if err != nil {
				return err
			}
			pipeline, err := metafile.ReadPipeline(filepath.Join(p.Root(), metafile.PipelineFile))
			if err != nil {
				return err
			}
			registered := map[string]bool{}
			for _, s := range pipeline {
				registered[s.Name] = true
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()
			for _, s := range stages {
				isRegistered := registered[layout.ToolStageName(s.Name, s.ID)]
				ok, err := filter.Match(ctx, map[string]any{
					"name":       s.Name,
					"id":         s.ID,
					"options":    s.Options,
					"results":    s.Results,
					"registered": isRegistered,
				})
				if err != nil {
					return fmt.Errorf("--where: %s[%d]: %w", s.Name, s.ID, err)
				}
				if !ok {
					continue
				}
				status := "unregistered"
				if isRegistered {
					status = "registered"
				}
				if _, err := fmt.Fprintf(out, "%s\t%d\t%s\n", s.Name, s.ID, status); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "Lua predicate selecting stages")
	return cmd
}

func limits(s config.LuaSandbox) luafilter.Limits {
	return luafilter.Limits{
		Timeout:          time.Duration(s.TimeoutMs) * time.Millisecond,
		InstructionLimit: s.InstructionLimit,
		Libs: luafilter.Libs{
			Base:   s.Libs.Base,
			Table:  s.Libs.Table,
			String: s.Libs.String,
			Math:   s.Libs.Math,
		},
	}
}
