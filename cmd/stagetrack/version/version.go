package version

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/flarebyte/stagetrack/internal/buildinfo"
	"github.com/flarebyte/stagetrack/internal/config"
	"github.com/spf13/cobra"
)

var flagJSON bool

// info is the --json payload.
type info struct {
	Version        string `json:"version"`
	Commit         string `json:"commit,omitempty"`
	Date           string `json:"date,omitempty"`
	BuiltBy        string `json:"built_by,omitempty"`
	ConfigVersions string `json:"config_versions"`
	Go             string `json:"go"`
	OS             string `json:"go_os"`
	Arch           string `json:"go_arch"`
}

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !flagJSON {
			_, err := fmt.Fprintf(out, "stagetrack %s\n", buildinfo.Summary())
			return err
		}
		bi := buildinfo.Current()
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info{
			Version:        bi.Version,
			Commit:         bi.Commit,
			Date:           bi.Date,
			BuiltBy:        bi.BuiltBy,
			ConfigVersions: config.SupportedConfigVersionsCSV(),
			Go:             runtime.Version(),
			OS:             runtime.GOOS,
			Arch:           runtime.GOARCH,
		})
	},
}

func init() {
	VersionCmd.Flags().BoolVar(&flagJSON, "json", false, "Print detailed JSON version info")
}
