package cli

import (
	"io"
	"log"
	"os"

	"github.com/flarebyte/stagetrack/track"
	"github.com/spf13/cobra"
)

// AddProjectFlags registers --dir and --verbose as persistent flags.
func AddProjectFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("dir", ".", "Project directory")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Log diagnostics to stderr")
}

// OpenProject opens the project selected by the --dir and --verbose flags.
func OpenProject(cmd *cobra.Command, opts ...track.ProjectOption) (*track.Project, error) {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil || dir == "" {
		dir = "."
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	return track.Open(dir, append([]track.ProjectOption{track.WithLogger(Logger(verbose, cmd.ErrOrStderr()))}, opts...)...)
}

// Logger returns a stderr logger when verbose, a silent one otherwise.
func Logger(verbose bool, w io.Writer) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	if w == nil {
		w = os.Stderr
	}
	return log.New(w, "stagetrack: ", 0)
}
