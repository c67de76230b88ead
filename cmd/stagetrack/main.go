package main

import (
	"os"

	"github.com/flarebyte/stagetrack/cli"
	"github.com/flarebyte/stagetrack/cmd/stagetrack/root"
)

func main() {
	// Errors print as one line on stderr; usage is never shown.
	cli.Exit(root.Execute(os.Args[1:]))
}
