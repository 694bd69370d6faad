// Command assetstore is the CLI front-end for the embedded beatmap set
// library: initializing configuration, running database migrations,
// importing archives, reclaiming unreferenced files, and reporting status.
package main

import (
	"fmt"
	"os"

	"github.com/beatmaplib/assetstore/cmd/assetstore/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
