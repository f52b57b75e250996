// Command owctld is the OpenSync Wi-Fi control-plane daemon: it aggregates
// conntrack flow samples, runs the DPI client registry over the resulting
// flows, and drives station steering decisions from the aggregated signal.
package main

import (
	"fmt"
	"os"

	"github.com/plume-design/opensync-sub020/cmd/owctld/commands"
)

// Build-time variables injected via ldflags.
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
