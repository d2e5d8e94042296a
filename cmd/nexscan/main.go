// Command nexscan is the CLI entry point for the nexscan port scanner.
package main

import (
	"github.com/nexscan/nexscan/cmd/cli"
)

// Build information - these will be set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildTime)
	cli.Execute()
}
