package main

import (
	"fmt"
	"os"

	"github.com/gatorkit/gator-cli/internal/cli"
	"github.com/gatorkit/gator-cli/internal/config"
)

// Set via -ldflags at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	config.SetBuildFlags(version, commit, date)

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
