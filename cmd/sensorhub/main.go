// Package main is the sensorhub command line entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sensorhub/cmd/sensorhub/commands"
	"github.com/Sumatoshi-tech/sensorhub/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sensorhub",
		Short: "SensorHub - heterogeneous sensor feed processing",
		Long: `SensorHub ingests raw sensor records, normalizes them, and fans them out
to analyzers, alerting actors, and display sinks.

Commands:
  run       Process a sensor record feed
  validate  Check a config file against the schema`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Subcommands read these through the merged flag set.
	root.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolP("quiet", "q", false, "suppress output")

	root.AddCommand(
		commands.NewRunCommand(),
		commands.NewValidateCommand(),
		newVersionCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("sensorhub %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
