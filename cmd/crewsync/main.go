package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "crewsync",
	Short: "CrewSync - Event synchronization engine for derived team aggregates",
	Long: `CrewSync keeps cached summary views and scoped sub-views consistent
whenever schedules, memberships, or sprint settings change, without
requiring consumers to poll.

It captures change events, coalesces duplicates, processes batches with
per-event failure isolation, cascades cache invalidation into
recalculation and broadcast, and monitors its own lag and error rate.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"CrewSync version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(triggerCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(consistencyCmd)
}
