package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crewsync/crewsync/pkg/client"
)

func opsClient(cmd *cobra.Command) *client.Client {
	addr, _ := cmd.Flags().GetString("addr")
	return client.NewClient(addr)
}

func opsContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync engine status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := opsContext()
		defer cancel()

		report, err := opsClient(cmd).Status(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Connected clients:  %d\n", report.ConnectedClients)
		fmt.Printf("Queued events:      %d\n", report.QueueDepth)
		fmt.Printf("Pending updates:    %d\n", report.PendingUpdates)
		fmt.Printf("Sync lag:           %s\n", report.SyncLag)
		fmt.Printf("Avg processing:     %s\n", report.AverageProcessingTime)
		fmt.Printf("Error rate:         %.2f%%\n", report.ErrorRate*100)
		if !report.LastSyncEvent.IsZero() {
			fmt.Printf("Last sync event:    %s\n", report.LastSyncEvent.Format(time.RFC3339))
		}
		return nil
	},
}

var triggerCmd = &cobra.Command{
	Use:   "trigger <entity-id>",
	Short: "Report a manual entity change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")

		ctx, cancel := opsContext()
		defer cancel()

		if err := opsClient(cmd).Trigger(ctx, args[0], kind); err != nil {
			return err
		}
		fmt.Println("✓ Change queued")
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Force a full resynchronization",
	Long: `Clear all caches, re-warm the critical entries, and broadcast a
force_refresh notification to every connected consumer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := opsContext()
		defer cancel()

		ok, err := opsClient(cmd).ForceSync(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("force synchronization reported failure")
		}
		fmt.Println("✓ Synchronization complete")
		return nil
	},
}

var consistencyCmd = &cobra.Command{
	Use:   "consistency",
	Short: "Check cached aggregates against a fresh recomputation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := opsContext()
		defer cancel()

		report, err := opsClient(cmd).Consistency(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Metric:      %s\n", report.Metric)
		fmt.Printf("Cached:      %.3f\n", report.Cached)
		fmt.Printf("Recomputed:  %.3f\n", report.Recomputed)
		if report.Divergent {
			fmt.Println("✗ Divergence detected — run 'crewsync sync' to reconcile")
		} else {
			fmt.Println("✓ Consistent")
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, triggerCmd, syncCmd, consistencyCmd} {
		c.Flags().String("addr", "localhost:8090", "Gateway address")
	}
	triggerCmd.Flags().String("kind", "team_update", "Change kind to report")
}
