package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/wayword-go/internal/client"
	"github.com/spf13/cobra"
)

var statsServer string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show timeline and server statistics",
	Long: `Show the timeline size and, when a server is reachable, its runtime
operation timings.

Examples:
  wayword stats
  wayword stats --server http://localhost:8787`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsServer, "server", "", "server URL (default: WAYWORD_SERVER_URL)")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	count, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count places: %w", err)
	}
	fmt.Printf("Timeline places: %d\n", count)

	// Server stats are best-effort: the CLI works without a running server.
	c := client.New(statsServer)
	stats, err := c.Stats(ctx)
	if err != nil {
		if verbose {
			fmt.Printf("Server not reachable: %v\n", err)
		}
		return nil
	}

	fmt.Printf("\nServer uptime: %.0fs\n", stats.UptimeSeconds)
	printOp := func(name string, op *client.OperationStats) {
		if op == nil {
			return
		}
		fmt.Printf("  %-14s %5d calls  avg %6.1fms  min %4dms  max %4dms\n",
			name, op.Count, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
	}
	fmt.Println("Operations:")
	printOp("embedding", stats.Embedding)
	printOp("score", stats.Score)
	printOp("recommend", stats.Recommend)
	printOp("fallback", stats.Fallback)
	printOp("history query", stats.HistoryQuery)

	return nil
}
