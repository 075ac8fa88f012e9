package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
	"github.com/wbeardall/schedtools-go/internal/tracking"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the local tracking store by job state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store, err := tracking.OpenDefault()
	if err != nil {
		return fmt.Errorf("open tracking store: %w", err)
	}
	defer store.Close()

	specs, err := store.All(ctx)
	if err != nil {
		return fmt.Errorf("list tracked jobs: %w", err)
	}

	counts := make(map[jobmodel.State]int)
	for _, s := range specs {
		counts[s.State]++
	}

	fmt.Printf("%d jobs tracked\n", len(specs))
	for _, state := range []jobmodel.State{
		jobmodel.StateUnsubmitted, jobmodel.StateQueued, jobmodel.StateRunning,
		jobmodel.StateHeld, jobmodel.StateAlert, jobmodel.StateCompleted, jobmodel.StateFailed,
	} {
		if n := counts[state]; n > 0 {
			fmt.Printf("  %-12s %d\n", state, n)
		}
	}
	return nil
}
