package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
	"github.com/wbeardall/schedtools-go/internal/tracking"
)

var (
	updateJobID    string
	updateState    string
	updateComment  string
)

var updateJobStateCmd = &cobra.Command{
	Use:   "update-job-state",
	Short: "Set a tracked job's state directly in the local store",
	Long: `update-job-state is the local counterpart to the remote helper a job
script invokes on the scheduler side to report its own terminal state
(e.g. "completed" or "failed") without waiting for the next sweep.`,
	RunE: runUpdateJobState,
}

func init() {
	updateJobStateCmd.Flags().StringVar(&updateJobID, "job-id", "", "id of the job to update")
	updateJobStateCmd.Flags().StringVar(&updateState, "state", "", "new state")
	updateJobStateCmd.Flags().StringVar(&updateComment, "comment", "", "optional comment")
	updateJobStateCmd.MarkFlagRequired("job-id")
	updateJobStateCmd.MarkFlagRequired("state")
	rootCmd.AddCommand(updateJobStateCmd)
}

func runUpdateJobState(cmd *cobra.Command, args []string) error {
	state := jobmodel.State(updateState)
	if !state.Valid() {
		return fmt.Errorf("invalid state %q", updateState)
	}

	store, err := tracking.OpenDefault()
	if err != nil {
		return fmt.Errorf("open tracking store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.UpdateState(ctx, updateJobID, state, updateComment); err != nil {
		return fmt.Errorf("update %s: %w", updateJobID, err)
	}
	fmt.Printf("%s -> %s\n", updateJobID, state)
	return nil
}
