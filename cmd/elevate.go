package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	elevateJobID   string
	elevateQueue   string
	elevateProject string
)

var elevateCmd = &cobra.Command{
	Use:   "elevate",
	Short: "Move a tracked job to a higher-priority queue or project",
	RunE:  runElevate,
}

func init() {
	elevateCmd.Flags().StringVar(&elevateJobID, "job-id", "", "id of the job to elevate")
	elevateCmd.Flags().StringVar(&elevateQueue, "queue", "", "destination queue")
	elevateCmd.Flags().StringVar(&elevateProject, "project", "", "destination project/account")
	elevateCmd.MarkFlagRequired("job-id")
	rootCmd.AddCommand(elevateCmd)
}

func runElevate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	logger := newLogger()
	a, err := openApp(ctx, hostFlag, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	live, err := a.adapter.GetJobs(ctx)
	if err != nil {
		return fmt.Errorf("acquire live queue: %w", err)
	}
	job, ok := live.Get(elevateJobID)
	if !ok {
		return fmt.Errorf("job %s not found in live queue", elevateJobID)
	}
	if err := a.adapter.ElevateJob(ctx, job, elevateQueue, elevateProject); err != nil {
		return fmt.Errorf("elevate %s: %w", elevateJobID, err)
	}
	fmt.Printf("elevated %s to queue=%s project=%s\n", elevateJobID, elevateQueue, elevateProject)
	return nil
}
