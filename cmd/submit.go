package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wbeardall/schedtools-go/internal/jobclass"
	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

var (
	submitJobID string
	submitClass string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a registered, unsubmitted job to the scheduler",
	Long: `submit hands a previously registered job to the scheduler. --class
optionally resolves a named resource-request preset (one of the built-in
job classes, e.g. exp_gpu2) into the job's resource request before submission.`,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitJobID, "job-id", "", "id of a previously registered job")
	submitCmd.Flags().StringVar(&submitClass, "class", "", "named resource-request preset to apply before submission")
	submitCmd.MarkFlagRequired("job-id")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	logger := newLogger()
	a, err := openApp(ctx, hostFlag, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	spec, ok, err := a.store.Get(ctx, submitJobID)
	if err != nil {
		return fmt.Errorf("look up %s: %w", submitJobID, err)
	}
	if !ok {
		return fmt.Errorf("no registered job with id %s", submitJobID)
	}
	if spec.State != jobmodel.StateUnsubmitted {
		return fmt.Errorf("job %s is already %s, not unsubmitted", submitJobID, spec.State)
	}

	if submitClass != "" {
		class, err := jobclass.NewRegistry().Get(submitClass)
		if err != nil {
			return fmt.Errorf("resolve --class %s: %w", submitClass, err)
		}
		spec.RequestedResources = class.ResourceRequest()
	}

	if err := a.adapter.SubmitJob(ctx, spec); err != nil {
		return fmt.Errorf("submit %s: %w", submitJobID, err)
	}
	spec.State = jobmodel.StateQueued
	if err := a.store.Upsert(ctx, []jobmodel.JobSpec{spec}, jobmodel.OnConflictUpdate); err != nil {
		return fmt.Errorf("record submission of %s: %w", submitJobID, err)
	}
	fmt.Printf("submitted %s\n", submitJobID)
	return nil
}
