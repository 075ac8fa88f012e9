package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
	"github.com/wbeardall/schedtools-go/internal/plan"
	"github.com/wbeardall/schedtools-go/internal/tracking"
)

var (
	registerJobscript  string
	registerExperiment string
	registerQueue      string
	registerProject    string
	registerPlanFile   string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Track a new job without submitting it to the scheduler",
	Long: `register creates an unsubmitted JobSpec in the local tracking store.
Either provide --jobscript and --experiment-path for a single job, or
--plan for a batch registration file.`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVar(&registerJobscript, "jobscript", "", "path to the jobscript on the remote host")
	registerCmd.Flags().StringVar(&registerExperiment, "experiment-path", "", "path to the experiment directory")
	registerCmd.Flags().StringVar(&registerQueue, "queue", "", "scheduler queue name")
	registerCmd.Flags().StringVar(&registerProject, "project", "", "scheduler project/account")
	registerCmd.Flags().StringVar(&registerPlanFile, "plan", "", "batch registration plan file")
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	store, err := tracking.OpenDefault()
	if err != nil {
		return fmt.Errorf("open tracking store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	specs, err := registerSpecs()
	if err != nil {
		return err
	}
	for _, spec := range specs {
		if err := store.Upsert(ctx, []jobmodel.JobSpec{spec}, jobmodel.OnConflictThrow); err != nil {
			return fmt.Errorf("register %s: %w", spec.ID, err)
		}
		fmt.Printf("registered %s (%s)\n", spec.ID, spec.ExperimentPath)
	}
	return nil
}

func registerSpecs() ([]jobmodel.JobSpec, error) {
	if registerPlanFile != "" {
		data, err := os.ReadFile(registerPlanFile)
		if err != nil {
			return nil, fmt.Errorf("read plan %s: %w", registerPlanFile, err)
		}
		pf, err := plan.Decode(data)
		if err != nil {
			return nil, err
		}
		pf.ApplyDefaults(plan.Defaults{Queue: registerQueue, Project: registerProject})
		if err := pf.Validate(); err != nil {
			return nil, fmt.Errorf("invalid plan %s: %w", registerPlanFile, err)
		}
		return pf.JobSpecs(), nil
	}

	if registerJobscript == "" || registerExperiment == "" {
		return nil, fmt.Errorf("--jobscript and --experiment-path are required without --plan")
	}
	spec := jobmodel.NewUnsubmitted(jobmodel.FromUnsubmittedOptions{
		JobscriptPath:  registerJobscript,
		ExperimentPath: registerExperiment,
		Queue:          registerQueue,
		Project:        registerProject,
	})
	return []jobmodel.JobSpec{spec}, nil
}
