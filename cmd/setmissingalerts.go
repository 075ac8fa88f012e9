package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wbeardall/schedtools-go/internal/sweep"
	"github.com/wbeardall/schedtools-go/internal/tracking"
)

var setMissingAlertsCmd = &cobra.Command{
	Use:   "set-missing-alerts",
	Short: "Flag tracked-but-queued jobs that have vanished from the live queue",
	RunE:  runSetMissingAlerts,
}

func init() {
	rootCmd.AddCommand(setMissingAlertsCmd)
}

func runSetMissingAlerts(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	logger := newLogger()
	a, err := openApp(ctx, hostFlag, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	tq, err := tracking.Pull(ctx, a.store, logger)
	if err != nil {
		return fmt.Errorf("pull tracking queue: %w", err)
	}

	if err := sweep.SetMissingAlerts(ctx, tq, a.adapter, logger); err != nil {
		return fmt.Errorf("set missing alerts: %w", err)
	}
	fmt.Println("missing-alerts scan complete")
	return nil
}
