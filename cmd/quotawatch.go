package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wbeardall/schedtools-go/internal/config"
	"github.com/wbeardall/schedtools-go/internal/quotawatch"
)

var quotaWatchOnce bool

var quotaWatchCmd = &cobra.Command{
	Use:   "quota-watch",
	Short: "Poll the scheduler's storage quota and log when it crosses a threshold",
	RunE:  runQuotaWatch,
}

func init() {
	quotaWatchCmd.Flags().BoolVar(&quotaWatchOnce, "once", false, "run a single check and exit instead of looping")
	rootCmd.AddCommand(quotaWatchCmd)
}

func runQuotaWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	a, err := openApp(ctx, hostFlag, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	w := quotawatch.New(a.adapter, quotawatch.Config{
		Interval:  asDuration(cfg.Quota.Interval),
		Threshold: cfg.Quota.Threshold,
	}, logger)

	if quotaWatchOnce {
		stats, err := w.CheckOnce(ctx)
		if err != nil {
			return fmt.Errorf("check storage quota: %w", err)
		}
		for partition, quota := range stats {
			fmt.Printf("%s: %.1f%% used\n", partition, quota.PercentUsed)
		}
		return nil
	}
	w.Loop(ctx)
	return nil
}
