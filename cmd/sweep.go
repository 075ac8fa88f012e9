package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wbeardall/schedtools-go/internal/config"
	"github.com/wbeardall/schedtools-go/internal/driver"
	"github.com/wbeardall/schedtools-go/internal/sweep"
	"github.com/wbeardall/schedtools-go/internal/tracking"
)

var sweepOnce bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the reconciliation loop: rerun jobs nearing their walltime",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepOnce, "once", false, "run a single sweep and exit instead of looping")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
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

	tq, err := tracking.Pull(ctx, a.store, logger)
	if err != nil {
		return fmt.Errorf("pull tracking queue: %w", err)
	}

	cachePath := sweep.DefaultCachePath(hostFlag)
	mirror := sweep.NewMirror(a.ch, sweep.DefaultMirrorPath)
	cache := sweep.NewFileCache(cachePath)

	engine := sweep.NewEngine(a.adapter, tq, mirror, cache, logger, sweep.Config{
		Threshold:       cfg.Sweep.Threshold,
		ContinueOnRerun: cfg.Sweep.ContinueOnRerun,
	})

	driverCfg := driver.Config{
		Interval:         asDuration(cfg.Sweep.Interval),
		Threshold:        cfg.Sweep.Threshold,
		ExpectedWalltime: asDuration(cfg.Sweep.ExpectedWalltime),
		SafeBuffer:       cfg.Sweep.SafeBuffer,
	}
	d := driver.New(engine, driverCfg, logger)

	if sweepOnce {
		d.RunOnce(ctx)
		return nil
	}
	d.Loop(ctx)
	return nil
}
