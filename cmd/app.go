package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wbeardall/schedtools-go/internal/channel"
	"github.com/wbeardall/schedtools-go/internal/hostconfig"
	"github.com/wbeardall/schedtools-go/internal/tracking"
	"github.com/wbeardall/schedtools-go/internal/workload"
)

// app bundles the wiring every scheduler-talking command needs: an open
// channel to the target host, the detected workload adapter, and the
// local tracking store.
type app struct {
	ch      channel.Channel
	closer  func() error
	adapter workload.Adapter
	store   *tracking.Store
	logger  zerolog.Logger
}

func openApp(ctx context.Context, host string, logger zerolog.Logger) (*app, error) {
	if host == "" {
		return nil, fmt.Errorf("--host is required")
	}
	ch, err := hostconfig.Connect(ctx, host, hostconfig.ConnectOptions{InsecureHostKey: insecureKey}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", host, err)
	}

	adapter, err := workload.Detect(ctx, ch, logger)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("detect workload manager: %w", err)
	}

	store, err := tracking.OpenDefault()
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("open tracking store: %w", err)
	}

	return &app{ch: ch, closer: ch.Close, adapter: adapter, store: store, logger: logger}, nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.closer != nil {
		a.closer()
	}
}
