package tui

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
	"github.com/wbeardall/schedtools-go/internal/tracking"
)

// TrackingSource adapts a tracking.TrackingQueue into a monitor Source by
// re-pulling it from the store on every refresh.
type TrackingSource struct {
	store *tracking.Store
	tq    *tracking.TrackingQueue
}

// NewTrackingSource builds a TrackingSource over store.
func NewTrackingSource(store *tracking.Store) *TrackingSource {
	return &TrackingSource{store: store}
}

// Refresh reloads the tracking queue from disk and returns its rows.
func (s *TrackingSource) Refresh(ctx context.Context) ([]jobmodel.JobSpec, error) {
	tq, err := tracking.Pull(ctx, s.store, zerolog.Nop())
	if err != nil {
		return nil, err
	}
	s.tq = tq
	return tq.Specs(), nil
}
