package sweep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wbeardall/schedtools-go/internal/channel"
	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// Mirror writes the full tracked payload to the remote durable file
// (§6: `$HOME/.rerun-tracked.json`) over the command channel, so the
// cluster side always has a visible, if eventually-consistent, view of
// what this supervisor thinks is tracked.
type Mirror struct {
	ch   channel.Channel
	path string
}

// NewMirror builds a Mirror writing to path over ch.
func NewMirror(ch channel.Channel, path string) *Mirror {
	return &Mirror{ch: ch, path: path}
}

// DefaultMirrorPath is the remote durable mirror's well-known path.
const DefaultMirrorPath = ".rerun-tracked.json"

// Write serializes specs and writes them to the remote file, replacing any
// existing content.
func (m *Mirror) Write(ctx context.Context, specs []jobmodel.JobSpec) error {
	data, err := json.Marshal(specs)
	if err != nil {
		return fmt.Errorf("marshal tracked mirror: %w", err)
	}
	f, err := m.ch.OpenFile(ctx, m.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("open tracked mirror %s: %w", m.path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write tracked mirror %s: %w", m.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close tracked mirror %s: %w", m.path, err)
	}
	return nil
}

// Read fetches and parses the current mirror content. Absence or empty
// content means "no tracked jobs" (empty, non-nil slice, no error).
func (m *Mirror) Read(ctx context.Context) ([]jobmodel.JobSpec, error) {
	f, err := m.ch.OpenFile(ctx, m.path, os.O_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("open tracked mirror %s: %w", m.path, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read tracked mirror %s: %w", m.path, err)
	}
	if len(data) == 0 {
		return []jobmodel.JobSpec{}, nil
	}
	var specs []jobmodel.JobSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parse tracked mirror %s: %w", m.path, err)
	}
	return specs, nil
}
