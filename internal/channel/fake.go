package channel

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// Fake is an in-memory Channel substitute indexed by exact command string,
// for tests that need to exercise code built on the Channel interface
// without a real shell. Unregistered commands return exit 127.
type Fake struct {
	mu        sync.Mutex
	responses map[string]Result
	files     map[string]string
	login     []string
	calls     []string
}

// NewFake builds an empty Fake channel.
func NewFake() *Fake {
	return &Fake{
		responses: make(map[string]Result),
		files:     make(map[string]string),
	}
}

// OnCommand registers the Result to return for an exact command string.
func (f *Fake) OnCommand(cmd string, res Result) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmd] = res
	return f
}

// WithLoginMessage sets the banner lines LoginMessage returns.
func (f *Fake) WithLoginMessage(lines ...string) *Fake {
	f.login = lines
	return f
}

// SetFile seeds the fake filesystem OpenFile reads from / writes land in.
func (f *Fake) SetFile(path, content string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
	return f
}

// File returns the current content at path, for assertions after a write.
func (f *Fake) File(path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.files[path]
	return v, ok
}

// Calls returns every command Execute was called with, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) Execute(ctx context.Context, cmd string) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)
	if cmd == "" {
		return Result{}, fmt.Errorf("execute: empty command")
	}
	if res, ok := f.responses[cmd]; ok {
		return res, nil
	}
	return Result{Exit: 127, Stderr: fmt.Sprintf("fake channel: no response registered for %q", cmd)}, nil
}

func (f *Fake) OpenFile(ctx context.Context, path string, flag int) (io.ReadWriteCloser, error) {
	return &fakeFile{fake: f, path: path, flag: flag}, nil
}

func (f *Fake) UpdateJobState(ctx context.Context, jobID string, state jobmodel.State, comment string, onFail jobmodel.OnFail) error {
	_, err := f.Execute(ctx, fmt.Sprintf("update-job-state --job-id %s --state %s", jobID, state))
	return err
}

func (f *Fake) SetMissingAlerts(ctx context.Context) error {
	_, err := f.Execute(ctx, "set-missing-alerts")
	return err
}

func (f *Fake) LoginMessage() []string { return f.login }

type fakeFile struct {
	fake *Fake
	path string
	flag int
	buf  strings.Builder
}

func (ff *fakeFile) Read(p []byte) (int, error) {
	content, ok := ff.fake.File(ff.path)
	if !ok {
		return 0, io.EOF
	}
	r := strings.NewReader(content)
	return r.Read(p)
}

func (ff *fakeFile) Write(p []byte) (int, error) {
	return ff.buf.Write(p)
}

func (ff *fakeFile) Close() error {
	if ff.buf.Len() > 0 {
		ff.fake.SetFile(ff.path, ff.buf.String())
	}
	return nil
}
