package channel

import (
	"bytes"
	"context"
	"fmt"
	"os"
)

// remoteFile adapts the shell channel's Execute primitive to the
// io.ReadWriteCloser contract OpenFile promises. The whole file is
// prefetched by a single "cat path" round-trip on the first Read, per §4.1's
// "prefetch is performed on read"; writes are buffered locally and flushed
// as a single heredoc write on Close.
type remoteFile struct {
	ctx  context.Context
	ch   *SSHChannel
	path string
	flag int

	read   *bytes.Reader
	write  bytes.Buffer
	closed bool
}

func newRemoteFile(ctx context.Context, ch *SSHChannel, path string, flag int) *remoteFile {
	return &remoteFile{ctx: ctx, ch: ch, path: path, flag: flag}
}

func (f *remoteFile) Read(p []byte) (int, error) {
	if f.read == nil {
		res, err := f.ch.Execute(f.ctx, fmt.Sprintf("cat %s", f.path))
		if err != nil {
			return 0, fmt.Errorf("read remote file %q: %w", f.path, err)
		}
		if res.Exit != 0 {
			return 0, fmt.Errorf("read remote file %q: remote exit %d: %s", f.path, res.Exit, res.Stderr)
		}
		f.read = bytes.NewReader([]byte(res.Stdout))
	}
	return f.read.Read(p)
}

func (f *remoteFile) Write(p []byte) (int, error) {
	if f.flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		return 0, fmt.Errorf("write remote file %q: not opened for writing", f.path)
	}
	return f.write.Write(p)
}

func (f *remoteFile) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if f.write.Len() == 0 {
		return nil
	}
	cmd := fmt.Sprintf("cat > %s << 'SCHEDTOOLS_EOF'\n%s\nSCHEDTOOLS_EOF", f.path, f.write.String())
	res, err := f.ch.Execute(f.ctx, cmd)
	if err != nil {
		return fmt.Errorf("write remote file %q: %w", f.path, err)
	}
	if res.Exit != 0 {
		return fmt.Errorf("write remote file %q: remote exit %d: %s", f.path, res.Exit, res.Stderr)
	}
	return nil
}
