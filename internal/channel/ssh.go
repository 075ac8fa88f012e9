package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"github.com/wbeardall/schedtools-go/internal/jobmodel"
)

// SSHChannel multiplexes every command through a single persistent
// interactive shell on one *ssh.Client, fenced with the sentinel protocol
// in sentinel.go. Per §5, it is a single long-lived channel per host and
// must not be used concurrently from more than one goroutine; Execute
// serializes callers with a mutex.
type SSHChannel struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	lines   <-chan string

	mu           sync.Mutex
	loginMessage []string
	logger       zerolog.Logger
}

// NewSSHChannel opens one interactive shell session on client and captures
// the login banner by round-tripping a no-op echo before returning.
func NewSSHChannel(ctx context.Context, client *ssh.Client, logger zerolog.Logger) (*SSHChannel, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("open ssh session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO: 0,
	}
	if err := session.RequestPty("xterm", 80, 200, modes); err != nil {
		session.Close()
		return nil, fmt.Errorf("request pty: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		return nil, fmt.Errorf("start shell: %w", err)
	}

	lines := make(chan string, 256)
	go streamLines(stdout, lines)

	c := &SSHChannel{
		client:  client,
		session: session,
		stdin:   stdin,
		lines:   lines,
		logger:  logger,
	}

	// Round-trip a no-op to capture whatever the shell printed at login
	// (MOTD, quota banners) before the first real command's sentinel.
	res, err := c.execute(ctx, `echo ""`)
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("capture login banner: %w", err)
	}
	c.loginMessage = splitNonEmptyLines(res.Stdout)

	return c, nil
}

func streamLines(r io.Reader, out chan<- string) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		out <- scanner.Text()
	}
	close(out)
}

func splitNonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// Execute implements Channel. It serializes on the shared shell: only one
// command may be in flight at a time.
func (c *SSHChannel) Execute(ctx context.Context, cmd string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.execute(ctx, cmd)
}

// execute assumes the caller holds c.mu.
func (c *SSHChannel) execute(ctx context.Context, cmd string) (Result, error) {
	if cmd == "" {
		return Result{}, fmt.Errorf("execute: empty command")
	}

	if _, err := fmt.Fprintf(c.stdin, "%s\n%s\n", cmd, sentinelEcho()); err != nil {
		return Result{}, fmt.Errorf("write command: %w", err)
	}

	var captured []string
	for {
		select {
		case <-ctx.Done():
			return Result{}, fmt.Errorf("execute %q: %w", cmd, ctx.Err())
		case line, ok := <-c.lines:
			if !ok {
				return Result{}, fmt.Errorf("execute %q: shell channel closed", cmd)
			}
			captured = append(captured, line)
			if strings.Contains(line, sentinelMarker) {
				stdout, stderr, exit, err := parseSentinelOutput(captured, cmd)
				if err != nil {
					return Result{}, fmt.Errorf("execute %q: %w", cmd, err)
				}
				return Result{
					Stdout: strings.Join(stdout, "\n"),
					Stderr: strings.Join(stderr, "\n"),
					Exit:   exit,
				}, nil
			}
		}
	}
}

// OpenFile shells out to sftp-less cat over the same channel for reads
// and a heredoc write for writes, since the shell channel has no native
// file-transfer primitive. Large binary payloads should use a dedicated
// SCP/SFTP path instead; this is sized for the small text files (job
// scripts, tracking mirrors, error-file tails) the supervisor touches.
func (c *SSHChannel) OpenFile(ctx context.Context, path string, flag int) (io.ReadWriteCloser, error) {
	return newRemoteFile(ctx, c, path, flag), nil
}

// UpdateJobState invokes the remote update-job-state helper.
func (c *SSHChannel) UpdateJobState(ctx context.Context, jobID string, state jobmodel.State, comment string, onFail jobmodel.OnFail) error {
	cmd := fmt.Sprintf("update-job-state --job-id %s --state %s --on-fail %s",
		shellQuote(jobID), shellQuote(string(state)), shellQuote(string(onFail)))
	if comment != "" {
		cmd += " --comment " + shellQuote(comment)
	}
	res, err := c.Execute(ctx, cmd)
	if err != nil {
		return fmt.Errorf("update job state: %w", err)
	}
	if res.Exit != 0 {
		swallowed, out := applyOnFail(fmt.Errorf("update-job-state exited %d: %s", res.Exit, res.Stderr), onFail)
		if swallowed {
			if onFail == jobmodel.OnFailWarn {
				c.logger.Warn().Str("job_id", jobID).Int("exit", res.Exit).Msg("remote update-job-state failed, continuing per on_fail policy")
			}
			return nil
		}
		return out
	}
	return nil
}

// SetMissingAlerts invokes the remote set-missing-alerts helper.
func (c *SSHChannel) SetMissingAlerts(ctx context.Context) error {
	res, err := c.Execute(ctx, "set-missing-alerts")
	if err != nil {
		return fmt.Errorf("set missing alerts: %w", err)
	}
	if res.Exit != 0 {
		return fmt.Errorf("set-missing-alerts exited %d: %s", res.Exit, res.Stderr)
	}
	return nil
}

// LoginMessage returns the banner lines captured at construction.
func (c *SSHChannel) LoginMessage() []string { return c.loginMessage }

// Close releases the underlying shell session. It does not close the
// *ssh.Client, which may be shared by other channels/adapters on the host.
func (c *SSHChannel) Close() error {
	return c.session.Close()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
