package hostconfig

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// MaxDialRetries and DialRetryDelay mirror the teacher's SSH retry
// constants, applied here to the native ssh.Client dial instead of an
// exec.Command("ssh", ...) invocation.
const (
	MaxDialRetries = 5
	DialRetryDelay = 30 * time.Second
)

// EnvDisableRetry mirrors the source's DISABLE_RETRY escape hatch, so
// tests never actually sleep.
const EnvDisableRetry = "REMOTE_JOBS_DISABLE_RETRY"

var connectionErrorPattern = regexp.MustCompile(`(?i)(connection timed out|operation timed out|no route to host|host is unreachable|connection refused|network is unreachable|could not resolve hostname|name or service not known|i/o timeout)`)

// IsConnectionError reports whether msg looks like a transient network
// failure worth retrying, as opposed to an auth or protocol fault.
func IsConnectionError(msg string) bool {
	return connectionErrorPattern.MatchString(msg)
}

// Dial connects to h, retrying transient connection errors up to
// MaxDialRetries times with DialRetryDelay between attempts.
func Dial(ctx context.Context, h Host, clientConfig *ssh.ClientConfig, logger zerolog.Logger) (*ssh.Client, error) {
	retries := MaxDialRetries
	if os.Getenv(EnvDisableRetry) != "" {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		client, err := dialOnce(ctx, h, clientConfig)
		if err == nil {
			return client, nil
		}
		lastErr = err
		if !IsConnectionError(err.Error()) || attempt == retries {
			return nil, fmt.Errorf("dial %s: %w", h.Addr(), err)
		}
		logger.Warn().Str("host", h.Alias).Int("attempt", attempt).Err(err).Msg("ssh dial failed, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(DialRetryDelay):
		}
	}
	return nil, fmt.Errorf("dial %s: %w", h.Addr(), lastErr)
}

func dialOnce(ctx context.Context, h Host, clientConfig *ssh.ClientConfig) (*ssh.Client, error) {
	type result struct {
		client *ssh.Client
		err    error
	}
	done := make(chan result, 1)
	go func() {
		client, err := ssh.Dial("tcp", h.Addr(), clientConfig)
		done <- result{client, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.client, r.err
	}
}
