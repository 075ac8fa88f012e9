package hostconfig

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"github.com/wbeardall/schedtools-go/internal/channel"
)

// ConnectOptions tunes how Connect authenticates and verifies host keys.
type ConnectOptions struct {
	DisallowPassword bool
	InsecureHostKey  bool
	DialTimeout      time.Duration
}

// Connect resolves alias, dials it over SSH with retry, and wraps the
// resulting client in a channel.Channel backed by a persistent interactive
// shell.
func Connect(ctx context.Context, alias string, opts ConnectOptions, logger zerolog.Logger) (*channel.SSHChannel, error) {
	host, err := Resolve(alias)
	if err != nil {
		return nil, err
	}

	auths, err := AuthMethods(host, opts.DisallowPassword)
	if err != nil {
		return nil, err
	}

	hostKeyCB, err := HostKeyCallback(opts.InsecureHostKey)
	if err != nil {
		return nil, err
	}

	timeout := opts.DialTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	clientConfig := &ssh.ClientConfig{
		User:            host.User,
		Auth:            auths,
		HostKeyCallback: hostKeyCB,
		Timeout:         timeout,
	}

	client, err := Dial(ctx, host, clientConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", alias, err)
	}

	ch, err := channel.NewSSHChannel(ctx, client, logger.With().Str("host", alias).Logger())
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("connect %s: open channel: %w", alias, err)
	}
	return ch, nil
}
