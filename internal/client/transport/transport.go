// Package transport implements the client's reliable-delivery engine on top
// of the unreliable datagram channel: every request is resent at a fixed
// interval until a response with a matching correlation id arrives or the
// caller's timeout expires. File transfers use a separate one-connection-per-
// request stream path. A background heartbeat keeps the session alive while a
// token is held.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mvoronin/forumwire/internal/client/config"
	"github.com/mvoronin/forumwire/internal/logging"
	"github.com/mvoronin/forumwire/internal/netx"
	"github.com/mvoronin/forumwire/internal/protocol"
)

// ErrTimeout is returned when a request exhausts its wait without a
// correlated reply.
var ErrTimeout = errors.New("timeout waiting for server response")

const recvBufferSize = 8192

// Transport owns the datagram socket, the correlation table and the session
// token.
type Transport struct {
	cfg     *config.Config
	logger  logging.Logger
	udp     *net.UDPConn
	tcpAddr string
	pending *pendingTable

	mu    sync.Mutex
	token string
}

// New connects the datagram socket to the configured server address.
func New(cfg *config.Config, logger logging.Logger) (*Transport, error) {
	addr := netx.HostPort(cfg.Host, cfg.Port)

	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	return &Transport{
		cfg:     cfg,
		logger:  logger.With("module", "transport"),
		udp:     conn,
		tcpAddr: addr,
		pending: newPendingTable(),
	}, nil
}

// Start launches the receiver and heartbeat loops. They stop when ctx is
// cancelled.
func (t *Transport) Start(ctx context.Context) {
	go t.receiveLoop(ctx)
	go t.heartbeatLoop(ctx)
}

// Close releases the datagram socket.
func (t *Transport) Close() error {
	return t.udp.Close()
}

// Token returns the current session token, or "".
func (t *Transport) Token() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

// SetToken installs a fresh session token.
func (t *Transport) SetToken(token string) {
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
}

// ClearToken drops the session token, stopping the heartbeat.
func (t *Transport) ClearToken() {
	t.SetToken("")
}

// Call sends env on the datagram channel and blocks until a correlated reply
// arrives, ctx is cancelled, or the timeout expires. A fresh correlation id
// is minted and injected into env.
func (t *Transport) Call(ctx context.Context, env protocol.Envelope) (protocol.Envelope, error) {
	echo := uuid.NewString()
	env["echo"] = echo

	s := t.pending.add(echo)
	defer t.pending.remove(echo)

	go t.retrySend(s, protocol.Encode(env))

	select {
	case <-s.done:
		return s.val, nil
	case <-time.After(t.cfg.Timeout):
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// retrySend transmits raw up to Retries+1 times at RetryInterval spacing,
// stopping as soon as the slot is resolved or withdrawn.
func (t *Transport) retrySend(s *slot, raw []byte) {
	for i := 0; i <= t.cfg.Retries; i++ {
		if _, err := t.udp.Write(raw); err != nil {
			t.logger.Warn(context.Background(), "Datagram send failed", "error", err.Error())
		}

		select {
		case <-s.done:
			return
		case <-s.gone:
			return
		case <-time.After(t.cfg.RetryInterval):
		}
	}
}

// Probe checks server reachability with a meta envelope that requests a
// reply.
func (t *Transport) Probe(ctx context.Context) error {
	_, err := t.Call(ctx, protocol.NewMeta("", true))
	return err
}

// receiveLoop drains inbound datagrams, resolves correlation slots and
// auto-replies to meta probes. An error response tagged Unauthorized clears
// the token: the session expired server-side.
func (t *Transport) receiveLoop(ctx context.Context) {
	buf := make([]byte, recvBufferSize)
	for {
		n, err := t.udp.Read(buf)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				t.logger.Warn(ctx, "Datagram receive failed", "error", err.Error())
			}
			return
		}

		env, err := protocol.Decode(buf[:n])
		if err != nil {
			t.logger.Warn(ctx, "Bad payload from server", "error", err.Error())
			continue
		}

		if env.String("error") == "Unauthorized" {
			t.ClearToken()
		}

		echo := env.Echo()
		t.pending.resolve(echo, env)

		if env.Bool("meta") && env.Bool("reply") {
			if _, err := t.udp.Write(protocol.Encode(protocol.NewMeta(echo, false))); err != nil {
				t.logger.Warn(ctx, "Meta reply failed", "error", err.Error())
			}
		}
	}
}

// heartbeatLoop renews the session while a token is held. Responses arrive at
// the receiver loop and are dropped there; no slot is registered.
func (t *Transport) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			token := t.Token()
			if token == "" {
				continue
			}
			raw := protocol.Encode(protocol.NewCommand("HEART", token, "", uuid.NewString()))
			if _, err := t.udp.Write(raw); err != nil {
				t.logger.Warn(ctx, "Heartbeat send failed", "error", err.Error())
			}
		}
	}
}
