package transport

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/mvoronin/forumwire/internal/protocol"
)

const maxFrameSize = 1 << 20

// CallStream sends env over the stream channel: one connection per attempt,
// one write, one bounded read, close. An I/O failure counts as a retry
// attempt, mirroring the datagram path but with the shorter stream spacing.
func (t *Transport) CallStream(ctx context.Context, env protocol.Envelope) (protocol.Envelope, error) {
	echo := uuid.NewString()
	env["echo"] = echo
	raw := protocol.Encode(env)

	deadline := time.Now().Add(t.cfg.Timeout)

	for i := 0; i <= t.cfg.Retries; i++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if time.Now().After(deadline) {
			break
		}

		resp, err := t.streamAttempt(raw, deadline)
		if err != nil {
			t.logger.Warn(ctx, "Stream attempt failed", "error", err.Error())
		} else if resp.Echo() == echo {
			return resp, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(t.cfg.TCPRetryInterval):
		}
	}

	return nil, ErrTimeout
}

func (t *Transport) streamAttempt(raw []byte, deadline time.Time) (protocol.Envelope, error) {
	conn, err := net.DialTimeout("tcp", t.tcpAddr, time.Until(deadline))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	if _, err := conn.Write(raw); err != nil {
		return nil, err
	}

	buf := make([]byte, maxFrameSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, err
	}
	return protocol.Decode(buf[:n])
}
