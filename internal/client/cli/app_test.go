package cli

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/mvoronin/forumwire/internal/client/config"
	"github.com/mvoronin/forumwire/internal/protocol"
)

// fakeConn scripts transport behavior per command verb and records every
// request it sees.
type fakeConn struct {
	mu       sync.Mutex
	token    string
	onCall   func(env protocol.Envelope) (protocol.Envelope, error)
	onStream func(env protocol.Envelope) (protocol.Envelope, error)
	calls    []protocol.Envelope
}

func (f *fakeConn) Start(ctx context.Context) {}

func (f *fakeConn) Close() error { return nil }

func (f *fakeConn) Probe(ctx context.Context) error { return nil }

func (f *fakeConn) Call(_ context.Context, env protocol.Envelope) (protocol.Envelope, error) {
	f.mu.Lock()
	f.calls = append(f.calls, env)
	f.mu.Unlock()
	return f.onCall(env)
}

func (f *fakeConn) CallStream(_ context.Context, env protocol.Envelope) (protocol.Envelope, error) {
	f.mu.Lock()
	f.calls = append(f.calls, env)
	f.mu.Unlock()
	return f.onStream(env)
}

func (f *fakeConn) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeConn) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeConn) ClearToken() { f.SetToken("") }

func (f *fakeConn) sent() []protocol.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.Envelope, len(f.calls))
	copy(out, f.calls)
	return out
}

// newTestApp wires an App around scripted input and a fake transport.
func newTestApp(fc *fakeConn, input string) *App {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return &App{
		config:    cfg,
		transport: fc,
		reader:    bufio.NewReader(strings.NewReader(input)),
		out:       io.Discard,
	}
}

func stubPassword(t *testing.T, passwd string) {
	t.Helper()
	orig := getPassword
	t.Cleanup(func() { getPassword = orig })
	getPassword = func(w io.Writer) ([]byte, error) {
		return []byte(passwd), nil
	}
}
