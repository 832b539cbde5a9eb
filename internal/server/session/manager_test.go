package session

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvoronin/forumwire/internal/faults"
	"github.com/mvoronin/forumwire/internal/logging"
	"github.com/mvoronin/forumwire/internal/server/creds"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	repo, err := creds.NewFileRepository(filepath.Join(t.TempDir(), "credentials.txt"))
	require.NoError(t, err)
	return NewManager(repo, "test-secret", DefaultTTL, testLogger())
}

func requireKind(t *testing.T, err error, kind faults.Kind, code int) {
	t.Helper()
	require.Error(t, err)
	f := faults.From(err)
	assert.Equal(t, kind, f.Kind)
	assert.Equal(t, code, f.Code)
}

func TestRegisterIssuesToken(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	token, err := m.Register(ctx, "alice", "secret12")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	user, err := UserFromToken(token, []byte("test-secret"))
	require.NoError(t, err)
	assert.Equal(t, "alice", user)

	// Scenario A: immediate re-register fails with UserAlreadyExists(403).
	_, err = m.Register(ctx, "alice", "whatever")
	requireKind(t, err, faults.KindUserAlreadyExists, 403)
}

func TestRegisterValidation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "", "secret12")
	requireKind(t, err, faults.KindParamsInvalid, 400)

	_, err = m.Register(ctx, "al", "secret12")
	requireKind(t, err, faults.KindParamsInvalid, 400)

	// Empty password means "username available, ask for the password".
	_, err = m.Register(ctx, "alice", "")
	requireKind(t, err, faults.KindPasswordError, 200)

	_, err = m.Register(ctx, "alice", "ab")
	requireKind(t, err, faults.KindParamsInvalid, 400)
}

func TestLoginFlow(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	// Scenario B: login before registration fails with UserNotExists(403).
	_, err := m.Login(ctx, "bob", "x12")
	requireKind(t, err, faults.KindUserNotExists, 403)

	token, err := m.Register(ctx, "bob", "x12")
	require.NoError(t, err)
	require.NoError(t, m.Logout(ctx, token))

	// Empty password probe on an existing user: PasswordError(200).
	_, err = m.Login(ctx, "bob", "")
	requireKind(t, err, faults.KindPasswordError, 200)

	_, err = m.Login(ctx, "bob", "wrong")
	requireKind(t, err, faults.KindPasswordError, 403)

	token, err = m.Login(ctx, "bob", "x12")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Double login without logout, even with the right password.
	_, err = m.Login(ctx, "bob", "x12")
	requireKind(t, err, faults.KindUserAlreadyLoggedIn, 403)
}

func TestAuthAndLogout(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Auth(ctx, "")
	requireKind(t, err, faults.KindUnauthorized, 401)
	_, err = m.Auth(ctx, "not-a-token")
	requireKind(t, err, faults.KindUnauthorized, 401)

	token, err := m.Register(ctx, "alice", "secret12")
	require.NoError(t, err)

	user, err := m.Auth(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
	assert.Equal(t, 1, m.OnlineCount())

	require.NoError(t, m.Logout(ctx, token))
	assert.Equal(t, 0, m.OnlineCount())

	_, err = m.Auth(ctx, token)
	requireKind(t, err, faults.KindUnauthorized, 401)

	// Logout is not idempotent: the second call reports Unauthorized.
	err = m.Logout(ctx, token)
	requireKind(t, err, faults.KindUnauthorized, 401)
}

func TestRenewAndSweep(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	current := time.Now()
	m.now = func() time.Time { return current }

	token, err := m.Register(ctx, "alice", "secret12")
	require.NoError(t, err)

	err = m.Renew("bogus")
	requireKind(t, err, faults.KindUnauthorized, 401)

	// Renewal pushes the deadline past the original one.
	current = current.Add(20 * time.Second)
	require.NoError(t, m.Renew(token))

	// 20s later the original deadline (30s) has passed but the renewed one
	// (20s+30s) has not.
	current = current.Add(20 * time.Second)
	m.sweepOnce(ctx)
	_, err = m.Auth(ctx, token)
	require.NoError(t, err)

	// Past the renewed deadline the sweep evicts the token.
	current = current.Add(11 * time.Second)
	m.sweepOnce(ctx)
	_, err = m.Auth(ctx, token)
	requireKind(t, err, faults.KindUnauthorized, 401)
	assert.Equal(t, 0, m.OnlineCount())
}

func TestAuthWhenCredentialVanished(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.txt")
	repo, err := creds.NewFileRepository(path)
	require.NoError(t, err)
	m := NewManager(repo, "test-secret", DefaultTTL, testLogger())
	ctx := context.Background()

	token, err := m.Register(ctx, "alice", "secret12")
	require.NoError(t, err)

	// Simulate the credential store losing the user: swap in a fresh repo.
	empty, err := creds.NewFileRepository(filepath.Join(dir, "other.txt"))
	require.NoError(t, err)
	m.creds = empty

	_, err = m.Auth(ctx, token)
	requireKind(t, err, faults.KindUserNotExists, 403)

	// The implicit logout has removed the session.
	assert.Equal(t, 0, m.OnlineCount())
}

func TestFreshTokensPerLogin(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	t1, err := m.Register(ctx, "alice", "secret12")
	require.NoError(t, err)
	require.NoError(t, m.Logout(ctx, t1))

	t2, err := m.Login(ctx, "alice", "secret12")
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)

	// The stale token is dead after relogin.
	_, err = m.Auth(ctx, t1)
	requireKind(t, err, faults.KindUnauthorized, 401)
}
