// Package session issues and tracks login tokens. A user holds at most one
// active token; tokens expire TTL after the last renewal and are evicted by a
// background sweep.
//
// The dispatcher goroutine and the sweep goroutine both mutate the session
// tables, so every table access goes through the manager's mutex.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mvoronin/forumwire/internal/cryptox"
	"github.com/mvoronin/forumwire/internal/faults"
	"github.com/mvoronin/forumwire/internal/logging"
	"github.com/mvoronin/forumwire/internal/server/creds"
)

// DefaultTTL is the window a token stays valid without renewal.
const DefaultTTL = 30 * time.Second

const minUserLen = 3
const minPasswordLen = 3

// Manager owns the token tables and the credential repository.
type Manager struct {
	mu      sync.Mutex
	creds   creds.Repository
	secret  []byte
	ttl     time.Duration
	logger  logging.Logger
	now     func() time.Time
	byUser  map[string]string
	byToken map[string]string
	expiry  map[string]time.Time
}

// NewManager builds a Manager backed by the given credential repository.
func NewManager(repo creds.Repository, secret string, ttl time.Duration, logger logging.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		creds:   repo,
		secret:  []byte(secret),
		ttl:     ttl,
		logger:  logger.With("module", "session"),
		now:     time.Now,
		byUser:  make(map[string]string),
		byToken: make(map[string]string),
		expiry:  make(map[string]time.Time),
	}
}

func validateUser(user string) error {
	if user == "" {
		return faults.New(faults.KindParamsInvalid, 400, "Username can not be empty")
	}
	if len(user) < minUserLen {
		return faults.New(faults.KindParamsInvalid, 400, "Username too short")
	}
	return nil
}

// Register creates a credential for a new user and logs the user in.
//
// An empty password yields PasswordError(200): the username is available and
// the client should come back with a password.
func (m *Manager) Register(ctx context.Context, user, passwd string) (string, error) {
	if err := validateUser(user); err != nil {
		return "", err
	}

	_, err := m.creds.Get(ctx, user)
	switch {
	case err == nil:
		return "", faults.New(faults.KindUserAlreadyExists, 403, "User %s already exists", user)
	case !errors.Is(err, creds.ErrNotFound):
		return "", fmt.Errorf("credential lookup: %w", err)
	}

	if passwd == "" {
		return "", faults.New(faults.KindPasswordError, 200, "Username %s available, please enter the password", user)
	}
	if len(passwd) < minPasswordLen {
		return "", faults.New(faults.KindParamsInvalid, 400, "Password too short")
	}

	hash, err := cryptox.HashPassword(passwd)
	if err != nil {
		return "", fmt.Errorf("password hash: %w", err)
	}
	if err := m.creds.Create(ctx, user, hash); err != nil {
		if errors.Is(err, creds.ErrAlreadyExists) {
			return "", faults.New(faults.KindUserAlreadyExists, 403, "User %s already exists", user)
		}
		return "", fmt.Errorf("credential create: %w", err)
	}

	return m.issueToken(user)
}

// Login authenticates an existing user and issues a fresh token.
//
// The empty-password round returns PasswordError(200), which the client
// interprets as "user exists, prompt for the password".
func (m *Manager) Login(ctx context.Context, user, passwd string) (string, error) {
	if err := validateUser(user); err != nil {
		return "", err
	}

	hash, err := m.creds.Get(ctx, user)
	if err != nil {
		if errors.Is(err, creds.ErrNotFound) {
			return "", faults.New(faults.KindUserNotExists, 403, "User %s not exists", user)
		}
		return "", fmt.Errorf("credential lookup: %w", err)
	}

	m.mu.Lock()
	_, active := m.byUser[user]
	m.mu.Unlock()
	if active {
		return "", faults.New(faults.KindUserAlreadyLoggedIn, 403, "User %s already login", user)
	}

	if passwd == "" {
		return "", faults.New(faults.KindPasswordError, 200, "User %s exists, please enter the password", user)
	}
	if !cryptox.CheckPassword(hash, passwd) {
		return "", faults.New(faults.KindPasswordError, 403, "Password error for user %s", user)
	}

	return m.issueToken(user)
}

// issueToken mints a token and records it in the session tables.
func (m *Manager) issueToken(user string) (string, error) {
	token, err := GenerateToken(user, m.secret, m.ttl)
	if err != nil {
		return "", fmt.Errorf("token generation: %w", err)
	}

	m.mu.Lock()
	m.byUser[user] = token
	m.byToken[token] = user
	m.expiry[token] = m.now().Add(m.ttl)
	m.mu.Unlock()

	return token, nil
}

// Auth resolves a token to its user. A token whose owning credential has
// disappeared is logged out implicitly.
func (m *Manager) Auth(ctx context.Context, token string) (string, error) {
	m.mu.Lock()
	user, ok := m.byToken[token]
	m.mu.Unlock()
	if token == "" || !ok {
		return "", faults.New(faults.KindUnauthorized, 401, "Unauthorized")
	}

	if _, err := m.creds.Get(ctx, user); err != nil {
		if errors.Is(err, creds.ErrNotFound) {
			m.drop(token, user)
			m.logger.Warn(ctx, "User no longer exists, logged out", "user", user)
			return "", faults.New(faults.KindUserNotExists, 403, "User %s not exists", user)
		}
		return "", fmt.Errorf("credential lookup: %w", err)
	}

	return user, nil
}

// Logout removes a token and its user from all tables.
func (m *Manager) Logout(ctx context.Context, token string) error {
	user, err := m.Auth(ctx, token)
	if err != nil {
		return err
	}
	m.drop(token, user)
	return nil
}

func (m *Manager) drop(token, user string) {
	m.mu.Lock()
	delete(m.byToken, token)
	delete(m.byUser, user)
	delete(m.expiry, token)
	m.mu.Unlock()
}

// Renew pushes the token's expiry forward by one TTL.
func (m *Manager) Renew(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.expiry[token]; token == "" || !ok {
		return faults.New(faults.KindUnauthorized, 401, "Unauthorized")
	}
	m.expiry[token] = m.now().Add(m.ttl)
	return nil
}

// OnlineCount returns the number of active sessions.
func (m *Manager) OnlineCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byToken)
}

// Sweep evicts expired tokens every TTL interval until ctx is cancelled.
func (m *Manager) Sweep(ctx context.Context) {
	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweepOnce(ctx)
		}
	}
}

func (m *Manager) sweepOnce(ctx context.Context) {
	now := m.now()

	m.mu.Lock()
	var evicted []string
	for token, deadline := range m.expiry {
		if now.After(deadline) {
			evicted = append(evicted, token)
		}
	}
	for _, token := range evicted {
		user := m.byToken[token]
		delete(m.byToken, token)
		delete(m.byUser, user)
		delete(m.expiry, token)
		m.logger.Info(ctx, "Session expired, auto logout", "user", user)
	}
	online := len(m.byToken)
	m.mu.Unlock()

	if len(evicted) > 0 {
		m.logger.Info(ctx, "Online users", "count", online)
	}
}
