// Package creds persists user credentials. Login decisions consult this
// store regardless of session lifetime. Passwords are stored as bcrypt
// hashes.
package creds

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no credential exists for a user.
	ErrNotFound = errors.New("credential not found")

	// ErrAlreadyExists is returned when registering an existing user.
	ErrAlreadyExists = errors.New("credential already exists")
)

// Repository stores user → password-hash records.
type Repository interface {
	// Get returns the stored password hash, or ErrNotFound.
	Get(ctx context.Context, user string) (string, error)

	// Create persists a new credential, or returns ErrAlreadyExists.
	Create(ctx context.Context, user, passwordHash string) error
}
