package creds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mvoronin/forumwire/internal/dbx"
)

// SQLiteRepository implements Repository on a SQLite database using SQLite
// placeholder syntax.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository returns a repository bound to the given database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, user string) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE username = ?`, user).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to select credential: %w", err)
	}
	return hash, nil
}

// Create checks for an existing row and inserts inside one transaction, so a
// duplicate registration surfaces as ErrAlreadyExists rather than a
// constraint error.
func (r *SQLiteRepository) Create(ctx context.Context, user, passwordHash string) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM users WHERE username = ?`, user).Scan(&one)
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check credential: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, password_hash) VALUES (?, ?)`, user, passwordHash); err != nil {
			return fmt.Errorf("failed to insert credential: %w", err)
		}
		return nil
	})
}
