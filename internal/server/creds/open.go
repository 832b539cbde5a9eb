package creds

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/mvoronin/forumwire/internal/server/migrations"
)

// Open selects a credential backend from the DSN: "" uses the plain-text
// file at filePath, "sqlite:<path>" a SQLite database, and a postgres:// URL
// a PostgreSQL database. SQL backends get their schema migrated via goose.
// The returned close function is a no-op for the file backend.
func Open(ctx context.Context, dsn, filePath string) (Repository, func() error, error) {
	noop := func() error { return nil }

	switch {
	case dsn == "":
		repo, err := NewFileRepository(filePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, noop, nil

	case strings.HasPrefix(dsn, "sqlite:"):
		db, err := sql.Open("sqlite", strings.TrimPrefix(dsn, "sqlite:"))
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite open: %w", err)
		}
		if err := RunMigrations(ctx, db, "sqlite3"); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return NewSQLiteRepository(db), db.Close, nil

	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres open: %w", err)
		}
		if err := RunMigrations(ctx, db, "pgx"); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return NewPostgresRepository(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported credential DSN %q", dsn)
	}
}

// RunMigrations applies the embedded schema migrations using the given goose
// dialect.
func RunMigrations(ctx context.Context, db *sql.DB, dialect string) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
