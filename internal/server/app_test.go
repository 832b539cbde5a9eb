package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mvoronin/forumwire/internal/server/config"
)

// The sqlite credential backend must be reachable from the server binary
// alone, without any help from test-only driver imports.
func TestAppStartsWithSQLiteCredentials(t *testing.T) {
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Port = 0
	cfg.DatabaseDSN = "sqlite:" + filepath.Join(dir, "creds.db")
	cfg.DBFile = filepath.Join(dir, "db.json")
	cfg.DataDir = dir

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop after cancellation")
	}
}
