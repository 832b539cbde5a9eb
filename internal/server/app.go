// Package server initializes and runs the forum server: credential storage,
// session manager with its expiry sweep, the forum store with its blob
// backend, and the socket reactor. It also handles graceful shutdown on OS
// signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mvoronin/forumwire/internal/logging"
	"github.com/mvoronin/forumwire/internal/netx"
	"github.com/mvoronin/forumwire/internal/server/config"
	"github.com/mvoronin/forumwire/internal/server/creds"
	"github.com/mvoronin/forumwire/internal/server/dispatch"
	"github.com/mvoronin/forumwire/internal/server/forum"
	"github.com/mvoronin/forumwire/internal/server/reactor"
	"github.com/mvoronin/forumwire/internal/server/session"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	sessions   *session.Manager
	reactor    *reactor.Reactor
	closeCreds func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	repo, closeCreds, err := creds.Open(ctx, c.DatabaseDSN, c.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("credential store init error: %w", err)
	}

	sessions := session.NewManager(repo, c.SecretKey, c.TokenTTL, logger)

	var blobs forum.BlobStore
	if c.S3Bucket != "" {
		blobs, err = forum.NewS3BlobStore(ctx, forum.S3Config{
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	} else {
		blobs, err = forum.NewLocalBlobStore(c.DataDir)
	}
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	store, err := forum.NewStore(c.DBFile, blobs, c.MaxFileSize, logger)
	if err != nil {
		return nil, fmt.Errorf("forum store init error: %w", err)
	}

	dispatcher := dispatch.New(sessions, store, logger)

	addr := netx.HostPort("", c.Port)
	r, err := reactor.New(addr, addr, dispatcher, logger)
	if err != nil {
		return nil, fmt.Errorf("reactor init error: %w", err)
	}

	return &App{
		config:     c,
		logger:     logger,
		sessions:   sessions,
		reactor:    r,
		closeCreds: closeCreds,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sessions.Sweep(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.reactor.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.closeCreds(); err != nil {
		app.logger.Error(ctx, err.Error())
	}

	app.logger.Info(ctx, "App stopped")
}
