// Package cli implements the interactive forum client: connectivity probing,
// login/register dialogs and the command prompt loop. Network delivery is
// delegated to the transport package; this package owns the console UI.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mvoronin/forumwire/internal/client/config"
	"github.com/mvoronin/forumwire/internal/client/transport"
	"github.com/mvoronin/forumwire/internal/logging"
	"github.com/mvoronin/forumwire/internal/netx"
	"github.com/mvoronin/forumwire/internal/protocol"
)

// conn is the transport surface the CLI depends on; satisfied by
// *transport.Transport and stubbed in tests.
type conn interface {
	Start(ctx context.Context)
	Close() error
	Probe(ctx context.Context) error
	Call(ctx context.Context, env protocol.Envelope) (protocol.Envelope, error)
	CallStream(ctx context.Context, env protocol.Envelope) (protocol.Envelope, error)
	Token() string
	SetToken(token string)
	ClearToken()
}

type App struct {
	config    *config.Config
	transport conn
	reader    *bufio.Reader
	out       io.Writer
	userName  string
}

func NewApp(c *config.Config) (*App, error) {

	// Transport diagnostics go to stderr so they do not garble the prompt.
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	tr, err := transport.New(c, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		config:    c,
		transport: tr,
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
	}, nil
}

// Run drives the session cycle: probe connectivity, authenticate, serve the
// command prompt. A timeout fault at any point resets the client back to the
// probe step.
func (a *App) Run(ctx context.Context) {
	a.transport.Start(ctx)
	defer a.transport.Close()

	for ctx.Err() == nil {
		err := a.session(ctx)
		if err == nil {
			continue
		}
		if errors.Is(err, transport.ErrTimeout) {
			a.log("Reset client ...", true)
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			a.log("Client shutdown ...", false)
			return
		}
		a.log(err.Error(), true)
		return
	}
}

func (a *App) session(ctx context.Context) error {
	if err := a.testServerConnection(ctx); err != nil {
		return err
	}

	user, err := a.InteractiveLogin(ctx)
	if err != nil {
		return err
	}
	a.userName = user

	fmt.Fprintln(a.out)
	a.log("Available commands:", false)
	a.log(strings.Join(commands, ", "), false)
	fmt.Fprintln(a.out)

	return a.CommandLoop(ctx)
}

// testServerConnection probes the server with a meta envelope until it
// answers.
func (a *App) testServerConnection(ctx context.Context) error {
	for {
		a.log(fmt.Sprintf("Connecting to %s ...", netx.HostPort(a.config.Host, a.config.Port)), false)

		err := a.transport.Probe(ctx)
		if err == nil {
			a.log("Connected!", false)
			return nil
		}
		if !errors.Is(err, transport.ErrTimeout) {
			return err
		}
	}
}

// log prints a status line with the client tag.
func (a *App) log(msg string, isErr bool) {
	color := 32
	if isErr {
		color = 31
	}
	fmt.Fprintf(a.out, "\r[\033[%dm Client \033[0m] %s\n", color, msg)
}

// logResult prints a (possibly multi-line) command result block.
func (a *App) logResult(msg string, isErr bool) {
	color, title := 34, "Result"
	if isErr {
		color, title = 31, "Error"
	}
	sep := "<"
	for _, line := range strings.Split(msg, "\n") {
		fmt.Fprintf(a.out, "\033[%dm$ %6s\033[0m %s %s\n", color, title, sep, line)
		title = ""
		sep = " "
	}
}
