// Package dispatch routes validated command envelopes to the session manager
// and the forum store, and converts every fault raised while handling one
// envelope into an error response for that envelope alone.
package dispatch

import (
	"context"
	"strconv"
	"strings"

	"github.com/mvoronin/forumwire/internal/faults"
	"github.com/mvoronin/forumwire/internal/logging"
	"github.com/mvoronin/forumwire/internal/protocol"
	"github.com/mvoronin/forumwire/internal/server/forum"
	"github.com/mvoronin/forumwire/internal/server/session"
)

// Dispatcher executes commands against the session manager and forum store.
type Dispatcher struct {
	sessions *session.Manager
	forum    *forum.Store
	logger   logging.Logger
}

// New builds a Dispatcher.
func New(sessions *session.Manager, store *forum.Store, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		sessions: sessions,
		forum:    store,
		logger:   logger.With("module", "dispatch"),
	}
}

// HandleDatagram processes one datagram payload and returns the encoded
// response, or nil when no response is due (HEART, meta without reply).
func (d *Dispatcher) HandleDatagram(ctx context.Context, raw []byte) []byte {
	env, err := protocol.Decode(raw)
	if err != nil {
		// The payload was too broken to recover the echo.
		return protocol.Encode(protocol.NewError(faults.From(err), protocol.FaultEcho))
	}
	echo := env.Echo()

	kind, err := protocol.Classify(env)
	if err != nil {
		return protocol.Encode(protocol.NewError(faults.From(err), echo))
	}

	switch kind {
	case protocol.KindMeta:
		if env.Bool("reply") {
			d.logger.Info(ctx, "New client connected")
			return protocol.Encode(protocol.NewMeta(echo, false))
		}
		return nil

	case protocol.KindCommand:
		resp, err := d.dispatchCommand(ctx, env)
		if err != nil {
			return protocol.Encode(protocol.NewError(faults.From(err), echo))
		}
		if resp == nil {
			return nil
		}
		return protocol.Encode(resp)

	default:
		return protocol.Encode(protocol.NewError(
			faults.New(faults.KindMissingParams, 400, "Bad Request"), echo))
	}
}

// HandleStream processes one stream frame (UPD/DWN) and always returns an
// encoded response, since the client performs exactly one read per request.
func (d *Dispatcher) HandleStream(ctx context.Context, raw []byte) []byte {
	env, err := protocol.Decode(raw)
	if err != nil {
		return protocol.Encode(protocol.NewError(faults.From(err), protocol.FaultEcho))
	}
	echo := env.Echo()

	resp, err := d.dispatchFile(ctx, env)
	if err != nil {
		return protocol.Encode(protocol.NewError(faults.From(err), echo))
	}
	return protocol.Encode(resp)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, env protocol.Envelope) (protocol.Envelope, error) {
	cmd := env.String("cmd")

	switch {
	case env.Has("token") && env.Has("args"):
		return d.dispatchAuthenticated(ctx, cmd, env)

	case env.Has("user") && env.Has("passwd"):
		return d.dispatchCredentials(ctx, cmd, env)

	default:
		return nil, faults.New(faults.KindMissingParams, 400, "Bad Request")
	}
}

// dispatchCredentials handles REG and LOG, the two verbs carrying
// user/passwd instead of a token.
func (d *Dispatcher) dispatchCredentials(ctx context.Context, cmd string, env protocol.Envelope) (protocol.Envelope, error) {
	user := env.String("user")
	passwd := env.String("passwd")
	echo := env.Echo()

	var token, msg string
	var err error

	switch cmd {
	case "REG":
		token, err = d.sessions.Register(ctx, user, passwd)
		msg = "Welcome new user " + user + " !"
	case "LOG":
		token, err = d.sessions.Login(ctx, user, passwd)
		msg = "Welcome user " + user + " !"
	default:
		return nil, faults.New(faults.KindUnrecognizedCommand, 400, "Unrecognized cmd %s", cmd)
	}
	if err != nil {
		return nil, err
	}

	d.logger.Info(ctx, "User authenticated", "cmd", cmd, "user", user)
	d.logger.Info(ctx, "Online users", "count", d.sessions.OnlineCount())

	return protocol.NewAuthResponse(protocol.CodeOK, token, msg, echo), nil
}

func (d *Dispatcher) dispatchAuthenticated(ctx context.Context, cmd string, env protocol.Envelope) (protocol.Envelope, error) {
	token := env.String("token")
	echo := env.Echo()

	user, err := d.sessions.Auth(ctx, token)
	if err != nil {
		return nil, err
	}

	args := strings.Fields(env.String("args"))

	var result string

	switch cmd {
	case "HEART":
		if err := d.sessions.Renew(token); err != nil {
			return nil, err
		}
		return nil, nil

	case "CRT":
		if len(args) < 1 {
			return nil, usageFault(cmd)
		}
		result, err = d.forum.CreateThread(strings.Join(args, " "), user)

	case "LST":
		result = d.forum.ListThreads()

	case "MSG":
		if len(args) < 2 {
			return nil, usageFault(cmd)
		}
		result, err = d.forum.PostMessage(args[0], strings.Join(args[1:], " "), user)

	case "EDT":
		if len(args) < 3 {
			return nil, usageFault(cmd)
		}
		id, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return nil, faults.New(faults.KindArgumentError, 400, "Messagenumber must be integer!")
		}
		result, err = d.forum.EditMessage(args[0], id, strings.Join(args[2:], " "), user)

	case "DLT":
		if len(args) < 2 {
			return nil, usageFault(cmd)
		}
		id, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return nil, faults.New(faults.KindArgumentError, 400, "Messagenumber must be integer!")
		}
		result, err = d.forum.DeleteMessage(args[0], id, user)

	case "RDT":
		if len(args) < 1 {
			return nil, usageFault(cmd)
		}
		result, err = d.forum.ReadThread(strings.Join(args, " "))

	case "RMV":
		if len(args) < 1 {
			return nil, usageFault(cmd)
		}
		result, err = d.forum.DeleteThread(ctx, strings.Join(args, " "), user)

	case "UPD", "DWN":
		return nil, faults.New(faults.KindUnsupportedMethod, 400, "UDP command must send using TCP")

	case "HLP":
		result = helpText(args)

	case "XIT":
		if err := d.sessions.Logout(ctx, token); err != nil {
			return nil, err
		}
		d.logger.Info(ctx, "User logged out", "user", user)
		d.logger.Info(ctx, "Online users", "count", d.sessions.OnlineCount())
		return protocol.NewResponse(protocol.CodeLogout, "Bye "+user+" !", "OK", echo), nil

	default:
		return nil, faults.New(faults.KindUnrecognizedCommand, 400, "Unrecognized cmd %s", cmd)
	}

	if err != nil {
		return nil, err
	}
	return protocol.NewResponse(protocol.CodeOK, result, "OK", echo), nil
}

// dispatchFile handles UPD/DWN arriving on the stream transport.
func (d *Dispatcher) dispatchFile(ctx context.Context, env protocol.Envelope) (protocol.Envelope, error) {
	if !env.Has("cmd") || !env.Has("title") || !env.Has("name") || !env.Has("token") {
		return nil, faults.New(faults.KindMissingParams, 400, "Bad Request")
	}

	cmd := env.String("cmd")
	title := env.String("title")
	name := env.String("name")
	echo := env.Echo()

	user, err := d.sessions.Auth(ctx, env.String("token"))
	if err != nil {
		return nil, err
	}

	switch cmd {
	case "UPD":
		if !env.Has("body") {
			return nil, faults.New(faults.KindMissingParams, 400, "Missing body in the payload")
		}
		result, err := d.forum.UploadFile(ctx, title, name, env.String("body"), user)
		if err != nil {
			return nil, err
		}
		d.logger.Info(ctx, "File uploaded", "user", user, "thread", title, "name", name)
		return protocol.NewFileResponse(protocol.CodeOK, result, "", "", echo), nil

	case "DWN":
		body, err := d.forum.DownloadFile(ctx, title, name)
		if err != nil {
			return nil, err
		}
		d.logger.Info(ctx, "File downloaded", "user", user, "thread", title, "name", name)
		return protocol.NewFileResponse(protocol.CodeOK, "Successfully download file "+name, name, body, echo), nil

	default:
		return nil, faults.New(faults.KindUnrecognizedCommand, 400, "Unrecognized cmd %s", cmd)
	}
}

func usageFault(cmd string) *faults.Fault {
	return faults.New(faults.KindArgumentError, 400, "%s", commandUsage[cmd])
}

func helpText(args []string) string {
	var lines []string

	for _, arg := range args {
		if usage, ok := commandUsage[arg]; ok {
			lines = append(lines, usage)
		}
	}

	if len(lines) == 0 {
		lines = append(lines, "Available commands:", strings.Join(commandOrder, ", "))
	}
	return strings.Join(lines, "\n")
}
