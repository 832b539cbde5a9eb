package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mvoronin/forumwire/internal/filex"
	"github.com/mvoronin/forumwire/internal/protocol"
)

// commands is the verb set offered to the user after login.
var commands = []string{"CRT", "LST", "MSG", "EDT", "DLT", "RDT", "UPD", "DWN", "RMV", "XIT", "HLP"}

// CommandLoop reads and executes commands until logout, session expiry or a
// delivery timeout. UPD and DWN ride the stream channel; everything else goes
// over the datagram channel.
func (a *App) CommandLoop(ctx context.Context) error {
	for a.transport.Token() != "" {
		line, err := getNonEmptyText(a.reader, fmt.Sprintf("%6s", a.userName), a.out)
		if err != nil {
			return err
		}

		args := strings.Fields(line)
		cmd := args[0]

		var resp protocol.Envelope

		switch cmd {
		case "UPD":
			if len(args) < 3 {
				a.logResult("Usage: UPD threadtitle filepath", true)
				continue
			}
			title := strings.Join(args[1:len(args)-1], " ")
			path := args[len(args)-1]

			name, body, err := filex.PackageFile(path)
			if err != nil {
				a.logResult(fmt.Sprintf("File %s not found!", path), true)
				continue
			}

			resp, err = a.transport.CallStream(ctx,
				protocol.NewFileRequest("UPD", title, name, body, a.transport.Token(), ""))
			if err != nil {
				return err
			}

		case "DWN":
			if len(args) < 3 {
				a.logResult("Usage: DWN threadtitle filename", true)
				continue
			}
			title := strings.Join(args[1:len(args)-1], " ")
			name := args[len(args)-1]

			resp, err = a.transport.CallStream(ctx,
				protocol.NewFileRequest("DWN", title, name, "", a.transport.Token(), ""))
			if err != nil {
				return err
			}

			if resp.Code() == protocol.CodeOK {
				if _, werr := filex.UnpackageFile(a.config.DownloadDir, resp.String("name"), resp.String("body")); werr != nil {
					a.logResult(fmt.Sprintf("Download file %s error!", name), true)
					continue
				}
			}

		default:
			resp, err = a.transport.Call(ctx,
				protocol.NewCommand(cmd, a.transport.Token(), strings.Join(args[1:], " "), ""))
			if err != nil {
				return err
			}
		}

		code := resp.Code()
		msg := resp.String("data")
		if msg == "" {
			msg = resp.String("msg")
		}
		if msg == "" {
			msg = "Unknown Error"
		}

		switch code {
		case protocol.CodeOK:
			a.logResult(msg, false)
		case protocol.CodeLogout:
			a.log(msg, true)
			a.transport.ClearToken()
			return nil
		default:
			a.logResult(msg, true)
		}
	}
	return nil
}
