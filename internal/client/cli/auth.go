package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mvoronin/forumwire/internal/protocol"
)

// getNonEmptyText and getPassword are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped in
// tests.
var getNonEmptyText = GetNonEmptyText
var getPassword = GetPassword

// InteractiveLogin walks the two-round login dialog: an empty-password probe
// that tells whether the user exists, then the real authentication. An
// unknown username offers to switch to registration.
func (a *App) InteractiveLogin(ctx context.Context) (string, error) {
	fmt.Fprintln(a.out)
	a.log("Login", false)

	for {
		user, err := getNonEmptyText(a.reader, "Enter username:", a.out)
		if err != nil {
			return "", err
		}

		resp, err := a.transport.Call(ctx, protocol.NewAuth("LOG", user, "", ""))
		if err != nil {
			return "", err
		}
		succ := resp.Code() == protocol.CodeOK
		a.log(resp.String("msg"), !succ)

		if resp.String("error") == "UserNotExists" {
			fmt.Fprintln(a.out)
			a.log("Do you want to register?", false)

			choice, err := getNonEmptyText(a.reader, "Y: register, [N]: login", a.out)
			if err != nil {
				return "", err
			}
			if strings.EqualFold(choice, "Y") {
				return a.InteractiveRegister(ctx)
			}
		}

		if !succ {
			continue
		}

		passwd, err := getPassword(a.out)
		if err != nil {
			return "", err
		}

		resp, err = a.transport.Call(ctx, protocol.NewAuth("LOG", user, string(passwd), ""))
		if err != nil {
			return "", err
		}
		succ = resp.Code() == protocol.CodeOK
		a.log(resp.String("msg"), !succ)

		if succ && resp.Has("token") {
			a.transport.SetToken(resp.String("token"))
			return user, nil
		}
	}
}

// InteractiveRegister walks the registration dialog: a username-availability
// probe with an empty password, then the actual account creation.
func (a *App) InteractiveRegister(ctx context.Context) (string, error) {
	fmt.Fprintln(a.out)
	a.log("Register", false)

	for {
		user, err := getNonEmptyText(a.reader, "Enter username:", a.out)
		if err != nil {
			return "", err
		}

		resp, err := a.transport.Call(ctx, protocol.NewAuth("REG", user, "", ""))
		if err != nil {
			return "", err
		}
		succ := resp.Code() == protocol.CodeOK
		a.log(resp.String("msg"), !succ)

		if !succ {
			continue
		}

		passwd, err := getPassword(a.out)
		if err != nil {
			return "", err
		}

		resp, err = a.transport.Call(ctx, protocol.NewAuth("REG", user, string(passwd), ""))
		if err != nil {
			return "", err
		}
		succ = resp.Code() == protocol.CodeOK
		a.log(resp.String("msg"), !succ)

		if succ && resp.Has("token") {
			a.transport.SetToken(resp.String("token"))
			return user, nil
		}
	}
}
