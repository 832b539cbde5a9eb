package cli

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvoronin/forumwire/internal/protocol"
)

func TestCommandLoop_DatagramVerbAndLogout(t *testing.T) {
	fc := &fakeConn{token: "tok"}
	fc.onCall = func(env protocol.Envelope) (protocol.Envelope, error) {
		switch env.String("cmd") {
		case "LST":
			return protocol.NewResponse(protocol.CodeOK, "ID | Thread Title | Author", "OK", env.Echo()), nil
		case "XIT":
			return protocol.NewResponse(protocol.CodeLogout, "Bye alice !", "OK", env.Echo()), nil
		}
		t.Fatalf("unexpected cmd %s", env.String("cmd"))
		return nil, nil
	}

	app := newTestApp(fc, "LST\nXIT\n")
	app.userName = "alice"

	require.NoError(t, app.CommandLoop(context.Background()))
	assert.Empty(t, fc.Token(), "logout must clear the token")

	sent := fc.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "tok", sent[0].String("token"))
}

func TestCommandLoop_UploadPackagesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.jpg")
	content := []byte{0x01, 0x02, 0xff}
	require.NoError(t, os.WriteFile(path, content, 0o660))

	fc := &fakeConn{token: "tok"}
	fc.onStream = func(env protocol.Envelope) (protocol.Envelope, error) {
		return protocol.NewFileResponse(protocol.CodeOK, "File cat.jpg uploaded to Pets thread", "", "", env.Echo()), nil
	}
	fc.onCall = func(env protocol.Envelope) (protocol.Envelope, error) {
		return protocol.NewResponse(protocol.CodeLogout, "Bye alice !", "OK", env.Echo()), nil
	}

	app := newTestApp(fc, "UPD Pets "+path+"\nXIT\n")

	require.NoError(t, app.CommandLoop(context.Background()))

	sent := fc.sent()
	require.Len(t, sent, 2)
	upd := sent[0]
	assert.Equal(t, "UPD", upd.String("cmd"))
	assert.Equal(t, "Pets", upd.String("title"))
	assert.Equal(t, "cat.jpg", upd.String("name"))
	assert.Equal(t, base64.StdEncoding.EncodeToString(content), upd.String("body"))
}

func TestCommandLoop_DownloadWritesFile(t *testing.T) {
	content := []byte("downloaded bytes")
	body := base64.StdEncoding.EncodeToString(content)

	fc := &fakeConn{token: "tok"}
	fc.onStream = func(env protocol.Envelope) (protocol.Envelope, error) {
		return protocol.NewFileResponse(protocol.CodeOK, "Successfully download file cat.jpg", "cat.jpg", body, env.Echo()), nil
	}
	fc.onCall = func(env protocol.Envelope) (protocol.Envelope, error) {
		return protocol.NewResponse(protocol.CodeLogout, "Bye alice !", "OK", env.Echo()), nil
	}

	app := newTestApp(fc, "DWN Pets cat.jpg\nXIT\n")
	app.config.DownloadDir = t.TempDir()

	require.NoError(t, app.CommandLoop(context.Background()))

	raw, err := os.ReadFile(filepath.Join(app.config.DownloadDir, "cat.jpg"))
	require.NoError(t, err)
	assert.Equal(t, content, raw)
}

func TestCommandLoop_StopsWhenTokenCleared(t *testing.T) {
	// Simulates the receiver loop wiping the token after a server-side
	// session expiry: the loop must not prompt again.
	fc := &fakeConn{}

	app := newTestApp(fc, "LST\n")

	require.NoError(t, app.CommandLoop(context.Background()))
	assert.Empty(t, fc.sent())
}
