package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvoronin/forumwire/internal/faults"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	envs := []Envelope{
		NewCommand("CRT", "tok-1", "Pets", "echo-1"),
		NewAuth("LOG", "alice", "secret12", "echo-2"),
		NewAuthResponse(200, "tok-2", "Welcome user alice !", "echo-3"),
		NewResponse(200, "1 Pets", "OK", "echo-4"),
		NewError(faults.New(faults.KindThreadNotFound, 404, "Thread Pets not found"), "echo-5"),
		NewMeta("echo-6", true),
		NewFileRequest("UPD", "Pets", "cat.jpg", "aGVsbG8=", "tok-1", "echo-7"),
		NewFileResponse(200, "OK", "cat.jpg", "aGVsbG8=", "echo-8"),
	}

	for _, env := range envs {
		decoded, err := Decode(Encode(env))
		require.NoError(t, err)
		for k, v := range env {
			switch want := v.(type) {
			case int:
				assert.EqualValues(t, want, decoded.Code(), "key %s", k)
			case nil:
				assert.Nil(t, decoded[k], "key %s", k)
			default:
				assert.Equal(t, v, decoded[k], "key %s", k)
			}
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		code int
	}{
		{name: "invalid utf8", raw: []byte{0xff, 0xfe, '{'}, code: 422},
		{name: "invalid json", raw: []byte(`{"cmd": `), code: 422},
		{name: "not an object", raw: []byte(`[1, 2, 3]`), code: 422},
		{name: "json null", raw: []byte(`null`), code: 422},
		{name: "missing echo", raw: []byte(`{"cmd": "LST", "token": "t", "args": null}`), code: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			require.Error(t, err)
			f := faults.From(err)
			assert.Equal(t, faults.KindPayloadInvalid, f.Kind)
			assert.Equal(t, tt.code, f.Code)
		})
	}
}

func TestDecodeMetaWithoutEcho(t *testing.T) {
	// Meta envelopes are exempt from the echo requirement at decode time.
	env, err := Decode([]byte(`{"meta": true, "reply": false}`))
	require.NoError(t, err)
	kind, err := Classify(env)
	require.NoError(t, err)
	assert.Equal(t, KindMeta, kind)
}

func TestClassify(t *testing.T) {
	cmd, err := Classify(Envelope{"cmd": "LST", "echo": "e"})
	require.NoError(t, err)
	assert.Equal(t, KindCommand, cmd)

	resp, err := Classify(Envelope{"code": float64(200), "msg": "OK", "echo": "e"})
	require.NoError(t, err)
	assert.Equal(t, KindResponse, resp)

	_, err = Classify(Envelope{"echo": "e"})
	require.Error(t, err)
	assert.Equal(t, faults.KindMissingParams, faults.From(err).Kind)
}

func TestAccessors(t *testing.T) {
	env, err := Decode([]byte(`{"code": 403, "msg": "no", "error": "PermissionDenied", "echo": "e1"}`))
	require.NoError(t, err)

	assert.Equal(t, 403, env.Code())
	assert.Equal(t, "e1", env.Echo())
	assert.Equal(t, "PermissionDenied", env.String("error"))
	assert.Equal(t, "", env.String("missing"))
	assert.False(t, env.Bool("reply"))
	assert.True(t, env.Has("msg"))
}
