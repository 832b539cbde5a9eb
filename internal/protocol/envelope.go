// Package protocol implements the JSON envelope exchanged between client and
// server. An envelope is a flat JSON object in one of three shapes:
//
//   - command:  {"cmd": ..., "token"+"args" or "user"+"passwd", "echo": ...}
//   - response: {"code": ..., "msg": ..., "echo": ..., optional "data"/"token"/"error"}
//   - meta:     {"meta": true, "reply": bool, "echo": ...}
//
// Every non-meta envelope carries an "echo" correlation id linking a request
// to its response. When a payload is too broken for the echo to be recovered,
// the sentinel FaultEcho is used in the error response instead.
package protocol

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/mvoronin/forumwire/internal/faults"
)

// FaultEcho is the sentinel correlation id for undecodable payloads.
const FaultEcho = "FAULT"

// CodeOK is the success response code; CodeLogout is the distinguished
// terminal code returned by XIT that tells the client to stop the session.
const (
	CodeOK     = 200
	CodeLogout = 201
)

// Envelope is a decoded wire object.
type Envelope map[string]any

// Kind classifies a decoded envelope.
type Kind int

const (
	KindCommand Kind = iota
	KindResponse
	KindMeta
)

// Decode parses raw bytes into an Envelope. It fails with PayloadInvalid(422)
// for non-UTF-8, non-JSON or non-object payloads and with PayloadInvalid(400)
// if a non-meta envelope lacks the echo correlation id.
func Decode(raw []byte) (Envelope, error) {
	if !utf8.Valid(raw) {
		return nil, faults.New(faults.KindPayloadInvalid, 422, "Payload is not valid UTF-8")
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, faults.New(faults.KindPayloadInvalid, 422, "Payload is not a valid JSON object")
	}
	if env == nil {
		return nil, faults.New(faults.KindPayloadInvalid, 422, "Payload is not a valid JSON object")
	}

	if _, meta := env["meta"]; !meta {
		if _, ok := env["echo"]; !ok {
			return nil, faults.New(faults.KindPayloadInvalid, 400, "Missing echo in the payload")
		}
	}

	return env, nil
}

// Encode serializes an envelope. Encoding a well-formed envelope never fails;
// the rare marshalling error collapses to an internal error response so a
// frame is always produced.
func Encode(env Envelope) []byte {
	raw, err := json.Marshal(env)
	if err != nil {
		return Encode(NewError(faults.Internal(), env.Echo()))
	}
	return raw
}

// Classify determines the shape of a decoded envelope: command if "cmd" is
// present, meta if "meta" is present, otherwise a MissingParams fault.
func Classify(env Envelope) (Kind, error) {
	if _, ok := env["cmd"]; ok {
		return KindCommand, nil
	}
	if _, ok := env["code"]; ok {
		return KindResponse, nil
	}
	if _, ok := env["meta"]; ok {
		return KindMeta, nil
	}
	return 0, faults.New(faults.KindMissingParams, 400, "Bad Request")
}

// Echo returns the correlation id, or "" if absent or of the wrong type.
func (e Envelope) Echo() string {
	s, _ := e["echo"].(string)
	return s
}

// String returns the named field as a string, or "" if absent.
func (e Envelope) String(key string) string {
	s, _ := e[key].(string)
	return s
}

// Has reports whether the named key is present.
func (e Envelope) Has(key string) bool {
	_, ok := e[key]
	return ok
}

// Code returns the numeric response code, or 0 if absent. JSON numbers decode
// as float64, so the value is truncated to int.
func (e Envelope) Code() int {
	f, _ := e["code"].(float64)
	return int(f)
}

// Bool returns the named field as a bool, or false if absent.
func (e Envelope) Bool(key string) bool {
	b, _ := e[key].(bool)
	return b
}

// NewCommand builds an authenticated command request.
func NewCommand(cmd, token, args, echo string) Envelope {
	var a any
	if args != "" {
		a = args
	}
	return Envelope{"cmd": cmd, "token": token, "args": a, "echo": echo}
}

// NewAuth builds a REG/LOG request carrying credentials instead of a token.
func NewAuth(cmd, user, passwd, echo string) Envelope {
	return Envelope{"cmd": cmd, "user": user, "passwd": passwd, "echo": echo}
}

// NewAuthResponse builds a successful login/register response with a token.
func NewAuthResponse(code int, token, msg, echo string) Envelope {
	return Envelope{"code": code, "msg": msg, "token": token, "echo": echo}
}

// NewResponse builds a command response; data may be nil.
func NewResponse(code int, data any, msg, echo string) Envelope {
	return Envelope{"code": code, "msg": msg, "data": data, "echo": echo}
}

// NewError converts a fault into an error response envelope. The fault kind
// tag is carried verbatim in the "error" field.
func NewError(f *faults.Fault, echo string) Envelope {
	return Envelope{"code": f.Code, "msg": f.Msg, "error": string(f.Kind), "echo": echo}
}

// NewMeta builds a meta probe; reply requests the peer to answer in kind.
func NewMeta(echo string, reply bool) Envelope {
	return Envelope{"meta": true, "reply": reply, "echo": echo}
}

// NewFileRequest builds an UPD/DWN request for the stream transport. The
// body key is always present so that a zero-byte upload still carries one.
func NewFileRequest(cmd, title, name, body, token, echo string) Envelope {
	return Envelope{"cmd": cmd, "title": title, "name": name, "body": body, "token": token, "echo": echo}
}

// NewFileResponse builds the reply to an UPD/DWN request.
func NewFileResponse(code int, msg, name, body, echo string) Envelope {
	return Envelope{"code": code, "msg": msg, "name": name, "body": body, "echo": echo}
}
