// Package faults defines the closed set of error kinds exchanged on the wire.
//
// Every fault carries a kind tag, a numeric response code and a human-readable
// message. The kind tag is serialized verbatim as the "error" field of an
// error response envelope, so renaming a kind is a wire-format change.
package faults

import (
	"errors"
	"fmt"
)

// Kind identifies a fault category on the wire.
type Kind string

// Malformed or misrouted requests.
const (
	KindPayloadInvalid      Kind = "PayloadInvalid"
	KindMissingParams       Kind = "MissingParams"
	KindArgumentError       Kind = "ArgumentError"
	KindParamsInvalid       Kind = "ParamsInvalid"
	KindUnrecognizedCommand Kind = "UnrecognizedCommand"
	KindUnsupportedMethod   Kind = "UnsupportedMethod"
)

// Authentication failures.
const (
	KindUnauthorized        Kind = "Unauthorized"
	KindUserNotExists       Kind = "UserNotExists"
	KindUserAlreadyExists   Kind = "UserAlreadyExists"
	KindUserAlreadyLoggedIn Kind = "UserAlreadyLoggedIn"
	KindPasswordError       Kind = "PasswordError"
)

// Forum-domain failures.
const (
	KindThreadNotFound         Kind = "ThreadNotFound"
	KindMessageNotFound        Kind = "MessageNotFound"
	KindFileNotFound           Kind = "FileNotFound"
	KindTitleDuplicate         Kind = "TitleDuplicate"
	KindFileNameDuplicate      Kind = "FileNameDuplicate"
	KindPermissionDenied       Kind = "PermissionDenied"
	KindFileTooLarge           Kind = "FileTooLarge"
	KindFileContentDecodeError Kind = "FileContentDecodeError"
	KindFileIOError            Kind = "FileIOError"
)

// KindInternal is the catch-all for unexpected failures.
const KindInternal Kind = "Internal"

// Fault is a wire-visible error: a kind tag plus response code and message.
type Fault struct {
	Kind Kind
	Code int
	Msg  string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s (%d): %s", f.Kind, f.Code, f.Msg)
}

// New builds a fault of the given kind.
func New(kind Kind, code int, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Internal is the 500 catch-all. The original error is not leaked to clients.
func Internal() *Fault {
	return &Fault{Kind: KindInternal, Code: 500, Msg: "Internal Server Error"}
}

// From converts any error into a *Fault. Faults pass through unchanged;
// everything else collapses into Internal.
func From(err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return Internal()
}

// IsKind reports whether err is a fault of the given kind.
func IsKind(err error, kind Kind) bool {
	var f *Fault
	return errors.As(err, &f) && f.Kind == kind
}
