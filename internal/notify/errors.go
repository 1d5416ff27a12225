package notify

import (
	"errors"
	"fmt"
)

// ErrorKind classifies delivery failures.
type ErrorKind string

const (
	KindTypeMismatch  ErrorKind = "type_mismatch"  // present payload is not the channel's type
	KindAbsentPayload ErrorKind = "absent_payload" // missing payload on a channel whose type cannot be nil
)

var (
	// ErrTypeMismatch matches every *Error, since an absent payload on a
	// non-optional channel is a mismatch too.
	ErrTypeMismatch = errors.New("payload type mismatch")

	// ErrAbsentPayload matches only errors of kind KindAbsentPayload.
	ErrAbsentPayload = errors.New("absent payload")
)

// Error describes a payload that cannot be handed to a typed observer. It is
// raised as a panic at the delivery boundary.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Channel Name      `json:"channel"`
	Want    string    `json:"want"`
	Got     string    `json:"got,omitempty"`
	Cause   error     `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindAbsentPayload:
		msg = fmt.Sprintf("channel %s: absent payload, want %s", e.Channel, e.Want)
	default:
		msg = fmt.Sprintf("channel %s: type mismatch, want %s, got %s", e.Channel, e.Want, e.Got)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTypeMismatch:
		return true
	case ErrAbsentPayload:
		return e.Kind == KindAbsentPayload
	}
	return false
}
