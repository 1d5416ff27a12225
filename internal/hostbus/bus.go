package hostbus

import (
	"context"
	"errors"
	"iter"
)

// ErrClosed is reported when a closed bus is asked to register or post.
var ErrClosed = errors.New("hostbus: bus closed")

// Notification is a single post as seen by the host bus: the channel name and
// the object that was posted with it. The object doubles as the sender, so a
// sender filter compares against it.
type Notification struct {
	Name   string
	Object any
}

// Observer receives notifications for a registration.
type Observer func(Notification)

// Token identifies one registration on one bus. The zero Token refers to
// nothing, and removing it is a no-op.
type Token struct {
	bus string
	id  uint64
}

// IsZero reports whether the token was never issued by a bus.
func (t Token) IsZero() bool {
	return t.id == 0
}

// Bus is the untyped, string-keyed dispatch table the typed layer is built on.
//
// AddObserver registers fn for posts on name. An empty name observes every
// post on the bus. A non-nil sender restricts delivery to posts whose object
// equals sender. A nil queue runs fn on whatever goroutine the bus delivers on.
//
// RemoveObserver drops the registration behind tok when it matches name and
// sender (empty name and nil sender match anything). Unknown and already
// removed tokens are ignored.
type Bus interface {
	AddObserver(name string, sender any, queue Queue, fn Observer) Token
	RemoveObserver(tok Token, name string, sender any)
	Post(name string, object any)
	Events(ctx context.Context, name string) iter.Seq[Notification]
	ObserverCount(name string) int
}

// NullObject is the type of Null.
type NullObject struct{}

// Null stands in for "no object" on send paths that cannot carry a literal
// nil. Receivers treat it exactly like a nil object.
var Null = NullObject{}

// IsAbsent reports whether obj represents a missing object: nil, Null, or a
// typed nil pointer, map, slice, channel or func.
func IsAbsent(obj any) bool {
	switch obj.(type) {
	case nil:
		return true
	case NullObject, *NullObject:
		return true
	}
	return isNilValue(obj)
}
