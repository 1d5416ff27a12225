package notify

import (
	"context"
	"iter"

	"github.com/nfrund/typedbus/internal/hostbus"
)

// Token identifies one observer registration. Keep it to remove the observer;
// registrations are never cleaned up automatically.
type Token = hostbus.Token

// Name identifies a channel on the host bus. Any string literal is a Name.
type Name string

// String returns the name as a plain string.
func (n Name) String() string {
	return string(n)
}

// Event is one delivered post. Object is nil when the post carried no object,
// whatever the bus used to represent that.
type Event struct {
	Name   Name
	Object any
}

func eventOf(n hostbus.Notification) Event {
	return Event{Name: Name(n.Name), Object: normalize(n.Object)}
}

// AddObserver calls fn for every post on n.
func (n Name) AddObserver(fn func(Event), opts ...Option) Token {
	s := resolve(opts)
	return s.bus.AddObserver(string(n), s.sender, s.queue, func(note hostbus.Notification) {
		fn(eventOf(note))
	})
}

// AddAsyncObserver schedules fn on the async queue for every post on n and
// returns to the bus without waiting for it.
func (n Name) AddAsyncObserver(fn func(context.Context, Name), opts ...Option) Token {
	s := resolve(opts)
	target := s.asyncTarget()
	return s.bus.AddObserver(string(n), s.sender, s.queue, func(note hostbus.Notification) {
		name := Name(note.Name)
		target.Dispatch(func() { fn(s.ctx, name) })
	})
}

// RemoveObserver stops the registration behind tok. Removing a token twice,
// or a token that never observed n, does nothing.
func (n Name) RemoveObserver(tok Token, opts ...Option) {
	s := resolve(opts)
	s.bus.RemoveObserver(tok, string(n), s.sender)
}

// Post posts n with the FromSender object, or with no object at all.
func (n Name) Post(opts ...Option) {
	s := resolve(opts)
	s.bus.Post(string(n), normalize(s.sender))
}

// PostObject posts n with obj.
func (n Name) PostObject(obj any, opts ...Option) {
	s := resolve(opts)
	s.bus.Post(string(n), normalize(obj))
}

// Stream returns a lazy sequence of posts on n. See Channel.Stream.
func (n Name) Stream(ctx context.Context, opts ...Option) iter.Seq[Event] {
	s := resolve(opts)
	return func(yield func(Event) bool) {
		for note := range s.bus.Events(ctx, string(n)) {
			if !yield(eventOf(note)) {
				return
			}
		}
	}
}

// ObserverCount returns the number of live registrations on n.
func (n Name) ObserverCount(opts ...Option) int {
	return resolve(opts).bus.ObserverCount(string(n))
}
