// Package notify layers compile-time payload types over the untyped host bus.
//
// A Channel[T] is nothing but a Name; the type parameter only constrains what
// can be posted and what observers receive:
//
//	var Score = notify.New[int]("game.score")
//
//	tok := Score.AddObserver(func(ev notify.Event, points int) {
//	    fmt.Println(ev.Name, points)
//	})
//	Score.Post(42)
//	Score.RemoveObserver(tok)
//
// Posts are delivered synchronously by the default in-memory bus. Pass
// On(bus) to use another bus, OnQueue or OnMain to pick where callbacks run,
// and AddAsyncObserver to hop onto a serial queue for longer work.
//
// Channels whose type can be nil (pointers, maps, slices, interfaces) accept
// absent payloads. Whether the host delivered a missing object or the Null
// sentinel, such observers receive the zero value. On any other channel an
// absent or mistyped payload is a programming error and panics with an *Error
// where it is delivered.
//
// Stream adapts a channel to a range loop:
//
//	for _, points := range Score.Stream(ctx) {
//	    if points > 100 {
//	        break
//	    }
//	}
package notify
