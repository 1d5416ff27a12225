// Package hostbus provides the untyped, string-keyed notification bus that
// typed channels are layered on.
//
// A Bus maps channel names to observer registrations. Posting a name with an
// object invokes every live registration for that name (and every
// registration made with an empty name), optionally filtered by sender, on
// the registration's Queue or on the delivering goroutine.
//
// Two implementations are provided:
//
//   - Table keeps registrations in memory and delivers synchronously on the
//     posting goroutine. Default returns the process-wide instance.
//   - WatermillBus routes posts through watermill's GoChannel. Messages carry
//     the object encoded with a Codec, but observers receive the posted value
//     unchanged, with Null in place of a missing object.
//
// Basic usage:
//
//	bus := hostbus.NewTable()
//	tok := bus.AddObserver("score", nil, nil, func(n hostbus.Notification) {
//	    fmt.Println(n.Name, n.Object)
//	})
//	bus.Post("score", 42)
//	bus.RemoveObserver(tok, "score", nil)
//
// Events turns a name into a pull sequence backed by an unbounded buffer:
//
//	for n := range bus.Events(ctx, "score") {
//	    ...
//	}
//
// Leaving the loop, or canceling ctx, removes the underlying registration.
package hostbus
