package hostbus

import (
	"context"
	"iter"
	"sync"
)

// streamEvents turns push delivery on b into a pull sequence. Each range over
// the result registers exactly one observer, buffers everything posted
// without limit, and removes the observer once iteration stops for any reason:
// the loop exits, the consumer panics, or ctx is done.
func streamEvents(ctx context.Context, b Bus, m *metrics, name string) iter.Seq[Notification] {
	return func(yield func(Notification) bool) {
		if ctx.Err() != nil {
			return
		}

		buf := newBacklog[Notification]()
		tok := b.AddObserver(name, nil, nil, func(n Notification) {
			m.buffered(1)
			if !buf.push(n) {
				m.buffered(-1)
			}
		})

		var once sync.Once
		stop := func() {
			once.Do(func() {
				b.RemoveObserver(tok, name, nil)
				m.buffered(-buf.drop())
			})
		}
		defer stop()
		unregister := context.AfterFunc(ctx, stop)
		defer unregister()

		for {
			n, ok := buf.pop(ctx)
			if !ok {
				return
			}
			m.buffered(-1)
			if !yield(n) {
				return
			}
		}
	}
}
