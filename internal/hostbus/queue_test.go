package hostbus_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nfrund/typedbus/internal/hostbus"
)

func TestSerialQueue(t *testing.T) {
	t.Run("Runs work in submission order", func(t *testing.T) {
		q := hostbus.NewSerialQueue("order")
		defer q.Close()

		var mu sync.Mutex
		var got []int
		for i := range 50 {
			q.Dispatch(func() {
				mu.Lock()
				got = append(got, i)
				mu.Unlock()
			})
		}
		q.Flush()

		mu.Lock()
		defer mu.Unlock()
		assert.Len(t, got, 50)
		for i, v := range got {
			assert.Equal(t, i, v)
		}
	})

	t.Run("Runs one unit at a time", func(t *testing.T) {
		q := hostbus.NewSerialQueue("exclusive")
		defer q.Close()

		var mu sync.Mutex
		running, maxRunning := 0, 0
		for range 20 {
			q.Dispatch(func() {
				mu.Lock()
				running++
				maxRunning = max(maxRunning, running)
				mu.Unlock()

				mu.Lock()
				running--
				mu.Unlock()
			})
		}
		q.Flush()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 1, maxRunning)
	})

	t.Run("Work may dispatch more work", func(t *testing.T) {
		q := hostbus.NewSerialQueue("nested")
		defer q.Close()

		done := make(chan struct{})
		q.Dispatch(func() {
			q.Dispatch(func() { close(done) })
		})
		<-done
	})

	t.Run("Close drains queued work and is idempotent", func(t *testing.T) {
		q := hostbus.NewSerialQueue("close")
		ran := 0
		for range 10 {
			q.Dispatch(func() { ran++ })
		}

		assert.NoError(t, q.Close())
		assert.NoError(t, q.Close())
		assert.Equal(t, 10, ran)

		q.Dispatch(func() { ran++ })
		q.Flush()
		assert.Equal(t, 10, ran, "work after Close is discarded")
		assert.Equal(t, 0, q.Pending())
	})

	t.Run("Main is a single process-wide queue", func(t *testing.T) {
		assert.Same(t, hostbus.Main(), hostbus.Main())
		assert.Equal(t, "main", hostbus.Main().Name())
	})
}
