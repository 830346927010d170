package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorker(t *testing.T) {
	t.Run("Should run submitted tasks", func(t *testing.T) {
		w := NewWorker(2)
		w.Start(context.Background())
		defer w.Stop()

		var ran int32
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			ok := w.Submit(func(ctx context.Context) {
				defer wg.Done()
				atomic.AddInt32(&ran, 1)
			})
			assert.True(t, ok)
		}
		wg.Wait()

		assert.Equal(t, int32(10), atomic.LoadInt32(&ran))
	})

	t.Run("Should drain queued tasks on stop", func(t *testing.T) {
		w := NewWorker(1)
		w.Start(context.Background())

		var ran int32
		for i := 0; i < 5; i++ {
			w.Submit(func(ctx context.Context) {
				atomic.AddInt32(&ran, 1)
			})
		}

		w.Stop()
		assert.Equal(t, int32(5), atomic.LoadInt32(&ran))
	})

	t.Run("Should refuse submissions after stop", func(t *testing.T) {
		w := NewWorker(1)
		w.Start(context.Background())
		w.Stop()

		ok := w.Submit(func(ctx context.Context) {})
		assert.False(t, ok)
	})
}
