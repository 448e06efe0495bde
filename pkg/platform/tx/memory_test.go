package tx

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterStore struct {
	mu    sync.Mutex
	value int
}

func (c *counterStore) Checkpoint() func() {
	c.mu.Lock()
	saved := c.value
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.value = saved
		c.mu.Unlock()
	}
}

func (c *counterStore) inc() {
	c.mu.Lock()
	c.value++
	c.mu.Unlock()
}

func TestMemoryRunner(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		store := &counterStore{}
		runner := NewMemoryRunner(store)

		err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
			store.inc()
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, store.value)
	})

	t.Run("rolls back every participant on error", func(t *testing.T) {
		a, b := &counterStore{value: 10}, &counterStore{value: 20}
		runner := NewMemoryRunner(a, b)
		boom := errors.New("append failed")

		err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
			a.inc()
			b.inc()
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 10, a.value)
		assert.Equal(t, 20, b.value)
	})

	t.Run("nested calls join the outer transaction", func(t *testing.T) {
		store := &counterStore{}
		runner := NewMemoryRunner(store)

		err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
			return runner.RunInTx(ctx, func(ctx context.Context) error {
				store.inc()
				return nil
			})
		})
		require.NoError(t, err)
		assert.Equal(t, 1, store.value)
	})

	t.Run("refuses cancelled contexts", func(t *testing.T) {
		runner := NewMemoryRunner()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := runner.RunInTx(ctx, func(ctx context.Context) error { return nil })
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("serializes concurrent transactions", func(t *testing.T) {
		store := &counterStore{}
		runner := NewMemoryRunner(store)

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = runner.RunInTx(context.Background(), func(ctx context.Context) error {
					store.inc()
					return nil
				})
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, store.value)
	})
}
