package tx

import (
	"context"
	"sync"
	"time"
)

// Checkpointer is implemented by in-memory stores that take part in a
// MemoryRunner transaction. Checkpoint captures current state and returns a
// function restoring it.
type Checkpointer interface {
	Checkpoint() (restore func())
}

const defaultMemoryTxTimeout = 5 * time.Second

// MemoryRunner serializes transactions behind one lock and rolls participants
// back to their checkpoint when fn fails.
type MemoryRunner struct {
	mu           sync.Mutex
	participants []Checkpointer
	timeout      time.Duration
}

// NewMemoryRunner constructs a Runner over the given in-memory stores.
func NewMemoryRunner(participants ...Checkpointer) *MemoryRunner {
	return &MemoryRunner{participants: participants, timeout: defaultMemoryTxTimeout}
}

type memoryTxKey struct{}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(memoryTxKey{}) == r {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	restores := make([]func(), 0, len(r.participants))
	for _, p := range r.participants {
		restores = append(restores, p.Checkpoint())
	}
	defer func() {
		if p := recover(); p != nil {
			rollback(restores)
			panic(p)
		}
		if err != nil {
			rollback(restores)
		}
	}()

	return fn(context.WithValue(ctx, memoryTxKey{}, r))
}

func rollback(restores []func()) {
	for i := len(restores) - 1; i >= 0; i-- {
		restores[i]()
	}
}
