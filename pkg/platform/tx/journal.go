package tx

import (
	"context"
	"sync"
)

type journalKey struct{}

// Journal collects undo steps for in-memory stores so they can take part in a
// unit of work the same way SQL stores do.
type Journal struct {
	mu    sync.Mutex
	undos []func()
}

// WithJournal binds a fresh journal to ctx.
func WithJournal(ctx context.Context) (context.Context, *Journal) {
	j := &Journal{}
	return context.WithValue(ctx, journalKey{}, j), j
}

// OnRollback registers undo on the journal bound to ctx. Outside a unit of
// work it is a no-op.
func OnRollback(ctx context.Context, undo func()) {
	j, ok := ctx.Value(journalKey{}).(*Journal)
	if !ok {
		return
	}
	j.mu.Lock()
	j.undos = append(j.undos, undo)
	j.mu.Unlock()
}

func inJournal(ctx context.Context) bool {
	_, ok := ctx.Value(journalKey{}).(*Journal)
	return ok
}

// Rollback runs the registered undo steps newest first.
func (j *Journal) Rollback() {
	j.mu.Lock()
	undos := j.undos
	j.undos = nil
	j.mu.Unlock()
	for i := len(undos) - 1; i >= 0; i-- {
		undos[i]()
	}
}
