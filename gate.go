package wssession

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// openGate releases every waiter exactly once with a single outcome. A nil outcome means the
// session reached Open.
type openGate struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newOpenGate() *openGate {
	return &openGate{done: make(chan struct{})}
}

// signal records err as the outcome. Only the first call has an effect; it reports whether this
// call was the one that fired the gate.
func (g *openGate) signal(err error) (fired bool) {
	g.once.Do(func() {
		g.err = err
		close(g.done)
		fired = true
	})
	return
}

func (g *openGate) signaled() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}

func (g *openGate) wait(ctx context.Context) error {
	// A fired gate wins over an expired context.
	if g.signaled() {
		return g.err
	}

	select {
	case <-g.done:
		return g.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.WithStack(ErrTimeout)
		}
		return errors.WithStack(ctx.Err())
	}
}
