package player

import (
	"context"
	"sync"
)

// Library is a process wide "player library ready" future. The loader runs at
// most once; every waiter observes the same result.
type Library struct {
	load func(context.Context) error
	once sync.Once
	done chan struct{}
	err  error
}

func NewLibrary(load func(context.Context) error) *Library {
	return &Library{
		load: load,
		done: make(chan struct{}),
	}
}

// ReadyLibrary returns a library that needs no loading.
func ReadyLibrary() *Library {
	return NewLibrary(func(context.Context) error { return nil })
}

// Wait starts loading on first call and blocks until the library is ready or
// ctx is done. Cancelling one waiter does not cancel the load.
func (l *Library) Wait(ctx context.Context) error {
	l.once.Do(func() {
		loadCtx := context.WithoutCancel(ctx)
		go func() {
			defer close(l.done)
			if l.load != nil {
				l.err = l.load(loadCtx)
			}
		}()
	})

	select {
	case <-l.done:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Library) Loaded() bool {
	select {
	case <-l.done:
		return l.err == nil
	default:
		return false
	}
}
