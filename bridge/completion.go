//go:build !ios && !android && (amd64 || arm64)

package bridge

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Pending is the single-resolution result of an asynchronous native
// operation. It resolves exactly once; later resolutions are dropped and any
// owned value they carry is released.
//
// A value of type T that implements Releaser is owned by whoever receives it
// from Wait, WaitTimeout or Then.
type Pending[T any] struct {
	op    string
	hooks Hooks
	done  chan struct{}

	mu       sync.Mutex
	resolved bool
	value    T
	err      error
	thens    []func()
}

// NewPending returns an unresolved Pending for op.
func NewPending[T any](op string) *Pending[T] {
	return &Pending[T]{op: op, hooks: NopHooks{}, done: make(chan struct{})}
}

// Failed returns a Pending already resolved with err.
func Failed[T any](op string, err error) *Pending[T] {
	p := NewPending[T](op)
	var zero T
	p.Resolve(zero, err)
	return p
}

// Op returns the operation name.
func (p *Pending[T]) Op() string {
	return p.op
}

// Resolve settles p. It reports false if p was already resolved, in which case
// v is released if it owns native references.
func (p *Pending[T]) Resolve(v T, err error) bool {
	p.mu.Lock()
	if p.resolved {
		p.mu.Unlock()
		discard(v)
		p.hooks.CompletionDropped(p.op)
		return false
	}
	p.resolved = true
	p.value, p.err = v, err
	thens := p.thens
	p.thens = nil
	close(p.done)
	p.mu.Unlock()

	p.hooks.CompletionResolved(p.op)
	for _, fn := range thens {
		fn()
	}
	return true
}

// Done is closed when p resolves.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Resolved reports whether p has settled.
func (p *Pending[T]) Resolved() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Then arranges for fn to be called exactly once with userData and the
// outcome. If p is already resolved fn runs immediately on the calling
// goroutine; otherwise it runs on the goroutine that resolves p.
func (p *Pending[T]) Then(userData any, fn func(userData any, v T, err error)) {
	p.mu.Lock()
	if !p.resolved {
		p.thens = append(p.thens, func() { fn(userData, p.value, p.err) })
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	fn(userData, p.value, p.err)
}

// Wait blocks until p resolves or ctx is done. When ctx ends first, p is
// resolved with the context error (a Timeout *Error for deadlines) so that a
// completion arriving later is discarded rather than delivered.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = &Error{Kind: Timeout, Op: p.op, Message: "no completion before deadline"}
		}
		var zero T
		p.Resolve(zero, err)
	}
	return p.value, p.err
}

// WaitTimeout blocks for at most d. On timeout it returns an error matching
// ErrTimeout; the native completion, if it arrives later, is discarded.
func (p *Pending[T]) WaitTimeout(d time.Duration) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return p.Wait(ctx)
}

func discard[T any](v T) {
	if r, ok := any(v).(Releaser); ok && r != nil {
		r.Release()
	}
}
