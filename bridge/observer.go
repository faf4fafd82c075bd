//go:build !ios && !android && (amd64 || arm64)

package bridge

import (
	"context"
	"sync"
)

// OutcomeKind is the tri-state result of a UI-driven request.
type OutcomeKind uint8

const (
	OutcomePicked OutcomeKind = iota + 1
	OutcomeCancelled
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePicked:
		return "picked"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "none"
	}
}

// Outcome is what an Observer receives. Value is set only for
// OutcomePicked, Err only for OutcomeFailed.
type Outcome[T any] struct {
	Kind  OutcomeKind
	Value T
	Err   error
}

// Observer receives at most one Outcome. Deliveries after the first are
// dropped and their payload is released.
type Observer[T any] struct {
	done chan struct{}

	mu      sync.Mutex
	slot    *ObserverSlot[T]
	gen     uint64
	outcome Outcome[T]
	set     bool
	taken   bool
}

// NewObserver returns an observer with no outcome.
func NewObserver[T any]() *Observer[T] {
	return &Observer[T]{done: make(chan struct{})}
}

// Generation returns the slot generation o was installed at, 0 if never
// installed.
func (o *Observer[T]) Generation() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gen
}

// Stale reports whether a newer observer has replaced o in its slot.
func (o *Observer[T]) Stale() bool {
	o.mu.Lock()
	slot, gen := o.slot, o.gen
	o.mu.Unlock()
	if slot == nil {
		return false
	}
	return slot.Generation() != gen
}

// Deliver records out if o has no outcome yet. It reports whether out was
// accepted and whether o was already stale at delivery time. A stale
// observer still accepts its first outcome.
func (o *Observer[T]) Deliver(out Outcome[T]) (accepted, stale bool) {
	stale = o.Stale()

	o.mu.Lock()
	if o.set {
		o.mu.Unlock()
		discard(out.Value)
		return false, stale
	}
	o.outcome = out
	o.set = true
	close(o.done)
	o.mu.Unlock()
	return true, stale
}

// Done is closed once an outcome is delivered.
func (o *Observer[T]) Done() <-chan struct{} {
	return o.done
}

// Outcome returns the delivered outcome, if any.
func (o *Observer[T]) Outcome() (Outcome[T], bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcome, o.set
}

// Wait blocks until an outcome arrives or ctx ends, then hands the outcome
// to the caller. Only the first successful Wait receives the picked value;
// later calls see the same kind with a zero Value.
func (o *Observer[T]) Wait(ctx context.Context) (Outcome[T], error) {
	select {
	case <-o.done:
	case <-ctx.Done():
		return Outcome[T]{}, ctx.Err()
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.outcome
	if o.taken {
		var zero T
		out.Value = zero
	}
	o.taken = true
	return out, nil
}

// Close releases a picked value nobody took and marks o as finished; later
// deliveries are dropped.
func (o *Observer[T]) Close() {
	o.mu.Lock()
	var leftover T
	hasLeftover := o.set && !o.taken
	if hasLeftover {
		leftover = o.outcome.Value
	}
	o.taken = true
	if !o.set {
		o.set = true
		close(o.done)
	}
	o.mu.Unlock()

	if hasLeftover {
		discard(leftover)
	}
}

// ObserverSlot holds at most one active observer.
type ObserverSlot[T any] struct {
	mu      sync.Mutex
	current *Observer[T]
	gen     uint64
}

// Install makes o the active observer and returns the one it replaced, so
// the caller can stop native delivery to it. The replaced observer is not
// cancelled; deliveries already in flight still reach it.
func (s *ObserverSlot[T]) Install(o *Observer[T]) (prev *Observer[T]) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	prev = s.current
	s.current = o
	s.mu.Unlock()

	o.mu.Lock()
	o.slot = s
	o.gen = gen
	o.mu.Unlock()
	return prev
}

// Current returns the active observer.
func (s *ObserverSlot[T]) Current() *Observer[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Generation returns the generation of the active observer.
func (s *ObserverSlot[T]) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Clear empties the slot if o is still the active observer.
func (s *ObserverSlot[T]) Clear(o *Observer[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != o {
		return false
	}
	s.current = nil
	s.gen++
	return true
}
