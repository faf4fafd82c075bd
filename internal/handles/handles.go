//go:build !ios && !android && (amd64 || arm64)

// Package handles provides thread-safe tables for Go values that native code
// refers to by integer ID.
//
// Go pointers cannot be stored in native memory. A value is registered in a
// Table and the returned ID travels through the native side as an opaque
// context pointer; when the native side calls back, the ID is looked up (or
// taken) to recover the value.
//
// IDs are never reused within a Table, so a stale ID from a completed
// operation can never alias a newer registration.
package handles

import "sync"

// Table maps IDs to values of type T. The zero ID is never issued.
type Table[T any] struct {
	mu     sync.RWMutex
	values map[uintptr]T
	nextID uintptr
}

// New returns an empty table.
func New[T any]() *Table[T] {
	return &Table[T]{
		values: make(map[uintptr]T),
		nextID: 1,
	}
}

// Register stores v and returns its ID.
//
// Thread-safe.
func (t *Table[T]) Register(v T) uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.values[id] = v
	return id
}

// Lookup returns the value registered under id.
//
// Thread-safe.
func (t *Table[T]) Lookup(id uintptr) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[id]
	return v, ok
}

// Take removes and returns the value registered under id. Of any number of
// concurrent Take calls for the same id, exactly one reports ok.
//
// Thread-safe.
func (t *Table[T]) Take(id uintptr) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.values[id]
	if ok {
		delete(t.values, id)
	}
	return v, ok
}

// Unregister removes id. It reports whether id was present.
//
// Thread-safe.
func (t *Table[T]) Unregister(id uintptr) bool {
	_, ok := t.Take(id)
	return ok
}

// Len returns the number of registered values.
// Useful for leak checks in tests.
//
// Thread-safe.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}
