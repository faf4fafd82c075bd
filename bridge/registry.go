//go:build !ios && !android && (amd64 || arm64)

package bridge

import (
	"fmt"
	"reflect"
	"sync"
)

// Category distinguishes the recurring notifications an owner can have
// handlers for. The first three values coincide with OutputType.
type Category uint8

const (
	CategoryScreen Category = iota
	CategoryAudio
	CategoryMicrophone
	CategoryStreamDelegate
	CategoryRecordingDelegate
)

func (c Category) String() string {
	switch c {
	case CategoryScreen:
		return "screen"
	case CategoryAudio:
		return "audio"
	case CategoryMicrophone:
		return "microphone"
	case CategoryStreamDelegate:
		return "stream_delegate"
	case CategoryRecordingDelegate:
		return "recording_delegate"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// OwnerID is the stable identity of a native owner (a stream or recording
// output) as seen by the registry and by native callbacks. IDs are never
// reused, so a recycled native address cannot alias an old owner.
type OwnerID uintptr

// Arena hands out OwnerIDs.
type Arena struct {
	mu       sync.Mutex
	next     OwnerID
	byID     map[OwnerID]Handle
	byHandle map[Handle]OwnerID
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{
		next:     1,
		byID:     make(map[OwnerID]Handle),
		byHandle: make(map[Handle]OwnerID),
	}
}

// Reserve issues an ID before the owner's handle exists, for constructors
// that need the callback context up front. Bind attaches the handle later.
func (a *Arena) Reserve() OwnerID {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.next
	a.next++
	a.byID[id] = 0
	return id
}

// Bind attaches h to a reserved id.
func (a *Arena) Bind(id OwnerID, h Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byID[id]; !ok {
		return
	}
	a.byID[id] = h
	if !h.IsNull() {
		a.byHandle[h] = id
	}
}

// Intern returns the ID for h, issuing one the first time h is seen.
func (a *Arena) Intern(h Handle) OwnerID {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id, ok := a.byHandle[h]; ok {
		return id
	}
	id := a.next
	a.next++
	a.byID[id] = h
	a.byHandle[h] = id
	return id
}

// Lookup returns the ID currently bound to h.
func (a *Arena) Lookup(h Handle) (OwnerID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, ok := a.byHandle[h]
	return id, ok
}

// Handle returns the handle bound to id.
func (a *Arena) Handle(id OwnerID) (Handle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.byID[id]
	return h, ok
}

// Forget drops id. Must be called before the owner's handle is released so
// the address can be reused safely.
func (a *Arena) Forget(id OwnerID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.byID[id]
	if !ok {
		return
	}
	delete(a.byID, id)
	if cur, ok := a.byHandle[h]; ok && cur == id {
		delete(a.byHandle, h)
	}
}

// Len returns the number of live IDs.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.byID)
}

// Dropper is implemented by handlers that hold resources to give up when
// the registry lets go of them.
type Dropper interface {
	Drop()
}

type registryKey struct {
	owner    OwnerID
	category Category
}

// Registry maps (owner, category) to a handler. One mutex guards the whole
// table; Lookup can race Register and Unregister freely and sees either the
// old entry, the new entry, or nothing.
type Registry[H any] struct {
	mu      sync.Mutex
	entries map[registryKey]H
}

// NewRegistry returns an empty registry.
func NewRegistry[H any]() *Registry[H] {
	return &Registry[H]{entries: make(map[registryKey]H)}
}

// Register installs h for (owner, c) and holds it until Unregister. A
// previous handler under the same key is dropped and replaced is true; the
// caller must already have stopped native delivery for it. Registering the
// handler already installed is a no-op.
func (r *Registry[H]) Register(owner OwnerID, c Category, h H) (replaced bool) {
	k := registryKey{owner, c}
	r.mu.Lock()
	prev, ok := r.entries[k]
	if ok && sameHandler(prev, h) {
		r.mu.Unlock()
		return false
	}
	r.entries[k] = h
	r.mu.Unlock()

	if ok {
		drop(prev)
	}
	return ok
}

// Lookup returns the handler for (owner, c).
func (r *Registry[H]) Lookup(owner OwnerID, c Category) (H, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.entries[registryKey{owner, c}]
	return h, ok
}

// Unregister removes and drops the handler for (owner, c). Removing an absent
// key is a no-op and reports false.
func (r *Registry[H]) Unregister(owner OwnerID, c Category) bool {
	k := registryKey{owner, c}
	r.mu.Lock()
	h, ok := r.entries[k]
	if ok {
		delete(r.entries, k)
	}
	r.mu.Unlock()

	if ok {
		drop(h)
	}
	return ok
}

// UnregisterOwner removes every handler of owner and returns how many were
// removed.
func (r *Registry[H]) UnregisterOwner(owner OwnerID) int {
	var removed []H
	r.mu.Lock()
	for k, h := range r.entries {
		if k.owner == owner {
			removed = append(removed, h)
			delete(r.entries, k)
		}
	}
	r.mu.Unlock()

	for _, h := range removed {
		drop(h)
	}
	return len(removed)
}

// Len returns the number of registered handlers.
func (r *Registry[H]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// sameHandler compares by identity where the dynamic values allow it.
// Func-backed handlers are never equal.
func sameHandler[H any](a, b H) bool {
	va, vb := reflect.ValueOf(any(a)), reflect.ValueOf(any(b))
	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return any(a) == any(b)
}

func drop[H any](h H) {
	if d, ok := any(h).(Dropper); ok && d != nil {
		d.Drop()
	}
}
