//go:build !ios && !android && (amd64 || arm64)

package bridge

import (
	"fmt"
	"sync/atomic"
)

// Retainer is the reference-counting part of the native surface
// (sc_<kind>_retain / sc_<kind>_release).
type Retainer interface {
	// Retain increments the native refcount and returns an equally valid
	// handle, possibly bit-identical to h.
	Retain(k Kind, h Handle) Handle

	// Release decrements the native refcount, destroying the object at zero.
	Release(k Kind, h Handle)
}

// Releaser is implemented by values that own native references.
type Releaser interface {
	Release()
}

// Ref owns exactly one native reference.
//
// Release is idempotent: the native release is issued once no matter how many
// times Release is called. A Ref must not be used concurrently with its own
// Release.
type Ref struct {
	rt       Retainer
	kind     Kind
	h        Handle
	released atomic.Bool
}

// Adopt takes ownership of h, which the caller already owns (create/copy
// rule). The returned Ref issues the matching release.
func Adopt(rt Retainer, k Kind, h Handle) (*Ref, error) {
	if h.IsNull() {
		return nil, ErrNullHandle
	}
	if !k.Valid() {
		return nil, fmt.Errorf("%w: adopt %s", ErrInvalidKind, k)
	}
	live[k].Add(1)
	return &Ref{rt: rt, kind: k, h: h}, nil
}

// RetainRef retains h now and owns the new reference (get rule).
func RetainRef(rt Retainer, k Kind, h Handle) (*Ref, error) {
	if h.IsNull() {
		return nil, ErrNullHandle
	}
	return Adopt(rt, k, rt.Retain(k, h))
}

// Handle returns the native handle, or ErrReleased after Release.
func (r *Ref) Handle() (Handle, error) {
	if r == nil {
		return 0, ErrNullHandle
	}
	if r.released.Load() {
		return 0, ErrReleased
	}
	return r.h, nil
}

// Kind returns the handle's type tag.
func (r *Ref) Kind() Kind {
	if r == nil {
		return KindObject
	}
	return r.kind
}

// Released reports whether Release has been called.
func (r *Ref) Released() bool {
	return r == nil || r.released.Load()
}

// Release gives up the owned reference. Calls after the first are no-ops.
func (r *Ref) Release() {
	if r == nil || !r.released.CompareAndSwap(false, true) {
		return
	}
	live[r.kind].Add(-1)
	r.rt.Release(r.kind, r.h)
}

// Clone retains the object again and returns an independent owner that needs
// its own Release.
func (r *Ref) Clone() (*Ref, error) {
	h, err := r.Handle()
	if err != nil {
		return nil, err
	}
	return RetainRef(r.rt, r.kind, h)
}

// Borrow returns a non-owning view of r itself.
func (r *Ref) Borrow() Borrowed {
	if r == nil {
		return Borrowed{}
	}
	return Borrowed{rt: r.rt, parent: r, kind: r.kind, h: r.h}
}

// Derive returns a borrowed view of a sub-object h of kind k that the native
// side handed out without a retain. The view is valid while r is.
func (r *Ref) Derive(k Kind, h Handle) Borrowed {
	if r == nil {
		return Borrowed{}
	}
	return Borrowed{rt: r.rt, parent: r, kind: k, h: h}
}

func (r *Ref) String() string {
	if r == nil {
		return "<nil ref>"
	}
	state := "live"
	if r.released.Load() {
		state = "released"
	}
	return fmt.Sprintf("%s(%s, %s)", r.kind, r.h, state)
}

// Borrowed is a non-owning view of a native object. It cannot be released;
// use Retain to obtain an owned Ref that outlives the view.
type Borrowed struct {
	rt     Retainer
	parent *Ref
	kind   Kind
	h      Handle
}

// Borrow returns a view of h that is valid only for the current call, as for
// handles passed into callbacks. No parent tracks its lifetime.
func Borrow(rt Retainer, k Kind, h Handle) Borrowed {
	return Borrowed{rt: rt, kind: k, h: h}
}

// Handle returns the aliased handle. It fails with ErrReleased once the
// parent Ref has been released, and with ErrNullHandle for an empty view.
func (b Borrowed) Handle() (Handle, error) {
	if b.parent != nil && b.parent.Released() {
		return 0, ErrReleased
	}
	if b.h.IsNull() {
		return 0, ErrNullHandle
	}
	return b.h, nil
}

// Kind returns the view's type tag.
func (b Borrowed) Kind() Kind {
	return b.kind
}

// Valid reports whether Handle would succeed.
func (b Borrowed) Valid() bool {
	_, err := b.Handle()
	return err == nil
}

// Retain upgrades the view to an owned Ref.
func (b Borrowed) Retain() (*Ref, error) {
	h, err := b.Handle()
	if err != nil {
		return nil, err
	}
	return RetainRef(b.rt, b.kind, h)
}
