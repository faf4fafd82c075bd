//go:build !ios && !android && (amd64 || arm64)

// Package bridgetest provides an in-memory bridge.Runtime for tests.
//
// The simulated runtime keeps a reference-counted object heap. Released
// objects are kept as tombstones and their payload is overwritten with
// Poison, so any later use is recorded as a violation instead of touching
// freed memory. Completions run on background goroutines and can be delayed,
// held, failed or fired twice; a synthetic producer delivers tagged frames
// for started streams.
package bridgetest

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/obinnaokechukwu/sckit/bridge"
	"github.com/obinnaokechukwu/sckit/cm"
)

// Poison is the byte written over the payload of released objects.
const Poison byte = 0xDE

// Display describes a simulated display.
type Display struct {
	ID     uint32
	Width  int32
	Height int32
	Frame  bridge.Rect
}

// Window describes a simulated window. App indexes Runtime.Apps, -1 for none.
type Window struct {
	ID       uint32
	Title    string
	App      int
	Frame    bridge.Rect
	Layer    int32
	OnScreen bool
	Active   bool
	Desktop  bool
}

// App describes a simulated running application.
type App struct {
	PID      int32
	BundleID string
	Name     string
}

// PickScript makes PickerShow answer on its own after Delay.
type PickScript struct {
	Code  int32
	Delay time.Duration
	// Twice fires the outcome a second time, as a cancel after the pick.
	Twice bool
}

type object struct {
	kind     bridge.Kind
	refs     int
	dead     bool
	children []bridge.Handle

	data   []byte
	width  int
	height int
	stride int
	format uint32
	locked int

	timing      cm.SampleTiming
	status      int32
	hasStatus   bool
	imageBuffer bridge.Handle
	numSamples  int

	settings bridge.StreamSettings
	display  *Display
	window   *Window
	app      *App
	appIndex []int

	stream *streamState

	geometry bridge.PickerGeometry
	owner    uintptr
	path     string
}

// Runtime is a simulated native bridge. The exported fields configure it and
// must be set before the runtime is bound.
type Runtime struct {
	Displays []Display
	Windows  []Window
	Apps     []App

	// FrameInterval is the synthetic producer period. Default 33ms.
	FrameInterval time.Duration
	// FrameLimit stops the producer after this many frames per output.
	// Zero means no limit.
	FrameLimit int
	// CompletionDelay postpones every asynchronous completion.
	CompletionDelay time.Duration
	// FireTwice delivers every completion twice.
	FireTwice bool
	// AutoPick answers PickerShow without a DeliverPicker call.
	AutoPick *PickScript

	mu         sync.Mutex
	cb         bridge.Callbacks
	objects    map[bridge.Handle]*object
	next       bridge.Handle
	violations []string
	failures   map[string]string
	held       map[string]bool
	heldFns    []func()
	pickers    []uintptr
	withdrawn  map[uintptr]bool
	closed     bool
	quit       chan struct{}
	wg         sync.WaitGroup
}

// New returns a runtime with one display, two windows and one application.
func New() *Runtime {
	return &Runtime{
		Displays: []Display{
			{ID: 1, Width: 1920, Height: 1080, Frame: bridge.Rect{Width: 1920, Height: 1080}},
		},
		Windows: []Window{
			{ID: 101, Title: "Terminal", App: 0, Frame: bridge.Rect{X: 10, Y: 10, Width: 800, Height: 600}, OnScreen: true, Active: true},
			{ID: 102, Title: "Desktop", App: -1, Frame: bridge.Rect{Width: 1920, Height: 1080}, Layer: -2147483624, Desktop: true},
		},
		Apps: []App{
			{PID: 4242, BundleID: "com.example.terminal", Name: "Terminal"},
		},
		FrameInterval: 33 * time.Millisecond,
		objects:       make(map[bridge.Handle]*object),
		next:          0x1000,
		failures:      make(map[string]string),
		held:          make(map[string]bool),
		withdrawn:     make(map[uintptr]bool),
		quit:          make(chan struct{}),
	}
}

// Bind implements bridge.Runtime.
func (r *Runtime) Bind(cb bridge.Callbacks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cb = cb
}

// FailNext makes the next call of op fail with a "<code>:<msg>" message.
// op is the native function name without the "sc_" prefix, for example
// "stream_start_capture".
func (r *Runtime) FailNext(op string, code bridge.StreamErrorCode, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[op] = bridge.FormatNative(code, msg)
}

// Hold queues completions of op instead of delivering them. Flush delivers
// them.
func (r *Runtime) Hold(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.held[op] = true
}

// Flush stops holding all ops and delivers the queued completions on the
// calling goroutine.
func (r *Runtime) Flush() {
	r.mu.Lock()
	fns := r.heldFns
	r.heldFns = nil
	r.held = make(map[string]bool)
	r.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Violations returns every protocol violation recorded so far: use after
// release, double release, kind mismatches and unlocked pixel reads.
func (r *Runtime) Violations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.violations...)
}

// Live returns the number of objects with a positive refcount.
func (r *Runtime) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.objects {
		if !o.dead {
			n++
		}
	}
	return n
}

// LiveKind returns the number of live objects of kind k.
func (r *Runtime) LiveKind(k bridge.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.objects {
		if !o.dead && o.kind == k {
			n++
		}
	}
	return n
}

// Handles returns the live handles of kind k in allocation order.
func (r *Runtime) Handles(k bridge.Kind) []bridge.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []bridge.Handle
	for h, o := range r.objects {
		if !o.dead && o.kind == k {
			out = append(out, h)
		}
	}
	slices.Sort(out)
	return out
}

// RefCount returns the refcount of h, or -1 if h was never allocated.
func (r *Runtime) RefCount(h bridge.Handle) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.objects[h]
	if !ok {
		return -1
	}
	return o.refs
}

// Close stops every producer and waits for all background goroutines.
func (r *Runtime) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.quit)
		for _, o := range r.objects {
			if o.stream != nil {
				o.stream.stop()
			}
		}
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// Retain implements bridge.Retainer.
func (r *Runtime) Retain(k bridge.Kind, h bridge.Handle) bridge.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.useLocked(h, k, "retain")
	if o == nil {
		return h
	}
	o.refs++
	return h
}

// Release implements bridge.Retainer.
func (r *Runtime) Release(k bridge.Kind, h bridge.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseLocked(k, h)
}

func (r *Runtime) releaseLocked(k bridge.Kind, h bridge.Handle) {
	o, ok := r.objects[h]
	switch {
	case !ok:
		r.violate("release of unknown handle %s", h)
		return
	case o.dead:
		r.violate("double release of %s %s", o.kind, h)
		return
	case k != bridge.KindObject && k != o.kind:
		r.violate("release of %s %s as %s", o.kind, h, k)
		return
	}
	o.refs--
	if o.refs > 0 {
		return
	}
	o.dead = true
	for i := range o.data {
		o.data[i] = Poison
	}
	if o.stream != nil {
		o.stream.stop()
	}
	children := o.children
	o.children = nil
	for _, c := range children {
		r.releaseLocked(bridge.KindObject, c)
	}
}

func (r *Runtime) allocLocked(o *object) bridge.Handle {
	h := r.next
	r.next += 0x10
	o.refs = 1
	r.objects[h] = o
	return h
}

// useLocked returns the live object h of kind k, recording a violation and
// returning nil otherwise.
func (r *Runtime) useLocked(h bridge.Handle, k bridge.Kind, op string) *object {
	o, ok := r.objects[h]
	switch {
	case !ok:
		r.violate("%s: unknown handle %s", op, h)
		return nil
	case o.dead:
		r.violate("%s: use after release of %s %s", op, o.kind, h)
		return nil
	case k != bridge.KindObject && o.kind != k:
		r.violate("%s: %s %s used as %s", op, o.kind, h, k)
		return nil
	}
	return o
}

func (r *Runtime) violate(format string, args ...any) {
	r.violations = append(r.violations, fmt.Sprintf(format, args...))
}

func (r *Runtime) failureLocked(op string) (string, bool) {
	msg, ok := r.failures[op]
	if ok {
		delete(r.failures, op)
	}
	return msg, ok
}

// async runs fn on a background goroutine after CompletionDelay, twice when
// FireTwice is set, or queues it when op is held.
func (r *Runtime) async(op string, fn func()) {
	r.mu.Lock()
	if r.held[op] {
		r.heldFns = append(r.heldFns, fn)
		if r.FireTwice {
			r.heldFns = append(r.heldFns, fn)
		}
		r.mu.Unlock()
		return
	}
	twice := r.FireTwice
	delay := r.CompletionDelay
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-t.C:
			case <-r.quit:
				t.Stop()
			}
		}
		fn()
		if twice {
			fn()
		}
	}()
}

func (r *Runtime) callbacks() bridge.Callbacks {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cb
}

// completeUnit fails with an injected failure for op or calls ok.
func (r *Runtime) completeUnit(op string, ctx uintptr, run func() (bool, string)) {
	r.async(op, func() {
		r.mu.Lock()
		msg, failed := r.failureLocked(op)
		r.mu.Unlock()
		cb := r.callbacks()
		if failed {
			cb.CompleteUnit(ctx, false, msg)
			return
		}
		ok, msg := run()
		cb.CompleteUnit(ctx, ok, msg)
	})
}

func (r *Runtime) completeValue(op string, ctx uintptr, run func() (bridge.Handle, string)) {
	r.async(op, func() {
		r.mu.Lock()
		msg, failed := r.failureLocked(op)
		r.mu.Unlock()
		cb := r.callbacks()
		if failed {
			cb.CompleteValue(ctx, 0, msg)
			return
		}
		h, msg := run()
		cb.CompleteValue(ctx, h, msg)
	})
}
