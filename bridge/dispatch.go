//go:build !ios && !android && (amd64 || arm64)

package bridge

import (
	"go.uber.org/zap"

	"github.com/obinnaokechukwu/sckit/internal/handles"
)

// FrameHandler receives frames for one (owner, output type). It owns each
// frame it is given.
type FrameHandler interface {
	HandleFrame(f *Frame)
}

// FrameHandlerFunc adapts a function to FrameHandler.
type FrameHandlerFunc func(f *Frame)

// HandleFrame calls fn(f).
func (fn FrameHandlerFunc) HandleFrame(f *Frame) { fn(f) }

// StreamDelegate receives stream lifecycle notifications.
type StreamDelegate interface {
	StreamStopped(err error)
}

// RecordingDelegate receives recording output notifications. err is set only
// for RecordingFailed.
type RecordingDelegate interface {
	RecordingEvent(ev RecordingEvent, err error)
}

type completion struct {
	op    string
	unit  func(ok bool, msg string)
	value func(h Handle, msg string)
}

// Dispatcher implements Callbacks. It owns the completion context table, the
// owner arena, the handler registries and the picker observer table, and is
// bound to exactly one Runtime.
type Dispatcher struct {
	rt    Runtime
	log   *zap.Logger
	hooks Hooks

	completions *handles.Table[*completion]
	observers   *handles.Table[*Observer[*Ref]]

	Arena      *Arena
	Outputs    *Registry[FrameHandler]
	Streams    *Registry[StreamDelegate]
	Recordings *Registry[RecordingDelegate]
}

// NewDispatcher creates a dispatcher and binds it to rt. A nil log or hooks
// selects a no-op implementation.
func NewDispatcher(rt Runtime, log *zap.Logger, hooks Hooks) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if hooks == nil {
		hooks = NopHooks{}
	}
	d := &Dispatcher{
		rt:          rt,
		log:         log,
		hooks:       hooks,
		completions: handles.New[*completion](),
		observers:   handles.New[*Observer[*Ref]](),
		Arena:       NewArena(),
		Outputs:     NewRegistry[FrameHandler](),
		Streams:     NewRegistry[StreamDelegate](),
		Recordings:  NewRegistry[RecordingDelegate](),
	}
	rt.Bind(d)
	return d
}

// Runtime returns the bound runtime.
func (d *Dispatcher) Runtime() Runtime {
	return d.rt
}

// PendingCompletions returns the number of operations still waiting for a
// native completion, including ones whose waiter timed out.
func (d *Dispatcher) PendingCompletions() int {
	return d.completions.Len()
}

// BeginUnit registers an operation without a result value and returns the
// Pending and the ctx to pass to the native call. Native failures are
// classified with kind unless their code says otherwise.
func BeginUnit(d *Dispatcher, op string, kind ErrorKind) (*Pending[struct{}], uintptr) {
	p := NewPending[struct{}](op)
	p.hooks = d.hooks
	ctx := d.completions.Register(&completion{
		op: op,
		unit: func(ok bool, msg string) {
			if ok {
				p.Resolve(struct{}{}, nil)
				return
			}
			p.Resolve(struct{}{}, FromNative(op, kind, msg))
		},
		value: func(h Handle, msg string) {
			if !h.IsNull() {
				d.rt.Release(KindObject, h)
			}
			p.Resolve(struct{}{}, NewError(Unknown, op, "value completion for unit operation"))
		},
	})
	return p, ctx
}

// BeginValue registers an operation producing an owned handle of kind k.
// wrap converts the adopted Ref into the caller-facing value; if it fails it
// must release the Ref.
func BeginValue[T any](d *Dispatcher, op string, kind ErrorKind, k Kind, wrap func(*Ref) (T, error)) (*Pending[T], uintptr) {
	p := NewPending[T](op)
	p.hooks = d.hooks
	ctx := d.completions.Register(&completion{
		op: op,
		unit: func(ok bool, msg string) {
			var zero T
			if ok {
				p.Resolve(zero, NewError(Unknown, op, "completed without a value"))
				return
			}
			p.Resolve(zero, FromNative(op, kind, msg))
		},
		value: func(h Handle, msg string) {
			var zero T
			if h.IsNull() {
				p.Resolve(zero, FromNative(op, kind, msg))
				return
			}
			ref, err := Adopt(d.rt, k, h)
			if err != nil {
				p.Resolve(zero, err)
				return
			}
			v, err := wrap(ref)
			p.Resolve(v, err)
		},
	})
	return p, ctx
}

// Abandon drops the completion registered under ctx when the native call it
// was meant for could not be issued.
func (d *Dispatcher) Abandon(ctx uintptr) {
	d.completions.Unregister(ctx)
}

// CompleteUnit implements Callbacks.
func (d *Dispatcher) CompleteUnit(ctx uintptr, ok bool, msg string) {
	c, found := d.completions.Take(ctx)
	if !found {
		d.hooks.CompletionDropped("unknown")
		d.log.Debug("completion for unknown context", zap.Uintptr("ctx", ctx), zap.Bool("ok", ok))
		return
	}
	c.unit(ok, msg)
}

// CompleteValue implements Callbacks.
func (d *Dispatcher) CompleteValue(ctx uintptr, h Handle, msg string) {
	c, found := d.completions.Take(ctx)
	if !found {
		if !h.IsNull() {
			d.rt.Release(KindObject, h)
		}
		d.hooks.CompletionDropped("unknown")
		d.log.Debug("completion for unknown context", zap.Uintptr("ctx", ctx), zap.Stringer("handle", h))
		return
	}
	c.value(h, msg)
}

// OutputSample implements Callbacks. A sample nobody is registered for is
// released here.
func (d *Dispatcher) OutputSample(owner uintptr, t OutputType, buf Handle) {
	if buf.IsNull() {
		return
	}
	h, ok := d.Outputs.Lookup(OwnerID(owner), t.Category())
	if !ok || !t.Valid() {
		d.rt.Release(KindSampleBuffer, buf)
		d.hooks.FrameUnhandled(t)
		return
	}
	f, err := NewFrame(d.rt, t, buf)
	if err != nil {
		d.log.Warn("dropping sample", zap.Error(err))
		return
	}
	d.hooks.FrameDelivered(t)
	d.guard(t.Category(), owner, func() { h.HandleFrame(f) })
}

// StreamError implements Callbacks.
func (d *Dispatcher) StreamError(owner uintptr, msg string) {
	err := FromNative("stream", StreamError, msg)
	h, ok := d.Streams.Lookup(OwnerID(owner), CategoryStreamDelegate)
	if !ok {
		d.log.Warn("stream stopped with no delegate", zap.Uintptr("owner", owner), zap.Error(err))
		return
	}
	d.guard(CategoryStreamDelegate, owner, func() { h.StreamStopped(err) })
}

// RecordingEvent implements Callbacks.
func (d *Dispatcher) RecordingEvent(owner uintptr, ev RecordingEvent, msg string) {
	var err error
	if ev == RecordingFailed {
		err = FromNative("recording", RecordingError, msg)
	}
	h, ok := d.Recordings.Lookup(OwnerID(owner), CategoryRecordingDelegate)
	if !ok {
		d.log.Debug("recording event with no delegate", zap.Uintptr("owner", owner), zap.Stringer("event", ev))
		return
	}
	d.guard(CategoryRecordingDelegate, owner, func() { h.RecordingEvent(ev, err) })
}

// RegisterObserver makes o reachable from native picker callbacks and
// returns its ctx.
func (d *Dispatcher) RegisterObserver(o *Observer[*Ref]) uintptr {
	return d.observers.Register(o)
}

// PendingObservers returns the number of picker contexts still registered.
func (d *Dispatcher) PendingObservers() int {
	return d.observers.Len()
}

// ForgetObserver drops ctx. Later native deliveries for it are discarded.
func (d *Dispatcher) ForgetObserver(ctx uintptr) {
	d.observers.Unregister(ctx)
}

// PickerOutcome implements Callbacks. Delivery is routed by ctx, not by the
// slot, so an observer that was replaced still receives its own outcome.
func (d *Dispatcher) PickerOutcome(ctx uintptr, code int32, result Handle, msg string) {
	o, ok := d.observers.Take(ctx)
	if !ok {
		if !result.IsNull() {
			d.rt.Release(KindPickerResult, result)
		}
		d.hooks.CompletionDropped("picker")
		return
	}

	var out Outcome[*Ref]
	switch {
	case code == PickerCodePicked && !result.IsNull():
		ref, err := Adopt(d.rt, KindPickerResult, result)
		if err != nil {
			out = Outcome[*Ref]{Kind: OutcomeFailed, Err: err}
			break
		}
		out = Outcome[*Ref]{Kind: OutcomePicked, Value: ref}
	case code == PickerCodeCancelled:
		if !result.IsNull() {
			d.rt.Release(KindPickerResult, result)
		}
		out = Outcome[*Ref]{Kind: OutcomeCancelled}
	default:
		if !result.IsNull() {
			d.rt.Release(KindPickerResult, result)
		}
		out = Outcome[*Ref]{Kind: OutcomeFailed, Err: FromNative("picker", PickerError, msg)}
	}

	accepted, stale := o.Deliver(out)
	if stale {
		d.hooks.ObserverStale()
		d.log.Debug("picker outcome for replaced observer",
			zap.Uintptr("ctx", ctx), zap.Stringer("outcome", out.Kind), zap.Bool("accepted", accepted))
	}
	if !accepted {
		d.hooks.CompletionDropped("picker")
	}
}

func (d *Dispatcher) guard(c Category, owner uintptr, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.hooks.HandlerPanicked(c)
			d.log.Error("handler panicked",
				zap.Stringer("category", c), zap.Uintptr("owner", owner), zap.Any("panic", r))
		}
	}()
	fn()
}
