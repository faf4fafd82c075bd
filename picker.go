//go:build !ios && !android && (amd64 || arm64)

package sckit

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/obinnaokechukwu/sckit/bridge"
)

// PickerMode selects what the system content picker offers.
type PickerMode = bridge.PickerMode

// Picker modes.
const (
	PickerSingleWindow         = bridge.PickerSingleWindow
	PickerMultipleWindows      = bridge.PickerMultipleWindows
	PickerSingleDisplay        = bridge.PickerSingleDisplay
	PickerSingleApplication    = bridge.PickerSingleApplication
	PickerMultipleApplications = bridge.PickerMultipleApplications
)

// PickerGeometry describes the picked content.
type PickerGeometry = bridge.PickerGeometry

// Picker presents the system content picker. At most one request is active
// at a time; showing the picker again replaces the active request.
type Picker struct {
	s    *Session
	slot bridge.ObserverSlot[*bridge.Ref]

	mu     sync.Mutex
	active *PickerRequest
}

// Picker returns the session picker.
func (s *Session) Picker() *Picker {
	s.pickerOnce.Do(func() { s.picker = &Picker{s: s} })
	return s.picker
}

// Show presents the picker with modes, or the configured modes if none are
// given. A request still active is replaced: native delivery to it is
// withdrawn, but an outcome already in flight still reaches it and never the
// new request. A replaced request stays registered until its Cancel is called;
// callers that do not wait on it should cancel it once Stale reports true.
func (p *Picker) Show(modes ...PickerMode) (*PickerRequest, error) {
	s := p.s
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if len(modes) == 0 {
		var err error
		if modes, err = ParsePickerModes(s.cfg.Picker.Modes); err != nil {
			return nil, err
		}
	}
	config, err := bridge.Adopt(s.rt, bridge.KindPickerConfiguration, s.rt.PickerConfigurationCreate(modes))
	if err != nil {
		return nil, bridge.NewError(bridge.PickerError, "show picker", "native picker configuration failed")
	}
	defer config.Release()
	ch, _ := config.Handle()

	o := bridge.NewObserver[*bridge.Ref]()
	req := &PickerRequest{p: p, o: o, ctx: s.d.RegisterObserver(o)}

	p.mu.Lock()
	prev := p.active
	p.active = req
	p.slot.Install(o)
	p.mu.Unlock()

	if prev != nil {
		s.rt.PickerWithdraw(prev.ctx)
		s.log.Debug("picker request replaced", zap.Uintptr("previous", prev.ctx), zap.Uintptr("ctx", req.ctx))
	}
	s.rt.PickerShow(ch, req.ctx)
	return req, nil
}

// Active returns the active request, or nil.
func (p *Picker) Active() *PickerRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// PickerRequest is one presentation of the picker.
type PickerRequest struct {
	p   *Picker
	o   *bridge.Observer[*bridge.Ref]
	ctx uintptr

	cancelOnce sync.Once
}

// Stale reports whether a later Show replaced r.
func (r *PickerRequest) Stale() bool {
	return r.o.Stale()
}

// Done is closed once r has an outcome or is cancelled.
func (r *PickerRequest) Done() <-chan struct{} {
	return r.o.Done()
}

// Wait blocks until the user decides or ctx ends. A cancelled picker returns
// ErrPickerCancelled. Only the first Wait receives the result. A stale request
// may never get an outcome, so wait on it with a deadline or Cancel it.
func (r *PickerRequest) Wait(ctx context.Context) (*PickerResult, error) {
	out, err := r.o.Wait(ctx)
	if err != nil {
		return nil, err
	}
	switch out.Kind {
	case bridge.OutcomePicked:
		if out.Value == nil {
			return nil, bridge.NewError(bridge.PickerError, "picker", "result already taken")
		}
		return newPickerResult(r.p.s, out.Value), nil
	case bridge.OutcomeFailed:
		return nil, out.Err
	default:
		return nil, ErrPickerCancelled
	}
}

// Cancel withdraws the request. A result that arrived but was never taken
// is released. Calls after the first are no-ops.
func (r *PickerRequest) Cancel() {
	r.cancelOnce.Do(func() {
		s := r.p.s
		s.rt.PickerWithdraw(r.ctx)
		s.d.ForgetObserver(r.ctx)

		r.p.mu.Lock()
		if r.p.active == r {
			r.p.active = nil
		}
		r.p.slot.Clear(r.o)
		r.p.mu.Unlock()

		r.o.Close()
	})
}

// PickerResult is the content the user picked.
type PickerResult struct {
	s        *Session
	ref      *bridge.Ref
	Geometry PickerGeometry
}

func newPickerResult(s *Session, ref *bridge.Ref) *PickerResult {
	h, _ := ref.Handle()
	return &PickerResult{s: s, ref: ref, Geometry: s.rt.PickerResultGeometry(h)}
}

// Filter returns a new content filter for the picked content.
func (r *PickerResult) Filter() (*ContentFilter, error) {
	h, err := r.ref.Handle()
	if err != nil {
		return nil, err
	}
	return r.s.adoptFilter(r.s.rt.PickerResultFilter(h), "picked content")
}

// Release gives the result back. Filters obtained from it stay valid.
func (r *PickerResult) Release() {
	if r == nil {
		return
	}
	r.ref.Release()
}
