//go:build !ios && !android && (amd64 || arm64)

package bridgetest

import (
	"time"

	"github.com/obinnaokechukwu/sckit/bridge"
)

// PickerConfigurationCreate implements bridge.Runtime.
func (r *Runtime) PickerConfigurationCreate(modes []bridge.PickerMode) bridge.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocLocked(&object{kind: bridge.KindPickerConfiguration})
}

// PickerShow implements bridge.Runtime. The ctx is recorded for
// DeliverPicker; with AutoPick set the outcome is delivered automatically.
func (r *Runtime) PickerShow(config bridge.Handle, ctx uintptr) {
	r.mu.Lock()
	r.useLocked(config, bridge.KindPickerConfiguration, "picker_show")
	r.pickers = append(r.pickers, ctx)
	script := r.AutoPick
	r.mu.Unlock()

	if script == nil {
		return
	}
	r.async("picker_show", func() {
		if script.Delay > 0 {
			t := time.NewTimer(script.Delay)
			select {
			case <-t.C:
			case <-r.quit:
				t.Stop()
				return
			}
		}
		r.mu.Lock()
		withdrawn := r.withdrawn[ctx]
		r.mu.Unlock()
		if withdrawn {
			return
		}
		r.DeliverPicker(ctx, script.Code, "")
		if script.Twice {
			r.DeliverPicker(ctx, bridge.PickerCodeCancelled, "")
		}
	})
}

// PickerWithdraw implements bridge.Runtime.
func (r *Runtime) PickerWithdraw(ctx uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.withdrawn[ctx] = true
}

// PickerContexts returns the ctx of every PickerShow call, oldest first.
func (r *Runtime) PickerContexts() []uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uintptr(nil), r.pickers...)
}

// Withdrawn reports whether PickerWithdraw was called for ctx.
func (r *Runtime) Withdrawn(ctx uintptr) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.withdrawn[ctx]
}

// DeliverPicker invokes the picker callback for ctx on the calling
// goroutine, as a delivery already in flight. A picked outcome carries a new
// picker result for the first display.
func (r *Runtime) DeliverPicker(ctx uintptr, code int32, msg string) {
	var result bridge.Handle
	if code == bridge.PickerCodePicked {
		r.mu.Lock()
		res := &object{kind: bridge.KindPickerResult}
		if len(r.Displays) > 0 {
			d := r.Displays[0]
			res.display = &d
			res.geometry = bridge.PickerGeometry{
				Rect:        d.Frame,
				Scale:       2,
				PixelWidth:  uint32(d.Width) * 2,
				PixelHeight: uint32(d.Height) * 2,
			}
		}
		result = r.allocLocked(res)
		r.mu.Unlock()
	}
	r.callbacks().PickerOutcome(ctx, code, result, msg)
}

// PickerResultFilter implements bridge.Runtime.
func (r *Runtime) PickerResultFilter(result bridge.Handle) bridge.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.useLocked(result, bridge.KindPickerResult, "picker_result_filter")
	if o == nil {
		return 0
	}
	return r.allocLocked(&object{kind: bridge.KindContentFilter, display: o.display})
}

// PickerResultGeometry implements bridge.Runtime.
func (r *Runtime) PickerResultGeometry(result bridge.Handle) bridge.PickerGeometry {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.useLocked(result, bridge.KindPickerResult, "picker_result_geometry")
	if o == nil {
		return bridge.PickerGeometry{}
	}
	return o.geometry
}

var _ bridge.Runtime = (*Runtime)(nil)
