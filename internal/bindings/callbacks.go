//go:build !ios && !android && (amd64 || arm64)

package bindings

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/obinnaokechukwu/sckit/bridge"
)

// maxCString bounds how far a native message is scanned for its terminator.
const maxCString = 4096

type boundCallbacks struct {
	cb bridge.Callbacks
}

var (
	// bound is read on native callback threads.
	bound atomic.Pointer[boundCallbacks]

	callbacksOnce sync.Once

	unitCallbackPtr        uintptr
	valueCallbackPtr       uintptr
	sampleCallbackPtr      uintptr
	streamErrorCallbackPtr uintptr
	pickerCallbackPtr      uintptr
	recordingCallbackPtr   uintptr
)

// installCallbacks creates the trampolines once per process and hands them to
// the library. purego callbacks are never freed, so they must not be created
// per call.
func installCallbacks() {
	callbacksOnce.Do(func() {
		unitCallbackPtr = purego.NewCallback(func(_ purego.CDecl, ctx uintptr, ok int32, msg *byte) {
			if cb := current(); cb != nil {
				cb.CompleteUnit(ctx, ok != 0, goString(msg))
			}
		})
		valueCallbackPtr = purego.NewCallback(func(_ purego.CDecl, ctx, h uintptr, msg *byte) {
			cb := current()
			if cb == nil {
				if h != 0 {
					releaseFns[bridge.KindObject](h)
				}
				return
			}
			cb.CompleteValue(ctx, bridge.Handle(h), goString(msg))
		})
		sampleCallbackPtr = purego.NewCallback(func(_ purego.CDecl, owner uintptr, t int32, buf uintptr) {
			cb := current()
			if cb == nil {
				if buf != 0 {
					releaseFns[bridge.KindSampleBuffer](buf)
				}
				return
			}
			cb.OutputSample(owner, bridge.OutputType(t), bridge.Handle(buf))
		})
		streamErrorCallbackPtr = purego.NewCallback(func(_ purego.CDecl, owner uintptr, msg *byte) {
			if cb := current(); cb != nil {
				cb.StreamError(owner, goString(msg))
			}
		})
		pickerCallbackPtr = purego.NewCallback(func(_ purego.CDecl, ctx uintptr, code int32, result uintptr, msg *byte) {
			cb := current()
			if cb == nil {
				if result != 0 {
					releaseFns[bridge.KindPickerResult](result)
				}
				return
			}
			cb.PickerOutcome(ctx, code, bridge.Handle(result), goString(msg))
		})
		recordingCallbackPtr = purego.NewCallback(func(_ purego.CDecl, owner uintptr, ev int32, msg *byte) {
			if cb := current(); cb != nil {
				cb.RecordingEvent(owner, bridge.RecordingEvent(ev), goString(msg))
			}
		})
	})
	scSetCallbacks(unitCallbackPtr, valueCallbackPtr, sampleCallbackPtr,
		streamErrorCallbackPtr, pickerCallbackPtr, recordingCallbackPtr)
}

func current() bridge.Callbacks {
	if b := bound.Load(); b != nil {
		return b.cb
	}
	return nil
}

// goString copies a NUL-terminated C string. The native side frees its
// buffer after the callback returns.
func goString(p *byte) string {
	if p == nil {
		return ""
	}
	base := unsafe.Pointer(p)
	n := 0
	for n < maxCString && *(*byte)(unsafe.Add(base, n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

// cBufferString returns the NUL-terminated prefix of buf.
func cBufferString(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}
