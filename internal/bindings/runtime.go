//go:build !ios && !android && (amd64 || arm64)

package bindings

import (
	"fmt"
	"unsafe"

	"github.com/obinnaokechukwu/sckit/bridge"
	"github.com/obinnaokechukwu/sckit/cm"
)

// errBufSize is the size of the message buffer for synchronous calls.
const errBufSize = 256

// streamSettings matches sc_stream_settings_t.
type streamSettings struct {
	Width, Height, FrameRate, QueueDepth int32
	PixelFormat                          uint32
	ShowsCursor                          uint8
	CapturesAudio                        uint8
	CapturesMicrophone                   uint8
	ExcludesCurrentProcessAudio          uint8
	SampleRate, ChannelCount             int32
	Scale                                float64
}

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func toNativeSettings(s bridge.StreamSettings) streamSettings {
	return streamSettings{
		Width:                       s.Width,
		Height:                      s.Height,
		FrameRate:                   s.FrameRate,
		QueueDepth:                  s.QueueDepth,
		PixelFormat:                 s.PixelFormat,
		ShowsCursor:                 flag(s.ShowsCursor),
		CapturesAudio:               flag(s.CapturesAudio),
		CapturesMicrophone:          flag(s.CapturesMicrophone),
		ExcludesCurrentProcessAudio: flag(s.ExcludesCurrentProcessAudio),
		SampleRate:                  s.SampleRate,
		ChannelCount:                s.ChannelCount,
		Scale:                       s.Scale,
	}
}

// Runtime is the bridge.Runtime backed by the loaded library. The native
// callbacks are process-wide, so the most recent Bind wins.
type Runtime struct{}

var _ bridge.Runtime = (*Runtime)(nil)

// New loads the library if needed and returns the runtime.
func New(dirs ...string) (*Runtime, error) {
	if err := Load(dirs...); err != nil {
		return nil, fmt.Errorf("%w: %w", bridge.ErrNotLoaded, err)
	}
	return &Runtime{}, nil
}

// Bind implements bridge.Runtime.
func (*Runtime) Bind(cb bridge.Callbacks) {
	bound.Store(&boundCallbacks{cb: cb})
}

// Retain implements bridge.Retainer.
func (*Runtime) Retain(k bridge.Kind, h bridge.Handle) bridge.Handle {
	fn := retainFns[k]
	if fn == nil || h.IsNull() {
		return 0
	}
	return bridge.Handle(fn(uintptr(h)))
}

// Release implements bridge.Retainer.
func (*Runtime) Release(k bridge.Kind, h bridge.Handle) {
	if h.IsNull() {
		return
	}
	fn := releaseFns[k]
	if fn == nil {
		fn = releaseFns[bridge.KindObject]
	}
	fn(uintptr(h))
}

// ShareableContentGet implements bridge.Runtime.
func (*Runtime) ShareableContentGet(opts bridge.ContentOptions, ctx uintptr) {
	scShareableContentGet(opts.ExcludeDesktopWindows, opts.OnScreenWindowsOnly, ctx)
}

// ShareableContentCount implements bridge.Runtime.
func (*Runtime) ShareableContentCount(content bridge.Handle, k bridge.Kind) int {
	return int(scShareableContentCount(uintptr(content), int32(k)))
}

// ShareableContentItem implements bridge.Runtime.
func (*Runtime) ShareableContentItem(content bridge.Handle, k bridge.Kind, index int) bridge.Handle {
	return bridge.Handle(scShareableContentItem(uintptr(content), int32(k), int64(index)))
}

// batch calls one of the record accessors with out and strtab.
func batch[R any](fn func(uintptr, unsafe.Pointer, int64, unsafe.Pointer, int64, *int64) int64,
	content bridge.Handle, out []R, strtab []byte) (int, int) {
	if len(out) == 0 {
		return 0, 0
	}
	var tab unsafe.Pointer
	if len(strtab) > 0 {
		tab = unsafe.Pointer(&strtab[0])
	}
	var need int64
	n := fn(uintptr(content), unsafe.Pointer(&out[0]), int64(len(out)), tab, int64(len(strtab)), &need)
	return int(n), int(need)
}

// ShareableContentDisplays implements bridge.Runtime.
func (*Runtime) ShareableContentDisplays(content bridge.Handle, out []bridge.DisplayRecord, strtab []byte) (int, int) {
	return batch(scShareableContentDisplays, content, out, strtab)
}

// ShareableContentWindows implements bridge.Runtime.
func (*Runtime) ShareableContentWindows(content bridge.Handle, out []bridge.WindowRecord, strtab []byte) (int, int) {
	return batch(scShareableContentWindows, content, out, strtab)
}

// ShareableContentApplications implements bridge.Runtime.
func (*Runtime) ShareableContentApplications(content bridge.Handle, out []bridge.ApplicationRecord, strtab []byte) (int, int) {
	return batch(scShareableContentApplications, content, out, strtab)
}

// ContentFilterCreateDisplay implements bridge.Runtime.
func (*Runtime) ContentFilterCreateDisplay(display bridge.Handle, excluded []bridge.Handle) bridge.Handle {
	var p unsafe.Pointer
	if len(excluded) > 0 {
		p = unsafe.Pointer(&excluded[0])
	}
	return bridge.Handle(scContentFilterCreateDisplay(uintptr(display), p, int64(len(excluded))))
}

// ContentFilterCreateWindow implements bridge.Runtime.
func (*Runtime) ContentFilterCreateWindow(window bridge.Handle) bridge.Handle {
	return bridge.Handle(scContentFilterCreateWindow(uintptr(window)))
}

// StreamConfigurationCreate implements bridge.Runtime.
func (*Runtime) StreamConfigurationCreate(s bridge.StreamSettings) bridge.Handle {
	native := toNativeSettings(s)
	return bridge.Handle(scStreamConfigurationCreate(unsafe.Pointer(&native)))
}

// StreamCreate implements bridge.Runtime.
func (*Runtime) StreamCreate(filter, config bridge.Handle, owner uintptr) bridge.Handle {
	return bridge.Handle(scStreamCreate(uintptr(filter), uintptr(config), owner))
}

// outputCall runs a synchronous output call and converts its failure.
func outputCall(fn func(uintptr, int32, unsafe.Pointer, int64) int32, op string, stream bridge.Handle, t bridge.OutputType) error {
	var buf [errBufSize]byte
	if fn(uintptr(stream), int32(t), unsafe.Pointer(&buf[0]), errBufSize) == 0 {
		return nil
	}
	return bridge.FromNative(op, bridge.StreamError, cBufferString(buf[:]))
}

// StreamAddOutput implements bridge.Runtime.
func (*Runtime) StreamAddOutput(stream bridge.Handle, t bridge.OutputType) error {
	return outputCall(scStreamAddOutput, "add output", stream, t)
}

// StreamRemoveOutput implements bridge.Runtime.
func (*Runtime) StreamRemoveOutput(stream bridge.Handle, t bridge.OutputType) error {
	return outputCall(scStreamRemoveOutput, "remove output", stream, t)
}

// StreamStartCapture implements bridge.Runtime.
func (*Runtime) StreamStartCapture(stream bridge.Handle, ctx uintptr) {
	scStreamStartCapture(uintptr(stream), ctx)
}

// StreamStopCapture implements bridge.Runtime.
func (*Runtime) StreamStopCapture(stream bridge.Handle, ctx uintptr) {
	scStreamStopCapture(uintptr(stream), ctx)
}

// StreamUpdateConfiguration implements bridge.Runtime.
func (*Runtime) StreamUpdateConfiguration(stream, config bridge.Handle, ctx uintptr) {
	scStreamUpdateConfiguration(uintptr(stream), uintptr(config), ctx)
}

// StreamUpdateContentFilter implements bridge.Runtime.
func (*Runtime) StreamUpdateContentFilter(stream, filter bridge.Handle, ctx uintptr) {
	scStreamUpdateContentFilter(uintptr(stream), uintptr(filter), ctx)
}

// StreamAddRecordingOutput implements bridge.Runtime.
func (*Runtime) StreamAddRecordingOutput(stream, rec bridge.Handle, ctx uintptr) {
	scStreamAddRecordingOutput(uintptr(stream), uintptr(rec), ctx)
}

// StreamRemoveRecordingOutput implements bridge.Runtime.
func (*Runtime) StreamRemoveRecordingOutput(stream, rec bridge.Handle, ctx uintptr) {
	scStreamRemoveRecordingOutput(uintptr(stream), uintptr(rec), ctx)
}

// ScreenshotCaptureImage implements bridge.Runtime.
func (*Runtime) ScreenshotCaptureImage(filter, config bridge.Handle, ctx uintptr) {
	scScreenshotCaptureImage(uintptr(filter), uintptr(config), ctx)
}

// ImageSize implements bridge.Runtime.
func (*Runtime) ImageSize(img bridge.Handle) (int, int) {
	var w, h int64
	scImageSize(uintptr(img), &w, &h)
	return int(w), int(h)
}

// ImageCopyRGBA implements bridge.Runtime.
func (*Runtime) ImageCopyRGBA(img bridge.Handle, dst []byte) int {
	var p unsafe.Pointer
	if len(dst) > 0 {
		p = unsafe.Pointer(&dst[0])
	}
	return int(scImageCopyRGBA(uintptr(img), p, int64(len(dst))))
}

// SampleBufferTiming implements bridge.Runtime.
func (*Runtime) SampleBufferTiming(buf bridge.Handle) cm.SampleTiming {
	var t cm.SampleTiming
	scSampleBufferTiming(uintptr(buf), unsafe.Pointer(&t))
	return t
}

// SampleBufferFrameStatus implements bridge.Runtime.
func (*Runtime) SampleBufferFrameStatus(buf bridge.Handle) (int32, bool) {
	var status int32
	ok := scSampleBufferFrameStatus(uintptr(buf), &status)
	return status, ok
}

// SampleBufferImageBuffer implements bridge.Runtime.
func (*Runtime) SampleBufferImageBuffer(buf bridge.Handle) bridge.Handle {
	return bridge.Handle(scSampleBufferImageBuffer(uintptr(buf)))
}

// SampleBufferNumSamples implements bridge.Runtime.
func (*Runtime) SampleBufferNumSamples(buf bridge.Handle) int {
	return int(scSampleBufferNumSamples(uintptr(buf)))
}

// PixelBufferLock implements bridge.Runtime.
func (*Runtime) PixelBufferLock(pb bridge.Handle) error {
	if rc := scPixelBufferLock(uintptr(pb)); rc != 0 {
		return bridge.FromNative("lock pixel buffer", bridge.StreamError, bridge.FormatNative(bridge.StreamErrorCode(rc), ""))
	}
	return nil
}

// PixelBufferUnlock implements bridge.Runtime.
func (*Runtime) PixelBufferUnlock(pb bridge.Handle) {
	scPixelBufferUnlock(uintptr(pb))
}

// PixelBufferDimensions implements bridge.Runtime.
func (*Runtime) PixelBufferDimensions(pb bridge.Handle) (int, int, int) {
	var w, h, bpr int64
	scPixelBufferDimensions(uintptr(pb), &w, &h, &bpr)
	return int(w), int(h), int(bpr)
}

// PixelBufferFormat implements bridge.Runtime.
func (*Runtime) PixelBufferFormat(pb bridge.Handle) uint32 {
	return scPixelBufferFormat(uintptr(pb))
}

// PixelBufferBytes implements bridge.Runtime.
func (*Runtime) PixelBufferBytes(pb bridge.Handle) []byte {
	base := scPixelBufferBaseAddress(uintptr(pb))
	n := scPixelBufferDataSize(uintptr(pb))
	if base == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(base), n)
}

// PickerConfigurationCreate implements bridge.Runtime.
func (*Runtime) PickerConfigurationCreate(modes []bridge.PickerMode) bridge.Handle {
	var p unsafe.Pointer
	if len(modes) > 0 {
		p = unsafe.Pointer(&modes[0])
	}
	return bridge.Handle(scPickerConfigurationCreate(p, int64(len(modes))))
}

// PickerShow implements bridge.Runtime.
func (*Runtime) PickerShow(config bridge.Handle, ctx uintptr) {
	scPickerShow(uintptr(config), ctx)
}

// PickerWithdraw implements bridge.Runtime.
func (*Runtime) PickerWithdraw(ctx uintptr) {
	scPickerWithdraw(ctx)
}

// PickerResultFilter implements bridge.Runtime.
func (*Runtime) PickerResultFilter(result bridge.Handle) bridge.Handle {
	return bridge.Handle(scPickerResultFilter(uintptr(result)))
}

// PickerResultGeometry implements bridge.Runtime.
func (*Runtime) PickerResultGeometry(result bridge.Handle) bridge.PickerGeometry {
	var g bridge.PickerGeometry
	scPickerResultGeometry(uintptr(result), unsafe.Pointer(&g))
	return g
}

// RecordingOutputCreate implements bridge.Runtime.
func (*Runtime) RecordingOutputCreate(path string, codec bridge.RecordingCodec, owner uintptr) bridge.Handle {
	return bridge.Handle(scRecordingOutputCreate(path, int32(codec), owner))
}
