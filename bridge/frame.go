//go:build !ios && !android && (amd64 || arm64)

package bridge

import (
	"fmt"

	"github.com/obinnaokechukwu/sckit/cm"
)

// Frame is one delivered sample buffer. The native side retained the buffer
// once for the crossing; the Frame owns that reference and the consumer must
// call Release exactly once. Views obtained from the Frame become invalid at
// that point.
type Frame struct {
	rt        Runtime
	ref       *Ref
	output    OutputType
	timing    cm.SampleTiming
	status    cm.FrameStatus
	hasStatus bool
}

// NewFrame adopts buf, already retained for the caller, and reads its timing
// metadata.
func NewFrame(rt Runtime, t OutputType, buf Handle) (*Frame, error) {
	ref, err := Adopt(rt, KindSampleBuffer, buf)
	if err != nil {
		return nil, err
	}
	return newFrame(rt, t, ref), nil
}

func newFrame(rt Runtime, t OutputType, ref *Ref) *Frame {
	f := &Frame{rt: rt, ref: ref, output: t}
	f.timing = rt.SampleBufferTiming(ref.h)
	if raw, ok := rt.SampleBufferFrameStatus(ref.h); ok {
		f.status, f.hasStatus = cm.ParseFrameStatus(raw)
	}
	return f
}

// OutputType returns the output the frame was delivered on.
func (f *Frame) OutputType() OutputType {
	return f.output
}

// Timing returns the presentation, decode and duration timestamps.
func (f *Frame) Timing() cm.SampleTiming {
	return f.timing
}

// Status returns the screen frame status. ok is false for samples without a
// status attachment.
func (f *Frame) Status() (status cm.FrameStatus, ok bool) {
	return f.status, f.hasStatus
}

// HasContent reports whether the frame carries new pixels. Frames without a
// status attachment are assumed to.
func (f *Frame) HasContent() bool {
	return !f.hasStatus || f.status.HasContent()
}

// SampleBuffer returns a borrowed view of the underlying sample buffer.
func (f *Frame) SampleBuffer() Borrowed {
	return f.ref.Borrow()
}

// NumSamples returns the number of samples in the buffer (audio frames).
func (f *Frame) NumSamples() (int, error) {
	h, err := f.ref.Handle()
	if err != nil {
		return 0, err
	}
	return f.rt.SampleBufferNumSamples(h), nil
}

// ImageBuffer returns a borrowed view of the frame's pixel buffer. It fails
// with ErrReleased after Release and ErrNullHandle for audio samples.
func (f *Frame) ImageBuffer() (PixelBuffer, error) {
	h, err := f.ref.Handle()
	if err != nil {
		return PixelBuffer{}, err
	}
	pb := f.rt.SampleBufferImageBuffer(h)
	if pb.IsNull() {
		return PixelBuffer{}, ErrNullHandle
	}
	return PixelBuffer{rt: f.rt, view: f.ref.Derive(KindPixelBuffer, pb)}, nil
}

// Retain returns an independent Frame sharing the same buffer. It needs its
// own Release.
func (f *Frame) Retain() (*Frame, error) {
	ref, err := f.ref.Clone()
	if err != nil {
		return nil, err
	}
	dup := *f
	dup.ref = ref
	return &dup, nil
}

// Release gives the buffer back. Calls after the first are no-ops.
func (f *Frame) Release() {
	if f == nil {
		return
	}
	f.ref.Release()
}

// Released reports whether Release has been called.
func (f *Frame) Released() bool {
	return f == nil || f.ref.Released()
}

func (f *Frame) String() string {
	return fmt.Sprintf("frame(%s, pts=%s, %s)", f.output, f.timing.Presentation, f.ref)
}

// PixelBuffer is a borrowed view of a frame's pixel data.
type PixelBuffer struct {
	rt   Runtime
	view Borrowed
}

// Dimensions returns width, height and bytes per row.
func (p PixelBuffer) Dimensions() (width, height, bytesPerRow int, err error) {
	h, err := p.view.Handle()
	if err != nil {
		return 0, 0, 0, err
	}
	width, height, bytesPerRow = p.rt.PixelBufferDimensions(h)
	return width, height, bytesPerRow, nil
}

// Format returns the four-character pixel format code.
func (p PixelBuffer) Format() (uint32, error) {
	h, err := p.view.Handle()
	if err != nil {
		return 0, err
	}
	return p.rt.PixelBufferFormat(h), nil
}

// Read locks the buffer for reading, passes its bytes to fn and unlocks.
// data aliases native memory and must not be retained past fn.
func (p PixelBuffer) Read(fn func(data []byte) error) error {
	h, err := p.view.Handle()
	if err != nil {
		return err
	}
	if err := p.rt.PixelBufferLock(h); err != nil {
		return err
	}
	defer p.rt.PixelBufferUnlock(h)
	return fn(p.rt.PixelBufferBytes(h))
}

// Valid reports whether the owning frame is still alive.
func (p PixelBuffer) Valid() bool {
	return p.view.Valid()
}

// Retain takes an owned reference to the pixel buffer that outlives the
// frame.
func (p PixelBuffer) Retain() (*Ref, error) {
	return p.view.Retain()
}
