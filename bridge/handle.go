//go:build !ios && !android && (amd64 || arm64)

// Package bridge implements the ownership and concurrency contract between Go
// and the native ScreenCaptureKit bridge library.
//
// Native objects are reference counted and cross the boundary as opaque
// Handles. A Handle is never used bare outside this package: it is wrapped at
// the boundary either in a Ref, which owns exactly one native reference and
// releases it exactly once, or in a Borrowed view, which has no Release method
// and becomes invalid when the Ref it was derived from is released.
//
// Asynchronous native operations report through a Pending, a single-resolution
// promise. Recurring notifications (frames, delegate events) are routed through
// a Registry keyed by stable owner IDs, and UI flows that accept one decision at
// a time use an ObserverSlot.
package bridge

import (
	"fmt"
	"sync/atomic"
)

// Handle is an opaque native object reference. The zero Handle is null.
type Handle uintptr

// IsNull reports whether h is the null handle.
func (h Handle) IsNull() bool {
	return h == 0
}

// String formats the handle as a pointer.
func (h Handle) String() string {
	return fmt.Sprintf("0x%x", uintptr(h))
}

// Kind is the static type tag of a Handle. It selects the native
// retain/release entry points.
type Kind uint8

const (
	KindObject Kind = iota // untyped; generic retain/release only
	KindStream
	KindContentFilter
	KindStreamConfiguration
	KindShareableContent
	KindDisplay
	KindWindow
	KindApplication
	KindSampleBuffer
	KindPixelBuffer
	KindImage
	KindPickerConfiguration
	KindPickerResult
	KindRecordingOutput

	kindCount
)

var kindNames = [kindCount]string{
	KindObject:              "object",
	KindStream:              "stream",
	KindContentFilter:       "content_filter",
	KindStreamConfiguration: "stream_configuration",
	KindShareableContent:    "shareable_content",
	KindDisplay:             "display",
	KindWindow:              "window",
	KindApplication:         "running_application",
	KindSampleBuffer:        "sample_buffer",
	KindPixelBuffer:         "pixel_buffer",
	KindImage:               "image",
	KindPickerConfiguration: "picker_configuration",
	KindPickerResult:        "picker_result",
	KindRecordingOutput:     "recording_output",
}

// String returns the snake_case type name used in native symbol names.
func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Symbol returns the native entry point for op on this kind,
// e.g. KindStream.Symbol("retain") is "sc_stream_retain".
func (k Kind) Symbol(op string) string {
	return "sc_" + k.String() + "_" + op
}

// Valid reports whether k names a real native type.
func (k Kind) Valid() bool {
	return k > KindObject && k < kindCount
}

// Kinds returns every valid kind.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := KindObject + 1; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// live counts outstanding Refs per kind across the process.
var live [kindCount]atomic.Int64

// LiveRefs returns the number of Refs of kind k that have been adopted and
// not yet released.
func LiveRefs(k Kind) int64 {
	if k >= kindCount {
		return 0
	}
	return live[k].Load()
}
