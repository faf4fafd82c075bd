//go:build !ios && !android && (amd64 || arm64)

package sckit

import (
	"errors"

	"github.com/obinnaokechukwu/sckit/bridge"
)

// Error is the structured form of every failure reported by the native side.
type Error = bridge.Error

// ErrorKind classifies an Error.
type ErrorKind = bridge.ErrorKind

// StreamErrorCode is a native stream error code.
type StreamErrorCode = bridge.StreamErrorCode

// Error kinds.
const (
	Unknown            = bridge.Unknown
	ContentUnavailable = bridge.ContentUnavailable
	StreamError        = bridge.StreamError
	ConfigurationError = bridge.ConfigurationError
	ScreenshotError    = bridge.ScreenshotError
	RecordingError     = bridge.RecordingError
	PickerError        = bridge.PickerError
	InvalidParameter   = bridge.InvalidParameter
	PermissionDenied   = bridge.PermissionDenied
	Timeout            = bridge.Timeout
)

// Common errors
var (
	ErrClosed           = bridge.ErrClosed
	ErrReleased         = bridge.ErrReleased
	ErrNullHandle       = bridge.ErrNullHandle
	ErrNotLoaded        = bridge.ErrNotLoaded
	ErrTimeout          = bridge.ErrTimeout
	ErrPermissionDenied = bridge.ErrPermissionDenied

	// ErrPickerCancelled is returned by PickerRequest.Wait when the user
	// dismissed the picker.
	ErrPickerCancelled = errors.New("sckit: picker cancelled")

	// ErrQueueClosed is returned by FrameQueue.Next once the queue is
	// closed.
	ErrQueueClosed = errors.New("sckit: frame queue closed")
)

// KindOf returns the kind of err, or Unknown.
func KindOf(err error) ErrorKind {
	return bridge.KindOf(err)
}

// IsPermissionDenied reports whether err means screen recording permission
// was not granted.
func IsPermissionDenied(err error) bool {
	return bridge.IsPermissionDenied(err)
}

// IsTimeout reports whether a blocking call gave up waiting.
func IsTimeout(err error) bool {
	return bridge.IsTimeout(err)
}
