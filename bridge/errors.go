//go:build !ios && !android && (amd64 || arm64)

package bridge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Boundary errors.
var (
	// ErrNullHandle indicates a required handle was null.
	ErrNullHandle = errors.New("sckit: null handle")

	// ErrReleased indicates use of a handle after its owner released it.
	ErrReleased = errors.New("sckit: handle already released")

	// ErrInvalidKind indicates a handle kind outside the known set.
	ErrInvalidKind = errors.New("sckit: invalid handle kind")

	// ErrClosed indicates the resource has been closed.
	ErrClosed = errors.New("sckit: resource is closed")

	// ErrNotLoaded indicates the native bridge library is not loaded.
	ErrNotLoaded = errors.New("sckit: native bridge library not loaded")
)

// Kind sentinels. Every *Error matches the sentinel of its kind with
// errors.Is.
var (
	ErrUnknown            = errors.New("sckit: unknown error")
	ErrContentUnavailable = errors.New("sckit: shareable content unavailable")
	ErrStream             = errors.New("sckit: stream error")
	ErrConfiguration      = errors.New("sckit: configuration error")
	ErrScreenshot         = errors.New("sckit: screenshot error")
	ErrRecording          = errors.New("sckit: recording error")
	ErrPicker             = errors.New("sckit: picker error")
	ErrInvalidParameter   = errors.New("sckit: invalid parameter")
	ErrPermissionDenied   = errors.New("sckit: permission denied")
	ErrTimeout            = errors.New("sckit: operation timed out")
)

// ErrorKind classifies every error that crosses the boundary.
type ErrorKind uint8

const (
	Unknown ErrorKind = iota
	ContentUnavailable
	StreamError
	ConfigurationError
	ScreenshotError
	RecordingError
	PickerError
	InvalidParameter
	PermissionDenied
	Timeout
)

var errorKinds = [...]struct {
	name     string
	sentinel error
}{
	Unknown:            {"unknown", ErrUnknown},
	ContentUnavailable: {"content unavailable", ErrContentUnavailable},
	StreamError:        {"stream", ErrStream},
	ConfigurationError: {"configuration", ErrConfiguration},
	ScreenshotError:    {"screenshot", ErrScreenshot},
	RecordingError:     {"recording", ErrRecording},
	PickerError:        {"picker", ErrPicker},
	InvalidParameter:   {"invalid parameter", ErrInvalidParameter},
	PermissionDenied:   {"permission denied", ErrPermissionDenied},
	Timeout:            {"timeout", ErrTimeout},
}

func (k ErrorKind) String() string {
	if int(k) >= len(errorKinds) {
		return "unknown"
	}
	return errorKinds[k].name
}

// Sentinel returns the errors.Is target for the kind.
func (k ErrorKind) Sentinel() error {
	if int(k) >= len(errorKinds) {
		return ErrUnknown
	}
	return errorKinds[k].sentinel
}

// StreamErrorCode is a native SCStreamErrorCode value.
type StreamErrorCode int32

const (
	CodeUserDeclined                   StreamErrorCode = -3801
	CodeFailedToStartAudioCapture      StreamErrorCode = -3802
	CodeFailedToStart                  StreamErrorCode = -3803
	CodeAttemptToStartStreamState      StreamErrorCode = -3804
	CodeAttemptToStopStreamState       StreamErrorCode = -3805
	CodeAttemptToUpdateFilterState     StreamErrorCode = -3806
	CodeAttemptToConfigState           StreamErrorCode = -3807
	CodeInternalError                  StreamErrorCode = -3808
	CodeInvalidParameter               StreamErrorCode = -3809
	CodeNoWindowList                   StreamErrorCode = -3810
	CodeNoDisplayList                  StreamErrorCode = -3811
	CodeNoCaptureSource                StreamErrorCode = -3812
	CodeRemovingStream                 StreamErrorCode = -3813
	CodeUserStopped                    StreamErrorCode = -3814
	CodeFailedToStartExtension         StreamErrorCode = -3815
	CodeFailedToStartMicrophoneCapture StreamErrorCode = -3816
	CodeSystemStoppedStream            StreamErrorCode = -3817
)

var codeNames = map[StreamErrorCode]string{
	CodeUserDeclined:                   "user declined",
	CodeFailedToStartAudioCapture:      "failed to start audio capture",
	CodeFailedToStart:                  "failed to start",
	CodeAttemptToStartStreamState:      "stream already started",
	CodeAttemptToStopStreamState:       "stream not started",
	CodeAttemptToUpdateFilterState:     "cannot update filter in current state",
	CodeAttemptToConfigState:           "cannot configure in current state",
	CodeInternalError:                  "internal error",
	CodeInvalidParameter:               "invalid parameter",
	CodeNoWindowList:                   "no window list",
	CodeNoDisplayList:                  "no display list",
	CodeNoCaptureSource:                "no capture source",
	CodeRemovingStream:                 "removing stream",
	CodeUserStopped:                    "user stopped",
	CodeFailedToStartExtension:         "failed to start extension",
	CodeFailedToStartMicrophoneCapture: "failed to start microphone capture",
	CodeSystemStoppedStream:            "system stopped stream",
}

func (c StreamErrorCode) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("code %d", int32(c))
}

// Kind returns the error kind a native code maps to, or def for codes that
// carry no kind of their own.
func (c StreamErrorCode) Kind(def ErrorKind) ErrorKind {
	switch c {
	case CodeUserDeclined:
		return PermissionDenied
	case CodeInvalidParameter:
		return InvalidParameter
	case CodeNoWindowList, CodeNoDisplayList, CodeNoCaptureSource:
		return ContentUnavailable
	}
	return def
}

// Error is the structured form of a native failure.
type Error struct {
	Kind    ErrorKind
	Code    StreamErrorCode // 0 when the native side sent no code
	Message string
	Op      string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("sckit")
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Code != 0 {
		fmt.Fprintf(&b, " (code %d)", int32(e.Code))
	}
	return b.String()
}

// Is matches the kind sentinel.
func (e *Error) Is(target error) bool {
	return target == e.Kind.Sentinel()
}

// NewError returns an *Error without a native code.
func NewError(kind ErrorKind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Message: msg}
}

// FromNative reduces a native error message to an *Error. The message may be
// prefixed with a numeric code and a colon ("<code>:<message>"); a known code
// overrides def. Permission failures carry no native detail.
func FromNative(op string, def ErrorKind, msg string) *Error {
	code, text := SplitCode(msg)
	kind := code.Kind(def)
	switch {
	case kind == PermissionDenied:
		text = "screen capture not authorized"
	case text == "" && code != 0:
		text = code.String()
	case text == "":
		text = "no detail"
	}
	return &Error{Kind: kind, Code: code, Message: text, Op: op}
}

// SplitCode separates an optional "<code>:" prefix from a native message.
func SplitCode(msg string) (StreamErrorCode, string) {
	head, rest, ok := strings.Cut(msg, ":")
	if !ok {
		return 0, strings.TrimSpace(msg)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(head), 10, 32)
	if err != nil {
		return 0, strings.TrimSpace(msg)
	}
	return StreamErrorCode(n), strings.TrimSpace(rest)
}

// FormatNative is the inverse of SplitCode.
func FormatNative(code StreamErrorCode, msg string) string {
	if code == 0 {
		return msg
	}
	return strconv.Itoa(int(code)) + ":" + msg
}

// KindOf returns the kind of err, or Unknown if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// CodeOf returns the native code carried by err, or 0.
func CodeOf(err error) StreamErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsPermissionDenied reports whether err is a permission failure.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsTimeout reports whether err is a blocking-wait timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
