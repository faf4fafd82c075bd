//go:build !ios && !android && (amd64 || arm64)

package bridge

import (
	"fmt"

	"github.com/obinnaokechukwu/sckit/cm"
)

// OutputType selects which sample stream a handler receives.
type OutputType int32

const (
	OutputScreen     OutputType = 0
	OutputAudio      OutputType = 1
	OutputMicrophone OutputType = 2
)

func (t OutputType) String() string {
	switch t {
	case OutputScreen:
		return "screen"
	case OutputAudio:
		return "audio"
	case OutputMicrophone:
		return "microphone"
	default:
		return fmt.Sprintf("output(%d)", int32(t))
	}
}

// Valid reports whether t is a known output type.
func (t OutputType) Valid() bool {
	return t >= OutputScreen && t <= OutputMicrophone
}

// Category returns the registry category for frames of this output type.
func (t OutputType) Category() Category {
	return Category(t)
}

// Rect is a rectangle in points.
type Rect struct {
	X, Y, Width, Height float64
}

// StringRef locates a string inside a batch string table.
type StringRef struct {
	Offset uint32
	Length uint32
}

// DisplayRecord is one element of a display batch. Layout matches
// sc_display_record_t.
type DisplayRecord struct {
	DisplayID uint32
	Width     int32
	Height    int32
	_         int32
	Frame     Rect
}

// WindowRecord is one element of a window batch. Layout matches
// sc_window_record_t. AppIndex is -1 when the window has no owning
// application in the same snapshot.
type WindowRecord struct {
	WindowID uint32
	Layer    int32
	Frame    Rect
	Title    StringRef
	AppIndex int32
	OnScreen uint8
	Active   uint8
	_        [2]uint8
}

// ApplicationRecord is one element of an application batch. Layout matches
// sc_application_record_t.
type ApplicationRecord struct {
	ProcessID int32
	BundleID  StringRef
	Name      StringRef
}

// ContentOptions filters a shareable content query.
type ContentOptions struct {
	ExcludeDesktopWindows bool
	OnScreenWindowsOnly   bool
}

// StreamSettings is the flat stream configuration passed to
// sc_stream_configuration_create.
type StreamSettings struct {
	Width                       int32   `yaml:"width"`
	Height                      int32   `yaml:"height"`
	FrameRate                   int32   `yaml:"fps"`
	QueueDepth                  int32   `yaml:"queue_depth"`
	PixelFormat                 uint32  `yaml:"pixel_format"`
	ShowsCursor                 bool    `yaml:"shows_cursor"`
	CapturesAudio               bool    `yaml:"captures_audio"`
	CapturesMicrophone          bool    `yaml:"captures_microphone"`
	ExcludesCurrentProcessAudio bool    `yaml:"excludes_current_process_audio"`
	SampleRate                  int32   `yaml:"sample_rate"`
	ChannelCount                int32   `yaml:"channel_count"`
	Scale                       float64 `yaml:"scale"`
}

// PixelFormatBGRA is the default 32-bit BGRA four-character code.
const PixelFormatBGRA uint32 = 'B'<<24 | 'G'<<16 | 'R'<<8 | 'A'

// PickerMode is an SCContentSharingPickerMode value.
type PickerMode int32

const (
	PickerSingleWindow PickerMode = iota
	PickerMultipleWindows
	PickerSingleDisplay
	PickerSingleApplication
	PickerMultipleApplications
)

// Picker callback codes.
const (
	PickerCodeCancelled int32 = 0
	PickerCodePicked    int32 = 1
	PickerCodeFailed    int32 = -1
)

// PickerGeometry describes the content the user picked.
type PickerGeometry struct {
	Rect        Rect
	Scale       float64
	PixelWidth  uint32
	PixelHeight uint32
}

// RecordingCodec selects the recording output video codec.
type RecordingCodec int32

const (
	CodecH264 RecordingCodec = 0
	CodecHEVC RecordingCodec = 1
)

// RecordingEvent is a recording output delegate notification.
type RecordingEvent int32

const (
	RecordingStarted  RecordingEvent = 0
	RecordingFinished RecordingEvent = 1
	RecordingFailed   RecordingEvent = 2
)

func (e RecordingEvent) String() string {
	switch e {
	case RecordingStarted:
		return "started"
	case RecordingFinished:
		return "finished"
	case RecordingFailed:
		return "failed"
	default:
		return fmt.Sprintf("recording_event(%d)", int32(e))
	}
}

// Callbacks are the host entry points the native library invokes. They may
// be called from any thread, concurrently.
type Callbacks interface {
	// CompleteUnit finishes an operation with no result value.
	CompleteUnit(ctx uintptr, ok bool, msg string)

	// CompleteValue finishes an operation producing an owned handle. A null
	// handle means failure and msg carries the error.
	CompleteValue(ctx uintptr, h Handle, msg string)

	// OutputSample delivers a sample buffer retained once for the crossing.
	OutputSample(owner uintptr, t OutputType, buf Handle)

	// StreamError reports that a stream stopped with an error.
	StreamError(owner uintptr, msg string)

	// PickerOutcome reports the picker decision for the observer ctx.
	PickerOutcome(ctx uintptr, code int32, result Handle, msg string)

	// RecordingEvent reports a recording output delegate event.
	RecordingEvent(owner uintptr, ev RecordingEvent, msg string)
}

// Runtime is the flat native surface of the bridge library. Every method
// corresponds to one exported C function. Operations taking a ctx complete
// through Callbacks; methods returning a Handle follow the create rule
// (caller owns) unless documented as borrowed.
type Runtime interface {
	Retainer

	// Bind installs the host callbacks. It must be called before any
	// asynchronous operation is started.
	Bind(cb Callbacks)

	// sc_shareable_content_get: completes with an owned content handle.
	ShareableContentGet(opts ContentOptions, ctx uintptr)
	// sc_shareable_content_count
	ShareableContentCount(content Handle, k Kind) int
	// sc_shareable_content_item: borrowed, valid while content is alive.
	ShareableContentItem(content Handle, k Kind, index int) Handle
	// Batch accessors fill records and strtab and return the number of
	// records written and the string table size required for all of them.
	ShareableContentDisplays(content Handle, out []DisplayRecord, strtab []byte) (n, need int)
	ShareableContentWindows(content Handle, out []WindowRecord, strtab []byte) (n, need int)
	ShareableContentApplications(content Handle, out []ApplicationRecord, strtab []byte) (n, need int)

	// sc_content_filter_create_display
	ContentFilterCreateDisplay(display Handle, excludedWindows []Handle) Handle
	// sc_content_filter_create_window
	ContentFilterCreateWindow(window Handle) Handle
	// sc_stream_configuration_create
	StreamConfigurationCreate(s StreamSettings) Handle

	// sc_stream_create: owner is passed back with every output sample and
	// stream error.
	StreamCreate(filter, config Handle, owner uintptr) Handle
	// sc_stream_add_output / sc_stream_remove_output are synchronous.
	StreamAddOutput(stream Handle, t OutputType) error
	StreamRemoveOutput(stream Handle, t OutputType) error
	StreamStartCapture(stream Handle, ctx uintptr)
	StreamStopCapture(stream Handle, ctx uintptr)
	StreamUpdateConfiguration(stream, config Handle, ctx uintptr)
	StreamUpdateContentFilter(stream, filter Handle, ctx uintptr)
	StreamAddRecordingOutput(stream, rec Handle, ctx uintptr)
	StreamRemoveRecordingOutput(stream, rec Handle, ctx uintptr)

	// sc_screenshot_capture_image: completes with an owned image handle.
	ScreenshotCaptureImage(filter, config Handle, ctx uintptr)
	ImageSize(img Handle) (width, height int)
	// ImageCopyRGBA copies the image as 8-bit RGBA into dst and returns the
	// number of bytes the full image needs.
	ImageCopyRGBA(img Handle, dst []byte) int

	SampleBufferTiming(buf Handle) cm.SampleTiming
	// SampleBufferFrameStatus reports false for samples without a status
	// attachment (audio).
	SampleBufferFrameStatus(buf Handle) (int32, bool)
	// SampleBufferImageBuffer is borrowed from buf; null for audio samples.
	SampleBufferImageBuffer(buf Handle) Handle
	SampleBufferNumSamples(buf Handle) int

	PixelBufferLock(pb Handle) error
	PixelBufferUnlock(pb Handle)
	PixelBufferDimensions(pb Handle) (width, height, bytesPerRow int)
	PixelBufferFormat(pb Handle) uint32
	// PixelBufferBytes aliases native memory; valid only while locked.
	PixelBufferBytes(pb Handle) []byte

	PickerConfigurationCreate(modes []PickerMode) Handle
	// PickerShow presents the picker; the decision arrives via
	// Callbacks.PickerOutcome with the same ctx.
	PickerShow(config Handle, ctx uintptr)
	// PickerWithdraw stops native delivery to ctx. Deliveries already
	// scheduled may still arrive.
	PickerWithdraw(ctx uintptr)
	// PickerResultFilter returns an owned content filter.
	PickerResultFilter(result Handle) Handle
	PickerResultGeometry(result Handle) PickerGeometry

	// sc_recording_output_create: delegate events arrive with owner.
	RecordingOutputCreate(path string, codec RecordingCodec, owner uintptr) Handle
}
