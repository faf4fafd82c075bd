//go:build !ios && !android && (amd64 || arm64)

package bindings

import (
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/obinnaokechukwu/sckit/bridge"
)

// Ownership: one retain/release pair per kind, plus the untyped release used
// for handles whose kind is not known on the Go side.
var (
	retainFns  = map[bridge.Kind]func(h uintptr) uintptr{}
	releaseFns = map[bridge.Kind]func(h uintptr){}
)

var (
	scSetCallbacks func(unit, value, sample, streamError, picker, recording uintptr)

	scShareableContentGet          func(excludeDesktop, onScreenOnly bool, ctx uintptr)
	scShareableContentCount        func(content uintptr, kind int32) int64
	scShareableContentItem         func(content uintptr, kind int32, index int64) uintptr
	scShareableContentDisplays     func(content uintptr, out unsafe.Pointer, capacity int64, strtab unsafe.Pointer, strcap int64, need *int64) int64
	scShareableContentWindows      func(content uintptr, out unsafe.Pointer, capacity int64, strtab unsafe.Pointer, strcap int64, need *int64) int64
	scShareableContentApplications func(content uintptr, out unsafe.Pointer, capacity int64, strtab unsafe.Pointer, strcap int64, need *int64) int64

	scContentFilterCreateDisplay func(display uintptr, excluded unsafe.Pointer, count int64) uintptr
	scContentFilterCreateWindow  func(window uintptr) uintptr
	scStreamConfigurationCreate  func(settings unsafe.Pointer) uintptr

	scStreamCreate                func(filter, config, owner uintptr) uintptr
	scStreamAddOutput             func(stream uintptr, t int32, errbuf unsafe.Pointer, errcap int64) int32
	scStreamRemoveOutput          func(stream uintptr, t int32, errbuf unsafe.Pointer, errcap int64) int32
	scStreamStartCapture          func(stream, ctx uintptr)
	scStreamStopCapture           func(stream, ctx uintptr)
	scStreamUpdateConfiguration   func(stream, config, ctx uintptr)
	scStreamUpdateContentFilter   func(stream, filter, ctx uintptr)
	scStreamAddRecordingOutput    func(stream, rec, ctx uintptr)
	scStreamRemoveRecordingOutput func(stream, rec, ctx uintptr)
	scRecordingOutputCreate       func(path string, codec int32, owner uintptr) uintptr
	scScreenshotCaptureImage      func(filter, config, ctx uintptr)
	scImageSize                   func(img uintptr, width, height *int64)
	scImageCopyRGBA               func(img uintptr, dst unsafe.Pointer, capacity int64) int64
	scSampleBufferTiming          func(buf uintptr, out unsafe.Pointer)
	scSampleBufferFrameStatus     func(buf uintptr, status *int32) bool
	scSampleBufferImageBuffer     func(buf uintptr) uintptr
	scSampleBufferNumSamples      func(buf uintptr) int64
	scPixelBufferLock             func(pb uintptr) int32
	scPixelBufferUnlock           func(pb uintptr)
	scPixelBufferDimensions       func(pb uintptr, width, height, bytesPerRow *int64)
	scPixelBufferFormat           func(pb uintptr) uint32
	scPixelBufferBaseAddress      func(pb uintptr) unsafe.Pointer
	scPixelBufferDataSize         func(pb uintptr) int64
	scPickerConfigurationCreate   func(modes unsafe.Pointer, count int64) uintptr
	scPickerShow                  func(config, ctx uintptr)
	scPickerWithdraw              func(ctx uintptr)
	scPickerResultFilter          func(result uintptr) uintptr
	scPickerResultGeometry        func(result uintptr, out unsafe.Pointer)
)

func registerBindings(lib uintptr) {
	for _, k := range append([]bridge.Kind{bridge.KindObject}, bridge.Kinds()...) {
		if k.Valid() {
			var retain func(uintptr) uintptr
			purego.RegisterLibFunc(&retain, lib, k.Symbol("retain"))
			retainFns[k] = retain
		}
		var release func(uintptr)
		purego.RegisterLibFunc(&release, lib, k.Symbol("release"))
		releaseFns[k] = release
	}

	purego.RegisterLibFunc(&scSetCallbacks, lib, "sc_bridge_set_callbacks")

	purego.RegisterLibFunc(&scShareableContentGet, lib, "sc_shareable_content_get")
	purego.RegisterLibFunc(&scShareableContentCount, lib, "sc_shareable_content_count")
	purego.RegisterLibFunc(&scShareableContentItem, lib, "sc_shareable_content_item")
	purego.RegisterLibFunc(&scShareableContentDisplays, lib, "sc_shareable_content_displays")
	purego.RegisterLibFunc(&scShareableContentWindows, lib, "sc_shareable_content_windows")
	purego.RegisterLibFunc(&scShareableContentApplications, lib, "sc_shareable_content_applications")

	purego.RegisterLibFunc(&scContentFilterCreateDisplay, lib, "sc_content_filter_create_display")
	purego.RegisterLibFunc(&scContentFilterCreateWindow, lib, "sc_content_filter_create_window")
	purego.RegisterLibFunc(&scStreamConfigurationCreate, lib, "sc_stream_configuration_create")

	purego.RegisterLibFunc(&scStreamCreate, lib, "sc_stream_create")
	purego.RegisterLibFunc(&scStreamAddOutput, lib, "sc_stream_add_output")
	purego.RegisterLibFunc(&scStreamRemoveOutput, lib, "sc_stream_remove_output")
	purego.RegisterLibFunc(&scStreamStartCapture, lib, "sc_stream_start_capture")
	purego.RegisterLibFunc(&scStreamStopCapture, lib, "sc_stream_stop_capture")
	purego.RegisterLibFunc(&scStreamUpdateConfiguration, lib, "sc_stream_update_configuration")
	purego.RegisterLibFunc(&scStreamUpdateContentFilter, lib, "sc_stream_update_content_filter")
	purego.RegisterLibFunc(&scStreamAddRecordingOutput, lib, "sc_stream_add_recording_output")
	purego.RegisterLibFunc(&scStreamRemoveRecordingOutput, lib, "sc_stream_remove_recording_output")
	purego.RegisterLibFunc(&scRecordingOutputCreate, lib, "sc_recording_output_create")

	purego.RegisterLibFunc(&scScreenshotCaptureImage, lib, "sc_screenshot_capture_image")
	purego.RegisterLibFunc(&scImageSize, lib, "sc_image_size")
	purego.RegisterLibFunc(&scImageCopyRGBA, lib, "sc_image_copy_rgba")

	purego.RegisterLibFunc(&scSampleBufferTiming, lib, "sc_sample_buffer_timing")
	purego.RegisterLibFunc(&scSampleBufferFrameStatus, lib, "sc_sample_buffer_frame_status")
	purego.RegisterLibFunc(&scSampleBufferImageBuffer, lib, "sc_sample_buffer_image_buffer")
	purego.RegisterLibFunc(&scSampleBufferNumSamples, lib, "sc_sample_buffer_num_samples")

	purego.RegisterLibFunc(&scPixelBufferLock, lib, "sc_pixel_buffer_lock")
	purego.RegisterLibFunc(&scPixelBufferUnlock, lib, "sc_pixel_buffer_unlock")
	purego.RegisterLibFunc(&scPixelBufferDimensions, lib, "sc_pixel_buffer_dimensions")
	purego.RegisterLibFunc(&scPixelBufferFormat, lib, "sc_pixel_buffer_format")
	purego.RegisterLibFunc(&scPixelBufferBaseAddress, lib, "sc_pixel_buffer_base_address")
	purego.RegisterLibFunc(&scPixelBufferDataSize, lib, "sc_pixel_buffer_data_size")

	purego.RegisterLibFunc(&scPickerConfigurationCreate, lib, "sc_picker_configuration_create")
	purego.RegisterLibFunc(&scPickerShow, lib, "sc_picker_show")
	purego.RegisterLibFunc(&scPickerWithdraw, lib, "sc_picker_withdraw")
	purego.RegisterLibFunc(&scPickerResultFilter, lib, "sc_picker_result_filter")
	purego.RegisterLibFunc(&scPickerResultGeometry, lib, "sc_picker_result_geometry")
}
