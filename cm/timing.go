//go:build !ios && !android && (amd64 || arm64)

package cm

import (
	"math"
	"time"
)

// SampleTiming is the timing triple attached to a sample buffer
// (CMSampleTimingInfo).
type SampleTiming struct {
	Duration     Time
	Presentation Time
	Decode       Time
}

// HasPresentation reports whether the presentation timestamp is numeric.
func (s SampleTiming) HasPresentation() bool {
	return s.Presentation.IsNumeric()
}

// HasDecode reports whether the decode timestamp is numeric.
func (s SampleTiming) HasDecode() bool {
	return s.Decode.IsNumeric()
}

// HasDuration reports whether the duration is numeric.
func (s SampleTiming) HasDuration() bool {
	return s.Duration.IsNumeric()
}

// PresentationDuration returns the presentation timestamp as a
// time.Duration, or false if it is not numeric.
func (s SampleTiming) PresentationDuration() (time.Duration, bool) {
	return toDuration(s.Presentation)
}

// FrameDuration returns the sample duration as a time.Duration, or false if
// it is not numeric.
func (s SampleTiming) FrameDuration() (time.Duration, bool) {
	return toDuration(s.Duration)
}

func toDuration(t Time) (time.Duration, bool) {
	if !t.IsNumeric() || t.Timescale <= 0 {
		return 0, false
	}
	ts := int64(t.Timescale)
	sec, rem := t.Value/ts, t.Value%ts
	if sec > math.MaxInt64/int64(time.Second) || sec < math.MinInt64/int64(time.Second) {
		return 0, false
	}
	// |rem| < 2^31, so rem*1e9 fits
	return time.Duration(sec)*time.Second + time.Duration(rem*int64(time.Second)/ts), true
}
