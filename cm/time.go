//go:build !ios && !android && (amd64 || arm64)

// Package cm provides the Core Media value types that cross the capture
// bridge by value: media timestamps, per-sample timing and frame status.
package cm

import (
	"fmt"
	"math"
)

// TimeFlags mirrors the CMTime flags word.
type TimeFlags uint32

// CMTime flag bits.
const (
	TimeValid            TimeFlags = 0x1
	TimeIndefinite       TimeFlags = 0x2
	TimePositiveInfinity TimeFlags = 0x4
	TimeNegativeInfinity TimeFlags = 0x8
	TimeHasBeenRounded   TimeFlags = 0x10
)

// Time is a rational media timestamp (CMTime): Value/Timescale seconds.
type Time struct {
	Value     int64
	Timescale int32
	Flags     TimeFlags
	Epoch     int64
}

var (
	// ZeroTime is the valid time 0/1.
	ZeroTime = Time{Value: 0, Timescale: 1, Flags: TimeValid}

	// InvalidTime has no flags set.
	InvalidTime = Time{}
)

// NewTime returns a valid time of value/timescale.
func NewTime(value int64, timescale int32) Time {
	return Time{Value: value, Timescale: timescale, Flags: TimeValid}
}

// IsValid reports whether the valid flag is set.
func (t Time) IsValid() bool {
	return t.Flags&TimeValid != 0
}

// IsIndefinite reports whether the time is indefinite.
func (t Time) IsIndefinite() bool {
	return t.Flags&TimeIndefinite != 0
}

// IsPositiveInfinity reports whether the time is +inf.
func (t Time) IsPositiveInfinity() bool {
	return t.Flags&TimePositiveInfinity != 0
}

// IsNegativeInfinity reports whether the time is -inf.
func (t Time) IsNegativeInfinity() bool {
	return t.Flags&TimeNegativeInfinity != 0
}

// IsNumeric reports whether the time is valid and finite.
func (t Time) IsNumeric() bool {
	return t.IsValid() && t.Flags&(TimeIndefinite|TimePositiveInfinity|TimeNegativeInfinity) == 0
}

// IsZero reports whether the time is a numeric zero.
func (t Time) IsZero() bool {
	return t.IsNumeric() && t.Value == 0
}

// Seconds converts the time to seconds.
// Returns false if the time is not numeric or the timescale is 0.
func (t Time) Seconds() (float64, bool) {
	if !t.IsNumeric() || t.Timescale == 0 {
		return 0, false
	}
	return float64(t.Value) / float64(t.Timescale), true
}

// Equal reports whether t and o denote the same instant. Numeric times in
// different epochs never match; different timescales compare by seconds.
func (t Time) Equal(o Time) bool {
	if !t.IsNumeric() || !o.IsNumeric() {
		return t == o
	}
	if t.Epoch != o.Epoch {
		return false
	}
	if t.Timescale == o.Timescale {
		return t.Value == o.Value
	}
	// to within a nanosecond
	a, _ := t.Seconds()
	b, _ := o.Seconds()
	return math.Abs(a-b) < 1e-9
}

// String returns a debug representation.
func (t Time) String() string {
	switch {
	case !t.IsValid():
		return "invalid"
	case t.IsIndefinite():
		return "indefinite"
	case t.IsPositiveInfinity():
		return "+inf"
	case t.IsNegativeInfinity():
		return "-inf"
	}
	s, ok := t.Seconds()
	if !ok {
		return fmt.Sprintf("%d/%d", t.Value, t.Timescale)
	}
	return fmt.Sprintf("%d/%d (%.6fs)", t.Value, t.Timescale, s)
}
