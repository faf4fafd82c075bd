//go:build !ios && !android && (amd64 || arm64)

package cm

import (
	"math"
	"testing"
	"time"
)

func TestTimeFlags(t *testing.T) {
	tests := []struct {
		name    string
		tm      Time
		valid   bool
		numeric bool
	}{
		{"zero", ZeroTime, true, true},
		{"invalid", InvalidTime, false, false},
		{"indefinite", Time{Flags: TimeValid | TimeIndefinite}, true, false},
		{"+inf", Time{Flags: TimeValid | TimePositiveInfinity}, true, false},
		{"-inf", Time{Flags: TimeValid | TimeNegativeInfinity}, true, false},
		{"rounded", Time{Value: 3, Timescale: 2, Flags: TimeValid | TimeHasBeenRounded}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tm.IsValid(); got != tt.valid {
				t.Errorf("IsValid = %v, want %v", got, tt.valid)
			}
			if got := tt.tm.IsNumeric(); got != tt.numeric {
				t.Errorf("IsNumeric = %v, want %v", got, tt.numeric)
			}
		})
	}
}

func TestTimeSeconds(t *testing.T) {
	s, ok := NewTime(90, 30).Seconds()
	if !ok || s != 3 {
		t.Fatalf("Seconds = %v, %v", s, ok)
	}
	if _, ok := NewTime(1, 0).Seconds(); ok {
		t.Error("zero timescale should not convert")
	}
	if _, ok := InvalidTime.Seconds(); ok {
		t.Error("invalid time should not convert")
	}
}

func TestTimeEqual(t *testing.T) {
	if !NewTime(1, 30).Equal(NewTime(2, 60)) {
		t.Error("1/30 should equal 2/60")
	}
	if NewTime(1, 30).Equal(NewTime(1, 60)) {
		t.Error("1/30 should not equal 1/60")
	}
	a := NewTime(1, 30)
	b := a
	b.Epoch = 1
	if a.Equal(b) {
		t.Error("different epochs should not be equal")
	}
}

func TestSampleTimingDurations(t *testing.T) {
	st := SampleTiming{
		Duration:     NewTime(1, 30),
		Presentation: NewTime(600, 600),
		Decode:       InvalidTime,
	}
	if !st.HasPresentation() || !st.HasDuration() || st.HasDecode() {
		t.Fatalf("unexpected validity: %+v", st)
	}
	d, ok := st.PresentationDuration()
	if !ok || d != time.Second {
		t.Errorf("PresentationDuration = %v, %v", d, ok)
	}
	fd, ok := st.FrameDuration()
	if !ok || fd != time.Second/30 {
		t.Errorf("FrameDuration = %v, %v", fd, ok)
	}
}

func TestHostClockDurations(t *testing.T) {
	tests := []struct {
		name string
		in   Time
		want time.Duration
		ok   bool
	}{
		{"hour at ns timescale", NewTime(int64(time.Hour), 1_000_000_000), time.Hour, true},
		{"day at ns timescale", NewTime(int64(24*time.Hour)+7, 1_000_000_000), 24*time.Hour + 7, true},
		{"negative", NewTime(-3*600-300, 600), -3*time.Second - 500*time.Millisecond, true},
		{"ninety kHz", NewTime(90_000*3600+45_000, 90_000), time.Hour + 500*time.Millisecond, true},
		{"too large", NewTime(math.MaxInt64, 1), 0, false},
		{"zero timescale", Time{Value: 1, Flags: TimeValid}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SampleTiming{Presentation: tt.in}.PresentationDuration()
			if ok != tt.ok || got != tt.want {
				t.Errorf("PresentationDuration() = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestFrameStatus(t *testing.T) {
	for raw := int32(0); raw <= 5; raw++ {
		s, ok := ParseFrameStatus(raw)
		if !ok {
			t.Fatalf("ParseFrameStatus(%d) failed", raw)
		}
		want := s == FrameComplete || s == FrameStarted
		if s.HasContent() != want {
			t.Errorf("%s.HasContent() = %v", s, s.HasContent())
		}
	}
	if _, ok := ParseFrameStatus(6); ok {
		t.Error("6 should be rejected")
	}
	if _, ok := ParseFrameStatus(-1); ok {
		t.Error("-1 should be rejected")
	}
	if FrameIdle.String() != "idle" {
		t.Errorf("String = %q", FrameIdle.String())
	}
}
