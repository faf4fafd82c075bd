//go:build !ios && !android && (amd64 || arm64)

package cm

import "fmt"

// FrameStatus is the per-frame status attached to screen samples
// (SCFrameStatus).
type FrameStatus int32

// Frame status values.
const (
	FrameComplete  FrameStatus = 0 // new content
	FrameIdle      FrameStatus = 1 // no change since last frame
	FrameBlank     FrameStatus = 2
	FrameSuspended FrameStatus = 3
	FrameStarted   FrameStatus = 4 // first frame after start
	FrameStopped   FrameStatus = 5
)

// ParseFrameStatus converts a raw native value. Unknown values report false.
func ParseFrameStatus(raw int32) (FrameStatus, bool) {
	if raw < int32(FrameComplete) || raw > int32(FrameStopped) {
		return 0, false
	}
	return FrameStatus(raw), true
}

// HasContent reports whether the frame carries new pixel content.
func (s FrameStatus) HasContent() bool {
	return s == FrameComplete || s == FrameStarted
}

// String returns the status name.
func (s FrameStatus) String() string {
	switch s {
	case FrameComplete:
		return "complete"
	case FrameIdle:
		return "idle"
	case FrameBlank:
		return "blank"
	case FrameSuspended:
		return "suspended"
	case FrameStarted:
		return "started"
	case FrameStopped:
		return "stopped"
	default:
		return fmt.Sprintf("FrameStatus(%d)", int32(s))
	}
}
