//go:build !ios && !android && (amd64 || arm64)

package bridge

// Hooks observes bridge events for metrics. Implementations must be safe for
// concurrent use and must not block.
type Hooks interface {
	CompletionResolved(op string)
	// CompletionDropped counts second notifications and late completions
	// after a timeout.
	CompletionDropped(op string)
	FrameDelivered(t OutputType)
	// FrameUnhandled counts samples released because no handler was
	// registered.
	FrameUnhandled(t OutputType)
	ObserverStale()
	HandlerPanicked(c Category)
}

// NopHooks ignores every event.
type NopHooks struct{}

func (NopHooks) CompletionResolved(string)  {}
func (NopHooks) CompletionDropped(string)   {}
func (NopHooks) FrameDelivered(OutputType)  {}
func (NopHooks) FrameUnhandled(OutputType)  {}
func (NopHooks) ObserverStale()             {}
func (NopHooks) HandlerPanicked(Category)   {}
