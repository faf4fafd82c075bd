//go:build !ios && !android && (amd64 || arm64)

package sckit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/obinnaokechukwu/sckit/bridge"
)

// Frame is one delivered sample buffer; see bridge.Frame.
type Frame = bridge.Frame

// FrameHandler receives the frames of one output of a stream and owns each
// frame it is given.
type FrameHandler = bridge.FrameHandler

// FrameHandlerFunc adapts a function to FrameHandler.
type FrameHandlerFunc = bridge.FrameHandlerFunc

// OutputType selects a stream output.
type OutputType = bridge.OutputType

// Stream outputs.
const (
	OutputScreen     = bridge.OutputScreen
	OutputAudio      = bridge.OutputAudio
	OutputMicrophone = bridge.OutputMicrophone
)

// StreamDelegate is told when a stream stops because of an error.
type StreamDelegate = bridge.StreamDelegate

// StreamDelegateFunc adapts a function to StreamDelegate.
type StreamDelegateFunc func(err error)

// StreamStopped calls fn(err).
func (fn StreamDelegateFunc) StreamStopped(err error) { fn(err) }

// streamCore is shared by a stream and its clones.
type streamCore struct {
	owner bridge.OwnerID

	mu      sync.Mutex
	refs    int
	outputs map[OutputType]bool
}

// Stream is a capture stream. Handlers and the delegate are registered
// against the stream's identity, so clones share them.
type Stream struct {
	s      *Session
	core   *streamCore
	ref    *bridge.Ref
	closed atomic.Bool
}

// NewStream creates a stream over filter and config. delegate may be nil.
// The stream holds its own native references to filter and config.
func (s *Session) NewStream(filter *ContentFilter, config *StreamConfiguration, delegate StreamDelegate) (*Stream, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	fh, err := filter.handle()
	if err != nil {
		return nil, fmt.Errorf("new stream: filter: %w", err)
	}
	ch, err := config.handle()
	if err != nil {
		return nil, fmt.Errorf("new stream: configuration: %w", err)
	}

	owner := s.d.Arena.Reserve()
	if delegate != nil {
		s.d.Streams.Register(owner, bridge.CategoryStreamDelegate, delegate)
	}
	h := s.rt.StreamCreate(fh, ch, uintptr(owner))
	ref, err := bridge.Adopt(s.rt, bridge.KindStream, h)
	if err != nil {
		s.d.Streams.UnregisterOwner(owner)
		s.d.Arena.Forget(owner)
		return nil, bridge.NewError(bridge.StreamError, "new stream", "native stream creation failed")
	}
	s.d.Arena.Bind(owner, h)

	s.log.Debug("stream created", zap.Uintptr("owner", uintptr(owner)), zap.Stringer("filter", filter))
	return &Stream{
		s:    s,
		core: &streamCore{owner: owner, refs: 1, outputs: make(map[OutputType]bool)},
		ref:  ref,
	}, nil
}

// Owner returns the identity native callbacks use for this stream.
func (st *Stream) Owner() bridge.OwnerID {
	return st.core.owner
}

// SetHandler routes output t to h, adding the output to the native stream
// the first time. A handler already registered for t is replaced; if it
// implements bridge.Dropper it is told so.
func (st *Stream) SetHandler(t OutputType, h FrameHandler) error {
	if !t.Valid() {
		return bridge.NewError(bridge.InvalidParameter, "set handler", fmt.Sprintf("unknown output type %d", t))
	}
	if h == nil {
		return bridge.NewError(bridge.InvalidParameter, "set handler", "nil handler")
	}
	sh, err := st.ref.Handle()
	if err != nil {
		return err
	}

	st.core.mu.Lock()
	defer st.core.mu.Unlock()
	st.s.d.Outputs.Register(st.core.owner, t.Category(), h)
	if st.core.outputs[t] {
		return nil
	}
	if err := st.s.rt.StreamAddOutput(sh, t); err != nil {
		st.s.d.Outputs.Unregister(st.core.owner, t.Category())
		return err
	}
	st.core.outputs[t] = true
	return nil
}

// RemoveHandler removes the handler for t and the output from the native
// stream. Removing an output that has no handler is a no-op.
func (st *Stream) RemoveHandler(t OutputType) error {
	st.core.mu.Lock()
	defer st.core.mu.Unlock()
	st.s.d.Outputs.Unregister(st.core.owner, t.Category())
	if !st.core.outputs[t] {
		return nil
	}
	delete(st.core.outputs, t)
	sh, err := st.ref.Handle()
	if err != nil {
		return err
	}
	return st.s.rt.StreamRemoveOutput(sh, t)
}

// Frames installs a FrameQueue of the given depth as the handler for t and
// returns it. A depth of 0 uses Config.QueueDepth.
func (st *Stream) Frames(t OutputType, depth int) (*FrameQueue, error) {
	if depth <= 0 {
		depth = st.s.cfg.QueueDepth
	}
	q := NewFrameQueue(depth)
	q.onDrop = st.s.metrics.queueDropped
	if err := st.SetHandler(t, q); err != nil {
		q.Close()
		return nil, err
	}
	return q, nil
}

// SetDelegate replaces the stream delegate. nil removes it.
func (st *Stream) SetDelegate(d StreamDelegate) {
	if d == nil {
		st.s.d.Streams.Unregister(st.core.owner, bridge.CategoryStreamDelegate)
		return
	}
	st.s.d.Streams.Register(st.core.owner, bridge.CategoryStreamDelegate, d)
}

func (st *Stream) unit(op string, call func(sh bridge.Handle, ctx uintptr) error) *bridge.Pending[struct{}] {
	return st.s.unit(op, bridge.StreamError, func(ctx uintptr) error {
		sh, err := st.ref.Handle()
		if err != nil {
			return err
		}
		return call(sh, ctx)
	})
}

// StartAsync starts capturing.
func (st *Stream) StartAsync() *bridge.Pending[struct{}] {
	return st.unit("start capture", func(sh bridge.Handle, ctx uintptr) error {
		st.s.rt.StreamStartCapture(sh, ctx)
		return nil
	})
}

// Start starts capturing and waits for the native side to confirm.
func (st *Stream) Start(ctx context.Context) error {
	_, err := await(ctx, st.s, st.StartAsync())
	return err
}

// StopAsync stops capturing.
func (st *Stream) StopAsync() *bridge.Pending[struct{}] {
	return st.unit("stop capture", func(sh bridge.Handle, ctx uintptr) error {
		st.s.rt.StreamStopCapture(sh, ctx)
		return nil
	})
}

// Stop stops capturing and waits for the native side to confirm.
func (st *Stream) Stop(ctx context.Context) error {
	_, err := await(ctx, st.s, st.StopAsync())
	return err
}

// UpdateConfigurationAsync applies config to the running stream.
func (st *Stream) UpdateConfigurationAsync(config *StreamConfiguration) *bridge.Pending[struct{}] {
	return st.unit("update configuration", func(sh bridge.Handle, ctx uintptr) error {
		ch, err := config.handle()
		if err != nil {
			return err
		}
		st.s.rt.StreamUpdateConfiguration(sh, ch, ctx)
		return nil
	})
}

// UpdateConfiguration applies config and waits.
func (st *Stream) UpdateConfiguration(ctx context.Context, config *StreamConfiguration) error {
	_, err := await(ctx, st.s, st.UpdateConfigurationAsync(config))
	return err
}

// UpdateContentFilterAsync switches the stream to filter.
func (st *Stream) UpdateContentFilterAsync(filter *ContentFilter) *bridge.Pending[struct{}] {
	return st.unit("update content filter", func(sh bridge.Handle, ctx uintptr) error {
		fh, err := filter.handle()
		if err != nil {
			return err
		}
		st.s.rt.StreamUpdateContentFilter(sh, fh, ctx)
		return nil
	})
}

// UpdateContentFilter switches the stream to filter and waits.
func (st *Stream) UpdateContentFilter(ctx context.Context, filter *ContentFilter) error {
	_, err := await(ctx, st.s, st.UpdateContentFilterAsync(filter))
	return err
}

// AddRecordingOutputAsync attaches rec to the stream.
func (st *Stream) AddRecordingOutputAsync(rec *RecordingOutput) *bridge.Pending[struct{}] {
	return st.s.unit("add recording output", bridge.RecordingError, func(ctx uintptr) error {
		sh, err := st.ref.Handle()
		if err != nil {
			return err
		}
		rh, err := rec.handle()
		if err != nil {
			return err
		}
		st.s.rt.StreamAddRecordingOutput(sh, rh, ctx)
		return nil
	})
}

// AddRecordingOutput attaches rec and waits.
func (st *Stream) AddRecordingOutput(ctx context.Context, rec *RecordingOutput) error {
	_, err := await(ctx, st.s, st.AddRecordingOutputAsync(rec))
	return err
}

// RemoveRecordingOutputAsync detaches rec, finishing the file.
func (st *Stream) RemoveRecordingOutputAsync(rec *RecordingOutput) *bridge.Pending[struct{}] {
	return st.s.unit("remove recording output", bridge.RecordingError, func(ctx uintptr) error {
		sh, err := st.ref.Handle()
		if err != nil {
			return err
		}
		rh, err := rec.handle()
		if err != nil {
			return err
		}
		st.s.rt.StreamRemoveRecordingOutput(sh, rh, ctx)
		return nil
	})
}

// RemoveRecordingOutput detaches rec and waits.
func (st *Stream) RemoveRecordingOutput(ctx context.Context, rec *RecordingOutput) error {
	_, err := await(ctx, st.s, st.RemoveRecordingOutputAsync(rec))
	return err
}

// Clone returns another Stream for the same native stream. Handlers stay
// shared; each clone must be closed.
func (st *Stream) Clone() (*Stream, error) {
	ref, err := st.ref.Clone()
	if err != nil {
		return nil, err
	}
	st.core.mu.Lock()
	st.core.refs++
	st.core.mu.Unlock()
	return &Stream{s: st.s, core: st.core, ref: ref}, nil
}

// Close releases this stream reference. Closing the last clone unregisters
// every handler and the delegate; the native stream stops once nothing else
// holds it.
func (st *Stream) Close() error {
	if st == nil || st.closed.Swap(true) {
		return nil
	}
	st.core.mu.Lock()
	st.core.refs--
	last := st.core.refs == 0
	st.core.mu.Unlock()

	if last {
		n := st.s.d.Outputs.UnregisterOwner(st.core.owner)
		st.s.d.Streams.UnregisterOwner(st.core.owner)
		st.s.d.Arena.Forget(st.core.owner)
		st.s.log.Debug("stream closed", zap.Uintptr("owner", uintptr(st.core.owner)), zap.Int("handlers", n))
	}
	st.ref.Release()
	return nil
}
