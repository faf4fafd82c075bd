//go:build !ios && !android && (amd64 || arm64)

package sckit

import (
	"context"
	"sync"

	"github.com/obinnaokechukwu/sckit/bridge"
)

// FrameQueue is a FrameHandler that buffers up to depth frames for a
// consumer calling Next. When full, the oldest frame is released to make
// room, the same policy the native capture queue applies.
//
// Frames returned by Next are owned by the caller.
type FrameQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	frames  []*Frame
	depth   int
	closed  bool
	dropped uint64

	onDrop func(OutputType)
}

// NewFrameQueue returns a queue holding at most depth frames (minimum 1).
func NewFrameQueue(depth int) *FrameQueue {
	if depth < 1 {
		depth = 1
	}
	q := &FrameQueue{depth: depth, frames: make([]*Frame, 0, depth)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// HandleFrame implements FrameHandler.
func (q *FrameQueue) HandleFrame(f *Frame) {
	var evicted *Frame

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		f.Release()
		return
	}
	if len(q.frames) == q.depth {
		evicted = q.frames[0]
		copy(q.frames, q.frames[1:])
		q.frames = q.frames[:len(q.frames)-1]
		q.dropped++
	}
	q.frames = append(q.frames, f)
	q.cond.Signal()
	q.mu.Unlock()

	if evicted != nil {
		if q.onDrop != nil {
			q.onDrop(evicted.OutputType())
		}
		evicted.Release()
	}
}

// Next returns the oldest buffered frame, blocking until one arrives, the
// queue is closed (ErrQueueClosed) or ctx ends.
func (q *FrameQueue) Next(ctx context.Context) (*Frame, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.frames) == 0 && !q.closed && ctx.Err() == nil {
		q.cond.Wait()
	}
	switch {
	case len(q.frames) > 0:
		f := q.frames[0]
		q.frames[0] = nil
		q.frames = q.frames[1:]
		if len(q.frames) == 0 {
			q.frames = make([]*Frame, 0, q.depth)
		}
		return f, nil
	case q.closed:
		return nil, ErrQueueClosed
	default:
		return nil, ctx.Err()
	}
}

// Len returns the number of buffered frames.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Dropped returns how many frames were evicted because the queue was full.
func (q *FrameQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Close releases buffered frames and wakes blocked consumers. Frames
// delivered afterwards are released on arrival.
func (q *FrameQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	pending := q.frames
	q.frames = nil
	q.cond.Broadcast()
	q.mu.Unlock()

	for _, f := range pending {
		f.Release()
	}
}

// Drop implements bridge.Dropper; the queue closes when it is unregistered
// or replaced.
func (q *FrameQueue) Drop() {
	q.Close()
}

var (
	_ FrameHandler   = (*FrameQueue)(nil)
	_ bridge.Dropper = (*FrameQueue)(nil)
)
