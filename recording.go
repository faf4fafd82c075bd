//go:build !ios && !android && (amd64 || arm64)

package sckit

import (
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/obinnaokechukwu/sckit/bridge"
)

// RecordingCodec selects the video codec of a recording output.
type RecordingCodec = bridge.RecordingCodec

// Recording codecs.
const (
	CodecH264 = bridge.CodecH264
	CodecHEVC = bridge.CodecHEVC
)

// RecordingEvent is a recording output delegate event.
type RecordingEvent = bridge.RecordingEvent

// Recording events.
const (
	RecordingStarted  = bridge.RecordingStarted
	RecordingFinished = bridge.RecordingFinished
	RecordingFailed   = bridge.RecordingFailed
)

// RecordingDelegate receives recording events; err is set only for
// RecordingFailed.
type RecordingDelegate = bridge.RecordingDelegate

// RecordingDelegateFunc adapts a function to RecordingDelegate.
type RecordingDelegateFunc func(ev RecordingEvent, err error)

// RecordingEvent calls fn(ev, err).
func (fn RecordingDelegateFunc) RecordingEvent(ev RecordingEvent, err error) { fn(ev, err) }

// RecordingOutput writes a stream to a movie file once added to a Stream.
type RecordingOutput struct {
	s     *Session
	ref   *bridge.Ref
	owner bridge.OwnerID
	path  string
	codec RecordingCodec
}

// NewRecordingOutput creates a recording output writing to path. An empty
// path picks a unique file in Config.Recording.Dir. delegate may be nil.
func (s *Session) NewRecordingOutput(path string, codec RecordingCodec, delegate RecordingDelegate) (*RecordingOutput, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if path == "" {
		path = filepath.Join(s.cfg.Recording.Dir, "sckit-"+uuid.NewString()+".mp4")
	}

	owner := s.d.Arena.Reserve()
	if delegate != nil {
		s.d.Recordings.Register(owner, bridge.CategoryRecordingDelegate, delegate)
	}
	h := s.rt.RecordingOutputCreate(path, codec, uintptr(owner))
	ref, err := bridge.Adopt(s.rt, bridge.KindRecordingOutput, h)
	if err != nil {
		s.d.Recordings.UnregisterOwner(owner)
		s.d.Arena.Forget(owner)
		return nil, bridge.NewError(bridge.RecordingError, "new recording output", "cannot record to "+path)
	}
	s.d.Arena.Bind(owner, h)
	s.log.Debug("recording output created", zap.String("path", path), zap.Int32("codec", int32(codec)))
	return &RecordingOutput{s: s, ref: ref, owner: owner, path: path, codec: codec}, nil
}

// Path returns the output file path.
func (r *RecordingOutput) Path() string {
	return r.path
}

// Codec returns the output codec.
func (r *RecordingOutput) Codec() RecordingCodec {
	return r.codec
}

func (r *RecordingOutput) handle() (bridge.Handle, error) {
	if r == nil {
		return 0, bridge.ErrNullHandle
	}
	return r.ref.Handle()
}

// Release unregisters the delegate and gives the output back. A stream it
// is still attached to keeps its own reference.
func (r *RecordingOutput) Release() {
	if r == nil || r.ref.Released() {
		return
	}
	r.s.d.Recordings.UnregisterOwner(r.owner)
	r.s.d.Arena.Forget(r.owner)
	r.ref.Release()
}
