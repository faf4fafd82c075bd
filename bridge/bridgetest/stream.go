//go:build !ios && !android && (amd64 || arm64)

package bridgetest

import (
	"encoding/binary"
	"time"

	"github.com/obinnaokechukwu/sckit/bridge"
	"github.com/obinnaokechukwu/sckit/cm"
)

type streamState struct {
	owner      uintptr
	filter     bridge.Handle
	config     bridge.Handle
	outputs    map[bridge.OutputType]bool
	recordings map[bridge.Handle]bool
	running    bool
	halt       chan struct{}
	done       chan struct{}
}

// stop signals the producer; it is called with the runtime lock held and
// does not wait.
func (s *streamState) stop() {
	if s.running {
		s.running = false
		close(s.halt)
	}
}

// FrameTag returns the tag a synthetic frame carries in its first four bytes.
func FrameTag(data []byte) uint32 {
	if len(data) < 4 {
		return 0
	}
	return binary.BigEndian.Uint32(data)
}

// StreamCreate implements bridge.Runtime.
func (r *Runtime) StreamCreate(filter, config bridge.Handle, owner uintptr) bridge.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	fo := r.useLocked(filter, bridge.KindContentFilter, "stream_create")
	co := r.useLocked(config, bridge.KindStreamConfiguration, "stream_create")
	if fo == nil || co == nil {
		return 0
	}
	fo.refs++
	co.refs++
	st := &streamState{
		owner:      owner,
		filter:     filter,
		config:     config,
		outputs:    make(map[bridge.OutputType]bool),
		recordings: make(map[bridge.Handle]bool),
	}
	return r.allocLocked(&object{
		kind:     bridge.KindStream,
		stream:   st,
		children: []bridge.Handle{filter, config},
	})
}

func (r *Runtime) streamLocked(stream bridge.Handle, op string) (*object, *streamState) {
	o := r.useLocked(stream, bridge.KindStream, op)
	if o == nil {
		return nil, nil
	}
	return o, o.stream
}

// StreamAddOutput implements bridge.Runtime.
func (r *Runtime) StreamAddOutput(stream bridge.Handle, t bridge.OutputType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg, failed := r.failureLocked("stream_add_output"); failed {
		return bridge.FromNative("add output", bridge.StreamError, msg)
	}
	_, st := r.streamLocked(stream, "stream_add_output")
	if st == nil {
		return bridge.NewError(bridge.InvalidParameter, "add output", "invalid stream")
	}
	st.outputs[t] = true
	return nil
}

// StreamRemoveOutput implements bridge.Runtime.
func (r *Runtime) StreamRemoveOutput(stream bridge.Handle, t bridge.OutputType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, st := r.streamLocked(stream, "stream_remove_output")
	if st == nil {
		return bridge.NewError(bridge.InvalidParameter, "remove output", "invalid stream")
	}
	if !st.outputs[t] {
		return bridge.FromNative("remove output", bridge.StreamError,
			bridge.FormatNative(bridge.CodeInvalidParameter, "output not added"))
	}
	delete(st.outputs, t)
	return nil
}

// StreamStartCapture implements bridge.Runtime.
func (r *Runtime) StreamStartCapture(stream bridge.Handle, ctx uintptr) {
	r.completeUnit("stream_start_capture", ctx, func() (bool, string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		o, st := r.streamLocked(stream, "stream_start_capture")
		switch {
		case st == nil:
			return false, bridge.FormatNative(bridge.CodeInvalidParameter, "invalid stream")
		case st.running:
			return false, bridge.FormatNative(bridge.CodeAttemptToStartStreamState, "stream already started")
		case r.closed:
			return false, bridge.FormatNative(bridge.CodeInternalError, "runtime closed")
		}
		st.running = true
		st.halt = make(chan struct{})
		st.done = make(chan struct{})
		var settings bridge.StreamSettings
		if co := r.objects[st.config]; co != nil {
			settings = co.settings
		}
		r.wg.Add(1)
		go r.produce(o, st, st.halt, st.done, settings)
		return true, ""
	})
}

// StreamStopCapture implements bridge.Runtime.
func (r *Runtime) StreamStopCapture(stream bridge.Handle, ctx uintptr) {
	r.completeUnit("stream_stop_capture", ctx, func() (bool, string) {
		r.mu.Lock()
		_, st := r.streamLocked(stream, "stream_stop_capture")
		if st == nil {
			r.mu.Unlock()
			return false, bridge.FormatNative(bridge.CodeInvalidParameter, "invalid stream")
		}
		if !st.running {
			r.mu.Unlock()
			return false, bridge.FormatNative(bridge.CodeAttemptToStopStreamState, "stream not started")
		}
		done := st.done
		st.stop()
		r.mu.Unlock()
		<-done
		return true, ""
	})
}

// StreamUpdateConfiguration implements bridge.Runtime.
func (r *Runtime) StreamUpdateConfiguration(stream, config bridge.Handle, ctx uintptr) {
	r.completeUnit("stream_update_configuration", ctx, func() (bool, string) {
		return r.swapChild(stream, config, bridge.KindStreamConfiguration, func(st *streamState) *bridge.Handle { return &st.config })
	})
}

// StreamUpdateContentFilter implements bridge.Runtime.
func (r *Runtime) StreamUpdateContentFilter(stream, filter bridge.Handle, ctx uintptr) {
	r.completeUnit("stream_update_content_filter", ctx, func() (bool, string) {
		return r.swapChild(stream, filter, bridge.KindContentFilter, func(st *streamState) *bridge.Handle { return &st.filter })
	})
}

func (r *Runtime) swapChild(stream, h bridge.Handle, k bridge.Kind, slot func(*streamState) *bridge.Handle) (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, st := r.streamLocked(stream, "stream_update")
	no := r.useLocked(h, k, "stream_update")
	if st == nil || no == nil {
		return false, bridge.FormatNative(bridge.CodeInvalidParameter, "invalid stream or argument")
	}
	no.refs++
	p := slot(st)
	old := *p
	*p = h
	for i, c := range o.children {
		if c == old {
			o.children[i] = h
			r.releaseLocked(k, old)
			return true, ""
		}
	}
	o.children = append(o.children, h)
	return true, ""
}

// StreamAddRecordingOutput implements bridge.Runtime.
func (r *Runtime) StreamAddRecordingOutput(stream, rec bridge.Handle, ctx uintptr) {
	r.completeUnit("stream_add_recording_output", ctx, func() (bool, string) {
		r.mu.Lock()
		o, st := r.streamLocked(stream, "stream_add_recording_output")
		ro := r.useLocked(rec, bridge.KindRecordingOutput, "stream_add_recording_output")
		if st == nil || ro == nil {
			r.mu.Unlock()
			return false, bridge.FormatNative(bridge.CodeInvalidParameter, "invalid stream or recording output")
		}
		if st.recordings[rec] {
			r.mu.Unlock()
			return false, "recording output already added"
		}
		ro.refs++
		o.children = append(o.children, rec)
		st.recordings[rec] = true
		owner := ro.owner
		r.mu.Unlock()
		r.callbacks().RecordingEvent(owner, bridge.RecordingStarted, "")
		return true, ""
	})
}

// StreamRemoveRecordingOutput implements bridge.Runtime.
func (r *Runtime) StreamRemoveRecordingOutput(stream, rec bridge.Handle, ctx uintptr) {
	r.completeUnit("stream_remove_recording_output", ctx, func() (bool, string) {
		r.mu.Lock()
		o, st := r.streamLocked(stream, "stream_remove_recording_output")
		if st == nil || !st.recordings[rec] {
			r.mu.Unlock()
			return false, "recording output not added"
		}
		delete(st.recordings, rec)
		owner := r.objects[rec].owner
		for i, c := range o.children {
			if c == rec {
				o.children = append(o.children[:i], o.children[i+1:]...)
				break
			}
		}
		r.releaseLocked(bridge.KindRecordingOutput, rec)
		r.mu.Unlock()
		r.callbacks().RecordingEvent(owner, bridge.RecordingFinished, "")
		return true, ""
	})
}

// RecordingOutputCreate implements bridge.Runtime. An empty path yields a
// null handle.
func (r *Runtime) RecordingOutputCreate(path string, codec bridge.RecordingCodec, owner uintptr) bridge.Handle {
	if path == "" {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocLocked(&object{kind: bridge.KindRecordingOutput, owner: owner, path: path})
}

// FailRecording reports a recording failure for rec to its delegate.
func (r *Runtime) FailRecording(rec bridge.Handle, msg string) {
	r.mu.Lock()
	o := r.useLocked(rec, bridge.KindRecordingOutput, "fail_recording")
	r.mu.Unlock()
	if o == nil {
		return
	}
	r.callbacks().RecordingEvent(o.owner, bridge.RecordingFailed, msg)
}

// FailStream stops stream and reports msg to its delegate.
func (r *Runtime) FailStream(stream bridge.Handle, msg string) {
	r.mu.Lock()
	_, st := r.streamLocked(stream, "fail_stream")
	if st == nil {
		r.mu.Unlock()
		return
	}
	var done chan struct{}
	if st.running {
		done = st.done
		st.stop()
	}
	owner := st.owner
	r.mu.Unlock()
	if done != nil {
		<-done
	}
	r.callbacks().StreamError(owner, msg)
}

// Running reports whether stream is capturing.
func (r *Runtime) Running(stream bridge.Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.objects[stream]
	return ok && !o.dead && o.stream != nil && o.stream.running
}

// produce emits one sample per added output every FrameInterval until halted,
// the stream dies, or FrameLimit is reached.
func (r *Runtime) produce(so *object, st *streamState, halt, done chan struct{}, s bridge.StreamSettings) {
	defer r.wg.Done()
	defer close(done)

	interval := r.FrameInterval
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}
	fps := s.FrameRate
	if fps <= 0 {
		fps = 30
	}
	w, h := int(s.Width), int(s.Height)
	if w <= 0 || h <= 0 {
		w, h = 8, 8
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for seq := 0; r.FrameLimit == 0 || seq < r.FrameLimit; seq++ {
		select {
		case <-halt:
			return
		case <-ticker.C:
		}

		r.mu.Lock()
		if so.dead {
			r.mu.Unlock()
			return
		}
		type delivery struct {
			t   bridge.OutputType
			buf bridge.Handle
		}
		var out []delivery
		for _, t := range []bridge.OutputType{bridge.OutputScreen, bridge.OutputAudio, bridge.OutputMicrophone} {
			if !st.outputs[t] {
				continue
			}
			out = append(out, delivery{t, r.sampleLocked(t, seq, fps, w, h)})
		}
		owner := st.owner
		r.mu.Unlock()

		cb := r.callbacks()
		for _, d := range out {
			cb.OutputSample(owner, d.t, d.buf)
		}
	}
}

func (r *Runtime) sampleLocked(t bridge.OutputType, seq int, fps int32, w, h int) bridge.Handle {
	timing := cm.SampleTiming{
		Duration:     cm.NewTime(1, fps),
		Presentation: cm.NewTime(int64(seq), fps),
		Decode:       cm.InvalidTime,
	}
	sample := &object{kind: bridge.KindSampleBuffer, timing: timing}
	if t != bridge.OutputScreen {
		sample.numSamples = 1024
		return r.allocLocked(sample)
	}

	data := make([]byte, w*h*4)
	binary.BigEndian.PutUint32(data, uint32(seq))
	pb := r.allocLocked(&object{
		kind:   bridge.KindPixelBuffer,
		data:   data,
		width:  w,
		height: h,
		stride: w * 4,
		format: bridge.PixelFormatBGRA,
	})
	sample.imageBuffer = pb
	sample.children = []bridge.Handle{pb}
	sample.numSamples = 1
	sample.hasStatus = true
	if seq == 0 {
		sample.status = int32(cm.FrameStarted)
	} else {
		sample.status = int32(cm.FrameComplete)
	}
	return r.allocLocked(sample)
}

// SampleBufferTiming implements bridge.Runtime.
func (r *Runtime) SampleBufferTiming(buf bridge.Handle) cm.SampleTiming {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.useLocked(buf, bridge.KindSampleBuffer, "sample_buffer_timing")
	if o == nil {
		return cm.SampleTiming{}
	}
	return o.timing
}

// SampleBufferFrameStatus implements bridge.Runtime.
func (r *Runtime) SampleBufferFrameStatus(buf bridge.Handle) (int32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.useLocked(buf, bridge.KindSampleBuffer, "sample_buffer_frame_status")
	if o == nil {
		return 0, false
	}
	return o.status, o.hasStatus
}

// SampleBufferImageBuffer implements bridge.Runtime.
func (r *Runtime) SampleBufferImageBuffer(buf bridge.Handle) bridge.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.useLocked(buf, bridge.KindSampleBuffer, "sample_buffer_image_buffer")
	if o == nil {
		return 0
	}
	return o.imageBuffer
}

// SampleBufferNumSamples implements bridge.Runtime.
func (r *Runtime) SampleBufferNumSamples(buf bridge.Handle) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.useLocked(buf, bridge.KindSampleBuffer, "sample_buffer_num_samples")
	if o == nil {
		return 0
	}
	return o.numSamples
}

// PixelBufferLock implements bridge.Runtime.
func (r *Runtime) PixelBufferLock(pb bridge.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.useLocked(pb, bridge.KindPixelBuffer, "pixel_buffer_lock")
	if o == nil {
		return bridge.ErrReleased
	}
	o.locked++
	return nil
}

// PixelBufferUnlock implements bridge.Runtime.
func (r *Runtime) PixelBufferUnlock(pb bridge.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.useLocked(pb, bridge.KindPixelBuffer, "pixel_buffer_unlock")
	if o == nil {
		return
	}
	if o.locked == 0 {
		r.violate("pixel_buffer_unlock: %s not locked", pb)
		return
	}
	o.locked--
}

// PixelBufferDimensions implements bridge.Runtime.
func (r *Runtime) PixelBufferDimensions(pb bridge.Handle) (int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.useLocked(pb, bridge.KindPixelBuffer, "pixel_buffer_dimensions")
	if o == nil {
		return 0, 0, 0
	}
	return o.width, o.height, o.stride
}

// PixelBufferFormat implements bridge.Runtime.
func (r *Runtime) PixelBufferFormat(pb bridge.Handle) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.useLocked(pb, bridge.KindPixelBuffer, "pixel_buffer_format")
	if o == nil {
		return 0
	}
	return o.format
}

// PixelBufferBytes implements bridge.Runtime. A released buffer yields its
// poisoned bytes after recording the violation.
func (r *Runtime) PixelBufferBytes(pb bridge.Handle) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.objects[pb]
	if !ok {
		r.violate("pixel_buffer_bytes: unknown handle %s", pb)
		return nil
	}
	if o.dead {
		r.violate("pixel_buffer_bytes: use after release of %s", pb)
		return o.data
	}
	if o.locked == 0 {
		r.violate("pixel_buffer_bytes: %s read without lock", pb)
	}
	return o.data
}
