//go:build !ios && !android && (amd64 || arm64)

package sckit_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/sckit"
	"github.com/obinnaokechukwu/sckit/bridge"
	"github.com/obinnaokechukwu/sckit/bridge/bridgetest"
)

type recordingEvent struct {
	ev  sckit.RecordingEvent
	err error
}

func nextEvent(t *testing.T, events <-chan recordingEvent) recordingEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no recording event")
		return recordingEvent{}
	}
}

func TestRecordingOutput(t *testing.T) {
	dir := t.TempDir()
	e := newEnv(t, func(_ *bridgetest.Runtime, cfg *sckit.Config) { cfg.Recording.Dir = dir })
	st := e.displayStream(t, sckit.StreamSettings{}, nil)

	events := make(chan recordingEvent, 4)
	rec, err := e.s.NewRecordingOutput("", sckit.CodecHEVC, sckit.RecordingDelegateFunc(func(ev sckit.RecordingEvent, err error) {
		events <- recordingEvent{ev, err}
	}))
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(rec.Path()))
	assert.True(t, strings.HasSuffix(rec.Path(), ".mp4"))
	assert.Equal(t, sckit.CodecHEVC, rec.Codec())

	require.NoError(t, st.AddRecordingOutput(context.Background(), rec))
	assert.Equal(t, sckit.RecordingStarted, nextEvent(t, events).ev)

	err = st.AddRecordingOutput(context.Background(), rec)
	require.ErrorIs(t, err, bridge.ErrRecording)

	recs := e.rt.Handles(bridge.KindRecordingOutput)
	require.Len(t, recs, 1)
	e.rt.FailRecording(recs[0], "disk full")
	failed := nextEvent(t, events)
	assert.Equal(t, sckit.RecordingFailed, failed.ev)
	require.ErrorIs(t, failed.err, bridge.ErrRecording)
	assert.Contains(t, failed.err.Error(), "disk full")

	require.NoError(t, st.RemoveRecordingOutput(context.Background(), rec))
	assert.Equal(t, sckit.RecordingFinished, nextEvent(t, events).ev)

	rec.Release()
	rec.Release()
	require.NoError(t, st.Close())
	e.requireClean(t)
}

func TestRecordingOutputOutlivesRelease(t *testing.T) {
	e := newEnv(t)
	st := e.displayStream(t, sckit.StreamSettings{}, nil)

	rec, err := e.s.NewRecordingOutput(filepath.Join(t.TempDir(), "out.mov"), sckit.CodecH264, nil)
	require.NoError(t, err)
	require.NoError(t, st.AddRecordingOutput(context.Background(), rec))
	rec.Release()

	// The stream keeps the native output alive.
	assert.Equal(t, 1, e.rt.LiveKind(bridge.KindRecordingOutput))
	err = st.RemoveRecordingOutput(context.Background(), rec)
	require.ErrorIs(t, err, sckit.ErrReleased)

	require.NoError(t, st.Close())
	e.requireClean(t)
}
