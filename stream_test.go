//go:build !ios && !android && (amd64 || arm64)

package sckit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/sckit"
	"github.com/obinnaokechukwu/sckit/bridge"
	"github.com/obinnaokechukwu/sckit/bridge/bridgetest"
)

func nextTag(t *testing.T, q *sckit.FrameQueue) uint32 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	f, err := q.Next(ctx)
	require.NoError(t, err)
	defer f.Release()

	pb, err := f.ImageBuffer()
	require.NoError(t, err)
	var tag uint32
	require.NoError(t, pb.Read(func(data []byte) error {
		tag = bridgetest.FrameTag(data)
		return nil
	}))
	return tag
}

func TestStreamFrames(t *testing.T) {
	e := newEnv(t, fastFrames(10))
	st := e.displayStream(t, sckit.StreamSettings{Width: 16, Height: 8, FrameRate: 30}, nil)

	q, err := st.Frames(sckit.OutputScreen, 16)
	require.NoError(t, err)
	require.NoError(t, st.Start(context.Background()))

	for want := uint32(0); want < 10; want++ {
		require.Equal(t, want, nextTag(t, q))
	}

	require.NoError(t, st.Stop(context.Background()))
	require.NoError(t, st.Close())
	require.NoError(t, st.Close())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = q.Next(ctx)
	require.ErrorIs(t, err, sckit.ErrQueueClosed, "closing the stream closes its queues")
	e.requireClean(t)
}

func TestSetHandlerRejectsBadInput(t *testing.T) {
	e := newEnv(t)
	st := e.displayStream(t, sckit.StreamSettings{}, nil)
	defer st.Close()

	err := st.SetHandler(sckit.OutputType(9), sckit.NewFrameQueue(1))
	require.ErrorIs(t, err, bridge.ErrInvalidParameter)
	err = st.SetHandler(sckit.OutputScreen, nil)
	require.ErrorIs(t, err, bridge.ErrInvalidParameter)
}

func TestSetHandlerAddOutputFailure(t *testing.T) {
	e := newEnv(t)
	st := e.displayStream(t, sckit.StreamSettings{}, nil)
	defer st.Close()

	e.rt.FailNext("stream_add_output", bridge.CodeFailedToStartAudioCapture, "no audio device")
	q := sckit.NewFrameQueue(1)
	err := st.SetHandler(sckit.OutputAudio, q)
	require.Error(t, err)
	assert.Equal(t, sckit.StreamError, sckit.KindOf(err))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = q.Next(ctx)
	require.ErrorIs(t, err, sckit.ErrQueueClosed, "a handler whose output failed is dropped")

	require.NoError(t, st.SetHandler(sckit.OutputAudio, sckit.NewFrameQueue(1)))
}

func TestRemoveHandler(t *testing.T) {
	e := newEnv(t, fastFrames(3))
	st := e.displayStream(t, sckit.StreamSettings{}, nil)

	q, err := st.Frames(sckit.OutputScreen, 0)
	require.NoError(t, err)
	require.NoError(t, st.RemoveHandler(sckit.OutputScreen))
	require.NoError(t, st.RemoveHandler(sckit.OutputScreen))
	require.NoError(t, st.RemoveHandler(sckit.OutputMicrophone))

	_, err = q.Next(context.Background())
	require.ErrorIs(t, err, sckit.ErrQueueClosed)

	require.NoError(t, st.Close())
	e.requireClean(t)
}

func TestReplacingHandlerClosesPreviousQueue(t *testing.T) {
	e := newEnv(t)
	st := e.displayStream(t, sckit.StreamSettings{}, nil)
	defer st.Close()

	first, err := st.Frames(sckit.OutputScreen, 2)
	require.NoError(t, err)
	second, err := st.Frames(sckit.OutputScreen, 2)
	require.NoError(t, err)

	_, err = first.Next(context.Background())
	require.ErrorIs(t, err, sckit.ErrQueueClosed)
	assert.Zero(t, second.Len())
}

func TestSetHandlerTwiceKeepsQueue(t *testing.T) {
	e := newEnv(t, fastFrames(3))
	st := e.displayStream(t, sckit.StreamSettings{}, nil)

	q := sckit.NewFrameQueue(4)
	require.NoError(t, st.SetHandler(sckit.OutputScreen, q))
	require.NoError(t, st.SetHandler(sckit.OutputScreen, q))
	require.NoError(t, st.Start(context.Background()))

	for want := uint32(0); want < 3; want++ {
		require.Equal(t, want, nextTag(t, q))
	}

	require.NoError(t, st.Stop(context.Background()))
	require.NoError(t, st.Close())
	e.requireClean(t)
}

func TestCloneSharesHandlers(t *testing.T) {
	e := newEnv(t, fastFrames(2))
	st := e.displayStream(t, sckit.StreamSettings{}, nil)

	q, err := st.Frames(sckit.OutputScreen, 4)
	require.NoError(t, err)
	clone, err := st.Clone()
	require.NoError(t, err)
	assert.Equal(t, st.Owner(), clone.Owner())

	require.NoError(t, st.Close())
	require.NoError(t, clone.Start(context.Background()))
	assert.Equal(t, uint32(0), nextTag(t, q))
	assert.Equal(t, uint32(1), nextTag(t, q))
	require.NoError(t, clone.Stop(context.Background()))

	require.NoError(t, clone.Close())
	_, err = q.Next(context.Background())
	require.ErrorIs(t, err, sckit.ErrQueueClosed)
	e.requireClean(t)
}

func TestStartTwice(t *testing.T) {
	e := newEnv(t)
	st := e.displayStream(t, sckit.StreamSettings{}, nil)
	defer st.Close()

	require.NoError(t, st.Start(context.Background()))
	err := st.Start(context.Background())
	require.Error(t, err)

	var serr *sckit.Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, bridge.CodeAttemptToStartStreamState, serr.Code)
	assert.Equal(t, sckit.StreamError, serr.Kind)

	require.NoError(t, st.Stop(context.Background()))
	err = st.Stop(context.Background())
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, bridge.CodeAttemptToStopStreamState, serr.Code)
}

func TestStartTimeoutDiscardsLateCompletion(t *testing.T) {
	e := newEnv(t, func(rt *bridgetest.Runtime, cfg *sckit.Config) {
		rt.Hold("stream_start_capture")
		cfg.CompletionTimeout = 50 * time.Millisecond
	})
	st := e.displayStream(t, sckit.StreamSettings{}, nil)

	err := st.Start(context.Background())
	require.True(t, sckit.IsTimeout(err), "got %v", err)
	require.ErrorIs(t, err, sckit.ErrTimeout)
	assert.Equal(t, 1, e.s.PendingCompletions())

	e.rt.Flush()
	assert.Zero(t, e.s.PendingCompletions())
	assert.Equal(t, 1.0, testutil.ToFloat64(e.s.Metrics().CompletionsDropped.WithLabelValues("start capture")))

	// The late completion still started the native stream.
	require.NoError(t, st.Stop(context.Background()))
	require.NoError(t, st.Close())
	e.requireClean(t)
}

func TestStartHonoursCallerDeadline(t *testing.T) {
	e := newEnv(t, func(rt *bridgetest.Runtime, _ *sckit.Config) {
		rt.Hold("stream_start_capture")
	})
	st := e.displayStream(t, sckit.StreamSettings{}, nil)
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := st.Start(ctx)
	require.ErrorIs(t, err, context.Canceled)
	e.rt.Flush()
	require.NoError(t, st.Stop(context.Background()))
}

func TestStreamDelegate(t *testing.T) {
	e := newEnv(t, fastFrames(0))
	stopped := make(chan error, 1)
	st := e.displayStream(t, sckit.StreamSettings{}, sckit.StreamDelegateFunc(func(err error) { stopped <- err }))

	require.NoError(t, st.Start(context.Background()))
	streams := e.rt.Handles(bridge.KindStream)
	require.Len(t, streams, 1)
	e.rt.FailStream(streams[0], bridge.FormatNative(bridge.CodeUserStopped, "stopped from menu bar"))

	select {
	case err := <-stopped:
		var serr *sckit.Error
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, bridge.CodeUserStopped, serr.Code)
		assert.Equal(t, "stopped from menu bar", serr.Message)
	case <-time.After(time.Second):
		t.Fatal("delegate not called")
	}
	assert.False(t, e.rt.Running(streams[0]))

	st.SetDelegate(nil)
	require.NoError(t, st.Close())
	e.requireClean(t)
}

func TestStreamUpdates(t *testing.T) {
	e := newEnv(t)
	st := e.displayStream(t, sckit.StreamSettings{Width: 320, Height: 200}, nil)
	require.NoError(t, st.Start(context.Background()))

	config, err := e.s.NewStreamConfiguration(sckit.StreamSettings{Width: 640, Height: 400, FrameRate: 15})
	require.NoError(t, err)
	require.NoError(t, st.UpdateConfiguration(context.Background(), config))
	config.Release()

	c := e.content(t, sckit.ContentOptions{})
	filter, err := e.s.NewWindowFilter(c.Windows[0])
	require.NoError(t, err)
	c.Release()
	require.NoError(t, st.UpdateContentFilter(context.Background(), filter))
	filter.Release()

	err = st.UpdateContentFilter(context.Background(), filter)
	require.ErrorIs(t, err, sckit.ErrReleased)

	require.NoError(t, st.Stop(context.Background()))
	require.NoError(t, st.Close())
	e.requireClean(t)
}

func TestStreamAfterSessionClose(t *testing.T) {
	e := newEnv(t)
	st := e.displayStream(t, sckit.StreamSettings{}, nil)
	require.NoError(t, e.s.Close())

	require.ErrorIs(t, st.Start(context.Background()), sckit.ErrClosed)
	require.NoError(t, st.Close())
	e.requireClean(t)
}

func TestClosedStreamRejectsCalls(t *testing.T) {
	e := newEnv(t)
	st := e.displayStream(t, sckit.StreamSettings{}, nil)
	require.NoError(t, st.Close())

	require.ErrorIs(t, st.Start(context.Background()), sckit.ErrReleased)
	require.ErrorIs(t, st.SetHandler(sckit.OutputScreen, sckit.NewFrameQueue(1)), sckit.ErrReleased)
	_, err := st.Clone()
	require.ErrorIs(t, err, sckit.ErrReleased)
	e.requireClean(t)
}
