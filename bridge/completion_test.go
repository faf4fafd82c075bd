//go:build !ios && !android && (amd64 || arm64)

package bridge_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/sckit/bridge"
	"github.com/obinnaokechukwu/sckit/bridge/bridgetest"
)

func identity(r *bridge.Ref) (*bridge.Ref, error) { return r, nil }

func TestPendingResolvesOnce(t *testing.T) {
	p := bridge.NewPending[int]("op")
	require.False(t, p.Resolved())
	require.True(t, p.Resolve(1, nil))
	require.False(t, p.Resolve(2, nil))
	require.False(t, p.Resolve(3, errors.New("late")))

	v, err := p.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, v)
	require.True(t, p.Resolved())
}

func TestPendingThenPassesUserData(t *testing.T) {
	p := bridge.NewPending[string]("op")

	var before, after atomic.Int32
	p.Then("ctx-1", func(ud any, v string, err error) {
		assert.Equal(t, "ctx-1", ud)
		assert.Equal(t, "ok", v)
		before.Add(1)
	})
	p.Resolve("ok", nil)
	p.Resolve("again", nil)
	p.Then(42, func(ud any, v string, err error) {
		assert.Equal(t, 42, ud)
		assert.Equal(t, "ok", v)
		after.Add(1)
	})

	require.Equal(t, int32(1), before.Load())
	require.Equal(t, int32(1), after.Load())
}

func TestFailedPending(t *testing.T) {
	p := bridge.Failed[int]("start", bridge.ErrClosed)
	_, err := p.WaitTimeout(time.Millisecond)
	require.ErrorIs(t, err, bridge.ErrClosed)
}

func TestExactlyOnceUnderDoubleFire(t *testing.T) {
	f := newFixture(t, func(rt *bridgetest.Runtime) { rt.FireTwice = true })

	var calls atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)
	p, ctx := bridge.BeginValue(f.d, "shareable content", bridge.ContentUnavailable, bridge.KindShareableContent, identity)
	p.Then("token", func(ud any, v *bridge.Ref, err error) {
		defer wg.Done()
		calls.Add(1)
		assert.Equal(t, "token", ud)
		assert.NoError(t, err)
		v.Release()
	})
	f.rt.ShareableContentGet(bridge.ContentOptions{}, ctx)

	wg.Wait()
	f.rt.Close()

	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, 0, f.d.PendingCompletions())
	require.Equal(t, 1, f.hooks.droppedOf("unknown"), "second native notification must be a no-op")
	f.requireClean(t)
}

func TestBlockingWaitTimesOutAndDiscardsLateValue(t *testing.T) {
	f := newFixture(t, nil)
	f.rt.Hold("shareable_content_get")

	p, ctx := bridge.BeginValue(f.d, "shareable content", bridge.ContentUnavailable, bridge.KindShareableContent, identity)
	f.rt.ShareableContentGet(bridge.ContentOptions{}, ctx)

	start := time.Now()
	v, err := p.WaitTimeout(20 * time.Millisecond)
	require.Nil(t, v)
	require.ErrorIs(t, err, bridge.ErrTimeout)
	require.True(t, bridge.IsTimeout(err))
	require.Equal(t, bridge.Timeout, bridge.KindOf(err))
	require.Less(t, time.Since(start), time.Second)

	// the native side still owns the context until it calls back
	require.Equal(t, 1, f.d.PendingCompletions())

	f.rt.Flush()

	require.Equal(t, 0, f.d.PendingCompletions())
	require.Equal(t, 1, f.hooks.droppedOf("shareable content"))
	_, err = p.Wait(context.Background())
	require.ErrorIs(t, err, bridge.ErrTimeout, "a late completion must not replace the timeout")
	f.requireClean(t)
}

func TestWaitCancelled(t *testing.T) {
	f := newFixture(t, nil)
	f.rt.Hold("shareable_content_get")

	p, ctx := bridge.BeginValue(f.d, "shareable content", bridge.ContentUnavailable, bridge.KindShareableContent, identity)
	f.rt.ShareableContentGet(bridge.ContentOptions{}, ctx)

	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Wait(cctx)
	require.ErrorIs(t, err, context.Canceled)

	f.rt.Flush()
	f.requireClean(t)
}

func TestNativeErrorProjection(t *testing.T) {
	f := newFixture(t, nil)
	f.rt.FailNext("shareable_content_get", bridge.CodeUserDeclined, "The user declined TCCs for application")

	p, ctx := bridge.BeginValue(f.d, "shareable content", bridge.ContentUnavailable, bridge.KindShareableContent, identity)
	f.rt.ShareableContentGet(bridge.ContentOptions{}, ctx)

	_, err := p.WaitTimeout(time.Second)
	require.Error(t, err)
	require.True(t, bridge.IsPermissionDenied(err))
	require.Equal(t, bridge.CodeUserDeclined, bridge.CodeOf(err))
	require.NotContains(t, err.Error(), "TCC")
	f.requireClean(t)
}

func TestUnitCompletionFailure(t *testing.T) {
	f := newFixture(t, nil)
	s := f.stream(t, bridge.StreamSettings{Width: 8, Height: 8})
	defer s.release()

	p, ctx := bridge.BeginUnit(f.d, "stop capture", bridge.StreamError)
	f.rt.StreamStopCapture(s.handle(t), ctx)
	_, err := p.WaitTimeout(time.Second)
	require.ErrorIs(t, err, bridge.ErrStream)
	require.Equal(t, bridge.CodeAttemptToStopStreamState, bridge.CodeOf(err))
}

func TestAbandon(t *testing.T) {
	f := newFixture(t, nil)
	_, ctx := bridge.BeginUnit(f.d, "start capture", bridge.StreamError)
	require.Equal(t, 1, f.d.PendingCompletions())
	f.d.Abandon(ctx)
	require.Equal(t, 0, f.d.PendingCompletions())

	// a stray native completion for the abandoned ctx is ignored
	f.d.CompleteUnit(ctx, true, "")
	require.Equal(t, 1, f.hooks.droppedOf("unknown"))
}
