//go:build !ios && !android && (amd64 || arm64)

package bridge_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/sckit/bridge"
)

func TestObserverFirstOutcomeWins(t *testing.T) {
	o := bridge.NewObserver[string]()

	accepted, _ := o.Deliver(bridge.Outcome[string]{Kind: bridge.OutcomeCancelled})
	require.True(t, accepted)
	accepted, _ = o.Deliver(bridge.Outcome[string]{Kind: bridge.OutcomePicked, Value: "late"})
	require.False(t, accepted)

	out, ok := o.Outcome()
	require.True(t, ok)
	require.Equal(t, bridge.OutcomeCancelled, out.Kind)
	require.Empty(t, out.Value)
}

func TestObserverDroppedPayloadReleased(t *testing.T) {
	f := newFixture(t, nil)
	o := bridge.NewObserver[*bridge.Ref]()
	o.Deliver(bridge.Outcome[*bridge.Ref]{Kind: bridge.OutcomeCancelled})

	h := f.rt.StreamConfigurationCreate(bridge.StreamSettings{})
	ref, err := bridge.Adopt(f.rt, bridge.KindStreamConfiguration, h)
	require.NoError(t, err)

	accepted, _ := o.Deliver(bridge.Outcome[*bridge.Ref]{Kind: bridge.OutcomePicked, Value: ref})
	require.False(t, accepted)
	require.True(t, ref.Released())
	f.requireClean(t)
}

func TestStaleObserverDiscard(t *testing.T) {
	var slot bridge.ObserverSlot[string]

	a := bridge.NewObserver[string]()
	require.Nil(t, slot.Install(a))
	b := bridge.NewObserver[string]()
	require.Same(t, a, slot.Install(b))
	require.True(t, a.Stale())
	require.False(t, b.Stale())
	require.Greater(t, b.Generation(), a.Generation())

	// A's delivery arrives after B was installed
	accepted, stale := a.Deliver(bridge.Outcome[string]{Kind: bridge.OutcomePicked, Value: "from-a"})
	require.True(t, accepted)
	require.True(t, stale)

	out, ok := a.Outcome()
	require.True(t, ok)
	require.Equal(t, "from-a", out.Value)

	_, ok = b.Outcome()
	require.False(t, ok, "B must be unaffected by A's delivery")

	accepted, stale = b.Deliver(bridge.Outcome[string]{Kind: bridge.OutcomePicked, Value: "from-b"})
	require.True(t, accepted)
	require.False(t, stale)
	out, _ = b.Outcome()
	require.Equal(t, "from-b", out.Value)
}

func TestObserverWaitHandsValueOnce(t *testing.T) {
	o := bridge.NewObserver[string]()
	go o.Deliver(bridge.Outcome[string]{Kind: bridge.OutcomePicked, Value: "v"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, err := o.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, "v", out.Value)

	again, err := o.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, bridge.OutcomePicked, again.Kind)
	require.Empty(t, again.Value)
}

func TestObserverWaitContext(t *testing.T) {
	o := bridge.NewObserver[string]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := o.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestObserverCloseReleasesUntaken(t *testing.T) {
	f := newFixture(t, nil)
	o := bridge.NewObserver[*bridge.Ref]()
	ref, err := bridge.Adopt(f.rt, bridge.KindStreamConfiguration, f.rt.StreamConfigurationCreate(bridge.StreamSettings{}))
	require.NoError(t, err)
	o.Deliver(bridge.Outcome[*bridge.Ref]{Kind: bridge.OutcomePicked, Value: ref})

	o.Close()
	require.True(t, ref.Released())
	o.Close()

	accepted, _ := o.Deliver(bridge.Outcome[*bridge.Ref]{Kind: bridge.OutcomeCancelled})
	require.False(t, accepted)
	f.requireClean(t)
}

func TestSlotClear(t *testing.T) {
	var slot bridge.ObserverSlot[int]
	a := bridge.NewObserver[int]()
	b := bridge.NewObserver[int]()
	slot.Install(a)
	slot.Install(b)

	require.False(t, slot.Clear(a))
	require.True(t, slot.Clear(b))
	require.Nil(t, slot.Current())
	require.True(t, b.Stale())
}

func TestPickerReplaceRace(t *testing.T) {
	for i := 0; i < 50; i++ {
		f := newFixture(t, nil)
		var slot bridge.ObserverSlot[*bridge.Ref]

		a := bridge.NewObserver[*bridge.Ref]()
		slot.Install(a)
		actx := f.d.RegisterObserver(a)

		b := bridge.NewObserver[*bridge.Ref]()
		var bctx uintptr

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.rt.DeliverPicker(actx, bridge.PickerCodePicked, "")
		}()
		go func() {
			defer wg.Done()
			if prev := slot.Install(b); prev == a {
				f.rt.PickerWithdraw(actx)
			}
			bctx = f.d.RegisterObserver(b)
		}()
		wg.Wait()

		// the delivery was already in flight, so it completes against A
		// whichever way the swap raced it
		aOut, aHas := a.Outcome()
		require.True(t, aHas)
		require.Equal(t, bridge.OutcomePicked, aOut.Kind)
		require.True(t, a.Stale())

		_, bHas := b.Outcome()
		require.False(t, bHas, "no cross-talk from A's delivery")

		f.rt.DeliverPicker(bctx, bridge.PickerCodeCancelled, "")
		bOut, bHas := b.Outcome()
		require.True(t, bHas)
		require.Equal(t, bridge.OutcomeCancelled, bOut.Kind)
		require.Nil(t, bOut.Value)

		a.Close()
		b.Close()
		f.requireClean(t)
	}
}

func TestPickerDoubleFireDropsSecond(t *testing.T) {
	f := newFixture(t, nil)
	var slot bridge.ObserverSlot[*bridge.Ref]
	o := bridge.NewObserver[*bridge.Ref]()
	slot.Install(o)
	ctx := f.d.RegisterObserver(o)

	f.rt.DeliverPicker(ctx, bridge.PickerCodePicked, "")
	f.rt.DeliverPicker(ctx, bridge.PickerCodePicked, "")
	f.rt.DeliverPicker(ctx, bridge.PickerCodeCancelled, "")

	out, ok := o.Outcome()
	require.True(t, ok)
	require.Equal(t, bridge.OutcomePicked, out.Kind)
	require.Equal(t, 2, f.hooks.droppedOf("picker"))

	o.Close()
	f.requireClean(t)
}

func TestPickerFailure(t *testing.T) {
	f := newFixture(t, nil)
	o := bridge.NewObserver[*bridge.Ref]()
	ctx := f.d.RegisterObserver(o)

	f.rt.DeliverPicker(ctx, bridge.PickerCodeFailed, "picker unavailable")
	out, ok := o.Outcome()
	require.True(t, ok)
	require.Equal(t, bridge.OutcomeFailed, out.Kind)
	require.ErrorIs(t, out.Err, bridge.ErrPicker)
	f.requireClean(t)
}
