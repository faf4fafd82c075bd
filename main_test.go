//go:build !ios && !android && (amd64 || arm64)

package sckit_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/obinnaokechukwu/sckit"
	"github.com/obinnaokechukwu/sckit/bridge/bridgetest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type env struct {
	s        *sckit.Session
	rt       *bridgetest.Runtime
	reg      *prometheus.Registry
	baseline int
}

type envOption func(*bridgetest.Runtime, *sckit.Config)

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()
	rt := bridgetest.New()
	cfg := sckit.DefaultConfig()
	cfg.CompletionTimeout = 2 * time.Second
	for _, o := range opts {
		o(rt, &cfg)
	}
	reg := prometheus.NewRegistry()
	s, err := sckit.Open(
		sckit.WithRuntime(rt),
		sckit.WithLogger(zaptest.NewLogger(t)),
		sckit.WithConfig(cfg),
		sckit.WithRegisterer(reg),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
		rt.Close()
	})
	return &env{s: s, rt: rt, reg: reg, baseline: rt.Live()}
}

// requireClean stops the simulated runtime and checks nothing leaked or was
// misused.
func (e *env) requireClean(t *testing.T) {
	t.Helper()
	e.rt.Close()
	require.Empty(t, e.rt.Violations())
	require.Equal(t, e.baseline, e.rt.Live(), "native objects leaked")
}

func (e *env) content(t *testing.T, opts sckit.ContentOptions) *sckit.ShareableContent {
	t.Helper()
	c, err := e.s.ShareableContent(context.Background(), opts)
	require.NoError(t, err)
	return c
}

// displayStream builds a stream over the first display.
func (e *env) displayStream(t *testing.T, settings sckit.StreamSettings, delegate sckit.StreamDelegate) *sckit.Stream {
	t.Helper()
	c := e.content(t, sckit.ContentOptions{})
	defer c.Release()

	filter, err := e.s.NewDisplayFilter(c.Displays[0])
	require.NoError(t, err)
	defer filter.Release()
	config, err := e.s.NewStreamConfiguration(settings)
	require.NoError(t, err)
	defer config.Release()

	st, err := e.s.NewStream(filter, config, delegate)
	require.NoError(t, err)
	return st
}

func fastFrames(limit int) envOption {
	return func(rt *bridgetest.Runtime, _ *sckit.Config) {
		rt.FrameLimit = limit
		rt.FrameInterval = time.Millisecond
	}
}
