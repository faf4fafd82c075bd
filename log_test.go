//go:build !ios && !android && (amd64 || arm64)

package sckit_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/obinnaokechukwu/sckit"
	"github.com/obinnaokechukwu/sckit/bridge/bridgetest"
)

func TestSetLoggerNilRestoresNop(t *testing.T) {
	t.Cleanup(func() { sckit.SetLogger(nil) })

	l := zaptest.NewLogger(t)
	sckit.SetLogger(l)
	require.Same(t, l, sckit.Logger())

	sckit.SetLogger(nil)
	require.NotNil(t, sckit.Logger())

	rt := bridgetest.New()
	defer rt.Close()
	s, err := sckit.Open(sckit.WithRuntime(rt))
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestSetLoggerConcurrentWithOpen(t *testing.T) {
	t.Cleanup(func() { sckit.SetLogger(nil) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sckit.SetLogger(zaptest.NewLogger(t))
		}()
		go func() {
			defer wg.Done()
			rt := bridgetest.New()
			defer rt.Close()
			s, err := sckit.Open(sckit.WithRuntime(rt))
			if err == nil {
				s.Close()
			}
		}()
	}
	wg.Wait()
}
