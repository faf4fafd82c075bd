//go:build !ios && !android && (amd64 || arm64)

package bridge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/sckit/bridge"
)

func TestStringAt(t *testing.T) {
	tab := []byte("TerminalFinder")
	assert.Equal(t, "Terminal", bridge.StringAt(tab, bridge.StringRef{Offset: 0, Length: 8}))
	assert.Equal(t, "Finder", bridge.StringAt(tab, bridge.StringRef{Offset: 8, Length: 6}))
	assert.Equal(t, "", bridge.StringAt(tab, bridge.StringRef{Offset: 8, Length: 7}))
	assert.Equal(t, "", bridge.StringAt(tab, bridge.StringRef{Offset: 4, Length: 0}))
	assert.Equal(t, "", bridge.StringAt(nil, bridge.StringRef{Offset: 1 << 31, Length: 1 << 31}))
}

func TestReadBatchGrowsStringTable(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	calls := 0
	out, tab := bridge.ReadBatch(2, func(out []bridge.StringRef, strtab []byte) (int, int) {
		calls++
		need := 2 * len(long)
		if len(strtab) < need {
			return 0, need
		}
		for i := range out {
			off := copy(strtab[i*len(long):], long)
			out[i] = bridge.StringRef{Offset: uint32(i * len(long)), Length: uint32(off)}
		}
		return len(out), need
	})
	require.Equal(t, 2, calls)
	require.Len(t, out, 2)
	require.Equal(t, string(long), bridge.StringAt(tab, out[1]))
}

func TestReadBatchClampsCount(t *testing.T) {
	out, _ := bridge.ReadBatch(3, func(out []int, _ []byte) (int, int) {
		return 10, 0
	})
	require.Len(t, out, 3)

	out, tab := bridge.ReadBatch(0, func([]int, []byte) (int, int) {
		t.Fatal("fill called for empty batch")
		return 0, 0
	})
	require.Nil(t, out)
	require.Nil(t, tab)
}
