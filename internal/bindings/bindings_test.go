//go:build !ios && !android && (amd64 || arm64)

package bindings

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/obinnaokechukwu/sckit/bridge"
	"github.com/obinnaokechukwu/sckit/cm"
	"github.com/obinnaokechukwu/sckit/internal/platform"
)

func TestLibrarySearchPathsHonorsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(LibraryDirEnv, dir)

	paths := LibrarySearchPaths()
	require.NotEmpty(t, paths)
	assert.Equal(t, dir, paths[0])
}

func TestFindLibrary(t *testing.T) {
	dir := t.TempDir()
	_, err := FindLibrary(dir)
	if err == nil {
		t.Skip("bridge library installed on this host")
	}
	require.ErrorIs(t, err, ErrLibraryNotFound)

	want := filepath.Join(dir, platform.FormatLibraryName(platform.BridgeLibrary, 0))
	require.NoError(t, os.WriteFile(want, nil, 0o644))
	got, err := FindLibrary(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadLibraryNotFound(t *testing.T) {
	_, _, err := loadLibrary([]string{"libDoesNotExist.so", "libDoesNotExist.dylib"}, []string{t.TempDir(), ""})
	require.ErrorIs(t, err, ErrLibraryNotFound)
}

func TestNewWithoutLibrary(t *testing.T) {
	if _, err := FindLibrary(); err == nil {
		t.Skip("bridge library installed on this host")
	}
	_, err := New(t.TempDir())
	require.ErrorIs(t, err, bridge.ErrNotLoaded)
	require.ErrorIs(t, err, ErrLibraryNotFound)
	require.False(t, IsLoaded())
	require.Empty(t, LibraryPath())
}

func TestGoString(t *testing.T) {
	msg := []byte("-3801:declined\x00trailing")
	assert.Equal(t, "-3801:declined", goString(&msg[0]))
	assert.Equal(t, "", goString(nil))

	long := make([]byte, maxCString+10)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, goString(&long[0]), maxCString)
}

func TestCBufferString(t *testing.T) {
	var buf [16]byte
	copy(buf[:], "bad output")
	assert.Equal(t, "bad output", cBufferString(buf[:]))
	assert.Equal(t, "full", cBufferString([]byte("full")))
}

func TestNativeLayouts(t *testing.T) {
	var s streamSettings
	assert.Equal(t, uintptr(40), unsafe.Sizeof(s))
	assert.Equal(t, uintptr(20), unsafe.Offsetof(s.ShowsCursor))
	assert.Equal(t, uintptr(24), unsafe.Offsetof(s.SampleRate))
	assert.Equal(t, uintptr(32), unsafe.Offsetof(s.Scale))

	assert.Equal(t, uintptr(24), unsafe.Sizeof(cm.Time{}))
	assert.Equal(t, uintptr(72), unsafe.Sizeof(cm.SampleTiming{}))
	assert.Equal(t, uintptr(48), unsafe.Sizeof(bridge.PickerGeometry{}))
	assert.Equal(t, uintptr(48), unsafe.Sizeof(bridge.DisplayRecord{}))
	assert.Equal(t, uintptr(56), unsafe.Sizeof(bridge.WindowRecord{}))
	assert.Equal(t, uintptr(20), unsafe.Sizeof(bridge.ApplicationRecord{}))
}

func TestToNativeSettings(t *testing.T) {
	n := toNativeSettings(bridge.StreamSettings{
		Width: 1920, Height: 1080, FrameRate: 60, QueueDepth: 5,
		PixelFormat: bridge.PixelFormatBGRA, ShowsCursor: true, CapturesAudio: true,
		SampleRate: 48000, ChannelCount: 2, Scale: 2,
	})
	assert.Equal(t, int32(1920), n.Width)
	assert.Equal(t, int32(5), n.QueueDepth)
	assert.Equal(t, uint8(1), n.ShowsCursor)
	assert.Equal(t, uint8(1), n.CapturesAudio)
	assert.Equal(t, uint8(0), n.CapturesMicrophone)
	assert.Equal(t, int32(48000), n.SampleRate)
	assert.Equal(t, 2.0, n.Scale)
}

func TestSetLoggerConcurrent(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetLogger(zap.NewNop().Named("bindings"))
		}()
		go func() {
			defer wg.Done()
			Logger().Debug("logger swap")
		}()
	}
	wg.Wait()

	SetLogger(nil)
	require.NotNil(t, Logger())
}
