//go:build !ios && !android && (amd64 || arm64)

package sckit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/sckit"
	"github.com/obinnaokechukwu/sckit/bridge"
)

func displayFilter(t *testing.T, e *env) *sckit.ContentFilter {
	t.Helper()
	c := e.content(t, sckit.ContentOptions{})
	defer c.Release()
	f, err := e.s.NewDisplayFilter(c.Displays[0])
	require.NoError(t, err)
	return f
}

func TestCaptureImage(t *testing.T) {
	e := newEnv(t)
	filter := displayFilter(t, e)
	config, err := e.s.NewStreamConfiguration(sckit.StreamSettings{Width: 4, Height: 2})
	require.NoError(t, err)

	img, err := e.s.CaptureImage(context.Background(), filter, config)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 2, img.Height)

	rgba, err := img.RGBA()
	require.NoError(t, err)
	assert.Equal(t, 4, rgba.Bounds().Dx())
	assert.Equal(t, []byte{0x20, 0x40, 0x80, 0xFF}, rgba.Pix[:4])
	assert.Equal(t, []byte{0x20, 0x40, 0x80, 0xFF}, rgba.Pix[len(rgba.Pix)-4:])

	img.Release()
	img.Release()
	_, err = img.RGBA()
	require.ErrorIs(t, err, sckit.ErrReleased)

	filter.Release()
	config.Release()
	e.requireClean(t)
}

func TestCaptureImagePermissionDenied(t *testing.T) {
	e := newEnv(t)
	filter := displayFilter(t, e)
	defer filter.Release()
	config, err := e.s.DefaultStreamConfiguration()
	require.NoError(t, err)
	defer config.Release()

	e.rt.FailNext("screenshot_capture_image", bridge.CodeUserDeclined, "TCC says no")
	_, err = e.s.CaptureImage(context.Background(), filter, config)
	require.True(t, sckit.IsPermissionDenied(err), "got %v", err)
	require.ErrorIs(t, err, sckit.ErrPermissionDenied)
	assert.NotContains(t, err.Error(), "TCC")

	img, err := e.s.CaptureImage(context.Background(), filter, config)
	require.NoError(t, err)
	img.Release()
}

func TestCaptureImageAsync(t *testing.T) {
	e := newEnv(t)
	filter := displayFilter(t, e)
	defer filter.Release()
	config, err := e.s.DefaultStreamConfiguration()
	require.NoError(t, err)
	defer config.Release()

	done := make(chan *sckit.Image, 1)
	e.s.CaptureImageAsync(filter, config).Then("tag", func(userData any, img *sckit.Image, err error) {
		assert.Equal(t, "tag", userData)
		assert.NoError(t, err)
		done <- img
	})
	img := <-done
	require.NotNil(t, img)
	assert.Equal(t, 8, img.Width)
	img.Release()
}

func TestCaptureImageWithReleasedFilter(t *testing.T) {
	e := newEnv(t)
	filter := displayFilter(t, e)
	config, err := e.s.DefaultStreamConfiguration()
	require.NoError(t, err)
	defer config.Release()
	filter.Release()

	_, err = e.s.CaptureImage(context.Background(), filter, config)
	require.ErrorIs(t, err, sckit.ErrReleased)
	assert.Zero(t, e.s.PendingCompletions())
}
