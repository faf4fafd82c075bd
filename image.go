//go:build !ios && !android && (amd64 || arm64)

package sckit

import (
	"context"
	"image"

	"github.com/obinnaokechukwu/sckit/bridge"
)

// Image is a captured screenshot.
type Image struct {
	rt     bridge.Runtime
	ref    *bridge.Ref
	Width  int
	Height int
}

// CaptureImageAsync captures a single image of filter using config.
func (s *Session) CaptureImageAsync(filter *ContentFilter, config *StreamConfiguration) *bridge.Pending[*Image] {
	return value(s, "capture image", bridge.ScreenshotError, bridge.KindImage,
		func(ref *bridge.Ref) (*Image, error) {
			h, _ := ref.Handle()
			w, ht := s.rt.ImageSize(h)
			return &Image{rt: s.rt, ref: ref, Width: w, Height: ht}, nil
		},
		func(ctx uintptr) error {
			fh, err := filter.handle()
			if err != nil {
				return err
			}
			ch, err := config.handle()
			if err != nil {
				return err
			}
			s.rt.ScreenshotCaptureImage(fh, ch, ctx)
			return nil
		})
}

// CaptureImage captures a single image and waits for it.
func (s *Session) CaptureImage(ctx context.Context, filter *ContentFilter, config *StreamConfiguration) (*Image, error) {
	return await(ctx, s, s.CaptureImageAsync(filter, config))
}

// RGBA copies the image into Go memory.
func (img *Image) RGBA() (*image.RGBA, error) {
	h, err := img.ref.Handle()
	if err != nil {
		return nil, err
	}
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	if need := img.rt.ImageCopyRGBA(h, out.Pix); need > len(out.Pix) {
		return nil, bridge.NewError(bridge.ScreenshotError, "image", "native image larger than its reported size")
	}
	return out, nil
}

// Release gives the image back.
func (img *Image) Release() {
	if img == nil {
		return
	}
	img.ref.Release()
}
