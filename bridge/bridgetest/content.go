//go:build !ios && !android && (amd64 || arm64)

package bridgetest

import (
	"github.com/obinnaokechukwu/sckit/bridge"
)

// ShareableContentGet implements bridge.Runtime.
func (r *Runtime) ShareableContentGet(opts bridge.ContentOptions, ctx uintptr) {
	r.completeValue("shareable_content_get", ctx, func() (bridge.Handle, string) {
		r.mu.Lock()
		defer r.mu.Unlock()

		content := &object{kind: bridge.KindShareableContent}
		appHandles := make([]bridge.Handle, len(r.Apps))
		for i := range r.Apps {
			app := r.Apps[i]
			appHandles[i] = r.allocLocked(&object{kind: bridge.KindApplication, app: &app})
		}
		for i := range r.Displays {
			d := r.Displays[i]
			content.children = append(content.children, r.allocLocked(&object{kind: bridge.KindDisplay, display: &d}))
		}
		for i := range r.Windows {
			w := r.Windows[i]
			if opts.ExcludeDesktopWindows && w.Desktop {
				continue
			}
			if opts.OnScreenWindowsOnly && !w.OnScreen {
				continue
			}
			content.children = append(content.children, r.allocLocked(&object{kind: bridge.KindWindow, window: &w}))
		}
		content.children = append(content.children, appHandles...)
		return r.allocLocked(content), ""
	})
}

func (r *Runtime) itemsLocked(content bridge.Handle, k bridge.Kind) []*object {
	o := r.useLocked(content, bridge.KindShareableContent, "shareable_content_items")
	if o == nil {
		return nil
	}
	var out []*object
	for _, c := range o.children {
		if co := r.objects[c]; co != nil && co.kind == k {
			out = append(out, co)
		}
	}
	return out
}

// ShareableContentCount implements bridge.Runtime.
func (r *Runtime) ShareableContentCount(content bridge.Handle, k bridge.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.itemsLocked(content, k))
}

// ShareableContentItem implements bridge.Runtime.
func (r *Runtime) ShareableContentItem(content bridge.Handle, k bridge.Kind, index int) bridge.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.useLocked(content, bridge.KindShareableContent, "shareable_content_item")
	if o == nil {
		return 0
	}
	i := 0
	for _, c := range o.children {
		if r.objects[c].kind != k {
			continue
		}
		if i == index {
			return c
		}
		i++
	}
	return 0
}

type stringWriter struct {
	tab  []byte
	need int
}

func (w *stringWriter) put(s string) bridge.StringRef {
	ref := bridge.StringRef{Offset: uint32(w.need), Length: uint32(len(s))}
	if w.need+len(s) <= len(w.tab) {
		copy(w.tab[w.need:], s)
	}
	w.need += len(s)
	return ref
}

// ShareableContentDisplays implements bridge.Runtime.
func (r *Runtime) ShareableContentDisplays(content bridge.Handle, out []bridge.DisplayRecord, strtab []byte) (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.itemsLocked(content, bridge.KindDisplay)
	n := 0
	for _, o := range items {
		if n == len(out) {
			break
		}
		out[n] = bridge.DisplayRecord{
			DisplayID: o.display.ID,
			Width:     o.display.Width,
			Height:    o.display.Height,
			Frame:     o.display.Frame,
		}
		n++
	}
	return n, 0
}

// ShareableContentWindows implements bridge.Runtime.
func (r *Runtime) ShareableContentWindows(content bridge.Handle, out []bridge.WindowRecord, strtab []byte) (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.itemsLocked(content, bridge.KindWindow)
	sw := &stringWriter{tab: strtab}
	n := 0
	for _, o := range items {
		w := o.window
		title := sw.put(w.Title)
		if n == len(out) {
			continue
		}
		out[n] = bridge.WindowRecord{
			WindowID: w.ID,
			Layer:    w.Layer,
			Frame:    w.Frame,
			Title:    title,
			AppIndex: int32(w.App),
			OnScreen: b2u(w.OnScreen),
			Active:   b2u(w.Active),
		}
		n++
	}
	return n, sw.need
}

// ShareableContentApplications implements bridge.Runtime.
func (r *Runtime) ShareableContentApplications(content bridge.Handle, out []bridge.ApplicationRecord, strtab []byte) (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.itemsLocked(content, bridge.KindApplication)
	sw := &stringWriter{tab: strtab}
	n := 0
	for _, o := range items {
		bundle := sw.put(o.app.BundleID)
		name := sw.put(o.app.Name)
		if n == len(out) {
			continue
		}
		out[n] = bridge.ApplicationRecord{ProcessID: o.app.PID, BundleID: bundle, Name: name}
		n++
	}
	return n, sw.need
}

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// ContentFilterCreateDisplay implements bridge.Runtime.
func (r *Runtime) ContentFilterCreateDisplay(display bridge.Handle, excluded []bridge.Handle) bridge.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.useLocked(display, bridge.KindDisplay, "content_filter_create_display")
	if d == nil {
		return 0
	}
	f := &object{kind: bridge.KindContentFilter, display: d.display}
	d.refs++
	f.children = append(f.children, display)
	for _, w := range excluded {
		if wo := r.useLocked(w, bridge.KindWindow, "content_filter_create_display"); wo != nil {
			wo.refs++
			f.children = append(f.children, w)
		}
	}
	return r.allocLocked(f)
}

// ContentFilterCreateWindow implements bridge.Runtime.
func (r *Runtime) ContentFilterCreateWindow(window bridge.Handle) bridge.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.useLocked(window, bridge.KindWindow, "content_filter_create_window")
	if w == nil {
		return 0
	}
	w.refs++
	f := &object{kind: bridge.KindContentFilter, window: w.window, children: []bridge.Handle{window}}
	return r.allocLocked(f)
}

// StreamConfigurationCreate implements bridge.Runtime. Negative dimensions
// are rejected with a null handle.
func (r *Runtime) StreamConfigurationCreate(s bridge.StreamSettings) bridge.Handle {
	if s.Width < 0 || s.Height < 0 || s.FrameRate < 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocLocked(&object{kind: bridge.KindStreamConfiguration, settings: s})
}

// ScreenshotCaptureImage implements bridge.Runtime.
func (r *Runtime) ScreenshotCaptureImage(filter, config bridge.Handle, ctx uintptr) {
	r.mu.Lock()
	fo := r.useLocked(filter, bridge.KindContentFilter, "screenshot_capture_image")
	co := r.useLocked(config, bridge.KindStreamConfiguration, "screenshot_capture_image")
	w, h := 8, 8
	if co != nil && co.settings.Width > 0 && co.settings.Height > 0 {
		w, h = int(co.settings.Width), int(co.settings.Height)
	}
	ok := fo != nil && co != nil
	r.mu.Unlock()

	r.completeValue("screenshot_capture_image", ctx, func() (bridge.Handle, string) {
		if !ok {
			return 0, bridge.FormatNative(bridge.CodeInvalidParameter, "invalid filter or configuration")
		}
		data := make([]byte, w*h*4)
		for i := 0; i < len(data); i += 4 {
			data[i], data[i+1], data[i+2], data[i+3] = 0x20, 0x40, 0x80, 0xFF
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.allocLocked(&object{kind: bridge.KindImage, data: data, width: w, height: h, stride: w * 4}), ""
	})
}

// ImageSize implements bridge.Runtime.
func (r *Runtime) ImageSize(img bridge.Handle) (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.useLocked(img, bridge.KindImage, "image_size")
	if o == nil {
		return 0, 0
	}
	return o.width, o.height
}

// ImageCopyRGBA implements bridge.Runtime.
func (r *Runtime) ImageCopyRGBA(img bridge.Handle, dst []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.useLocked(img, bridge.KindImage, "image_copy_rgba")
	if o == nil {
		return 0
	}
	if len(dst) >= len(o.data) {
		copy(dst, o.data)
	}
	return len(o.data)
}
