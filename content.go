//go:build !ios && !android && (amd64 || arm64)

package sckit

import (
	"context"
	"fmt"

	"github.com/obinnaokechukwu/sckit/bridge"
)

// ContentOptions filters a shareable content query.
type ContentOptions = bridge.ContentOptions

// Rect is a frame in global display coordinates (points).
type Rect = bridge.Rect

// Display is a display in a ShareableContent snapshot. It is valid while
// the snapshot is.
type Display struct {
	ID     uint32
	Width  int
	Height int
	Frame  Rect

	view bridge.Borrowed
}

// Application is a running application in a ShareableContent snapshot.
type Application struct {
	ProcessID int
	BundleID  string
	Name      string

	view bridge.Borrowed
}

// Window is an on-screen or off-screen window in a ShareableContent
// snapshot.
type Window struct {
	ID       uint32
	Title    string
	Layer    int
	Frame    Rect
	OnScreen bool
	Active   bool

	// Owner is the owning application, nil if it is not in the snapshot.
	Owner *Application

	view bridge.Borrowed
}

// Valid reports whether the snapshot d came from is still alive.
func (d Display) Valid() bool { return d.view.Valid() }

// Valid reports whether the snapshot w came from is still alive.
func (w Window) Valid() bool { return w.view.Valid() }

// Valid reports whether the snapshot a came from is still alive.
func (a Application) Valid() bool { return a.view.Valid() }

func (d Display) String() string {
	return fmt.Sprintf("display %d (%dx%d)", d.ID, d.Width, d.Height)
}

func (w Window) String() string {
	return fmt.Sprintf("window %d %q", w.ID, w.Title)
}

// ShareableContent is a snapshot of the displays, windows and applications
// available for capture. Release it when done; its Display, Window and
// Application values become invalid at that point.
type ShareableContent struct {
	ref *bridge.Ref

	Displays     []Display
	Windows      []Window
	Applications []Application
}

// ShareableContentAsync starts a content query.
func (s *Session) ShareableContentAsync(opts ContentOptions) *bridge.Pending[*ShareableContent] {
	return value(s, "shareable content", bridge.ContentUnavailable, bridge.KindShareableContent,
		func(ref *bridge.Ref) (*ShareableContent, error) { return decodeContent(s.rt, ref), nil },
		func(ctx uintptr) error {
			s.rt.ShareableContentGet(opts, ctx)
			return nil
		})
}

// ShareableContent queries the capturable content and waits for the result.
func (s *Session) ShareableContent(ctx context.Context, opts ContentOptions) (*ShareableContent, error) {
	return await(ctx, s, s.ShareableContentAsync(opts))
}

func decodeContent(rt bridge.Runtime, ref *bridge.Ref) *ShareableContent {
	h, _ := ref.Handle()
	c := &ShareableContent{ref: ref}

	displays, _ := bridge.ReadBatch(rt.ShareableContentCount(h, bridge.KindDisplay),
		func(out []bridge.DisplayRecord, tab []byte) (int, int) {
			return rt.ShareableContentDisplays(h, out, tab)
		})
	for i, r := range displays {
		c.Displays = append(c.Displays, Display{
			ID:     r.DisplayID,
			Width:  int(r.Width),
			Height: int(r.Height),
			Frame:  r.Frame,
			view:   ref.Derive(bridge.KindDisplay, rt.ShareableContentItem(h, bridge.KindDisplay, i)),
		})
	}

	apps, appTab := bridge.ReadBatch(rt.ShareableContentCount(h, bridge.KindApplication),
		func(out []bridge.ApplicationRecord, tab []byte) (int, int) {
			return rt.ShareableContentApplications(h, out, tab)
		})
	c.Applications = make([]Application, 0, len(apps))
	for i, r := range apps {
		c.Applications = append(c.Applications, Application{
			ProcessID: int(r.ProcessID),
			BundleID:  bridge.StringAt(appTab, r.BundleID),
			Name:      bridge.StringAt(appTab, r.Name),
			view:      ref.Derive(bridge.KindApplication, rt.ShareableContentItem(h, bridge.KindApplication, i)),
		})
	}

	windows, winTab := bridge.ReadBatch(rt.ShareableContentCount(h, bridge.KindWindow),
		func(out []bridge.WindowRecord, tab []byte) (int, int) {
			return rt.ShareableContentWindows(h, out, tab)
		})
	for i, r := range windows {
		w := Window{
			ID:       r.WindowID,
			Title:    bridge.StringAt(winTab, r.Title),
			Layer:    int(r.Layer),
			Frame:    r.Frame,
			OnScreen: r.OnScreen != 0,
			Active:   r.Active != 0,
			view:     ref.Derive(bridge.KindWindow, rt.ShareableContentItem(h, bridge.KindWindow, i)),
		}
		if r.AppIndex >= 0 && int(r.AppIndex) < len(c.Applications) {
			w.Owner = &c.Applications[r.AppIndex]
		}
		c.Windows = append(c.Windows, w)
	}
	return c
}

// Display returns the display with id.
func (c *ShareableContent) Display(id uint32) (Display, bool) {
	for _, d := range c.Displays {
		if d.ID == id {
			return d, true
		}
	}
	return Display{}, false
}

// Window returns the window with id.
func (c *ShareableContent) Window(id uint32) (Window, bool) {
	for _, w := range c.Windows {
		if w.ID == id {
			return w, true
		}
	}
	return Window{}, false
}

// Application returns the application with bundleID.
func (c *ShareableContent) Application(bundleID string) (Application, bool) {
	for _, a := range c.Applications {
		if a.BundleID == bundleID {
			return a, true
		}
	}
	return Application{}, false
}

// Release gives the snapshot back. Calls after the first are no-ops.
func (c *ShareableContent) Release() {
	if c == nil {
		return
	}
	c.ref.Release()
}
