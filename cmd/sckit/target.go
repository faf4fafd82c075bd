//go:build !ios && !android && (amd64 || arm64)

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/obinnaokechukwu/sckit"
)

// target selects what to capture: a window if windowID is set, otherwise a
// display (the first one if displayID is 0).
type target struct {
	displayID uint32
	windowID  uint32
}

func (t *target) flags(cmd *cobra.Command) {
	cmd.Flags().Uint32Var(&t.displayID, "display", 0, "display ID (default: first display)")
	cmd.Flags().Uint32Var(&t.windowID, "window", 0, "window ID; overrides --display")
}

func (t *target) filter(ctx context.Context, s *sckit.Session) (*sckit.ContentFilter, error) {
	c, err := s.ShareableContent(ctx, sckit.ContentOptions{ExcludeDesktopWindows: true})
	if err != nil {
		return nil, err
	}
	defer c.Release()

	if t.windowID != 0 {
		w, ok := c.Window(t.windowID)
		if !ok {
			return nil, fmt.Errorf("no window %d", t.windowID)
		}
		return s.NewWindowFilter(w)
	}
	if len(c.Displays) == 0 {
		return nil, fmt.Errorf("no displays")
	}
	d := c.Displays[0]
	if t.displayID != 0 {
		var ok bool
		if d, ok = c.Display(t.displayID); !ok {
			return nil, fmt.Errorf("no display %d", t.displayID)
		}
	}
	return s.NewDisplayFilter(d)
}
