//go:build !ios && !android && (amd64 || arm64)

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/obinnaokechukwu/sckit"
)

var pickModes []string

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Show the system content picker and print the selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, log, err := openSession(nil)
		if err != nil {
			return err
		}
		defer log.Sync()
		defer s.Close()

		var modes []sckit.PickerMode
		if len(pickModes) > 0 {
			if modes, err = sckit.ParsePickerModes(pickModes); err != nil {
				return err
			}
		}
		req, err := s.Picker().Show(modes...)
		if err != nil {
			return err
		}
		defer req.Cancel()

		res, err := req.Wait(cmd.Context())
		if err != nil {
			return err
		}
		defer res.Release()

		g := res.Geometry
		fmt.Printf("picked %.0fx%.0f at %.0f,%.0f (scale %.1f, %dx%d pixels)\n",
			g.Rect.Width, g.Rect.Height, g.Rect.X, g.Rect.Y, g.Scale, g.PixelWidth, g.PixelHeight)
		return nil
	},
}

func init() {
	pickCmd.Flags().StringSliceVar(&pickModes, "mode", nil, "picker modes (single_window, single_display, ...)")
}
