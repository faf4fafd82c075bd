//go:build !ios && !android && (amd64 || arm64)

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/obinnaokechukwu/sckit"
)

var listOpts sckit.ContentOptions

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List displays, windows and applications",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, log, err := openSession(nil)
		if err != nil {
			return err
		}
		defer log.Sync()
		defer s.Close()

		c, err := s.ShareableContent(cmd.Context(), listOpts)
		if err != nil {
			return err
		}
		defer c.Release()

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DISPLAY\tSIZE\tORIGIN")
		for _, d := range c.Displays {
			fmt.Fprintf(w, "%d\t%dx%d\t%.0f,%.0f\n", d.ID, d.Width, d.Height, d.Frame.X, d.Frame.Y)
		}
		fmt.Fprintln(w, "\nWINDOW\tAPP\tTITLE\tLAYER\tON SCREEN")
		for _, win := range c.Windows {
			app := "-"
			if win.Owner != nil {
				app = win.Owner.Name
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%t\n", win.ID, app, win.Title, win.Layer, win.OnScreen)
		}
		fmt.Fprintln(w, "\nPID\tBUNDLE\tNAME")
		for _, a := range c.Applications {
			fmt.Fprintf(w, "%d\t%s\t%s\n", a.ProcessID, a.BundleID, a.Name)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().BoolVar(&listOpts.ExcludeDesktopWindows, "exclude-desktop", false, "omit desktop windows")
	listCmd.Flags().BoolVar(&listOpts.OnScreenWindowsOnly, "on-screen", false, "only windows currently on screen")
}
