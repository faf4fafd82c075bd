//go:build !ios && !android && (amd64 || arm64)

package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	shotTarget target
	shotOut    string
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Capture a single image as PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, log, err := openSession(nil)
		if err != nil {
			return err
		}
		defer log.Sync()
		defer s.Close()

		filter, err := shotTarget.filter(cmd.Context(), s)
		if err != nil {
			return err
		}
		defer filter.Release()
		config, err := s.DefaultStreamConfiguration()
		if err != nil {
			return err
		}
		defer config.Release()

		img, err := s.CaptureImage(cmd.Context(), filter, config)
		if err != nil {
			return err
		}
		defer img.Release()
		rgba, err := img.RGBA()
		if err != nil {
			return err
		}

		f, err := os.Create(shotOut)
		if err != nil {
			return err
		}
		if err := png.Encode(f, rgba); err != nil {
			f.Close()
			return fmt.Errorf("encode %s: %w", shotOut, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Info("screenshot written", zap.String("path", shotOut), zap.Stringer("filter", filter),
			zap.Int("width", img.Width), zap.Int("height", img.Height))
		return nil
	},
}

func init() {
	shotTarget.flags(screenshotCmd)
	screenshotCmd.Flags().StringVarP(&shotOut, "out", "o", "screenshot.png", "output file")
}
