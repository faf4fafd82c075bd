//go:build !ios && !android && (amd64 || arm64)

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/obinnaokechukwu/sckit"
)

var (
	capTarget   target
	capFrames   int
	capDuration time.Duration
	capRecord   string
	capMetrics  string
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Stream frames, optionally recording them to a movie file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if capDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, capDuration)
			defer cancel()
		}

		reg := prometheus.NewRegistry()
		s, log, err := openSession(reg)
		if err != nil {
			return err
		}
		defer log.Sync()
		defer s.Close()

		filter, err := capTarget.filter(ctx, s)
		if err != nil {
			return err
		}
		defer filter.Release()
		config, err := s.DefaultStreamConfiguration()
		if err != nil {
			return err
		}
		defer config.Release()

		failed := make(chan error, 1)
		st, err := s.NewStream(filter, config, sckit.StreamDelegateFunc(func(err error) {
			select {
			case failed <- err:
			default:
			}
		}))
		if err != nil {
			return err
		}
		defer st.Close()

		q, err := st.Frames(sckit.OutputScreen, 0)
		if err != nil {
			return err
		}

		if capRecord != "" {
			codec, err := sckit.ParseCodec(s.Config().Recording.Codec)
			if err != nil {
				return err
			}
			rec, err := s.NewRecordingOutput(capRecord, codec, sckit.RecordingDelegateFunc(func(ev sckit.RecordingEvent, err error) {
				log.Info("recording", zap.Stringer("event", ev), zap.Error(err))
			}))
			if err != nil {
				return err
			}
			defer rec.Release()
			if err := st.AddRecordingOutput(ctx, rec); err != nil {
				return err
			}
		}

		if err := st.Start(ctx); err != nil {
			return err
		}
		log.Info("capturing", zap.Stringer("filter", filter))

		g, gctx := errgroup.WithContext(ctx)
		if capMetrics != "" {
			srv := &http.Server{
				Addr:              capMetrics,
				Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
				ReadHeaderTimeout: 5 * time.Second,
			}
			g.Go(func() error {
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
		}
		g.Go(func() error {
			defer q.Close()
			for n := 0; capFrames == 0 || n < capFrames; n++ {
				f, err := q.Next(gctx)
				if err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return nil
					}
					return err
				}
				timing := f.Timing()
				log.Debug("frame", zap.Int("n", n), zap.Stringer("pts", timing.Presentation))
				f.Release()
			}
			return errStop
		})
		g.Go(func() error {
			select {
			case err := <-failed:
				return err
			case <-gctx.Done():
				return nil
			}
		})

		err = g.Wait()
		if errors.Is(err, errStop) {
			err = nil
		}

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if stopErr := st.Stop(stopCtx); stopErr != nil && err == nil {
			log.Warn("stop capture", zap.Error(stopErr))
		}
		log.Info("capture finished", zap.Uint64("dropped", q.Dropped()))
		return err
	},
}

// errStop ends the errgroup once the requested frame count is reached.
var errStop = errors.New("frame limit reached")

func init() {
	capTarget.flags(captureCmd)
	f := captureCmd.Flags()
	f.IntVarP(&capFrames, "frames", "n", 0, "stop after this many frames (0 = until interrupted)")
	f.DurationVarP(&capDuration, "duration", "d", 0, "stop after this long")
	f.StringVar(&capRecord, "record", "", "also record to this movie file")
	f.StringVar(&capMetrics, "metrics-addr", "", "serve Prometheus metrics on this address")
}
