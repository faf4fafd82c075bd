//go:build !ios && !android && (amd64 || arm64)

// Command sckit lists capturable content, takes screenshots, records frames
// and drives the system content picker.
package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/obinnaokechukwu/sckit"
)

var (
	configPath string
	logLevel   string
	libraryDir string
	devLog     bool
)

var rootCmd = &cobra.Command{
	Use:           "sckit",
	Short:         "Screen capture from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&configPath, "config", "", "path to a YAML config file")
	f.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	f.StringVar(&libraryDir, "library-dir", "", "directory holding the native bridge library")
	f.BoolVar(&devLog, "dev", false, "human-readable development logging")

	rootCmd.AddCommand(listCmd, screenshotCmd, captureCmd, pickCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sckit:", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(logLevel)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if devLog {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level
	return cfg.Build()
}

func loadConfig() (sckit.Config, error) {
	var cfg sckit.Config
	if configPath != "" {
		loaded, err := sckit.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	} else {
		cfg = sckit.DefaultConfig()
		if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
			return cfg, err
		}
	}
	if libraryDir != "" {
		cfg.LibraryDir = libraryDir
	}
	return cfg, nil
}

// openSession opens a session from the global flags. reg may be nil.
func openSession(reg prometheus.Registerer) (*sckit.Session, *zap.Logger, error) {
	log, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	opts := []sckit.Option{sckit.WithConfig(cfg), sckit.WithLogger(log)}
	if reg != nil {
		opts = append(opts, sckit.WithRegisterer(reg))
	}
	s, err := sckit.Open(opts...)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}
	return s, log, nil
}
