//go:build !ios && !android && (amd64 || arm64)

package sckit

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/obinnaokechukwu/sckit/bridge"
)

// Config holds session configuration.
type Config struct {
	// LibraryDir is searched for the bridge library before system paths.
	LibraryDir string `yaml:"library_dir"`

	// CompletionTimeout bounds blocking calls whose context has no deadline.
	CompletionTimeout time.Duration `yaml:"completion_timeout"`

	// QueueDepth is the default FrameQueue capacity.
	QueueDepth int `yaml:"queue_depth"`

	Stream    bridge.StreamSettings `yaml:"stream"`
	Picker    PickerConfig          `yaml:"picker"`
	Recording RecordingConfig       `yaml:"recording"`
}

// PickerConfig configures the content picker.
type PickerConfig struct {
	Modes []string `yaml:"modes"` // single_window, multiple_windows, single_display, ...
}

// RecordingConfig configures recording outputs created without a path.
type RecordingConfig struct {
	Dir   string `yaml:"dir"`
	Codec string `yaml:"codec"` // h264, hevc
}

// Defaults.
const (
	DefaultCompletionTimeout = 5 * time.Second
	DefaultQueueDepth        = 3
	DefaultFrameRate         = 60
	DefaultSampleRate        = 48000
	DefaultChannelCount      = 2

	// MaxStreamQueueDepth is the deepest native surface queue a stream accepts.
	MaxStreamQueueDepth = 8
)

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.CompletionTimeout == 0 {
		c.CompletionTimeout = DefaultCompletionTimeout
	}
	if c.QueueDepth == 0 {
		c.QueueDepth = DefaultQueueDepth
	}
	if c.Stream.FrameRate == 0 {
		c.Stream.FrameRate = DefaultFrameRate
	}
	if c.Stream.QueueDepth == 0 {
		c.Stream.QueueDepth = int32(min(c.QueueDepth, MaxStreamQueueDepth))
	}
	if c.Stream.PixelFormat == 0 {
		c.Stream.PixelFormat = bridge.PixelFormatBGRA
	}
	if c.Stream.SampleRate == 0 {
		c.Stream.SampleRate = DefaultSampleRate
	}
	if c.Stream.ChannelCount == 0 {
		c.Stream.ChannelCount = DefaultChannelCount
	}
	if len(c.Picker.Modes) == 0 {
		c.Picker.Modes = []string{"single_window", "single_display"}
	}
	if c.Recording.Dir == "" {
		c.Recording.Dir = os.TempDir()
	}
	if c.Recording.Codec == "" {
		c.Recording.Codec = "h264"
	}
}

// LoadConfig loads configuration from a YAML file. Environment variables in
// the file are expanded, SCKIT_* variables override file values, and unset
// fields take their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig is LoadConfig for configuration already in memory.
func ParseConfig(data []byte) (Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from SCKIT_* variables looked up with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, set func(int64)) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		set(n)
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("SCKIT_LIBRARY_DIR", &c.LibraryDir)
	str("SCKIT_RECORDING_DIR", &c.Recording.Dir)
	str("SCKIT_RECORDING_CODEC", &c.Recording.Codec)
	if v, ok := lookup("SCKIT_PICKER_MODES"); ok && v != "" {
		c.Picker.Modes = strings.Split(v, ",")
	}
	if v, ok := lookup("SCKIT_COMPLETION_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SCKIT_COMPLETION_TIMEOUT: %w", err)
		}
		c.CompletionTimeout = d
	}

	for _, err := range []error{
		num("SCKIT_QUEUE_DEPTH", func(n int64) { c.QueueDepth = int(n) }),
		num("SCKIT_WIDTH", func(n int64) { c.Stream.Width = int32(n) }),
		num("SCKIT_HEIGHT", func(n int64) { c.Stream.Height = int32(n) }),
		num("SCKIT_FPS", func(n int64) { c.Stream.FrameRate = int32(n) }),
		num("SCKIT_SAMPLE_RATE", func(n int64) { c.Stream.SampleRate = int32(n) }),
		num("SCKIT_CHANNEL_COUNT", func(n int64) { c.Stream.ChannelCount = int32(n) }),
		flag("SCKIT_SHOWS_CURSOR", &c.Stream.ShowsCursor),
		flag("SCKIT_CAPTURES_AUDIO", &c.Stream.CapturesAudio),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate checks c for values the native side would reject.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return bridge.NewError(bridge.InvalidParameter, "config", fmt.Sprintf(format, args...))
	}
	switch {
	case c.CompletionTimeout < 0:
		return invalid("completion_timeout must not be negative")
	case c.QueueDepth < 1 || c.QueueDepth > 64:
		return invalid("queue_depth %d out of range 1..64", c.QueueDepth)
	}
	if err := ValidateSettings(c.Stream); err != nil {
		return err
	}
	if _, err := ParsePickerModes(c.Picker.Modes); err != nil {
		return err
	}
	if _, err := ParseCodec(c.Recording.Codec); err != nil {
		return err
	}
	return nil
}

// ValidateSettings checks stream settings before they reach the native side.
func ValidateSettings(s bridge.StreamSettings) error {
	invalid := func(format string, args ...any) error {
		return bridge.NewError(bridge.InvalidParameter, "stream configuration", fmt.Sprintf(format, args...))
	}
	switch {
	case s.Width < 0 || s.Height < 0:
		return invalid("negative size %dx%d", s.Width, s.Height)
	case s.FrameRate < 0 || s.FrameRate > 240:
		return invalid("fps %d out of range 0..240", s.FrameRate)
	case s.QueueDepth < 0 || s.QueueDepth > MaxStreamQueueDepth:
		return invalid("queue depth %d out of range 0..%d", s.QueueDepth, MaxStreamQueueDepth)
	case s.SampleRate < 0:
		return invalid("negative sample rate %d", s.SampleRate)
	case s.ChannelCount < 0 || s.ChannelCount > 2:
		return invalid("channel count %d out of range 0..2", s.ChannelCount)
	case s.Scale < 0:
		return invalid("negative scale %v", s.Scale)
	}
	return nil
}

var pickerModeNames = map[string]bridge.PickerMode{
	"single_window":         bridge.PickerSingleWindow,
	"multiple_windows":      bridge.PickerMultipleWindows,
	"single_display":        bridge.PickerSingleDisplay,
	"single_application":    bridge.PickerSingleApplication,
	"multiple_applications": bridge.PickerMultipleApplications,
}

// ParsePickerModes converts configuration mode names.
func ParsePickerModes(names []string) ([]bridge.PickerMode, error) {
	modes := make([]bridge.PickerMode, 0, len(names))
	for _, n := range names {
		m, ok := pickerModeNames[strings.TrimSpace(n)]
		if !ok {
			return nil, bridge.NewError(bridge.InvalidParameter, "config", fmt.Sprintf("unknown picker mode %q", n))
		}
		modes = append(modes, m)
	}
	return modes, nil
}

// ParseCodec converts a configuration codec name.
func ParseCodec(name string) (bridge.RecordingCodec, error) {
	switch strings.ToLower(name) {
	case "h264", "avc":
		return bridge.CodecH264, nil
	case "hevc", "h265":
		return bridge.CodecHEVC, nil
	}
	return 0, bridge.NewError(bridge.InvalidParameter, "config", fmt.Sprintf("unknown codec %q", name))
}
