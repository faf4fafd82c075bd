//go:build !ios && !android && (amd64 || arm64)

package sckit_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/sckit"
	"github.com/obinnaokechukwu/sckit/bridge"
)

func TestDefaultConfig(t *testing.T) {
	cfg := sckit.DefaultConfig()
	assert.Equal(t, 5*time.Second, cfg.CompletionTimeout)
	assert.Equal(t, 3, cfg.QueueDepth)
	assert.Equal(t, int32(60), cfg.Stream.FrameRate)
	assert.Equal(t, bridge.PixelFormatBGRA, cfg.Stream.PixelFormat)
	assert.Equal(t, "h264", cfg.Recording.Codec)
	require.NoError(t, cfg.Validate())
}

func TestParseConfig(t *testing.T) {
	t.Setenv("CAPTURE_OUT", "/var/captures")
	cfg, err := sckit.ParseConfig([]byte(`
completion_timeout: 750ms
queue_depth: 6
stream:
  width: 1280
  height: 720
  fps: 30
  shows_cursor: true
picker:
  modes: [single_display]
recording:
  dir: ${CAPTURE_OUT}
  codec: hevc
`))
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.CompletionTimeout)
	assert.Equal(t, 6, cfg.QueueDepth)
	assert.Equal(t, int32(1280), cfg.Stream.Width)
	assert.Equal(t, int32(30), cfg.Stream.FrameRate)
	assert.True(t, cfg.Stream.ShowsCursor)
	assert.Equal(t, int32(48000), cfg.Stream.SampleRate, "unset fields take defaults")
	assert.Equal(t, "/var/captures", cfg.Recording.Dir)
	assert.Equal(t, []string{"single_display"}, cfg.Picker.Modes)
}

func TestDeepFrameQueueClampsStreamDepth(t *testing.T) {
	cfg, err := sckit.ParseConfig([]byte("queue_depth: 16\n"))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.QueueDepth)
	assert.Equal(t, int32(sckit.MaxStreamQueueDepth), cfg.Stream.QueueDepth)

	cfg, err = sckit.ParseConfig([]byte("queue_depth: 16\nstream:\n  queue_depth: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, int32(5), cfg.Stream.QueueDepth, "explicit stream depth wins")
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("SCKIT_QUEUE_DEPTH", "8")
	t.Setenv("SCKIT_FPS", "24")
	t.Setenv("SCKIT_CAPTURES_AUDIO", "true")
	t.Setenv("SCKIT_COMPLETION_TIMEOUT", "1s")

	path := filepath.Join(t.TempDir(), "sckit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queue_depth: 2\nstream:\n  fps: 60\n"), 0o600))

	cfg, err := sckit.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.QueueDepth)
	assert.Equal(t, int32(24), cfg.Stream.FrameRate)
	assert.True(t, cfg.Stream.CapturesAudio)
	assert.Equal(t, time.Second, cfg.CompletionTimeout)
}

func TestApplyEnvRejectsGarbage(t *testing.T) {
	env := map[string]string{"SCKIT_WIDTH": "wide"}
	var cfg sckit.Config
	err := cfg.ApplyEnv(func(k string) (string, bool) { v, ok := env[k]; return v, ok })
	require.ErrorContains(t, err, "SCKIT_WIDTH")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := sckit.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sckit.Config)
	}{
		{"queue depth", func(c *sckit.Config) { c.QueueDepth = 100 }},
		{"negative width", func(c *sckit.Config) { c.Stream.Width = -1 }},
		{"fps", func(c *sckit.Config) { c.Stream.FrameRate = 1000 }},
		{"channels", func(c *sckit.Config) { c.Stream.ChannelCount = 6 }},
		{"picker mode", func(c *sckit.Config) { c.Picker.Modes = []string{"everything"} }},
		{"codec", func(c *sckit.Config) { c.Recording.Codec = "vp9" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := sckit.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, bridge.ErrInvalidParameter)
		})
	}
}

func TestParsePickerModesAndCodec(t *testing.T) {
	modes, err := sckit.ParsePickerModes([]string{"single_window", " multiple_applications"})
	require.NoError(t, err)
	assert.Equal(t, []sckit.PickerMode{sckit.PickerSingleWindow, sckit.PickerMultipleApplications}, modes)

	codec, err := sckit.ParseCodec("H265")
	require.NoError(t, err)
	assert.Equal(t, sckit.CodecHEVC, codec)
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := sckit.DefaultConfig()
	cfg.QueueDepth = -4
	_, err := sckit.Open(sckit.WithConfig(cfg))
	require.ErrorIs(t, err, bridge.ErrInvalidParameter)
}
