package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-reveal/engine/reveal"
	"github.com/Carmen-Shannon/oxy-reveal/engine/tween"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "oxy-reveal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, float32(40), cfg.Camera.Fov)
	assert.Equal(t, float32(0.1), cfg.Camera.Near)
	assert.Equal(t, float32(1000), cfg.Camera.Far)
	assert.Equal(t, float32(8), cfg.Camera.Z)
	assert.Equal(t, float32(2), cfg.Model.Scale)
	assert.Equal(t, float32(0.12), cfg.Model.MouseFactor)
	assert.Equal(t, float32(0.0015), cfg.Post.RGBShiftAmount)
	assert.Equal(t, float32(1), cfg.Post.Exposure)
	assert.Equal(t, float32(2), cfg.Renderer.MaxPixelRatio)
	assert.Equal(t, 2, cfg.Reveal.Target)
	assert.Equal(t, "public/DamagedHelmet.gltf", cfg.Assets.Model)
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, t.TempDir(), ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
camera:
  fov: 50
post:
  rgb_shift_amount: 0.004
  rgb_shift_angle: 1.5
reveal:
  fade: 2.5
model:
  mouse_ease: linear
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, float32(50), cfg.Camera.Fov)
	assert.Equal(t, float32(1000), cfg.Camera.Far)
	assert.Equal(t, float32(0.004), cfg.Post.RGBShiftAmount)
	assert.Equal(t, float32(1.5), cfg.Post.RGBShiftAngle)
	assert.Equal(t, float32(1), cfg.Post.Exposure)
	assert.Equal(t, 2500*time.Millisecond, cfg.Reveal.Fade.Duration())
	assert.Equal(t, "linear", cfg.Model.MouseEase)
	assert.Equal(t, 5, cfg.Reveal.BlinkRepeat)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, t.TempDir(), "camera: [fov"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "parse")
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, t.TempDir(), "camera:\n  fovy: 50\n"))
	assert.ErrorContains(t, err, "fovy")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"zero target", func(c *Config) { c.Reveal.Target = 0 }, "reveal target"},
		{"fov too wide", func(c *Config) { c.Camera.Fov = 180 }, "fov"},
		{"fov zero", func(c *Config) { c.Camera.Fov = 0 }, "fov"},
		{"near past far", func(c *Config) { c.Camera.Near = 1000 }, "clip"},
		{"negative fade", func(c *Config) { c.Reveal.Fade = -1 }, "durations"},
		{"negative mouse duration", func(c *Config) { c.Model.MouseDuration = -0.5 }, "mouse duration"},
		{"unknown ease", func(c *Config) { c.Reveal.FadeEase = "bounce" }, "bounce"},
		{"bad exposure", func(c *Config) { c.Post.Exposure = 0 }, "exposure"},
		{"msaa", func(c *Config) { c.Renderer.MSAA = 2 }, "msaa"},
		{"no model", func(c *Config) { c.Assets.Model = "" }, "assets"},
		{"window", func(c *Config) { c.Window.Width = 0 }, "window"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrInvalid)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestLoadValidates(t *testing.T) {
	_, err := Load(writeConfig(t, t.TempDir(), "reveal:\n  target: -1\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRevealTiming(t *testing.T) {
	timing, err := Default().Reveal.Timing()
	require.NoError(t, err)

	want := reveal.DefaultTiming()
	assert.Equal(t, want.Fade, timing.Fade)
	assert.Equal(t, want.Blink, timing.Blink)
	assert.Equal(t, want.BlinkRepeat, timing.BlinkRepeat)
	assert.Equal(t, want.Settle, timing.Settle)
	assert.InDelta(t, tween.Power2InOut(0.25), timing.FadeEase(0.25), 1e-6)

	r := Default().Reveal
	r.SettleEase = "elastic"
	_, err = r.Timing()
	assert.Error(t, err)
}

func TestShippedConfigLoads(t *testing.T) {
	cfg, err := Load("oxy-reveal.yaml")
	require.NoError(t, err)
	def := Default()
	assert.Equal(t, def.Assets, cfg.Assets)
	assert.Equal(t, def.Reveal, cfg.Reveal)
	assert.Equal(t, def.Renderer, cfg.Renderer)
	assert.InDelta(t, def.Model.MouseFactor, cfg.Model.MouseFactor, 1e-7)
}
