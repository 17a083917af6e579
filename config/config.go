// Package config loads the viewer settings from a YAML file and watches it for live changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/postfx"
	"github.com/Carmen-Shannon/oxy-reveal/engine/reveal"
	"github.com/Carmen-Shannon/oxy-reveal/engine/tween"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the viewer looks for its config when no -config flag is given.
const DefaultPath = "config/oxy-reveal.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Seconds is a duration written as a number of seconds.
type Seconds float64

// Duration converts to a time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(float64(s) * float64(time.Second))
}

// Config is the full viewer configuration. Zero sections are never valid; start from Default.
type Config struct {
	Window   Window        `yaml:"window"`
	Camera   Camera        `yaml:"camera"`
	Assets   Assets        `yaml:"assets"`
	Reveal   Reveal        `yaml:"reveal"`
	Model    Model         `yaml:"model"`
	Post     postfx.Params `yaml:"post"`
	Renderer Renderer      `yaml:"renderer"`
	Profile  Profile       `yaml:"profile"`
}

type Window struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type Camera struct {
	// Fov is the vertical field of view in degrees.
	Fov  float32 `yaml:"fov"`
	Near float32 `yaml:"near"`
	Far  float32 `yaml:"far"`
	Z    float32 `yaml:"z"`
}

type Assets struct {
	// Environment is the equirectangular .hdr map, a URL or a local path.
	Environment string `yaml:"environment"`
	// Model is the .gltf or .glb file, a URL or a local path.
	Model string `yaml:"model"`
	// BlinkImage is the image element blinked after the reveal. A missing file skips the blink.
	BlinkImage           string  `yaml:"blink_image"`
	EnvironmentIntensity float32 `yaml:"environment_intensity"`
}

type Reveal struct {
	Target      int     `yaml:"target"`
	Fade        Seconds `yaml:"fade"`
	FadeEase    string  `yaml:"fade_ease"`
	Blink       Seconds `yaml:"blink"`
	BlinkRepeat int     `yaml:"blink_repeat"`
	BlinkEase   string  `yaml:"blink_ease"`
	Settle      Seconds `yaml:"settle"`
	SettleEase  string  `yaml:"settle_ease"`
}

type Model struct {
	Scale float32 `yaml:"scale"`
	// MouseFactor is the tilt at the window edge as a fraction of a half turn.
	MouseFactor   float32 `yaml:"mouse_factor"`
	MouseDuration Seconds `yaml:"mouse_duration"`
	MouseEase     string  `yaml:"mouse_ease"`
}

type Renderer struct {
	MaxPixelRatio float32 `yaml:"max_pixel_ratio"`
	MSAA          int     `yaml:"msaa"`
	VSync         bool    `yaml:"vsync"`
	Software      bool    `yaml:"software"`
}

type Profile struct {
	Enabled    bool    `yaml:"enabled"`
	TickRate   float64 `yaml:"tick_rate"`
	FrameLimit float64 `yaml:"frame_limit"`
}

// Default returns the stock settings.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	timing := reveal.DefaultTiming()
	return Config{
		Window: Window{
			Title:  "oxy-reveal",
			Width:  1280,
			Height: 720,
		},
		Camera: Camera{
			Fov:  40,
			Near: 0.1,
			Far:  1000,
			Z:    8,
		},
		Assets: Assets{
			Environment:          "https://dl.polyhaven.org/file/ph-assets/HDRIs/hdr/1k/pond_bridge_night_1k.hdr",
			Model:                "public/DamagedHelmet.gltf",
			BlinkImage:           "public/blink.png",
			EnvironmentIntensity: 1,
		},
		Reveal: Reveal{
			Target:      reveal.DefaultTargetCount,
			Fade:        Seconds(timing.Fade.Seconds()),
			FadeEase:    "power2.inOut",
			Blink:       Seconds(timing.Blink.Seconds()),
			BlinkRepeat: timing.BlinkRepeat,
			BlinkEase:   "power1.out",
			Settle:      Seconds(timing.Settle.Seconds()),
			SettleEase:  "power1.out",
		},
		Model: Model{
			Scale:         2,
			MouseFactor:   0.12,
			MouseDuration: 0.5,
			MouseEase:     "power2.out",
		},
		Post: postfx.DefaultParams(),
		Renderer: Renderer{
			MaxPixelRatio: 2,
			MSAA:          4,
			VSync:         true,
		},
		Profile: Profile{
			TickRate: 60,
		},
	}
}

// Load reads the config at path over the defaults. A missing file yields the defaults; keys absent
// from the file keep their default values.
//
// Parameters:
//   - path: the YAML file
//
// Returns:
//   - Config: the merged and validated configuration
//   - error: a read or parse error, or an error wrapping ErrInvalid
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every value the viewer depends on.
//
// Returns:
//   - error: an error wrapping ErrInvalid naming the first bad value
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return invalid("window size %dx%d", c.Window.Width, c.Window.Height)
	case c.Camera.Fov <= 0 || c.Camera.Fov >= 180:
		return invalid("camera fov %v outside (0, 180)", c.Camera.Fov)
	case c.Camera.Near <= 0 || c.Camera.Near >= c.Camera.Far:
		return invalid("camera clip %v..%v", c.Camera.Near, c.Camera.Far)
	case c.Assets.Environment == "" || c.Assets.Model == "":
		return invalid("assets need an environment and a model")
	case c.Assets.EnvironmentIntensity < 0:
		return invalid("environment intensity %v", c.Assets.EnvironmentIntensity)
	case c.Reveal.Target <= 0:
		return invalid("reveal target %d", c.Reveal.Target)
	case c.Reveal.Fade < 0 || c.Reveal.Blink < 0 || c.Reveal.Settle < 0:
		return invalid("reveal durations must not be negative")
	case c.Reveal.BlinkRepeat < 0:
		return invalid("blink repeat %d", c.Reveal.BlinkRepeat)
	case c.Model.Scale <= 0:
		return invalid("model scale %v", c.Model.Scale)
	case c.Model.MouseDuration < 0:
		return invalid("mouse duration %v", c.Model.MouseDuration)
	case c.Renderer.MaxPixelRatio <= 0:
		return invalid("max pixel ratio %v", c.Renderer.MaxPixelRatio)
	case c.Renderer.MSAA != 1 && c.Renderer.MSAA != 4:
		return invalid("msaa %d, want 1 or 4", c.Renderer.MSAA)
	case c.Profile.TickRate < 0 || c.Profile.FrameLimit < 0:
		return invalid("profile rates must not be negative")
	}

	for _, name := range []string{c.Reveal.FadeEase, c.Reveal.BlinkEase, c.Reveal.SettleEase, c.Model.MouseEase} {
		if _, err := tween.ParseEase(name); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	if err := c.Post.Validate(); err != nil {
		return fmt.Errorf("%w: post: %v", ErrInvalid, err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Timing converts the reveal section. Call on a validated config.
//
// Returns:
//   - reveal.Timing: the reveal timing
//   - error: error if an ease name is unknown
func (r Reveal) Timing() (reveal.Timing, error) {
	fade, err := tween.ParseEase(r.FadeEase)
	if err != nil {
		return reveal.Timing{}, err
	}
	blink, err := tween.ParseEase(r.BlinkEase)
	if err != nil {
		return reveal.Timing{}, err
	}
	settle, err := tween.ParseEase(r.SettleEase)
	if err != nil {
		return reveal.Timing{}, err
	}
	return reveal.Timing{
		Fade:        r.Fade.Duration(),
		FadeEase:    fade,
		Blink:       r.Blink.Duration(),
		BlinkRepeat: r.BlinkRepeat,
		BlinkEase:   blink,
		Settle:      r.Settle.Duration(),
		SettleEase:  settle,
	}, nil
}
