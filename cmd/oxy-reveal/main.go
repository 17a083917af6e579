// Command oxy-reveal loads an HDR environment and a glTF model behind a black curtain, fades the
// curtain out once both are ready, and then tilts the model toward the cursor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Carmen-Shannon/oxy-reveal/common"
	"github.com/Carmen-Shannon/oxy-reveal/config"
	"github.com/Carmen-Shannon/oxy-reveal/engine"
	"github.com/Carmen-Shannon/oxy-reveal/engine/camera"
	"github.com/Carmen-Shannon/oxy-reveal/engine/loader"
	"github.com/Carmen-Shannon/oxy-reveal/engine/model"
	"github.com/Carmen-Shannon/oxy-reveal/engine/overlay"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer"
	"github.com/Carmen-Shannon/oxy-reveal/engine/reveal"
	"github.com/Carmen-Shannon/oxy-reveal/engine/scene"
	"github.com/Carmen-Shannon/oxy-reveal/engine/tween"
	"github.com/Carmen-Shannon/oxy-reveal/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	curtainZIndex = 9999
	blinkZIndex   = 10
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	software := flag.Bool("software", false, "force the software GPU adapter")
	flag.Parse()

	if err := run(*configPath, *software); err != nil {
		log.Fatalf("oxy-reveal: %v", err)
	}
}

func run(configPath string, software bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	timing, err := cfg.Reveal.Timing()
	if err != nil {
		return err
	}
	mouseEase, err := tween.ParseEase(cfg.Model.MouseEase)
	if err != nil {
		return err
	}

	// ── Window + Renderer ───────────────────────────────────────────────
	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	presentMode := renderer.PresentModeVSync
	if !cfg.Renderer.VSync {
		presentMode = renderer.PresentModeUncapped
	}
	r, err := renderer.NewRenderer(
		renderer.BackendTypeWGPU,
		win,
		renderer.WithPresentMode(presentMode),
		renderer.WithMSAA(renderer.MSAASampleCount(cfg.Renderer.MSAA)),
		renderer.WithForceSoftwareRenderer(software || cfg.Renderer.Software),
		renderer.WithMaxPixelRatio(cfg.Renderer.MaxPixelRatio),
		renderer.WithPostProcess(cfg.Post),
	)
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	defer r.Release()

	// ── Camera ──────────────────────────────────────────────────────────
	lw, lh := win.LogicalSize()
	cam := camera.NewCamera(
		camera.WithPosition(mgl32.Vec3{0, 0, cfg.Camera.Z}),
		camera.WithFov(mgl32.DegToRad(cfg.Camera.Fov)),
		camera.WithClip(cfg.Camera.Near, cfg.Camera.Far),
		camera.WithAspect(float32(lw)/float32(max(lh, 1))),
	)

	// ── Overlay ─────────────────────────────────────────────────────────
	layer, err := buildOverlay(cfg.Assets.BlinkImage)
	if err != nil {
		return err
	}

	// ── Scene ───────────────────────────────────────────────────────────
	player := tween.NewPlayer()
	sc, err := scene.NewScene("reveal", cam, r,
		scene.WithLayer(layer),
		scene.WithPlayer(player),
		scene.WithMouseFactor(cfg.Model.MouseFactor),
		scene.WithMouseTween(cfg.Model.MouseDuration.Duration(), mouseEase),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coord, err := reveal.NewCoordinator(
		reveal.WithLayer(layer, reveal.DefaultOverlayID, reveal.DefaultBlinkID),
		reveal.WithPlayer(player),
		reveal.WithTiming(timing),
		reveal.WithTargetCount(cfg.Reveal.Target),
		reveal.WithContext(ctx),
	)
	if err != nil {
		return err
	}

	// ── Assets ──────────────────────────────────────────────────────────
	ld := loader.NewLoader(loader.BackendTypeGLTF,
		loader.WithRenderer(r),
		loader.WithEnvironmentIntensity(cfg.Assets.EnvironmentIntensity),
	)
	defer ld.Close()

	scale := cfg.Model.Scale
	seq := loader.NewSequence(ld, cfg.Assets.Environment, cfg.Assets.Model,
		loader.WithOnEnvironment(func(env *loader.Environment) {
			sc.SetEnvironment(env.Provider)
			coord.SignalAssetLoaded()
		}),
		loader.WithOnModel(func(m model.Model) {
			m.SetPosition(mgl32.Vec3{})
			m.SetScale(mgl32.Vec3{scale, scale, scale})
			if err := sc.SetModel(m); err != nil {
				log.Printf("An error happened: %v", err)
				return
			}
			coord.SignalAssetLoaded()
		}),
	)

	// ── Engine ──────────────────────────────────────────────────────────
	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithScene(0, sc),
		engine.WithTickRate(cfg.Profile.TickRate),
		engine.WithRenderFrameLimit(cfg.Profile.FrameLimit),
		engine.WithProfiling(cfg.Profile.Enabled),
	)

	win.SetKeyDownCallback(func(keyCode uint32) {
		if keyCode != common.KeyP {
			return
		}
		if eng.ProfilerEnabled() {
			eng.DisableProfiler()
		} else {
			eng.EnableProfiler()
		}
	})

	go func() {
		// Failures are logged by the sequence; the curtain then stays up.
		_ = seq.Run(ctx)
	}()
	go func() {
		select {
		case <-coord.Revealed():
			if err := coord.Err(); err != nil {
				log.Printf("[reveal] aborted: %v", err)
			}
		case <-ctx.Done():
		}
	}()

	if w, err := config.NewWatcher(configPath, 0); err != nil {
		log.Printf("[config] hot reload disabled: %v", err)
	} else {
		defer w.Close()
		go applyLive(ctx, w, r, sc)
	}

	eng.Run()
	cancel()
	return nil
}

// buildOverlay creates the black curtain and, when the image exists, the blink element under it.
func buildOverlay(blinkImage string) (overlay.Layer, error) {
	layer := overlay.NewLayer()
	curtain := overlay.NewElement(reveal.DefaultOverlayID,
		overlay.WithZIndex(curtainZIndex),
		overlay.WithColor(0, 0, 0, 1),
	)
	if err := layer.Add(curtain); err != nil {
		return nil, err
	}

	if blinkImage == "" {
		return layer, nil
	}
	if _, err := os.Stat(blinkImage); errors.Is(err, os.ErrNotExist) {
		log.Printf("[overlay] no blink image at %s", blinkImage)
		return layer, nil
	}
	blink, err := overlay.LoadImageElement(reveal.DefaultBlinkID, blinkImage, overlay.WithZIndex(blinkZIndex))
	if err != nil {
		log.Printf("[overlay] %v", err)
		return layer, nil
	}
	if err := layer.Add(blink); err != nil {
		return nil, err
	}
	return layer, nil
}

// applyLive pushes the live-tunable settings of each reloaded config to the renderer and scene.
// Everything else applies on the next start.
func applyLive(ctx context.Context, w *config.Watcher, r renderer.Renderer, sc scene.Scene) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			log.Printf("[config] reload failed: %v", err)
		case cfg, ok := <-w.Updates():
			if !ok {
				return
			}
			if err := r.SetPostProcess(cfg.Post); err != nil {
				log.Printf("[config] post: %v", err)
			}
			ease, err := tween.ParseEase(cfg.Model.MouseEase)
			if err != nil {
				log.Printf("[config] mouse ease: %v", err)
				continue
			}
			sc.SetMouseResponse(cfg.Model.MouseFactor, cfg.Model.MouseDuration.Duration(), ease)
			log.Printf("[config] reloaded")
		}
	}
}
