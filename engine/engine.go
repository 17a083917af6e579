package engine

import (
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-reveal/engine/profiler"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer"
	"github.com/Carmen-Shannon/oxy-reveal/engine/scene"
	"github.com/Carmen-Shannon/oxy-reveal/engine/window"
)

// resizeEvent is a framebuffer or pixel density change waiting to be applied by the render goroutine.
type resizeEvent struct {
	fbWidth, fbHeight           int
	logicalWidth, logicalHeight int
	pixelRatio                  float32
}

// engine implements the Engine interface.
// Coordinates engine, render, and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates
	resizeChannel   chan resizeEvent   // Latest pending resize; older ones are dropped

	mu      sync.RWMutex
	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window window.Window

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(dt time.Duration)
	renderCallback func(dt time.Duration)

	scenes map[int]scene.Scene

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	lastFrameErr     string
}

// Engine is the main entry point for the engine.
// It orchestrates the engine loop, render loop, and window management.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// ProfilerEnabled reports whether profiling output is on.
	ProfilerEnabled() bool

	// SetTickRate sets the engine tick rate in ticks per second.
	// Active scenes are updated at this rate.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick, after the scenes are updated.
	//
	// Parameters:
	//   - callback: function receiving the time since the previous tick
	SetTickCallback(callback func(dt time.Duration))

	// SetRenderCallback registers the function called after each rendered frame.
	//
	// Parameters:
	//   - callback: function receiving the time since the previous frame
	SetRenderCallback(callback func(dt time.Duration))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given z-index key.
	// Scenes are rendered in ascending key order during the render loop.
	//
	// Parameters:
	//   - key: the z-index determining render order (lower renders first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Run starts the engine and render goroutines and runs the window message loop on the calling
	// goroutine. Blocks until the window closes or Quit is called.
	Run()

	// Quit signals all engine goroutines to stop and asks the window to close.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()

	// Done returns a channel closed once Quit has been signalled.
	Done() <-chan struct{}
}

// NewEngine creates a new Engine instance with the provided options.
// With a window, framebuffer resizes and pixel density changes are forwarded to every scene's
// renderer and camera, and cursor moves to every active scene.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		resizeChannel:   make(chan resizeEvent, 1),
		quitChannel:     make(chan struct{}),
		scenes:          make(map[int]scene.Scene),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			e.queueResize()
		})
		e.window.SetContentScaleCallback(func(scale float32) {
			e.queueResize()
		})
		e.window.SetMouseMoveCallback(func(x, y float64) {
			w, h := e.window.LogicalSize()
			for _, s := range e.activeScenes() {
				s.HandleMouseMove(x, y, float64(w), float64(h))
			}
		})
		// Size everything once before the first frame.
		e.queueResize()
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Run() {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
	} else {
		<-e.quitChannel
	}
	e.signalQuit()
	e.wg.Wait()
}

func (e *engine) Quit() {
	e.signalQuit()
	if e.window != nil {
		e.window.RequestClose()
	}
}

func (e *engine) Done() <-chan struct{} {
	return e.quitChannel
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(e.quitChannel)
	})
}

// handle launches the engine and render goroutines, tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// queueResize snapshots the window size and replaces any resize the render goroutine has not applied yet.
func (e *engine) queueResize() {
	lw, lh := e.window.LogicalSize()
	ev := resizeEvent{
		fbWidth:       e.window.Width(),
		fbHeight:      e.window.Height(),
		logicalWidth:  lw,
		logicalHeight: lh,
		pixelRatio:    e.window.ContentScale(),
	}
	select {
	case e.resizeChannel <- ev:
	default:
		select {
		case <-e.resizeChannel:
		default:
		}
		e.resizeChannel <- ev
	}
}

// applyResize resizes each distinct renderer once and every scene's camera and overlay viewport.
// The renderer caps the pixel ratio at its maximum.
func (e *engine) applyResize(ev resizeEvent) {
	seen := make(map[renderer.Renderer]bool)
	for _, s := range e.sortedScenes(false) {
		if r := s.Renderer(); r != nil && !seen[r] {
			seen[r] = true
			if ev.pixelRatio > 0 {
				if err := r.SetPixelRatio(ev.pixelRatio); err != nil {
					log.Printf("[engine] set pixel ratio %.2f: %v", ev.pixelRatio, err)
				}
			}
			if err := r.Resize(ev.fbWidth, ev.fbHeight); err != nil {
				log.Printf("[engine] resize %dx%d: %v", ev.fbWidth, ev.fbHeight, err)
			}
		}
		s.Resize(ev.logicalWidth, ev.logicalHeight)
	}
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Updates every active scene at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer e.recoverAndQuit("engine")

	e.mu.RLock()
	rate := e.engineTickRate
	e.mu.RUnlock()
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := now.Sub(lastTick)
			lastTick = now

			for _, s := range e.activeScenes() {
				s.Update(dt)
			}
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.mu.Lock()
			e.engineTickRate = newRate
			e.mu.Unlock()
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Each frame applies any pending resize, then draws active scenes in ascending z-index order:
// models into the scene pass, overlays into the screen pass.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer e.recoverAndQuit("render")

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case ev := <-e.resizeChannel:
			e.applyResize(ev)
		default:
			now := time.Now()
			dt := now.Sub(lastRender)
			lastRender = now

			e.logFrameErr(e.renderFrame(e.activeScenes()))

			if e.renderCallback != nil {
				e.renderCallback(dt)
			}

			if e.profilingEnabled.Load() && e.profiler != nil {
				e.profiler.Frame(dt)
			}

			if e.renderFrameLimit > 0 {
				if remaining := e.renderFrameLimit - time.Since(now); remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// renderFrame runs one frame on the first active scene's renderer. All scenes share the frame.
func (e *engine) renderFrame(scenes []scene.Scene) error {
	if len(scenes) == 0 {
		return nil
	}
	r := scenes[0].Renderer()
	if r == nil {
		return nil
	}

	if err := r.BeginFrame(); err != nil {
		return err
	}
	for _, s := range scenes {
		if err := s.DrawCalls(); err != nil {
			r.EndFrame()
			return err
		}
	}
	if err := r.BeginScreenPass(); err != nil {
		r.EndFrame()
		return err
	}
	for _, s := range scenes {
		if err := s.DrawOverlay(); err != nil {
			r.EndFrame()
			return err
		}
	}
	r.EndFrame()
	r.Present()
	return nil
}

// logFrameErr logs a frame error once until a different error, or a successful frame, replaces it.
func (e *engine) logFrameErr(err error) {
	if err == nil {
		e.lastFrameErr = ""
		return
	}
	if msg := err.Error(); msg != e.lastFrameErr {
		e.lastFrameErr = msg
		log.Printf("[engine] frame skipped: %v", err)
	}
}

// recoverAndQuit recovers a panicking goroutine and shuts the engine down instead of crashing the process.
func (e *engine) recoverAndQuit(name string) {
	if r := recover(); r != nil {
		log.Printf("%s goroutine recovered from panic: %v", name, r)
		e.Quit()
	}
}

func (e *engine) activeScenes() []scene.Scene {
	return e.sortedScenes(true)
}

// sortedScenes returns the registered scenes in ascending z-index order.
func (e *engine) sortedScenes(activeOnly bool) []scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()

	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		s := e.scenes[k]
		if activeOnly && !s.Active() {
			continue
		}
		out = append(out, s)
	}
	return out
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

func (e *engine) ProfilerEnabled() bool {
	return e.profilingEnabled.Load()
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	e.mu.Lock()
	running := e.running
	if !running {
		e.engineTickRate = newRate
	}
	e.mu.Unlock()
	if !running {
		return
	}

	// Non-blocking send - if channel is full, replace the pending value
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(dt time.Duration)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(dt time.Duration)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	e.scenes[key] = s
	e.mu.Unlock()
	if e.window != nil {
		e.queueResize()
	}
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
