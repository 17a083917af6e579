package engine

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-reveal/engine/camera"
	"github.com/Carmen-Shannon/oxy-reveal/engine/model"
	"github.com/Carmen-Shannon/oxy-reveal/engine/scene"
	"github.com/Carmen-Shannon/oxy-reveal/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindow is a window without a platform surface. Its message loop runs until RequestClose.
type fakeWindow struct {
	mu                 sync.Mutex
	fbW, fbH           int
	logicalW, logicalH int
	scale              float32
	closed             chan struct{}
	closeOnce          sync.Once
	onResize           func(width, height int)
	onContentScale     func(scale float32)
	onMouseMove        func(x, y float64)
	onUpdate           func()
}

func newFakeWindow(w, h int, scale float32) *fakeWindow {
	return &fakeWindow{
		fbW:      int(float32(w) * scale),
		fbH:      int(float32(h) * scale),
		logicalW: w,
		logicalH: h,
		scale:    scale,
		closed:   make(chan struct{}),
	}
}

var _ window.Window = &fakeWindow{}

func (f *fakeWindow) SetUpdateCallback(cb func())                    { f.onUpdate = cb }
func (f *fakeWindow) SetResizeCallback(cb func(width, height int))   { f.onResize = cb }
func (f *fakeWindow) SetContentScaleCallback(cb func(scale float32)) { f.onContentScale = cb }
func (f *fakeWindow) SetKeyDownCallback(func(keyCode uint32))        {}
func (f *fakeWindow) SetMouseMoveCallback(cb func(x, y float64))     { f.onMouseMove = cb }
func (f *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor     { return nil }
func (f *fakeWindow) Close() error                                   { f.RequestClose(); return nil }
func (f *fakeWindow) ContentScale() float32                          { return f.scale }

func (f *fakeWindow) IsRunning() bool {
	select {
	case <-f.closed:
		return false
	default:
		return true
	}
}

func (f *fakeWindow) RequestClose() {
	f.closeOnce.Do(func() { close(f.closed) })
}

func (f *fakeWindow) ProcessMessages() {
	for f.IsRunning() {
		if f.onUpdate != nil {
			f.onUpdate()
		}
		time.Sleep(time.Millisecond)
	}
}

func (f *fakeWindow) Width() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fbW
}

func (f *fakeWindow) Height() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fbH
}

func (f *fakeWindow) LogicalSize() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logicalW, f.logicalH
}

func (f *fakeWindow) resize(w, h int) {
	f.mu.Lock()
	f.logicalW, f.logicalH = w, h
	f.fbW, f.fbH = int(float32(w)*f.scale), int(float32(h)*f.scale)
	fbW, fbH := f.fbW, f.fbH
	f.mu.Unlock()
	f.onResize(fbW, fbH)
}

func newHeadlessScene(t *testing.T) scene.Scene {
	t.Helper()
	s, err := scene.NewScene("main", camera.NewCamera(), nil)
	require.NoError(t, err)
	return s
}

func runEngine(t *testing.T, e Engine) {
	t.Helper()
	stopped := make(chan struct{})
	go func() {
		e.Run()
		close(stopped)
	}()
	t.Cleanup(func() {
		e.Quit()
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			t.Error("engine did not stop")
		}
	})
}

func TestEngineAppliesResizeToScenes(t *testing.T) {
	fw := newFakeWindow(800, 400, 2)
	s := newHeadlessScene(t)
	e := NewEngine(WithWindow(fw), WithScene(0, s), WithRenderFrameLimit(500))
	runEngine(t, e)

	require.Eventually(t, func() bool {
		return s.Camera().Aspect() > 1.99 && s.Camera().Aspect() < 2.01
	}, time.Second, time.Millisecond)

	fw.resize(600, 600)
	require.Eventually(t, func() bool {
		return s.Camera().Aspect() > 0.99 && s.Camera().Aspect() < 1.01
	}, time.Second, time.Millisecond)
}

func TestEngineForwardsMouseAndTicksScenes(t *testing.T) {
	fw := newFakeWindow(800, 600, 1)
	s := newHeadlessScene(t)
	m := model.NewModel(model.WithName("helmet"))
	require.NoError(t, s.SetModel(m))

	ticks := make(chan time.Duration, 100)
	e := NewEngine(WithWindow(fw), WithScene(0, s), WithTickRate(200), WithRenderFrameLimit(500))
	e.SetTickCallback(func(dt time.Duration) {
		select {
		case ticks <- dt:
		default:
		}
	})
	runEngine(t, e)

	fw.onMouseMove(800, 600)
	require.Equal(t, 1, s.Player().Len())
	require.Eventually(t, func() bool { return s.Player().Len() == 0 }, 2*time.Second, time.Millisecond)

	want := float32(0.5 * math.Pi * scene.DefaultMouseFactor)
	assert.InDelta(t, want, m.RotationX(), 1e-6)
	assert.InDelta(t, want, m.RotationY(), 1e-6)
	assert.Positive(t, <-ticks)
}

func TestEngineSkipsInactiveScenes(t *testing.T) {
	fw := newFakeWindow(800, 600, 1)
	s := newHeadlessScene(t)
	require.NoError(t, s.SetModel(model.NewModel()))
	s.SetActive(false)

	NewEngine(WithWindow(fw), WithScene(0, s))
	fw.onMouseMove(10, 10)
	assert.Equal(t, 0, s.Player().Len())
}

func TestEngineQuitIsIdempotent(t *testing.T) {
	e := NewEngine()
	stopped := make(chan struct{})
	go func() {
		e.Run()
		close(stopped)
	}()

	e.Quit()
	e.Quit()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
	select {
	case <-e.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestEngineScenesRegistry(t *testing.T) {
	e := NewEngine()
	a, b := newHeadlessScene(t), newHeadlessScene(t)
	e.AddScene(1, b)
	e.AddScene(0, a)
	assert.Same(t, a, e.Scene(0))
	assert.Len(t, e.Scenes(), 2)

	e.RemoveScene(1)
	assert.Nil(t, e.Scene(1))
	assert.Len(t, e.Scenes(), 1)
}
