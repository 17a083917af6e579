package scene

import (
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-reveal/engine/camera"
	"github.com/Carmen-Shannon/oxy-reveal/engine/model"
	"github.com/Carmen-Shannon/oxy-reveal/engine/overlay"
	"github.com/Carmen-Shannon/oxy-reveal/engine/tween"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeadless(t *testing.T, options ...SceneBuilderOption) Scene {
	t.Helper()
	s, err := NewScene("main", camera.NewCamera(), nil, options...)
	require.NoError(t, err)
	return s
}

func TestNewSceneDefaults(t *testing.T) {
	s := newHeadless(t)
	assert.Equal(t, "main", s.Name())
	assert.True(t, s.Active())
	assert.NotNil(t, s.Layer())
	assert.NotNil(t, s.Player())
	assert.Nil(t, s.Model())
	assert.Nil(t, s.Renderer())

	s.SetActive(false)
	assert.False(t, s.Active())

	assert.Panics(t, func() { _, _ = NewScene("nil", nil, nil) })
}

func TestMouseMoveWithoutModelIsNoop(t *testing.T) {
	s := newHeadless(t)
	s.HandleMouseMove(10, 10, 100, 100)
	assert.Equal(t, 0, s.Player().Len())
}

func TestMouseMoveTiltsModel(t *testing.T) {
	s := newHeadless(t)
	m := model.NewModel(model.WithName("helmet"))
	require.NoError(t, s.SetModel(m))

	// Cursor in the bottom-right corner.
	s.HandleMouseMove(800, 600, 800, 600)
	require.Equal(t, 1, s.Player().Len())

	s.Update(250 * time.Millisecond)
	half := m.RotationY()
	assert.Greater(t, half, float32(0))

	s.Update(250 * time.Millisecond)
	want := float32(0.5 * math.Pi * DefaultMouseFactor)
	assert.InDelta(t, want, m.RotationX(), 1e-6)
	assert.InDelta(t, want, m.RotationY(), 1e-6)
	assert.Greater(t, m.RotationY(), half)
	assert.Equal(t, 0, s.Player().Len())
}

func TestMouseMoveReplacesRunningTween(t *testing.T) {
	s := newHeadless(t, WithMouseTween(100*time.Millisecond, tween.Linear), WithMouseFactor(1))
	m := model.NewModel(model.WithName("helmet"))
	require.NoError(t, s.SetModel(m))

	s.HandleMouseMove(0, 0, 100, 100)
	s.Update(50 * time.Millisecond)
	s.HandleMouseMove(50, 50, 100, 100)
	assert.Equal(t, 1, s.Player().Len())

	s.Update(100 * time.Millisecond)
	assert.InDelta(t, 0, m.RotationX(), 1e-6)
	assert.InDelta(t, 0, m.RotationY(), 1e-6)
}

func TestMouseMoveIgnoresEmptyWindow(t *testing.T) {
	s := newHeadless(t)
	require.NoError(t, s.SetModel(model.NewModel()))
	s.HandleMouseMove(10, 10, 0, 100)
	assert.Equal(t, 0, s.Player().Len())
}

func TestSetModelOnce(t *testing.T) {
	s := newHeadless(t)
	first := model.NewModel(model.WithName("first"))
	require.NoError(t, s.SetModel(first))
	assert.ErrorIs(t, s.SetModel(model.NewModel()), ErrModelSet)
	assert.Same(t, first, s.Model())
	assert.Error(t, s.SetModel(nil))
}

func TestResizeUpdatesAspect(t *testing.T) {
	s := newHeadless(t)
	s.Resize(1600, 800)
	assert.InDelta(t, 2, s.Camera().Aspect(), 1e-6)

	s.Resize(0, 800)
	assert.InDelta(t, 2, s.Camera().Aspect(), 1e-6)
}

func TestHeadlessDrawIsNoop(t *testing.T) {
	layer := overlay.NewLayer(overlay.NewElement("overlay", overlay.WithRect(overlay.FullScreen)))
	s := newHeadless(t, WithLayer(layer))
	assert.NoError(t, s.DrawCalls())
	assert.NoError(t, s.DrawOverlay())
	assert.Same(t, layer, s.Layer())
}

func TestSetMouseResponse(t *testing.T) {
	s := newHeadless(t)
	m := model.NewModel()
	require.NoError(t, s.SetModel(m))

	s.SetMouseResponse(0.5, 100*time.Millisecond, tween.Linear)
	s.HandleMouseMove(100, 50, 100, 100)
	s.Update(50 * time.Millisecond)
	assert.InDelta(t, 0.125*math.Pi, m.RotationY(), 1e-5)
	assert.InDelta(t, 0, m.RotationX(), 1e-6)

	// Zero duration and nil ease keep the previous values.
	s.SetMouseResponse(0.5, 0, nil)
	s.HandleMouseMove(0, 50, 100, 100)
	s.Update(50 * time.Millisecond)
	// Halfway from 0.125π to -0.25π.
	assert.InDelta(t, -0.0625*math.Pi, m.RotationY(), 1e-5)
}
