package reveal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-reveal/engine/overlay"
	"github.com/Carmen-Shannon/oxy-reveal/engine/tween"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingElement records every opacity write and checks it against a guard.
type recordingElement struct {
	overlay.Element
	mu     sync.Mutex
	writes []float32
	guard  func() bool
	broken bool
}

func (r *recordingElement) SetOpacity(o float32) {
	r.mu.Lock()
	r.writes = append(r.writes, o)
	if r.guard != nil && !r.guard() {
		r.broken = true
	}
	r.mu.Unlock()
	r.Element.SetOpacity(o)
}

func (r *recordingElement) min() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := float32(1)
	for _, w := range r.writes {
		m = min(m, w)
	}
	return m
}

// pump drives the player until done is closed.
func pump(t *testing.T, p tween.Player, done <-chan struct{}) {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case <-done:
			return
		case <-deadline:
			t.Fatal("reveal sequence did not finish")
		default:
			p.Update(16 * time.Millisecond)
			time.Sleep(200 * time.Microsecond)
		}
	}
}

func newScene(t *testing.T, withBlink bool) (overlay.Layer, overlay.Element, *recordingElement) {
	t.Helper()
	curtain := overlay.NewElement(DefaultOverlayID, overlay.WithZIndex(9999), overlay.WithColor(0, 0, 0, 1))
	layer := overlay.NewLayer(curtain)
	if !withBlink {
		return layer, curtain, nil
	}
	blink := &recordingElement{
		Element: overlay.NewElement(DefaultBlinkID),
		guard:   func() bool { return !curtain.Visible() && curtain.Opacity() == 0 },
	}
	require.NoError(t, layer.Add(blink))
	return layer, curtain, blink
}

func TestCoordinatorRevealsAfterBothSignals(t *testing.T) {
	layer, curtain, blink := newScene(t, true)
	player := tween.NewPlayer()
	c, err := NewCoordinator(WithLayer(layer, "", ""), WithPlayer(player))
	require.NoError(t, err)
	assert.True(t, c.Pending())

	c.SignalAssetLoaded()
	completed, target := c.Progress()
	assert.Equal(t, 1, completed)
	assert.Equal(t, 2, target)

	for range 200 {
		player.Update(16 * time.Millisecond)
	}
	select {
	case <-c.Revealed():
		t.Fatal("revealed after a single signal")
	default:
	}
	assert.Equal(t, float32(1), curtain.Opacity())
	assert.True(t, curtain.Visible())

	c.SignalAssetLoaded()
	assert.False(t, c.Pending())
	pump(t, player, c.Revealed())

	require.NoError(t, c.Err())
	assert.Equal(t, float32(0), curtain.Opacity())
	assert.False(t, curtain.Visible())
	assert.Equal(t, float32(1), blink.Opacity())
	assert.Less(t, blink.min(), float32(0.5), "blink must actually dip")
	assert.False(t, blink.broken, "blink started before the curtain was hidden")
}

func TestCoordinatorNeverRevealsWithoutSecondSignal(t *testing.T) {
	layer, curtain, _ := newScene(t, true)
	player := tween.NewPlayer()
	c, err := NewCoordinator(WithLayer(layer, "", ""), WithPlayer(player))
	require.NoError(t, err)

	c.SignalAssetLoaded()
	for range 1000 {
		player.Update(time.Second)
	}

	select {
	case <-c.Revealed():
		t.Fatal("revealed without the model signal")
	case <-time.After(50 * time.Millisecond):
	}
	assert.True(t, c.Pending())
	assert.True(t, curtain.Visible())
	assert.Equal(t, float32(1), curtain.Opacity())
}

func TestCoordinatorSkipsMissingBlink(t *testing.T) {
	layer, curtain, _ := newScene(t, false)
	player := tween.NewPlayer()
	c, err := NewCoordinator(WithLayer(layer, "", ""), WithPlayer(player))
	require.NoError(t, err)

	c.SignalAssetLoaded()
	c.SignalAssetLoaded()
	pump(t, player, c.Revealed())

	require.NoError(t, c.Err())
	assert.False(t, curtain.Visible())
	assert.Equal(t, 0, player.Len())
}

func TestCoordinatorLooksUpBlinkWhenSequenceRuns(t *testing.T) {
	layer, _, _ := newScene(t, false)
	player := tween.NewPlayer()
	c, err := NewCoordinator(WithLayer(layer, "", ""), WithPlayer(player))
	require.NoError(t, err)

	blink := overlay.NewElement(DefaultBlinkID, overlay.WithOpacity(0.3))
	require.NoError(t, layer.Add(blink))

	c.SignalAssetLoaded()
	c.SignalAssetLoaded()
	pump(t, player, c.Revealed())

	assert.Equal(t, float32(1), blink.Opacity())
}

func TestCoordinatorIgnoresExcessSignals(t *testing.T) {
	layer, _, _ := newScene(t, false)
	player := tween.NewPlayer()
	c, err := NewCoordinator(WithLayer(layer, "", ""), WithPlayer(player), WithTargetCount(1))
	require.NoError(t, err)

	c.SignalAssetLoaded()
	c.SignalAssetLoaded()
	c.SignalAssetLoaded()
	pump(t, player, c.Revealed())

	completed, target := c.Progress()
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, target)
}

func TestCoordinatorConcurrentSignalsRevealOnce(t *testing.T) {
	layer, _, _ := newScene(t, false)
	player := tween.NewPlayer()
	c, err := NewCoordinator(WithLayer(layer, "", ""), WithPlayer(player))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.SignalAssetLoaded()
		}()
	}
	wg.Wait()
	pump(t, player, c.Revealed())

	completed, _ := c.Progress()
	assert.Equal(t, 2, completed)
}

func TestCoordinatorCancelledContext(t *testing.T) {
	layer, curtain, _ := newScene(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, err := NewCoordinator(WithLayer(layer, "", ""), WithContext(ctx))
	require.NoError(t, err)
	c.SignalAssetLoaded()
	c.SignalAssetLoaded()

	select {
	case <-c.Revealed():
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled sequence did not finish")
	}
	assert.ErrorIs(t, c.Err(), context.Canceled)
	assert.True(t, curtain.Visible())
}

func TestNewCoordinatorInvalidTarget(t *testing.T) {
	_, err := NewCoordinator(WithTargetCount(0))
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestDefaultTiming(t *testing.T) {
	timing := DefaultTiming()
	assert.Equal(t, time.Second, timing.Fade)
	assert.Equal(t, 100*time.Millisecond, timing.Blink)
	assert.Equal(t, 5, timing.BlinkRepeat)
	assert.Equal(t, 200*time.Millisecond, timing.Settle)
}
