// Package reveal gates a one-time visual reveal behind the joint completion of a fixed number of asset loads.
// Once every asset has signalled, the loading curtain fades out and is hidden, then an optional image
// element blinks and settles back to full opacity. Each step is awaited before the next begins.
package reveal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-reveal/engine/overlay"
	"github.com/Carmen-Shannon/oxy-reveal/engine/tween"
)

const (
	// DefaultOverlayID is the id of the full-screen loading curtain.
	DefaultOverlayID = "overlay"

	// DefaultBlinkID is the id of the image that blinks after the curtain is gone.
	DefaultBlinkID = "blink"

	// DefaultTargetCount is one environment map plus one model.
	DefaultTargetCount = 2
)

// coordinator is the implementation of the Coordinator interface.
type coordinator struct {
	ctx       context.Context
	progress  *LoadProgress
	timing    Timing
	player    tween.Player
	layer     overlay.Layer
	overlayID string
	blinkID   string
	target    int

	revealOnce sync.Once
	revealed   chan struct{}
	mu         sync.Mutex
	err        error
}

// Coordinator counts asset-load completions and runs the reveal sequence exactly once when the
// target is reached. It does not know which asset completed.
type Coordinator interface {
	// SignalAssetLoaded records one asset completion. The signal that reaches the target starts the
	// reveal sequence in the background; signals after that are ignored with a warning.
	SignalAssetLoaded()

	// Pending reports whether the reveal is still waiting on asset completions.
	//
	// Returns:
	//   - bool: true until the target count is reached
	Pending() bool

	// Progress returns the completion count and the target.
	//
	// Returns:
	//   - int: completed signals
	//   - int: target count
	Progress() (int, int)

	// Revealed returns a channel that is closed once the reveal sequence has finished or aborted.
	//
	// Returns:
	//   - <-chan struct{}: the completion channel
	Revealed() <-chan struct{}

	// Err returns the error that aborted the sequence, or nil.
	//
	// Returns:
	//   - error: the sequence error
	Err() error

	// Player returns the tween player driving the sequence. It must be advanced by the owner's clock.
	//
	// Returns:
	//   - tween.Player: the player
	Player() tween.Player
}

var _ Coordinator = &coordinator{}

// NewCoordinator creates a Coordinator with a target of two assets and the default timing.
//
// Parameters:
//   - options: a variadic list of CoordinatorBuilderOption functions
//
// Returns:
//   - Coordinator: the new coordinator
//   - error: ErrInvalidTarget if the configured target is not positive
func NewCoordinator(options ...CoordinatorBuilderOption) (Coordinator, error) {
	c := &coordinator{
		ctx:       context.Background(),
		timing:    DefaultTiming(),
		overlayID: DefaultOverlayID,
		blinkID:   DefaultBlinkID,
		target:    DefaultTargetCount,
		revealed:  make(chan struct{}),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.player == nil {
		c.player = tween.NewPlayer()
	}
	if c.layer == nil {
		c.layer = overlay.NewLayer()
	}

	progress, err := NewLoadProgress(c.target)
	if err != nil {
		return nil, err
	}
	c.progress = progress
	return c, nil
}

func (c *coordinator) SignalAssetLoaded() {
	reached, err := c.progress.Signal()
	if err != nil {
		log.Printf("[reveal] ignoring asset signal: %v", err)
		return
	}
	completed, target := c.Progress()
	log.Printf("[reveal] assets loaded %d/%d", completed, target)
	if reached {
		c.revealOnce.Do(func() {
			go c.run()
		})
	}
}

func (c *coordinator) Pending() bool {
	return c.progress.Pending()
}

func (c *coordinator) Progress() (int, int) {
	return c.progress.Completed(), c.progress.Target()
}

func (c *coordinator) Revealed() <-chan struct{} {
	return c.revealed
}

func (c *coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *coordinator) Player() tween.Player {
	return c.player
}

// run executes the reveal steps in order and closes the revealed channel.
func (c *coordinator) run() {
	defer close(c.revealed)

	seq := newSequence(
		step{name: "fade", run: c.fade},
		step{name: "blink", run: c.blink},
	)
	if err := seq.run(c.ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("[reveal] sequence aborted: %v", err)
		}
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		return
	}
	log.Printf("[reveal] done")
}

// fade tweens the curtain to transparent, then hides it.
func (c *coordinator) fade(ctx context.Context) error {
	curtain, ok := c.layer.Element(c.overlayID)
	if !ok {
		log.Printf("[reveal] fade skipped: no element %q", c.overlayID)
		return nil
	}

	t := tween.To(curtain.Opacity, curtain.SetOpacity, 0, c.timing.Fade, tween.WithEase(c.timing.FadeEase))
	if err := c.await(ctx, c.overlayID+".opacity", t); err != nil {
		return err
	}
	curtain.Hide()
	return nil
}

// blink oscillates the blink element's opacity and settles it back to fully opaque.
// The element is looked up now, not when the coordinator was built.
func (c *coordinator) blink(ctx context.Context) error {
	img, ok := c.layer.Element(c.blinkID)
	if !ok {
		log.Printf("[reveal] blink skipped: no element %q", c.blinkID)
		return nil
	}
	key := c.blinkID + ".opacity"

	t := tween.To(img.Opacity, img.SetOpacity, 0, c.timing.Blink,
		tween.WithEase(c.timing.BlinkEase),
		tween.WithRepeat(c.timing.BlinkRepeat),
		tween.WithYoyo(true),
	)
	if err := c.await(ctx, key, t); err != nil {
		return err
	}

	settle := tween.To(img.Opacity, img.SetOpacity, 1, c.timing.Settle, tween.WithEase(c.timing.SettleEase))
	if err := c.await(ctx, key, settle); err != nil {
		return fmt.Errorf("settle: %w", err)
	}
	return nil
}

func (c *coordinator) await(ctx context.Context, key string, a tween.Animation) error {
	c.player.Play(key, a)
	if err := a.Wait(ctx); err != nil {
		a.Kill()
		return err
	}
	return nil
}
