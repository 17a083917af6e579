package reveal

import (
	"context"

	"github.com/Carmen-Shannon/oxy-reveal/engine/overlay"
	"github.com/Carmen-Shannon/oxy-reveal/engine/tween"
)

type CoordinatorBuilderOption func(*coordinator)

// WithLayer sets the overlay layer and the ids of the curtain and blink elements.
// Empty ids keep the defaults.
//
// Parameters:
//   - layer: the overlay layer holding both elements
//   - overlayID: id of the full-screen curtain
//   - blinkID: id of the image that blinks after the curtain is hidden
//
// Returns:
//   - CoordinatorBuilderOption: a function that sets the layer and element ids
func WithLayer(layer overlay.Layer, overlayID, blinkID string) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.layer = layer
		if overlayID != "" {
			c.overlayID = overlayID
		}
		if blinkID != "" {
			c.blinkID = blinkID
		}
	}
}

// WithPlayer sets the tween player that advances the sequence's transitions.
//
// Parameters:
//   - player: the tween player, advanced by the engine tick
//
// Returns:
//   - CoordinatorBuilderOption: a function that sets the player
func WithPlayer(player tween.Player) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.player = player
	}
}

// WithTiming sets durations and eases for the sequence.
//
// Parameters:
//   - timing: the sequence timing
//
// Returns:
//   - CoordinatorBuilderOption: a function that sets the timing
func WithTiming(timing Timing) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.timing = timing
	}
}

// WithTargetCount sets how many asset signals trigger the reveal.
//
// Parameters:
//   - target: the number of expected signals
//
// Returns:
//   - CoordinatorBuilderOption: a function that sets the target
func WithTargetCount(target int) CoordinatorBuilderOption {
	return func(c *coordinator) {
		c.target = target
	}
}

// WithContext sets a context whose cancellation aborts a running sequence.
//
// Parameters:
//   - ctx: the context
//
// Returns:
//   - CoordinatorBuilderOption: a function that sets the context
func WithContext(ctx context.Context) CoordinatorBuilderOption {
	return func(c *coordinator) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}
