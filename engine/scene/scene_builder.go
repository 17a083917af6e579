package scene

import (
	"time"

	"github.com/Carmen-Shannon/oxy-reveal/engine/overlay"
	"github.com/Carmen-Shannon/oxy-reveal/engine/tween"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithLayer sets the overlay layer drawn above the scene. Defaults to an empty layer.
//
// Parameters:
//   - layer: the overlay layer
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLayer(layer overlay.Layer) SceneBuilderOption {
	return func(s *scene) {
		s.layer = layer
	}
}

// WithPlayer sets the tween player advanced by Update. Sharing a player with the reveal
// choreography keeps every animation on the same clock.
//
// Parameters:
//   - player: the tween player
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPlayer(player tween.Player) SceneBuilderOption {
	return func(s *scene) {
		s.player = player
	}
}

// WithMouseFactor sets how far the model tilts toward the cursor, as a fraction of a half turn
// at the window edge. Default is DefaultMouseFactor (0.12).
//
// Parameters:
//   - factor: the tilt factor
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMouseFactor(factor float32) SceneBuilderOption {
	return func(s *scene) {
		s.mouseFactor = factor
	}
}

// WithMouseTween sets the duration and ease of the cursor-follow tween.
// Defaults are DefaultMouseDuration and tween.Power2Out. A nil ease keeps the default.
//
// Parameters:
//   - duration: how long the model takes to reach the new tilt
//   - ease: the easing curve
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMouseTween(duration time.Duration, ease tween.Ease) SceneBuilderOption {
	return func(s *scene) {
		if duration > 0 {
			s.mouseDuration = duration
		}
		if ease != nil {
			s.mouseEase = ease
		}
	}
}
