package reveal

import (
	"time"

	"github.com/Carmen-Shannon/oxy-reveal/engine/tween"
)

// Timing parameterizes the reveal sequence.
type Timing struct {
	// Fade is how long the overlay takes to fade out.
	Fade     time.Duration
	FadeEase tween.Ease

	// Blink is the length of one blink half-cycle; BlinkRepeat half-cycles follow the first, alternating direction.
	Blink       time.Duration
	BlinkRepeat int
	BlinkEase   tween.Ease

	// Settle is how long the blinking element takes to return to full opacity.
	Settle     time.Duration
	SettleEase tween.Ease
}

// DefaultTiming returns a one second power2.inOut fade, a 0.1s blink repeated five times with yoyo, and a 0.2s settle.
//
// Returns:
//   - Timing: the default timing
func DefaultTiming() Timing {
	return Timing{
		Fade:        time.Second,
		FadeEase:    tween.Power2InOut,
		Blink:       100 * time.Millisecond,
		BlinkRepeat: 5,
		BlinkEase:   tween.Power1Out,
		Settle:      200 * time.Millisecond,
		SettleEase:  tween.Power1Out,
	}
}
