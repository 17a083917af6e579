package tween

import "time"

type settings struct {
	duration   time.Duration
	ease       Ease
	repeat     int
	yoyo       bool
	onComplete func()
}

type TweenBuilderOption func(*settings)

// WithEase sets the tween's ease. A nil ease is ignored.
//
// Parameters:
//   - ease: the ease function
//
// Returns:
//   - TweenBuilderOption: a function that sets the ease
func WithEase(ease Ease) TweenBuilderOption {
	return func(s *settings) {
		if ease != nil {
			s.ease = ease
		}
	}
}

// WithRepeat sets how many times the tween repeats after its first iteration. A negative count repeats forever.
//
// Parameters:
//   - repeat: number of additional iterations
//
// Returns:
//   - TweenBuilderOption: a function that sets the repeat count
func WithRepeat(repeat int) TweenBuilderOption {
	return func(s *settings) {
		s.repeat = repeat
	}
}

// WithYoyo makes every other iteration play in reverse.
//
// Parameters:
//   - yoyo: whether odd iterations run backwards
//
// Returns:
//   - TweenBuilderOption: a function that sets yoyo
func WithYoyo(yoyo bool) TweenBuilderOption {
	return func(s *settings) {
		s.yoyo = yoyo
	}
}

// WithOnComplete registers a callback invoked once when the tween finishes. It is not called when the tween is killed.
//
// Parameters:
//   - fn: the completion callback
//
// Returns:
//   - TweenBuilderOption: a function that sets the completion callback
func WithOnComplete(fn func()) TweenBuilderOption {
	return func(s *settings) {
		s.onComplete = fn
	}
}
