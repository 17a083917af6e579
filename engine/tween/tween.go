// Package tween animates float properties over time with eased, repeatable and awaitable transitions.
// Tweens do not own a clock: they are advanced by whoever owns them, typically a Player driven by the engine tick.
package tween

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/exp/constraints"
)

// ErrKilled is returned by Wait when the tween was killed before completing.
var ErrKilled = errors.New("tween killed before completion")

// Animation is anything a Player can advance.
type Animation interface {
	// Update advances the animation by dt and reports whether it has finished.
	Update(dt time.Duration) bool

	// Kill stops the animation where it is. Waiters receive ErrKilled.
	Kill()

	// Done returns a channel that is closed once the animation completes or is killed.
	Done() <-chan struct{}

	// Wait blocks until the animation completes, is killed, or ctx is cancelled.
	Wait(ctx context.Context) error
}

// Property binds a single animatable value.
type Property[T constraints.Float] struct {
	// Get reads the current value. It is called once, on the first update, to capture the start value.
	Get func() T
	// Set writes an interpolated value.
	Set func(T)
	// To is the end value.
	To T
}

// Tween interpolates one or more properties from their current values to their targets.
type Tween[T constraints.Float] struct {
	mu       sync.Mutex
	props    []Property[T]
	from     []T
	settings settings
	elapsed  time.Duration
	started  bool
	finished bool
	killed   bool
	done     chan struct{}
	doneOnce sync.Once
}

var _ Animation = &Tween[float32]{}

// New creates a tween over the given properties.
// A non-positive duration makes the tween jump to its end state on the first update.
//
// Parameters:
//   - duration: length of one iteration
//   - props: the properties to animate
//   - options: a variadic list of TweenBuilderOption functions
//
// Returns:
//   - *Tween[T]: the new tween, idle until first updated
func New[T constraints.Float](duration time.Duration, props []Property[T], options ...TweenBuilderOption) *Tween[T] {
	s := settings{
		duration: duration,
		ease:     Power1Out,
	}
	for _, opt := range options {
		opt(&s)
	}
	return &Tween[T]{
		props:    props,
		settings: s,
		done:     make(chan struct{}),
	}
}

// To is shorthand for a single-property tween.
func To[T constraints.Float](get func() T, set func(T), to T, duration time.Duration, options ...TweenBuilderOption) *Tween[T] {
	return New(duration, []Property[T]{{Get: get, Set: set, To: to}}, options...)
}

// TotalDuration returns the duration across all iterations, or -1 for an infinitely repeating tween.
func (t *Tween[T]) TotalDuration() time.Duration {
	if t.settings.repeat < 0 {
		return -1
	}
	return t.settings.duration * time.Duration(t.settings.repeat+1)
}

// Update advances the tween by dt, writes the interpolated values, and reports whether it has finished.
func (t *Tween[T]) Update(dt time.Duration) bool {
	t.mu.Lock()
	if t.finished || t.killed {
		t.mu.Unlock()
		return true
	}
	if !t.started {
		t.from = make([]T, len(t.props))
		for i, p := range t.props {
			t.from[i] = p.Get()
		}
		t.started = true
	}
	t.elapsed += dt

	progress, finished := t.progress()
	eased := T(t.settings.ease(progress))
	for i, p := range t.props {
		p.Set(t.from[i] + (p.To-t.from[i])*eased)
	}
	t.finished = finished
	onComplete := t.settings.onComplete
	t.mu.Unlock()

	if finished {
		if onComplete != nil {
			onComplete()
		}
		t.doneOnce.Do(func() { close(t.done) })
	}
	return finished
}

// progress returns the linear in-iteration progress, reversed on odd yoyo iterations, and whether
// the final iteration has elapsed.
func (t *Tween[T]) progress() (float32, bool) {
	s := t.settings
	if s.duration <= 0 {
		return t.endProgress(), true
	}

	if s.repeat >= 0 && t.elapsed >= s.duration*time.Duration(s.repeat+1) {
		return t.endProgress(), true
	}
	iteration := int64(t.elapsed / s.duration)
	local := float32(t.elapsed%s.duration) / float32(s.duration)
	if s.yoyo && iteration%2 == 1 {
		local = 1 - local
	}
	return local, false
}

// endProgress is the progress of the final frame: back at the start for an odd number of yoyo repeats.
func (t *Tween[T]) endProgress() float32 {
	if t.settings.yoyo && t.settings.repeat%2 == 1 {
		return 0
	}
	return 1
}

// Kill stops the tween in place.
func (t *Tween[T]) Kill() {
	t.mu.Lock()
	done := t.finished
	t.killed = !done
	t.mu.Unlock()
	if !done {
		t.doneOnce.Do(func() { close(t.done) })
	}
}

// Done returns a channel closed when the tween completes or is killed.
func (t *Tween[T]) Done() <-chan struct{} {
	return t.done
}

// Finished reports whether the tween ran to completion.
func (t *Tween[T]) Finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finished
}

// Wait blocks until the tween completes.
//
// Parameters:
//   - ctx: context whose cancellation aborts the wait
//
// Returns:
//   - error: nil on completion, ErrKilled if killed, or the context error
func (t *Tween[T]) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		t.mu.Lock()
		killed := t.killed
		t.mu.Unlock()
		if killed {
			return ErrKilled
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
