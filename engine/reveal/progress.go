package reveal

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInvalidTarget is returned when a LoadProgress is created with a non-positive target.
	ErrInvalidTarget = errors.New("target count must be positive")

	// ErrExcessSignal is returned when a signal arrives after the target was already reached.
	ErrExcessSignal = errors.New("asset signal after target reached")
)

// LoadProgress counts asset-load completions towards a fixed target. The count never exceeds the
// target and never resets.
type LoadProgress struct {
	mu        sync.Mutex
	completed int
	target    int
}

// NewLoadProgress creates a LoadProgress with zero completions.
//
// Parameters:
//   - target: the number of completions required
//
// Returns:
//   - *LoadProgress: the new progress counter
//   - error: ErrInvalidTarget if target is not positive
func NewLoadProgress(target int) (*LoadProgress, error) {
	if target <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTarget, target)
	}
	return &LoadProgress{target: target}, nil
}

// Signal records one completion.
//
// Returns:
//   - bool: true only for the signal that makes the count reach the target
//   - error: ErrExcessSignal if the target had already been reached; the count is unchanged
func (p *LoadProgress) Signal() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.completed >= p.target {
		return false, ErrExcessSignal
	}
	p.completed++
	return p.completed == p.target, nil
}

// Pending reports whether the target has not been reached yet.
func (p *LoadProgress) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed < p.target
}

// Completed returns the number of recorded completions.
func (p *LoadProgress) Completed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed
}

// Target returns the number of completions required.
func (p *LoadProgress) Target() int {
	return p.target
}
