package tween

import (
	"sync"
	"time"
)

// Player owns a set of running animations and advances them together.
type Player interface {
	// Play starts an animation. A non-empty key overwrites: any animation already running under the same key is killed.
	//
	// Parameters:
	//   - key: overwrite key, or "" for an anonymous animation
	//   - a: the animation to run
	Play(key string, a Animation)

	// Update advances every running animation by dt and drops the ones that finished.
	//
	// Parameters:
	//   - dt: elapsed time since the previous update
	Update(dt time.Duration)

	// Len returns the number of running animations.
	Len() int

	// KillAll kills every running animation.
	KillAll()
}

type entry struct {
	key       string
	animation Animation
}

type player struct {
	mu      sync.Mutex
	entries []entry
}

var _ Player = &player{}

// NewPlayer creates an empty Player.
//
// Returns:
//   - Player: the new player
func NewPlayer() Player {
	return &player{}
}

func (p *player) Play(key string, a Animation) {
	if a == nil {
		return
	}
	var replaced []Animation

	p.mu.Lock()
	if key != "" {
		kept := p.entries[:0]
		for _, e := range p.entries {
			if e.key == key {
				replaced = append(replaced, e.animation)
				continue
			}
			kept = append(kept, e)
		}
		p.entries = kept
	}
	p.entries = append(p.entries, entry{key: key, animation: a})
	p.mu.Unlock()

	for _, r := range replaced {
		r.Kill()
	}
}

func (p *player) Update(dt time.Duration) {
	p.mu.Lock()
	snapshot := make([]entry, len(p.entries))
	copy(snapshot, p.entries)
	p.mu.Unlock()

	finished := make(map[Animation]struct{})
	for _, e := range snapshot {
		if e.animation.Update(dt) {
			finished[e.animation] = struct{}{}
		}
	}
	if len(finished) == 0 {
		return
	}

	p.mu.Lock()
	kept := p.entries[:0]
	for _, e := range p.entries {
		if _, ok := finished[e.animation]; !ok {
			kept = append(kept, e)
		}
	}
	p.entries = kept
	p.mu.Unlock()
}

func (p *player) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

func (p *player) KillAll() {
	p.mu.Lock()
	entries := p.entries
	p.entries = nil
	p.mu.Unlock()

	for _, e := range entries {
		e.animation.Kill()
	}
}
