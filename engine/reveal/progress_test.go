package reveal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoadProgressRejectsNonPositiveTarget(t *testing.T) {
	_, err := NewLoadProgress(0)
	assert.ErrorIs(t, err, ErrInvalidTarget)
	_, err = NewLoadProgress(-3)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestLoadProgressReachesTargetOnce(t *testing.T) {
	p, err := NewLoadProgress(2)
	require.NoError(t, err)
	assert.True(t, p.Pending())

	reached, err := p.Signal()
	require.NoError(t, err)
	assert.False(t, reached)
	assert.Equal(t, 1, p.Completed())
	assert.True(t, p.Pending())

	reached, err = p.Signal()
	require.NoError(t, err)
	assert.True(t, reached)
	assert.False(t, p.Pending())

	reached, err = p.Signal()
	assert.ErrorIs(t, err, ErrExcessSignal)
	assert.False(t, reached)
	assert.Equal(t, 2, p.Completed())
	assert.Equal(t, 2, p.Target())
}

func TestLoadProgressConcurrentSignals(t *testing.T) {
	p, err := NewLoadProgress(50)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	reachedCount := 0
	for range 80 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if reached, _ := p.Signal(); reached {
				mu.Lock()
				reachedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, reachedCount)
	assert.Equal(t, 50, p.Completed())
}
