package tween

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlayerAdvancesAndDrops(t *testing.T) {
	p := NewPlayer()
	a, b := &value{}, &value{}
	p.Play("", To(a.get, a.set, 1, 100*time.Millisecond))
	p.Play("", To(b.get, b.set, 1, 300*time.Millisecond))
	assert.Equal(t, 2, p.Len())

	p.Update(200 * time.Millisecond)
	assert.Equal(t, float32(1), a.v)
	assert.Equal(t, 1, p.Len())

	p.Update(200 * time.Millisecond)
	assert.Equal(t, float32(1), b.v)
	assert.Equal(t, 0, p.Len())
}

func TestPlayerOverwritesByKey(t *testing.T) {
	p := NewPlayer()
	val := &value{}
	first := To(val.get, val.set, 10, time.Second, WithEase(Linear))
	p.Play("rotation", first)
	p.Update(500 * time.Millisecond)

	second := To(val.get, val.set, 0, time.Second, WithEase(Linear))
	p.Play("rotation", second)
	assert.Equal(t, 1, p.Len())
	assert.ErrorIs(t, first.Wait(context.Background()), ErrKilled)

	p.Update(500 * time.Millisecond)
	assert.InDelta(t, 2.5, val.v, 1e-5, "second tween starts from the value the first left behind")
}

func TestPlayerKillAll(t *testing.T) {
	p := NewPlayer()
	val := &value{}
	tw := To(val.get, val.set, 1, time.Second)
	p.Play("x", tw)
	p.Play("", nil)
	p.KillAll()

	assert.Equal(t, 0, p.Len())
	assert.ErrorIs(t, tw.Wait(context.Background()), ErrKilled)
}
