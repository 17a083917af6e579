package tween

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEaseEndpoints(t *testing.T) {
	for name, e := range easesByName {
		assert.InDelta(t, 0, e(0), 1e-6, name)
		assert.InDelta(t, 1, e(1), 1e-6, name)
	}
}

func TestEaseShapes(t *testing.T) {
	assert.InDelta(t, 0.75, Power1Out(0.5), 1e-6)
	assert.InDelta(t, 0.875, Power2Out(0.5), 1e-6)
	assert.InDelta(t, 0.125, Power2In(0.5), 1e-6)
	assert.InDelta(t, 0.5, Power2InOut(0.5), 1e-6)
	assert.InDelta(t, 0.032, Power2InOut(0.2), 1e-6)
	assert.InDelta(t, 0.968, Power2InOut(0.8), 1e-5)
}

func TestParseEase(t *testing.T) {
	e, err := ParseEase("power2.inOut")
	require.NoError(t, err)
	assert.InDelta(t, Power2InOut(0.3), e(0.3), 1e-6)

	e, err = ParseEase("")
	require.NoError(t, err)
	assert.InDelta(t, Power1Out(0.3), e(0.3), 1e-6)

	_, err = ParseEase("elastic.out")
	assert.Error(t, err)
}
