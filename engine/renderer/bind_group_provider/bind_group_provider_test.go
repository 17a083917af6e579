package bind_group_provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBindGroupProvider(t *testing.T) {
	p := NewBindGroupProvider("Camera")
	assert.Equal(t, "Camera", p.Label())
	assert.False(t, p.Ready())
	assert.Nil(t, p.Buffer(0))
	assert.Nil(t, p.TextureView(1))
	assert.Nil(t, p.Sampler(2))

	p.SetIndexCount(36)
	assert.Equal(t, 36, p.IndexCount())

	// Releasing an empty provider is a no-op.
	p.Release()
	p.ReleaseBindGroup()
	assert.False(t, p.Ready())
}
