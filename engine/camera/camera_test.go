package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, mgl32.Vec3{0, 0, 8}, c.Position())
	assert.Equal(t, mgl32.Vec3{}, c.Target())
	assert.InDelta(t, 40*math.Pi/180, c.Fov(), 1e-6)
	assert.InDelta(t, 0.1, c.Near(), 1e-7)
	assert.InDelta(t, 1000, c.Far(), 1e-3)
	assert.NotNil(t, c.BindGroupProvider())
}

func TestCameraProjectsOriginToScreenCentre(t *testing.T) {
	c := NewCamera(WithAspect(16.0 / 9.0))
	clip := c.ViewProjectionMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	require.NotZero(t, clip.W())
	assert.InDelta(t, 0, clip.X()/clip.W(), 1e-6)
	assert.InDelta(t, 0, clip.Y()/clip.W(), 1e-6)
	ndcZ := clip.Z() / clip.W()
	assert.Greater(t, ndcZ, float32(0))
	assert.Less(t, ndcZ, float32(1))
}

func TestCameraSetAspectIgnoresDegenerate(t *testing.T) {
	c := NewCamera(WithAspect(2))
	before := c.ProjectionMatrix()
	c.SetAspect(0)
	assert.Equal(t, float32(2), c.Aspect())
	assert.Equal(t, before, c.ProjectionMatrix())

	c.SetAspect(0.5)
	assert.Equal(t, float32(0.5), c.Aspect())
	assert.NotEqual(t, before, c.ProjectionMatrix())
}

func TestCameraUniformMarshal(t *testing.T) {
	c := NewCamera()
	u := c.Uniform()
	buf := u.Marshal()
	require.Len(t, buf, 80)
	assert.Equal(t, 80, u.Size())

	vp := c.ViewProjectionMatrix()
	assert.Equal(t, math.Float32bits(vp[0]), binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, math.Float32bits(8), binary.LittleEndian.Uint32(buf[72:]))
	assert.Zero(t, binary.LittleEndian.Uint32(buf[76:]))
}
