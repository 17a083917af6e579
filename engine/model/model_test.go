package model

import (
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelIdentityTransform(t *testing.T) {
	m := NewModel(WithName("helmet"))
	assert.Equal(t, "helmet", m.Name())
	assert.True(t, m.ModelMatrix().ApproxEqual(mgl32.Ident4()))
}

func TestModelScaleAndRotation(t *testing.T) {
	m := NewModel(WithScale(mgl32.Vec3{2, 2, 2}))
	m.SetRotationY(float32(math.Pi / 2))

	p := m.ModelMatrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 0, p.X(), 1e-5)
	assert.InDelta(t, -2, p.Z(), 1e-5)

	m.SetRotationX(0.25)
	assert.Equal(t, mgl32.Vec3{0.25, float32(math.Pi / 2), 0}, m.Rotation())
	assert.Equal(t, float32(0.25), m.RotationX())
}

func TestModelUniformNormalMatrix(t *testing.T) {
	m := NewModel(WithScale(mgl32.Vec3{2, 1, 1}))
	u := m.Uniform()
	assert.InDelta(t, 0.5, u.Normal.At(0, 0), 1e-6)
	assert.InDelta(t, 1, u.Normal.At(1, 1), 1e-6)

	buf := u.Marshal()
	require.Len(t, buf, 128)
	assert.Equal(t, 128, u.Size())
	assert.Equal(t, math.Float32bits(2), binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, math.Float32bits(0.5), binary.LittleEndian.Uint32(buf[64:]))
}

func TestModelConcurrentRotation(t *testing.T) {
	m := NewModel()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.SetRotationX(float32(i))
		}()
		go func() {
			defer wg.Done()
			_ = m.ModelMatrix()
		}()
	}
	wg.Wait()
}

func TestGPUVertexLayout(t *testing.T) {
	v := GPUVertex{
		Position: [3]float32{1, 2, 3},
		Normal:   [3]float32{0, 1, 0},
		TexCoord: [2]float32{0.5, 0.25},
		Tangent:  [4]float32{1, 0, 0, -1},
	}
	assert.Equal(t, 48, v.Size())
	buf := v.Marshal()
	assert.Equal(t, math.Float32bits(3), binary.LittleEndian.Uint32(buf[8:]))
	assert.Equal(t, math.Float32bits(0.25), binary.LittleEndian.Uint32(buf[28:]))
	assert.Equal(t, math.Float32bits(-1), binary.LittleEndian.Uint32(buf[44:]))

	mesh := ImportedMesh{Vertices: []GPUVertex{v}, Indices: []uint32{0, 0, 0}}
	assert.Equal(t, buf, mesh.VertexData())
	assert.Len(t, mesh.IndexData(), 12)
}

func TestComputeBoundingRadius(t *testing.T) {
	r := ComputeBoundingRadius([]GPUVertex{
		{Position: [3]float32{1, 0, 0}},
		{Position: [3]float32{0, 3, 4}},
	})
	assert.InDelta(t, 5, r, 1e-6)
	assert.Zero(t, ComputeBoundingRadius(nil))
}
