package material

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-reveal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMaterialDefaults(t *testing.T) {
	m := NewMaterial()
	assert.Equal(t, [4]float32{1, 1, 1, 1}, m.BaseColor())
	assert.Equal(t, float32(0), m.Metallic())
	assert.Equal(t, float32(1), m.Roughness())
	for _, slot := range TextureSlots {
		assert.Nil(t, m.Texture(slot), slot.String())
	}
}

func TestFromImported(t *testing.T) {
	albedo := &common.ImportedTexture{Path: "albedo.png"}
	normal := &common.ImportedTexture{Path: "normal.png"}
	m := FromImported(common.ImportedMaterial{
		Name:              "helmet",
		BaseColor:         [4]float32{0.5, 0.5, 0.5, 1},
		Metallic:          1.5,
		Roughness:         0.25,
		Emissive:          [3]float32{1, 0.5, 0},
		NormalScale:       0.8,
		OcclusionStrength: 1,
		BaseColorTexture:  albedo,
		NormalTexture:     normal,
	})

	assert.Equal(t, "helmet", m.Name())
	assert.Equal(t, float32(1), m.Metallic(), "metallic is clamped")
	assert.Same(t, albedo, m.Texture(SlotBaseColor))
	assert.Same(t, normal, m.Texture(SlotNormal))
	assert.Nil(t, m.Texture(SlotEmissive))

	p := m.Params()
	assert.Equal(t, [4]float32{1, 0.5, 0, 0}, p.Emissive)
	assert.Equal(t, float32(0.8), p.NormalScale)
}

func TestTextureSlotSRGB(t *testing.T) {
	assert.True(t, SlotBaseColor.SRGB())
	assert.True(t, SlotEmissive.SRGB())
	assert.False(t, SlotNormal.SRGB())
	assert.False(t, SlotMetallicRoughness.SRGB())
	assert.False(t, SlotOcclusion.SRGB())
}

func TestMaterialParamsMarshal(t *testing.T) {
	p := GPUMaterialParams{
		BaseColor:         [4]float32{0.1, 0.2, 0.3, 0.4},
		Metallic:          0.9,
		Roughness:         0.7,
		OcclusionStrength: 0.5,
	}
	buf := p.Marshal()
	require.Len(t, buf, p.Size())
	assert.Equal(t, 48, p.Size())
	assert.Equal(t, math.Float32bits(0.3), binary.LittleEndian.Uint32(buf[8:]))
	assert.Equal(t, math.Float32bits(0.9), binary.LittleEndian.Uint32(buf[32:]))
	assert.Equal(t, math.Float32bits(0.5), binary.LittleEndian.Uint32(buf[44:]))
}

func TestEnvironmentParams(t *testing.T) {
	p := NewEnvironmentParams(1.5, 9)
	assert.Equal(t, float32(8), p.MaxMip)
	assert.Equal(t, 16, p.Size())

	buf := p.Marshal()
	assert.Equal(t, math.Float32bits(1.5), binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, math.Float32bits(8), binary.LittleEndian.Uint32(buf[4:]))

	assert.Equal(t, float32(0), NewEnvironmentParams(1, 1).MaxMip)
	assert.Equal(t, float32(0), NewEnvironmentParams(1, 0).MaxMip)
}
