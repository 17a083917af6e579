package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUMaterialParamsSource is the canonical WGSL definition of the MaterialParams struct.
// Matches GPUMaterialParams layout exactly (48 bytes).
//
//go:embed assets/material_params.wgsl
var GPUMaterialParamsSource string

// GPUMaterialParams is the GPU-aligned uniform holding the scalar factors of a metallic-roughness material.
// Texture samples in the PBR shader are multiplied by these factors.
// Size: 48 bytes.
type GPUMaterialParams struct {
	BaseColor         [4]float32 // offset  0: linear RGBA base color factor
	Emissive          [4]float32 // offset 16: linear RGB emissive factor, w unused
	Metallic          float32    // offset 32
	Roughness         float32    // offset 36
	NormalScale       float32    // offset 40: tangent-space normal XY scale
	OcclusionStrength float32    // offset 44: 0 disables the occlusion map
}

// Size returns the size of the GPUMaterialParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMaterialParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterialParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (g *GPUMaterialParams) Marshal() []byte {
	buf := make([]byte, 48)
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.BaseColor[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.Emissive[i]))
	}
	binary.LittleEndian.PutUint32(buf[32:], math.Float32bits(g.Metallic))
	binary.LittleEndian.PutUint32(buf[36:], math.Float32bits(g.Roughness))
	binary.LittleEndian.PutUint32(buf[40:], math.Float32bits(g.NormalScale))
	binary.LittleEndian.PutUint32(buf[44:], math.Float32bits(g.OcclusionStrength))
	return buf
}
