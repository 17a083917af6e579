package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUEnvironmentParamsSource is the canonical WGSL definition of the EnvironmentParams struct.
// Matches GPUEnvironmentParams layout exactly (16 bytes).
//
//go:embed assets/environment_params.wgsl
var GPUEnvironmentParamsSource string

// GPUEnvironmentParams drives image-based lighting from the scene's environment map.
type GPUEnvironmentParams struct {
	Intensity float32 // offset 0: radiance multiplier
	MaxMip    float32 // offset 4: highest mip level, sampled at roughness 1
	_pad0     float32 // offset 8
	_pad1     float32 // offset 12
}

// NewEnvironmentParams builds the uniform for an environment texture with the given mip level count.
//
// Parameters:
//   - intensity: radiance multiplier
//   - mipLevels: total mip levels of the environment texture, at least 1
//
// Returns:
//   - GPUEnvironmentParams: the uniform contents
func NewEnvironmentParams(intensity float32, mipLevels uint32) GPUEnvironmentParams {
	maxMip := float32(0)
	if mipLevels > 1 {
		maxMip = float32(mipLevels - 1)
	}
	return GPUEnvironmentParams{Intensity: intensity, MaxMip: maxMip}
}

// Size returns the size of the GPUEnvironmentParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUEnvironmentParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUEnvironmentParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUEnvironmentParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(g.Intensity))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(g.MaxMip))
	return buf
}
