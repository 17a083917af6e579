package overlay

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUOverlayParamsSource is the canonical WGSL definition of the OverlayParams struct.
// Matches GPUOverlayParams layout exactly (48 bytes).
//
//go:embed assets/overlay_params.wgsl
var GPUOverlayParamsSource string

// GPUOverlayParams is the GPU-aligned uniform for a single overlay quad.
type GPUOverlayParams struct {
	Rect       [4]float32 // offset  0: NDC left, top, right, bottom
	Color      [4]float32 // offset 16: linear RGBA tint
	Opacity    float32    // offset 32
	HasImage   float32    // offset 36: 1 when the texture should be sampled
	EncodeSRGB float32    // offset 40: 1 when the target format is not sRGB
	_pad       float32    // offset 44
}

// Size returns the size of the GPUOverlayParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPUOverlayParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUOverlayParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUOverlayParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Rect[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.Color[i]))
	}
	binary.LittleEndian.PutUint32(buf[32:], math.Float32bits(g.Opacity))
	binary.LittleEndian.PutUint32(buf[36:], math.Float32bits(g.HasImage))
	binary.LittleEndian.PutUint32(buf[40:], math.Float32bits(g.EncodeSRGB))
	return buf
}
