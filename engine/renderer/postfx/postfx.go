// Package postfx describes the screen-space pass that turns the HDR scene into the final image:
// a chromatic RGB shift followed by ACES filmic tone mapping and, when the surface needs it, sRGB encoding.
package postfx

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"
)

const (
	// DefaultRGBShiftAmount is the channel offset in UV units.
	DefaultRGBShiftAmount float32 = 0.0015

	// DefaultRGBShiftAngle is the offset direction in radians.
	DefaultRGBShiftAngle float32 = 0

	// DefaultExposure is the tone mapping exposure.
	DefaultExposure float32 = 1
)

// GPUPostParamsSource is the canonical WGSL definition of the PostParams struct.
// Matches GPUPostParams layout exactly (16 bytes).
//
//go:embed assets/post_params.wgsl
var GPUPostParamsSource string

// Params configures the composite pass.
type Params struct {
	// RGBShiftAmount offsets the red channel along the angle and the blue channel against it, in UV units.
	RGBShiftAmount float32 `yaml:"rgb_shift_amount"`

	// RGBShiftAngle is the offset direction in radians.
	RGBShiftAngle float32 `yaml:"rgb_shift_angle"`

	// Exposure scales scene radiance before tone mapping.
	Exposure float32 `yaml:"exposure"`
}

// DefaultParams returns the stock composite settings.
//
// Returns:
//   - Params: the default parameters
func DefaultParams() Params {
	return Params{
		RGBShiftAmount: DefaultRGBShiftAmount,
		RGBShiftAngle:  DefaultRGBShiftAngle,
		Exposure:       DefaultExposure,
	}
}

// Validate checks the parameters are usable.
//
// Returns:
//   - error: error if exposure is not positive or the shift amount is negative
func (p Params) Validate() error {
	if p.Exposure <= 0 {
		return fmt.Errorf("exposure must be positive, got %v", p.Exposure)
	}
	if p.RGBShiftAmount < 0 {
		return fmt.Errorf("rgb shift amount must not be negative, got %v", p.RGBShiftAmount)
	}
	return nil
}

// GPU builds the uniform for the composite shader.
//
// Parameters:
//   - encodeSRGB: whether the shader must encode to sRGB because the surface format does not
//
// Returns:
//   - GPUPostParams: the uniform contents
func (p Params) GPU(encodeSRGB bool) GPUPostParams {
	g := GPUPostParams{
		Amount:   p.RGBShiftAmount,
		Angle:    p.RGBShiftAngle,
		Exposure: p.Exposure,
	}
	if encodeSRGB {
		g.EncodeSRGB = 1
	}
	return g
}

// GPUPostParams is the GPU-aligned uniform for the composite pass.
type GPUPostParams struct {
	Amount     float32 // offset  0
	Angle      float32 // offset  4
	Exposure   float32 // offset  8
	EncodeSRGB float32 // offset 12: 1 when the surface format is not sRGB
}

// Size returns the size of the GPUPostParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUPostParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPostParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUPostParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(g.Amount))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(g.Angle))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(g.Exposure))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(g.EncodeSRGB))
	return buf
}
