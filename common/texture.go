package common

import (
	"encoding/binary"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/x448/float16"
)

// FloatImage is a linear RGBA image with 4 float32 components per pixel in row-major order.
type FloatImage struct {
	Pixels []float32
	Width  int
	Height int
}

// Downsample box-filters the image to half its size in each dimension, rounding down to 1.
// A trailing odd row or column is dropped.
//
// Returns:
//   - FloatImage: the reduced image
func (f FloatImage) Downsample() FloatImage {
	w := max(f.Width/2, 1)
	h := max(f.Height/2, 1)
	out := FloatImage{Pixels: make([]float32, w*h*4), Width: w, Height: h}

	for y := range h {
		y0 := min(y*2, f.Height-1)
		y1 := min(y*2+1, f.Height-1)
		for x := range w {
			x0 := min(x*2, f.Width-1)
			x1 := min(x*2+1, f.Width-1)
			dst := (y*w + x) * 4
			for c := range 4 {
				sum := f.Pixels[(y0*f.Width+x0)*4+c] +
					f.Pixels[(y0*f.Width+x1)*4+c] +
					f.Pixels[(y1*f.Width+x0)*4+c] +
					f.Pixels[(y1*f.Width+x1)*4+c]
				out.Pixels[dst+c] = sum * 0.25
			}
		}
	}
	return out
}

// HalfBytes packs the image as little-endian IEEE 754 half floats.
//
// Returns:
//   - []byte: 8 bytes per pixel
func (f FloatImage) HalfBytes() []byte {
	buf := make([]byte, len(f.Pixels)*2)
	for i, v := range f.Pixels {
		binary.LittleEndian.PutUint16(buf[i*2:], float16.Fromfloat32(v).Bits())
	}
	return buf
}

// StageHalfFloat converts the image into an RGBA16Float staging texture with a full mip chain down to 1x1.
//
// Returns:
//   - TextureStagingData: the staged texture
//   - error: error if the image dimensions do not match its pixel count
func (f FloatImage) StageHalfFloat() (TextureStagingData, error) {
	if f.Width <= 0 || f.Height <= 0 || len(f.Pixels) != f.Width*f.Height*4 {
		return TextureStagingData{}, fmt.Errorf("float image %dx%d has %d components", f.Width, f.Height, len(f.Pixels))
	}

	staging := TextureStagingData{
		Pixels: f.HalfBytes(),
		Width:  uint32(f.Width),
		Height: uint32(f.Height),
		Format: wgpu.TextureFormatRGBA16Float,
	}
	level := f
	for level.Width > 1 || level.Height > 1 {
		level = level.Downsample()
		staging.Mips = append(staging.Mips, level.HalfBytes())
	}
	return staging, nil
}
