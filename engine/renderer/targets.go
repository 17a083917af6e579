package renderer

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-reveal/common"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// DefaultMaxPixelRatio caps the device pixel ratio used to size the scene target.
	DefaultMaxPixelRatio float32 = 2

	// SceneFormat is the color format of the HDR scene target.
	SceneFormat = wgpu.TextureFormatRGBA16Float

	depthFormat = wgpu.TextureFormatDepth24Plus
)

// sceneTargetSize sizes the HDR target from the framebuffer so its density never exceeds maxRatio
// pixels per logical pixel.
//
// Parameters:
//   - fbWidth, fbHeight: framebuffer size in physical pixels
//   - pixelRatio: physical pixels per logical pixel
//   - maxRatio: the cap applied to pixelRatio
//
// Returns:
//   - uint32: target width, at least 1
//   - uint32: target height, at least 1
func sceneTargetSize(fbWidth, fbHeight int, pixelRatio, maxRatio float32) (uint32, uint32) {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	if maxRatio <= 0 {
		maxRatio = pixelRatio
	}
	scale := float64(min(pixelRatio, maxRatio) / pixelRatio)
	w := max(int(math.Round(float64(fbWidth)*scale)), 1)
	h := max(int(math.Round(float64(fbHeight)*scale)), 1)
	return uint32(w), uint32(h)
}

// isSRGBFormat reports whether writes to the format are encoded to sRGB by the hardware.
func isSRGBFormat(f wgpu.TextureFormat) bool {
	switch f {
	case wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureFormatRGBA8UnormSrgb:
		return true
	default:
		return false
	}
}

// stagingFormat resolves the zero format to RGBA8 sRGB.
func stagingFormat(s common.TextureStagingData) wgpu.TextureFormat {
	return common.Coalesce(s.Format, wgpu.TextureFormatRGBA8UnormSrgb)
}

// mipExtent returns the size of a mip level.
func mipExtent(width, height, level uint32) (uint32, uint32) {
	return max(width>>level, 1), max(height>>level, 1)
}

// validateStaging checks every staged level holds exactly the bytes its size requires.
func validateStaging(s common.TextureStagingData) error {
	if s.Width == 0 || s.Height == 0 {
		return fmt.Errorf("texture has zero size %dx%d", s.Width, s.Height)
	}
	bpp := s.BytesPerPixel()
	for level := uint32(0); level < s.MipLevelCount(); level++ {
		w, h := mipExtent(s.Width, s.Height, level)
		data := s.Pixels
		if level > 0 {
			data = s.Mips[level-1]
		}
		if want := int(w * h * bpp); len(data) != want {
			return fmt.Errorf("mip %d of %dx%d texture has %d bytes, want %d", level, s.Width, s.Height, len(data), want)
		}
	}
	return nil
}
