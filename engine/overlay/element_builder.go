package overlay

import (
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-reveal/common"
)

type ElementBuilderOption func(*element)

// WithZIndex sets the stacking order of the element.
//
// Parameters:
//   - z: the z-index; higher draws on top
//
// Returns:
//   - ElementBuilderOption: a function that sets the z-index
func WithZIndex(z int) ElementBuilderOption {
	return func(e *element) {
		e.zIndex = z
	}
}

// WithRect sets the normalized placement of the element.
//
// Parameters:
//   - r: the rectangle in normalized viewport coordinates
//
// Returns:
//   - ElementBuilderOption: a function that sets the rect
func WithRect(r Rect) ElementBuilderOption {
	return func(e *element) {
		e.rect = r
	}
}

// WithColor sets the linear RGBA tint.
//
// Parameters:
//   - r, g, b, a: color components in [0, 1]
//
// Returns:
//   - ElementBuilderOption: a function that sets the color
func WithColor(r, g, b, a float32) ElementBuilderOption {
	return func(e *element) {
		e.color = [4]float32{r, g, b, a}
	}
}

// WithImage sets the staged image drawn by the element and sizes it to the image's pixel dimensions.
//
// Parameters:
//   - img: RGBA8 pixels
//
// Returns:
//   - ElementBuilderOption: a function that sets the image
func WithImage(img common.TextureStagingData) ElementBuilderOption {
	return func(e *element) {
		e.image = &img
		if e.pixelW == 0 && e.pixelH == 0 {
			e.pixelW, e.pixelH = float32(img.Width), float32(img.Height)
		}
	}
}

// WithPixelSize sizes the element in logical pixels, centred on its rect.
//
// Parameters:
//   - w, h: size in logical pixels
//
// Returns:
//   - ElementBuilderOption: a function that sets the pixel size
func WithPixelSize(w, h float32) ElementBuilderOption {
	return func(e *element) {
		e.pixelW, e.pixelH = w, h
	}
}

// WithOpacity sets the initial opacity.
//
// Parameters:
//   - opacity: the starting opacity
//
// Returns:
//   - ElementBuilderOption: a function that sets the opacity
func WithOpacity(opacity float32) ElementBuilderOption {
	return func(e *element) {
		e.opacity = opacity
	}
}

// LoadImageElement reads and decodes an image file into an image element.
//
// Parameters:
//   - id: the element id
//   - path: path to a PNG, JPEG, WebP or BMP file
//   - options: additional ElementBuilderOption functions, applied after the image
//
// Returns:
//   - Element: the image element
//   - error: error if the file cannot be read or decoded
func LoadImageElement(id, path string, options ...ElementBuilderOption) (Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overlay image %s: %w", path, err)
	}
	img, err := common.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode overlay image %s: %w", path, err)
	}
	staging := common.TextureStagingData{
		Pixels: img.Pix,
		Width:  uint32(img.Bounds().Dx()),
		Height: uint32(img.Bounds().Dy()),
	}
	return NewElement(id, append([]ElementBuilderOption{WithImage(staging)}, options...)...), nil
}
