// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrNotImage is returned when texture bytes do not sniff as a known image format.
var ErrNotImage = errors.New("data is not a recognised image format")

// TextureStagingData holds pixel data for a texture binding pending GPU upload.
// This is primarily used in the BindGroupProvider to stage texture data before creating the GPU texture and bind group.
type TextureStagingData struct {
	// Pixels is the raw pixel data of mip level 0. For the default format this is RGBA8 with 4 bytes
	// per pixel; see BytesPerPixel for the float formats.
	Pixels []byte
	// Mips holds optional extra mip levels, each half the size of the previous one, rounded down to 1.
	Mips [][]byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// Format is the GPU texture format. The zero value means wgpu.TextureFormatRGBA8UnormSrgb.
	Format wgpu.TextureFormat
}

// MipLevelCount is one plus the number of staged extra mip levels.
func (t TextureStagingData) MipLevelCount() uint32 {
	return uint32(len(t.Mips)) + 1
}

// BytesPerPixel reports the stride of one texel for the staged format.
func (t TextureStagingData) BytesPerPixel() uint32 {
	switch t.Format {
	case wgpu.TextureFormatRGBA32Float:
		return 16
	case wgpu.TextureFormatRGBA16Float:
		return 8
	default:
		return 4
	}
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// This is primarily used in the BindGroupProvider to stage sampler data before creating the GPU sampler and bind group.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// ImportedMaterial represents metallic-roughness PBR material properties from an imported model file.
type ImportedMaterial struct {
	// Name is the material identifier.
	Name string

	// BaseColor is the albedo color factor (RGBA, linear).
	BaseColor [4]float32

	// Metallic factor (0.0 = dielectric, 1.0 = metal).
	Metallic float32

	// Roughness factor (0.0 = smooth, 1.0 = rough).
	Roughness float32

	// Emissive is the emissive color factor (RGB, linear).
	Emissive [3]float32

	// NormalScale scales the XY components of the sampled tangent-space normal.
	NormalScale float32

	// OcclusionStrength blends sampled ambient occlusion towards 1.0.
	OcclusionStrength float32

	BaseColorTexture         *ImportedTexture
	NormalTexture            *ImportedTexture
	MetallicRoughnessTexture *ImportedTexture
	EmissiveTexture          *ImportedTexture
	OcclusionTexture         *ImportedTexture
}

// ImportedTexture represents texture data extracted from a model file.
// For embedded textures (GLB or data URI), the Data field contains raw image bytes.
// For external textures, the Path field contains the file path.
type ImportedTexture struct {
	// Name is an identifier for this texture (e.g., "baseColor", "normal").
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// Data contains raw image bytes for embedded textures.
	Data []byte

	// MimeType indicates the image format. Populated by sniffing during Decode when empty.
	MimeType string

	// Width is the texture width in pixels (populated after Decode).
	Width int

	// Height is the texture height in pixels (populated after Decode).
	Height int

	// SamplerData holds GPU sampler parameters extracted from the model file.
	// When non-nil, these values override the default linear/repeat settings.
	SamplerData *SamplerStagingData
}

// Decode decodes the texture to raw RGBA pixel data.
// Uses either embedded Data bytes or loads from Path on disk. The bytes are sniffed
// before decoding, and PNG, JPEG, WebP and BMP are supported.
//
// Returns:
//   - []byte: raw RGBA pixel data (4 bytes per pixel, row-major order)
//   - uint32: texture width in pixels
//   - uint32: texture height in pixels
//   - error: error if reading, sniffing or decoding fails
func (t *ImportedTexture) Decode() ([]byte, uint32, uint32, error) {
	if t == nil {
		return nil, 0, 0, fmt.Errorf("texture is nil")
	}

	data := t.Data
	if len(data) == 0 {
		if t.Path == "" {
			return nil, 0, 0, fmt.Errorf("texture has neither data nor path")
		}
		raw, err := os.ReadFile(t.Path)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to open texture file %s: %w", t.Path, err)
		}
		data = raw
	}

	rgba, err := DecodeImage(data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode texture %q: %w", t.Name, err)
	}
	if t.MimeType == "" {
		kind, _ := filetype.Match(data)
		t.MimeType = kind.MIME.Value
	}

	bounds := rgba.Bounds()
	t.Width = bounds.Dx()
	t.Height = bounds.Dy()

	return rgba.Pix, uint32(t.Width), uint32(t.Height), nil
}

// DecodeImage sniffs and decodes encoded image bytes into an RGBA image.
//
// Parameters:
//   - data: encoded image bytes
//
// Returns:
//   - *image.RGBA: the decoded image with its origin at (0, 0)
//   - error: ErrNotImage if the bytes are not an image, or the decoder error
func DecodeImage(data []byte) (*image.RGBA, error) {
	if !filetype.IsImage(data) {
		return nil, ErrNotImage
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba, nil
}
