package common

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImportedTextureDecodeEmbedded(t *testing.T) {
	tex := &ImportedTexture{Name: "baseColor", Data: encodePNG(t, 3, 2)}

	pix, w, h, err := tex.Decode()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), w)
	assert.Equal(t, uint32(2), h)
	assert.Len(t, pix, 3*2*4)
	assert.Equal(t, []byte{255, 0, 0, 255}, pix[:4])
	assert.Equal(t, "image/png", tex.MimeType)
	assert.Equal(t, 3, tex.Width)
}

func TestImportedTextureDecodePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 1, 1), 0o644))

	_, w, h, err := (&ImportedTexture{Path: path}).Decode()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), w)
	assert.Equal(t, uint32(1), h)
}

func TestImportedTextureDecodeErrors(t *testing.T) {
	var nilTex *ImportedTexture
	_, _, _, err := nilTex.Decode()
	assert.Error(t, err)

	_, _, _, err = (&ImportedTexture{}).Decode()
	assert.Error(t, err)

	_, _, _, err = (&ImportedTexture{Data: []byte("not an image at all")}).Decode()
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestBytesPerPixel(t *testing.T) {
	assert.Equal(t, uint32(4), TextureStagingData{}.BytesPerPixel())
	assert.Equal(t, uint32(16), TextureStagingData{Format: wgpu.TextureFormatRGBA32Float}.BytesPerPixel())
}
