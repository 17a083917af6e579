package overlay

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-reveal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementDefaults(t *testing.T) {
	e := NewElement("overlay")
	assert.Equal(t, float32(1), e.Opacity())
	assert.True(t, e.Visible())
	assert.Equal(t, FullScreen, e.Rect())
	assert.Nil(t, e.Image())

	e.SetOpacity(0.25)
	e.Hide()
	assert.Equal(t, float32(0.25), e.Opacity())
	assert.False(t, e.Visible())
	e.Show()
	assert.True(t, e.Visible())
}

func TestElementParamsFullScreen(t *testing.T) {
	e := NewElement("overlay", WithColor(0, 0, 0, 1))
	e.SetOpacity(1.2)

	p := e.Params(1280, 720, true)
	assert.Equal(t, [4]float32{-1, 1, 1, -1}, p.Rect)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, p.Color)
	assert.Equal(t, float32(1), p.Opacity)
	assert.Equal(t, float32(0), p.HasImage)
	assert.Equal(t, float32(1), p.EncodeSRGB)
	assert.Len(t, p.Marshal(), 48)
}

func TestElementParamsPixelSized(t *testing.T) {
	img := common.TextureStagingData{Pixels: make([]byte, 200*100*4), Width: 200, Height: 100}
	e := NewElement("blink", WithImage(img))

	p := e.Params(400, 200, false)
	assert.InDelta(t, -0.5, p.Rect[0], 1e-6)
	assert.InDelta(t, 0.5, p.Rect[1], 1e-6)
	assert.InDelta(t, 0.5, p.Rect[2], 1e-6)
	assert.InDelta(t, -0.5, p.Rect[3], 1e-6)
	assert.Equal(t, float32(1), p.HasImage)
}

func TestLoadImageElement(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 2))))
	path := filepath.Join(t.TempDir(), "blink.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	e, err := LoadImageElement("blink", path, WithZIndex(3))
	require.NoError(t, err)
	assert.Equal(t, "blink", e.ID())
	assert.Equal(t, 3, e.ZIndex())
	require.NotNil(t, e.Image())
	assert.Equal(t, uint32(4), e.Image().Width)
	assert.Len(t, e.Image().Pixels, 4*2*4)

	_, err = LoadImageElement("missing", filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}
