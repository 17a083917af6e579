package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-reveal/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestSceneTargetSize(t *testing.T) {
	w, h := sceneTargetSize(1600, 1200, 2, DefaultMaxPixelRatio)
	assert.Equal(t, uint32(1600), w)
	assert.Equal(t, uint32(1200), h)

	// a 3x display renders at 2x
	w, h = sceneTargetSize(3000, 1500, 3, DefaultMaxPixelRatio)
	assert.Equal(t, uint32(2000), w)
	assert.Equal(t, uint32(1000), h)

	w, h = sceneTargetSize(800, 600, 0, DefaultMaxPixelRatio)
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)

	w, h = sceneTargetSize(0, 0, 1, DefaultMaxPixelRatio)
	assert.Equal(t, uint32(1), w)
	assert.Equal(t, uint32(1), h)
}

func TestIsSRGBFormat(t *testing.T) {
	assert.True(t, isSRGBFormat(wgpu.TextureFormatBGRA8UnormSrgb))
	assert.False(t, isSRGBFormat(wgpu.TextureFormatBGRA8Unorm))
}

func TestStagingFormat(t *testing.T) {
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, stagingFormat(common.TextureStagingData{}))
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, stagingFormat(common.TextureStagingData{Format: wgpu.TextureFormatRGBA16Float}))
}

func TestValidateStaging(t *testing.T) {
	ok := common.TextureStagingData{
		Pixels: make([]byte, 4*2*8),
		Mips:   [][]byte{make([]byte, 2*1*8), make([]byte, 8)},
		Width:  4,
		Height: 2,
		Format: wgpu.TextureFormatRGBA16Float,
	}
	assert.NoError(t, validateStaging(ok))

	short := ok
	short.Mips = [][]byte{make([]byte, 8), make([]byte, 8)}
	assert.Error(t, validateStaging(short))

	assert.Error(t, validateStaging(common.TextureStagingData{Width: 0, Height: 1}))
	assert.Error(t, validateStaging(common.TextureStagingData{Pixels: []byte{1, 2, 3}, Width: 1, Height: 1}))
}

func TestMipExtent(t *testing.T) {
	w, h := mipExtent(8, 2, 2)
	assert.Equal(t, uint32(2), w)
	assert.Equal(t, uint32(1), h)
}
