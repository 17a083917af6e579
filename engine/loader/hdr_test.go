package loader

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHDRFlat(t *testing.T) {
	data := hdrFlat(2, 1, "", [][4]byte{
		{128, 64, 32, 129},
		{0, 0, 0, 0},
	})

	env, err := DecodeHDR(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, env.Width)
	assert.Equal(t, 1, env.Height)
	assert.InDelta(t, 1, env.Exposure, 1e-6)

	// Exponent 129 scales the mantissa by 2/255.
	assert.InDelta(t, 128*2.0/255, env.Pixels[0], 1e-6)
	assert.InDelta(t, 64*2.0/255, env.Pixels[1], 1e-6)
	assert.InDelta(t, 32*2.0/255, env.Pixels[2], 1e-6)
	assert.InDelta(t, 1, env.Pixels[3], 1e-6)
	assert.Equal(t, []float32{0, 0, 0, 1}, env.Pixels[4:8])
}

func TestDecodeHDRRunLength(t *testing.T) {
	rows := [][4]byte{
		{10, 20, 30, 128},
		{255, 0, 0, 130},
	}
	env, err := DecodeHDR(bytes.NewReader(hdrRLE(200, rows)))
	require.NoError(t, err)
	require.Equal(t, 200, env.Width)
	require.Equal(t, 2, env.Height)

	last := (200*2 - 1) * 4
	assert.InDelta(t, 10.0/255, env.Pixels[0], 1e-6)
	assert.InDelta(t, 30.0/255, env.Pixels[2], 1e-6)
	assert.InDelta(t, 255*4.0/255, env.Pixels[last], 1e-5)
	assert.InDelta(t, 0, env.Pixels[last+1], 1e-6)
}

func TestDecodeHDRExposure(t *testing.T) {
	data := hdrFlat(1, 1, "EXPOSURE=2\nGAMMA=1\nEXPOSURE=0.25\n", [][4]byte{{1, 1, 1, 128}})
	env, err := DecodeHDR(bytes.NewReader(data))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, env.Exposure, 1e-6)
}

func TestDecodeHDRErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"foreign magic", "\x89PNG\r\n", ""},
		{"unsupported format", "#?RADIANCE\nFORMAT=32-bit_rle_xyze\n\n-Y 1 +X 1\n", "unsupported format"},
		{"flipped orientation", "#?RADIANCE\n\n+Y 1 +X 1\n", "unsupported resolution line"},
		{"zero size", "#?RADIANCE\n\n-Y 0 +X 4\n", "bad resolution"},
		{"oversized", "#?RADIANCE\n\n-Y 16385 +X 4\n", "exceeds"},
		{"overflowing size", "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y 1099511627776 +X 4194304\n", "exceeds"},
		{"truncated pixels", "#?RADIANCE\n\n-Y 1 +X 2\n\x01\x02\x03\x80", "scanline 0"},
		{"unterminated header", "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n", "unterminated header"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeHDR(strings.NewReader(tc.data))
			require.Error(t, err)
			if tc.want == "" {
				assert.ErrorIs(t, err, ErrNotHDR)
				return
			}
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestDecodeHDRRejectsOverlongRun(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("#?RADIANCE\n\n-Y 1 +X 8\n")
	buf.Write([]byte{2, 2, 0, 8})
	buf.Write([]byte{128 + 9, 1})

	_, err := DecodeHDR(&buf)
	assert.ErrorContains(t, err, "run overflows scanline")
}

func TestDecodeHDRLargeHeaderShortData(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("#?RADIANCE\n\n-Y 16384 +X 32768\n")
	buf.Write(make([]byte, 1<<20))

	var err error
	require.NotPanics(t, func() {
		_, err = DecodeHDR(&buf)
	})
	assert.ErrorContains(t, err, "scanline")
}

func TestIsHDR(t *testing.T) {
	assert.True(t, isHDR([]byte("#?RADIANCE\n")))
	assert.True(t, isHDR([]byte("#?RGBE\n")))
	assert.False(t, isHDR([]byte("glTF")))
}
