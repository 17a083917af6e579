package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// triangleBuffer holds three positions followed by three uint16 indices.
func triangleBuffer() []byte {
	buf := make([]byte, 0, 42)
	for _, v := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	for _, i := range []uint16{0, 1, 2} {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	return buf
}

// triangleDocument returns a one-triangle glTF document whose single buffer lives at bufferURI.
func triangleDocument(bufferURI string) map[string]any {
	return map[string]any{
		"asset":  map[string]any{"version": "2.0"},
		"scene":  0,
		"scenes": []any{map[string]any{"nodes": []int{0}}},
		"nodes":  []any{map[string]any{"mesh": 0}},
		"meshes": []any{map[string]any{
			"name": "tri",
			"primitives": []any{map[string]any{
				"attributes": map[string]int{"POSITION": 0},
				"indices":    1,
			}},
		}},
		"accessors": []any{
			map[string]any{"bufferView": 0, "componentType": gltfComponentTypeFloat, "count": 3, "type": "VEC3"},
			map[string]any{"bufferView": 1, "componentType": gltfComponentTypeUnsignedShort, "count": 3, "type": "SCALAR"},
		},
		"bufferViews": []any{
			map[string]any{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			map[string]any{"buffer": 0, "byteOffset": 36, "byteLength": 6},
		},
		"buffers": []any{map[string]any{"uri": bufferURI, "byteLength": 42}},
	}
}

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func embeddedTriangle() map[string]any {
	return triangleDocument(dataURI("application/octet-stream", triangleBuffer()))
}

func marshalDocument(t *testing.T, doc map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

// withBaseColorImage adds a material with a base color texture loaded from imageURI to doc.
func withBaseColorImage(doc map[string]any, imageURI string) map[string]any {
	doc["materials"] = []any{map[string]any{
		"name": "painted",
		"pbrMetallicRoughness": map[string]any{
			"baseColorTexture": map[string]any{"index": 0},
		},
	}}
	doc["textures"] = []any{map[string]any{"source": 0}}
	doc["images"] = []any{map[string]any{"uri": imageURI}}
	prim := doc["meshes"].([]any)[0].(map[string]any)["primitives"].([]any)[0].(map[string]any)
	prim["material"] = 0
	return doc
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// glbContainer wraps a JSON chunk and a BIN chunk in a GLB container.
func glbContainer(jsonChunk, binChunk []byte) []byte {
	pad := func(b []byte, fill byte) []byte {
		for len(b)%4 != 0 {
			b = append(b, fill)
		}
		return b
	}
	jsonChunk = pad(append([]byte(nil), jsonChunk...), ' ')
	binChunk = pad(append([]byte(nil), binChunk...), 0)

	total := 12 + 8 + len(jsonChunk) + 8 + len(binChunk)
	out := make([]byte, 0, total)
	out = binary.LittleEndian.AppendUint32(out, gltfGLBMagic)
	out = binary.LittleEndian.AppendUint32(out, gltfGLBVersion)
	out = binary.LittleEndian.AppendUint32(out, uint32(total))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(jsonChunk)))
	out = binary.LittleEndian.AppendUint32(out, gltfGLBChunkJSON)
	out = append(out, jsonChunk...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(binChunk)))
	out = binary.LittleEndian.AppendUint32(out, gltfGLBChunkBIN)
	out = append(out, binChunk...)
	return out
}

// hdrFlat encodes pixels as an uncompressed Radiance image.
func hdrFlat(width, height int, header string, pixels [][4]byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("#?RADIANCE\n")
	buf.WriteString(header)
	buf.WriteString("FORMAT=32-bit_rle_rgbe\n\n")
	buf.WriteString("-Y ")
	buf.WriteString(strconv.Itoa(height))
	buf.WriteString(" +X ")
	buf.WriteString(strconv.Itoa(width))
	buf.WriteString("\n")
	for _, p := range pixels {
		buf.Write(p[:])
	}
	return buf.Bytes()
}

// hdrRLE encodes one scanline per row with new-style run-length encoding, each channel as a single run.
func hdrRLE(width int, rows [][4]byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("#?RGBE\nFORMAT=32-bit_rle_rgbe\n\n-Y ")
	buf.WriteString(strconv.Itoa(len(rows)))
	buf.WriteString(" +X ")
	buf.WriteString(strconv.Itoa(width))
	buf.WriteString("\n")
	for _, px := range rows {
		buf.Write([]byte{2, 2, byte(width >> 8), byte(width & 0xff)})
		for c := range 4 {
			for left := width; left > 0; {
				run := min(left, 127)
				buf.Write([]byte{byte(128 + run), px[c]})
				left -= run
			}
		}
	}
	return buf.Bytes()
}
