package loader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGLTFImportGeneratesNormalsAndTangents(t *testing.T) {
	data := marshalDocument(t, embeddedTriangle())
	imported, err := newGLTFImporter(nil).Import(data, "public/tri.gltf")
	require.NoError(t, err)

	assert.Equal(t, "tri", imported.Name)
	require.Len(t, imported.Meshes, 1)
	mesh := imported.Meshes[0]
	assert.Equal(t, -1, mesh.MaterialIndex)
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	for _, v := range mesh.Vertices {
		assert.InDeltaSlice(t, []float32{0, 0, 1}, v.Normal[:], 1e-6)
		tangent := mgl32.Vec3{v.Tangent[0], v.Tangent[1], v.Tangent[2]}
		assert.InDelta(t, 1, tangent.Len(), 1e-5)
		assert.InDelta(t, 0, tangent.Dot(mgl32.Vec3(v.Normal)), 1e-5)
	}
	assert.Equal(t, [3]float32{0, 0, 0}, mesh.BoundingMin)
	assert.Equal(t, [3]float32{1, 1, 0}, mesh.BoundingMax)
}

func TestGLTFImportBakesNodeHierarchy(t *testing.T) {
	doc := embeddedTriangle()
	doc["scenes"] = []any{map[string]any{"name": "stage", "nodes": []int{0}}}
	doc["nodes"] = []any{
		map[string]any{"translation": []float32{0, 0, 5}, "children": []int{1}},
		map[string]any{"scale": []float32{-1, 1, 1}, "mesh": 0},
	}
	data := marshalDocument(t, doc)

	imported, err := newGLTFImporter(nil).Import(data, "tri.gltf")
	require.NoError(t, err)
	assert.Equal(t, "stage", imported.Name)

	mesh := imported.Meshes[0]
	assert.InDeltaSlice(t, []float32{0, 0, 5}, mesh.Vertices[0].Position[:], 1e-6)
	assert.InDeltaSlice(t, []float32{-1, 0, 5}, mesh.Vertices[1].Position[:], 1e-6)
	assert.InDeltaSlice(t, []float32{0, 1, 5}, mesh.Vertices[2].Position[:], 1e-6)
	// The mirror flips winding to keep front faces counter-clockwise.
	assert.Equal(t, []uint32{0, 2, 1}, mesh.Indices)
	assert.InDeltaSlice(t, []float32{0, 0, 1}, mesh.Vertices[0].Normal[:], 1e-6)
	assert.Equal(t, [3]float32{-1, 0, 5}, mesh.BoundingMin)
}

func TestGLTFImportWithoutScenes(t *testing.T) {
	doc := embeddedTriangle()
	delete(doc, "scene")
	delete(doc, "scenes")
	delete(doc, "nodes")
	data := marshalDocument(t, doc)

	imported, err := newGLTFImporter(nil).Import(data, "https://example.com/m/loose.gltf")
	require.NoError(t, err)
	assert.Equal(t, "loose", imported.Name)
	assert.Len(t, imported.Meshes, 1)
}

func TestGLTFImportErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(doc map[string]any)
		want   string
	}{
		{"old version", func(doc map[string]any) {
			doc["asset"] = map[string]any{"version": "1.0"}
		}, errInvalidGLTFVersion.Error()},
		{"required extension", func(doc map[string]any) {
			doc["extensionsRequired"] = []string{"KHR_draco_mesh_compression"}
		}, "KHR_draco_mesh_compression"},
		{"node cycle", func(doc map[string]any) {
			doc["nodes"] = []any{map[string]any{"mesh": 0, "children": []int{0}}}
		}, "appears twice"},
		{"missing material", func(doc map[string]any) {
			prim := doc["meshes"].([]any)[0].(map[string]any)["primitives"].([]any)[0].(map[string]any)
			prim["material"] = 3
		}, "missing material 3"},
		{"index out of range", func(doc map[string]any) {
			doc["accessors"].([]any)[0].(map[string]any)["count"] = 2
		}, "index 2 out of range"},
		{"accessor past buffer", func(doc map[string]any) {
			doc["accessors"].([]any)[1].(map[string]any)["count"] = 30
		}, errAccessorOutOfRange.Error()},
		{"lines", func(doc map[string]any) {
			prim := doc["meshes"].([]any)[0].(map[string]any)["primitives"].([]any)[0].(map[string]any)
			prim["mode"] = 1
		}, "unsupported primitive mode"},
		{"external buffer without resolver", func(doc map[string]any) {
			doc["buffers"] = []any{map[string]any{"uri": "tri.bin", "byteLength": 42}}
		}, "no resolver"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := embeddedTriangle()
			tc.mutate(doc)
			data := marshalDocument(t, doc)
			_, err := newGLTFImporter(nil).Import(data, "tri.gltf")
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestGLTFMaterialExtraction(t *testing.T) {
	doc := embeddedTriangle()
	tex := map[string]any{"index": 0}
	doc["materials"] = []any{
		map[string]any{
			"name": "visor",
			"pbrMetallicRoughness": map[string]any{
				"baseColorFactor":          []float32{0.5, 0.25, 1, 1},
				"metallicFactor":           0.2,
				"metallicRoughnessTexture": tex,
			},
			"normalTexture":    map[string]any{"index": 0, "scale": 0.5},
			"occlusionTexture": map[string]any{"index": 0, "strength": 0.75},
			"emissiveFactor":   []float32{1, 0.5, 0},
		},
		map[string]any{"name": "bare"},
	}
	doc["textures"] = []any{map[string]any{"source": 0, "sampler": 0}}
	doc["images"] = []any{map[string]any{"uri": dataURI("image/png", []byte{1, 2, 3})}}
	doc["samplers"] = []any{map[string]any{"magFilter": gltfFilterNearest, "wrapS": gltfWrapClampToEdge, "wrapT": gltfWrapMirroredRepeat}}

	parser := newGLTFParser(nil)
	data := marshalDocument(t, doc)
	require.NoError(t, parser.Parse(data))

	materials, err := newGLTFMaterialExtractor(parser).ExtractAllMaterials()
	require.NoError(t, err)
	require.Len(t, materials, 2)

	visor := materials[0]
	assert.Equal(t, "visor", visor.Name)
	assert.Equal(t, [4]float32{0.5, 0.25, 1, 1}, visor.BaseColor)
	assert.InDelta(t, 0.2, visor.Metallic, 1e-6)
	assert.InDelta(t, 1, visor.Roughness, 1e-6)
	assert.InDelta(t, 0.5, visor.NormalScale, 1e-6)
	assert.InDelta(t, 0.75, visor.OcclusionStrength, 1e-6)
	assert.Equal(t, [3]float32{1, 0.5, 0}, visor.Emissive)
	assert.Nil(t, visor.BaseColorTexture)

	// One glTF texture shared by three slots resolves to one ImportedTexture.
	require.NotNil(t, visor.NormalTexture)
	assert.Same(t, visor.NormalTexture, visor.OcclusionTexture)
	assert.Same(t, visor.NormalTexture, visor.MetallicRoughnessTexture)
	assert.Equal(t, []byte{1, 2, 3}, visor.NormalTexture.Data)
	assert.Empty(t, visor.NormalTexture.Path)

	sampler := visor.NormalTexture.SamplerData
	require.NotNil(t, sampler)
	assert.Equal(t, wgpu.FilterModeNearest, sampler.MagFilter)
	assert.Equal(t, wgpu.AddressModeClampToEdge, sampler.AddressModeU)
	assert.Equal(t, wgpu.AddressModeMirrorRepeat, sampler.AddressModeV)

	bare := materials[1]
	assert.Equal(t, [4]float32{1, 1, 1, 1}, bare.BaseColor)
	assert.InDelta(t, 1, bare.Metallic, 1e-6)
	assert.InDelta(t, 1, bare.Roughness, 1e-6)
}

func TestGLTFParserGLB(t *testing.T) {
	doc := triangleDocument("")
	doc["buffers"] = []any{map[string]any{"byteLength": 42}}
	glb := glbContainer(marshalDocument(t, doc), triangleBuffer())

	parser := newGLTFParser(nil)
	require.NoError(t, parser.Parse(glb))

	positions, err := parser.ReadFloats(0, gltfAccessorTypeVec3)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, positions)

	indices, err := parser.ReadIndices(1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, indices)

	_, err = parser.ReadFloats(0, gltfAccessorTypeVec2)
	assert.ErrorContains(t, err, "want VEC2")

	bad := append([]byte(nil), glb...)
	bad[4] = 1
	assert.ErrorIs(t, newGLTFParser(nil).Parse(bad), errInvalidGLBVersion)
}

func TestReadComponentNormalization(t *testing.T) {
	assert.InDelta(t, 1, readComponent([]byte{255}, gltfComponentTypeUnsignedByte), 1e-6)
	assert.InDelta(t, -1, readComponent([]byte{0x80}, gltfComponentTypeByte), 1e-6)
	assert.InDelta(t, 1, readComponent([]byte{0xff, 0xff}, gltfComponentTypeUnsignedShort), 1e-6)
	assert.InDelta(t, -1, readComponent([]byte{0x01, 0x80}, gltfComponentTypeShort), 1e-6)
}

func TestDecodeDataURI(t *testing.T) {
	data, err := decodeDataURI(dataURI("application/octet-stream", []byte("abc")))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	_, err = decodeDataURI("data:text/plain,abc")
	assert.ErrorContains(t, err, "unsupported data URI encoding")

	_, err = decodeDataURI("data:abc")
	assert.ErrorIs(t, err, errInvalidBufferURI)
}
