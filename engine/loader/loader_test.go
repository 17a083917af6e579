package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-reveal/common"
	"github.com/Carmen-Shannon/oxy-reveal/engine/model"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestLoadModelFromFile(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "helmet.gltf", marshalDocument(t, embeddedTriangle()))

	l := NewLoader(BackendTypeGLTF)
	defer l.Close()

	m, err := l.LoadModel(context.Background(), src, nil)
	require.NoError(t, err)
	assert.Equal(t, "helmet", m.Name())
	require.Len(t, m.Meshes(), 1)

	mesh := m.Meshes()[0]
	assert.Equal(t, "tri", mesh.Name)
	assert.Equal(t, 3, mesh.IndexCount)
	assert.Len(t, mesh.VertexData, 3*(&model.GPUVertex{}).Size())
	assert.NotNil(t, mesh.Provider)
	require.NotNil(t, mesh.Material)
	assert.Equal(t, "default", mesh.Material.Name())
	assert.InDelta(t, 1, m.BoundingRadius(), 1e-6)

	assert.Same(t, m, l.Get(src))
	assert.Len(t, l.Models(), 1)

	// The cache answers without touching the file again.
	require.NoError(t, os.Remove(src))
	again, err := l.LoadModel(context.Background(), src, nil)
	require.NoError(t, err)
	assert.Same(t, m, again)
}

func TestLoadModelExternalResourcesOverHTTP(t *testing.T) {
	doc := withBaseColorImage(triangleDocument("buffers/tri.bin"), "textures/albedo.png")
	gltf := marshalDocument(t, doc)
	png := pngBytes(t, 4, 2)

	mux := http.NewServeMux()
	mux.HandleFunc("/assets/scene.gltf", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(gltf)
	})
	mux.HandleFunc("/assets/buffers/tri.bin", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(triangleBuffer())
	})
	mux.HandleFunc("/assets/textures/albedo.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(png)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	l := NewLoader(BackendTypeGLTF, WithHTTPClient(srv.Client()))
	defer l.Close()

	var last, total int64
	m, err := l.LoadModel(context.Background(), srv.URL+"/assets/scene.gltf?v=3", func(loaded, size int64) {
		last, total = loaded, size
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(gltf)), last)
	assert.Equal(t, int64(len(gltf)), total)

	require.Len(t, m.Meshes(), 1)
	mat := m.Meshes()[0].Material
	assert.Equal(t, "painted", mat.Name())
	tex := mat.Texture(material.SlotBaseColor)
	require.NotNil(t, tex)
	assert.Equal(t, png, tex.Data)
	assert.Equal(t, 4, tex.Width)
	assert.Equal(t, 2, tex.Height)
	assert.Equal(t, "image/png", tex.MimeType)
}

func TestLoadModelRejectsBadTexture(t *testing.T) {
	doc := withBaseColorImage(embeddedTriangle(), dataURI("image/png", []byte("not a png at all")))
	src := writeFile(t, t.TempDir(), "broken.gltf", marshalDocument(t, doc))

	l := NewLoader(BackendTypeGLTF)
	defer l.Close()

	_, err := l.LoadModel(context.Background(), src, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotImage)
	assert.Nil(t, l.Get(src))
}

func TestLoadModelGLB(t *testing.T) {
	doc := triangleDocument("")
	doc["buffers"] = []any{map[string]any{"byteLength": 42}}
	src := writeFile(t, t.TempDir(), "tri.glb", glbContainer(marshalDocument(t, doc), triangleBuffer()))

	l := NewLoader(BackendTypeGLTF)
	defer l.Close()

	m, err := l.LoadModel(context.Background(), src, nil)
	require.NoError(t, err)
	require.Len(t, m.Meshes(), 1)
	assert.Equal(t, 3, m.Meshes()[0].IndexCount)
}

func TestLoadModelErrors(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(BackendTypeGLTF)
	defer l.Close()

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := l.LoadModel(context.Background(), filepath.Join(dir, "model.obj"), nil)
		assert.ErrorContains(t, err, "unsupported model format")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := l.LoadModel(context.Background(), filepath.Join(dir, "absent.gltf"), nil)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("http status", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()
		_, err := l.LoadModel(context.Background(), srv.URL+"/missing.gltf", nil)
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})

	t.Run("cancelled", func(t *testing.T) {
		src := writeFile(t, dir, "tri.gltf", marshalDocument(t, embeddedTriangle()))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := l.LoadModel(ctx, src, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoaderClose(t *testing.T) {
	src := writeFile(t, t.TempDir(), "tri.gltf", marshalDocument(t, embeddedTriangle()))

	l := NewLoader(BackendTypeGLTF)
	l.Close()
	l.Close()

	_, err := l.LoadModel(context.Background(), src, nil)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = l.LoadEnvironment(context.Background(), src, nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestLoaderSharedPoolSurvivesClose(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(2, 8, time.Second)
	defer pool.Stop()

	doc := withBaseColorImage(embeddedTriangle(), dataURI("image/png", pngBytes(t, 2, 2)))
	src := writeFile(t, t.TempDir(), "tri.gltf", marshalDocument(t, doc))

	first := NewLoader(BackendTypeGLTF, WithWorkerPool(pool))
	_, err := first.LoadModel(context.Background(), src, nil)
	require.NoError(t, err)
	first.Close()

	second := NewLoader(BackendTypeGLTF, WithWorkerPool(pool))
	defer second.Close()
	_, err = second.LoadModel(context.Background(), src, nil)
	require.NoError(t, err)
}

func TestWithModelPrepopulatesCache(t *testing.T) {
	m := model.NewModel(model.WithName("preset"))
	l := NewLoader(BackendTypeGLTF, WithModel("preset.gltf", m))
	defer l.Close()

	got, err := l.LoadModel(context.Background(), "preset.gltf", nil)
	require.NoError(t, err)
	assert.Same(t, m, got)
}

func TestLoadEnvironment(t *testing.T) {
	pixels := make([][4]byte, 4*2)
	for i := range pixels {
		pixels[i] = [4]byte{128, 128, 128, 129}
	}
	src := writeFile(t, t.TempDir(), "sky.hdr", hdrFlat(4, 2, "EXPOSURE=0.5\n", pixels))

	l := NewLoader(BackendTypeGLTF, WithEnvironmentIntensity(2))
	defer l.Close()

	env, err := l.LoadEnvironment(context.Background(), src, nil)
	require.NoError(t, err)
	assert.Equal(t, src, env.Source)
	assert.Equal(t, 4, env.Map.Width)
	assert.Equal(t, 2, env.Map.Height)
	assert.InDelta(t, 0.5, env.Map.Exposure, 1e-6)
	assert.InDelta(t, 1, env.Params.Intensity, 1e-6)
	// 4x2 -> 2x1 -> 1x1
	assert.InDelta(t, 2, env.Params.MaxMip, 1e-6)
	assert.Nil(t, env.Provider)
}

func TestLoadEnvironmentRejectsOtherFormats(t *testing.T) {
	src := writeFile(t, t.TempDir(), "sky.hdr", pngBytes(t, 2, 2))

	l := NewLoader(BackendTypeGLTF)
	defer l.Close()

	_, err := l.LoadEnvironment(context.Background(), src, nil)
	assert.ErrorIs(t, err, ErrNotHDR)
}

func TestMaterialTextureStaging(t *testing.T) {
	normal, err := materialTextureStaging(nil, material.SlotNormal, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{128, 128, 255, 255}, normal.Pixels)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, normal.Format)

	mr, err := materialTextureStaging(nil, material.SlotMetallicRoughness, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 255, 255, 255}, mr.Pixels)

	tex := &common.ImportedTexture{Name: "albedo"}
	decoded := map[*common.ImportedTexture]common.TextureStagingData{
		tex: {Pixels: make([]byte, 16), Width: 2, Height: 2},
	}
	base, err := materialTextureStaging(tex, material.SlotBaseColor, decoded)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), base.Width)
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, base.Format)

	_, err = materialTextureStaging(&common.ImportedTexture{Name: "empty"}, material.SlotEmissive, nil)
	assert.Error(t, err)
}
