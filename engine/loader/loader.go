// Package loader fetches and decodes the assets the scene is revealed with: glTF models and
// Radiance HDR environment maps. Assets may come from disk or over http(s).
package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-reveal/common"
	"github.com/Carmen-Shannon/oxy-reveal/engine/model"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// ErrClosed is returned by loads started after Close.
var ErrClosed = errors.New("loader is closed")

// slotRoles maps material texture slots to the provider roles the PBR shader declares.
var slotRoles = map[material.TextureSlot]shader.AnnotationArg{
	material.SlotBaseColor:         shader.AnnotationArgBaseColorTexture,
	material.SlotNormal:            shader.AnnotationArgNormalTexture,
	material.SlotMetallicRoughness: shader.AnnotationArgMetallicRoughnessTexture,
	material.SlotEmissive:          shader.AnnotationArgEmissiveTexture,
	material.SlotOcclusion:         shader.AnnotationArgOcclusionTexture,
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	renderer renderer.Renderer
	client   *http.Client
	pool     worker.DynamicWorkerPool
	ownsPool bool

	envIntensity float32

	modelCache map[string]model.Model
	backends   map[string]loaderBackend

	closed    bool
	closeOnce sync.Once
}

// Loader fetches, decodes and caches models and environment maps. When a Renderer is set, the
// results are uploaded and bound against the renderer's PBR pipeline.
type Loader interface {
	// LoadModel fetches and imports a model, then caches it by src. A cached model is returned
	// without fetching again. Material textures are decoded in parallel on the worker pool.
	//
	// Parameters:
	//   - ctx: cancels the fetch and the texture decodes
	//   - src: a file path or http(s) URL; the extension selects the backend
	//   - progress: optional byte progress callback for the model file
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if fetching, decoding or GPU upload fails
	LoadModel(ctx context.Context, src string, progress ProgressFunc) (model.Model, error)

	// LoadEnvironment fetches and decodes a Radiance HDR image and, with a renderer, uploads it as
	// a mipmapped RGBA16Float texture bound for the PBR pipeline's environment group.
	//
	// Parameters:
	//   - ctx: cancels the fetch
	//   - src: a file path or http(s) URL
	//   - progress: optional byte progress callback
	//
	// Returns:
	//   - *Environment: the decoded map and its GPU binding
	//   - error: ErrNotHDR if the data is not an HDR image, or the fetch, decode or upload error
	LoadEnvironment(ctx context.Context, src string, progress ProgressFunc) (*Environment, error)

	// Get retrieves a cached model by source. Returns nil if not found.
	//
	// Parameters:
	//   - src: the cache key to look up
	//
	// Returns:
	//   - model.Model: the cached model or nil
	Get(src string) model.Model

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by source
	Models() map[string]model.Model

	// InitMaterialGPU creates the textures, sampler, uniform and bind group of a material against a
	// pipeline's material group. Slots without a texture get 1x1 neutral placeholders. This is
	// needed for hand-built materials that bypass LoadModel.
	//
	// Parameters:
	//   - mat: the Material to initialize GPU resources on
	//   - p: the pipeline whose fragment shader declares the material provider
	//   - providerName: a unique name for the material's bind group provider
	//
	// Returns:
	//   - error: error if the shader declares no material group or GPU resource creation fails
	InitMaterialGPU(mat material.Material, p pipeline.Pipeline, providerName string) error

	// Close stops the loader's own worker pool. Later loads fail with ErrClosed.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		modelCache:   make(map[string]model.Model),
		backends:     make(map[string]loaderBackend),
		envIntensity: 1,
	}

	switch backendType {
	case BackendTypeGLTF:
		l.registerBackend(newGLTFLoaderBackend())
	}

	for _, option := range options {
		option(l)
	}

	if l.client == nil {
		l.client = newHTTPClient()
	}
	if l.pool == nil {
		l.pool = worker.NewDynamicWorkerPool(runtime.NumCPU(), 256, 1*time.Second)
		l.ownsPool = true
	}
	return l
}

func (l *loader) registerBackend(b loaderBackend) {
	for _, ext := range b.Extensions() {
		l.backends[ext] = b
	}
}

func (l *loader) LoadModel(ctx context.Context, src string, progress ProgressFunc) (model.Model, error) {
	l.mu.RLock()
	closed := l.closed
	cached, ok := l.modelCache[src]
	l.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if ok {
		return cached, nil
	}

	backend, err := l.resolveBackend(src)
	if err != nil {
		return nil, err
	}

	data, err := fetchWith(ctx, l.client, src, progress)
	if err != nil {
		return nil, err
	}

	resolve := func(uri string) ([]byte, error) {
		full, err := resolveURI(src, uri)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", uri, err)
		}
		return fetchWith(ctx, l.client, full, nil)
	}
	imported, err := backend.Import(data, src, resolve)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", src, err)
	}

	decoded, err := l.decodeTextures(ctx, imported.Materials)
	if err != nil {
		return nil, fmt.Errorf("failed to decode textures of %s: %w", src, err)
	}

	m, err := l.importedToModel(imported, decoded)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.modelCache[src] = m
	l.mu.Unlock()
	return m, nil
}

func (l *loader) Get(src string) model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[src]
}

func (l *loader) Models() map[string]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]model.Model, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

func (l *loader) InitMaterialGPU(mat material.Material, p pipeline.Pipeline, providerName string) error {
	if l.renderer == nil {
		return fmt.Errorf("loader: cannot InitMaterialGPU without a Renderer")
	}
	return l.initMaterialGPU(mat, p, providerName, nil)
}

func (l *loader) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		if l.ownsPool {
			l.pool.Stop()
		}
	})
}

// resolveBackend selects a backend from the extension of src, ignoring any URL query.
func (l *loader) resolveBackend(src string) (loaderBackend, error) {
	var ext string
	if isRemote(src) {
		u, err := url.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("bad model url %q: %w", src, err)
		}
		ext = path.Ext(u.Path)
	} else {
		ext = filepath.Ext(src)
	}

	backend, ok := l.backends[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("unsupported model format: %q", ext)
	}
	return backend, nil
}

type decodedTexture struct {
	tex     *common.ImportedTexture
	staging common.TextureStagingData
	err     error
}

// decodeTextures decodes every distinct texture of the materials on the worker pool.
func (l *loader) decodeTextures(ctx context.Context, materials []common.ImportedMaterial) (map[*common.ImportedTexture]common.TextureStagingData, error) {
	seen := make(map[*common.ImportedTexture]bool)
	var unique []*common.ImportedTexture
	for _, m := range materials {
		for _, tex := range []*common.ImportedTexture{m.BaseColorTexture, m.NormalTexture, m.MetallicRoughnessTexture, m.EmissiveTexture, m.OcclusionTexture} {
			if tex != nil && !seen[tex] {
				seen[tex] = true
				unique = append(unique, tex)
			}
		}
	}

	out := make(map[*common.ImportedTexture]common.TextureStagingData, len(unique))
	if len(unique) == 0 {
		return out, nil
	}

	// Buffered so workers never block once the caller has given up.
	results := make(chan decodedTexture, len(unique))
	for i, tex := range unique {
		l.pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: tex.Name,
			Do: func() (any, error) {
				pixels, w, h, err := tex.Decode()
				results <- decodedTexture{
					tex:     tex,
					staging: common.TextureStagingData{Pixels: pixels, Width: w, Height: h},
					err:     err,
				}
				return nil, err
			},
		})
	}

	for range unique {
		select {
		case r := <-results:
			if r.err != nil {
				return nil, r.err
			}
			out[r.tex] = r.staging
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, nil
}

// importedToModel turns an ImportedModel into a Model with one mesh provider per primitive and one
// material per imported material. GPU resources are created when a renderer is set.
func (l *loader) importedToModel(imported *model.ImportedModel, decoded map[*common.ImportedTexture]common.TextureStagingData) (model.Model, error) {
	var pbr pipeline.Pipeline
	if l.renderer != nil {
		pbr = l.renderer.Pipeline(renderer.PipelineKeyPBR)
		if pbr == nil {
			return nil, fmt.Errorf("renderer has no %q pipeline", renderer.PipelineKeyPBR)
		}
	}

	materials := make([]material.Material, len(imported.Materials))
	for i, imp := range imported.Materials {
		materials[i] = material.FromImported(imp, material.WithPipelineKey(renderer.PipelineKeyPBR))
		if pbr != nil {
			name := fmt.Sprintf("%s_material_%d", imported.Name, i)
			if err := l.initMaterialGPU(materials[i], pbr, name, decoded); err != nil {
				return nil, fmt.Errorf("failed to init material GPU resources for %q material %d: %w", imported.Name, i, err)
			}
		}
	}

	var fallback material.Material
	meshes := make([]*model.Mesh, 0, len(imported.Meshes))
	var radius float32
	for i := range imported.Meshes {
		im := &imported.Meshes[i]

		var mat material.Material
		if im.MaterialIndex >= 0 {
			mat = materials[im.MaterialIndex]
		} else {
			if fallback == nil {
				fallback = material.NewMaterial(material.WithName("default"), material.WithPipelineKey(renderer.PipelineKeyPBR))
				if pbr != nil {
					if err := l.initMaterialGPU(fallback, pbr, imported.Name+"_material_default", nil); err != nil {
						return nil, fmt.Errorf("failed to init default material for %q: %w", imported.Name, err)
					}
				}
			}
			mat = fallback
		}

		mesh := &model.Mesh{
			Name:       im.Name,
			Provider:   bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s_%s_mesh", imported.Name, im.Name)),
			Material:   mat,
			VertexData: im.VertexData(),
			IndexData:  im.IndexData(),
			IndexCount: len(im.Indices),
		}
		if l.renderer != nil {
			if err := l.renderer.InitMeshBuffers(mesh.Provider, mesh.VertexData, mesh.IndexData, mesh.IndexCount); err != nil {
				return nil, fmt.Errorf("failed to init mesh buffers for %q: %w", im.Name, err)
			}
		}
		meshes = append(meshes, mesh)
		radius = max(radius, model.ComputeBoundingRadius(im.Vertices))
	}

	return model.NewModel(
		model.WithName(imported.Name),
		model.WithMeshes(meshes...),
		model.WithImportedMaterials(imported.Materials),
		model.WithBoundingRadius(radius),
	), nil
}

// initMaterialGPU binds a material against the group its pipeline's fragment shader declares with
// @oxy:provider ... material. Per-binding roles come from the declarations.
func (l *loader) initMaterialGPU(mat material.Material, p pipeline.Pipeline, providerName string, decoded map[*common.ImportedTexture]common.TextureStagingData) error {
	frag := p.Shader(shader.ShaderTypeFragment)
	if frag == nil {
		return fmt.Errorf("pipeline %s has no fragment shader", p.PipelineKey())
	}
	group, samplerBinding, ok := frag.ProviderBinding(shader.AnnotationArgMaterial, shader.AnnotationArgSampler)
	if !ok {
		return fmt.Errorf("pipeline %s declares no material sampler", p.PipelineKey())
	}

	provider := bind_group_provider.NewBindGroupProvider(providerName)
	var sampler *common.SamplerStagingData

	for _, slot := range material.TextureSlots {
		g, binding, ok := frag.ProviderBinding(shader.AnnotationArgMaterial, slotRoles[slot])
		if !ok || g != group {
			continue
		}

		staging, err := materialTextureStaging(mat.Texture(slot), slot, decoded)
		if err != nil {
			return fmt.Errorf("%s texture: %w", slot, err)
		}
		if err := l.renderer.InitTextureView(provider, binding, staging); err != nil {
			return fmt.Errorf("failed to init %s texture view: %w", slot, err)
		}
		if tex := mat.Texture(slot); sampler == nil && tex != nil && tex.SamplerData != nil {
			sampler = tex.SamplerData
		}
	}

	samplerData := defaultMaterialSampler()
	if sampler != nil {
		samplerData = *sampler
	}
	if err := l.renderer.InitSampler(provider, samplerBinding, samplerData); err != nil {
		return fmt.Errorf("failed to init material sampler: %w", err)
	}

	descriptor := p.BindGroupLayoutDescriptor(group)
	if err := l.renderer.InitBindGroup(provider, descriptor, nil, nil); err != nil {
		return fmt.Errorf("failed to init material bind group: %w", err)
	}

	params := mat.Params()
	for _, entry := range descriptor.Entries {
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			l.renderer.WriteBuffers([]bind_group_provider.BufferWrite{{
				Provider: provider,
				Binding:  int(entry.Binding),
				Data:     params.Marshal(),
			}})
			break
		}
	}

	mat.SetBindGroupProvider(provider)
	return nil
}

// materialTextureStaging returns the decoded texture for a slot, decoding it now if it was not
// decoded ahead of time, or a 1x1 placeholder when the slot is empty.
func materialTextureStaging(tex *common.ImportedTexture, slot material.TextureSlot, decoded map[*common.ImportedTexture]common.TextureStagingData) (common.TextureStagingData, error) {
	var staging common.TextureStagingData
	switch {
	case tex == nil:
		// Flat tangent-space normal; every other slot multiplies its factor by 1.
		pixel := []byte{255, 255, 255, 255}
		if slot == material.SlotNormal {
			pixel = []byte{128, 128, 255, 255}
		}
		staging = common.TextureStagingData{Pixels: pixel, Width: 1, Height: 1}
	default:
		var ok bool
		if staging, ok = decoded[tex]; !ok {
			pixels, w, h, err := tex.Decode()
			if err != nil {
				return staging, err
			}
			staging = common.TextureStagingData{Pixels: pixels, Width: w, Height: h}
		}
	}

	staging.Format = wgpu.TextureFormatRGBA8Unorm
	if slot.SRGB() {
		staging.Format = wgpu.TextureFormatRGBA8UnormSrgb
	}
	return staging, nil
}

func defaultMaterialSampler() common.SamplerStagingData {
	return common.SamplerStagingData{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}
