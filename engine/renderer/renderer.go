package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-reveal/common"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/postfx"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Keys of the pipelines every renderer registers on creation.
const (
	PipelineKeyPBR       = shader.BuiltinPBR
	PipelineKeyOverlay   = shader.BuiltinOverlay
	PipelineKeyComposite = shader.BuiltinComposite
)

// SurfaceSource is anything a renderer can present to. Width and Height are framebuffer pixels.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
	ContentScale() float32
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	width, height int
	pixelRatio    float32
	maxPixelRatio float32
	post          postfx.Params
	composite     bind_group_provider.BindGroupProvider

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
}

// Renderer draws the scene into an HDR target, composites it onto the surface with the post-process
// pass and then draws overlay quads on top.
//
// A frame is BeginFrame, any number of DrawCall, BeginScreenPass, any number of DrawQuad, EndFrame, Present.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key, or nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves the entire cache of Pipelines.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a copy of the cache
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines creates the GPU objects for each pipeline and caches it by PipelineKey.
	// Pipelines whose keys are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize reconfigures the surface and recreates the scene target. Non-positive sizes are ignored,
	// which covers minimised windows.
	//
	// Parameters:
	//   - width: the new framebuffer width in pixels
	//   - height: the new framebuffer height in pixels
	//
	// Returns:
	//   - error: error if the scene target could not be recreated
	Resize(width, height int) error

	// SetPixelRatio sets the physical-per-logical pixel ratio and recreates the scene target.
	// The ratio used for the target is capped at the configured maximum.
	//
	// Parameters:
	//   - ratio: the display's content scale
	//
	// Returns:
	//   - error: error if the scene target could not be recreated
	SetPixelRatio(ratio float32) error

	// PixelRatio returns the effective ratio, min(content scale, max pixel ratio).
	PixelRatio() float32

	// SceneSize returns the size of the HDR scene target in pixels.
	SceneSize() (uint32, uint32)

	// SetPostProcess replaces the composite parameters.
	//
	// Parameters:
	//   - params: the new parameters
	//
	// Returns:
	//   - error: error if the parameters are invalid
	SetPostProcess(params postfx.Params) error

	// PostProcess returns the current composite parameters.
	PostProcess() postfx.Params

	// SurfaceIsSRGB reports whether the surface encodes to sRGB in hardware.
	SurfaceIsSRGB() bool

	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the swapchain texture and begins the scene pass.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// DrawCall encodes an indexed draw into the scene pass.
	//
	// Parameters:
	//   - pipelineKey: a cached pipeline targeting the scene
	//   - meshProvider: the BindGroupProvider holding vertex and index buffers
	//   - bindGroups: providers bound to groups 0..n in order
	//
	// Returns:
	//   - error: an error if the pipeline is unknown, targets the screen, or no scene pass is open
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) error

	// BeginScreenPass ends the scene pass and composites the HDR target onto the surface.
	//
	// Returns:
	//   - error: error if no frame is in progress
	BeginScreenPass() error

	// DrawQuad draws one overlay quad in the screen pass.
	//
	// Parameters:
	//   - pipelineKey: a cached pipeline targeting the screen
	//   - provider: the quad's bind group, bound at group 0
	//
	// Returns:
	//   - error: error if the pipeline is unknown or the screen pass has not begun
	DrawQuad(pipelineKey string, provider bind_group_provider.BindGroupProvider) error

	// EndFrame ends the open pass and submits the frame. Call Present afterwards.
	EndFrame()

	// Present presents the surface and releases the swapchain texture.
	Present()

	// SetPresentMode sets the surface present mode, applied on the next Resize.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// Release frees pipelines, the scene target and the device.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer presenting to surface, with the PBR, composite and overlay pipelines registered.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - surface: the window or other surface source to present to
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the configured renderer
//   - error: error if a built-in shader, pipeline or the scene target could not be created
func NewRenderer(backendType RendererBackendType, surface SurfaceSource, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		maxPixelRatio: DefaultMaxPixelRatio,
		pixelRatio:    surface.ContentScale(),
		post:          postfx.DefaultParams(),
		width:         surface.Width(),
		height:        surface.Height(),
	}

	// Options first so forceFallbackAdapter is known before the adapter is requested.
	for _, opt := range options {
		opt(r)
	}
	if err := r.post.Validate(); err != nil {
		return nil, err
	}

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.backend.ConfigureSurface(max(r.width, 1), max(r.height, 1))

	builtins, err := builtinPipelines()
	if err != nil {
		return nil, err
	}
	if err := r.RegisterPipelines(builtins...); err != nil {
		return nil, err
	}

	if err := r.initComposite(); err != nil {
		return nil, err
	}
	return r, nil
}

// builtinPipelines describes the PBR scene pipeline and the two screen pipelines.
func builtinPipelines() ([]pipeline.Pipeline, error) {
	type builtin struct {
		name string
		opts []pipeline.PipelineBuilderOption
	}
	builtins := []builtin{
		{name: shader.BuiltinPBR, opts: []pipeline.PipelineBuilderOption{
			pipeline.WithTarget(pipeline.TargetScene),
			pipeline.WithCullMode(wgpu.CullModeBack),
			pipeline.WithDepthTestEnabled(true),
			pipeline.WithDepthWriteEnabled(true),
		}},
		{name: shader.BuiltinComposite, opts: []pipeline.PipelineBuilderOption{
			pipeline.WithTarget(pipeline.TargetScreen),
			pipeline.WithCullMode(wgpu.CullModeNone),
		}},
		{name: shader.BuiltinOverlay, opts: []pipeline.PipelineBuilderOption{
			pipeline.WithTarget(pipeline.TargetScreen),
			pipeline.WithCullMode(wgpu.CullModeNone),
			pipeline.WithBlendEnabled(true),
		}},
	}

	out := make([]pipeline.Pipeline, 0, len(builtins))
	for _, s := range builtins {
		vs, err := shader.NewBuiltinShader(s.name, shader.ShaderTypeVertex)
		if err != nil {
			return nil, err
		}
		fs, err := shader.NewBuiltinShader(s.name, shader.ShaderTypeFragment)
		if err != nil {
			return nil, err
		}
		opts := append([]pipeline.PipelineBuilderOption{
			pipeline.WithVertexShader(vs),
			pipeline.WithFragmentShader(fs),
		}, s.opts...)
		out = append(out, pipeline.NewPipeline(s.name, opts...))
	}
	return out, nil
}

// initComposite creates the composite provider's sampler and the first scene target.
func (r *renderer) initComposite() error {
	r.composite = bind_group_provider.NewBindGroupProvider("Composite")

	_, samplerBinding, ok := r.compositeBinding(shader.AnnotationArgSampler)
	if !ok {
		return fmt.Errorf("composite shader declares no sampler")
	}
	err := r.backend.InitSampler(r.composite, samplerBinding, common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
	})
	if err != nil {
		return err
	}
	return r.rebuildSceneTarget()
}

// compositeBinding looks up a post provider binding in the composite fragment shader.
func (r *renderer) compositeBinding(role shader.AnnotationArg) (int, int, bool) {
	p := r.Pipeline(PipelineKeyComposite)
	if p == nil {
		return 0, 0, false
	}
	return p.Shader(shader.ShaderTypeFragment).ProviderBinding(shader.AnnotationArgPost, role)
}

// rebuildSceneTarget recreates the HDR target at the current size and rebinds it for the composite pass.
func (r *renderer) rebuildSceneTarget() error {
	r.mu.Lock()
	w, h := sceneTargetSize(r.width, r.height, r.pixelRatio, r.maxPixelRatio)
	r.mu.Unlock()

	_, textureBinding, ok := r.compositeBinding(shader.AnnotationArgTexture)
	if !ok {
		return fmt.Errorf("composite shader declares no texture")
	}

	tex, view, err := r.backend.ConfigureSceneTarget(w, h)
	if err != nil {
		return err
	}
	r.composite.SetTexture(textureBinding, tex, view)
	r.composite.ReleaseBindGroup()

	desc := r.Pipeline(PipelineKeyComposite).BindGroupLayoutDescriptor(0)
	if err := r.backend.InitBindGroup(r.composite, desc, nil, nil); err != nil {
		return err
	}
	r.writePostParams()
	return nil
}

func (r *renderer) writePostParams() {
	r.mu.Lock()
	gpu := r.post.GPU(!isSRGBFormat(r.backend.SurfaceFormat()))
	r.mu.Unlock()
	r.backend.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: r.composite,
		Binding:  0,
		Data:     gpu.Marshal(),
	}})
}

func (r *renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	r.mu.Lock()
	r.width, r.height = width, height
	r.mu.Unlock()

	r.backend.ConfigureSurface(width, height)
	return r.rebuildSceneTarget()
}

func (r *renderer) SetPixelRatio(ratio float32) error {
	if ratio <= 0 {
		return fmt.Errorf("pixel ratio must be positive, got %v", ratio)
	}
	r.mu.Lock()
	if r.pixelRatio == ratio {
		r.mu.Unlock()
		return nil
	}
	r.pixelRatio = ratio
	r.mu.Unlock()
	return r.rebuildSceneTarget()
}

func (r *renderer) PixelRatio() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return min(r.pixelRatio, r.maxPixelRatio)
}

func (r *renderer) SceneSize() (uint32, uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sceneTargetSize(r.width, r.height, r.pixelRatio, r.maxPixelRatio)
}

func (r *renderer) SetPostProcess(params postfx.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.post = params
	r.mu.Unlock()
	r.writePostParams()
	return nil
}

func (r *renderer) PostProcess() postfx.Params {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.post
}

func (r *renderer) SurfaceIsSRGB() bool {
	return isSRGBFormat(r.backend.SurfaceFormat())
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("pipeline %q: %w", key, err)
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return r.backend.InitTextureView(provider, bindingKey, stagingData)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, bindingKey, samplerStagingData)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) lookup(key string, target pipeline.Target) (pipeline.Pipeline, error) {
	p := r.Pipeline(key)
	if p == nil {
		return nil, fmt.Errorf("render pipeline %q not found in cache", key)
	}
	if p.Target() != target {
		return nil, fmt.Errorf("render pipeline %q targets the %s, not the %s", key, p.Target(), target)
	}
	return p, nil
}

func (r *renderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) error {
	p, err := r.lookup(pipelineKey, pipeline.TargetScene)
	if err != nil {
		return err
	}
	return r.backend.DrawCall(p, meshProvider, bindGroups)
}

func (r *renderer) BeginScreenPass() error {
	p, err := r.lookup(PipelineKeyComposite, pipeline.TargetScreen)
	if err != nil {
		return err
	}
	return r.backend.BeginScreenPass(p, r.composite)
}

func (r *renderer) DrawQuad(pipelineKey string, provider bind_group_provider.BindGroupProvider) error {
	p, err := r.lookup(pipelineKey, pipeline.TargetScreen)
	if err != nil {
		return err
	}
	return r.backend.DrawQuad(p, provider)
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.mu.Unlock()

	if r.composite != nil {
		r.composite.Release()
	}
	r.backend.Release()
}
