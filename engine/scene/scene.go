// Package scene ties the camera, the revealed model, its environment map and the overlay layer
// together and turns them into draw calls each frame.
package scene

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-reveal/common"
	"github.com/Carmen-Shannon/oxy-reveal/engine/camera"
	"github.com/Carmen-Shannon/oxy-reveal/engine/model"
	"github.com/Carmen-Shannon/oxy-reveal/engine/overlay"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-reveal/engine/tween"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// DefaultMouseFactor scales the normalized cursor offset, in half turns, into a model rotation.
	DefaultMouseFactor = 0.12

	// DefaultMouseDuration is how long the model takes to follow the cursor.
	DefaultMouseDuration = 500 * time.Millisecond

	// MouseRotationKey is the player key of the cursor-follow tween. A new move replaces the running one.
	MouseRotationKey = "model.rotation"
)

// ErrModelSet is returned by SetModel when the scene already holds a model.
var ErrModelSet = errors.New("scene model already set")

// Scene holds the camera, the model (set once), the environment binding, the overlay layer and the
// tween player that animates them. A scene without a renderer tracks state but uploads and draws
// nothing. Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// Renderer returns the scene's renderer, or nil for a headless scene.
	Renderer() renderer.Renderer

	// Layer returns the overlay layer drawn above the scene.
	Layer() overlay.Layer

	// Player returns the tween player advanced by Update.
	Player() tween.Player

	// Model returns the model, or nil before SetModel.
	Model() model.Model

	// SetModel installs the model and creates its uniform bind group. The model can be set once.
	//
	// Parameters:
	//   - m: the model to draw
	//
	// Returns:
	//   - error: ErrModelSet on a second call, or the GPU initialization error
	SetModel(m model.Model) error

	// SetEnvironment sets the environment bind group the model is lit with. The model is not drawn
	// until an environment is set.
	//
	// Parameters:
	//   - provider: the environment provider built by the loader
	SetEnvironment(provider bind_group_provider.BindGroupProvider)

	// Resize updates the camera aspect and the overlay viewport.
	//
	// Parameters:
	//   - width, height: the logical window size
	Resize(width, height int)

	// HandleMouseMove turns the cursor position into a model tilt:
	// rotX = (y/h - 0.5)·π·factor and rotY = (x/w - 0.5)·π·factor, tweened with Power2Out.
	// It is a no-op until a model is set.
	//
	// Parameters:
	//   - x, y: the cursor position in logical pixels
	//   - width, height: the logical window size
	HandleMouseMove(x, y, width, height float64)

	// SetMouseResponse changes how the model follows the cursor from the next move on.
	// Non-positive durations and a nil ease keep the current values.
	//
	// Parameters:
	//   - factor: the tilt at the window edge as a fraction of a half turn
	//   - duration: how long the model takes to reach the new tilt
	//   - ease: the easing curve
	SetMouseResponse(factor float32, duration time.Duration, ease tween.Ease)

	// Update advances the tweens and uploads the camera and model uniforms.
	//
	// Parameters:
	//   - dt: elapsed time since the previous update
	Update(dt time.Duration)

	// DrawCalls draws every mesh of the model into the scene pass.
	// Must be called between BeginFrame and BeginScreenPass on the renderer.
	//
	// Returns:
	//   - error: error if a draw call fails
	DrawCalls() error

	// DrawOverlay draws the visible overlay elements, lowest z-index first, into the screen pass.
	// Element GPU resources are created on first draw.
	//
	// Returns:
	//   - error: error if creating resources or drawing fails
	DrawOverlay() error
}

type scene struct {
	mu sync.RWMutex

	name   string
	active bool

	cam    camera.Camera
	r      renderer.Renderer
	layer  overlay.Layer
	player tween.Player

	model         model.Model
	modelProvider bind_group_provider.BindGroupProvider
	environment   bind_group_provider.BindGroupProvider

	viewportW, viewportH float32

	mouseFactor   float32
	mouseDuration time.Duration
	mouseEase     tween.Ease

	// Reused each frame to avoid per-frame allocations.
	drawBindGroupsPool []bind_group_provider.BindGroupProvider
}

var _ Scene = &scene{}

// NewScene creates a scene. With a renderer, the camera's bind group is created against the camera
// group of the renderer's PBR pipeline.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - r: the renderer to draw with, or nil for a headless scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
//   - error: error if the camera bind group cannot be created
func NewScene(name string, cam camera.Camera, r renderer.Renderer, options ...SceneBuilderOption) (Scene, error) {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}

	s := &scene{
		name:               name,
		active:             true,
		cam:                cam,
		r:                  r,
		mouseFactor:        DefaultMouseFactor,
		mouseDuration:      DefaultMouseDuration,
		mouseEase:          tween.Power2Out,
		drawBindGroupsPool: make([]bind_group_provider.BindGroupProvider, 0, 4),
	}
	for _, option := range options {
		option(s)
	}
	if s.layer == nil {
		s.layer = overlay.NewLayer()
	}
	if s.player == nil {
		s.player = tween.NewPlayer()
	}

	if r != nil {
		pbr, err := s.pbrPipeline()
		if err != nil {
			return nil, err
		}
		group, ok := structGroup(pbr, shader.AnnotationArgCamera)
		if !ok {
			return nil, fmt.Errorf("scene: pipeline %s declares no camera group", pbr.PipelineKey())
		}
		if cam.BindGroupProvider() == nil {
			cam.SetBindGroupProvider(bind_group_provider.NewBindGroupProvider(name + "_camera"))
		}
		if err := r.InitBindGroup(cam.BindGroupProvider(), pbr.BindGroupLayoutDescriptor(group), nil, nil); err != nil {
			return nil, fmt.Errorf("scene: failed to init camera bind group: %w", err)
		}
	}
	return s, nil
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) Renderer() renderer.Renderer {
	return s.r
}

func (s *scene) Layer() overlay.Layer {
	return s.layer
}

func (s *scene) Player() tween.Player {
	return s.player
}

func (s *scene) Model() model.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

func (s *scene) SetModel(m model.Model) error {
	if m == nil {
		return fmt.Errorf("scene: nil model")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != nil {
		return ErrModelSet
	}

	if s.r != nil {
		pbr, err := s.pbrPipeline()
		if err != nil {
			return err
		}
		group, ok := structGroup(pbr, shader.AnnotationArgModel)
		if !ok {
			return fmt.Errorf("scene: pipeline %s declares no model group", pbr.PipelineKey())
		}

		provider := m.UniformProvider()
		if provider == nil {
			provider = bind_group_provider.NewBindGroupProvider(m.Name() + "_uniform")
			m.SetUniformProvider(provider)
		}
		if err := s.r.InitBindGroup(provider, pbr.BindGroupLayoutDescriptor(group), nil, nil); err != nil {
			return fmt.Errorf("scene: failed to init model bind group: %w", err)
		}
		s.modelProvider = provider
	}
	s.model = m
	return nil
}

func (s *scene) SetEnvironment(provider bind_group_provider.BindGroupProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.environment = provider
}

func (s *scene) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.mu.Lock()
	s.viewportW, s.viewportH = float32(width), float32(height)
	s.mu.Unlock()
	s.cam.SetAspect(float32(width) / float32(height))
}

func (s *scene) HandleMouseMove(x, y, width, height float64) {
	s.mu.RLock()
	m, factor, duration, ease := s.model, s.mouseFactor, s.mouseDuration, s.mouseEase
	s.mu.RUnlock()
	if m == nil || width <= 0 || height <= 0 {
		return
	}

	rotX := float32((y/height - 0.5) * math.Pi * float64(factor))
	rotY := float32((x/width - 0.5) * math.Pi * float64(factor))

	s.player.Play(MouseRotationKey, tween.New(duration, []tween.Property[float32]{
		{Get: m.RotationX, Set: m.SetRotationX, To: rotX},
		{Get: m.RotationY, Set: m.SetRotationY, To: rotY},
	}, tween.WithEase(ease)))
}

func (s *scene) SetMouseResponse(factor float32, duration time.Duration, ease tween.Ease) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mouseFactor = factor
	if duration > 0 {
		s.mouseDuration = duration
	}
	if ease != nil {
		s.mouseEase = ease
	}
}

func (s *scene) Update(dt time.Duration) {
	s.player.Update(dt)
	if s.r == nil {
		return
	}

	s.mu.RLock()
	m, modelProvider := s.model, s.modelProvider
	s.mu.RUnlock()

	camUniform := s.cam.Uniform()
	writes := []bind_group_provider.BufferWrite{{
		Provider: s.cam.BindGroupProvider(),
		Data:     camUniform.Marshal(),
	}}
	if m != nil && modelProvider != nil {
		modelUniform := m.Uniform()
		writes = append(writes, bind_group_provider.BufferWrite{
			Provider: modelProvider,
			Data:     modelUniform.Marshal(),
		})
	}
	s.r.WriteBuffers(writes)
}

func (s *scene) DrawCalls() error {
	if s.r == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil || s.environment == nil {
		return nil
	}

	for _, mesh := range s.model.Meshes() {
		mat := mesh.Material
		if mat == nil || mat.BindGroupProvider() == nil {
			continue
		}
		s.drawBindGroupsPool = append(s.drawBindGroupsPool[:0],
			s.cam.BindGroupProvider(),
			s.modelProvider,
			mat.BindGroupProvider(),
			s.environment,
		)
		if err := s.r.DrawCall(mat.PipelineKey(), mesh.Provider, s.drawBindGroupsPool); err != nil {
			return fmt.Errorf("scene: draw %s: %w", mesh.Name, err)
		}
	}
	return nil
}

func (s *scene) DrawOverlay() error {
	if s.r == nil {
		return nil
	}

	s.mu.RLock()
	vw, vh := s.viewportW, s.viewportH
	s.mu.RUnlock()
	if vw <= 0 || vh <= 0 {
		w, h := s.r.SceneSize()
		vw, vh = float32(w), float32(h)
	}
	encodeSRGB := !s.r.SurfaceIsSRGB()

	var writes []bind_group_provider.BufferWrite
	var visible []overlay.Element
	for _, e := range s.layer.Elements() {
		if !e.Visible() {
			continue
		}
		if e.BindGroupProvider() == nil {
			if err := s.initOverlayElement(e); err != nil {
				return fmt.Errorf("scene: overlay element %s: %w", e.ID(), err)
			}
		}
		params := e.Params(vw, vh, encodeSRGB)
		writes = append(writes, bind_group_provider.BufferWrite{
			Provider: e.BindGroupProvider(),
			Data:     params.Marshal(),
		})
		visible = append(visible, e)
	}
	if len(visible) == 0 {
		return nil
	}

	s.r.WriteBuffers(writes)
	for _, e := range visible {
		if err := s.r.DrawQuad(renderer.PipelineKeyOverlay, e.BindGroupProvider()); err != nil {
			return fmt.Errorf("scene: overlay element %s: %w", e.ID(), err)
		}
	}
	return nil
}

// initOverlayElement creates the texture, sampler and uniform of an element against the overlay
// pipeline's group 0. Untextured elements get a 1x1 white texture so the tint shows through.
func (s *scene) initOverlayElement(e overlay.Element) error {
	p := s.r.Pipeline(renderer.PipelineKeyOverlay)
	if p == nil {
		return fmt.Errorf("renderer has no %q pipeline", renderer.PipelineKeyOverlay)
	}
	frag := p.Shader(shader.ShaderTypeFragment)
	group, texBinding, ok := frag.ProviderBinding(shader.AnnotationArgOverlay, shader.AnnotationArgTexture)
	if !ok {
		return fmt.Errorf("pipeline %s declares no overlay texture", p.PipelineKey())
	}
	_, samplerBinding, ok := frag.ProviderBinding(shader.AnnotationArgOverlay, shader.AnnotationArgSampler)
	if !ok {
		return fmt.Errorf("pipeline %s declares no overlay sampler", p.PipelineKey())
	}

	img := common.TextureStagingData{Pixels: []byte{255, 255, 255, 255}, Width: 1, Height: 1}
	if staged := e.Image(); staged != nil {
		img = *staged
	}

	provider := bind_group_provider.NewBindGroupProvider("overlay_" + e.ID())
	if err := s.r.InitTextureView(provider, texBinding, img); err != nil {
		return err
	}
	if err := s.r.InitSampler(provider, samplerBinding, common.SamplerStagingData{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	}); err != nil {
		return err
	}
	if err := s.r.InitBindGroup(provider, p.BindGroupLayoutDescriptor(group), nil, nil); err != nil {
		return err
	}
	e.SetBindGroupProvider(provider)
	return nil
}

func (s *scene) pbrPipeline() (pipeline.Pipeline, error) {
	p := s.r.Pipeline(renderer.PipelineKeyPBR)
	if p == nil {
		return nil, fmt.Errorf("scene: renderer has no %q pipeline", renderer.PipelineKeyPBR)
	}
	return p, nil
}

// structGroup finds the group holding an //@oxy:group binding of the given struct in either stage.
func structGroup(p pipeline.Pipeline, structName shader.AnnotationArg) (int, bool) {
	for _, stage := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
		sh := p.Shader(stage)
		if sh == nil {
			continue
		}
		for _, d := range sh.Declarations() {
			if d.Type == shader.AnnotationTypeBindingGroup && len(d.Args) == 3 && d.Args[2] == structName && d.Group != nil {
				return *d.Group, true
			}
		}
	}
	return 0, false
}
