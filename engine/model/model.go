// Package model holds loaded 3D models: their meshes, materials and a world transform that may be
// animated from other goroutines.
package model

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-reveal/common"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// model is the implementation of the Model interface.
type model struct {
	mu sync.Mutex

	name              string
	meshes            []*Mesh
	importedMaterials []common.ImportedMaterial
	boundingRadius    float32

	position mgl32.Vec3
	rotation mgl32.Vec3
	scale    mgl32.Vec3

	uniformProvider bind_group_provider.BindGroupProvider
}

// Model defines the interface for a loaded 3D model.
// A Model is a GPU-ready container of meshes plus a world transform. The transform accessors are safe
// for concurrent use so input handlers and the tween player can write while the renderer reads.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Meshes retrieves the drawable primitives.
	//
	// Returns:
	//   - []*Mesh: the meshes
	Meshes() []*Mesh

	// ImportedMaterials retrieves the raw material properties imported from the model file.
	//
	// Returns:
	//   - []common.ImportedMaterial: the imported materials
	ImportedMaterials() []common.ImportedMaterial

	// BoundingRadius returns the maximum vertex distance from the model origin, before scale.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// Position returns the world-space translation.
	Position() mgl32.Vec3

	// SetPosition sets the world-space translation.
	//
	// Parameters:
	//   - p: the translation
	SetPosition(p mgl32.Vec3)

	// Rotation returns the Euler rotation in radians (X, Y, Z order).
	Rotation() mgl32.Vec3

	// SetRotation sets the Euler rotation in radians.
	//
	// Parameters:
	//   - r: the rotation
	SetRotation(r mgl32.Vec3)

	// RotationX returns the rotation around X in radians.
	RotationX() float32

	// SetRotationX sets the rotation around X in radians, leaving Y and Z untouched.
	//
	// Parameters:
	//   - x: the angle
	SetRotationX(x float32)

	// RotationY returns the rotation around Y in radians.
	RotationY() float32

	// SetRotationY sets the rotation around Y in radians, leaving X and Z untouched.
	//
	// Parameters:
	//   - y: the angle
	SetRotationY(y float32)

	// Scale returns the per-axis scale.
	Scale() mgl32.Vec3

	// SetScale sets the per-axis scale.
	//
	// Parameters:
	//   - s: the scale
	SetScale(s mgl32.Vec3)

	// ModelMatrix composes translation, rotation and scale.
	//
	// Returns:
	//   - mgl32.Mat4: the model-to-world matrix
	ModelMatrix() mgl32.Mat4

	// Uniform packs the model and normal matrices for upload.
	//
	// Returns:
	//   - GPUModelUniform: the uniform contents
	Uniform() GPUModelUniform

	// UniformProvider returns the bind group provider for the model uniform, or nil before GPU init.
	UniformProvider() bind_group_provider.BindGroupProvider

	// SetUniformProvider stores the bind group provider for the model uniform.
	//
	// Parameters:
	//   - provider: the provider
	SetUniformProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Model = &model{}

// NewModel creates a new Model with an identity transform and the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{
		scale: mgl32.Vec3{1, 1, 1},
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Meshes() []*Mesh {
	return m.meshes
}

func (m *model) ImportedMaterials() []common.ImportedMaterial {
	return m.importedMaterials
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) Position() mgl32.Vec3 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *model) SetPosition(p mgl32.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = p
}

func (m *model) Rotation() mgl32.Vec3 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rotation
}

func (m *model) SetRotation(r mgl32.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotation = r
}

func (m *model) RotationX() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rotation[0]
}

func (m *model) SetRotationX(x float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotation[0] = x
}

func (m *model) RotationY() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rotation[1]
}

func (m *model) SetRotationY(y float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotation[1] = y
}

func (m *model) Scale() mgl32.Vec3 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scale
}

func (m *model) SetScale(s mgl32.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scale = s
}

func (m *model) ModelMatrix() mgl32.Mat4 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return common.EulerModelMatrix(m.position, m.rotation, m.scale)
}

func (m *model) Uniform() GPUModelUniform {
	mat := m.ModelMatrix()
	return GPUModelUniform{
		Model:  mat,
		Normal: common.NormalMatrix(mat),
	}
}

func (m *model) UniformProvider() bind_group_provider.BindGroupProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uniformProvider
}

func (m *model) SetUniformProvider(provider bind_group_provider.BindGroupProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uniformProvider = provider
}
