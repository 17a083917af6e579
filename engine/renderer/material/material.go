// Package material holds metallic-roughness PBR materials and the GPU resources they bind.
package material

import (
	"github.com/Carmen-Shannon/oxy-reveal/common"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/bind_group_provider"
)

// TextureSlot identifies one of the textures a material can bind.
type TextureSlot int

const (
	SlotBaseColor TextureSlot = iota
	SlotNormal
	SlotMetallicRoughness
	SlotEmissive
	SlotOcclusion
)

// TextureSlots lists every slot in binding order.
var TextureSlots = []TextureSlot{SlotBaseColor, SlotNormal, SlotMetallicRoughness, SlotEmissive, SlotOcclusion}

// String returns the glTF-style name of the slot.
func (s TextureSlot) String() string {
	switch s {
	case SlotBaseColor:
		return "baseColor"
	case SlotNormal:
		return "normal"
	case SlotMetallicRoughness:
		return "metallicRoughness"
	case SlotEmissive:
		return "emissive"
	case SlotOcclusion:
		return "occlusion"
	default:
		return "unknown"
	}
}

// SRGB reports whether the slot holds color data that must be sampled through an sRGB view.
func (s TextureSlot) SRGB() bool {
	return s == SlotBaseColor || s == SlotEmissive
}

// material is the implementation of the Material interface.
type material struct {
	name              string
	baseColor         [4]float32
	emissive          [3]float32
	metallic          float32
	roughness         float32
	normalScale       float32
	occlusionStrength float32
	textures          map[TextureSlot]*common.ImportedTexture
	pipelineKey       string
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Material defines the interface for a PBR render material, encapsulating surface
// factors, texture references, and GPU resource bindings needed for draw calls.
//
// Surface properties are set at load time and are read-only through this interface. GPU resource
// references are mutable so they can be configured during the Loader GPU-init phase.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the linear RGBA base color factor.
	//
	// Returns:
	//   - [4]float32: the base color
	BaseColor() [4]float32

	// Emissive retrieves the linear RGB emissive factor.
	//
	// Returns:
	//   - [3]float32: the emissive color
	Emissive() [3]float32

	// Metallic retrieves the metallic factor (0 dielectric, 1 metal).
	Metallic() float32

	// Roughness retrieves the roughness factor (0 smooth, 1 rough).
	Roughness() float32

	// Texture retrieves the texture bound to a slot, or nil.
	//
	// Parameters:
	//   - slot: the texture slot
	//
	// Returns:
	//   - *common.ImportedTexture: the texture, or nil
	Texture(slot TextureSlot) *common.ImportedTexture

	// Params packs the scalar factors for upload.
	//
	// Returns:
	//   - GPUMaterialParams: the uniform contents
	Params() GPUMaterialParams

	// PipelineKey retrieves the key identifying the render pipeline this material uses.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// BindGroupProvider retrieves the bind group provider holding GPU-side resources for this material.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group provider, or nil if not yet initialized
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetPipelineKey sets the render pipeline key for this material.
	//
	// Parameters:
	//   - key: the pipeline key to associate with this material
	SetPipelineKey(key string)

	// SetBindGroupProvider sets the bind group provider for this material.
	//
	// Parameters:
	//   - provider: the bind group provider containing GPU resources for this material
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Material = &material{}

// NewMaterial creates a new white, fully rough, dielectric Material configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor:         [4]float32{1, 1, 1, 1},
		metallic:          0.0,
		roughness:         1.0,
		normalScale:       1.0,
		occlusionStrength: 1.0,
		textures:          make(map[TextureSlot]*common.ImportedTexture),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// FromImported builds a Material from loader output.
//
// Parameters:
//   - imp: the imported material
//   - options: extra options applied after the imported values
//
// Returns:
//   - Material: the material
func FromImported(imp common.ImportedMaterial, options ...MaterialBuilderOption) Material {
	base := []MaterialBuilderOption{
		WithName(imp.Name),
		WithBaseColor(imp.BaseColor),
		WithEmissive(imp.Emissive),
		WithMetallic(imp.Metallic),
		WithRoughness(imp.Roughness),
		WithNormalScale(imp.NormalScale),
		WithOcclusionStrength(imp.OcclusionStrength),
		WithTexture(SlotBaseColor, imp.BaseColorTexture),
		WithTexture(SlotNormal, imp.NormalTexture),
		WithTexture(SlotMetallicRoughness, imp.MetallicRoughnessTexture),
		WithTexture(SlotEmissive, imp.EmissiveTexture),
		WithTexture(SlotOcclusion, imp.OcclusionTexture),
	}
	return NewMaterial(append(base, options...)...)
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Emissive() [3]float32 {
	return m.emissive
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) Texture(slot TextureSlot) *common.ImportedTexture {
	return m.textures[slot]
}

func (m *material) Params() GPUMaterialParams {
	return GPUMaterialParams{
		BaseColor:         m.baseColor,
		Emissive:          [4]float32{m.emissive[0], m.emissive[1], m.emissive[2], 0},
		Metallic:          m.metallic,
		Roughness:         m.roughness,
		NormalScale:       m.normalScale,
		OcclusionStrength: m.occlusionStrength,
	}
}

func (m *material) PipelineKey() string {
	return m.pipelineKey
}

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.bindGroupProvider
}

func (m *material) SetPipelineKey(key string) {
	m.pipelineKey = key
}

func (m *material) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	m.bindGroupProvider = provider
}
