package shader

import (
	"embed"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader is compiled for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment stage.
	ShaderTypeFragment
)

// String returns the lower-case stage name.
func (t ShaderType) String() string {
	if t == ShaderTypeFragment {
		return "fragment"
	}
	return "vertex"
}

// Built-in shader sources.
const (
	// BuiltinPBR draws glTF metallic-roughness meshes lit by an equirectangular environment map.
	BuiltinPBR = "pbr"

	// BuiltinComposite applies the RGB shift and tone mapping to the HDR scene target.
	BuiltinComposite = "composite"

	// BuiltinOverlay draws a single textured, tinted quad of the overlay layer.
	BuiltinOverlay = "overlay"
)

//go:embed assets/pbr.wgsl assets/composite.wgsl assets/overlay.wgsl
var builtinSources embed.FS

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              map[int][]wgpu.VertexBufferLayout
	entryPoint                 string
	module                     *wgpu.ShaderModuleDescriptor
	declarations               []Annotation
}

// Shader is a pre-processed WGSL stage together with everything reflected from it that pipeline
// creation and resource binding need.
type Shader interface {
	// Key returns the shader's unique key.
	Key() string

	// Source returns the pre-processed WGSL source.
	Source() string

	// BindGroupLayoutDescriptor returns the reflected layout of one bind group, or an empty descriptor.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors returns every reflected bind group layout keyed by group index.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName returns the WGSL variable bound at a group and binding, or "".
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName finds the binding index of a variable within a group.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the WGSL variable name
	//
	// Returns:
	//   - int: the binding index, or -1
	//   - bool: whether the variable was found
	BindGroupFromVarName(group int, varName string) (int, bool)

	// VertexLayout returns the vertex buffer layout reflected from the n-th vertex input struct.
	VertexLayout(key int) []wgpu.VertexBufferLayout

	// VertexLayouts returns every reflected vertex buffer layout.
	VertexLayouts() map[int][]wgpu.VertexBufferLayout

	// EntryPoint returns the name of the stage's entry function.
	EntryPoint() string

	// Module returns the descriptor used to create the GPU shader module.
	Module() *wgpu.ShaderModuleDescriptor

	// ShaderType returns the stage.
	ShaderType() ShaderType

	// Declarations returns the group and provider annotations found in the source.
	Declarations() []Annotation

	// ProviderBinding finds the group and binding tagged with a provider identity and role.
	//
	// Parameters:
	//   - identity: the provider identity, e.g. AnnotationArgMaterial
	//   - role: the binding role, e.g. AnnotationArgBaseColorTexture
	//
	// Returns:
	//   - int: the group index
	//   - int: the binding index
	//   - bool: whether a matching annotation exists
	ProviderBinding(identity, role AnnotationArg) (int, int, bool)
}

var _ Shader = &shader{}

// NewShader pre-processes WGSL source and reflects its entry point, bind groups and vertex layouts.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and labels
//   - shaderType: the stage this shader is used for
//   - source: WGSL source, optionally with @oxy: annotations
//
// Returns:
//   - Shader: the parsed shader
//   - error: error if pre-processing fails or no entry point exists for the stage
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	pp := NewPreProcessor()
	processed, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}

	s := &shader{
		key:          key,
		source:       processed,
		shaderType:   shaderType,
		entryPoint:   parseEntryPoint(processed, shaderType),
		declarations: append([]Annotation(nil), pp.Declarations()...),
	}
	if s.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: no @%s entry point", key, shaderType)
	}

	visibility := wgpu.ShaderStageVertex
	if shaderType == ShaderTypeFragment {
		visibility = wgpu.ShaderStageFragment
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(processed, visibility)
	s.vertexLayouts = parseVertexLayouts(processed)
	s.module = &wgpu.ShaderModuleDescriptor{
		Label:          key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: processed},
	}
	return s, nil
}

// NewBuiltinShader loads one stage of a shader shipped with the engine.
//
// Parameters:
//   - name: one of BuiltinPBR, BuiltinComposite or BuiltinOverlay
//   - shaderType: the stage to build
//
// Returns:
//   - Shader: the parsed shader, keyed "<name>_<stage>"
//   - error: error if the name is unknown or the source fails to parse
func NewBuiltinShader(name string, shaderType ShaderType) (Shader, error) {
	src, err := builtinSources.ReadFile("assets/" + name + ".wgsl")
	if err != nil {
		return nil, fmt.Errorf("unknown builtin shader %q: %w", name, err)
	}
	return NewShader(name+"_"+shaderType.String(), shaderType, string(src))
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	for binding, name := range s.bindingVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) VertexLayout(key int) []wgpu.VertexBufferLayout {
	return s.vertexLayouts[key]
}

func (s *shader) VertexLayouts() map[int][]wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}

func (s *shader) ProviderBinding(identity, role AnnotationArg) (int, int, bool) {
	for _, d := range s.declarations {
		if d.Type != AnnotationTypeProvider || len(d.Args) < 2 {
			continue
		}
		if d.Args[0] == identity && d.Args[1] == role {
			return *d.Group, *d.Binding, true
		}
	}
	return -1, -1, false
}
