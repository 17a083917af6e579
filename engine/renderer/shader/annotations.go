package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix marks a comment line the pre-processor expands or records.
const annotationPrefix = "@oxy:"

// AnnotationType is the verb following the @oxy: prefix.
type AnnotationType string

const (
	// annotationTypeInclude pastes a registered WGSL snippet in place of the line.
	//   //@oxy:include <snippet>
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup declares a buffer binding backed by a registered struct.
	//   //@oxy:group <group> <binding> <address space> <var name> <struct>
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeProvider tags a binding with the role it plays for the CPU side, so texture and
	// sampler slots can be located without hard-coding binding numbers.
	//   //@oxy:provider <group> <binding> <identity> [role]
	AnnotationTypeProvider AnnotationType = "provider"
)

// Annotation is one parsed @oxy: line.
type Annotation struct {
	Type    AnnotationType
	Args    []AnnotationArg
	Line    int
	Group   *int
	Binding *int
}

// AnnotationArg is a single argument of an annotation.
type AnnotationArg string

// Snippets and structs known to the pre-processor.
const (
	AnnotationArgCamera            AnnotationArg = "camera"
	annotationArgVertex            AnnotationArg = "vertex"
	AnnotationArgModel             AnnotationArg = "model"
	AnnotationArgMaterialParams    AnnotationArg = "material_params"
	AnnotationArgEnvironmentParams AnnotationArg = "environment_params"
	AnnotationArgPostParams        AnnotationArg = "post_params"
	AnnotationArgOverlayParams     AnnotationArg = "overlay_params"
	annotationArgColor             AnnotationArg = "color"
)

// Address spaces accepted by the group annotation.
const (
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"
	annotationArgStorageTypeRead    AnnotationArg = "storage_read"
)

// Provider identities.
const (
	AnnotationArgMaterial    AnnotationArg = "material"
	AnnotationArgEnvironment AnnotationArg = "environment"
	AnnotationArgPost        AnnotationArg = "post"
	AnnotationArgOverlay     AnnotationArg = "overlay"
)

// Binding roles.
const (
	AnnotationArgBaseColorTexture         AnnotationArg = "base_color_texture"
	AnnotationArgNormalTexture            AnnotationArg = "normal_texture"
	AnnotationArgMetallicRoughnessTexture AnnotationArg = "metallic_roughness_texture"
	AnnotationArgEmissiveTexture          AnnotationArg = "emissive_texture"
	AnnotationArgOcclusionTexture         AnnotationArg = "occlusion_texture"
	AnnotationArgTexture                  AnnotationArg = "texture"
	AnnotationArgSampler                  AnnotationArg = "sampler"
)

var validSnippets = []AnnotationArg{
	AnnotationArgCamera,
	annotationArgVertex,
	AnnotationArgModel,
	AnnotationArgMaterialParams,
	AnnotationArgEnvironmentParams,
	AnnotationArgPostParams,
	AnnotationArgOverlayParams,
	annotationArgColor,
}

var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
}

var validProviderIdentities = []AnnotationArg{
	AnnotationArgCamera,
	AnnotationArgModel,
	AnnotationArgMaterial,
	AnnotationArgEnvironment,
	AnnotationArgPost,
	AnnotationArgOverlay,
}

var validBindingRoles = []AnnotationArg{
	AnnotationArgBaseColorTexture,
	AnnotationArgNormalTexture,
	AnnotationArgMetallicRoughnessTexture,
	AnnotationArgEmissiveTexture,
	AnnotationArgOcclusionTexture,
	AnnotationArgTexture,
	AnnotationArgSampler,
}

// parseAnnotation parses a single source line. Lines without the prefix return nil, nil.
//
// Parameters:
//   - line: the raw source line
//   - lineNum: 1-based line number used in errors
//
// Returns:
//   - *Annotation: the parsed annotation, or nil
//   - error: error if the line carries a malformed annotation
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	_, after, ok := strings.Cut(strings.TrimSpace(line), annotationPrefix)
	if !ok {
		return nil, nil
	}
	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include takes exactly one argument", lineNum)
		}
		if !slices.Contains(validSnippets, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown snippet %q in @oxy include", lineNum, args[1])
		}
		return &Annotation{Type: annotationTypeInclude, Args: []AnnotationArg{AnnotationArg(args[1])}, Line: lineNum}, nil

	case AnnotationTypeBindingGroup:
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group takes group, binding, address space, name and struct", lineNum)
		}
		group, binding, err := parseSlot(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group", lineNum, args[3])
		}
		if !slices.Contains(validSnippets, AnnotationArg(args[5])) {
			return nil, fmt.Errorf("line %d: unknown struct %q in @oxy group", lineNum, args[5])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil

	case AnnotationTypeProvider:
		if len(args) < 4 || len(args) > 5 {
			return nil, fmt.Errorf("line %d: @oxy provider takes group, binding, identity and an optional role", lineNum)
		}
		group, binding, err := parseSlot(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validProviderIdentities, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown provider identity %q", lineNum, args[3])
		}
		providerArgs := []AnnotationArg{AnnotationArg(args[3])}
		if len(args) == 5 {
			if !slices.Contains(validBindingRoles, AnnotationArg(args[4])) {
				return nil, fmt.Errorf("line %d: unknown binding role %q", lineNum, args[4])
			}
			providerArgs = append(providerArgs, AnnotationArg(args[4]))
		}
		return &Annotation{
			Type:    AnnotationTypeProvider,
			Args:    providerArgs,
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil

	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}

func parseSlot(groupArg, bindingArg string, lineNum int) (int, int, error) {
	group, err := strconv.Atoi(groupArg)
	if err != nil || group < 0 {
		return 0, 0, fmt.Errorf("line %d: invalid group number %q", lineNum, groupArg)
	}
	binding, err := strconv.Atoi(bindingArg)
	if err != nil || binding < 0 {
		return 0, 0, fmt.Errorf("line %d: invalid binding number %q", lineNum, bindingArg)
	}
	return group, binding, nil
}
