package shader

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-reveal/engine/camera"
	"github.com/Carmen-Shannon/oxy-reveal/engine/model"
	"github.com/Carmen-Shannon/oxy-reveal/engine/overlay"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/postfx"
)

//go:embed assets/color.wgsl
var colorSnippetSource string

// registryEntry pairs a WGSL snippet with the struct type name it declares, if any.
type registryEntry struct {
	Source string
	Type   string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	registry             map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string
	declarations         []Annotation
}

// PreProcessor expands @oxy: annotations into plain WGSL. Struct definitions come from the Go packages
// that own the matching GPU types so the two never drift apart.
type PreProcessor interface {
	// Process expands every annotation in source.
	//
	// Parameters:
	//   - source: WGSL with @oxy: annotations
	//
	// Returns:
	//   - string: plain WGSL
	//   - error: error if an annotation is malformed or unknown
	Process(source string) (string, error)

	// Declarations returns the group and provider annotations found by the last Process call.
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with every built-in snippet registered.
//
// Returns:
//   - PreProcessor: the new pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		registry: map[AnnotationArg]registryEntry{
			AnnotationArgCamera:            {Source: camera.GPUCameraUniformSource, Type: "CameraUniform"},
			annotationArgVertex:            {Source: model.GPUVertexSource, Type: "VertexInput"},
			AnnotationArgModel:             {Source: model.GPUModelUniformSource, Type: "ModelUniform"},
			AnnotationArgMaterialParams:    {Source: material.GPUMaterialParamsSource, Type: "MaterialParams"},
			AnnotationArgEnvironmentParams: {Source: material.GPUEnvironmentParamsSource, Type: "EnvironmentParams"},
			AnnotationArgPostParams:        {Source: postfx.GPUPostParamsSource, Type: "PostParams"},
			AnnotationArgOverlayParams:     {Source: overlay.GPUOverlayParamsSource, Type: "OverlayParams"},
			annotationArgColor:             {Source: colorSnippetSource},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform: "var<uniform>",
			annotationArgStorageTypeRead:    "var<storage, read>",
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	included := make(map[AnnotationArg]bool)

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			if included[a.Args[0]] {
				continue
			}
			included[a.Args[0]] = true
			out = append(out, p.registry[a.Args[0]].Source)
		case AnnotationTypeBindingGroup:
			entry := p.registry[a.Args[2]]
			if entry.Type == "" {
				return "", fmt.Errorf("line %d: snippet %q declares no struct", a.Line, a.Args[2])
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;",
				*a.Group, *a.Binding, p.addressSpaceRegistry[a.Args[0]], a.Args[1], entry.Type))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeProvider:
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
