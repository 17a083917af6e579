package renderer

import (
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/postfx"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPipeline pre-caches a Pipeline under the given key. Pre-cached pipelines are not registered with
// the backend; pass them to RegisterPipelines instead when they still need GPU objects.
//
// Parameters:
//   - key: the unique identifier for the pipeline
//   - p: the Pipeline to cache
//
// Returns:
//   - RendererBuilderOption: a function that applies the pipeline option to a renderer
func WithPipeline(key string, p pipeline.Pipeline) RendererBuilderOption {
	return func(r *renderer) {
		r.pipelineCache[key] = p
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithMSAA sets the sample count of the scene target. Defaults to MSAA4x.
//
// Parameters:
//   - count: MSAAOff or MSAA4x
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingMSAA = &count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU fallback adapter. This requires a software
// Vulkan ICD such as lavapipe or SwiftShader.
//
// Parameters:
//   - force: true to force the software fallback adapter
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithMaxPixelRatio caps the pixel ratio used to size the scene target. Non-positive values are ignored.
//
// Parameters:
//   - ratio: the cap
//
// Returns:
//   - RendererBuilderOption: a function that sets the cap
func WithMaxPixelRatio(ratio float32) RendererBuilderOption {
	return func(r *renderer) {
		if ratio > 0 {
			r.maxPixelRatio = ratio
		}
	}
}

// WithPostProcess sets the initial composite parameters.
//
// Parameters:
//   - params: RGB shift and exposure
//
// Returns:
//   - RendererBuilderOption: a function that sets the parameters
func WithPostProcess(params postfx.Params) RendererBuilderOption {
	return func(r *renderer) {
		r.post = params
	}
}
