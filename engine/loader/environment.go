package loader

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-reveal/common"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Environment is a loaded environment map and, when a renderer was available, the provider that
// binds it to the PBR pipeline.
type Environment struct {
	// Source is the path or URL the map was loaded from.
	Source string

	// Map is the decoded image.
	Map EnvironmentMap

	// Params is the uniform written for the map.
	Params material.GPUEnvironmentParams

	// Provider holds the texture, sampler and params buffer. Nil without a renderer.
	Provider bind_group_provider.BindGroupProvider
}

func (l *loader) LoadEnvironment(ctx context.Context, src string, progress ProgressFunc) (*Environment, error) {
	l.mu.RLock()
	closed := l.closed
	l.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	data, err := fetchWith(ctx, l.client, src, progress)
	if err != nil {
		return nil, err
	}
	if !isHDR(data) {
		return nil, fmt.Errorf("%s: %w", src, ErrNotHDR)
	}

	envMap, err := DecodeHDR(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", src, err)
	}
	staging, err := envMap.StageHalfFloat()
	if err != nil {
		return nil, fmt.Errorf("failed to stage %s: %w", src, err)
	}

	env := &Environment{
		Source: src,
		Map:    envMap,
		Params: material.NewEnvironmentParams(l.envIntensity*envMap.Exposure, uint32(len(staging.Mips)+1)),
	}
	if l.renderer == nil {
		return env, nil
	}

	provider, err := l.initEnvironmentGPU(env, staging)
	if err != nil {
		return nil, fmt.Errorf("failed to init environment %s: %w", src, err)
	}
	env.Provider = provider
	return env, nil
}

// initEnvironmentGPU uploads the staged map against the group the PBR fragment shader tags with
// @oxy:provider ... environment.
func (l *loader) initEnvironmentGPU(env *Environment, staging common.TextureStagingData) (bind_group_provider.BindGroupProvider, error) {
	pbr := l.renderer.Pipeline(renderer.PipelineKeyPBR)
	if pbr == nil {
		return nil, fmt.Errorf("renderer has no %q pipeline", renderer.PipelineKeyPBR)
	}
	frag := pbr.Shader(shader.ShaderTypeFragment)
	if frag == nil {
		return nil, fmt.Errorf("pipeline %s has no fragment shader", pbr.PipelineKey())
	}

	group, texBinding, ok := frag.ProviderBinding(shader.AnnotationArgEnvironment, shader.AnnotationArgTexture)
	if !ok {
		return nil, fmt.Errorf("pipeline %s declares no environment texture", pbr.PipelineKey())
	}
	_, samplerBinding, ok := frag.ProviderBinding(shader.AnnotationArgEnvironment, shader.AnnotationArgSampler)
	if !ok {
		return nil, fmt.Errorf("pipeline %s declares no environment sampler", pbr.PipelineKey())
	}

	provider := bind_group_provider.NewBindGroupProvider("environment")
	if err := l.renderer.InitTextureView(provider, texBinding, staging); err != nil {
		return nil, err
	}

	// Equirectangular maps wrap in longitude only.
	if err := l.renderer.InitSampler(provider, samplerBinding, common.SamplerStagingData{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   float32(len(staging.Mips)),
		MaxAnisotropy: 1,
	}); err != nil {
		return nil, err
	}

	descriptor := pbr.BindGroupLayoutDescriptor(group)
	if err := l.renderer.InitBindGroup(provider, descriptor, nil, nil); err != nil {
		return nil, err
	}
	for _, entry := range descriptor.Entries {
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			l.renderer.WriteBuffers([]bind_group_provider.BufferWrite{{
				Provider: provider,
				Binding:  int(entry.Binding),
				Data:     env.Params.Marshal(),
			}})
			break
		}
	}
	return provider, nil
}
