package loader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-reveal/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// gltfMaterialExtractorImpl is the implementation of the gltfMaterialExtractor interface.
type gltfMaterialExtractorImpl struct {
	parser gltfParser

	// textures caches resolved textures by glTF texture index so shared images are decoded once.
	textures map[int]*common.ImportedTexture
}

// gltfMaterialExtractor converts glTF materials into ImportedMaterial values with their image bytes resolved.
type gltfMaterialExtractor interface {
	// ExtractMaterial extracts a single material by index, including the bytes of every referenced image.
	//
	// Parameters:
	//   - materialIndex: the index of the material in the document
	//
	// Returns:
	//   - common.ImportedMaterial: the extracted material
	//   - error: error if extraction fails
	ExtractMaterial(materialIndex int) (common.ImportedMaterial, error)

	// ExtractAllMaterials extracts all materials from the document.
	//
	// Returns:
	//   - []common.ImportedMaterial: all extracted materials
	//   - error: error if extraction fails
	ExtractAllMaterials() ([]common.ImportedMaterial, error)
}

var _ gltfMaterialExtractor = &gltfMaterialExtractorImpl{}

func newGLTFMaterialExtractor(parser gltfParser) gltfMaterialExtractor {
	return &gltfMaterialExtractorImpl{
		parser:   parser,
		textures: make(map[int]*common.ImportedTexture),
	}
}

// defaultImportedMaterial returns the glTF defaults: white, fully metallic, fully rough.
func defaultImportedMaterial(name string) common.ImportedMaterial {
	return common.ImportedMaterial{
		Name:              name,
		BaseColor:         [4]float32{1, 1, 1, 1},
		Metallic:          1,
		Roughness:         1,
		NormalScale:       1,
		OcclusionStrength: 1,
	}
}

func (e *gltfMaterialExtractorImpl) ExtractMaterial(materialIndex int) (common.ImportedMaterial, error) {
	doc := e.parser.Document()
	if doc == nil {
		return common.ImportedMaterial{}, fmt.Errorf("no document loaded")
	}
	if materialIndex < 0 || materialIndex >= len(doc.Materials) {
		return common.ImportedMaterial{}, fmt.Errorf("material index %d out of range", materialIndex)
	}

	mat := &doc.Materials[materialIndex]
	result := defaultImportedMaterial(mat.Name)

	var err error
	if pbr := mat.PbrMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			result.BaseColor = *pbr.BaseColorFactor
		}
		if pbr.MetallicFactor != nil {
			result.Metallic = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			result.Roughness = *pbr.RoughnessFactor
		}
		if result.BaseColorTexture, err = e.textureFromInfo(pbr.BaseColorTexture, "baseColor"); err != nil {
			return result, fmt.Errorf("material %q: %w", mat.Name, err)
		}
		if result.MetallicRoughnessTexture, err = e.textureFromInfo(pbr.MetallicRoughnessTexture, "metallicRoughness"); err != nil {
			return result, fmt.Errorf("material %q: %w", mat.Name, err)
		}
	}

	if mat.NormalTexture != nil {
		if mat.NormalTexture.Scale != nil {
			result.NormalScale = *mat.NormalTexture.Scale
		}
		if result.NormalTexture, err = e.textureFromInfo(&mat.NormalTexture.gltfTextureInfo, "normal"); err != nil {
			return result, fmt.Errorf("material %q: %w", mat.Name, err)
		}
	}
	if mat.OcclusionTexture != nil {
		if mat.OcclusionTexture.Strength != nil {
			result.OcclusionStrength = *mat.OcclusionTexture.Strength
		}
		if result.OcclusionTexture, err = e.textureFromInfo(&mat.OcclusionTexture.gltfTextureInfo, "occlusion"); err != nil {
			return result, fmt.Errorf("material %q: %w", mat.Name, err)
		}
	}
	if mat.EmissiveFactor != nil {
		result.Emissive = *mat.EmissiveFactor
	}
	if result.EmissiveTexture, err = e.textureFromInfo(mat.EmissiveTexture, "emissive"); err != nil {
		return result, fmt.Errorf("material %q: %w", mat.Name, err)
	}

	return result, nil
}

func (e *gltfMaterialExtractorImpl) ExtractAllMaterials() ([]common.ImportedMaterial, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	materials := make([]common.ImportedMaterial, len(doc.Materials))
	for i := range doc.Materials {
		mat, err := e.ExtractMaterial(i)
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		materials[i] = mat
	}
	return materials, nil
}

func (e *gltfMaterialExtractorImpl) textureFromInfo(info *gltfTextureInfo, role string) (*common.ImportedTexture, error) {
	if info == nil {
		return nil, nil
	}
	if info.TexCoord != 0 {
		return nil, fmt.Errorf("%s texture uses TEXCOORD_%d, only TEXCOORD_0 is supported", role, info.TexCoord)
	}
	tex, err := e.loadTexture(info.Index)
	if err != nil {
		return nil, fmt.Errorf("%s texture: %w", role, err)
	}
	return tex, nil
}

// loadTexture resolves a glTF texture index into an ImportedTexture holding the encoded image bytes.
// Images come from a buffer view (GLB), a data URI, or an external URI resolved by the parser.
func (e *gltfMaterialExtractorImpl) loadTexture(textureIndex int) (*common.ImportedTexture, error) {
	if cached, ok := e.textures[textureIndex]; ok {
		return cached, nil
	}

	doc := e.parser.Document()
	if textureIndex < 0 || textureIndex >= len(doc.Textures) {
		return nil, fmt.Errorf("texture index %d out of range", textureIndex)
	}
	tex := &doc.Textures[textureIndex]
	if tex.Source == nil {
		return nil, nil
	}

	var samplerData *common.SamplerStagingData
	if tex.Sampler != nil && *tex.Sampler >= 0 && *tex.Sampler < len(doc.Samplers) {
		samplerData = gltfSamplerToStagingData(&doc.Samplers[*tex.Sampler])
	}

	imageIndex := *tex.Source
	if imageIndex < 0 || imageIndex >= len(doc.Images) {
		return nil, fmt.Errorf("image index %d out of range", imageIndex)
	}
	img := &doc.Images[imageIndex]

	result := &common.ImportedTexture{
		Name:        img.Name,
		MimeType:    img.MimeType,
		SamplerData: samplerData,
	}
	if result.Name == "" {
		result.Name = fmt.Sprintf("image_%d", imageIndex)
	}

	switch {
	case img.BufferView != nil:
		data, err := e.parser.BufferViewData(*img.BufferView)
		if err != nil {
			return nil, fmt.Errorf("failed to read image buffer view: %w", err)
		}
		result.Data = data
	case img.URI != "":
		data, err := e.parser.Resolve(img.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to load image %q: %w", abbreviateURI(img.URI), err)
		}
		result.Data = data
		if !strings.HasPrefix(img.URI, "data:") {
			result.Path = img.URI
		}
	default:
		return nil, fmt.Errorf("image %d has neither bufferView nor uri", imageIndex)
	}

	e.textures[textureIndex] = result
	return result, nil
}

// abbreviateURI keeps data URIs out of error messages.
func abbreviateURI(uri string) string {
	if strings.HasPrefix(uri, "data:") {
		if i := strings.Index(uri, ","); i > 0 {
			return uri[:i] + ",..."
		}
	}
	return uri
}

// gltfSamplerToStagingData converts a glTF sampler definition into SamplerStagingData.
// Unset fields keep the glTF defaults of linear filtering and repeat wrapping.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-sampler
//
// Parameters:
//   - s: the glTF sampler to convert
//
// Returns:
//   - *common.SamplerStagingData: the converted sampler staging data
func gltfSamplerToStagingData(s *gltfSampler) *common.SamplerStagingData {
	result := &common.SamplerStagingData{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}

	if s.MagFilter != nil && *s.MagFilter == gltfFilterNearest {
		result.MagFilter = wgpu.FilterModeNearest
	}

	if s.MinFilter != nil {
		switch *s.MinFilter {
		case gltfFilterNearest, gltfFilterNearestMipmapNearest, gltfFilterNearestMipmapLinear:
			result.MinFilter = wgpu.FilterModeNearest
		}
		switch *s.MinFilter {
		case gltfFilterNearest, gltfFilterLinear, gltfFilterNearestMipmapNearest, gltfFilterLinearMipmapNearest:
			result.MipmapFilter = wgpu.MipmapFilterModeNearest
		}
	}

	if s.WrapS != nil {
		result.AddressModeU = gltfWrapToAddressMode(*s.WrapS)
	}
	if s.WrapT != nil {
		result.AddressModeV = gltfWrapToAddressMode(*s.WrapT)
	}
	return result
}

// gltfWrapToAddressMode converts a glTF wrap mode constant to a wgpu AddressMode.
func gltfWrapToAddressMode(wrap int) wgpu.AddressMode {
	switch wrap {
	case gltfWrapClampToEdge:
		return wgpu.AddressModeClampToEdge
	case gltfWrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}
