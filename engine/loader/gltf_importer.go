package loader

import (
	"fmt"
	"path"
	"strings"

	"github.com/Carmen-Shannon/oxy-reveal/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	resolve uriResolver
}

// gltfImporter combines the parser and extractors to produce a complete ImportedModel.
type gltfImporter interface {
	// Import parses glTF JSON or GLB bytes and extracts the meshes of the default scene with node
	// transforms applied, along with every material.
	//
	// Parameters:
	//   - data: the glTF JSON or GLB bytes
	//   - source: the file path or URL the bytes came from, used for naming
	//
	// Returns:
	//   - *model.ImportedModel: the imported model
	//   - error: error if parsing or extraction fails
	Import(data []byte, source string) (*model.ImportedModel, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates an importer that loads external buffers and images through resolve.
//
// Parameters:
//   - resolve: resolver for URIs relative to the document
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter(resolve uriResolver) gltfImporter {
	return &gltfImporterImpl{resolve: resolve}
}

func (imp *gltfImporterImpl) Import(data []byte, source string) (*model.ImportedModel, error) {
	parser := newGLTFParser(imp.resolve)
	if err := parser.Parse(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	doc := parser.Document()

	meshExtractor := newGLTFMeshExtractor(parser)
	var meshes []model.ImportedMesh
	err := gltfWalkScene(doc, func(meshIndex int, world mgl32.Mat4) error {
		extracted, err := meshExtractor.ExtractMesh(meshIndex, world)
		if err != nil {
			return err
		}
		meshes = append(meshes, extracted...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mesh extraction failed: %w", err)
	}
	if len(meshes) == 0 {
		return nil, fmt.Errorf("%s contains no meshes", source)
	}

	materials, err := newGLTFMaterialExtractor(parser).ExtractAllMaterials()
	if err != nil {
		return nil, fmt.Errorf("material extraction failed: %w", err)
	}
	for _, m := range meshes {
		if m.MaterialIndex >= len(materials) {
			return nil, fmt.Errorf("mesh %s references missing material %d", m.Name, m.MaterialIndex)
		}
	}

	return &model.ImportedModel{
		Name:      gltfExtractModelName(doc, source),
		Meshes:    meshes,
		Materials: materials,
	}, nil
}

// gltfWalkScene visits every mesh instance of the default scene depth-first with its world matrix.
// Documents without scenes fall back to treating every mesh as untransformed.
func gltfWalkScene(doc *gltfDocument, visit func(meshIndex int, world mgl32.Mat4) error) error {
	var roots []int
	switch {
	case doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	default:
		for i := range doc.Meshes {
			if err := visit(i, mgl32.Ident4()); err != nil {
				return err
			}
		}
		return nil
	}

	visited := make(map[int]bool, len(doc.Nodes))
	var walk func(nodeIndex int, parent mgl32.Mat4) error
	walk = func(nodeIndex int, parent mgl32.Mat4) error {
		if nodeIndex < 0 || nodeIndex >= len(doc.Nodes) {
			return fmt.Errorf("node index %d out of range", nodeIndex)
		}
		if visited[nodeIndex] {
			return fmt.Errorf("node %d appears twice in the scene graph", nodeIndex)
		}
		visited[nodeIndex] = true

		node := &doc.Nodes[nodeIndex]
		world := parent.Mul4(gltfNodeLocalMatrix(node))
		if node.Mesh != nil {
			if err := visit(*node.Mesh, world); err != nil {
				return fmt.Errorf("node %d: %w", nodeIndex, err)
			}
		}
		for _, child := range node.Children {
			if err := walk(child, world); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range roots {
		if err := walk(root, mgl32.Ident4()); err != nil {
			return err
		}
	}
	return nil
}

// gltfNodeLocalMatrix returns the node's matrix, or T * R * S composed from its TRS properties.
func gltfNodeLocalMatrix(node *gltfNode) mgl32.Mat4 {
	if node.Matrix != nil {
		return mgl32.Mat4(*node.Matrix)
	}

	m := mgl32.Ident4()
	if t := node.Translation; t != nil {
		m = mgl32.Translate3D(t[0], t[1], t[2])
	}
	if r := node.Rotation; r != nil {
		q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
		m = m.Mul4(q.Normalize().Mat4())
	}
	if s := node.Scale; s != nil {
		m = m.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}
	return m
}

// gltfExtractModelName prefers the default scene's name, then the source's base name without extension.
func gltfExtractModelName(doc *gltfDocument, source string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}
	if source != "" {
		base := path.Base(strings.ReplaceAll(source, "\\", "/"))
		return strings.TrimSuffix(base, path.Ext(base))
	}
	return "unnamed_model"
}
