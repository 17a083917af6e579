package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-reveal/engine/model"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser gltfParser
}

// gltfMeshExtractor converts glTF mesh primitives into engine-ready ImportedMesh values.
type gltfMeshExtractor interface {
	// ExtractMesh extracts every primitive of one mesh with a node's world transform baked into the vertices.
	//
	// Parameters:
	//   - meshIndex: the index of the mesh to extract
	//   - world: the world matrix of the node instancing the mesh
	//
	// Returns:
	//   - []model.ImportedMesh: one ImportedMesh per primitive
	//   - error: error if extraction fails
	ExtractMesh(meshIndex int, world mgl32.Mat4) ([]model.ImportedMesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

func newGLTFMeshExtractor(parser gltfParser) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser}
}

func (e *gltfMeshExtractorImpl) ExtractMesh(meshIndex int, world mgl32.Mat4) ([]model.ImportedMesh, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIndex)
	}

	mesh := &doc.Meshes[meshIndex]
	result := make([]model.ImportedMesh, 0, len(mesh.Primitives))
	for primIdx := range mesh.Primitives {
		imported, err := e.extractPrimitive(&mesh.Primitives[primIdx], mesh.Name, meshIndex, primIdx)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIndex, primIdx, err)
		}
		bakeTransform(imported, world)
		result = append(result, *imported)
	}
	return result, nil
}

// extractPrimitive reads one primitive in its mesh's local space.
func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltfPrimitive, meshName string, meshIndex, primIndex int) (*model.ImportedMesh, error) {
	if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
		return nil, fmt.Errorf("unsupported primitive mode: %d (only triangles supported)", *prim.Mode)
	}

	posAccessor, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := e.parser.ReadFloats(posAccessor, gltfAccessorTypeVec3)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}

	vertexCount := len(positions) / 3
	vertices := make([]model.GPUVertex, vertexCount)
	for i := range vertices {
		copy(vertices[i].Position[:], positions[i*3:i*3+3])
	}

	hasNormals, err := e.readAttribute(prim, "NORMAL", gltfAccessorTypeVec3, vertexCount, func(i int, v []float32) {
		copy(vertices[i].Normal[:], v)
	})
	if err != nil {
		return nil, err
	}
	if _, err := e.readAttribute(prim, "TEXCOORD_0", gltfAccessorTypeVec2, vertexCount, func(i int, v []float32) {
		copy(vertices[i].TexCoord[:], v)
	}); err != nil {
		return nil, err
	}
	hasTangents, err := e.readAttribute(prim, "TANGENT", gltfAccessorTypeVec4, vertexCount, func(i int, v []float32) {
		copy(vertices[i].Tangent[:], v)
	})
	if err != nil {
		return nil, err
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = e.parser.ReadIndices(*prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("failed to read indices: %w", err)
		}
		for _, idx := range indices {
			if int(idx) >= vertexCount {
				return nil, fmt.Errorf("index %d out of range for %d vertices", idx, vertexCount)
			}
		}
	} else {
		indices = make([]uint32, vertexCount)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	// Normals first: tangent generation orthonormalizes against them.
	if !hasNormals && len(indices) >= 3 {
		generateNormals(vertices, indices)
	}
	if !hasTangents && len(indices) >= 3 {
		generateTangents(vertices, indices)
	}

	materialIndex := -1
	if prim.Material != nil {
		materialIndex = *prim.Material
	}

	name := meshName
	if name == "" {
		name = fmt.Sprintf("mesh_%d", meshIndex)
	}
	if primIndex > 0 {
		name = fmt.Sprintf("%s_prim%d", name, primIndex)
	}

	return &model.ImportedMesh{
		Name:          name,
		Vertices:      vertices,
		Indices:       indices,
		MaterialIndex: materialIndex,
	}, nil
}

// readAttribute reads an optional vertex attribute and hands each element to set.
// It reports whether the attribute was present.
func (e *gltfMeshExtractorImpl) readAttribute(prim *gltfPrimitive, semantic, accessorType string, vertexCount int, set func(i int, v []float32)) (bool, error) {
	accessor, ok := prim.Attributes[semantic]
	if !ok {
		return false, nil
	}
	values, err := e.parser.ReadFloats(accessor, accessorType)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", semantic, err)
	}

	n := gltfAccessorTypeComponentCount(accessorType)
	if len(values)/n != vertexCount {
		return false, fmt.Errorf("%s has %d elements, POSITION has %d", semantic, len(values)/n, vertexCount)
	}
	for i := range vertexCount {
		set(i, values[i*n:i*n+n])
	}
	return true, nil
}

// bakeTransform moves a primitive into world space and recomputes its bounding box.
// A mirroring transform flips the triangle winding so front faces stay counter-clockwise.
func bakeTransform(m *model.ImportedMesh, world mgl32.Mat4) {
	if world != mgl32.Ident4() {
		normalMat := world.Mat3().Inv().Transpose()
		linear := world.Mat3()

		for i := range m.Vertices {
			v := &m.Vertices[i]
			p := world.Mul4x1(mgl32.Vec3(v.Position).Vec4(1))
			v.Position = [3]float32{p[0], p[1], p[2]}

			if n := normalMat.Mul3x1(mgl32.Vec3(v.Normal)); n.Len() > 1e-6 {
				v.Normal = n.Normalize()
			}
			t := linear.Mul3x1(mgl32.Vec3{v.Tangent[0], v.Tangent[1], v.Tangent[2]})
			if t.Len() > 1e-6 {
				t = t.Normalize()
				v.Tangent = [4]float32{t[0], t[1], t[2], v.Tangent[3]}
			}
		}

		if linear.Det() < 0 {
			for i := 0; i+2 < len(m.Indices); i += 3 {
				m.Indices[i+1], m.Indices[i+2] = m.Indices[i+2], m.Indices[i+1]
			}
		}
	}

	m.BoundingMin, m.BoundingMax = boundingBox(m.Vertices)
}

// boundingBox computes the axis-aligned bounding box of the vertex positions.
func boundingBox(vertices []model.GPUVertex) ([3]float32, [3]float32) {
	if len(vertices) == 0 {
		return [3]float32{}, [3]float32{}
	}

	bmin := vertices[0].Position
	bmax := vertices[0].Position
	for _, v := range vertices[1:] {
		for j := range 3 {
			bmin[j] = min(bmin[j], v.Position[j])
			bmax[j] = max(bmax[j], v.Position[j])
		}
	}
	return bmin, bmax
}

// generateNormals accumulates area-weighted face normals onto each triangle's vertices and
// normalizes the result, giving smooth shading across shared vertices.
//
// Parameters:
//   - vertices: the vertex slice to write normal data into
//   - indices: the triangle index buffer (must be a multiple of 3)
func generateNormals(vertices []model.GPUVertex, indices []uint32) {
	accum := make([]mgl32.Vec3, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		p0 := mgl32.Vec3(vertices[i0].Position)
		edge1 := mgl32.Vec3(vertices[i1].Position).Sub(p0)
		edge2 := mgl32.Vec3(vertices[i2].Position).Sub(p0)

		// Length is proportional to the triangle's area.
		face := edge1.Cross(edge2)
		accum[i0] = accum[i0].Add(face)
		accum[i1] = accum[i1].Add(face)
		accum[i2] = accum[i2].Add(face)
	}

	for i, n := range accum {
		if n.Len() < 1e-6 {
			vertices[i].Normal = [3]float32{0, 1, 0}
			continue
		}
		vertices[i].Normal = n.Normalize()
	}
}

// generateTangents computes per-vertex tangents from per-triangle UV gradients, accumulates them
// per vertex and Gram-Schmidt orthonormalizes them against the vertex normal. W stores handedness.
//
// Parameters:
//   - vertices: the vertex slice to write tangent data into
//   - indices: the triangle index buffer (must be a multiple of 3)
func generateTangents(vertices []model.GPUVertex, indices []uint32) {
	tan := make([]mgl32.Vec3, len(vertices))
	btan := make([]mgl32.Vec3, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		p0 := mgl32.Vec3(vertices[i0].Position)
		edge1 := mgl32.Vec3(vertices[i1].Position).Sub(p0)
		edge2 := mgl32.Vec3(vertices[i2].Position).Sub(p0)

		uv0 := mgl32.Vec2(vertices[i0].TexCoord)
		duv1 := mgl32.Vec2(vertices[i1].TexCoord).Sub(uv0)
		duv2 := mgl32.Vec2(vertices[i2].TexCoord).Sub(uv0)

		det := duv1[0]*duv2[1] - duv1[1]*duv2[0]
		if math32.Abs(det) < 1e-12 {
			continue
		}
		r := 1 / det

		t := edge1.Mul(duv2[1]).Sub(edge2.Mul(duv1[1])).Mul(r)
		b := edge2.Mul(duv1[0]).Sub(edge1.Mul(duv2[0])).Mul(r)
		for _, idx := range [3]uint32{i0, i1, i2} {
			tan[idx] = tan[idx].Add(t)
			btan[idx] = btan[idx].Add(b)
		}
	}

	for i := range vertices {
		n := mgl32.Vec3(vertices[i].Normal)
		ortho := tan[i].Sub(n.Mul(n.Dot(tan[i])))
		if ortho.Len() < 1e-6 {
			vertices[i].Tangent = [4]float32{1, 0, 0, 1}
			continue
		}
		ortho = ortho.Normalize()

		w := float32(1)
		if n.Cross(ortho).Dot(btan[i]) < 0 {
			w = -1
		}
		vertices[i].Tangent = [4]float32{ortho[0], ortho[1], ortho[2], w}
	}
}
