package model

import (
	"github.com/Carmen-Shannon/oxy-reveal/common"
)

// ImportedModel represents a 3D model loaded from an external format.
// This is the universal format that importers produce.
type ImportedModel struct {
	// Name is the model identifier.
	Name string

	// Meshes contains every primitive of the model with node transforms already applied.
	Meshes []ImportedMesh

	// Materials are referenced by ImportedMesh.MaterialIndex.
	Materials []common.ImportedMaterial
}

// ImportedMesh represents a single triangle list within an imported model.
type ImportedMesh struct {
	// Name is the mesh identifier.
	Name string

	// Vertices are the mesh vertices.
	Vertices []GPUVertex

	// Indices are the triangle indices.
	Indices []uint32

	// MaterialIndex references ImportedModel.Materials, or -1 for the default material.
	MaterialIndex int

	// BoundingMin is the minimum corner of the axis-aligned bounding box.
	BoundingMin [3]float32

	// BoundingMax is the maximum corner of the axis-aligned bounding box.
	BoundingMax [3]float32
}

// VertexData returns the vertices packed for upload.
//
// Returns:
//   - []byte: the tightly packed vertex buffer contents
func (m *ImportedMesh) VertexData() []byte {
	return common.SliceToBytes(m.Vertices)
}

// IndexData returns the indices packed for upload.
//
// Returns:
//   - []byte: the uint32 index buffer contents
func (m *ImportedMesh) IndexData() []byte {
	return common.SliceToBytes(m.Indices)
}
