package model

import (
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/material"
)

// Mesh is one drawable primitive of a Model: its buffers and the material it is shaded with.
type Mesh struct {
	// Name is the primitive identifier.
	Name string

	// Provider holds the vertex and index buffers once GPU-initialised.
	Provider bind_group_provider.BindGroupProvider

	// Material shades the primitive.
	Material material.Material

	// VertexData is the packed vertex buffer contents.
	VertexData []byte

	// IndexData is the packed uint32 index buffer contents.
	IndexData []byte

	// IndexCount is the number of indices to draw.
	IndexCount int
}
