package common

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// depthClip remaps OpenGL clip-space depth [-1, 1] to the WebGPU range [0, 1].
var depthClip = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Perspective creates a perspective projection matrix for WebGPU clip space, where depth maps to [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clip distance
//   - far: far clip distance
//
// Returns:
//   - mgl32.Mat4: column-major projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	return depthClip.Mul4(mgl32.Perspective(fovY, aspect, near, far))
}

// EulerModelMatrix composes translation, XYZ-ordered Euler rotation and scale into a model matrix.
// The rotation matrix is Rx * Ry * Rz, so Z is applied first to the vertex.
//
// Parameters:
//   - position: world-space translation
//   - rotation: Euler angles in radians around X, Y and Z
//   - scale: per-axis scale factors
//
// Returns:
//   - mgl32.Mat4: column-major model matrix (T * R * S)
func EulerModelMatrix(position, rotation, scale mgl32.Vec3) mgl32.Mat4 {
	r := mgl32.HomogRotate3DX(rotation.X()).
		Mul4(mgl32.HomogRotate3DY(rotation.Y())).
		Mul4(mgl32.HomogRotate3DZ(rotation.Z()))
	return mgl32.Translate3D(position.X(), position.Y(), position.Z()).
		Mul4(r).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
}

// NormalMatrix returns the inverse-transpose of m, used to transform normals under non-uniform scale.
// A singular matrix yields the identity.
func NormalMatrix(m mgl32.Mat4) mgl32.Mat4 {
	if m.Det() == 0 {
		return mgl32.Ident4()
	}
	return m.Inv().Transpose()
}
