// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/lath/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// defaultMeshCells controls marching cubes tessellation resolution.
// Wall solids are large and boxy, so a moderate grid is enough.
const defaultMeshCells = 160

// solid wraps an sdf.SDF3 to implement kernel.Solid.
type solid struct {
	sdf3 sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *solid) BoundingBox() (min, max [3]float64) {
	bb := s.sdf3.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*solid).sdf3
}

func wrap(s sdf.SDF3) kernel.Solid {
	return &solid{sdf3: s}
}

// Box creates a box with the given dimensions and its minimum corner at
// the origin. A wall solid is built along +X from its start point, so a
// min-corner origin lets RotateZ and Translate place it without further
// offsetting. sdf.Box3D centers the box, hence the half-dimension shift.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	box, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	shift := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return wrap(sdf.Transform3D(box, shift))
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// RotateZ rotates a solid about the vertical axis. Floor plans are flat,
// so this is the only rotation the extruder needs.
func (k *SdfxKernel) RotateZ(s kernel.Solid, radians float64) kernel.Solid {
	return wrap(sdf.Transform3D(unwrap(s), sdf.RotateZ(radians)))
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	renderer := render.NewMarchingCubesUniform(defaultMeshCells)
	triangles := render.ToTriangles(unwrap(s), renderer)
	return meshFromTriangles(triangles), nil
}

// meshFromTriangles flattens a triangle soup into the GPU-friendly layout
// the frontend consumes. Vertices are not deduplicated: each triangle
// carries its own three vertices with the flat face normal, which keeps
// wall edges crisp in the preview.
func meshFromTriangles(triangles []*sdf.Triangle3) *kernel.Mesh {
	verts := len(triangles) * 3

	m := &kernel.Mesh{
		Vertices: make([]float32, 0, verts*3),
		Normals:  make([]float32, 0, verts*3),
		Indices:  make([]uint32, 0, verts),
	}

	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			m.Normals = append(m.Normals, nx, ny, nz)
			m.Indices = append(m.Indices, uint32(i*3+j))
		}
	}

	return m
}
