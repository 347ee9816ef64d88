// Package kernel defines the abstract geometry kernel interface used to
// build the 3D preview of a plan. Implementations (sdfx) provide solid
// modeling and boolean operations behind this interface so the extruder
// does not depend on a particular CAD backend.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface. Plans are flat, so the
// only rotation the extruder needs is about the vertical axis.
type Kernel interface {
	// Box creates a box with its minimum corner at the origin.
	Box(x, y, z float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	RotateZ(s Solid, radians float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
