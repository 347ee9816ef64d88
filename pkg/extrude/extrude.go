// Package extrude turns a 2D plan into triangle meshes for the 3D preview
// using a geometry kernel. One mesh is produced per wall.
package extrude

import (
	"fmt"

	"github.com/chazu/lath/pkg/kernel"
	"github.com/chazu/lath/pkg/plan"
)

// Wall thicknesses in meters. The plan stores walls as zero-width
// segments; the preview gives them a nominal body by type.
const (
	ExternalThickness = 0.30
	InternalThickness = 0.12
)

// cutMargin extends opening cut boxes past the wall faces so the
// difference leaves no coplanar skin.
const cutMargin = 0.05

// Extrude builds one mesh per physical wall. Virtual walls (room
// dividers) and zero-length walls produce no geometry. The extruder is
// read-only and never mutates the document.
func Extrude(d *plan.Document, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if d == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	for _, w := range d.Walls {
		if w.Type == plan.WallVirtual || w.Length() < 1 {
			continue
		}

		mesh, err := extrudeWall(d, w, k)
		if err != nil {
			return nil, fmt.Errorf("extrude: wall %s: %w", w.ID, err)
		}
		meshes = append(meshes, mesh)
	}

	return meshes, nil
}

// extrudeWall builds the wall solid in a local frame where the wall runs
// along +X from the origin, subtracts its openings, then rotates and
// translates the result into plan coordinates (meters).
func extrudeWall(d *plan.Document, w *plan.Wall, k kernel.Kernel) (*kernel.Mesh, error) {
	length := w.LengthMeters(d.GridSize)
	height := w.Height
	if height <= 0 {
		height = plan.DefaultWallHeight
	}
	thickness := Thickness(w.Type)

	// Box puts the min corner at the origin; recenter on the wall axis.
	solid := k.Box(length, thickness, height)
	solid = k.Translate(solid, 0, -thickness/2, 0)

	for _, o := range d.WallOpenings(w.ID) {
		solid = k.Difference(solid, openingCut(k, o, length, thickness))
	}

	solid = k.RotateZ(solid, w.Angle())
	solid = k.Translate(solid, w.Start.X/d.GridSize, w.Start.Y/d.GridSize, 0)

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, err
	}
	mesh.Label = string(w.ID)
	return mesh, nil
}

// openingCut builds the volume to subtract for one opening, in the
// wall-local frame. The cut is oversized across the wall thickness.
func openingCut(k kernel.Kernel, o *plan.Opening, wallLen, thickness float64) kernel.Solid {
	cut := k.Box(o.Width, thickness+2*cutMargin, o.Height)
	x := o.Position*wallLen - o.Width/2
	return k.Translate(cut, x, -thickness/2-cutMargin, o.Sill)
}

// Thickness returns the preview body thickness for a wall type.
func Thickness(t plan.WallType) float64 {
	if t == plan.WallExternal {
		return ExternalThickness
	}
	return InternalThickness
}
