package plan

import "github.com/chazu/lath/pkg/geom"

// Solve computes the corrected position of a wall's moving endpoint under
// its constraint list. Constraints are applied by ordered substitution, not
// simultaneously: perpendicular, then parallel, then horizontal/vertical,
// then fixed length, each taking the previous result as input. Later
// constraints may partially override earlier ones.
//
// lookup resolves reference walls; constraints whose reference cannot be
// resolved are skipped. The caller writes the returned position back onto
// the wall.
func Solve(w *Wall, lookup func(WallID) *Wall, gridSize float64, movingStart bool) geom.Vec2 {
	anchor, moving := w.Start, w.End
	if movingStart {
		anchor, moving = w.End, w.Start
	}

	for _, c := range w.Constraints {
		if p, ok := c.(Perpendicular); ok {
			if ref := lookup(p.Ref); ref != nil && ref.ID != w.ID {
				dir := ref.End.Sub(ref.Start).Normalize()
				orth := geom.Vec2{X: -dir.Y, Y: dir.X}
				moving = projectOnto(anchor, moving, orth)
			}
		}
	}
	for _, c := range w.Constraints {
		if p, ok := c.(Parallel); ok {
			if ref := lookup(p.Ref); ref != nil && ref.ID != w.ID {
				dir := ref.End.Sub(ref.Start).Normalize()
				moving = projectOnto(anchor, moving, dir)
			}
		}
	}
	for _, c := range w.Constraints {
		switch c.(type) {
		case Horizontal:
			moving.Y = anchor.Y
		case Vertical:
			moving.X = anchor.X
		}
	}
	for _, c := range w.Constraints {
		if f, ok := c.(FixedLength); ok {
			dir := moving.Sub(anchor).Normalize()
			if dir.Len() < geom.Eps {
				// Collapsed vector has no direction; keep the wall's
				// stored orientation, seen from the anchor.
				dir = w.End.Sub(w.Start).Normalize()
				if movingStart {
					dir = dir.Scale(-1)
				}
			}
			moving = anchor.Add(dir.Scale(f.Meters * gridSize))
		}
	}

	return moving
}

// projectOnto replaces the anchor->moving vector with its projection onto
// the unit direction dir, preserving the vector's current length. When the
// projection underflows to near zero the current length is kept along dir
// so the wall cannot collapse to a point.
func projectOnto(anchor, moving, dir geom.Vec2) geom.Vec2 {
	v := moving.Sub(anchor)
	length := v.Len()
	proj := v.Dot(dir)
	if proj > -geom.Eps && proj < geom.Eps {
		return anchor.Add(dir.Scale(length))
	}
	sign := 1.0
	if proj < 0 {
		sign = -1
	}
	return anchor.Add(dir.Scale(sign * length))
}
