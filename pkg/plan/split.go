package plan

import "github.com/chazu/lath/pkg/geom"

// SplitTolerance is the pixel distance within which a point is considered
// to touch a wall's interior.
const SplitTolerance = 4.0

// Interior zone of the projection parameter. Hits nearer an endpoint are
// left to endpoint snapping upstream.
const (
	splitTMin = 0.02
	splitTMax = 0.98
)

// splitAt splits the first wall whose interior the point touches, replacing
// it with two sub-walls that share the split point. Openings hosted on the
// original wall are re-parented to the sub-wall containing them, with their
// fractional positions renormalized. At most one wall is split per call.
// It returns the split point so the caller can snap the triggering endpoint
// onto it; SplitTolerance exceeds the endpoint merge distance, so an
// unsnapped endpoint could leave the loop open at the new node.
//
// The receiver must be a private copy (see shallowCopy); its slices are
// rewritten in place.
func (d *Document) splitAt(p geom.Vec2) (geom.Vec2, bool) {
	for i, w := range d.Walls {
		q, t := geom.NearestOnSegment(p, w.Start, w.End)
		if t <= splitTMin || t >= splitTMax {
			continue
		}
		if geom.Dist(p, q) > SplitTolerance {
			continue
		}

		a := w.clone()
		a.ID = NewWallID()
		a.Start = w.Start
		a.End = q
		a.Constraints = nil

		b := w.clone()
		b.ID = NewWallID()
		b.Start = q
		b.End = w.End
		b.Constraints = nil

		// Replace the original in place to keep wall order stable.
		walls := append([]*Wall(nil), d.Walls...)
		walls[i] = a
		walls = append(walls[:i+1], append([]*Wall{b}, walls[i+1:]...)...)
		d.Walls = walls

		openings := append([]*Opening(nil), d.Openings...)
		for j, o := range openings {
			if o.WallID != w.ID {
				continue
			}
			moved := o.clone()
			if o.Position < t {
				moved.WallID = a.ID
				moved.Position = o.Position / t
			} else {
				moved.WallID = b.ID
				moved.Position = (o.Position - t) / (1 - t)
			}
			openings[j] = moved
		}
		d.Openings = openings

		d.reindex()
		return q, true
	}
	return p, false
}
