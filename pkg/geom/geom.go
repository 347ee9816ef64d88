// Package geom provides the 2D vector math used by the plan model and the
// face traversal engine. All functions are pure; coordinates are in canvas
// pixels unless noted otherwise.
package geom

import "math"

// Eps is the tolerance for near-zero comparisons in pixel space.
const Eps = 1e-9

// Vec2 is a point or direction in the canvas plane.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l < Eps {
		return v
	}
	return v.Scale(1 / l)
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Vec2) float64 {
	return b.Sub(a).Len()
}

// Angle returns the polar angle of the directed segment a->b in radians,
// in the atan2 convention (-pi, pi].
func Angle(a, b Vec2) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// NearestOnSegment returns the point on segment a-b nearest to p, together
// with the clamped projection parameter t in [0,1] (t=0 at a, t=1 at b).
func NearestOnSegment(p, a, b Vec2) (Vec2, float64) {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < Eps {
		return a, 0
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return a.Add(ab.Scale(t)), t
}

// DistToSegment returns the distance from p to the nearest point on
// segment a-b.
func DistToSegment(p, a, b Vec2) float64 {
	q, _ := NearestOnSegment(p, a, b)
	return Dist(p, q)
}

// PolygonArea returns the signed area of the polygon via the shoelace
// formula. The sign encodes winding: positive for counter-clockwise in the
// graph's coordinate convention.
func PolygonArea(pts []Vec2) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

// Centroid returns the arithmetic mean of the polygon's vertices. This is
// not the area-weighted centroid; it is adequate for label placement only.
func Centroid(pts []Vec2) Vec2 {
	if len(pts) == 0 {
		return Vec2{}
	}
	var c Vec2
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(pts)))
}

// ContainsPoint reports whether p lies inside the polygon, using the
// ray-casting parity rule.
func ContainsPoint(pts []Vec2, p Vec2) bool {
	inside := false
	n := len(pts)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := pts[i], pts[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}
