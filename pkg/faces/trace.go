package faces

import (
	"github.com/chazu/lath/pkg/geom"
	"github.com/chazu/lath/pkg/plan"
)

// maxFaceSteps bounds a single face trace. It is a safety valve against
// corrupted topology, set well above any realistic room's wall count.
const maxFaceSteps = 512

// MinRoomArea is the smallest face area, in square meters, accepted as a
// room. Smaller faces are slivers from near-degenerate geometry.
const MinRoomArea = 0.01

// Face is one minimal cycle of the planar subdivision.
type Face struct {
	Points  []geom.Vec2   // node positions in cycle order
	WallIDs []plan.WallID // distinct walls traversed, in cycle order
	Area    float64       // signed area in square pixels
}

// directedEdge keys a half-edge for the used set.
type directedEdge struct {
	from, to nodeRef
}

// Faces enumerates every minimal face of the graph, including one unbounded
// outer face per connected component, using each directed half-edge exactly
// once. Traces that revisit a node before closing or outrun the step bound
// are discarded; their half-edges still count as used.
func (g *Graph) Faces() []Face {
	used := make(map[directedEdge]bool)
	var out []Face

	for start := range g.nodes {
		for _, e := range g.nodes[start].edges {
			de := directedEdge{nodeRef(start), e.to}
			if used[de] {
				continue
			}
			if f, ok := g.traceFace(nodeRef(start), e, used); ok {
				out = append(out, f)
			}
		}
	}
	return out
}

// traceFace walks one face starting with the directed edge start->first.
// At each node reached via (prev, cur) it selects the neighbor immediately
// preceding prev in cur's angularly sorted adjacency, wrapping circularly.
// This rotation-system rule guarantees each face is traced exactly once
// and the traced faces partition all half-edges.
func (g *Graph) traceFace(start nodeRef, first halfEdge, used map[directedEdge]bool) (Face, bool) {
	var f Face
	seen := make(map[nodeRef]bool)
	seenWall := make(map[plan.WallID]bool)

	appendStep := func(n nodeRef, wall plan.WallID) {
		f.Points = append(f.Points, g.nodes[n].at)
		if !seenWall[wall] {
			seenWall[wall] = true
			f.WallIDs = append(f.WallIDs, wall)
		}
	}

	used[directedEdge{start, first.to}] = true
	appendStep(start, first.wall)
	seen[start] = true

	prev, cur := start, first.to
	for step := 0; step < maxFaceSteps; step++ {
		if cur == start {
			f.Area = geom.PolygonArea(f.Points)
			return f, true
		}
		if seen[cur] {
			// Self-intersecting local geometry; malformed trace.
			return Face{}, false
		}
		seen[cur] = true

		next, ok := g.nextEdge(cur, prev)
		if !ok {
			return Face{}, false
		}
		used[directedEdge{cur, next.to}] = true
		appendStep(cur, next.wall)
		prev, cur = cur, next.to
	}
	return Face{}, false
}

// nextEdge returns the half-edge at cur immediately preceding the edge
// back to prev in the rotation order.
func (g *Graph) nextEdge(cur, prev nodeRef) (halfEdge, bool) {
	edges := g.nodes[cur].edges
	for i, e := range edges {
		if e.to == prev {
			return edges[(i-1+len(edges))%len(edges)], true
		}
	}
	return halfEdge{}, false
}

// RoomFaces traces all faces and keeps only those that can bound a room.
// Under the rotation rule bounded faces wind counterclockwise (positive
// shoelace area) while the unbounded outer trace of each connected component
// winds the other way, so keeping positive areas excludes every outer face
// even when the walls form several disconnected loops. Slivers below
// MinRoomArea (in square meters at the given grid size) are dropped.
func (g *Graph) RoomFaces(gridSize float64) []Face {
	minAreaPx := MinRoomArea * gridSize * gridSize
	var rooms []Face
	for _, f := range g.Faces() {
		if f.Area >= minAreaPx && len(f.WallIDs) >= 3 {
			rooms = append(rooms, f)
		}
	}
	return rooms
}
