// Package faces turns an unordered wall set into the enclosed rooms it
// bounds. Wall endpoints are merged into planar-graph nodes, each node's
// adjacency is sorted into a rotation system, and minimal faces are traced
// one directed half-edge at a time.
package faces

import (
	"sort"

	"github.com/chazu/lath/pkg/geom"
	"github.com/chazu/lath/pkg/plan"
)

// MergeEpsilon is the pixel distance below which two wall endpoints are
// treated as the same graph node (roughly 3 cm at the default grid size).
const MergeEpsilon = 3.0

// nodeRef indexes a node within a graph.
type nodeRef int

// halfEdge is a directed adjacency entry at a node.
type halfEdge struct {
	to    nodeRef
	wall  plan.WallID
	angle float64 // polar angle of the vector from the node to the target
}

// node is a merged endpoint location with angularly sorted adjacency.
type node struct {
	at    geom.Vec2
	edges []halfEdge
}

// Graph is the planar multigraph of a wall set. Nodes are distinct spatial
// locations; edges are walls.
type Graph struct {
	nodes []*node
}

// BuildGraph constructs the graph for the given walls. Endpoints within
// epsilon of an existing node merge into it; the comparison runs against
// every registered node so floating drift cannot fragment a shared corner.
// Self-loop walls are excluded, and duplicate edges between the same node
// pair are counted once. Wall order determines node numbering, so the same
// wall slice always produces the same graph.
func BuildGraph(walls []*plan.Wall, epsilon float64) *Graph {
	g := &Graph{}

	register := func(p geom.Vec2) nodeRef {
		for i, n := range g.nodes {
			if geom.Dist(p, n.at) < epsilon {
				return nodeRef(i)
			}
		}
		g.nodes = append(g.nodes, &node{at: p})
		return nodeRef(len(g.nodes) - 1)
	}

	for _, w := range walls {
		if w.Length() < geom.Eps {
			continue
		}
		a := register(w.Start)
		b := register(w.End)
		if a == b {
			// Both endpoints merged to one node; a self-loop cannot
			// bound a room.
			continue
		}
		if g.hasEdge(a, b) {
			continue
		}
		na, nb := g.nodes[a], g.nodes[b]
		na.edges = append(na.edges, halfEdge{to: b, wall: w.ID, angle: geom.Angle(na.at, nb.at)})
		nb.edges = append(nb.edges, halfEdge{to: a, wall: w.ID, angle: geom.Angle(nb.at, na.at)})
	}

	// Fix the rotation system: ascending angle, target node as the
	// secondary key so equal angles cannot reorder between runs.
	for _, n := range g.nodes {
		sort.Slice(n.edges, func(i, j int) bool {
			if n.edges[i].angle != n.edges[j].angle {
				return n.edges[i].angle < n.edges[j].angle
			}
			return n.edges[i].to < n.edges[j].to
		})
	}

	return g
}

// hasEdge reports whether an edge between a and b is already registered.
func (g *Graph) hasEdge(a, b nodeRef) bool {
	for _, e := range g.nodes[a].edges {
		if e.to == b {
			return true
		}
	}
	return false
}

// NodeCount returns the number of merged endpoint locations.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, n := range g.nodes {
		total += len(n.edges)
	}
	return total / 2
}
