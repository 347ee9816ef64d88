package plan

import (
	"testing"

	"github.com/chazu/lath/pkg/geom"
)

func TestSplitAtMidpoint(t *testing.T) {
	d := NewDocument()
	d, host, _ := d.CreateWall(WallSpec{Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 400, Y: 0}})
	d, oid, err := d.CreateOpening(OpeningSpec{WallID: host, Kind: OpeningWindow, Position: 0.25, Width: 1.0})
	if err != nil {
		t.Fatalf("CreateOpening: %v", err)
	}

	// The new wall's endpoint lands on the host's midpoint.
	d, _, err = d.CreateWall(WallSpec{Start: geom.Vec2{X: 200, Y: 0}, End: geom.Vec2{X: 200, Y: 300}})
	if err != nil {
		t.Fatalf("CreateWall: %v", err)
	}

	if d.Wall(host) != nil {
		t.Fatal("original wall id must be destroyed by the split")
	}
	if len(d.Walls) != 3 {
		t.Fatalf("wall count = %d, want 3 (two halves + the new wall)", len(d.Walls))
	}

	// Both halves are 200 px.
	var halves []*Wall
	for _, w := range d.Walls {
		if w.Start.Y == 0 && w.End.Y == 0 {
			halves = append(halves, w)
		}
	}
	if len(halves) != 2 {
		t.Fatalf("found %d horizontal sub-walls, want 2", len(halves))
	}
	for _, h := range halves {
		if !approx(h.Length(), 200) {
			t.Errorf("sub-wall length = %f, want 200", h.Length())
		}
	}

	// The opening at 0.25 maps to the first half at 0.5.
	o := d.Opening(oid)
	if o == nil {
		t.Fatal("opening lost in split")
	}
	if !approx(o.Position, 0.5) {
		t.Errorf("renormalized position = %f, want 0.5", o.Position)
	}
	first := d.Wall(o.WallID)
	if first == nil {
		t.Fatal("opening references a destroyed wall")
	}
	if !approx(first.Start.X, 0) || !approx(first.End.X, 200) {
		t.Errorf("opening re-parented to %v-%v, want the 0..200 half", first.Start, first.End)
	}
}

func TestSplitReassignsLateOpening(t *testing.T) {
	d := NewDocument()
	d, host, _ := d.CreateWall(WallSpec{Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 400, Y: 0}})
	d, oid, _ := d.CreateOpening(OpeningSpec{WallID: host, Kind: OpeningDoor, Position: 0.75, Width: 0.9})

	d, _, _ = d.CreateWall(WallSpec{Start: geom.Vec2{X: 200, Y: 0}, End: geom.Vec2{X: 200, Y: 300}})

	o := d.Opening(oid)
	if !approx(o.Position, 0.5) {
		t.Errorf("renormalized position = %f, want 0.5", o.Position)
	}
	second := d.Wall(o.WallID)
	if !approx(second.Start.X, 200) || !approx(second.End.X, 400) {
		t.Errorf("opening re-parented to %v-%v, want the 200..400 half", second.Start, second.End)
	}
}

func TestSplitSnapsTriggeringEndpoint(t *testing.T) {
	d := NewDocument()
	d, host, _ := d.CreateWall(WallSpec{Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 400, Y: 0}})

	// 3.5 px off the host's interior: inside the split tolerance but past
	// the endpoint merge distance, so the new wall's endpoint must land
	// exactly on the split node or the loop stays open there.
	d, nid, err := d.CreateWall(WallSpec{Start: geom.Vec2{X: 200, Y: 3.5}, End: geom.Vec2{X: 200, Y: 300}})
	if err != nil {
		t.Fatalf("CreateWall: %v", err)
	}
	if d.Wall(host) != nil {
		t.Fatal("host must be split by the near endpoint")
	}
	n := d.Wall(nid)
	if n.Start.X != 200 || n.Start.Y != 0 {
		t.Errorf("endpoint = %v, want snapped to the split point (200, 0)", n.Start)
	}
}

func TestNoSplitNearEndpoint(t *testing.T) {
	d := NewDocument()
	d, host, _ := d.CreateWall(WallSpec{Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 400, Y: 0}})

	// t = 0.005 is inside the endpoint zone handled by snapping upstream.
	d, _, err := d.CreateWall(WallSpec{Start: geom.Vec2{X: 2, Y: 0}, End: geom.Vec2{X: 2, Y: 300}})
	if err != nil {
		t.Fatalf("CreateWall: %v", err)
	}
	if d.Wall(host) == nil {
		t.Error("wall must not be split near its endpoint")
	}
	if len(d.Walls) != 2 {
		t.Errorf("wall count = %d, want 2", len(d.Walls))
	}
}

func TestNoSplitWhenFarFromWall(t *testing.T) {
	d := NewDocument()
	d, host, _ := d.CreateWall(WallSpec{Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 400, Y: 0}})

	d, _, _ = d.CreateWall(WallSpec{Start: geom.Vec2{X: 200, Y: 50}, End: geom.Vec2{X: 200, Y: 300}})
	if d.Wall(host) == nil {
		t.Error("wall must not be split by a distant endpoint")
	}
}

func TestSplitDropsConstraints(t *testing.T) {
	d := NewDocument()
	d, host, _ := d.CreateWall(WallSpec{Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 400, Y: 0}})
	d, _ = d.UpdateWall(host, WallUpdate{Constraints: &Constraints{Horizontal{}}})

	d, _, _ = d.CreateWall(WallSpec{Start: geom.Vec2{X: 200, Y: 0}, End: geom.Vec2{X: 200, Y: 300}})
	for _, w := range d.Walls {
		if len(w.Constraints) != 0 {
			t.Errorf("sub-wall %s kept constraints from the split wall", w.ID)
		}
	}
}
