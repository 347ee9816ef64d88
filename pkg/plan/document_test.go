package plan

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/lath/pkg/geom"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestNewDocument(t *testing.T) {
	d := NewDocument()
	if d.GridSize != DefaultGridSize {
		t.Errorf("grid size = %f, want %f", d.GridSize, DefaultGridSize)
	}
	if len(d.Walls) != 0 || len(d.Openings) != 0 || len(d.Rooms) != 0 {
		t.Error("new document should be empty")
	}
}

func TestCreateWall(t *testing.T) {
	d := NewDocument()
	next, id, err := d.CreateWall(WallSpec{Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 400, Y: 0}})
	if err != nil {
		t.Fatalf("CreateWall: %v", err)
	}
	if len(d.Walls) != 0 {
		t.Error("original document must not change")
	}
	w := next.Wall(id)
	if w == nil {
		t.Fatal("created wall not found by id")
	}
	if w.Height != DefaultWallHeight {
		t.Errorf("height = %f, want default %f", w.Height, DefaultWallHeight)
	}
}

func TestCreateWallZeroLength(t *testing.T) {
	d := NewDocument()
	_, _, err := d.CreateWall(WallSpec{Start: geom.Vec2{X: 5, Y: 5}, End: geom.Vec2{X: 5, Y: 5}})
	if !errors.Is(err, ErrZeroLengthWall) {
		t.Errorf("err = %v, want ErrZeroLengthWall", err)
	}
}

func TestDeleteWallCascadesOpenings(t *testing.T) {
	d := NewDocument()
	d, wid, _ := d.CreateWall(WallSpec{Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 400, Y: 0}})
	d, oid, err := d.CreateOpening(OpeningSpec{WallID: wid, Kind: OpeningWindow, Position: 0.5, Width: 1.2, Height: 1.3})
	if err != nil {
		t.Fatalf("CreateOpening: %v", err)
	}

	d, err = d.DeleteWall(wid)
	if err != nil {
		t.Fatalf("DeleteWall: %v", err)
	}
	if d.Opening(oid) != nil {
		t.Error("opening should be deleted with its wall")
	}
	if len(d.Openings) != 0 {
		t.Errorf("openings remaining = %d, want 0", len(d.Openings))
	}
}

func TestCreateOpeningRejections(t *testing.T) {
	base := NewDocument()
	base, wid, _ := base.CreateWall(WallSpec{Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 400, Y: 0}})
	// 400 px at the default grid size is a 4 m wall.

	tests := []struct {
		name string
		spec OpeningSpec
		want error
	}{
		{"missing wall", OpeningSpec{WallID: "nope", Position: 0.5, Width: 1}, ErrWallNotFound},
		{"wider than 90%", OpeningSpec{WallID: wid, Position: 0.5, Width: 3.8}, ErrOpeningTooWide},
		{"off the start", OpeningSpec{WallID: wid, Position: 0.05, Width: 1.0}, ErrOpeningOffWall},
		{"off the end", OpeningSpec{WallID: wid, Position: 0.98, Width: 1.0}, ErrOpeningOffWall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _, err := base.CreateOpening(tt.spec)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if next != base {
				t.Error("rejected command must return the document unchanged")
			}
		})
	}
}

func TestOpeningOverlapRejected(t *testing.T) {
	d := NewDocument()
	d, wid, _ := d.CreateWall(WallSpec{Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 400, Y: 0}})

	d, first, err := d.CreateOpening(OpeningSpec{WallID: wid, Kind: OpeningWindow, Position: 0.5, Width: 1.2})
	if err != nil {
		t.Fatalf("first opening: %v", err)
	}
	// 1.2 m on a 4 m wall covers [0.35, 0.65]; 0.6 +- 0.15 overlaps.
	_, _, err = d.CreateOpening(OpeningSpec{WallID: wid, Kind: OpeningDoor, Position: 0.6, Width: 1.2})
	if !errors.Is(err, ErrOpeningOverlap) {
		t.Errorf("err = %v, want ErrOpeningOverlap", err)
	}
	if d.Opening(first) == nil {
		t.Error("first opening must survive the rejected second")
	}

	// Disjoint footprints are fine.
	_, _, err = d.CreateOpening(OpeningSpec{WallID: wid, Kind: OpeningDoor, Position: 0.15, Width: 0.9})
	if err != nil {
		t.Errorf("non-overlapping opening rejected: %v", err)
	}
}

func TestUpdateOpeningRechecksPlacement(t *testing.T) {
	d := NewDocument()
	d, wid, _ := d.CreateWall(WallSpec{Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 400, Y: 0}})
	d, a, _ := d.CreateOpening(OpeningSpec{WallID: wid, Position: 0.25, Width: 1.0})
	d, _, _ = d.CreateOpening(OpeningSpec{WallID: wid, Position: 0.75, Width: 1.0})

	pos := 0.7
	_, err := d.UpdateOpening(a, OpeningUpdate{Position: &pos})
	if !errors.Is(err, ErrOpeningOverlap) {
		t.Errorf("err = %v, want ErrOpeningOverlap", err)
	}

	pos = 0.45
	next, err := d.UpdateOpening(a, OpeningUpdate{Position: &pos})
	if err != nil {
		t.Fatalf("valid move rejected: %v", err)
	}
	if got := next.Opening(a).Position; !approx(got, 0.45) {
		t.Errorf("position = %f, want 0.45", got)
	}
}

func TestUpdateWallPartialFields(t *testing.T) {
	d := NewDocument()
	d, id, _ := d.CreateWall(WallSpec{Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 400, Y: 0}, Height: 2.7})

	typ := WallExternal
	u := 0.35
	uv := &u
	next, err := d.UpdateWall(id, WallUpdate{Type: &typ, UValue: &uv})
	if err != nil {
		t.Fatalf("UpdateWall: %v", err)
	}
	w := next.Wall(id)
	if w.Type != WallExternal {
		t.Errorf("type = %v, want external", w.Type)
	}
	if w.UValue == nil || *w.UValue != 0.35 {
		t.Errorf("uValue = %v, want 0.35", w.UValue)
	}
	if w.Height != 2.7 {
		t.Errorf("height = %f, want 2.7 (untouched)", w.Height)
	}
	if d.Wall(id).Type != WallUnset {
		t.Error("original wall must not change")
	}
}

func TestConnectedWalls(t *testing.T) {
	d := NewDocument()
	d, a, _ := d.CreateWall(WallSpec{Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 400, Y: 0}})
	d, b, _ := d.CreateWall(WallSpec{Start: geom.Vec2{X: 400, Y: 1}, End: geom.Vec2{X: 400, Y: 300}})
	d, _, _ = d.CreateWall(WallSpec{Start: geom.Vec2{X: 1000, Y: 1000}, End: geom.Vec2{X: 1200, Y: 1000}})

	conn := d.ConnectedWalls(a, 3.0)
	if len(conn) != 1 || conn[0].ID != b {
		t.Fatalf("connected walls = %v, want just %s", conn, b)
	}
}

func TestRenameRoomUniqueness(t *testing.T) {
	d := NewDocument()
	d = d.SetRooms([]*Room{
		{ID: "r1", Name: "Kitchen", CeilingHeight: 2.8},
		{ID: "r2", Name: "Room 1", CeilingHeight: 2.8},
	})

	_, err := d.RenameRoom("r2", "Kitchen")
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("err = %v, want ErrDuplicateName", err)
	}

	next, err := d.RenameRoom("r2", "Hall")
	if err != nil {
		t.Fatalf("RenameRoom: %v", err)
	}
	if next.Room("r2").Name != "Hall" {
		t.Errorf("name = %q, want Hall", next.Room("r2").Name)
	}
	if d.Room("r2").Name != "Room 1" {
		t.Error("original document must not change")
	}
}

func TestRoomAreaFromPolygon(t *testing.T) {
	d := NewDocument()
	var ids []WallID
	segs := [][2]geom.Vec2{
		{{0, 0}, {400, 0}},
		{{400, 0}, {400, 300}},
		{{400, 300}, {0, 300}},
		{{0, 300}, {0, 0}},
	}
	for _, s := range segs {
		var id WallID
		d, id, _ = d.CreateWall(WallSpec{Start: s[0], End: s[1]})
		ids = append(ids, id)
	}
	r := &Room{ID: "r", Name: "Room 1", WallIDs: ids}
	d = d.SetRooms([]*Room{r})

	// 400x300 px at 100 px/m is 4x3 m.
	if got := d.RoomArea(d.Room("r")); !approx(got, 12) {
		t.Errorf("area = %f m², want 12", got)
	}
}
