package plan

import (
	"strings"
	"testing"

	"github.com/chazu/lath/pkg/geom"
)

func TestValidateCleanDocument(t *testing.T) {
	d := NewDocument()
	d, wid, _ := d.CreateWall(WallSpec{Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 400, Y: 0}})
	d, _, _ = d.CreateOpening(OpeningSpec{WallID: wid, Position: 0.5, Width: 1.2})

	res := Validate(d)
	if len(res.Errors) != 0 {
		t.Errorf("errors = %v, want none", res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", res.Warnings)
	}
}

func TestValidateDanglingOpening(t *testing.T) {
	d := NewDocument()
	d.Openings = append(d.Openings, &Opening{ID: "o", WallID: "ghost", Position: 0.5, Width: 1})

	res := Validate(d)
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(res.Errors))
	}
	if !strings.Contains(res.Errors[0].Message, "missing wall") {
		t.Errorf("message = %q, want a missing-wall finding", res.Errors[0].Message)
	}
}

func TestValidateInertConstraintIsWarning(t *testing.T) {
	d := NewDocument()
	d, wid, _ := d.CreateWall(WallSpec{Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 400, Y: 0}})
	d, _ = d.UpdateWall(wid, WallUpdate{Constraints: &Constraints{Parallel{Ref: "gone"}}})

	res := Validate(d)
	if len(res.Errors) != 0 {
		t.Errorf("errors = %v, want none (inert constraint is advisory)", res.Errors)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings = %d, want 1", len(res.Warnings))
	}
}

func TestValidateSelfReferencingConstraint(t *testing.T) {
	d := NewDocument()
	d, wid, _ := d.CreateWall(WallSpec{Start: geom.Vec2{X: 0, Y: 0}, End: geom.Vec2{X: 400, Y: 0}})
	d, _ = d.UpdateWall(wid, WallUpdate{Constraints: &Constraints{Perpendicular{Ref: wid}}})

	res := Validate(d)
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %d, want 1 for a self-reference", len(res.Errors))
	}
}

func TestValidateDuplicateRoomNames(t *testing.T) {
	d := NewDocument()
	d = d.SetRooms([]*Room{
		{ID: "a", Name: "Hall"},
		{ID: "b", Name: "Hall"},
	})
	res := Validate(d)
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e.Message, "already used") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a duplicate-name error, got %v", res.Errors)
	}
}

func TestValidateRoomWithMissingWall(t *testing.T) {
	d := NewDocument()
	d = d.SetRooms([]*Room{
		{ID: "r", Name: "Hall", WallIDs: []WallID{"w1", "w2", "w3"}},
	})
	res := Validate(d)
	if len(res.Errors) != 3 {
		t.Errorf("errors = %d, want 3 (one per missing wall)", len(res.Errors))
	}
}
