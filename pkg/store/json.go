package store

import (
	"encoding/json"
	"fmt"

	"github.com/chazu/lath/pkg/plan"
)

// documentWire is the JSON shape of an exported plan. Entities use their
// own JSON codecs, so constraints appear as tagged wire objects.
type documentWire struct {
	GridSize float64         `json:"gridSize"`
	Walls    []*plan.Wall    `json:"walls"`
	Openings []*plan.Opening `json:"openings"`
	Rooms    []*plan.Room    `json:"rooms"`
}

// ExportJSON serializes a document for file export or clipboard use.
func ExportJSON(d *plan.Document) ([]byte, error) {
	w := documentWire{
		GridSize: d.GridSize,
		Walls:    d.Walls,
		Openings: d.Openings,
		Rooms:    d.Rooms,
	}
	return json.MarshalIndent(w, "", "  ")
}

// ImportJSON deserializes an exported document and checks referential
// integrity: every opening must name a wall that exists. Rooms are not
// checked here; the caller re-runs room detection after import.
func ImportJSON(data []byte) (*plan.Document, error) {
	var w documentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	d := plan.FromParts(w.GridSize, w.Walls, w.Openings, w.Rooms)

	for _, o := range d.Openings {
		if d.Wall(o.WallID) == nil {
			return nil, fmt.Errorf("opening %s references missing wall %s", o.ID, o.WallID)
		}
	}
	return d, nil
}
