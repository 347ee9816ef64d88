// Package plan defines the building-plan data model: walls, openings, rooms,
// and the commands that mutate them. A plan is never mutated in place; each
// command produces a new Document so callers can hold on to earlier states.
package plan

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/chazu/lath/pkg/geom"
)

// WallID identifies a wall. Stable across endpoint moves and constraint
// application, destroyed by a split.
type WallID string

// OpeningID identifies a window or door.
type OpeningID string

// RoomID identifies a room across recomputations.
type RoomID string

// NewWallID returns a fresh unique wall id.
func NewWallID() WallID { return WallID(uuid.NewString()) }

// NewOpeningID returns a fresh unique opening id.
func NewOpeningID() OpeningID { return OpeningID(uuid.NewString()) }

// NewRoomID returns a fresh unique room id.
func NewRoomID() RoomID { return RoomID(uuid.NewString()) }

// WallType classifies a wall thermally.
type WallType int

const (
	WallUnset WallType = iota // not yet classified
	WallExternal
	WallInternal
	WallUnheated // faces an unheated space
	WallVirtual  // room divider with no physical wall
)

func (t WallType) String() string {
	switch t {
	case WallUnset:
		return ""
	case WallExternal:
		return "external"
	case WallInternal:
		return "internal"
	case WallUnheated:
		return "unheated"
	case WallVirtual:
		return "virtual"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the wall type as its wire string.
func (t WallType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a wire string into a WallType.
func (t *WallType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	wt, ok := ParseWallType(s)
	if !ok {
		return fmt.Errorf("unknown wall type %q", s)
	}
	*t = wt
	return nil
}

// ParseWallType maps a wire string back to a WallType. The empty string is
// WallUnset.
func ParseWallType(s string) (WallType, bool) {
	switch s {
	case "":
		return WallUnset, true
	case "external":
		return WallExternal, true
	case "internal":
		return WallInternal, true
	case "unheated":
		return WallUnheated, true
	case "virtual":
		return WallVirtual, true
	}
	return WallUnset, false
}

// Photo is an attachment reference. The core never opens the file; storage
// and display belong to the UI layer.
type Photo struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Wall is a straight wall segment on the canvas. Start and End are in
// canvas pixels; Height is in meters.
type Wall struct {
	ID          WallID      `json:"id"`
	Start       geom.Vec2   `json:"start"`
	End         geom.Vec2   `json:"end"`
	Height      float64     `json:"height"`
	Type        WallType    `json:"wallType"`
	Structure   string      `json:"structureType"` // free-text construction description
	UValue      *float64    `json:"uValue"`        // W/(m²K), nil when unknown
	Photos      []Photo     `json:"photos,omitempty"`
	Constraints Constraints `json:"constraints,omitempty"`
}

// Length returns the wall length in pixels.
func (w *Wall) Length() float64 {
	return geom.Dist(w.Start, w.End)
}

// LengthMeters returns the wall length in meters for the given grid size
// (pixels per meter).
func (w *Wall) LengthMeters(gridSize float64) float64 {
	return w.Length() / gridSize
}

// Angle returns the polar angle of the directed segment Start->End.
func (w *Wall) Angle() float64 {
	return geom.Angle(w.Start, w.End)
}

// clone returns a deep copy of the wall.
func (w *Wall) clone() *Wall {
	c := *w
	c.Photos = append([]Photo(nil), w.Photos...)
	c.Constraints = append(Constraints(nil), w.Constraints...)
	return &c
}

// OpeningKind distinguishes windows from doors.
type OpeningKind int

const (
	OpeningWindow OpeningKind = iota
	OpeningDoor
)

func (k OpeningKind) String() string {
	switch k {
	case OpeningWindow:
		return "window"
	case OpeningDoor:
		return "door"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the opening kind as its wire string.
func (k OpeningKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a wire string into an OpeningKind.
func (k *OpeningKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ok, valid := ParseOpeningKind(s)
	if !valid {
		return fmt.Errorf("unknown opening kind %q", s)
	}
	*k = ok
	return nil
}

// ParseOpeningKind maps a wire string back to an OpeningKind.
func ParseOpeningKind(s string) (OpeningKind, bool) {
	switch s {
	case "window":
		return OpeningWindow, true
	case "door":
		return OpeningDoor, true
	}
	return OpeningWindow, false
}

// Opening is a window or door hosted on a wall. Position is the fractional
// offset of the opening center along the owning wall, measured from the
// wall's Start. Width, Height and Sill are in meters.
type Opening struct {
	ID       OpeningID   `json:"id"`
	Kind     OpeningKind `json:"type"`
	WallID   WallID      `json:"wallId"`
	Position float64     `json:"position"` // in [0,1] along the wall
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	Sill     float64     `json:"sillHeight"`
	UValue   float64     `json:"uValue"`
}

// Footprint returns the fractional interval [lo,hi] the opening covers on
// a wall of the given pixel length.
func (o *Opening) Footprint(wallLen, gridSize float64) (lo, hi float64) {
	if wallLen <= 0 {
		return o.Position, o.Position
	}
	half := o.Width * gridSize / wallLen / 2
	return o.Position - half, o.Position + half
}

func (o *Opening) clone() *Opening {
	c := *o
	return &c
}

// Room is an enclosed region bounded by a closed loop of walls. The polygon
// is derived from WallIDs on demand, never stored.
type Room struct {
	ID            RoomID   `json:"id"`
	Name          string   `json:"name"`
	WallIDs       []WallID `json:"wallIds"`
	CeilingHeight float64  `json:"ceilingHeight"`
}

func (r *Room) clone() *Room {
	c := *r
	c.WallIDs = append([]WallID(nil), r.WallIDs...)
	return &c
}
