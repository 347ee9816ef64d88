package plan

import (
	"errors"
	"fmt"

	"github.com/chazu/lath/pkg/geom"
)

// DefaultGridSize is the canvas scale in pixels per meter.
const DefaultGridSize = 100.0

// DefaultWallHeight is the wall height assigned when a command omits one.
const DefaultWallHeight = 2.5

// maxOpeningFraction is the largest share of a wall an opening may cover.
const maxOpeningFraction = 0.9

// Command rejection errors. These signal refused input, not failures; the
// document is unchanged when one is returned.
var (
	ErrZeroLengthWall  = errors.New("wall start and end coincide")
	ErrWallNotFound    = errors.New("wall not found")
	ErrOpeningNotFound = errors.New("opening not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrOpeningTooWide  = errors.New("opening wider than 90% of its wall")
	ErrOpeningOffWall  = errors.New("opening footprint outside the wall")
	ErrOpeningOverlap  = errors.New("opening overlaps another on the same wall")
	ErrDuplicateName   = errors.New("room name already in use")
)

// Document is a complete plan state: walls, openings, rooms, and the canvas
// scale. Commands never mutate a Document; they return a new one, so earlier
// states stay valid for undo and comparison.
type Document struct {
	GridSize float64
	Walls    []*Wall
	Openings []*Opening
	Rooms    []*Room

	wallIndex    map[WallID]*Wall
	openingIndex map[OpeningID]*Opening
	roomIndex    map[RoomID]*Room
}

// NewDocument returns an empty Document with the default grid size.
func NewDocument() *Document {
	d := &Document{GridSize: DefaultGridSize}
	d.reindex()
	return d
}

// FromParts assembles a Document from deserialized entities, rebuilding
// the id indexes. A non-positive grid size falls back to the default.
// Callers own the slices and must not mutate them afterwards.
func FromParts(gridSize float64, walls []*Wall, openings []*Opening, rooms []*Room) *Document {
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}
	d := &Document{
		GridSize: gridSize,
		Walls:    walls,
		Openings: openings,
		Rooms:    rooms,
	}
	d.reindex()
	return d
}

// reindex rebuilds the id lookup maps from the slices.
func (d *Document) reindex() {
	d.wallIndex = make(map[WallID]*Wall, len(d.Walls))
	for _, w := range d.Walls {
		d.wallIndex[w.ID] = w
	}
	d.openingIndex = make(map[OpeningID]*Opening, len(d.Openings))
	for _, o := range d.Openings {
		d.openingIndex[o.ID] = o
	}
	d.roomIndex = make(map[RoomID]*Room, len(d.Rooms))
	for _, r := range d.Rooms {
		d.roomIndex[r.ID] = r
	}
}

// shallowCopy returns a new Document sharing entity pointers with d.
// Callers must clone any entity before modifying it.
func (d *Document) shallowCopy() *Document {
	c := &Document{
		GridSize: d.GridSize,
		Walls:    append([]*Wall(nil), d.Walls...),
		Openings: append([]*Opening(nil), d.Openings...),
		Rooms:    append([]*Room(nil), d.Rooms...),
	}
	c.reindex()
	return c
}

// Wall returns the wall with the given id, or nil.
func (d *Document) Wall(id WallID) *Wall { return d.wallIndex[id] }

// Opening returns the opening with the given id, or nil.
func (d *Document) Opening(id OpeningID) *Opening { return d.openingIndex[id] }

// Room returns the room with the given id, or nil.
func (d *Document) Room(id RoomID) *Room { return d.roomIndex[id] }

// WallOpenings returns the openings hosted on the given wall.
func (d *Document) WallOpenings(id WallID) []*Opening {
	var out []*Opening
	for _, o := range d.Openings {
		if o.WallID == id {
			out = append(out, o)
		}
	}
	return out
}

// ConnectedWalls returns the walls other than id that share an endpoint
// with it, within the graph merge tolerance. The UI offers these as
// reference targets for perpendicular/parallel constraints.
func (d *Document) ConnectedWalls(id WallID, epsilon float64) []*Wall {
	w := d.Wall(id)
	if w == nil {
		return nil
	}
	var out []*Wall
	for _, other := range d.Walls {
		if other.ID == id {
			continue
		}
		if geom.Dist(w.Start, other.Start) < epsilon ||
			geom.Dist(w.Start, other.End) < epsilon ||
			geom.Dist(w.End, other.Start) < epsilon ||
			geom.Dist(w.End, other.End) < epsilon {
			out = append(out, other)
		}
	}
	return out
}

// WallSpec carries the caller-supplied fields for CreateWall.
type WallSpec struct {
	Start     geom.Vec2
	End       geom.Vec2
	Height    float64
	Type      WallType
	Structure string
	UValue    *float64
}

// CreateWall adds a wall to the plan. If either endpoint lands on the
// interior of an existing wall, that wall is split first (§ wall splitting).
// Returns the new document and the id of the created wall.
func (d *Document) CreateWall(spec WallSpec) (*Document, WallID, error) {
	if geom.Dist(spec.Start, spec.End) < geom.Eps {
		return d, "", ErrZeroLengthWall
	}
	height := spec.Height
	if height == 0 {
		height = DefaultWallHeight
	}
	w := &Wall{
		ID:        NewWallID(),
		Start:     spec.Start,
		End:       spec.End,
		Height:    height,
		Type:      spec.Type,
		Structure: spec.Structure,
		UValue:    spec.UValue,
	}

	next := d.shallowCopy()
	if q, ok := next.splitAt(w.Start); ok {
		w.Start = q
	}
	if q, ok := next.splitAt(w.End); ok {
		w.End = q
	}
	next.Walls = append(next.Walls, w)
	next.reindex()
	return next, w.ID, nil
}

// WallUpdate carries the optional fields for UpdateWall. Nil fields are
// left unchanged.
type WallUpdate struct {
	Start       *geom.Vec2
	End         *geom.Vec2
	Height      *float64
	Type        *WallType
	Structure   *string
	UValue      **float64
	Photos      *[]Photo
	Constraints *Constraints

	// MovingStart marks Start as the endpoint being dragged, making End
	// the constraint anchor. Default is the reverse.
	MovingStart bool
}

// UpdateWall applies a partial update to a wall. When an endpoint moves and
// the wall carries constraints, the solver corrects the moving endpoint
// before the update is committed.
func (d *Document) UpdateWall(id WallID, u WallUpdate) (*Document, error) {
	if d.Wall(id) == nil {
		return d, fmt.Errorf("%w: %s", ErrWallNotFound, id)
	}

	next := d.shallowCopy()
	w := next.Wall(id).clone()

	if u.Start != nil {
		w.Start = *u.Start
	}
	if u.End != nil {
		w.End = *u.End
	}
	if u.Height != nil {
		w.Height = *u.Height
	}
	if u.Type != nil {
		w.Type = *u.Type
	}
	if u.Structure != nil {
		w.Structure = *u.Structure
	}
	if u.UValue != nil {
		w.UValue = *u.UValue
	}
	if u.Photos != nil {
		w.Photos = append([]Photo(nil), (*u.Photos)...)
	}
	if u.Constraints != nil {
		w.Constraints = append(Constraints(nil), (*u.Constraints)...)
	}

	if geom.Dist(w.Start, w.End) < geom.Eps {
		return d, ErrZeroLengthWall
	}

	if (u.Start != nil || u.End != nil) && len(w.Constraints) > 0 {
		movingStart := u.MovingStart || (u.Start != nil && u.End == nil)
		corrected := Solve(w, next.Wall, next.GridSize, movingStart)
		if movingStart {
			w.Start = corrected
		} else {
			w.End = corrected
		}
	}

	for i, old := range next.Walls {
		if old.ID == id {
			next.Walls[i] = w
			break
		}
	}
	next.reindex()
	return next, nil
}

// DeleteWall removes a wall and cascades to its openings. Rooms that
// reference the wall are left for the next recomputation to resolve.
func (d *Document) DeleteWall(id WallID) (*Document, error) {
	if d.Wall(id) == nil {
		return d, fmt.Errorf("%w: %s", ErrWallNotFound, id)
	}
	next := d.shallowCopy()
	next.Walls = removeWall(next.Walls, id)
	kept := next.Openings[:0:0]
	for _, o := range next.Openings {
		if o.WallID != id {
			kept = append(kept, o)
		}
	}
	next.Openings = kept
	next.reindex()
	return next, nil
}

func removeWall(walls []*Wall, id WallID) []*Wall {
	out := walls[:0:0]
	for _, w := range walls {
		if w.ID != id {
			out = append(out, w)
		}
	}
	return out
}

// OpeningSpec carries the caller-supplied fields for CreateOpening.
type OpeningSpec struct {
	WallID   WallID
	Kind     OpeningKind
	Position float64
	Width    float64
	Height   float64
	Sill     float64
	UValue   float64
}

// CreateOpening places a window or door on a wall. The opening is refused
// when it is wider than 90% of the wall, when its footprint leaves the
// wall, or when it overlaps another opening on the same wall.
func (d *Document) CreateOpening(spec OpeningSpec) (*Document, OpeningID, error) {
	w := d.Wall(spec.WallID)
	if w == nil {
		return d, "", fmt.Errorf("%w: %s", ErrWallNotFound, spec.WallID)
	}
	o := &Opening{
		ID:       NewOpeningID(),
		Kind:     spec.Kind,
		WallID:   spec.WallID,
		Position: spec.Position,
		Width:    spec.Width,
		Height:   spec.Height,
		Sill:     spec.Sill,
		UValue:   spec.UValue,
	}
	if err := d.checkOpening(o, ""); err != nil {
		return d, "", err
	}
	next := d.shallowCopy()
	next.Openings = append(next.Openings, o)
	next.reindex()
	return next, o.ID, nil
}

// OpeningUpdate carries the optional fields for UpdateOpening.
type OpeningUpdate struct {
	Kind     *OpeningKind
	Position *float64
	Width    *float64
	Height   *float64
	Sill     *float64
	UValue   *float64
}

// UpdateOpening applies a partial update, re-running placement checks.
func (d *Document) UpdateOpening(id OpeningID, u OpeningUpdate) (*Document, error) {
	cur := d.Opening(id)
	if cur == nil {
		return d, fmt.Errorf("%w: %s", ErrOpeningNotFound, id)
	}
	o := cur.clone()
	if u.Kind != nil {
		o.Kind = *u.Kind
	}
	if u.Position != nil {
		o.Position = *u.Position
	}
	if u.Width != nil {
		o.Width = *u.Width
	}
	if u.Height != nil {
		o.Height = *u.Height
	}
	if u.Sill != nil {
		o.Sill = *u.Sill
	}
	if u.UValue != nil {
		o.UValue = *u.UValue
	}
	if err := d.checkOpening(o, id); err != nil {
		return d, err
	}
	next := d.shallowCopy()
	for i, old := range next.Openings {
		if old.ID == id {
			next.Openings[i] = o
			break
		}
	}
	next.reindex()
	return next, nil
}

// DeleteOpening removes an opening.
func (d *Document) DeleteOpening(id OpeningID) (*Document, error) {
	if d.Opening(id) == nil {
		return d, fmt.Errorf("%w: %s", ErrOpeningNotFound, id)
	}
	next := d.shallowCopy()
	kept := next.Openings[:0:0]
	for _, o := range next.Openings {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	next.Openings = kept
	next.reindex()
	return next, nil
}

// checkOpening validates an opening's placement on its wall. skip names an
// opening id excluded from the overlap check (the one being updated).
func (d *Document) checkOpening(o *Opening, skip OpeningID) error {
	w := d.Wall(o.WallID)
	if w == nil {
		return fmt.Errorf("%w: %s", ErrWallNotFound, o.WallID)
	}
	wallLen := w.Length()
	if o.Width*d.GridSize > wallLen*maxOpeningFraction {
		return ErrOpeningTooWide
	}
	lo, hi := o.Footprint(wallLen, d.GridSize)
	if lo < 0 || hi > 1 {
		return ErrOpeningOffWall
	}
	for _, other := range d.Openings {
		if other.WallID != o.WallID || other.ID == skip || other.ID == o.ID {
			continue
		}
		olo, ohi := other.Footprint(wallLen, d.GridSize)
		if lo < ohi && olo < hi {
			return ErrOpeningOverlap
		}
	}
	return nil
}

// SetRooms replaces the room list, typically with the output of a face
// recomputation.
func (d *Document) SetRooms(rooms []*Room) *Document {
	next := d.shallowCopy()
	next.Rooms = rooms
	next.reindex()
	return next
}

// RenameRoom changes a room's name. Names must stay unique across rooms.
func (d *Document) RenameRoom(id RoomID, name string) (*Document, error) {
	if d.Room(id) == nil {
		return d, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	for _, r := range d.Rooms {
		if r.ID != id && r.Name == name {
			return d, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}
	next := d.shallowCopy()
	r := next.Room(id).clone()
	r.Name = name
	for i, old := range next.Rooms {
		if old.ID == id {
			next.Rooms[i] = r
			break
		}
	}
	next.reindex()
	return next, nil
}

// SetRoomCeiling changes a room's ceiling height in meters.
func (d *Document) SetRoomCeiling(id RoomID, height float64) (*Document, error) {
	if d.Room(id) == nil {
		return d, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	next := d.shallowCopy()
	r := next.Room(id).clone()
	r.CeilingHeight = height
	for i, old := range next.Rooms {
		if old.ID == id {
			next.Rooms[i] = r
			break
		}
	}
	next.reindex()
	return next, nil
}

// RoomPolygon reconstructs a room's polygon by chaining its walls through
// shared endpoints. ok is false when a wall is missing or the chain does
// not connect.
func (d *Document) RoomPolygon(r *Room) (pts []geom.Vec2, ok bool) {
	if len(r.WallIDs) < 3 {
		return nil, false
	}
	first := d.Wall(r.WallIDs[0])
	if first == nil {
		return nil, false
	}
	pts = append(pts, first.Start)
	cur := first.End

	// Orient the first wall by peeking at the second.
	if second := d.Wall(r.WallIDs[1]); second != nil {
		d0 := min4(geom.Dist(first.End, second.Start), geom.Dist(first.End, second.End),
			geom.Dist(first.Start, second.Start), geom.Dist(first.Start, second.End))
		if d0 == geom.Dist(first.Start, second.Start) || d0 == geom.Dist(first.Start, second.End) {
			pts[0] = first.End
			cur = first.Start
		}
	}

	for _, id := range r.WallIDs[1:] {
		w := d.Wall(id)
		if w == nil {
			return nil, false
		}
		pts = append(pts, cur)
		if geom.Dist(cur, w.Start) <= geom.Dist(cur, w.End) {
			cur = w.End
		} else {
			cur = w.Start
		}
	}
	return pts, true
}

func min4(a, b, c, d float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	if d < m {
		m = d
	}
	return m
}

// RoomArea returns the room's floor area in square meters, derived from
// its polygon. Returns 0 when the polygon cannot be reconstructed.
func (d *Document) RoomArea(r *Room) float64 {
	pts, ok := d.RoomPolygon(r)
	if !ok {
		return 0
	}
	px := geom.PolygonArea(pts)
	if px < 0 {
		px = -px
	}
	return px / (d.GridSize * d.GridSize)
}
