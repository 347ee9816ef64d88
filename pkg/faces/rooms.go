package faces

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/lath/pkg/plan"
)

// DefaultCeilingHeight is assigned to newly discovered rooms, in meters.
const DefaultCeilingHeight = 2.8

// DetectRooms recomputes the room list for a document: it builds the planar
// graph from the walls, traces the bounded faces, and reconciles them
// against the document's current rooms so ids, names, and ceiling heights
// survive recomputation. The result replaces the room list wholesale.
func DetectRooms(d *plan.Document) []*plan.Room {
	g := BuildGraph(d.Walls, MergeEpsilon)
	return Reconcile(d.Rooms, g.RoomFaces(d.GridSize))
}

// wallSetKey builds an order- and rotation-independent identity for a face
// or room from its wall ids.
func wallSetKey(ids []plan.WallID) string {
	sorted := make([]string, len(ids))
	for i, id := range ids {
		sorted[i] = string(id)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

// Reconcile matches traced faces against the previous room list by wall-set
// identity. Matched faces keep their room's id, name, and ceiling height;
// unmatched faces become new rooms named "Room N" for the smallest N not
// already taken in this pass. Each previous room is claimed at most once, so
// duplicate wall sets in the trace can never yield duplicate room ids.
func Reconcile(prev []*plan.Room, traced []Face) []*plan.Room {
	known := make(map[string]*plan.Room, len(prev))
	for _, r := range prev {
		known[wallSetKey(r.WallIDs)] = r
	}

	rooms := make([]*plan.Room, 0, len(traced))
	taken := make(map[string]bool)

	// Matched rooms claim their names first so synthesized names cannot
	// collide with them regardless of face order.
	matched := make([]*plan.Room, len(traced))
	for i, f := range traced {
		key := wallSetKey(f.WallIDs)
		if r, ok := known[key]; ok {
			matched[i] = r
			taken[r.Name] = true
			delete(known, key)
		}
	}

	for i, f := range traced {
		if r := matched[i]; r != nil {
			keep := &plan.Room{
				ID:            r.ID,
				Name:          r.Name,
				WallIDs:       append([]plan.WallID(nil), f.WallIDs...),
				CeilingHeight: r.CeilingHeight,
			}
			rooms = append(rooms, keep)
			continue
		}
		name := nextRoomName(taken)
		taken[name] = true
		rooms = append(rooms, &plan.Room{
			ID:            plan.NewRoomID(),
			Name:          name,
			WallIDs:       append([]plan.WallID(nil), f.WallIDs...),
			CeilingHeight: DefaultCeilingHeight,
		})
	}
	return rooms
}

// nextRoomName returns "Room N" for the smallest positive N whose name is
// not yet taken.
func nextRoomName(taken map[string]bool) string {
	for n := 1; ; n++ {
		name := fmt.Sprintf("Room %d", n)
		if !taken[name] {
			return name
		}
	}
}
