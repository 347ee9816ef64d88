package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/chazu/lath/pkg/plan"
)

const gridSizeKey = "grid_size"

// Save atomically replaces the stored plan with d. The whole document is
// rewritten in one transaction, so a crash mid-save never leaves a mix of
// old and new entities.
func (db *DB) Save(d *plan.Document) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"openings", "walls", "rooms"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`,
		gridSizeKey, strconv.FormatFloat(d.GridSize, 'g', -1, 64),
	); err != nil {
		return fmt.Errorf("save grid size: %w", err)
	}

	for i, w := range d.Walls {
		photos, err := json.Marshal(w.Photos)
		if err != nil {
			return fmt.Errorf("marshal photos for wall %s: %w", w.ID, err)
		}
		constraints, err := json.Marshal(w.Constraints)
		if err != nil {
			return fmt.Errorf("marshal constraints for wall %s: %w", w.ID, err)
		}
		var uValue interface{}
		if w.UValue != nil {
			uValue = *w.UValue
		}
		if _, err := tx.Exec(
			`INSERT INTO walls (id, start_x, start_y, end_x, end_y, height, wall_type, structure, u_value, photos_json, constraints_json, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			w.ID, w.Start.X, w.Start.Y, w.End.X, w.End.Y, w.Height,
			w.Type.String(), w.Structure, uValue, string(photos), string(constraints), i,
		); err != nil {
			return fmt.Errorf("insert wall %s: %w", w.ID, err)
		}
	}

	for i, o := range d.Openings {
		if _, err := tx.Exec(
			`INSERT INTO openings (id, wall_id, kind, position, width, height, sill, u_value, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.WallID, o.Kind.String(), o.Position, o.Width, o.Height, o.Sill, o.UValue, i,
		); err != nil {
			return fmt.Errorf("insert opening %s: %w", o.ID, err)
		}
	}

	for i, r := range d.Rooms {
		wallIDs, err := json.Marshal(r.WallIDs)
		if err != nil {
			return fmt.Errorf("marshal wall ids for room %s: %w", r.ID, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO rooms (id, name, wall_ids_json, ceiling_height, sort_order)
			 VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.Name, string(wallIDs), r.CeilingHeight, i,
		); err != nil {
			return fmt.Errorf("insert room %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Load reads the stored plan. An empty project file loads as an empty
// document with the default grid size.
func (db *DB) Load() (*plan.Document, error) {
	gridSize, err := db.loadGridSize()
	if err != nil {
		return nil, err
	}

	walls, err := db.loadWalls()
	if err != nil {
		return nil, err
	}
	openings, err := db.loadOpenings()
	if err != nil {
		return nil, err
	}
	rooms, err := db.loadRooms()
	if err != nil {
		return nil, err
	}

	return plan.FromParts(gridSize, walls, openings, rooms), nil
}

func (db *DB) loadGridSize() (float64, error) {
	var raw string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, gridSizeKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return plan.DefaultGridSize, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load grid size: %w", err)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse grid size %q: %w", raw, err)
	}
	return f, nil
}

func (db *DB) loadWalls() ([]*plan.Wall, error) {
	rows, err := db.conn.Query(
		`SELECT id, start_x, start_y, end_x, end_y, height, wall_type, structure, u_value, photos_json, constraints_json
		 FROM walls ORDER BY sort_order ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("load walls: %w", err)
	}
	defer rows.Close()

	var walls []*plan.Wall
	for rows.Next() {
		w := &plan.Wall{}
		var wallType, photosJSON, constraintsJSON string
		var uValue sql.NullFloat64
		if err := rows.Scan(&w.ID, &w.Start.X, &w.Start.Y, &w.End.X, &w.End.Y, &w.Height,
			&wallType, &w.Structure, &uValue, &photosJSON, &constraintsJSON); err != nil {
			return nil, fmt.Errorf("scan wall: %w", err)
		}
		wt, ok := plan.ParseWallType(wallType)
		if !ok {
			return nil, fmt.Errorf("wall %s: unknown wall type %q", w.ID, wallType)
		}
		w.Type = wt
		if uValue.Valid {
			w.UValue = &uValue.Float64
		}
		if err := json.Unmarshal([]byte(photosJSON), &w.Photos); err != nil {
			return nil, fmt.Errorf("wall %s: photos: %w", w.ID, err)
		}
		if err := json.Unmarshal([]byte(constraintsJSON), &w.Constraints); err != nil {
			return nil, fmt.Errorf("wall %s: constraints: %w", w.ID, err)
		}
		walls = append(walls, w)
	}
	return walls, rows.Err()
}

func (db *DB) loadOpenings() ([]*plan.Opening, error) {
	rows, err := db.conn.Query(
		`SELECT id, wall_id, kind, position, width, height, sill, u_value
		 FROM openings ORDER BY sort_order ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("load openings: %w", err)
	}
	defer rows.Close()

	var openings []*plan.Opening
	for rows.Next() {
		o := &plan.Opening{}
		var kind string
		if err := rows.Scan(&o.ID, &o.WallID, &kind, &o.Position, &o.Width, &o.Height, &o.Sill, &o.UValue); err != nil {
			return nil, fmt.Errorf("scan opening: %w", err)
		}
		k, ok := plan.ParseOpeningKind(kind)
		if !ok {
			return nil, fmt.Errorf("opening %s: unknown kind %q", o.ID, kind)
		}
		o.Kind = k
		openings = append(openings, o)
	}
	return openings, rows.Err()
}

func (db *DB) loadRooms() ([]*plan.Room, error) {
	rows, err := db.conn.Query(
		`SELECT id, name, wall_ids_json, ceiling_height FROM rooms ORDER BY sort_order ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*plan.Room
	for rows.Next() {
		r := &plan.Room{}
		var wallIDsJSON string
		if err := rows.Scan(&r.ID, &r.Name, &wallIDsJSON, &r.CeilingHeight); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		if err := json.Unmarshal([]byte(wallIDsJSON), &r.WallIDs); err != nil {
			return nil, fmt.Errorf("room %s: wall ids: %w", r.ID, err)
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}
