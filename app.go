package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/chazu/lath/pkg/engine"
	"github.com/chazu/lath/pkg/extrude"
	"github.com/chazu/lath/pkg/faces"
	"github.com/chazu/lath/pkg/geom"
	"github.com/chazu/lath/pkg/kernel"
	"github.com/chazu/lath/pkg/kernel/sdfx"
	"github.com/chazu/lath/pkg/plan"
	"github.com/chazu/lath/pkg/store"
)

// wallColors maps wall types to preview colors; unknown types fall back
// to the internal color.
var wallColors = map[plan.WallType]string{
	plan.WallExternal: "#4A90D9",
	plan.WallInternal: "#2ECC71",
	plan.WallUnheated: "#E67E22",
}

const defaultWallColor = "#95A5A6"

// App is the Wails backend. It holds the current document and exposes the
// plan commands to the frontend via bindings. Documents are immutable;
// every command swaps in the new state and keeps the old one for undo.
type App struct {
	ctx context.Context

	mu      sync.Mutex
	doc     *plan.Document
	history []*plan.Document

	engine *engine.Engine
	kernel kernel.Kernel
	db     *store.DB
}

// maxHistory bounds the undo stack.
const maxHistory = 200

// NewApp creates a new App with an empty plan, the scripting engine, and
// the sdfx kernel.
func NewApp() *App {
	return &App{
		doc:    plan.NewDocument(),
		engine: engine.NewEngine(),
		kernel: sdfx.New(),
	}
}

// startup is called by Wails on app startup. It opens the project file
// and restores the last saved plan.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("no home directory, running without persistence: %v", err)
		return
	}
	dbPath := filepath.Join(homeDir, ".local", "share", "lath", "project.lath")

	db, err := store.Open(dbPath)
	if err != nil {
		log.Printf("open project file: %v", err)
		return
	}
	a.db = db

	doc, err := db.Load()
	if err != nil {
		log.Printf("load project: %v", err)
		return
	}
	// Rooms are revalidated against a fresh traversal; stored names are
	// claimed by matching wall sets.
	a.mu.Lock()
	a.doc = doc.SetRooms(faces.DetectRooms(doc))
	a.mu.Unlock()
}

// shutdown saves the current plan and closes the project file.
func (a *App) shutdown(ctx context.Context) {
	if a.db == nil {
		return
	}
	a.mu.Lock()
	doc := a.doc
	a.mu.Unlock()

	if err := a.db.Save(doc); err != nil {
		log.Printf("save project: %v", err)
	}
	if err := a.db.Close(); err != nil {
		log.Printf("close project file: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Snapshots and DTOs
// ---------------------------------------------------------------------------

// DocumentData is the full plan snapshot sent to the frontend after every
// command.
type DocumentData struct {
	GridSize float64         `json:"gridSize"`
	Walls    []*plan.Wall    `json:"walls"`
	Openings []*plan.Opening `json:"openings"`
	Rooms    []RoomInfo      `json:"rooms"`
}

// RoomInfo augments a room with its derived metrics: floor area in square
// meters and the label anchor point (vertex mean, canvas pixels).
type RoomInfo struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	WallIDs       []plan.WallID `json:"wallIds"`
	CeilingHeight float64       `json:"ceilingHeight"`
	AreaM2        float64       `json:"areaM2"`
	Centroid      geom.Vec2     `json:"centroid"`
	Polygon       []geom.Vec2   `json:"polygon"`
}

// ValidationData is the JSON shape of a validation run.
type ValidationData struct {
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

// ValidationIssue is one finding.
type ValidationIssue struct {
	EntityID string `json:"entityId"`
	Message  string `json:"message"`
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	WallID   string    `json:"wallId"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable script error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// ScriptResult is returned by EvaluateScript.
type ScriptResult struct {
	Document *DocumentData   `json:"document"`
	Errors   []EvalErrorData `json:"errors"`
}

// snapshot builds a DocumentData from d. Callers hold a.mu or own d.
func snapshot(d *plan.Document) DocumentData {
	out := DocumentData{
		GridSize: d.GridSize,
		Walls:    d.Walls,
		Openings: d.Openings,
		Rooms:    make([]RoomInfo, 0, len(d.Rooms)),
	}
	for _, r := range d.Rooms {
		out.Rooms = append(out.Rooms, roomInfo(d, r))
	}
	return out
}

func roomInfo(d *plan.Document, r *plan.Room) RoomInfo {
	info := RoomInfo{
		ID:            string(r.ID),
		Name:          r.Name,
		WallIDs:       r.WallIDs,
		CeilingHeight: r.CeilingHeight,
		AreaM2:        d.RoomArea(r),
	}
	if pts, ok := d.RoomPolygon(r); ok {
		info.Polygon = pts
		info.Centroid = geom.Centroid(pts)
	}
	return info
}

// ---------------------------------------------------------------------------
// Command plumbing
// ---------------------------------------------------------------------------

// commit installs next as the current document, pushes the previous state
// onto the undo stack, and recomputes rooms when the wall topology may
// have changed.
func (a *App) commit(next *plan.Document, topologyChanged bool) DocumentData {
	if topologyChanged {
		next = next.SetRooms(faces.DetectRooms(next))
	}
	a.history = append(a.history, a.doc)
	if len(a.history) > maxHistory {
		a.history = a.history[len(a.history)-maxHistory:]
	}
	a.doc = next
	return snapshot(next)
}

// Document returns the current plan snapshot.
func (a *App) Document() DocumentData {
	a.mu.Lock()
	defer a.mu.Unlock()
	return snapshot(a.doc)
}

// Undo reverts the last command. It is a no-op on an empty history.
func (a *App) Undo() DocumentData {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.history); n > 0 {
		a.doc = a.history[n-1]
		a.history = a.history[:n-1]
	}
	return snapshot(a.doc)
}

// ---------------------------------------------------------------------------
// Wall commands
// ---------------------------------------------------------------------------

// CreateWallRequest carries the frontend's CreateWall fields.
type CreateWallRequest struct {
	Start     geom.Vec2 `json:"start"`
	End       geom.Vec2 `json:"end"`
	Height    float64   `json:"height"`
	Type      string    `json:"wallType"`
	Structure string    `json:"structureType"`
	UValue    *float64  `json:"uValue"`
}

// CreateWall adds a wall, splitting any wall an endpoint lands on.
func (a *App) CreateWall(req CreateWallRequest) (DocumentData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	wt, ok := plan.ParseWallType(req.Type)
	if !ok {
		return snapshot(a.doc), fmt.Errorf("unknown wall type %q", req.Type)
	}
	next, _, err := a.doc.CreateWall(plan.WallSpec{
		Start:     req.Start,
		End:       req.End,
		Height:    req.Height,
		Type:      wt,
		Structure: req.Structure,
		UValue:    req.UValue,
	})
	if err != nil {
		return snapshot(a.doc), err
	}
	return a.commit(next, true), nil
}

// UpdateWallRequest carries a partial wall update. Nil fields are left
// unchanged. The wall's U-value is itself nullable, so UValue sets it and
// ClearUValue nulls it out.
type UpdateWallRequest struct {
	Start       *geom.Vec2        `json:"start"`
	End         *geom.Vec2        `json:"end"`
	Height      *float64          `json:"height"`
	Type        *string           `json:"wallType"`
	Structure   *string           `json:"structureType"`
	UValue      *float64          `json:"uValue"`
	ClearUValue bool              `json:"clearUValue"`
	Photos      *[]plan.Photo     `json:"photos"`
	Constraints *plan.Constraints `json:"constraints"`
	MovingStart bool              `json:"movingStart"`
}

// UpdateWall applies a partial update. When an endpoint moves on a
// constrained wall, the solver corrects the moving endpoint first.
func (a *App) UpdateWall(id string, req UpdateWallRequest) (DocumentData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	u := plan.WallUpdate{
		Start:       req.Start,
		End:         req.End,
		Height:      req.Height,
		Structure:   req.Structure,
		Photos:      req.Photos,
		Constraints: req.Constraints,
		MovingStart: req.MovingStart,
	}
	if req.Type != nil {
		wt, ok := plan.ParseWallType(*req.Type)
		if !ok {
			return snapshot(a.doc), fmt.Errorf("unknown wall type %q", *req.Type)
		}
		u.Type = &wt
	}
	switch {
	case req.ClearUValue:
		var cleared *float64
		u.UValue = &cleared
	case req.UValue != nil:
		u.UValue = &req.UValue
	}

	next, err := a.doc.UpdateWall(plan.WallID(id), u)
	if err != nil {
		return snapshot(a.doc), err
	}
	moved := req.Start != nil || req.End != nil
	return a.commit(next, moved), nil
}

// DeleteWall removes a wall and its openings.
func (a *App) DeleteWall(id string) (DocumentData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next, err := a.doc.DeleteWall(plan.WallID(id))
	if err != nil {
		return snapshot(a.doc), err
	}
	return a.commit(next, true), nil
}

// ConnectedWalls returns the walls sharing an endpoint with id, the
// candidates for perpendicular/parallel references.
func (a *App) ConnectedWalls(id string) []*plan.Wall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.doc.ConnectedWalls(plan.WallID(id), faces.MergeEpsilon)
}

// ---------------------------------------------------------------------------
// Opening commands
// ---------------------------------------------------------------------------

// OpeningRequest carries the frontend's opening fields.
type OpeningRequest struct {
	WallID   string  `json:"wallId"`
	Kind     string  `json:"type"`
	Position float64 `json:"position"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Sill     float64 `json:"sillHeight"`
	UValue   float64 `json:"uValue"`
}

// CreateOpening places a window or door on a wall.
func (a *App) CreateOpening(req OpeningRequest) (DocumentData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	kind, ok := plan.ParseOpeningKind(req.Kind)
	if !ok {
		return snapshot(a.doc), fmt.Errorf("unknown opening kind %q", req.Kind)
	}
	next, _, err := a.doc.CreateOpening(plan.OpeningSpec{
		WallID:   plan.WallID(req.WallID),
		Kind:     kind,
		Position: req.Position,
		Width:    req.Width,
		Height:   req.Height,
		Sill:     req.Sill,
		UValue:   req.UValue,
	})
	if err != nil {
		return snapshot(a.doc), err
	}
	return a.commit(next, false), nil
}

// UpdateOpeningRequest carries a partial opening update.
type UpdateOpeningRequest struct {
	Kind     *string  `json:"type"`
	Position *float64 `json:"position"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	Sill     *float64 `json:"sillHeight"`
	UValue   *float64 `json:"uValue"`
}

// UpdateOpening applies a partial update, re-running placement checks.
func (a *App) UpdateOpening(id string, req UpdateOpeningRequest) (DocumentData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	u := plan.OpeningUpdate{
		Position: req.Position,
		Width:    req.Width,
		Height:   req.Height,
		Sill:     req.Sill,
		UValue:   req.UValue,
	}
	if req.Kind != nil {
		kind, ok := plan.ParseOpeningKind(*req.Kind)
		if !ok {
			return snapshot(a.doc), fmt.Errorf("unknown opening kind %q", *req.Kind)
		}
		u.Kind = &kind
	}

	next, err := a.doc.UpdateOpening(plan.OpeningID(id), u)
	if err != nil {
		return snapshot(a.doc), err
	}
	return a.commit(next, false), nil
}

// DeleteOpening removes an opening.
func (a *App) DeleteOpening(id string) (DocumentData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next, err := a.doc.DeleteOpening(plan.OpeningID(id))
	if err != nil {
		return snapshot(a.doc), err
	}
	return a.commit(next, false), nil
}

// ---------------------------------------------------------------------------
// Room commands
// ---------------------------------------------------------------------------

// RenameRoom changes a room's name; names stay unique.
func (a *App) RenameRoom(id, name string) (DocumentData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next, err := a.doc.RenameRoom(plan.RoomID(id), name)
	if err != nil {
		return snapshot(a.doc), err
	}
	return a.commit(next, false), nil
}

// SetRoomCeiling changes a room's ceiling height in meters.
func (a *App) SetRoomCeiling(id string, height float64) (DocumentData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next, err := a.doc.SetRoomCeiling(plan.RoomID(id), height)
	if err != nil {
		return snapshot(a.doc), err
	}
	return a.commit(next, false), nil
}

// Rooms returns the current rooms with their derived metrics.
func (a *App) Rooms() []RoomInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]RoomInfo, 0, len(a.doc.Rooms))
	for _, r := range a.doc.Rooms {
		out = append(out, roomInfo(a.doc, r))
	}
	return out
}

// ---------------------------------------------------------------------------
// Validation, scripting, preview
// ---------------------------------------------------------------------------

// Validate runs all document checks and returns the findings.
func (a *App) Validate() ValidationData {
	a.mu.Lock()
	defer a.mu.Unlock()

	res := plan.Validate(a.doc)
	out := ValidationData{
		Errors:   make([]ValidationIssue, 0, len(res.Errors)),
		Warnings: make([]ValidationIssue, 0, len(res.Warnings)),
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, ValidationIssue{EntityID: e.EntityID, Message: e.Message})
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, ValidationIssue{EntityID: w.EntityID, Message: w.Message})
	}
	return out
}

// EvaluateScript evaluates Lisp source into a fresh plan. On success the
// result replaces the current document; on script errors the document is
// left untouched and the errors are returned for the editor gutter.
func (a *App) EvaluateScript(source string) ScriptResult {
	result := ScriptResult{Errors: []EvalErrorData{}}

	doc, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		log.Printf("EvaluateScript fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	data := a.commit(doc, true)
	result.Document = &data
	return result
}

// PreviewMeshes extrudes the current plan into per-wall meshes for the 3D
// viewport, colored by wall type.
func (a *App) PreviewMeshes() ([]MeshData, error) {
	a.mu.Lock()
	doc := a.doc
	a.mu.Unlock()

	meshes, err := extrude.Extrude(doc, a.kernel)
	if err != nil {
		log.Printf("PreviewMeshes: %v", err)
		return nil, err
	}

	out := make([]MeshData, 0, len(meshes))
	for _, m := range meshes {
		color := defaultWallColor
		if w := doc.Wall(plan.WallID(m.Label)); w != nil {
			if c, ok := wallColors[w.Type]; ok {
				color = c
			}
		}
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			WallID:   m.Label,
			Color:    color,
		})
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

// SaveProject writes the current plan to the project file.
func (a *App) SaveProject() error {
	if a.db == nil {
		return fmt.Errorf("no project file open")
	}
	a.mu.Lock()
	doc := a.doc
	a.mu.Unlock()
	return a.db.Save(doc)
}

// ExportDocument serializes the current plan to JSON.
func (a *App) ExportDocument() (string, error) {
	a.mu.Lock()
	doc := a.doc
	a.mu.Unlock()

	data, err := store.ExportJSON(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ImportDocument replaces the current plan with a previously exported
// one. Rooms are revalidated against a fresh traversal so stale loops
// from the file never survive the import.
func (a *App) ImportDocument(jsonText string) (DocumentData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	doc, err := store.ImportJSON([]byte(jsonText))
	if err != nil {
		return snapshot(a.doc), err
	}
	return a.commit(doc, true), nil
}
