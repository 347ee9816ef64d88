package plan

import (
	"fmt"

	"github.com/chazu/lath/pkg/geom"
)

// ValidationSeverity indicates whether a finding blocks export or is
// merely advisory.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks export
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	EntityID string             // wall/opening/room id (empty if document-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.EntityID == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.EntityID, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	EntityID string
	Message  string
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// Validate runs all document checks: wall geometry, opening placement and
// references, constraint references, and room integrity. It is read-only
// and never mutates the document.
func Validate(d *Document) ValidationResult {
	var res ValidationResult

	findings := validateWalls(d)
	findings = append(findings, validateOpenings(d)...)
	findings = append(findings, validateRooms(d)...)

	for _, f := range findings {
		if f.Severity == SeverityWarning {
			res.Warnings = append(res.Warnings, ValidationWarning{
				EntityID: f.EntityID,
				Message:  f.Message,
			})
		} else {
			res.Errors = append(res.Errors, f)
		}
	}
	return res
}

// validateWalls checks wall geometry and constraint references.
func validateWalls(d *Document) []ValidationError {
	var errs []ValidationError

	for _, w := range d.Walls {
		if w.Length() < geom.Eps {
			errs = append(errs, ValidationError{
				EntityID: string(w.ID),
				Message:  "wall has zero length",
				Severity: SeverityError,
			})
		}
		for _, c := range w.Constraints {
			var ref WallID
			switch v := c.(type) {
			case Perpendicular:
				ref = v.Ref
			case Parallel:
				ref = v.Ref
			default:
				continue
			}
			if d.Wall(ref) == nil {
				errs = append(errs, ValidationError{
					EntityID: string(w.ID),
					Message:  fmt.Sprintf("constraint references missing wall %s; the constraint is inert", ref),
					Severity: SeverityWarning,
				})
			} else if ref == w.ID {
				errs = append(errs, ValidationError{
					EntityID: string(w.ID),
					Message:  "constraint references its own wall",
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}

// validateOpenings checks opening references and footprints, including
// pairwise overlap on each wall.
func validateOpenings(d *Document) []ValidationError {
	var errs []ValidationError

	byWall := make(map[WallID][]*Opening)
	for _, o := range d.Openings {
		w := d.Wall(o.WallID)
		if w == nil {
			errs = append(errs, ValidationError{
				EntityID: string(o.ID),
				Message:  fmt.Sprintf("opening references missing wall %s", o.WallID),
				Severity: SeverityError,
			})
			continue
		}
		lo, hi := o.Footprint(w.Length(), d.GridSize)
		if lo < 0 || hi > 1 {
			errs = append(errs, ValidationError{
				EntityID: string(o.ID),
				Message:  fmt.Sprintf("opening footprint [%.3f, %.3f] leaves the wall", lo, hi),
				Severity: SeverityError,
			})
		}
		byWall[o.WallID] = append(byWall[o.WallID], o)
	}

	for wid, list := range byWall {
		w := d.Wall(wid)
		for i := 0; i < len(list); i++ {
			ilo, ihi := list[i].Footprint(w.Length(), d.GridSize)
			for j := i + 1; j < len(list); j++ {
				jlo, jhi := list[j].Footprint(w.Length(), d.GridSize)
				if ilo < jhi && jlo < ihi {
					errs = append(errs, ValidationError{
						EntityID: string(list[j].ID),
						Message:  fmt.Sprintf("opening overlaps %s on wall %s", list[i].ID, wid),
						Severity: SeverityError,
					})
				}
			}
		}
	}

	return errs
}

// validateRooms checks name uniqueness, wall references, and that each
// room's wall loop still chains into a closed polygon.
func validateRooms(d *Document) []ValidationError {
	var errs []ValidationError

	names := make(map[string]RoomID)
	for _, r := range d.Rooms {
		if prev, ok := names[r.Name]; ok {
			errs = append(errs, ValidationError{
				EntityID: string(r.ID),
				Message:  fmt.Sprintf("room name %q already used by room %s", r.Name, prev),
				Severity: SeverityError,
			})
		} else {
			names[r.Name] = r.ID
		}

		missing := false
		for _, wid := range r.WallIDs {
			if d.Wall(wid) == nil {
				errs = append(errs, ValidationError{
					EntityID: string(r.ID),
					Message:  fmt.Sprintf("room references missing wall %s", wid),
					Severity: SeverityError,
				})
				missing = true
			}
		}
		if missing {
			continue
		}

		if _, ok := d.RoomPolygon(r); !ok {
			errs = append(errs, ValidationError{
				EntityID: string(r.ID),
				Message:  "room walls no longer chain into a closed polygon",
				Severity: SeverityWarning,
			})
		}
	}

	return errs
}
