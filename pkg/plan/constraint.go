package plan

import (
	"encoding/json"
	"fmt"
)

// Constraint restricts how a wall's moving endpoint may be placed relative
// to its anchor endpoint. Each variant carries only the fields that are
// meaningful for it, so invalid combinations are unrepresentable.
type Constraint interface {
	constraint() // marker method restricting implementations to this package
}

// Horizontal clamps the moving endpoint's Y to the anchor's Y.
type Horizontal struct{}

// Vertical clamps the moving endpoint's X to the anchor's X.
type Vertical struct{}

// FixedLength pins the wall to a declared length in meters.
type FixedLength struct {
	Meters float64
}

// Perpendicular keeps the wall orthogonal to a reference wall's direction.
type Perpendicular struct {
	Ref WallID
}

// Parallel keeps the wall aligned with a reference wall's direction.
type Parallel struct {
	Ref WallID
}

func (Horizontal) constraint()    {}
func (Vertical) constraint()      {}
func (FixedLength) constraint()   {}
func (Perpendicular) constraint() {}
func (Parallel) constraint()      {}

// constraintWire is the persisted shape of a constraint: a type tag plus
// the variant's payload fields.
type constraintWire struct {
	Type   string   `json:"type"`
	Ref    WallID   `json:"refWallId,omitempty"`
	Length *float64 `json:"fixedLengthM,omitempty"`
}

// MarshalConstraint encodes a constraint into its wire form.
func MarshalConstraint(c Constraint) ([]byte, error) {
	var w constraintWire
	switch v := c.(type) {
	case Horizontal:
		w.Type = "horizontal"
	case Vertical:
		w.Type = "vertical"
	case FixedLength:
		w.Type = "fixedLength"
		w.Length = &v.Meters
	case Perpendicular:
		w.Type = "perpendicular"
		w.Ref = v.Ref
	case Parallel:
		w.Type = "parallel"
		w.Ref = v.Ref
	default:
		return nil, fmt.Errorf("unknown constraint type %T", c)
	}
	return json.Marshal(w)
}

// UnmarshalConstraint decodes a constraint from its wire form.
func UnmarshalConstraint(data []byte) (Constraint, error) {
	var w constraintWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch w.Type {
	case "horizontal":
		return Horizontal{}, nil
	case "vertical":
		return Vertical{}, nil
	case "fixedLength":
		if w.Length == nil {
			return nil, fmt.Errorf("fixedLength constraint missing fixedLengthM")
		}
		return FixedLength{Meters: *w.Length}, nil
	case "perpendicular":
		if w.Ref == "" {
			return nil, fmt.Errorf("perpendicular constraint missing refWallId")
		}
		return Perpendicular{Ref: w.Ref}, nil
	case "parallel":
		if w.Ref == "" {
			return nil, fmt.Errorf("parallel constraint missing refWallId")
		}
		return Parallel{Ref: w.Ref}, nil
	}
	return nil, fmt.Errorf("unknown constraint type %q", w.Type)
}

// Constraints is a wall's ordered constraint list. The slice type carries
// the wire codec so walls serialize the same way over bindings and storage.
type Constraints []Constraint

// MarshalJSON encodes the list as an array of tagged wire objects.
func (cs Constraints) MarshalJSON() ([]byte, error) {
	raw := make([]json.RawMessage, 0, len(cs))
	for _, c := range cs {
		b, err := MarshalConstraint(c)
		if err != nil {
			return nil, err
		}
		raw = append(raw, b)
	}
	return json.Marshal(raw)
}

// UnmarshalJSON decodes an array of tagged wire objects.
func (cs *Constraints) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Constraints, 0, len(raw))
	for i, r := range raw {
		c, err := UnmarshalConstraint(r)
		if err != nil {
			return fmt.Errorf("constraint %d: %w", i, err)
		}
		out = append(out, c)
	}
	*cs = out
	return nil
}
