package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/lath/pkg/geom"
	"github.com/chazu/lath/pkg/plan"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms Lath Lisp source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: grid-size -> grid_size
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus
		// operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec2 wraps a canvas point (pixels).
type sexpVec2 struct {
	vec geom.Vec2
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %.1f %.1f)", v.vec.X, v.vec.Y)
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

// sexpWallRef wraps a plan.WallID so walls can be referenced by later
// forms (openings, perpendicular/parallel constraints).
type sexpWallRef struct {
	id plan.WallID
}

func (r *sexpWallRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(wallref %s)", r.id)
}
func (r *sexpWallRef) Type() *zygo.RegisteredType { return nil }

// sexpOpeningRef wraps a plan.OpeningID.
type sexpOpeningRef struct {
	id plan.OpeningID
}

func (r *sexpOpeningRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(openingref %s)", r.id)
}
func (r *sexpOpeningRef) Type() *zygo.RegisteredType { return nil }

// sexpConstraint wraps a plan.Constraint built by one of the constraint
// constructor builtins.
type sexpConstraint struct {
	c plan.Constraint
}

func (s *sexpConstraint) SexpString(ps *zygo.PrintState) string {
	b, err := plan.MarshalConstraint(s.c)
	if err != nil {
		return "(constraint ?)"
	}
	return fmt.Sprintf("(constraint %s)", b)
}
func (s *sexpConstraint) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument
// list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value; treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_window) and plain strings
// ("window").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVec2 extracts a point from a sexpVec2.
func toVec2(s zygo.Sexp) (geom.Vec2, error) {
	if v, ok := s.(*sexpVec2); ok {
		return v.vec, nil
	}
	return geom.Vec2{}, fmt.Errorf("expected vec2, got %T (%s)", s, s.SexpString(nil))
}

// toWallRef extracts a WallID from a sexpWallRef.
func toWallRef(s zygo.Sexp) (plan.WallID, error) {
	if ref, ok := s.(*sexpWallRef); ok {
		return ref.id, nil
	}
	return "", fmt.Errorf("expected wall reference, got %T (%s)", s, s.SexpString(nil))
}

// toWallType converts a keyword or string to a plan.WallType.
func toWallType(s zygo.Sexp) (plan.WallType, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return plan.WallUnset, fmt.Errorf("expected wall type keyword: %w", err)
	}
	wt, ok := plan.ParseWallType(name)
	if !ok {
		return plan.WallUnset, fmt.Errorf("invalid wall type %q, expected external/internal/unheated/virtual", name)
	}
	return wt, nil
}

// toOpeningKind converts a keyword or string to a plan.OpeningKind.
func toOpeningKind(s zygo.Sexp) (plan.OpeningKind, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return plan.OpeningWindow, fmt.Errorf("expected opening kind keyword: %w", err)
	}
	k, ok := plan.ParseOpeningKind(name)
	if !ok {
		return plan.OpeningWindow, fmt.Errorf("invalid opening kind %q, expected window or door", name)
	}
	return k, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go
// slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builder accumulates the document under construction. Document commands
// return fresh documents, so the builder swaps its pointer after each one.
type builder struct {
	doc *plan.Document
}

// registerBuiltins installs the Lath DSL builtins into a zygomys
// environment. The builtins populate the builder's document during
// evaluation.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so that :keyword tokens are converted to recognizable string
// literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (grid-size 100)
	// -----------------------------------------------------------------------
	env.AddFunction("grid_size", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("grid-size requires exactly 1 argument, got %d", len(args))
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("grid-size: %w", err)
		}
		if f <= 0 {
			return zygo.SexpNull, fmt.Errorf("grid-size must be positive, got %v", f)
		}
		// The builder owns the document until evaluation returns.
		b.doc.GridSize = f
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (vec2 x y)
	// -----------------------------------------------------------------------
	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec2 requires exactly 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: y: %w", err)
		}
		return &sexpVec2{vec: geom.Vec2{X: x, Y: y}}, nil
	})

	// -----------------------------------------------------------------------
	// Constraint constructors:
	//   (horizontal) (vertical) (fixed-length 2.5)
	//   (perpendicular wallref) (parallel wallref)
	// -----------------------------------------------------------------------
	env.AddFunction("horizontal", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &sexpConstraint{c: plan.Horizontal{}}, nil
	})

	env.AddFunction("vertical", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &sexpConstraint{c: plan.Vertical{}}, nil
	})

	env.AddFunction("fixed_length", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("fixed-length requires exactly 1 argument, got %d", len(args))
		}
		m, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fixed-length: %w", err)
		}
		return &sexpConstraint{c: plan.FixedLength{Meters: m}}, nil
	})

	env.AddFunction("perpendicular", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("perpendicular requires a wall reference, got %d arguments", len(args))
		}
		id, err := toWallRef(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("perpendicular: %w", err)
		}
		return &sexpConstraint{c: plan.Perpendicular{Ref: id}}, nil
	})

	env.AddFunction("parallel", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("parallel requires a wall reference, got %d arguments", len(args))
		}
		id, err := toWallRef(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("parallel: %w", err)
		}
		return &sexpConstraint{c: plan.Parallel{Ref: id}}, nil
	})

	// -----------------------------------------------------------------------
	// (wall :from (vec2 0 0) :to (vec2 400 0) :height 2.5 :type :external
	//       :structure "brick 36cm" :u-value 0.3
	//       :constraints (list (horizontal) (fixed-length 4)))
	// -----------------------------------------------------------------------
	env.AddFunction("wall", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		spec := plan.WallSpec{}

		v, ok := pa.kw["from"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("wall: missing :from")
		}
		from, err := toVec2(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("wall: from: %w", err)
		}
		spec.Start = from

		v, ok = pa.kw["to"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("wall: missing :to")
		}
		to, err := toVec2(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("wall: to: %w", err)
		}
		spec.End = to

		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: height: %w", err)
			}
			spec.Height = f
		}
		if v, ok := pa.kw["type"]; ok {
			wt, err := toWallType(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: type: %w", err)
			}
			spec.Type = wt
		}
		if v, ok := pa.kw["structure"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: structure: %w", err)
			}
			spec.Structure = s
		}
		if v, ok := pa.kw["u-value"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: u-value: %w", err)
			}
			spec.UValue = &f
		}

		next, id, err := b.doc.CreateWall(spec)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("wall: %w", err)
		}
		b.doc = next

		if v, ok := pa.kw["constraints"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: constraints: %w", err)
			}
			var cs plan.Constraints
			for _, item := range items {
				sc, ok := item.(*sexpConstraint)
				if !ok {
					return zygo.SexpNull, fmt.Errorf("wall: constraints entry: expected constraint, got %T (%s)",
						item, item.SexpString(nil))
				}
				cs = append(cs, sc.c)
			}
			next, err := b.doc.UpdateWall(id, plan.WallUpdate{Constraints: &cs})
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("wall: constraints: %w", err)
			}
			b.doc = next
		}

		return &sexpWallRef{id: id}, nil
	})

	// -----------------------------------------------------------------------
	// (opening :wall ref :kind :window :position 0.5 :width 1.2 :height 1.4
	//          :sill 0.9 :u-value 1.1)
	// -----------------------------------------------------------------------
	env.AddFunction("opening", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		spec := plan.OpeningSpec{}

		v, ok := pa.kw["wall"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("opening: missing :wall")
		}
		id, err := toWallRef(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("opening: wall: %w", err)
		}
		spec.WallID = id

		if v, ok := pa.kw["kind"]; ok {
			k, err := toOpeningKind(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("opening: kind: %w", err)
			}
			spec.Kind = k
		}
		if v, ok := pa.kw["position"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("opening: position: %w", err)
			}
			spec.Position = f
		}
		if v, ok := pa.kw["width"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("opening: width: %w", err)
			}
			spec.Width = f
		}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("opening: height: %w", err)
			}
			spec.Height = f
		}
		if v, ok := pa.kw["sill"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("opening: sill: %w", err)
			}
			spec.Sill = f
		}
		if v, ok := pa.kw["u-value"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("opening: u-value: %w", err)
			}
			spec.UValue = f
		}

		next, oid, err := b.doc.CreateOpening(spec)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("opening: %w", err)
		}
		b.doc = next

		return &sexpOpeningRef{id: oid}, nil
	})
}
