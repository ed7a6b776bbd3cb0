// Package layout computes bit-exact field placement for a validated
// Protocol Model (spec §4.4). A struct's layout plan is an ordered
// list of placements, each with a bit width and either an absolute
// bit offset from the struct's start (when statically knowable) or a
// symbolic "depends on an earlier dynamic field" marker otherwise.
package layout

import (
	"fmt"

	"github.com/golangee/wiresmith/model"
	"github.com/golangee/wiresmith/token"
)

// ErrorCode names one of the two layout failure classes of spec §7.
type ErrorCode string

const (
	MisalignedByteField  ErrorCode = "MisalignedByteField"
	NonUniformUnionWidth ErrorCode = "NonUniformUnionWidth"
)

// Error is one layout failure, carrying the offending field's span.
type Error struct {
	Code ErrorCode
	*token.PosError
}

func newErr(code ErrorCode, pos token.Pos, msg string) *Error {
	return &Error{Code: code, PosError: token.NewPosError(token.NewNode(pos, pos), msg)}
}

// Placement is one field's position within its struct's layout.
type Placement struct {
	FieldIndex int
	FieldName  string

	// BitWidth is this field's width, or 0 if Static is false and the
	// width truly depends on the encoded value (a union field whose
	// arms differ in width).
	BitWidth int

	// Offset is the absolute bit offset from the struct's start. It is
	// only meaningful when Static is true.
	Offset int

	// Static reports whether both Offset and BitWidth are fixed by the
	// Model alone, independent of any encoded value.
	Static bool
}

// Plan is a struct's complete layout (spec §4.4).
type Plan struct {
	Struct     model.Handle
	Placements []Placement

	// StaticBitWidth is the struct's total width, valid only if Dynamic is false.
	StaticBitWidth int

	// Dynamic reports whether this struct has a non-statically-sized
	// tail (a trailing dynamic array, or an earlier field whose width
	// is only known at encode/decode time).
	Dynamic bool
}

// Compute computes the layout plan for the struct addressed by h.
// Compute panics if h does not address a struct; unions report their
// width through UnionWidth instead, since a union has no placements of
// its own — it borrows whichever arm the discriminator selects.
func Compute(m *model.Model, h model.Handle) (*Plan, []*Error) {
	c := &ctx{model: m, plans: map[model.Handle]*Plan{}, inProgress: map[model.Handle]bool{}}
	plan := c.structPlan(h)

	return plan, c.errs
}

// UnionWidth reports whether every arm of the union addressed by h has
// the same static width, and if so, what it is (spec §4.4: "a union
// has a static width iff all of its arms have the same static width").
func UnionWidth(m *model.Model, h model.Handle) (int, bool) {
	c := &ctx{model: m, plans: map[model.Handle]*Plan{}, inProgress: map[model.Handle]bool{}}

	return c.unionWidth(h)
}

type ctx struct {
	model      *model.Model
	plans      map[model.Handle]*Plan
	inProgress map[model.Handle]bool
	errs       []*Error
}

func (c *ctx) structPlan(h model.Handle) *Plan {
	if p, ok := c.plans[h]; ok {
		return p
	}

	c.inProgress[h] = true
	defer delete(c.inProgress, h)

	s := c.model.Struct(h)
	plan := &Plan{Struct: h}

	cursor := 0
	dynamic := false

	for i, f := range s.Fields {
		width, static := c.fieldWidth(f)

		p := Placement{FieldIndex: i, FieldName: f.Name, BitWidth: width}

		if dynamic || !static {
			p.Offset = -1
			dynamic = true
		} else {
			if c.needsAlignment(f) && cursor%8 != 0 {
				c.errs = append(c.errs, newErr(MisalignedByteField, f.Pos,
					fmt.Sprintf("field %q must start at a byte boundary", f.Name)))
			}

			p.Offset = cursor
			p.Static = true
			cursor += width
		}

		plan.Placements = append(plan.Placements, p)
	}

	plan.Dynamic = dynamic
	if !dynamic {
		plan.StaticBitWidth = cursor
	}

	c.plans[h] = plan

	return plan
}

func (c *ctx) unionWidth(h model.Handle) (int, bool) {
	u := c.model.Union(h)

	width := -1

	for _, arm := range u.Arms {
		w, static := c.typeWidth(arm.Type, arm.Pos)
		if !static {
			return 0, false
		}

		if width == -1 {
			width = w
		} else if width != w {
			return 0, false
		}
	}

	if width == -1 {
		width = 0
	}

	return width, true
}

func (c *ctx) fieldWidth(f model.Field) (int, bool) {
	if f.Bits != 0 {
		return f.Bits, true
	}

	if f.Bytes != 0 {
		return f.Bytes * 8, true
	}

	return c.typeWidth(f.Type, f.Pos)
}

// typeWidth resolves the bit width of a (possibly array) type-ref,
// recursing into nested structs and unions as needed.
func (c *ctx) typeWidth(t model.TypeRef, pos token.Pos) (int, bool) {
	t = c.model.ResolveType(t)

	if t.IsArray() {
		if t.IsDynamicArray() {
			return 0, false
		}

		elem := model.TypeRef{Builtin: t.Builtin, User: t.User}

		w, static := c.scalarWidth(elem, pos, true)
		if !static {
			return 0, false
		}

		product := 1
		for _, d := range t.Dims {
			product *= d
		}

		return product * w, true
	}

	return c.scalarWidth(t, pos, false)
}

// scalarWidth resolves a non-array type-ref's width. inArray reports
// whether this is the element type of a static array, which is the
// one context where a non-uniform union width is a hard layout error
// rather than simply "dynamic" (spec §4.4: arrays of unions require a
// static union width).
func (c *ctx) scalarWidth(t model.TypeRef, pos token.Pos, inArray bool) (int, bool) {
	t = c.model.ResolveType(t)

	if !t.IsUser() {
		return t.Builtin.Width(), true
	}

	h := t.User

	switch h.Kind {
	case model.KindEnum:
		return EnumNaturalWidth(c.model.Enum(h)), true
	case model.KindStruct:
		if c.inProgress[h] {
			return 0, false
		}

		nested := c.structPlan(h)
		if nested.Dynamic {
			return 0, false
		}

		return nested.StaticBitWidth, true
	case model.KindUnion:
		w, static := c.unionWidth(h)
		if !static {
			if inArray {
				c.errs = append(c.errs, newErr(NonUniformUnionWidth, pos,
					"array element type is a union without a uniform static width"))
			}

			return 0, false
		}

		return w, true
	default:
		return 0, false
	}
}

// needsAlignment reports whether a field must start at a byte
// boundary: every field does except one packed with an explicit
// bits=N attribute, which shares bytes with its neighbors with no
// implicit padding (spec §4.4).
func (c *ctx) needsAlignment(f model.Field) bool {
	return f.Bits == 0
}

// EnumNaturalWidth is the width an enumeration-typed field occupies
// when it carries no explicit bits/bytes attribute: the smallest
// whole number of bytes that can hold its largest variant key. Spec
// §4.4 only states the natural-width rule for builtins; every shipped
// example gives its enum fields an explicit bits/bytes attribute, so
// this is this repository's extension of that rule to the case the
// spec leaves silent, not a documented requirement. Exported so codec
// can size a bare enum field the same way without duplicating the
// rule.
func EnumNaturalWidth(e *model.Enum) int {
	var maxHi uint64

	for _, v := range e.Variants {
		if v.Hi > maxHi {
			maxHi = v.Hi
		}
	}

	bits := 1
	for bits < 64 && (uint64(1)<<uint(bits)) <= maxHi {
		bits++
	}

	bytes := (bits + 7) / 8
	if bytes < 1 {
		bytes = 1
	}

	return bytes * 8
}
