// Package model holds the Protocol Model: the validated, name-resolved,
// immutable representation of a schema (spec §3.2). Definitions live in
// an arena and reference each other through stable Handles rather than
// pointers, so structurally recursive types (a struct reachable from
// itself only through a dynamic array) are representable without cycles
// in the Go object graph.
package model

import "github.com/golangee/wiresmith/token"

// Kind identifies which arena a Handle indexes into.
type Kind int

const (
	KindEnum Kind = iota
	KindStruct
	KindUnion
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindEnum:
		return "enum"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindAlias:
		return "alias"
	default:
		return "unknown"
	}
}

// Handle is a stable reference to a top-level definition. It is valid
// only with respect to the Model that produced it.
type Handle struct {
	Kind  Kind
	Index int
}

// Builtin identifies one of the twelve intrinsic scalar types (spec
// §3.2). BuiltinNone marks a TypeRef that instead names a user type.
type Builtin int

const (
	BuiltinNone Builtin = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Bit
	Byte
)

var builtinNames = map[string]Builtin{
	"int8":    Int8,
	"int16":   Int16,
	"int32":   Int32,
	"int64":   Int64,
	"uint8":   Uint8,
	"uint16":  Uint16,
	"uint32":  Uint32,
	"uint64":  Uint64,
	"float32": Float32,
	"float64": Float64,
	"bit":     Bit,
	"byte":    Byte,
}

// LookupBuiltin returns the Builtin named by name, if any.
func LookupBuiltin(name string) (Builtin, bool) {
	b, ok := builtinNames[name]
	return b, ok
}

func (b Builtin) String() string {
	for name, v := range builtinNames {
		if v == b {
			return name
		}
	}

	return "none"
}

// Width returns the natural bit width of b, or 0 for BuiltinNone.
func (b Builtin) Width() int {
	switch b {
	case Int8, Uint8, Byte:
		return 8
	case Int16, Uint16:
		return 16
	case Int32, Uint32, Float32:
		return 32
	case Int64, Uint64, Float64:
		return 64
	case Bit:
		return 1
	default:
		return 0
	}
}

// IsInteger reports whether b is one of the signed or unsigned integer
// builtins (bit and byte count as integers for attribute-legality
// purposes, per spec §3.3).
func (b Builtin) IsInteger() bool {
	switch b {
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64, Bit, Byte:
		return true
	default:
		return false
	}
}

// IsIntegerOrByte reports whether b is eligible for a bytes=N
// attribute (spec §3.3: "legal only on integer-builtin fields"). Unlike
// IsInteger, this excludes bit: a single bit has no byte-count form.
func (b Builtin) IsIntegerOrByte() bool {
	switch b {
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64, Byte:
		return true
	default:
		return false
	}
}

// IsSigned reports whether b is a signed integer builtin.
func (b Builtin) IsSigned() bool {
	switch b {
	case Int8, Int16, Int32, Int64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether b is float32 or float64.
func (b Builtin) IsFloat() bool {
	return b == Float32 || b == Float64
}

// TypeRef is a resolved type-ref (spec §3.2): a builtin or a handle to
// a user definition, with zero or more array dimensions applied
// outer-to-inner, left to right (Dims[0] is outermost). A dimension of
// -1 denotes a dynamic array ("T[]"); only Dims[0] may be -1; every
// other dimension is static and >= 1 (enforced by the validator).
type TypeRef struct {
	Builtin Builtin
	User    Handle
	Dims    []int
}

// IsUser reports whether this TypeRef names a user definition rather
// than a builtin.
func (t TypeRef) IsUser() bool {
	return t.Builtin == BuiltinNone
}

// IsArray reports whether this TypeRef has any array dimension.
func (t TypeRef) IsArray() bool {
	return len(t.Dims) > 0
}

// IsDynamicArray reports whether the outermost dimension is dynamic.
func (t TypeRef) IsDynamicArray() bool {
	return len(t.Dims) > 0 && t.Dims[0] == -1
}

// Elem returns the TypeRef obtained by stripping the outermost
// dimension; it panics if t is not an array.
func (t TypeRef) Elem() TypeRef {
	return TypeRef{Builtin: t.Builtin, User: t.User, Dims: t.Dims[1:]}
}

// Enum is a finite, non-empty, name-resolved enumeration (spec §3.2).
type Enum struct {
	Name     string
	Variants []EnumVariant
	Pos      token.Pos
}

// EnumVariant is one "name = key|range" entry. Lo == Hi for a single
// key. The name "reserved" may repeat across variants of the same
// enum (spec §9); every other name is unique within the enum.
type EnumVariant struct {
	Name string
	Lo   uint64
	Hi   uint64
	Pos  token.Pos
}

// Reserved reports whether this variant is the sink label that never
// generates a named constant in target languages.
func (v EnumVariant) Reserved() bool {
	return v.Name == "reserved"
}

// Field is one struct field (spec §3.2/§3.3).
type Field struct {
	Name  string
	Type  TypeRef
	Bits  int // 0 when unset
	Bytes int // 0 when unset

	// DiscriminatedBy is the name of the earlier enum-typed field this
	// union-typed field's arm selection is bound to; empty when unset.
	DiscriminatedBy string
	// DiscriminatorIndex is the index of that field in the owning
	// Struct's Fields slice, or -1 when DiscriminatedBy is empty.
	DiscriminatorIndex int

	Pos token.Pos
}

// Struct is a name-resolved structure definition (spec §3.2).
type Struct struct {
	Name   string
	Fields []Field
	Pos    token.Pos
}

// UnionArm is one "key|range => name : type" entry of a union (spec §3.2).
type UnionArm struct {
	Name string
	Lo   uint64
	Hi   uint64
	Type TypeRef
	Pos  token.Pos
}

// Union is a name-resolved union definition (spec §3.2). Arm coverage
// need not be total; an unmatched discriminator is a runtime error
// (codec.UnmatchedDiscriminator), not a validation failure.
type Union struct {
	Name string
	Arms []UnionArm
	Pos  token.Pos
}

// Alias is a name-resolved type alias (spec §3.2).
type Alias struct {
	Name   string
	Target TypeRef
	Pos    token.Pos
}

// Model is the immutable, validated Protocol Model (spec §3.2/§3.4).
// It is built once by Validate and never mutated afterward; every
// downstream consumer (layout, codec, smiths) sees a read-only
// snapshot, and all of them may share one Model concurrently.
type Model struct {
	Enums   []*Enum
	Structs []*Struct
	Unions  []*Union
	Aliases []*Alias

	byName map[string]Handle
}

// Lookup resolves name to the Handle of its top-level definition.
func (m *Model) Lookup(name string) (Handle, bool) {
	h, ok := m.byName[name]
	return h, ok
}

// Enum returns the enum arena entry addressed by h. Panics if h does
// not address an enum in this Model.
func (m *Model) Enum(h Handle) *Enum {
	if h.Kind != KindEnum {
		panic("model: handle does not address an enum")
	}

	return m.Enums[h.Index]
}

// Struct returns the struct arena entry addressed by h.
func (m *Model) Struct(h Handle) *Struct {
	if h.Kind != KindStruct {
		panic("model: handle does not address a struct")
	}

	return m.Structs[h.Index]
}

// Union returns the union arena entry addressed by h.
func (m *Model) Union(h Handle) *Union {
	if h.Kind != KindUnion {
		panic("model: handle does not address a union")
	}

	return m.Unions[h.Index]
}

// Alias returns the alias arena entry addressed by h.
func (m *Model) Alias(h Handle) *Alias {
	if h.Kind != KindAlias {
		panic("model: handle does not address an alias")
	}

	return m.Aliases[h.Index]
}

// Name returns the declared name of whatever definition h addresses.
func (m *Model) Name(h Handle) string {
	switch h.Kind {
	case KindEnum:
		return m.Enum(h).Name
	case KindStruct:
		return m.Struct(h).Name
	case KindUnion:
		return m.Union(h).Name
	case KindAlias:
		return m.Alias(h).Name
	default:
		return ""
	}
}

// Resolve follows alias handles until it reaches a non-alias
// definition, returning the final Handle. Callers must only invoke
// this on a Model that has already passed the alias-cycle check.
func (m *Model) Resolve(h Handle) Handle {
	for h.Kind == KindAlias {
		target := m.Alias(h).Target
		if target.IsUser() {
			h = target.User
			continue
		}

		break
	}

	return h
}

// ResolveType follows alias chains starting from t and returns a
// TypeRef that is either a builtin or a handle to a non-alias
// definition. t's own array dimensions are preserved on the result.
// Resolve only unwraps a Handle and so cannot express "alias of a
// builtin"; every TypeRef consumer outside this package must resolve
// through ResolveType instead, never call Resolve directly on a
// TypeRef's User handle.
func (m *Model) ResolveType(t TypeRef) TypeRef {
	for t.IsUser() && t.User.Kind == KindAlias {
		target := m.Alias(t.User).Target
		dims := append(append([]int{}, t.Dims...), target.Dims...)
		t = TypeRef{Builtin: target.Builtin, User: target.User, Dims: dims}
	}

	return t
}
