package model

import (
	"fmt"
	"strconv"

	"github.com/golangee/wiresmith/syntax"
	"github.com/golangee/wiresmith/token"
)

// ErrorCode names one of the eleven validation failure classes of
// spec §7.
type ErrorCode string

const (
	DuplicateName               ErrorCode = "DuplicateName"
	UnknownReference             ErrorCode = "UnknownReference"
	AliasCycle                   ErrorCode = "AliasCycle"
	DiscriminatorNotEarlierField ErrorCode = "DiscriminatorNotEarlierField"
	DiscriminatorNotEnum         ErrorCode = "DiscriminatorNotEnum"
	OverlappingEnumKeys          ErrorCode = "OverlappingEnumKeys"
	OverlappingUnionKeys         ErrorCode = "OverlappingUnionKeys"
	AttributeConflict            ErrorCode = "AttributeConflict"
	AttributeOnWrongType         ErrorCode = "AttributeOnWrongType"
	DynamicArrayNotLast          ErrorCode = "DynamicArrayNotLast"
	NestedDynamicArray           ErrorCode = "NestedDynamicArray"
)

// ValidationError is one static-semantics failure, per spec §4.3/§7.
// It always carries a source span, reusing token.PosError for the
// human-readable rendering that token.Explain already knows how to do.
type ValidationError struct {
	Code ErrorCode
	*token.PosError
}

func newErr(code ErrorCode, node token.Node, msg string) *ValidationError {
	return &ValidationError{Code: code, PosError: token.NewPosError(node, msg)}
}

// symbol is a pending (not yet arena-placed) top-level definition.
type symbol struct {
	kind Kind
	def  *syntax.Definition
}

type validator struct {
	model *Model
	errs  []*ValidationError

	order []string          // declaration order of first-seen names
	syms  map[string]symbol // first occurrence only; later dupes rejected
}

// Validate runs the seven ordered checks of spec §4.3 over a parsed
// syntax tree and returns either a complete Model or the non-empty
// list of ValidationErrors found along the way. Every check that can
// run independently of an earlier failure does so, so a single schema
// can surface many errors in one pass.
func Validate(file *syntax.File) (*Model, []*ValidationError) {
	v := &validator{
		model: &Model{byName: map[string]Handle{}},
		syms:  map[string]symbol{},
	}

	v.collectNames(file)
	v.buildArena()
	v.resolveReferences()
	v.checkAliasCycles()
	v.checkEnums()
	v.checkStructs()
	v.checkUnions()

	if len(v.errs) > 0 {
		return nil, v.errs
	}

	return v.model, nil
}

// 1. Name collection (spec §4.3 check 1).
func (v *validator) collectNames(file *syntax.File) {
	for _, def := range file.Definitions {
		name, node := definitionNameAndNode(def)
		if name == "" {
			continue // malformed definition; parser already reported it
		}

		if _, dup := v.syms[name]; dup {
			v.errs = append(v.errs, newErr(DuplicateName, node, fmt.Sprintf("duplicate name %q", name)))
			continue
		}

		kind := KindStruct

		switch {
		case def.Enum != nil:
			kind = KindEnum
		case def.Struct != nil:
			kind = KindStruct
		case def.Union != nil:
			kind = KindUnion
		case def.Alias != nil:
			kind = KindAlias
		}

		v.syms[name] = symbol{kind: kind, def: def}
		v.order = append(v.order, name)
	}
}

func definitionNameAndNode(def *syntax.Definition) (string, token.Node) {
	switch {
	case def.Enum != nil:
		return def.Enum.Name, def.Enum
	case def.Struct != nil:
		return def.Struct.Name, def.Struct
	case def.Union != nil:
		return def.Union.Name, def.Union
	case def.Alias != nil:
		return def.Alias.Name, def.Alias
	default:
		return "", def
	}
}

// 2. Arena construction: one arena slot per first-seen name, handles
// assigned in declaration order so later passes can address them.
func (v *validator) buildArena() {
	for _, name := range v.order {
		sym := v.syms[name]

		switch sym.kind {
		case KindEnum:
			h := Handle{Kind: KindEnum, Index: len(v.model.Enums)}
			v.model.Enums = append(v.model.Enums, &Enum{Name: name, Pos: sym.def.Begin()})
			v.model.byName[name] = h
		case KindStruct:
			h := Handle{Kind: KindStruct, Index: len(v.model.Structs)}
			v.model.Structs = append(v.model.Structs, &Struct{Name: name, Pos: sym.def.Begin()})
			v.model.byName[name] = h
		case KindUnion:
			h := Handle{Kind: KindUnion, Index: len(v.model.Unions)}
			v.model.Unions = append(v.model.Unions, &Union{Name: name, Pos: sym.def.Begin()})
			v.model.byName[name] = h
		case KindAlias:
			h := Handle{Kind: KindAlias, Index: len(v.model.Aliases)}
			v.model.Aliases = append(v.model.Aliases, &Alias{Name: name, Pos: sym.def.Begin()})
			v.model.byName[name] = h
		}
	}
}

// resolveTypeRef resolves a syntax.TypeRef against the symbol table
// (spec §4.3 check 2), also enforcing that only the outermost array
// dimension may be dynamic (NestedDynamicArray).
func (v *validator) resolveTypeRef(ref *syntax.TypeRef) TypeRef {
	out := TypeRef{}

	if b, ok := LookupBuiltin(ref.Name); ok {
		out.Builtin = b
	} else if h, ok := v.model.Lookup(ref.Name); ok {
		out.User = h
	} else {
		v.errs = append(v.errs, newErr(UnknownReference, ref, fmt.Sprintf("unknown type %q", ref.Name)))
	}

	for i, dim := range ref.Dims {
		if dim.Size == nil {
			out.Dims = append(out.Dims, -1)

			if i != 0 {
				v.errs = append(v.errs, newErr(NestedDynamicArray, dim,
					"dynamic array dimension only allowed as the outermost dimension"))
			}

			continue
		}

		n, err := strconv.ParseUint(dim.Size.Text, 0, 64)
		if err != nil || n == 0 {
			v.errs = append(v.errs, newErr(UnknownReference, dim.Size, "array size must be a positive integer"))
			out.Dims = append(out.Dims, 1)

			continue
		}

		out.Dims = append(out.Dims, int(n))
	}

	return out
}

// 2/3 continued. resolveReferences fills in every Struct/Union/Alias
// body now that every name has a Handle, per spec §4.3 check 2, and
// validates discriminated_by/attribute legality (checks 5 and 6) while
// it walks each struct's fields, since both need the field's resolved
// type at hand.
func (v *validator) resolveReferences() {
	for _, name := range v.order {
		sym := v.syms[name]

		switch sym.kind {
		case KindAlias:
			h := v.model.byName[name]
			v.model.Alias(h).Target = v.resolveTypeRef(sym.def.Alias.Target)
		case KindUnion:
			h := v.model.byName[name]
			u := v.model.Union(h)

			for _, arm := range sym.def.Union.Arms {
				lo, hi := v.resolveKeyOrRange(arm.Key)
				u.Arms = append(u.Arms, UnionArm{
					Name: arm.Name,
					Lo:   lo,
					Hi:   hi,
					Type: v.resolveTypeRef(arm.Type),
					Pos:  arm.Begin(),
				})
			}
		case KindEnum:
			h := v.model.byName[name]
			e := v.model.Enum(h)

			for _, variant := range sym.def.Enum.Variants {
				lo, hi := v.resolveKeyOrRange(variant.Key)
				e.Variants = append(e.Variants, EnumVariant{Name: variant.Name, Lo: lo, Hi: hi, Pos: variant.Begin()})
			}
		case KindStruct:
			v.resolveStructFields(name)
		}
	}
}

func (v *validator) resolveKeyOrRange(kr *syntax.KeyOrRange) (uint64, uint64) {
	lo, err := strconv.ParseUint(kr.Lo.Text, 0, 64)
	if err != nil {
		v.errs = append(v.errs, newErr(OverlappingEnumKeys, kr.Lo, "key does not fit in an unsigned 64-bit integer"))
	}

	if kr.Hi == nil {
		return lo, lo
	}

	hi, err := strconv.ParseUint(kr.Hi.Text, 0, 64)
	if err != nil {
		v.errs = append(v.errs, newErr(OverlappingEnumKeys, kr.Hi, "key does not fit in an unsigned 64-bit integer"))
	}

	return lo, hi
}

func (v *validator) resolveStructFields(name string) {
	sym := v.syms[name]
	h := v.model.byName[name]
	s := v.model.Struct(h)

	for _, f := range sym.def.Struct.Fields {
		field := Field{
			Name:               f.Name,
			Type:               v.resolveTypeRef(f.Type),
			DiscriminatorIndex: -1,
			Pos:                f.Begin(),
		}

		for _, attr := range f.Attrs {
			v.applyAttr(&field, attr)
		}

		if field.DiscriminatedBy != "" {
			idx := -1

			for i := range s.Fields {
				if s.Fields[i].Name == field.DiscriminatedBy {
					idx = i
				}
			}

			if idx < 0 {
				v.errs = append(v.errs, newErr(DiscriminatorNotEarlierField, f,
					"discriminated_by names no earlier field in this struct"))
			} else if s.Fields[idx].Type.IsUser() && s.Fields[idx].Type.User.Kind == KindEnum {
				field.DiscriminatorIndex = idx
			} else {
				v.errs = append(v.errs, newErr(DiscriminatorNotEnum, f,
					fmt.Sprintf("discriminated_by field %q is not an enumeration", field.DiscriminatedBy)))
			}
		}

		s.Fields = append(s.Fields, field)
	}
}

func (v *validator) applyAttr(field *Field, attr *syntax.Attr) {
	switch {
	case attr.Bits != nil:
		n, err := strconv.ParseUint(attr.Bits.Text, 0, 64)
		if err != nil || n < 1 || n > 64 {
			v.errs = append(v.errs, newErr(AttributeConflict, attr, "bits must be between 1 and 64"))
			return
		}

		field.Bits = int(n)
	case attr.Bytes != nil:
		n, err := strconv.ParseUint(attr.Bytes.Text, 0, 64)
		if err != nil || n < 1 || n > 8 {
			v.errs = append(v.errs, newErr(AttributeConflict, attr, "bytes must be between 1 and 8"))
			return
		}

		field.Bytes = int(n)
	case attr.DiscriminatedBy != nil:
		field.DiscriminatedBy = *attr.DiscriminatedBy
	}
}

// 3. Alias cycle check (spec §4.3 check 3).
func (v *validator) checkAliasCycles() {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[int]int, len(v.model.Aliases))

	var visit func(idx int) bool

	visit = func(idx int) bool {
		if color[idx] == black {
			return true
		}

		if color[idx] == gray {
			return false
		}

		color[idx] = gray

		a := v.model.Aliases[idx]
		if a.Target.IsUser() && a.Target.User.Kind == KindAlias {
			if !visit(a.Target.User.Index) {
				return false
			}
		}

		color[idx] = black

		return true
	}

	for i, a := range v.model.Aliases {
		if !visit(i) {
			v.errs = append(v.errs, newErr(AliasCycle, token.NewNode(a.Pos, a.Pos),
				fmt.Sprintf("alias %q participates in a cycle", a.Name)))
		}
	}
}

// 4. Enumeration legality (spec §4.3 check 4).
func (v *validator) checkEnums() {
	for _, e := range v.model.Enums {
		seenNames := map[string]bool{}

		for _, variant := range e.Variants {
			if variant.Reserved() {
				continue
			}

			if seenNames[variant.Name] {
				v.errs = append(v.errs, newErr(DuplicateName, token.NewNode(variant.Pos, variant.Pos),
					fmt.Sprintf("duplicate enum variant name %q", variant.Name)))
			}

			seenNames[variant.Name] = true
		}

		checkDisjoint(v, e.Variants, func(ev EnumVariant) (uint64, uint64, token.Node) {
			return ev.Lo, ev.Hi, token.NewNode(ev.Pos, ev.Pos)
		}, OverlappingEnumKeys)
	}
}

// checkDisjoint reports every pairwise overlap among a set of
// (lo, hi) ranges, shared between enum variants and union arms.
func checkDisjoint[T any](v *validator, items []T, key func(T) (uint64, uint64, token.Node), code ErrorCode) {
	for i := 0; i < len(items); i++ {
		iLo, iHi, iNode := key(items[i])

		for j := i + 1; j < len(items); j++ {
			jLo, jHi, _ := key(items[j])

			if iLo <= jHi && jLo <= iHi {
				v.errs = append(v.errs, newErr(code, iNode, "overlapping keys"))
			}
		}
	}
}

// 5/6. Structure and attribute legality (spec §4.3 checks 5 and 6).
func (v *validator) checkStructs() {
	for _, s := range v.model.Structs {
		seen := map[string]bool{}

		for i, f := range s.Fields {
			if seen[f.Name] {
				v.errs = append(v.errs, newErr(DuplicateName, token.NewNode(f.Pos, f.Pos),
					fmt.Sprintf("duplicate field name %q", f.Name)))
			}

			seen[f.Name] = true

			if f.Type.IsDynamicArray() && i != len(s.Fields)-1 {
				v.errs = append(v.errs, newErr(DynamicArrayNotLast, token.NewNode(f.Pos, f.Pos),
					"a dynamic array field must be the last field of its structure"))
			}

			v.checkAttributeLegality(f)
		}
	}
}

func (v *validator) checkAttributeLegality(f Field) {
	node := token.NewNode(f.Pos, f.Pos)

	if f.Bits != 0 && f.Bytes != 0 {
		v.errs = append(v.errs, newErr(AttributeConflict, node, "bits and bytes may not both be set on a field"))
	}

	elem := v.model.ResolveType(f.Type)
	isEnum := elem.IsUser() && elem.User.Kind == KindEnum
	// A discriminator picks one arm via a single scalar lookup; an
	// array of unions has no per-element discriminator, so
	// discriminated_by is only legal on a non-array union field.
	isUnion := elem.IsUser() && elem.User.Kind == KindUnion && !elem.IsArray()

	// §3.3 names only scalar nominal types ("integer builtin, bit, or
	// enumeration") as eligible for bits/bytes; an array field's
	// nominal type is the array itself, so neither attribute applies.
	if elem.IsArray() {
		if f.Bits != 0 || f.Bytes != 0 {
			v.errs = append(v.errs, newErr(AttributeOnWrongType, node, "bits/bytes are not legal on an array field"))
		}
	} else {
		if f.Bits != 0 && !(elem.Builtin.IsInteger() || isEnum) {
			v.errs = append(v.errs, newErr(AttributeOnWrongType, node,
				"bits is only legal on an integer, bit, or enumeration field"))
		}

		if f.Bytes != 0 && !elem.Builtin.IsIntegerOrByte() {
			v.errs = append(v.errs, newErr(AttributeOnWrongType, node, "bytes is only legal on an integer-builtin field"))
		}
	}

	if f.DiscriminatedBy != "" && !isUnion {
		v.errs = append(v.errs, newErr(AttributeOnWrongType, node, "discriminated_by is only legal on a non-array union-typed field"))
	}
}

// 7. Union legality (spec §4.3 check 7).
func (v *validator) checkUnions() {
	for _, u := range v.model.Unions {
		seen := map[string]bool{}

		for _, arm := range u.Arms {
			if seen[arm.Name] {
				v.errs = append(v.errs, newErr(DuplicateName, token.NewNode(arm.Pos, arm.Pos),
					fmt.Sprintf("duplicate union arm name %q", arm.Name)))
			}

			seen[arm.Name] = true
		}

		checkDisjoint(v, u.Arms, func(a UnionArm) (uint64, uint64, token.Node) {
			return a.Lo, a.Hi, token.NewNode(a.Pos, a.Pos)
		}, OverlappingUnionKeys)
	}
}
