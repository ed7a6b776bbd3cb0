package gosmith

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golangee/wiresmith/model"
)

// typeRefLiteral renders t as a Go composite literal of type
// model.TypeRef. EmitEncoder and EmitDecoder each need a runtime
// *model.Model to hand to codec.Encode/codec.Decode; rather than re-parsing the
// original schema text at generated-code init time, this serializes
// the already-validated Model straight into Go source, since Handles
// are just arena indices and every field of model.Model relevant to
// codec/layout is already exported.
func typeRefLiteral(t model.TypeRef) string {
	var parts []string

	if t.Builtin != model.BuiltinNone {
		parts = append(parts, fmt.Sprintf("Builtin: model.%s", builtinConstName(t.Builtin)))
	}

	if t.IsUser() {
		parts = append(parts, fmt.Sprintf("User: model.Handle{Kind: model.%s, Index: %d}",
			kindConstName(t.User.Kind), t.User.Index))
	}

	if len(t.Dims) > 0 {
		dims := make([]string, len(t.Dims))
		for i, d := range t.Dims {
			dims[i] = strconv.Itoa(d)
		}

		parts = append(parts, fmt.Sprintf("Dims: []int{%s}", strings.Join(dims, ", ")))
	}

	return "model.TypeRef{" + strings.Join(parts, ", ") + "}"
}

func fieldLiteral(f model.Field) string {
	parts := []string{
		fmt.Sprintf("Name: %q", f.Name),
		fmt.Sprintf("Type: %s", typeRefLiteral(f.Type)),
	}

	if f.Bits != 0 {
		parts = append(parts, fmt.Sprintf("Bits: %d", f.Bits))
	}

	if f.Bytes != 0 {
		parts = append(parts, fmt.Sprintf("Bytes: %d", f.Bytes))
	}

	if f.DiscriminatedBy != "" {
		parts = append(parts,
			fmt.Sprintf("DiscriminatedBy: %q", f.DiscriminatedBy),
			fmt.Sprintf("DiscriminatorIndex: %d", f.DiscriminatorIndex))
	} else {
		parts = append(parts, "DiscriminatorIndex: -1")
	}

	return "model.Field{" + strings.Join(parts, ", ") + "}"
}

func enumLiteral(e *model.Enum) string {
	var variants []string

	for _, v := range e.Variants {
		variants = append(variants, fmt.Sprintf("{Name: %q, Lo: %d, Hi: %d}", v.Name, v.Lo, v.Hi))
	}

	return fmt.Sprintf("{Name: %q, Variants: []model.EnumVariant{%s}}", e.Name, strings.Join(variants, ", "))
}

func structLiteral(st *model.Struct) string {
	var fields []string

	for _, f := range st.Fields {
		fields = append(fields, fieldLiteral(f))
	}

	return fmt.Sprintf("{Name: %q, Fields: []model.Field{\n%s,\n}}", st.Name, strings.Join(fields, ",\n"))
}

func unionArmLiteral(a model.UnionArm) string {
	return fmt.Sprintf("{Name: %q, Lo: %d, Hi: %d, Type: %s}", a.Name, a.Lo, a.Hi, typeRefLiteral(a.Type))
}

func unionLiteral(u *model.Union) string {
	var arms []string

	for _, a := range u.Arms {
		arms = append(arms, unionArmLiteral(a))
	}

	return fmt.Sprintf("{Name: %q, Arms: []model.UnionArm{\n%s,\n}}", u.Name, strings.Join(arms, ",\n"))
}

func aliasLiteral(a *model.Alias) string {
	return fmt.Sprintf("{Name: %q, Target: %s}", a.Name, typeRefLiteral(a.Target))
}

// emitModelBuilder writes a function named funcName that reconstructs
// m as a fresh *model.Model, in the same declaration order (so
// Handles indexed against m remain valid against the rebuilt Model).
func emitModelBuilder(funcName string, m *model.Model) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "func %s() *model.Model {\n\tm := &model.Model{}\n\n", funcName)

	if len(m.Enums) > 0 {
		var es []string
		for _, e := range m.Enums {
			es = append(es, enumLiteral(e))
		}

		fmt.Fprintf(&buf, "\tm.Enums = []*model.Enum{\n%s,\n}\n\n", strings.Join(es, ",\n"))
	}

	if len(m.Structs) > 0 {
		var ss []string
		for _, st := range m.Structs {
			ss = append(ss, structLiteral(st))
		}

		fmt.Fprintf(&buf, "\tm.Structs = []*model.Struct{\n%s,\n}\n\n", strings.Join(ss, ",\n"))
	}

	if len(m.Unions) > 0 {
		var us []string
		for _, u := range m.Unions {
			us = append(us, unionLiteral(u))
		}

		fmt.Fprintf(&buf, "\tm.Unions = []*model.Union{\n%s,\n}\n\n", strings.Join(us, ",\n"))
	}

	if len(m.Aliases) > 0 {
		var as []string
		for _, a := range m.Aliases {
			as = append(as, aliasLiteral(a))
		}

		fmt.Fprintf(&buf, "\tm.Aliases = []*model.Alias{\n%s,\n}\n\n", strings.Join(as, ",\n"))
	}

	buf.WriteString("\treturn m\n}\n")

	return buf.String()
}
