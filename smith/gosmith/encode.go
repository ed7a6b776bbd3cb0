package gosmith

import (
	"fmt"
	"go/format"
	"strings"

	"github.com/golangee/wiresmith/model"
	"github.com/golangee/wiresmith/smith"
)

// EmitEncoder emits a Go function, Encode<Root>, that converts a value
// of the generated type named root into a wire buffer by delegating to
// codec.Encode. The generated file carries its own private copy of the
// model (see modelgen.go) and a to<Type>StructValue/UnionValue
// conversion function for every struct and union in m, so it has no
// dependency on anything this package built at generation time.
func (s *Smith) EmitEncoder(m *model.Model, root string) (string, error) {
	rootHandle, ok := findStruct(m, root)
	if !ok {
		return "", smith.NewError(name, fmt.Errorf("no struct named %q", root))
	}

	var buf strings.Builder

	fmt.Fprintf(&buf, "// Code generated by gosmith. DO NOT EDIT.\n\npackage %s\n\n", s.Options.Package)
	buf.WriteString("import (\n\t\"github.com/golangee/wiresmith/codec\"\n\t\"github.com/golangee/wiresmith/model\"\n)\n\n")

	buf.WriteString(emitModelBuilder("buildWireEncodeModel", m))
	buf.WriteString("\n")

	for _, u := range m.Unions {
		buf.WriteString(emitUnionToUnionValue(m, u))
		buf.WriteString("\n")
	}

	for _, st := range m.Structs {
		buf.WriteString(emitStructToStructValue(m, st))
		buf.WriteString("\n")
	}

	fmt.Fprintf(&buf, `func Encode%s(v %s, endian codec.Endianness) ([]byte, error) {
	m := buildWireEncodeModel()
	root := model.Handle{Kind: model.KindStruct, Index: %d}

	return codec.Encode(m, root, to%sStructValue(v), endian)
}
`, goIdent(root), goIdent(root), rootHandle.Index, goIdent(root))

	out, err := format.Source([]byte(buf.String()))
	if err != nil {
		return "", smith.NewError(name, fmt.Errorf("formatting generated encoder: %w", err))
	}

	return string(out), nil
}

// toAnyExpr renders a Go expression that converts the value held by
// goExpr (statically typed per goTypeRef(m, t)) into the dynamic shape
// codec.Encode expects for t (spec §4.5): structs and unions go through
// their generated conversion function, an enum needs an explicit
// uint64 conversion since encodeEnum's toUint64 only matches exact
// built-in numeric types and an enum is a distinct named Go type, and
// everything else already matches what codec's toUint64/toFloat64
// recognize natively.
func toAnyExpr(m *model.Model, t model.TypeRef, goExpr string) string {
	t = m.ResolveType(t)

	if t.IsArray() {
		elem := t.Elem()
		elemExpr := toAnyExpr(m, elem, "x")

		return fmt.Sprintf(`func() []any {
	src := %s
	out := make([]any, len(src))
	for i, x := range src {
		out[i] = %s
	}
	return out
}()`, goExpr, elemExpr)
	}

	if !t.IsUser() {
		return goExpr
	}

	switch t.User.Kind {
	case model.KindEnum:
		return fmt.Sprintf("uint64(%s)", goExpr)
	case model.KindStruct:
		return fmt.Sprintf("to%sStructValue(%s)", goIdent(m.Name(t.User)), goExpr)
	case model.KindUnion:
		return fmt.Sprintf("to%sUnionValue(%s)", goIdent(m.Name(t.User)), goExpr)
	default:
		panic("gosmith: unresolved type-ref")
	}
}

func emitStructToStructValue(m *model.Model, st *model.Struct) string {
	goName := goIdent(st.Name)

	var body strings.Builder

	fmt.Fprintf(&body, "func to%sStructValue(v %s) codec.StructValue {\n\tsv := codec.StructValue{}\n\n", goName, goName)

	for _, f := range st.Fields {
		goField := "v." + goIdent(f.Name)

		if f.DiscriminatedBy == "" {
			fmt.Fprintf(&body, "\tsv[%q] = %s\n\n", f.Name, toAnyExpr(m, f.Type, goField))

			continue
		}

		resolved := m.ResolveType(f.Type)
		u := m.Union(resolved.User)
		unionGoName := goIdent(u.Name)

		fmt.Fprintf(&body, "\tswitch arm := %s.(type) {\n", goField)

		for _, arm := range u.Arms {
			armTypeName := unionGoName + goIdent(arm.Name)
			fmt.Fprintf(&body, "\tcase %s:\n\t\tsv[%q] = %s\n", armTypeName, f.Name, toAnyExpr(m, arm.Type, "arm.Value"))
		}

		fmt.Fprintf(&body, "\tdefault:\n\t\tpanic(\"gosmith: unknown arm for union %s\")\n\t}\n\n", u.Name)
	}

	body.WriteString("\treturn sv\n}\n")

	return body.String()
}

func emitUnionToUnionValue(m *model.Model, u *model.Union) string {
	goName := goIdent(u.Name)

	var body strings.Builder

	fmt.Fprintf(&body, "func to%sUnionValue(v %s) codec.UnionValue {\n\tswitch arm := v.(type) {\n", goName, goName)

	for _, arm := range u.Arms {
		armTypeName := goName + goIdent(arm.Name)
		fmt.Fprintf(&body, "\tcase %s:\n\t\treturn codec.UnionValue{Arm: %q, Value: %s}\n",
			armTypeName, arm.Name, toAnyExpr(m, arm.Type, "arm.Value"))
	}

	fmt.Fprintf(&body, "\tdefault:\n\t\tpanic(\"gosmith: unknown arm for union %s\")\n\t}\n}\n", u.Name)

	return body.String()
}
