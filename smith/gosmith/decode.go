package gosmith

import (
	"fmt"
	"go/format"
	"strings"

	"github.com/golangee/wiresmith/model"
	"github.com/golangee/wiresmith/smith"
)

// EmitDecoder emits a Go function, Decode<Root>, that is the inverse of
// EmitEncoder's Encode<Root>. It carries its own private model builder
// and a from<Type>StructValue function per struct; it does not emit a
// from<Union>Value function for any union, since codec.Decode itself
// has no support for decoding a union that isn't reached through a
// discriminated_by field (see codec.go's decodeType KindUnion case) —
// this package does not paper over that by inventing a decode path
// codec cannot actually produce a value for.
func (s *Smith) EmitDecoder(m *model.Model, root string) (string, error) {
	rootHandle, ok := findStruct(m, root)
	if !ok {
		return "", smith.NewError(name, fmt.Errorf("no struct named %q", root))
	}

	rootGoName := goIdent(root)

	var buf strings.Builder

	fmt.Fprintf(&buf, "// Code generated by gosmith. DO NOT EDIT.\n\npackage %s\n\n", s.Options.Package)
	buf.WriteString("import (\n\t\"github.com/golangee/wiresmith/codec\"\n\t\"github.com/golangee/wiresmith/model\"\n)\n\n")

	buf.WriteString(emitModelBuilder("buildWireDecodeModel", m))
	buf.WriteString("\n")

	for _, st := range m.Structs {
		buf.WriteString(emitStructFromStructValue(m, st))
		buf.WriteString("\n")
	}

	fmt.Fprintf(&buf, `func Decode%s(buf []byte, endian codec.Endianness) (%s, error) {
	m := buildWireDecodeModel()
	root := model.Handle{Kind: model.KindStruct, Index: %d}

	sv, err := codec.Decode(m, root, buf, endian)
	if err != nil {
		var zero %s

		return zero, err
	}

	return from%sStructValue(sv), nil
}
`, rootGoName, rootGoName, rootHandle.Index, rootGoName, rootGoName)

	out, err := format.Source([]byte(buf.String()))
	if err != nil {
		return "", smith.NewError(name, fmt.Errorf("formatting generated decoder: %w", err))
	}

	return string(out), nil
}

// fromAnyExpr renders a Go expression that converts expr (an `any`
// holding whatever codec.Decode produced for t, per codec.go's fromRaw
// and decodeArray) back into the statically typed Go value goTypeRef(m,
// t) names. It intentionally has no KindUnion case: the only place a
// union value is ever produced is inside a discriminated field, which
// emitStructFromStructValue handles itself by range-matching the
// already-decoded discriminator, not by calling fromAnyExpr.
func fromAnyExpr(m *model.Model, t model.TypeRef, expr string) string {
	t = m.ResolveType(t)

	if t.IsArray() {
		elem := t.Elem()
		elemGoType := goTypeRef(m, elem)
		elemExpr := fromAnyExpr(m, elem, "x")

		if t.IsDynamicArray() {
			return fmt.Sprintf(`func() []%s {
	src := %s.([]any)
	out := make([]%s, len(src))

	for i, x := range src {
		out[i] = %s
	}

	return out
}()`, elemGoType, expr, elemGoType, elemExpr)
		}

		n := t.Dims[0]

		return fmt.Sprintf(`func() [%d]%s {
	src := %s.([]any)

	var out [%d]%s

	for i, x := range src {
		out[i] = %s
	}

	return out
}()`, n, elemGoType, expr, n, elemGoType, elemExpr)
	}

	if !t.IsUser() {
		return fmt.Sprintf("%s.(%s)", expr, builtinGoType(t.Builtin))
	}

	switch t.User.Kind {
	case model.KindEnum:
		return fmt.Sprintf("%s(%s.(uint64))", goIdent(m.Name(t.User)), expr)
	case model.KindStruct:
		return fmt.Sprintf("from%sStructValue(%s.(codec.StructValue))", goIdent(m.Name(t.User)), expr)
	default:
		panic("gosmith: fromAnyExpr called for a union outside a discriminated field")
	}
}

func emitStructFromStructValue(m *model.Model, st *model.Struct) string {
	goName := goIdent(st.Name)

	var body strings.Builder

	fmt.Fprintf(&body, "func from%sStructValue(sv codec.StructValue) %s {\n\tvar v %s\n\n", goName, goName, goName)

	for _, f := range st.Fields {
		goField := goIdent(f.Name)

		if f.DiscriminatedBy == "" {
			fmt.Fprintf(&body, "\tv.%s = %s\n\n", goField, fromAnyExpr(m, f.Type, fmt.Sprintf("sv[%q]", f.Name)))

			continue
		}

		resolved := m.ResolveType(f.Type)
		u := m.Union(resolved.User)
		unionGoName := goIdent(u.Name)
		discGoName := goIdent(f.DiscriminatedBy)

		fmt.Fprintf(&body, "\tswitch disc := uint64(v.%s); {\n", discGoName)

		for _, arm := range u.Arms {
			armTypeName := unionGoName + goIdent(arm.Name)
			fmt.Fprintf(&body, "\tcase disc >= %d && disc <= %d:\n\t\tv.%s = %s{Value: %s}\n",
				arm.Lo, arm.Hi, goField, armTypeName, fromAnyExpr(m, arm.Type, fmt.Sprintf("sv[%q]", f.Name)))
		}

		fmt.Fprintf(&body, "\tdefault:\n\t\tpanic(\"gosmith: no arm of union %s matches discriminator\")\n\t}\n\n", u.Name)
	}

	body.WriteString("\treturn v\n}\n")

	return body.String()
}
