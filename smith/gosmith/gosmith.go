// Package gosmith is the reference Smith back-end: it emits plain Go
// for a validated Protocol Model. Spec §4.6 describes the Smith
// contract but deliberately farms out any concrete target language;
// this package is this repository's own proof that the contract is
// implementable, walking a validated tree and generating both
// declarations and codec glue for it. Emitted declarations use only
// intrinsic Go constructs; the generated Encode/Decode functions call
// straight into this repository's own codec package, never a
// third-party one.
package gosmith

import (
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"github.com/golangee/wiresmith/model"
	"github.com/golangee/wiresmith/smith"
)

// Smith emits Go source for a validated Protocol Model.
type Smith struct {
	Options smith.Options
}

// New creates a Smith using opts, falling back to smith.DefaultOptions
// for any zero-valued field that matters to generation (the package
// name).
func New(opts smith.Options) *Smith {
	if opts.Package == "" {
		opts.Package = smith.DefaultOptions().Package
	}

	return &Smith{Options: opts}
}

const name = "gosmith"

// goIdent exports a schema identifier for use as a Go type or field
// name. Schema identifiers already match Go's identifier grammar
// (spec §3.1), so only capitalization is needed.
func goIdent(n string) string {
	if n == "" {
		return n
	}

	return strings.ToUpper(n[:1]) + n[1:]
}

func builtinGoType(b model.Builtin) string {
	switch b {
	case model.Int8:
		return "int8"
	case model.Int16:
		return "int16"
	case model.Int32:
		return "int32"
	case model.Int64:
		return "int64"
	case model.Uint8, model.Bit, model.Byte:
		return "uint8"
	case model.Uint16:
		return "uint16"
	case model.Uint32:
		return "uint32"
	case model.Uint64:
		return "uint64"
	case model.Float32:
		return "float32"
	case model.Float64:
		return "float64"
	default:
		return "uint64"
	}
}

func kindConstName(k model.Kind) string {
	switch k {
	case model.KindEnum:
		return "KindEnum"
	case model.KindStruct:
		return "KindStruct"
	case model.KindUnion:
		return "KindUnion"
	case model.KindAlias:
		return "KindAlias"
	default:
		panic("gosmith: unknown model.Kind")
	}
}

func builtinConstName(b model.Builtin) string {
	switch b {
	case model.Int8:
		return "Int8"
	case model.Int16:
		return "Int16"
	case model.Int32:
		return "Int32"
	case model.Int64:
		return "Int64"
	case model.Uint8:
		return "Uint8"
	case model.Uint16:
		return "Uint16"
	case model.Uint32:
		return "Uint32"
	case model.Uint64:
		return "Uint64"
	case model.Float32:
		return "Float32"
	case model.Float64:
		return "Float64"
	case model.Bit:
		return "Bit"
	case model.Byte:
		return "Byte"
	default:
		panic("gosmith: unknown model.Builtin")
	}
}

// goTypeRef names the Go type used for t's declaration site. Unlike
// model.ResolveType, this preserves alias names: a field typed as an
// alias gets the alias's own Go type name, which is itself emitted as
// a Go type alias (see typesTemplate), so both ends name the same
// underlying Go type.
func goTypeRef(m *model.Model, t model.TypeRef) string {
	if t.IsArray() {
		elem := goTypeRef(m, t.Elem())
		if t.IsDynamicArray() {
			return "[]" + elem
		}

		return fmt.Sprintf("[%d]%s", t.Dims[0], elem)
	}

	if !t.IsUser() {
		return builtinGoType(t.Builtin)
	}

	return goIdent(m.Name(t.User))
}

func findStruct(m *model.Model, name string) (model.Handle, bool) {
	for i, s := range m.Structs {
		if s.Name == name {
			return model.Handle{Kind: model.KindStruct, Index: i}, true
		}
	}

	return model.Handle{}, false
}

// EmitTypes emits Go declarations for every enumeration, structure,
// union, and alias in m (spec §4.6). The output imports nothing: it
// uses only Go's built-in numeric types, arrays, slices, structs, and
// interfaces.
func (s *Smith) EmitTypes(m *model.Model) (string, error) {
	data := buildTypesData(s.Options.Package, m)

	var buf strings.Builder
	if err := typesTemplate.Execute(&buf, data); err != nil {
		return "", smith.NewError(name, err)
	}

	out, err := format.Source([]byte(buf.String()))
	if err != nil {
		return "", smith.NewError(name, fmt.Errorf("formatting generated types: %w", err))
	}

	return string(out), nil
}

type tplEnumVariant struct {
	ConstName string
	Value     uint64
	IsRange   bool
}

type tplEnum struct {
	Name     string
	Variants []tplEnumVariant
}

type tplStructField struct {
	GoName string
	GoType string
}

type tplStruct struct {
	Name   string
	Fields []tplStructField
}

type tplUnionArm struct {
	TypeName  string
	ValueType string
}

type tplUnion struct {
	Name string
	Arms []tplUnionArm
}

type tplAlias struct {
	Name   string
	GoType string
}

type typesData struct {
	Package string
	Enums   []tplEnum
	Structs []tplStruct
	Unions  []tplUnion
	Aliases []tplAlias
}

func buildTypesData(pkg string, m *model.Model) typesData {
	data := typesData{Package: pkg}

	for _, e := range m.Enums {
		te := tplEnum{Name: goIdent(e.Name)}

		for _, v := range e.Variants {
			if v.Reserved() {
				continue
			}

			te.Variants = append(te.Variants, tplEnumVariant{
				ConstName: goIdent(e.Name) + goIdent(v.Name),
				Value:     v.Lo,
				IsRange:   v.Lo != v.Hi,
			})
		}

		data.Enums = append(data.Enums, te)
	}

	for _, a := range m.Aliases {
		data.Aliases = append(data.Aliases, tplAlias{Name: goIdent(a.Name), GoType: goTypeRef(m, a.Target)})
	}

	for _, u := range m.Unions {
		tu := tplUnion{Name: goIdent(u.Name)}

		for _, arm := range u.Arms {
			tu.Arms = append(tu.Arms, tplUnionArm{
				TypeName:  goIdent(u.Name) + goIdent(arm.Name),
				ValueType: goTypeRef(m, arm.Type),
			})
		}

		data.Unions = append(data.Unions, tu)
	}

	for _, st := range m.Structs {
		ts := tplStruct{Name: goIdent(st.Name)}

		for _, f := range st.Fields {
			ts.Fields = append(ts.Fields, tplStructField{GoName: goIdent(f.Name), GoType: goTypeRef(m, f.Type)})
		}

		data.Structs = append(data.Structs, ts)
	}

	return data
}

var typesTemplate = template.Must(template.New("types").Parse(`// Code generated by gosmith. DO NOT EDIT.

package {{.Package}}
{{range .Enums}}
{{$enumName := .Name}}
// {{$enumName}} is generated from the schema enumeration "{{$enumName}}".
type {{$enumName}} uint64
{{if .Variants}}
const (
{{range .Variants}}{{if not .IsRange}}	{{.ConstName}} {{$enumName}} = {{.Value}}
{{end}}{{end}})
{{end}}{{end}}
{{range .Aliases}}
type {{.Name}} = {{.GoType}}
{{end}}
{{range .Unions}}
{{$unionName := .Name}}
// {{$unionName}} is a closed discriminated union; each arm type below
// implements it, and a value holds exactly one of them.
type {{$unionName}} interface {
	is{{$unionName}}()
}
{{range .Arms}}
type {{.TypeName}} struct {
	Value {{.ValueType}}
}

func ({{.TypeName}}) is{{$unionName}}() {}
{{end}}{{end}}
{{range .Structs}}
type {{.Name}} struct {
{{range .Fields}}	{{.GoName}} {{.GoType}}
{{end}}}
{{end}}
`))
