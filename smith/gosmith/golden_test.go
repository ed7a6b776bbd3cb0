package gosmith_test

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/golangee/wiresmith/smith"
	"github.com/golangee/wiresmith/smith/gosmith"
)

var update = flag.Bool("update", false, "update golden files")

// describeType summarizes a type declaration's shape without touching
// its exact formatting, so the golden comparison survives gofmt detail
// changes the way magicschema's JSON-equality golden test survives
// marshaling detail changes.
func describeType(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.StructType:
		return "struct"
	case *ast.InterfaceType:
		return "interface"
	case *ast.Ident:
		return "alias(" + t.Name + ")"
	default:
		return fmt.Sprintf("%T", e)
	}
}

// typeDeclSummary renders the ordered list of top-level type
// declarations in src as "Name: shape" lines, via go/ast rather than
// literal text comparison.
func typeDeclSummary(t *testing.T, src string) string {
	t.Helper()

	fset := token.NewFileSet()

	f, err := parser.ParseFile(fset, "generated.go", src, 0)
	require.NoError(t, err)

	var lines []string

	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}

		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}

			lines = append(lines, fmt.Sprintf("%s: %s", ts.Name.Name, describeType(ts.Type)))
		}
	}

	return strings.Join(lines, "\n") + "\n"
}

// assertGolden compares got against a golden file, per
// magicschema/golden_test.go's -update flag convention.
func assertGolden(t *testing.T, goldenPath, got string) {
	t.Helper()

	if *update {
		require.NoError(t, os.WriteFile(goldenPath, []byte(got), 0o644))

		return
	}

	want, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "golden file %s not found; run with -update to create", goldenPath)

	require.Equal(t, string(want), got)
}

func TestEmitTypesGolden(t *testing.T) {
	m := mustPingPongModel(t)
	s := gosmith.New(smith.Options{Package: "wire"})

	out, err := s.EmitTypes(m)
	require.NoError(t, err)

	assertGolden(t, "testdata/types.golden", typeDeclSummary(t, out))
}
