package syntax_test

import (
	"strings"
	"testing"

	"github.com/golangee/wiresmith/syntax"
	"github.com/golangee/wiresmith/token"
)

func TestParseValid(t *testing.T) {
	src := `
enum Color {
	red = 0;
	green = 1;
};
struct Point {
	x: int32;
	y: int32;
};
`

	f, errs := syntax.Parse("valid.wire", src)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if len(f.Definitions) != 2 {
		t.Fatalf("want 2 definitions, got %d", len(f.Definitions))
	}
}

func TestParseGrammarViolationReportsPosition(t *testing.T) {
	src := `struct Point {
	x int32;
};
`

	_, errs := syntax.Parse("bad.wire", src)
	if len(errs) == 0 {
		t.Fatalf("want a parse error, got none")
	}

	perr := errs[0]
	if perr.Error() == "" {
		t.Fatalf("want a non-empty error message")
	}

	begin := perr.Details[0].Node.Begin()
	if begin.Line != 2 {
		t.Fatalf("want error on line 2, got line %d", begin.Line)
	}

	if begin.File != "bad.wire" {
		t.Fatalf("want error attributed to bad.wire, got %q", begin.File)
	}
}

func TestParseRecoversAcrossDefinitions(t *testing.T) {
	src := `struct Bad {
	x int32;
};
struct Good {
	y: int32;
};
`

	f, errs := syntax.Parse("recover.wire", src)
	if len(errs) != 1 {
		t.Fatalf("want exactly 1 error, got %d: %v", len(errs), errs)
	}

	var names []string
	for _, d := range f.Definitions {
		if d.Struct != nil {
			names = append(names, d.Struct.Name)
		}
	}

	found := false

	for _, n := range names {
		if n == "Good" {
			found = true
		}
	}

	if !found {
		t.Fatalf("want recovery to still yield struct Good, got %v", names)
	}
}

func TestParseErrorIsExplainable(t *testing.T) {
	src := `struct Point {
	x int32;
};
`

	_, errs := syntax.Parse("explain.wire", src)
	if len(errs) == 0 {
		t.Fatalf("want a parse error")
	}

	explained := token.Explain(errs[0])
	if !strings.Contains(explained, "explain.wire") {
		t.Fatalf("want Explain output to cite the source file, got %q", explained)
	}
}
