package layout_test

import (
	"os"
	"testing"

	"github.com/golangee/wiresmith/layout"
	"github.com/golangee/wiresmith/model"
	"github.com/golangee/wiresmith/syntax"
)

func mustReadPingPong(t *testing.T) string {
	t.Helper()

	src, err := os.ReadFile("../testdata/pingpong.wire")
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}

	return string(src)
}

func mustModel(t *testing.T, src string) *model.Model {
	t.Helper()

	f, errs := syntax.Parse("test.wire", src)
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}

	m, verrs := model.Validate(f)
	if len(verrs) > 0 {
		t.Fatalf("unexpected validation errors: %v", verrs)
	}

	return m
}

func TestComputeBitPackedStruct(t *testing.T) {
	m := mustModel(t, `
struct X {
    [bits=4] a: uint8;
    [bits=3] b: uint8;
    [bits=1] c: bit;
};
`)

	h, _ := m.Lookup("X")

	plan, errs := layout.Compute(m, h)
	if len(errs) > 0 {
		t.Fatalf("unexpected layout errors: %v", errs)
	}

	if plan.Dynamic {
		t.Fatalf("plan should be fully static")
	}

	if plan.StaticBitWidth != 8 {
		t.Fatalf("got width %d, want 8", plan.StaticBitWidth)
	}

	want := []struct {
		offset, width int
	}{
		{0, 4},
		{4, 3},
		{7, 1},
	}

	for i, w := range want {
		p := plan.Placements[i]
		if p.Offset != w.offset || p.BitWidth != w.width {
			t.Errorf("placement %d: got offset=%d width=%d, want offset=%d width=%d",
				i, p.Offset, p.BitWidth, w.offset, w.width)
		}
	}
}

func TestComputeByteAlignedFields(t *testing.T) {
	m := mustModel(t, `
struct X {
    a: uint16;
    b: uint8;
};
`)

	h, _ := m.Lookup("X")

	plan, errs := layout.Compute(m, h)
	if len(errs) > 0 {
		t.Fatalf("unexpected layout errors: %v", errs)
	}

	if plan.StaticBitWidth != 24 {
		t.Fatalf("got width %d, want 24", plan.StaticBitWidth)
	}

	if plan.Placements[0].Offset != 0 || plan.Placements[1].Offset != 16 {
		t.Fatalf("unexpected offsets: %+v", plan.Placements)
	}
}

func TestComputeMisalignedByteField(t *testing.T) {
	m := mustModel(t, `
struct X {
    [bits=3] a: uint8;
    b: uint8;
};
`)

	h, _ := m.Lookup("X")

	_, errs := layout.Compute(m, h)
	if len(errs) != 1 || errs[0].Code != layout.MisalignedByteField {
		t.Fatalf("got %v, want one MisalignedByteField error", errs)
	}
}

func TestComputeDynamicTail(t *testing.T) {
	m := mustModel(t, `
struct X {
    count: uint8;
    data: byte[];
};
`)

	h, _ := m.Lookup("X")

	plan, errs := layout.Compute(m, h)
	if len(errs) > 0 {
		t.Fatalf("unexpected layout errors: %v", errs)
	}

	if !plan.Dynamic {
		t.Fatalf("plan should be dynamic")
	}

	if plan.Placements[0].Offset != 0 || !plan.Placements[0].Static {
		t.Fatalf("count field should still be statically placed: %+v", plan.Placements[0])
	}

	if plan.Placements[1].Static {
		t.Fatalf("data field should not be statically placed")
	}
}

func TestUnionWidthUniform(t *testing.T) {
	m := mustModel(t, `
union U {
    0 => a: uint32;
    1 => b: uint32;
};
`)

	h, _ := m.Lookup("U")

	w, static := layout.UnionWidth(m, h)
	if !static || w != 32 {
		t.Fatalf("got width=%d static=%v, want 32/true", w, static)
	}
}

func TestUnionWidthNonUniform(t *testing.T) {
	m := mustModel(t, `
union U {
    0 => a: uint8;
    1 => b: uint32;
};
`)

	h, _ := m.Lookup("U")

	_, static := layout.UnionWidth(m, h)
	if static {
		t.Fatalf("expected non-uniform union to report static=false")
	}
}

func TestComputeStaticArray(t *testing.T) {
	m := mustModel(t, `
struct X {
    a: uint8[4];
};
`)

	h, _ := m.Lookup("X")

	plan, errs := layout.Compute(m, h)
	if len(errs) > 0 {
		t.Fatalf("unexpected layout errors: %v", errs)
	}

	if plan.StaticBitWidth != 32 {
		t.Fatalf("got width %d, want 32", plan.StaticBitWidth)
	}
}

func TestComputePingPong(t *testing.T) {
	src := mustReadPingPong(t)

	m := mustModel(t, src)

	h, _ := m.Lookup("Ping")

	plan, errs := layout.Compute(m, h)
	if len(errs) > 0 {
		t.Fatalf("unexpected layout errors: %v", errs)
	}

	if plan.StaticBitWidth != 32 {
		t.Fatalf("got width %d, want 32", plan.StaticBitWidth)
	}
}
