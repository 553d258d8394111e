package glyf

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/npillmayer/gtype/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"golang.org/x/image/font/gofont/goregular"
)

func TestSimpleGlyphDecode(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	otf := synthTestFont(t)
	outline, err := GlyphOutline(otf, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := Outline{
		{Op: OpMove, X: 0, Y: 0},
		{Op: OpLine, X: 100, Y: 0},
		{Op: OpLine, X: 50, Y: 80},
		{Op: OpLine, X: 0, Y: 0},
	}
	if len(outline) != len(want) {
		t.Fatalf("expected %d vertices, got %d: %v", len(want), len(outline), outline)
	}
	for i, v := range want {
		if outline[i] != v {
			t.Errorf("vertex %d: expected %v, got %v", i, v, outline[i])
		}
	}
}

func TestCompositeTranslation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	otf := synthTestFont(t)
	base, err := GlyphOutline(otf, 0)
	if err != nil {
		t.Fatal(err)
	}
	comp, err := GlyphOutline(otf, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(comp) != len(base) {
		t.Fatalf("expected %d vertices, got %d", len(base), len(comp))
	}
	for i := range base {
		if comp[i].X != base[i].X+100 || comp[i].Y != base[i].Y {
			t.Errorf("vertex %d: expected %v shifted by (100,0), got %v", i, base[i], comp[i])
		}
	}
}

func TestCompositeCycle(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	otf := synthTestFont(t)
	_, err := GlyphOutline(otf, 2) // glyph 2 references itself
	if err == nil {
		t.Fatal("expected decoding of self-referential composite to fail")
	}
	if !errors.Is(err, ot.ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestGoFontOutline(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	otf := parseGoFont(t)
	outline, err := CodepointOutline(otf, 'A')
	if err != nil {
		t.Fatal(err)
	}
	if len(outline) == 0 {
		t.Fatal("expected non-empty outline for 'A'")
	}
	if outline[0].Op != OpMove {
		t.Errorf("expected outline to start with a move, got op %d", outline[0].Op)
	}
	moves := 0
	for _, v := range outline {
		if v.Op == OpMove {
			moves++
		}
	}
	if moves != 2 { // outer contour and counter
		t.Errorf("expected 2 contours for 'A', got %d", moves)
	}
}

func TestGoFontWhitespace(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	otf := parseGoFont(t)
	gid := otf.GlyphIndex(' ')
	if gid == 0 {
		t.Fatal("expected space to be mapped")
	}
	if !IsGlyphEmpty(otf, gid) {
		t.Error("expected space glyph to be empty")
	}
	outline, err := GlyphOutline(otf, gid)
	if err != nil {
		t.Fatal(err)
	}
	if len(outline) != 0 {
		t.Errorf("expected empty outline for space, got %d vertices", len(outline))
	}
}

func TestGoFontGlyphBox(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	otf := parseGoFont(t)
	box, ok := CodepointBox(otf, 'A')
	if !ok {
		t.Fatal("expected bounding box for 'A'")
	}
	if box.X1 <= box.X0 || box.Y1 <= box.Y0 {
		t.Errorf("degenerate bounding box %v", box)
	}
	if _, ok := CodepointBox(otf, ' '); ok {
		t.Error("expected no bounding box for space")
	}
}

func TestOutOfRangeGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	otf := parseGoFont(t)
	outline, err := GlyphOutline(otf, ot.GlyphIndex(otf.NumGlyphs()+7))
	if err != nil {
		t.Fatal(err)
	}
	if len(outline) != 0 {
		t.Errorf("expected empty outline past the last glyph, got %d vertices", len(outline))
	}
}

// ---------------------------------------------------------------------------

func parseGoFont(t *testing.T) *ot.Font {
	otf, err := ot.Parse(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	return otf
}

// synthTestFont builds a minimal 3-glyph font: a simple triangle, a
// composite shifting the triangle by (100,0), and a self-referential
// composite.
func synthTestFont(t *testing.T) *ot.Font {
	// glyph 0: triangle (0,0) (100,0) (50,80), all points on-curve
	triangle := make([]byte, 0, 30)
	triangle = appendU16(triangle, 1)                          // numberOfContours
	triangle = appendU16(triangle, 0, 0, 100, 80)              // bbox
	triangle = appendU16(triangle, 2)                          // endPtsOfContours[0]
	triangle = appendU16(triangle, 0)                          // instructionLength
	triangle = append(triangle, 1, 1, 1)                       // flags: on-curve, 2-byte deltas
	triangle = appendU16(triangle, 0, 100, uint16(0x10000-50)) // dx
	triangle = appendU16(triangle, 0, 0, 80)                   // dy
	triangle = append(triangle, 0)                             // pad to even length for short loca

	composite := func(gid, dx uint16) []byte {
		c := make([]byte, 0, 18)
		c = appendU16(c, 0xffff)        // numberOfContours == -1
		c = appendU16(c, 0, 0, 200, 80) // bbox
		c = appendU16(c, 0x0003)        // word args, xy values, no more
		c = appendU16(c, gid, dx, 0)
		return c
	}
	glyf := append([]byte{}, triangle...)
	glyf = append(glyf, composite(0, 100)...)
	glyf = append(glyf, composite(2, 0)...) // references itself

	loca := make([]byte, 0, 8)
	offs := []int{0, len(triangle), len(triangle) + 18, len(triangle) + 36}
	for _, o := range offs {
		loca = appendU16(loca, uint16(o/2))
	}

	head := make([]byte, 54)
	binary.BigEndian.PutUint32(head, 0x00010000)
	binary.BigEndian.PutUint16(head[18:], 1000) // unitsPerEm
	hhea := make([]byte, 36)
	binary.BigEndian.PutUint32(hhea, 0x00010000)
	binary.BigEndian.PutUint16(hhea[34:], 1)
	maxp := make([]byte, 6)
	binary.BigEndian.PutUint32(maxp, 0x00010000)
	binary.BigEndian.PutUint16(maxp[4:], 3)
	hmtx := make([]byte, 8)
	cmap := make([]byte, 12+24)
	binary.BigEndian.PutUint16(cmap[2:], 1)
	binary.BigEndian.PutUint16(cmap[4:], 3)
	binary.BigEndian.PutUint16(cmap[6:], 1)
	binary.BigEndian.PutUint32(cmap[8:], 12)
	f4 := cmap[12:]
	binary.BigEndian.PutUint16(f4, 4)
	binary.BigEndian.PutUint16(f4[2:], 24)
	binary.BigEndian.PutUint16(f4[6:], 2)
	binary.BigEndian.PutUint16(f4[14:], 0xffff)
	binary.BigEndian.PutUint16(f4[18:], 0xffff)
	binary.BigEndian.PutUint16(f4[20:], 1)

	tables := []struct {
		tag string
		b   []byte
	}{
		{"cmap", cmap}, {"glyf", glyf}, {"head", head}, {"hhea", hhea},
		{"hmtx", hmtx}, {"loca", loca}, {"maxp", maxp},
	}
	font := make([]byte, 12+16*len(tables))
	binary.BigEndian.PutUint32(font, 0x00010000)
	binary.BigEndian.PutUint16(font[4:], uint16(len(tables)))
	for i, tb := range tables {
		rec := font[12+16*i:]
		copy(rec[:4], tb.tag)
		binary.BigEndian.PutUint32(rec[8:], uint32(len(font)))
		binary.BigEndian.PutUint32(rec[12:], uint32(len(tb.b)))
		font = append(font, tb.b...)
	}
	otf, err := ot.Parse(font)
	if err != nil {
		t.Fatal(err)
	}
	return otf
}

func appendU16(b []byte, vals ...uint16) []byte {
	for _, v := range vals {
		b = append(b, byte(v>>8), byte(v))
	}
	return b
}
