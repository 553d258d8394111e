package ot

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

func TestParseHeader(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	otf, err := Parse(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("otf.header.tag = %x", otf.Header.FontType)
	if otf.Header.FontType != 0x00010000 {
		t.Fatalf("expected Go Regular to be TTF 0x00010000, is %x", otf.Header.FontType)
	}
	if otf.Head == nil || otf.HHea == nil || otf.HMtx == nil ||
		otf.Loca == nil || otf.Glyf == nil || otf.CMap == nil {
		t.Fatal("expected all essential tables to be linked")
	}
	if otf.Head.UnitsPerEm < 16 || otf.Head.UnitsPerEm > 16384 {
		t.Errorf("units per em out of legal range: %d", otf.Head.UnitsPerEm)
	}
	if otf.NumGlyphs() == 0 || otf.NumGlyphs() == 0xffff {
		t.Errorf("unexpected glyph count %d", otf.NumGlyphs())
	}
}

func TestParseGarbage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	if _, err := Parse([]byte{1, 2, 3}); err == nil {
		t.Error("expected parsing of 3 garbage bytes to fail")
	}
	if _, err := Parse(goregular.TTF[:500]); err == nil {
		t.Error("expected parsing of truncated font to fail")
	}
}

func TestParseMissingTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	font := synthFont(t, nil, "cmap", "head", "hhea", "hmtx", "loca") // no glyf
	_, err := Parse(font)
	if err == nil {
		t.Fatal("expected parsing to fail on missing glyf table")
	}
	if !errors.Is(err, ErrMissingTable) {
		t.Errorf("expected ErrMissingTable, got %v", err)
	}
}

func TestParseHeadVersion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	patch := func(tables map[string][]byte) {
		binary.BigEndian.PutUint32(tables["head"], 0x00020000)
	}
	font := synthFont(t, patch, "cmap", "glyf", "head", "hhea", "hmtx", "loca")
	_, err := Parse(font)
	if !errors.Is(err, ErrHeadVersionUnsupported) {
		t.Errorf("expected ErrHeadVersionUnsupported, got %v", err)
	}
}

func TestParseHheaVersion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	patch := func(tables map[string][]byte) {
		binary.BigEndian.PutUint32(tables["hhea"], 0x00020000)
	}
	font := synthFont(t, patch, "cmap", "glyf", "head", "hhea", "hmtx", "loca")
	_, err := Parse(font)
	if !errors.Is(err, ErrHheaVersionUnsupported) {
		t.Errorf("expected ErrHheaVersionUnsupported, got %v", err)
	}
}

func TestParseMaxpVersion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	patch := func(tables map[string][]byte) {
		binary.BigEndian.PutUint32(tables["maxp"], 0xdeadbeef)
	}
	font := synthFont(t, patch, "cmap", "glyf", "head", "hhea", "hmtx", "loca", "maxp")
	_, err := Parse(font)
	if !errors.Is(err, ErrMaxpVersionUnsupported) {
		t.Errorf("expected ErrMaxpVersionUnsupported, got %v", err)
	}
}

func TestParseUnknownLocaFormat(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	patch := func(tables map[string][]byte) {
		binary.BigEndian.PutUint16(tables["head"][50:], 7)
	}
	font := synthFont(t, patch, "cmap", "glyf", "head", "hhea", "hmtx", "loca")
	_, err := Parse(font)
	if !errors.Is(err, ErrUnknownLocationFormat) {
		t.Errorf("expected ErrUnknownLocationFormat, got %v", err)
	}
}

func TestNumberOfFonts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	if n := NumberOfFonts(goregular.TTF); n != 1 {
		t.Errorf("expected Go Regular to contain 1 font, got %d", n)
	}
	if n := NumberOfFonts([]byte{0, 1, 2, 3}); n != -1 {
		t.Errorf("expected garbage to contain no font, got %d", n)
	}
}

func TestFontOffsetForIndex(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	if off := FontOffsetForIndex(goregular.TTF, 0); off != 0 {
		t.Errorf("expected single font at offset 0, got %d", off)
	}
	if off := FontOffsetForIndex(goregular.TTF, 1); off != -1 {
		t.Errorf("expected no second font, got offset %d", off)
	}
	// build a 2-font collection header around the Go fonts
	ttc := make([]byte, 0, len(goregular.TTF)+len(gobold.TTF)+20)
	header := [20]byte{}
	copy(header[:4], "ttcf")
	binary.BigEndian.PutUint32(header[4:], 0x00010000)
	binary.BigEndian.PutUint32(header[8:], 2)
	binary.BigEndian.PutUint32(header[12:], 20)
	binary.BigEndian.PutUint32(header[16:], uint32(20+len(goregular.TTF)))
	ttc = append(ttc, header[:]...)
	ttc = append(ttc, goregular.TTF...)
	ttc = append(ttc, gobold.TTF...)
	if n := NumberOfFonts(ttc); n != 2 {
		t.Errorf("expected collection to contain 2 fonts, got %d", n)
	}
	if off := FontOffsetForIndex(ttc, 1); off != 20+len(goregular.TTF) {
		t.Errorf("unexpected offset %d for second collection font", off)
	}
	if off := FontOffsetForIndex(ttc, 2); off != -1 {
		t.Errorf("expected no third font, got offset %d", off)
	}
}

func TestKerning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	otf := parseTestFont(t)
	if otf.Kern == nil {
		t.Skip("Go Regular carries no kern table")
	}
	av := otf.GlyphIndex('A')
	vv := otf.GlyphIndex('V')
	t.Logf("kern(A, V) = %d", otf.Kern.Kerning(av, vv))
}

// ---------------------------------------------------------------------------

// synthFont builds a minimal font binary from default table stubs. The stubs
// carry just enough structure for the consistency checks to pass; patch may
// damage them on purpose.
func synthFont(t *testing.T, patch func(map[string][]byte), tags ...string) []byte {
	tables := make(map[string][]byte)
	for _, tag := range tags {
		switch tag {
		case "head":
			head := make([]byte, 54)
			binary.BigEndian.PutUint32(head, 0x00010000)      // version
			binary.BigEndian.PutUint32(head[12:], 0x5f0f3cf5) // magic
			binary.BigEndian.PutUint16(head[18:], 2048)       // unitsPerEm
			tables["head"] = head
		case "hhea":
			hhea := make([]byte, 36)
			binary.BigEndian.PutUint32(hhea, 0x00010000) // version
			binary.BigEndian.PutUint16(hhea[34:], 1)     // numberOfHMetrics
			tables["hhea"] = hhea
		case "maxp":
			maxp := make([]byte, 6)
			binary.BigEndian.PutUint32(maxp, 0x00010000) // version
			binary.BigEndian.PutUint16(maxp[4:], 1)      // numGlyphs
			tables["maxp"] = maxp
		case "hmtx":
			tables["hmtx"] = make([]byte, 4)
		case "loca":
			tables["loca"] = make([]byte, 4) // two short locations
		case "glyf":
			tables["glyf"] = make([]byte, 12)
		case "cmap":
			// one encoding record (3,1) pointing to a format 4 sub-table
			// with a single terminating segment
			cmap := make([]byte, 12+24)
			binary.BigEndian.PutUint16(cmap[2:], 1)  // one sub-table
			binary.BigEndian.PutUint16(cmap[4:], 3)  // platform Windows
			binary.BigEndian.PutUint16(cmap[6:], 1)  // encoding UCS-2
			binary.BigEndian.PutUint32(cmap[8:], 12) // sub-table offset
			f4 := cmap[12:]
			binary.BigEndian.PutUint16(f4, 4)           // format
			binary.BigEndian.PutUint16(f4[2:], 24)      // length
			binary.BigEndian.PutUint16(f4[6:], 2)       // segCountX2
			binary.BigEndian.PutUint16(f4[14:], 0xffff) // endCode
			binary.BigEndian.PutUint16(f4[18:], 0xffff) // startCode
			binary.BigEndian.PutUint16(f4[20:], 1)      // idDelta
			tables["cmap"] = cmap
		default:
			t.Fatalf("no stub for table %s", tag)
		}
	}
	if patch != nil {
		patch(tables)
	}
	font := make([]byte, 12+16*len(tags))
	binary.BigEndian.PutUint32(font, 0x00010000)
	binary.BigEndian.PutUint16(font[4:], uint16(len(tags)))
	for i, tag := range tags {
		rec := font[12+16*i:]
		copy(rec[:4], tag)
		binary.BigEndian.PutUint32(rec[8:], uint32(len(font)))
		binary.BigEndian.PutUint32(rec[12:], uint32(len(tables[tag])))
		font = append(font, tables[tag]...)
	}
	return font
}
