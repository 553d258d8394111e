package ot

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestCMapGoFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	otf := parseTestFont(t)
	gid := otf.GlyphIndex('A')
	if gid == 0 {
		t.Fatal("expected glyph index for 'A', got 0")
	}
	t.Logf("glyph ID = %d | 0x%x", gid, gid)
	if r := otf.CMap.GlyphIndexMap.ReverseLookup(gid); r != 'A' {
		t.Errorf("expected reverse lookup of glyph %d to be 'A', got %q", gid, r)
	}
	if gid = otf.GlyphIndex(0xE0000); gid != 0 {
		t.Errorf("expected unmapped code-point to yield glyph 0, got %d", gid)
	}
}

func TestCMapFormat0(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	b := make([]byte, 262)
	binary.BigEndian.PutUint16(b[2:], 262) // length
	b[6+'A'] = 77
	gi, err := makeGlyphIndex(b)
	if err != nil {
		t.Fatal(err)
	}
	if gid := gi.Lookup('A'); gid != 77 {
		t.Errorf("expected glyph 77 for 'A', got %d", gid)
	}
	if gid := gi.Lookup('B'); gid != 0 {
		t.Errorf("expected glyph 0 for 'B', got %d", gid)
	}
	if gid := gi.Lookup(0x100); gid != 0 {
		t.Errorf("format 0 cannot map beyond code 255, got glyph %d", gid)
	}
	if r := gi.ReverseLookup(77); r != 'A' {
		t.Errorf("expected reverse lookup of glyph 77 to be 'A', got %q", r)
	}
}

// Two segments: codes 32…126 map via delta, the terminating segment maps
// 0xffff through the glyph ID array.
func testFormat4Table() []byte {
	const segCount = 2
	b := make([]byte, 14+segCount*8+2+2)              // header, 4 arrays + pad, 1 glyph ID
	binary.BigEndian.PutUint16(b, 4)                  // format
	binary.BigEndian.PutUint16(b[2:], uint16(len(b))) // length
	binary.BigEndian.PutUint16(b[6:], segCount*2)     // segCountX2
	binary.BigEndian.PutUint16(b[14:], 126)           // endCode[0]
	binary.BigEndian.PutUint16(b[16:], 0xffff)        // endCode[1]
	// 2 bytes reserved padding
	binary.BigEndian.PutUint16(b[20:], 32)     // startCode[0]
	binary.BigEndian.PutUint16(b[22:], 0xffff) // startCode[1]
	binary.BigEndian.PutUint16(b[24:], 0xffe1) // idDelta[0] = -31
	binary.BigEndian.PutUint16(b[26:], 0)      // idDelta[1]
	binary.BigEndian.PutUint16(b[28:], 0)      // idRangeOffset[0]
	binary.BigEndian.PutUint16(b[30:], 2)      // idRangeOffset[1] → glyphIdArray[0]
	binary.BigEndian.PutUint16(b[32:], 321)    // glyphIdArray[0]
	return b
}

func TestCMapFormat4(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	gi, err := makeGlyphIndex(testFormat4Table())
	if err != nil {
		t.Fatal(err)
	}
	if gid := gi.Lookup('A'); gid != 'A'-31 {
		t.Errorf("expected glyph %d for 'A', got %d", 'A'-31, gid)
	}
	if gid := gi.Lookup(20); gid != 0 {
		t.Errorf("expected glyph 0 for unmapped code 20, got %d", gid)
	}
	if gid := gi.Lookup(0xffff); gid != 321 {
		t.Errorf("expected glyph 321 through glyph ID array, got %d", gid)
	}
	if r := gi.ReverseLookup('A' - 31); r != 'A' {
		t.Errorf("expected reverse lookup to find 'A', got %q", r)
	}
}

func TestCMapFormat6(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	b := make([]byte, 10+3*2)
	binary.BigEndian.PutUint16(b, 6)                  // format
	binary.BigEndian.PutUint16(b[2:], uint16(len(b))) // length
	binary.BigEndian.PutUint16(b[6:], 0x20)           // firstCode
	binary.BigEndian.PutUint16(b[8:], 3)              // entryCount
	binary.BigEndian.PutUint16(b[10:], 5)
	binary.BigEndian.PutUint16(b[12:], 6)
	binary.BigEndian.PutUint16(b[14:], 7)
	gi, err := makeGlyphIndex(b)
	if err != nil {
		t.Fatal(err)
	}
	if gid := gi.Lookup(0x21); gid != 6 {
		t.Errorf("expected glyph 6 for code 0x21, got %d", gid)
	}
	if gid := gi.Lookup(0x1f); gid != 0 {
		t.Errorf("expected glyph 0 below trimmed range, got %d", gid)
	}
	if gid := gi.Lookup(0x23); gid != 0 {
		t.Errorf("expected glyph 0 above trimmed range, got %d", gid)
	}
}

func testFormat1213Table(format uint16) []byte {
	b := make([]byte, 16+2*12)
	binary.BigEndian.PutUint16(b, format)
	binary.BigEndian.PutUint32(b[4:], uint32(len(b))) // length
	binary.BigEndian.PutUint32(b[12:], 2)             // numGroups
	binary.BigEndian.PutUint32(b[16:], 0x41)          // start
	binary.BigEndian.PutUint32(b[20:], 0x5a)          // end
	binary.BigEndian.PutUint32(b[24:], 100)           // startGlyphID
	binary.BigEndian.PutUint32(b[28:], 0x1f600)       // start
	binary.BigEndian.PutUint32(b[32:], 0x1f640)       // end
	binary.BigEndian.PutUint32(b[36:], 900)           // startGlyphID
	return b
}

func TestCMapFormat12(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	gi, err := makeGlyphIndex(testFormat1213Table(12))
	if err != nil {
		t.Fatal(err)
	}
	if gid := gi.Lookup('B'); gid != 101 {
		t.Errorf("expected glyph 101 for 'B', got %d", gid)
	}
	if gid := gi.Lookup(0x1f601); gid != 901 {
		t.Errorf("expected glyph 901 for supplementary-plane code, got %d", gid)
	}
	if gid := gi.Lookup(0x40); gid != 0 {
		t.Errorf("expected glyph 0 for unmapped code, got %d", gid)
	}
	if r := gi.ReverseLookup(901); r != 0x1f601 {
		t.Errorf("expected reverse lookup of glyph 901 to be U+1F601, got %U", r)
	}
}

func TestCMapFormat13(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	gi, err := makeGlyphIndex(testFormat1213Table(13))
	if err != nil {
		t.Fatal(err)
	}
	// format 13 maps all codes of a group to one and the same glyph
	if gid := gi.Lookup('B'); gid != 100 {
		t.Errorf("expected glyph 100 for 'B', got %d", gid)
	}
	if gid := gi.Lookup('Z'); gid != 100 {
		t.Errorf("expected glyph 100 for 'Z', got %d", gid)
	}
	if gid := gi.Lookup(0x1f640); gid != 900 {
		t.Errorf("expected glyph 900 for supplementary-plane code, got %d", gid)
	}
}

func TestCMapFormat2Unsupported(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	b := make([]byte, 540)
	binary.BigEndian.PutUint16(b, 2) // format 2, high-byte CJK mapping
	_, err := makeGlyphIndex(b)
	if !errors.Is(err, ErrCmapFormatUnsupported) {
		t.Errorf("expected ErrCmapFormatUnsupported, got %v", err)
	}
}

func TestCMapNoSupportedEncoding(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	// single Macintosh (platform 1) encoding record
	b := make([]byte, 12)
	binary.BigEndian.PutUint16(b[2:], 1)
	binary.BigEndian.PutUint16(b[4:], 1)  // platform Macintosh
	binary.BigEndian.PutUint16(b[6:], 0)  // encoding Roman
	binary.BigEndian.PutUint32(b[8:], 12) // offset
	_, err := parseCMap(T("cmap"), b, 0, uint32(len(b)))
	if !errors.Is(err, ErrCmapEncodingUnsupported) {
		t.Errorf("expected ErrCmapEncodingUnsupported, got %v", err)
	}
}

func TestCMapTruncated(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	// declared record count exceeds the available bytes
	b := make([]byte, 12)
	binary.BigEndian.PutUint16(b[2:], 100)
	_, err := parseCMap(T("cmap"), b, 0, uint32(len(b)))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for truncated cmap, got %v", err)
	}
	// single (3,1) record pointing past the end of the table
	b = make([]byte, 12)
	binary.BigEndian.PutUint16(b[2:], 1)
	binary.BigEndian.PutUint16(b[4:], 3)    // platform Windows
	binary.BigEndian.PutUint16(b[6:], 1)    // encoding UCS-2
	binary.BigEndian.PutUint32(b[8:], 4096) // offset beyond table
	_, err = parseCMap(T("cmap"), b, 0, uint32(len(b)))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for out-of-bounds sub-table, got %v", err)
	}
}

func TestCMapRanking(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	//
	// (3,0) symbol ranks behind (3,1) UCS-2, which ranks behind (0,4)
	if rankPlatformEncoding(3, 0) <= rankPlatformEncoding(3, 1) {
		t.Error("expected symbol encoding to rank behind Windows UCS-2")
	}
	if rankPlatformEncoding(3, 1) <= rankPlatformEncoding(0, 4) {
		t.Error("expected Windows UCS-2 to rank behind Unicode 2.0 full")
	}
	if rankPlatformEncoding(1, 0) != -1 {
		t.Error("expected Macintosh platform to be unrecognized")
	}
}
