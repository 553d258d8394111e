package ot

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/npillmayer/gtype/core"
)

// Code comments often will cite passages from the
// OpenType specification version 1.8.4;
// see https://docs.microsoft.com/en-us/typography/opentype/spec/.

// ---------------------------------------------------------------------------

// Parse parses a TrueType font from a byte slice, starting at byte 0.
// An ot.Font needs ongoing access to the font's byte-data after the Parse
// function returns. Its elements are assumed immutable while the ot.Font
// remains in use.
//
// For font collection files (TTC), combine ParseAt with FontOffsetForIndex.
func Parse(font []byte) (*Font, error) {
	return ParseAt(font, 0)
}

// ParseAt parses a font whose offset table starts at byte position fontStart
// within font. Table offsets in the font's directory are relative to the start
// of the byte slice, not to fontStart, as is the case for collection files.
func ParseAt(font []byte, fontStart int) (*Font, error) {
	// https://www.microsoft.com/typography/otspec/otff.htm: Offset Table is 12 bytes.
	if fontStart < 0 || fontStart+12 > len(font) {
		return nil, errFontFormat("byte slice too small for offset table")
	}
	r := bytes.NewReader(font[fontStart:])
	h := FontHeader{}
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, err
	}
	tracer().Debugf("header = %v, tag = %x|%s", h, h.FontType, Tag(h.FontType).String())
	if !(h.FontType == 0x4f54544f || // OTTO
		h.FontType == 0x00010000 || // TrueType
		h.FontType == 0x74727565 || // true
		h.FontType == 0x74797031) { // typ1
		return nil, errFontFormat(fmt.Sprintf("font type not supported: %x", h.FontType))
	}
	otf := &Font{Header: &h, tables: make(map[Tag]Table)}
	src := binarySegm(font)
	// "The Offset Table is followed immediately by the Table Record entries",
	// 16 bytes each. Fonts in the wild do not always keep the records sorted
	// by tag, so no order is required here.
	buf, err := src.view(fontStart+12, 16*int(h.TableCount))
	if err != nil {
		return nil, errFontFormat("table record entries")
	}
	for b := buf; len(b) > 0; b = b[16:] {
		tag := MakeTag(b)
		off, size := u32(b[8:12]), u32(b[12:16])
		table, err := src.view(int(off), int(size))
		if err != nil {
			return nil, errFontFormat(fmt.Sprintf("extent of table (%s)", tag))
		}
		otf.tables[tag], err = parseTable(tag, table, off, size)
		if err != nil {
			return nil, err
		}
	}
	if err := linkEssentialTables(otf); err != nil {
		return nil, err
	}
	return otf, nil
}

// RequiredTables lists the tables a font must carry to address TrueType
// glyph outlines.
var RequiredTables = []string{
	"cmap", "head", "hhea", "hmtx", "glyf", "loca",
}

// Consistency check and shortcuts to essential tables. Values which tables
// derive from one another (metrics count, location count, location entry
// format) are distributed here.
func linkEssentialTables(otf *Font) error {
	for _, tag := range RequiredTables {
		if otf.tables[T(tag)] == nil {
			return errMissingTable(tag)
		}
	}
	otf.CMap = otf.tables[T("cmap")].Self().AsCMap()
	otf.Head = otf.tables[T("head")].Self().AsHead()
	otf.HHea = otf.tables[T("hhea")].Self().AsHHea()
	otf.HMtx = otf.tables[T("hmtx")].Self().AsHMtx()
	otf.Loca = otf.tables[T("loca")].Self().AsLoca()
	otf.Glyf = otf.tables[T("glyf")].Self().AsGlyf()
	if otf.CMap == nil || otf.Head == nil || otf.HHea == nil ||
		otf.HMtx == nil || otf.Loca == nil || otf.Glyf == nil {
		return errFontFormat("essential table empty")
	}
	// 'maxp' is treated as optional: without it the glyph count is unknown
	// and range checking is left to the 'loca' table.
	if mx := otf.tables[T("maxp")]; mx != nil {
		otf.MaxP = mx.Self().AsMaxP()
	}
	if k := otf.tables[T("kern")]; k != nil {
		otf.Kern = k.Self().AsKern()
	}
	otf.HMtx.NumberOfHMetrics = otf.HHea.NumberOfHMetrics
	switch otf.Head.IndexToLocFormat {
	case 0:
		otf.Loca.inx2loc = shortLocaVersion
	case 1:
		otf.Loca.inx2loc = longLocaVersion
	default:
		return core.WrapError(
			fmt.Errorf("%w: %d", ErrUnknownLocationFormat, otf.Head.IndexToLocFormat),
			core.EINVALID, "unknown loca table format")
	}
	// number of locations is one more than the number of glyphs, but never
	// more than the loca table holds
	entrySize := 2 << otf.Head.IndexToLocFormat // 2 or 4 bytes per entry
	locCnt := int(otf.Loca.length) / entrySize
	if otf.MaxP != nil && otf.MaxP.NumGlyphs+1 < locCnt {
		locCnt = otf.MaxP.NumGlyphs + 1
	}
	otf.Loca.locCnt = locCnt
	return nil
}

func errMissingTable(tag string) error {
	return core.WrapError(fmt.Errorf("%w: %s", ErrMissingTable, tag),
		core.EMISSING, "font lacks required table (%s)", tag)
}

func parseTable(t Tag, b binarySegm, offset, size uint32) (Table, error) {
	switch t {
	case T("cmap"):
		return parseCMap(t, b, offset, size)
	case T("head"):
		return parseHead(t, b, offset, size)
	case T("glyf"):
		return newGlyfTable(t, b, offset, size), nil
	case T("hhea"):
		return parseHHea(t, b, offset, size)
	case T("hmtx"):
		return parseHMtx(t, b, offset, size)
	case T("kern"):
		return parseKern(t, b, offset, size)
	case T("loca"):
		return parseLoca(t, b, offset, size)
	case T("maxp"):
		return parseMaxP(t, b, offset, size)
	}
	tracer().Debugf("font contains table (%s), will not be interpreted", t)
	return newTable(t, b, offset, size), nil
}

// --- Head table ------------------------------------------------------------

func parseHead(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 54 {
		return nil, errFontFormat("size of head table")
	}
	if version, _ := b.u32(0); version != 0x00010000 {
		return nil, errVersion(ErrHeadVersionUnsupported, version)
	}
	t := newHeadTable(tag, b, offset, size)
	t.Flags, _ = b.u16(16)      // flags
	t.UnitsPerEm, _ = b.u16(18) // units per em
	t.XMin, _ = b.i16(36)       // font bounding box, covering all glyphs
	t.YMin, _ = b.i16(38)
	t.XMax, _ = b.i16(40)
	t.YMax, _ = b.i16(42)
	// IndexToLocFormat is needed to interpret the loca table:
	// 0 for short offsets, 1 for long
	t.IndexToLocFormat, _ = b.i16(50)
	return t, nil
}

// --- Kern table ------------------------------------------------------------

type kernSubTableHeader struct {
	directory [4]uint16 // information to support binary search on sub-table
	offset    uint16    // start position of this sub-table's kern pairs
	length    uint32    // size of the sub-table in bytes, without header
	coverage  uint16    // info about type of information contained in this sub-table
}

// TrueType and OpenType slightly differ on formats of kern tables:
// see https://developer.apple.com/fonts/TrueType-Reference-Manual/RM06/Chap6kern.html
// and https://docs.microsoft.com/en-us/typography/opentype/spec/kern

// parseKern parses the kern table. There is significant confusion with this table
// concerning format differences between OpenType, TrueType, and fonts in the wild.
// We currently only support kern table format 0, which should be supported on any
// platform. In the real world, fonts usually have just one kern sub-table, and
// older Windows versions cannot handle more than one.
func parseKern(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size <= 4 {
		return nil, nil
	}
	var N, suboffset, subheaderlen int
	if version := u32(b); version == 0x00010000 {
		tracer().Debugf("font has Apple TTF kern table format")
		n, _ := b.u32(4) // number of kerning tables is uint32
		N, suboffset, subheaderlen = int(n), 8, 16
	} else {
		tracer().Debugf("font has OTF (MS) kern table format")
		n, _ := b.u16(2) // number of kerning tables is uint16
		N, suboffset, subheaderlen = int(n), 4, 14
	}
	tracer().Debugf("kern table has %d sub-tables", N)
	t := newKernTable(tag, b, offset, size)
	for i := 0; i < N; i++ { // read in N sub-tables
		if suboffset+subheaderlen >= int(size) { // check for sub-table header size
			return nil, errFontFormat("kern table format")
		}
		h := kernSubTableHeader{
			offset: uint16(suboffset + subheaderlen),
			// sub-tables are of varying size; size may be off ⇒ see below
			length:   uint32(u16(b[suboffset+2:]) - uint16(subheaderlen)),
			coverage: u16(b[suboffset+4:]),
		}
		if format := h.coverage >> 8; format != 0 {
			tracer().Infof("kern sub-table format %d not supported, ignoring sub-table", format)
			continue // we only support format 0 kerning tables; skip this one
		}
		h.directory = [4]uint16{
			u16(b[suboffset+subheaderlen-8:]),
			u16(b[suboffset+subheaderlen-6:]),
			u16(b[suboffset+subheaderlen-4:]),
			u16(b[suboffset+subheaderlen-2:]),
		}
		kerncnt := uint32(h.directory[0])
		tracer().Debugf("kern sub-table has %d entries", kerncnt)
		// For some fonts, size calculation of kern sub-tables is off; see
		// https://github.com/fonttools/fonttools/issues/314#issuecomment-118116527
		sz := kerncnt * 6 // kern pair is of size 6
		if sz != h.length {
			tracer().Infof("kern sub-table size should be 0x%x, but given as 0x%x; fixing",
				sz, h.length)
			h.length = sz
		}
		if uint32(suboffset)+sz >= size {
			return nil, errFontFormat("kern sub-table size exceeds kern table bounds")
		}
		t.headers = append(t.headers, h)
		suboffset += subheaderlen + int(h.length)
	}
	tracer().Debugf("table kern has %d sub-table(s)", len(t.headers))
	return t, nil
}

// --- Loca table ------------------------------------------------------------

// Dependencies (taken from Apple Developer page about TrueType):
// The size of entries in the 'loca' table must be appropriate for the value of the
// indexToLocFormat field of the 'head' table. The number of entries must be the same
// as the numGlyphs field of the 'maxp' table.
// The 'loca' table is most intimately dependent upon the contents of the 'glyf' table
// and vice versa.
func parseLoca(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	return newLocaTable(tag, b, offset, size), nil
}

// --- MaxP table ------------------------------------------------------------

// Fonts with CFF data use Version 0.5 of this table, specifying only the
// numGlyphs field. Fonts with TrueType outlines use Version 1.0, where all
// data is required.
func parseMaxP(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 6 {
		return nil, errFontFormat("size of maxp table")
	}
	version, _ := b.u32(0)
	if version != 0x00010000 && version != 0x00005000 {
		return nil, errVersion(ErrMaxpVersionUnsupported, version)
	}
	t := newMaxPTable(tag, b, offset, size)
	n, _ := b.u16(4)
	t.NumGlyphs = int(n)
	return t, nil
}

// --- HHea table ------------------------------------------------------------

func parseHHea(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 36 {
		return nil, errFontFormat("hhea table incomplete")
	}
	if version, _ := b.u32(0); version != 0x00010000 {
		return nil, errVersion(ErrHheaVersionUnsupported, version)
	}
	t := newHHeaTable(tag, b, offset, size)
	t.Ascender, _ = b.i16(4)
	t.Descender, _ = b.i16(6)
	t.LineGap, _ = b.i16(8)
	n, _ := b.u16(34)
	t.NumberOfHMetrics = int(n)
	return t, nil
}

// --- HMtx table ------------------------------------------------------------

// Dependencies (taken from Apple Developer page about TrueType):
// The value of the numOfLongHorMetrics field is found in the 'hhea' (Horizontal
// Header) table. Fonts that lack an 'hhea' table must not have an 'hmtx' table.
func parseHMtx(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size == 0 {
		return nil, errFontFormat("hmtx table empty")
	}
	t := newHMtxTable(tag, b, offset, size)
	return t, nil
}

// --- Font collections ------------------------------------------------------

// NumberOfFonts returns the number of fonts contained in a font file,
// which is 1 for a single font file and the collection size for TTC files.
// A return value of -1 flags data not recognizable as a font.
func NumberOfFonts(font []byte) int {
	b := binarySegm(font)
	if isFontHeader(b) {
		return 1
	}
	if tag, err := b.u32(0); err == nil && Tag(tag) == T("ttcf") {
		if version, _ := b.u32(4); version == 0x00010000 || version == 0x00020000 {
			n, _ := b.u32(8)
			return int(n)
		}
	}
	return -1
}

// FontOffsetForIndex returns the byte position of the font with a given
// index inside a font file, for use with ParseAt. Single font files hold one
// font at position 0; TTC collection files list their sub-font positions in
// the collection header. A return value of -1 flags an invalid index.
func FontOffsetForIndex(font []byte, index int) int {
	b := binarySegm(font)
	if isFontHeader(b) {
		if index == 0 {
			return 0
		}
		return -1
	}
	if tag, err := b.u32(0); err == nil && Tag(tag) == T("ttcf") {
		if version, _ := b.u32(4); version == 0x00010000 || version == 0x00020000 {
			n, _ := b.u32(8)
			if index < 0 || index >= int(n) {
				return -1
			}
			off, err := b.u32(12 + index*4)
			if err != nil {
				return -1
			}
			return int(off)
		}
	}
	return -1
}

func isFontHeader(b binarySegm) bool {
	version, err := b.u32(0)
	if err != nil {
		return false
	}
	return version == 0x00010000 || version == 0x74727565 ||
		version == 0x74797031 || version == 0x4f54544f
}

// KernTable gives information about kerning and kern pairs.
// The kerning table contains the values that control the inter-character
// spacing for the glyphs in a font. Fonts containing CFF outlines are not
// supported by the 'kern' table and have to use the GPOS OpenType layout
// table.
type KernTable struct {
	tableBase
	headers []kernSubTableHeader
}

func newKernTable(tag Tag, b binarySegm, offset, size uint32) *KernTable {
	t := &KernTable{}
	base := tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	}
	t.tableBase = base
	t.self = t
	return t
}

// KernSubTableInfo contains header information for a kerning sub-table.
// Currently only format 0 of kerning tables is supported (as does MS Windows).
type KernSubTableInfo struct {
	IsHorizontal  bool // kern data may be horizontal or vertical
	IsMinimum     bool // if false, table has kerning values, otherwise has minimum values
	IsOverride    bool // if true, the value in this table should replace the value currently being accumulated
	IsCrossStream bool // if true, kerning is perpendicular to the flow of the text
	Offset        uint16
	Length        uint32
}

// SubTableInfo returns information about a kerning sub-table. n is 0…N-1.
func (t *KernTable) SubTableInfo(n int) KernSubTableInfo {
	// Mask    Name
	// 0x8000  kernVertical
	// 0x4000  kernCrossStream
	// 0x2000  kernVariation
	// 0x1000  kernOverride
	// 0x0F00  kernUnusedBits
	// 0x00FF  kernFormatMask
	info := KernSubTableInfo{}
	if n >= 0 && n < len(t.headers) {
		h := t.headers[n]
		info.IsHorizontal = h.coverage&0x8000 == 0
		info.IsMinimum = h.coverage&0x4000 > 0
		info.IsCrossStream = h.coverage&0x2000 > 0
		info.IsOverride = h.coverage&0x1000 > 0
		info.Offset = h.offset
		info.Length = h.length
	}
	return info
}

// Kerning returns the kerning value for a pair of glyphs, in font units.
// The value is looked up by binary search in the first horizontal format 0
// sub-table; glyph pairs without an entry kern with 0.
func (t *KernTable) Kerning(g1, g2 GlyphIndex) int16 {
	for n, h := range t.headers {
		info := t.SubTableInfo(n)
		if !info.IsHorizontal || info.IsMinimum || info.IsCrossStream {
			continue
		}
		needle := uint32(g1)<<16 | uint32(g2)
		l, r := 0, int(h.directory[0])-1
		for l <= r {
			m := (l + r) >> 1
			straw, err := t.data.u32(int(h.offset) + 6*m)
			if err != nil {
				return 0
			}
			if needle < straw {
				r = m - 1
			} else if needle > straw {
				l = m + 1
			} else {
				v, _ := t.data.i16(int(h.offset) + 6*m + 4)
				return v
			}
		}
		return 0
	}
	return 0
}
