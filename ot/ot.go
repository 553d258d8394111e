package ot

// FontHeader is a directory of the top-level tables in a font. If the font file
// contains only one font, the table directory will begin at byte 0 of the file.
// If the font file is a font collection file, the beginning point of the table
// directory for each font is indicated in the TTC header; see FontOffsetForIndex.
//
// Fonts with TrueType outlines use the value 0x00010000 for the FontType.
// Fonts containing CFF data use 0x4F54544F ('OTTO', when re-interpreted as
// a Tag). The Apple specification additionally allows 'true' and 'typ1'.
type FontHeader struct {
	FontType   uint32
	TableCount uint16
}

// Font represents the parsed structure of a TrueType font. It is used to
// address glyphs of a font directly: code-point to glyph index mapping,
// glyph outline data, and horizontal metrics.
//
// A Font needs ongoing access to the font's byte-data after the Parse
// function returns. Its elements are assumed immutable while the Font
// remains in use.
type Font struct {
	Header *FontHeader
	data   binarySegm // the font's complete binary data
	tables map[Tag]Table

	// Mandatory tables for addressing TrueType glyphs.
	CMap *CMapTable
	Head *HeadTable
	HHea *HHeaTable
	HMtx *HMtxTable
	MaxP *MaxPTable
	Loca *LocaTable
	Glyf *GlyfTable
	Kern *KernTable // optional, may be nil
}

// Table returns the font table for a given tag. If a table for a tag cannot
// be found in the font, nil is returned.
//
// The binary data of every table in the directory is carried around, i.e. no
// table information is dropped, but only the tables needed for glyph
// addressing are interpreted. For example to receive the `head` and the
// `loca` table, clients may call
//
//	head := otf.Table(ot.T("head")).Self().AsHead()
//	loca := otf.Table(ot.T("loca")).Self().AsLoca()
//
// Table tag names are case-sensitive, following the names in the OpenType
// specification.
func (otf *Font) Table(tag Tag) Table {
	if t, ok := otf.tables[tag]; ok {
		return t
	}
	return nil
}

// TableTags returns a list of tags, one for each table contained in the font.
func (otf *Font) TableTags() []Tag {
	var tags = make([]Tag, 0, len(otf.tables))
	for tag := range otf.tables {
		tags = append(tags, tag)
	}
	return tags
}

// NumGlyphs returns the number of glyphs contained in the font, as given by
// the 'maxp' table. Fonts without a 'maxp' table report the maximum possible
// glyph count, leaving range checks to the 'loca' table.
func (otf *Font) NumGlyphs() int {
	if otf.MaxP == nil {
		return 0xffff
	}
	return otf.MaxP.NumGlyphs
}

// GlyphIndex returns the glyph index for a code-point, using the character
// map subtable selected during parsing. Code-points not covered by the font
// map to glyph 0 (per definition the 'missing character').
func (otf *Font) GlyphIndex(codepoint rune) GlyphIndex {
	return otf.CMap.GlyphIndexMap.Lookup(codepoint)
}

// GlyphData returns the 'glyf' table segment for a glyph, bounded by the
// locations of glyph gid and gid+1. ok is false for glyphs without an
// outline (whitespace glyphs, out-of-range indices, damaged location data).
func (otf *Font) GlyphData(gid GlyphIndex) ([]byte, bool) {
	if int(gid) >= otf.NumGlyphs() {
		return nil, false
	}
	from, ok1 := otf.Loca.IndexToLocation(gid)
	to, ok2 := otf.Loca.IndexToLocation(gid + 1)
	if !ok1 || !ok2 || from >= to {
		return nil, false
	}
	glyf := binarySegm(otf.Glyf.Binary())
	seg, err := glyf.view(int(from), int(to-from))
	if err != nil {
		return nil, false
	}
	return seg, true
}

// GlyphIndex is a glyph index in a font.
type GlyphIndex uint16

// --- Tag -------------------------------------------------------------------

// Tag is defined by the OpenType specification as:
// Array of four uint8s (length = 32 bits) used to identify a table,
// design-variation axis, script, language system, feature, or baseline
type Tag uint32

// MakeTag creates a Tag from 4 bytes, e.g.,
//
//	MakeTag([]byte("cmap"))
//
// If b is shorter or longer, it will be silently extended or cut as appropriate.
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) > 4 {
		b = b[:4]
	} else if len(b) < 4 {
		b = append([]byte{0, 0, 0, 0}[:4-len(b)], b...)
	}
	return Tag(u32(b))
}

// T returns a Tag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as appropriate.
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

func (t Tag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return string(bytes)
}

// --- Table -----------------------------------------------------------------

// Table represents one of the various TrueType/OpenType font tables.
//
// Required tables for TrueType outline fonts: 'cmap' (character to glyph
// mapping), 'head' (font header), 'hhea' (horizontal header), 'hmtx'
// (horizontal metrics), 'maxp' (maximum profile), 'glyf' (glyph data) and
// 'loca' (index to location). 'kern' (kerning pairs) is optional.
//
// Every other table contained in a font is accessible as a generic table,
// i.e. as an uninterpreted byte segment.
type Table interface {
	Extent() (uint32, uint32) // offset and byte size within the font's binary data
	Binary() []byte           // the bytes of this table; should be treated as read-only by clients
	Self() TableSelf          // reference to itself
}

func newTable(tag Tag, b binarySegm, offset, size uint32) *genericTable {
	t := &genericTable{tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	},
	}
	t.self = t
	return t
}

type genericTable struct {
	tableBase
}

// tableBase is a common parent for all kinds of font tables.
type tableBase struct {
	data   binarySegm // a table is a slice of font data
	name   Tag        // 4-byte name as an integer
	offset uint32     // from offset
	length uint32     // to offset + length
	self   interface{}
}

// Extent returns offset and byte size of this table within the font's binary data.
func (tb *tableBase) Extent() (uint32, uint32) {
	return tb.offset, tb.length
}

// Binary returns the bytes of this table. Should be treated as read-only by
// clients, as it is a view into the original data.
func (tb *tableBase) Binary() []byte {
	return tb.data
}

func (tb *tableBase) Self() TableSelf {
	return TableSelf{tableBase: tb}
}

// TableSelf is a reference to a table. Its primary use is for converting
// a generic table to a concrete table flavour, and for reproducing the
// name tag of a table.
type TableSelf struct {
	tableBase *tableBase
}

// NameTag returns the 4-letter name of a table.
func (tself TableSelf) NameTag() Tag {
	return tself.tableBase.name
}

func safeSelf(tself TableSelf) interface{} {
	if tself.tableBase == nil || tself.tableBase.self == nil {
		return TableSelf{}
	}
	return tself.tableBase.self
}

// AsCMap returns this table as a cmap table, or nil.
func (tself TableSelf) AsCMap() *CMapTable {
	if k, ok := safeSelf(tself).(*CMapTable); ok {
		return k
	}
	return nil
}

// AsHead returns this table as a head table, or nil.
func (tself TableSelf) AsHead() *HeadTable {
	if k, ok := safeSelf(tself).(*HeadTable); ok {
		return k
	}
	return nil
}

// AsHHea returns this table as a hhea table, or nil.
func (tself TableSelf) AsHHea() *HHeaTable {
	if k, ok := safeSelf(tself).(*HHeaTable); ok {
		return k
	}
	return nil
}

// AsHMtx returns this table as a hmtx table, or nil.
func (tself TableSelf) AsHMtx() *HMtxTable {
	if k, ok := safeSelf(tself).(*HMtxTable); ok {
		return k
	}
	return nil
}

// AsMaxP returns this table as a maxp table, or nil.
func (tself TableSelf) AsMaxP() *MaxPTable {
	if k, ok := safeSelf(tself).(*MaxPTable); ok {
		return k
	}
	return nil
}

// AsLoca returns this table as a loca table, or nil.
func (tself TableSelf) AsLoca() *LocaTable {
	if k, ok := safeSelf(tself).(*LocaTable); ok {
		return k
	}
	return nil
}

// AsGlyf returns this table as a glyf table, or nil.
func (tself TableSelf) AsGlyf() *GlyfTable {
	if k, ok := safeSelf(tself).(*GlyfTable); ok {
		return k
	}
	return nil
}

// AsKern returns this table as a kern table, or nil.
func (tself TableSelf) AsKern() *KernTable {
	if k, ok := safeSelf(tself).(*KernTable); ok {
		return k
	}
	return nil
}

// --- Concrete table implementations ----------------------------------------

// HeadTable gives global information about the font. The fields needed for
// glyph addressing and scaling are made public; to read any of the other
// fields of table 'head', go through the table's binary data.
type HeadTable struct {
	tableBase
	Flags            uint16 // see https://docs.microsoft.com/en-us/typography/opentype/spec/head
	UnitsPerEm       uint16 // values 16 … 16384 are valid
	IndexToLocFormat int16  // needed to interpret loca table
	XMin, YMin       int16  // corners of the font bounding box,
	XMax, YMax       int16  // covering all glyphs
}

func newHeadTable(tag Tag, b binarySegm, offset, size uint32) *HeadTable {
	t := &HeadTable{}
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

// HHeaTable contains information for horizontal layout.
type HHeaTable struct {
	tableBase
	Ascender         int16 // typographic ascent, font units
	Descender        int16 // typographic descent, typically negative
	LineGap          int16
	NumberOfHMetrics int
}

func newHHeaTable(tag Tag, b binarySegm, offset, size uint32) *HHeaTable {
	t := &HHeaTable{}
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

// LineMetrics returns ascent, descent and line gap in font units.
// vertical direction: ascent - descent + lineGap advances between baselines.
func (t *HHeaTable) LineMetrics() (ascent, descent, lineGap int16) {
	return t.Ascender, t.Descender, t.LineGap
}

// HMtxTable contains metric information for the horizontal layout of each of
// the glyphs in the font. Each element in the contained hMetrics-array has two
// parts: the advance width and the left side bearing. The value
// NumberOfHMetrics is taken from the 'hhea' table and copied into the
// HMtxTable for easier access. Glyphs above that count share the advance width
// of the last hMetrics entry, with their left side bearings stored in a
// trailing array. In a monospaced font, only one entry is required, but that
// entry may not be omitted.
type HMtxTable struct {
	tableBase
	NumberOfHMetrics int
}

func newHMtxTable(tag Tag, b binarySegm, offset, size uint32) *HMtxTable {
	t := &HMtxTable{}
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

// Metrics returns the advance width and left side bearing of a glyph,
// in font units.
func (t *HMtxTable) Metrics(g GlyphIndex) (advance uint16, lsb int16) {
	if t.NumberOfHMetrics == 0 {
		return 0, 0
	}
	if int(g) < t.NumberOfHMetrics {
		advance, _ = t.data.u16(int(g) * 4)
		lsb, _ = t.data.i16(int(g)*4 + 2)
		return advance, lsb
	}
	n := t.NumberOfHMetrics
	advance, _ = t.data.u16((n - 1) * 4)
	lsb, _ = t.data.i16(n*4 + (int(g)-n)*2)
	return advance, lsb
}

// MaxPTable establishes the memory requirements for this font.
// The 'maxp' table contains a count for the number of glyphs in the font.
type MaxPTable struct {
	tableBase
	NumGlyphs int
}

func newMaxPTable(tag Tag, b binarySegm, offset, size uint32) *MaxPTable {
	t := &MaxPTable{}
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

// LocaTable stores the offsets to the locations of the glyphs in the font,
// relative to the beginning of the glyph data table.
// By definition, index zero points to the “missing character”, which is the
// character that appears if a character is not found in the font. The missing
// character is commonly represented by a blank box or a space.
type LocaTable struct {
	tableBase
	inx2loc func(t *LocaTable, gid GlyphIndex) (uint32, bool) // returns glyph location for glyph gid
	locCnt  int                                               // number of locations
}

// IndexToLocation returns the byte offset of a glyph's data block within the
// 'glyf' table. ok is false for out-of-range glyph indices and damaged
// location data; clients then treat it as the missing character.
func (t *LocaTable) IndexToLocation(gid GlyphIndex) (loc uint32, ok bool) {
	return t.inx2loc(t, gid)
}

func newLocaTable(tag Tag, b binarySegm, offset, size uint32) *LocaTable {
	t := &LocaTable{}
	base := tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	}
	t.tableBase = base
	t.inx2loc = shortLocaVersion // may get changed during font consistency check
	t.locCnt = 0                 // has to be set during consistency check
	t.self = t
	return t
}

func shortLocaVersion(t *LocaTable, gid GlyphIndex) (uint32, bool) {
	if int(gid) >= t.locCnt {
		return 0, false
	}
	loc, err := t.data.u16(int(gid) * 2)
	if err != nil {
		return 0, false
	}
	return uint32(loc) * 2, true
}

func longLocaVersion(t *LocaTable, gid GlyphIndex) (uint32, bool) {
	if int(gid) >= t.locCnt {
		return 0, false
	}
	loc, err := t.data.u32(int(gid) * 4)
	if err != nil {
		return 0, false
	}
	return loc, true
}

// GlyfTable holds the glyph outline data of all glyphs in the font, as raw
// bytes. Interpreting a single glyph's data is the job of package glyf;
// addressing a glyph's byte segment is done through Font.GlyphData.
type GlyfTable struct {
	tableBase
}

func newGlyfTable(tag Tag, b binarySegm, offset, size uint32) *GlyfTable {
	t := &GlyfTable{}
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
