package ot

/*
Some of the lookup code in this file follows the code of the Go core team,
available from https://github.com/golang/image/tree/master/font/sfnt.
I understand it's legal to do so, as long as the license information stays intact.

   Copyright 2017 The Go Authors. All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.

The LICENSE file mentioned is replicated as GO-LICENSE at the root directory of
this module.
*/

import (
	"fmt"

	"github.com/npillmayer/gtype/core"
)

// CMapTable represents an OpenType cmap table, i.e. the table to receive
// glyphs from code-points.
//
// See https://docs.microsoft.com/de-de/typography/opentype/spec/cmap
//
// Consulting the cmap table is a very frequent operation on fonts. We therefore
// construct an internal representation of the lookup table. A cmap table may
// contain more than one lookup table, but we will only instantiate the most
// appropriate one. Clients who need access to all the lookup tables will have
// to parse them themselves.
type CMapTable struct {
	tableBase
	GlyphIndexMap CMapGlyphIndex
}

func newCMapTable(tag Tag, b binarySegm, offset, size uint32) *CMapTable {
	t := &CMapTable{}
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

// rankPlatformEncoding defines an order in which the encoding sub-tables of
// a cmap table are selected, lower rank wins. Unicode encodings are
// preferred over Microsoft ones, full Unicode repertoire over BMP-only,
// and the symbol encoding comes last. Encodings for legacy CJK character
// sets (Shift-JIS, PRC, Big5, Johab) and Unicode variation sequences are
// recognized but only ever selected when nothing better is present.
//
// A rank of -1 flags a platform/encoding pair this package does not know
// about at all, e.g. the old Macintosh platform 1.
func rankPlatformEncoding(pid, psid uint16) int {
	switch pid {
	case 0: // Unicode platform
		switch psid {
		case 4: // Unicode 2.0, full repertoire
			return 0
		case 0, 1, 3: // default, Unicode 1.1, Unicode 2.0 BMP-only
			return 1
		case 5, 6: // variation sequences, last-resort full coverage
			return 10
		}
	case 3: // Windows platform
		switch psid {
		case 10: // Unicode UCS-4
			return 2
		case 1: // Unicode UCS-2
			return 3
		case 0: // symbol
			return 4
		case 2, 3, 4, 5: // Shift-JIS, PRC, Big5, Johab
			return 10
		}
	}
	return -1
}

// parseCMap parses the cmap table and selects the best supported encoding
// sub-table. Fonts without any recognized platform/encoding pair are
// rejected with ErrCmapEncodingUnsupported; a selected sub-table with an
// undecodable format is rejected with ErrCmapFormatUnsupported.
func parseCMap(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	n, _ := b.u16(2) // number of sub-tables
	tracer().Debugf("font cmap has %d sub-tables in %d|%d bytes", n, len(b), size)
	t := newCMapTable(tag, b, offset, size)
	const headerSize, entrySize = 4, 8
	if size < headerSize+entrySize*uint32(n) {
		return nil, errFontFormat("size of cmap table")
	}
	var enc encodingRecord
	enc.rank = -1
	for i := 0; i < int(n); i++ {
		rec, _ := b.view(headerSize+entrySize*i, entrySize)
		pid, psid := u16(rec), u16(rec[2:])
		rank := rankPlatformEncoding(pid, psid)
		if rank < 0 {
			tracer().Debugf("cmap sub-table for platform (%d|%d) not recognized", pid, psid)
			continue
		}
		if enc.rank >= 0 && rank >= enc.rank {
			continue
		}
		enc = encodingRecord{
			platformId: pid,
			encodingId: psid,
			offset:     u32(rec[4:]),
			rank:       rank,
		}
	}
	if enc.rank < 0 {
		return nil, core.WrapError(
			fmt.Errorf("%w: no recognized platform/encoding pair", ErrCmapEncodingUnsupported),
			core.EINVALID, "font cmap: no supported encoding found")
	}
	subtable, err := b.view(int(enc.offset), int(size-enc.offset))
	if err != nil {
		return nil, errFontFormat("cmap sub-table bounds overflow")
	}
	if t.GlyphIndexMap, err = makeGlyphIndex(subtable); err != nil {
		return nil, err
	}
	return t, nil
}

type encodingRecord struct {
	platformId uint16
	encodingId uint16
	offset     uint32
	rank       int
}

// Dispatcher to create the correct implementation of a CMapGlyphIndex from
// a given sub-table format.
//
// The various cmap formats are described at
// https://www.microsoft.com/typography/otspec/cmap.htm
//
// From the spec: Of the seven available formats, not all are commonly used
// today. Formats 4 or 12 are appropriate for most new fonts, depending on the
// Unicode character repertoire supported. Some platforms also make use of
// format 13 for a last-resort fallback font. Other sub-table formats are not
// recommended for use in new fonts.
func makeGlyphIndex(b binarySegm) (CMapGlyphIndex, error) {
	format, err := b.u16(0)
	if err != nil {
		return nil, errFontFormat("cmap sub-table bounds overflow")
	}
	switch format {
	case 0:
		return makeGlyphIndexFormat0(b)
	case 4:
		return makeGlyphIndexFormat4(b)
	case 6:
		return makeGlyphIndexFormat6(b)
	case 12, 13:
		return makeGlyphIndexFormat1213(b, format)
	}
	// format 2 (high-byte CJK mapping), 8, 10 and 14 end up here
	return nil, core.WrapError(
		fmt.Errorf("%w: format %d", ErrCmapFormatUnsupported, format),
		core.EINVALID, "font cmap: sub-table format %d not supported", format)
}

// CMapGlyphIndex represents a CMap table index to receive a glyph index from
// a code-point.
type CMapGlyphIndex interface {
	Lookup(rune) GlyphIndex        // central activity of CMap
	ReverseLookup(GlyphIndex) rune // this is non-standard, but helps with tests
}

// --- Format 0: byte encoding table -----------------------------------------

// Format 0 is the old-style Macintosh mapping: a plain array of 256 glyph
// bytes, indexed by (single byte) character code.
type format0GlyphIndex struct {
	glyphIds [256]byte
}

func (f0 format0GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 0xff {
		return 0 // return index for 'missing character'
	}
	return GlyphIndex(f0.glyphIds[r])
}

func (f0 format0GlyphIndex) ReverseLookup(gid GlyphIndex) rune {
	if gid == 0 || gid > 0xff {
		return 0
	}
	for c, g := range f0.glyphIds {
		if GlyphIndex(g) == gid {
			return rune(c)
		}
	}
	return 0
}

func makeGlyphIndexFormat0(b binarySegm) (CMapGlyphIndex, error) {
	const size = 262 // 3 header words plus 256 glyph bytes
	if b.Size() < size {
		return nil, errFontFormat("cmap sub-table bounds overflow")
	}
	if length, _ := b.u16(2); length != size {
		return nil, errFontFormat("cmap format 0 length")
	}
	f0 := format0GlyphIndex{}
	copy(f0.glyphIds[:], b[6:size])
	return f0, nil
}

// --- Format 4: segment mapping to delta values ------------------------------

// Format 4 is the standard character-to-glyph-index mapping sub-table for
// fonts that support only Unicode Basic Multilingual Plane characters
// (U+0000 to U+FFFF).
//
// This format is used when the character codes for the characters represented
// by a font fall into several contiguous ranges, possibly with holes in some
// or all of the ranges (that is, some of the codes in a range may not have a
// representation in the font).
type format4GlyphIndex struct {
	segCnt   int
	entries  []cmapEntry16
	glyphIds binarySegm // glyph ID array following the four parallel arrays
}

// Format 4 holds four parallel arrays to describe the segments (one segment
// for each contiguous range of codes), see
// https://docs.microsoft.com/en-us/typography/opentype/spec/cmap#format-4-segment-mapping-to-delta-values
type cmapEntry16 struct {
	end, start, delta, offset uint16
}

func (f4 format4GlyphIndex) Lookup(r rune) GlyphIndex {
	if uint32(r) > 0xffff { // format 4 is for BMP code-points only
		return 0 // return index for 'missing character'
	}
	c := uint16(r)
	N := len(f4.entries)
	for i, j := 0, N; i < j; {
		h := i + (j-i)/2 // do a binary search on f4.entries (which may get large)
		entry := &f4.entries[h]
		if c < entry.start {
			j = h
		} else if entry.end < c {
			i = h + 1
		} else if entry.offset == 0 {
			return GlyphIndex(c + entry.delta)
		} else {
			// The spec describes the calculation to find the link into the
			// glyph ID array as follows:
			// “The character code offset from startCode is added to the
			//  idRangeOffset value. This sum is used as an offset from the
			//  current location within idRangeOffset itself to index out the
			//  correct glyphIdArray value. This obscure indexing trick works
			//  because glyphIdArray immediately follows idRangeOffset in the
			//  font file.”
			// We sliced the sub-table at the start of the glyph ID array, so
			// the part of offset which skips over the remainder of the
			// idRangeOffset array has to come off first.
			deltaToEndOfEntries := (N - h) * 2 // 2 = byte size of offset array entry
			offset := int(entry.offset) - deltaToEndOfEntries
			index := offset/2 + int(c-entry.start) // offset is in bytes
			glyphInx, err := f4.glyphIds.u16(index * 2)
			if err != nil || glyphInx == 0 {
				return 0 // 0 indicates missingGlyph
			}
			// If the value obtained from the indexing operation is not 0,
			// idDelta[i] is added to it to get the glyph index
			return GlyphIndex(glyphInx + entry.delta)
		}
	}
	return GlyphIndex(0)
}

// ReverseLookup retrieves a code-point for a given glyph. The cmap tables do
// not support this operation, thus this operation is inefficient.
// However, for testing and debugging purposes it is often useful.
func (f4 format4GlyphIndex) ReverseLookup(gid GlyphIndex) rune {
	if gid == 0 {
		return 0
	}
	for _, entry := range f4.entries {
		if entry.end < entry.start || entry.start == 0xffff {
			break
		}
		for c := entry.start; c <= entry.end; c++ {
			if f4.Lookup(rune(c)) == gid {
				return rune(c)
			}
		}
	}
	return 0
}

// The format's data is divided into three parts, which must occur in the
// following order:
//
// - A four-word header gives parameters for an optimized search of the segment list;
// - Four parallel arrays describe the segments (one segment for each contiguous range of codes);
// - A variable-length array of glyph IDs (unsigned words).
func makeGlyphIndexFormat4(b binarySegm) (CMapGlyphIndex, error) {
	const headerSize = 14
	if headerSize > b.Size() {
		return nil, errFontFormat("cmap sub-table bounds overflow")
	}
	size, _ := b.u16(2)
	segCount, _ := b.u16(6)
	if segCount&1 != 0 {
		tracer().Debugf("cmap format 4 segment count is %d", segCount)
		return nil, errFontFormat("cmap table format, illegal segment count")
	}
	segCount /= 2
	eLength := 8*int(segCount) + 2
	if int(size) > b.Size() || headerSize+eLength > int(size) {
		return nil, errFontFormat("cmap internal structure")
	}
	b = b[headerSize:size]
	entries := make([]cmapEntry16, segCount)
	next := int(segCount)*2 + 2 // 2 is a padding entry in the cmap table
	for i := range entries {
		entries[i] = cmapEntry16{
			end:    b.U16(i * 2),
			start:  b.U16(next + i*2),
			delta:  b.U16(next + int(segCount)*2 + i*2),
			offset: b.U16(next + int(segCount)*4 + i*2),
		}
	}
	glyphIds := b[next+int(segCount)*6:]
	tracer().Debugf("cmap format 4 glyph table starts at offset %d", next+int(segCount)*6)
	return format4GlyphIndex{
		segCnt:   int(segCount),
		entries:  entries,
		glyphIds: glyphIds,
	}, nil
}

// --- Format 6: trimmed table mapping ----------------------------------------

// Format 6 maps a single contiguous range of character codes to consecutive
// entries of a glyph ID array.
type format6GlyphIndex struct {
	firstCode uint16
	glyphIds  []GlyphIndex
}

func (f6 format6GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < rune(f6.firstCode) || r >= rune(f6.firstCode)+rune(len(f6.glyphIds)) {
		return 0
	}
	return f6.glyphIds[r-rune(f6.firstCode)]
}

func (f6 format6GlyphIndex) ReverseLookup(gid GlyphIndex) rune {
	if gid == 0 {
		return 0
	}
	for i, g := range f6.glyphIds {
		if g == gid {
			return rune(f6.firstCode) + rune(i)
		}
	}
	return 0
}

func makeGlyphIndexFormat6(b binarySegm) (CMapGlyphIndex, error) {
	const headerSize = 10
	if headerSize > b.Size() {
		return nil, errFontFormat("cmap sub-table bounds overflow")
	}
	firstCode, _ := b.u16(6)
	entryCount, _ := b.u16(8)
	if headerSize+int(entryCount)*2 > b.Size() {
		return nil, errFontFormat("cmap internal structure")
	}
	f6 := format6GlyphIndex{firstCode: firstCode}
	f6.glyphIds = make([]GlyphIndex, entryCount)
	for i := range f6.glyphIds {
		f6.glyphIds[i] = GlyphIndex(b.U16(headerSize + i*2))
	}
	return f6, nil
}

// --- Formats 12 and 13: segmented coverage ----------------------------------

type cmapEntry32 struct {
	start, end, delta uint32
}

// Format 12 is the standard character-to-glyph-index mapping sub-table for
// fonts supporting Unicode character repertoires that include
// supplementary-plane characters (U+10000 to U+10FFFF).
//
// Format 12 is similar to format 4 in that it defines segments for sparse
// representation. It differs, however, in that it uses 32-bit character
// codes, and glyph ID lookup and calculation is a lot simpler.
//
// Format 13 shares the group record layout, but maps every character of a
// group to the single glyph in the delta field, a layout used by last-resort
// fallback fonts.
type format1213GlyphIndex struct {
	format  uint16 // 12 or 13
	grpCnt  int
	entries []cmapEntry32
}

func (f12 format1213GlyphIndex) Lookup(r rune) GlyphIndex {
	c := uint32(r)
	for i, j := 0, len(f12.entries); i < j; {
		h := i + (j-i)/2 // do a binary search on f12.entries (which may get large)
		entry := &f12.entries[h]
		if c < entry.start {
			j = h
		} else if entry.end < c {
			i = h + 1
		} else if f12.format == 13 {
			return GlyphIndex(entry.delta) // one glyph for the whole group
		} else {
			return GlyphIndex(c - entry.start + entry.delta)
		}
	}
	return 0
}

// ReverseLookup retrieves a code-point for a given glyph. The cmap tables do
// not support this operation, thus this operation is inefficient.
// However, for testing and debugging purposes it is often useful.
func (f12 format1213GlyphIndex) ReverseLookup(gid GlyphIndex) rune {
	if gid == 0 {
		return 0
	}
	cid := uint32(gid)
	for _, entry := range f12.entries {
		if f12.format == 13 {
			if entry.delta == cid {
				return rune(entry.start)
			}
			continue
		}
		for c := entry.start; c <= entry.end; c++ {
			if c-entry.start+entry.delta == cid {
				return rune(c)
			}
		}
	}
	return 0
}

func makeGlyphIndexFormat1213(b binarySegm, format uint16) (CMapGlyphIndex, error) {
	const headerSize = 16
	if headerSize > b.Size() {
		return nil, errFontFormat("cmap sub-table bounds overflow")
	}
	size, _ := b.u32(4)
	grpCount, _ := b.u32(12)
	eLength := 12 * int(grpCount)
	if int(size) > b.Size() || eLength+headerSize > int(size) {
		return nil, errFontFormat("cmap internal structure")
	}
	b = b[headerSize:size]
	// SequentialMapGroup Record:
	// Type     Name            Description
	// uint32   startCharCode   First character code in this group
	// uint32   endCharCode     Last character code in this group
	// uint32   startGlyphID    Glyph index corresponding to the starting character code
	entries := make([]cmapEntry32, grpCount)
	for i := range entries {
		entries[i] = cmapEntry32{
			start: b.U32(i * 12),
			end:   b.U32(i*12 + 4),
			delta: b.U32(i*12 + 8),
		}
	}
	return format1213GlyphIndex{
		format:  format,
		grpCnt:  int(grpCount),
		entries: entries,
	}, nil
}
