/*
Package ot provides access to the binary tables of TrueType and OpenType
fonts, as far as they are needed to turn a Unicode code-point into a glyph
outline: the sfnt table directory, the character-map ('cmap'), the glyph
location index ('loca'), and the header and metrics tables ('head', 'hhea',
'hmtx', 'maxp', optionally 'kern').

The intended audience for this package are glyph rasterizers and applications
which need to address glyphs of a font directly. It is *not* a font
manipulation library, nor a text shaper: advanced layout tables (GSUB, GPOS
and friends) are carried around as uninterpreted byte segments only.

Font files are fiddly territory: a vast desert of bytes without any sign
posts, and every font editor in existence has found its own way of getting
some corner of it subtly wrong. All access to the binary data therefore goes
through a bounds-checked byte segment type; a font constructed from garbage
bytes will produce errors, never an out-of-bounds read or a panic.

# Status

No variable fonts and no CFF outlines are supported yet. Font collections
(TTC) are handled only as far as locating the sub-font offsets goes.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ot

import (
	"errors"
	"fmt"

	"github.com/npillmayer/gtype/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'gtype.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("gtype.fonts")
}

// Error kinds returned by font parsing. Clients check for them with
// errors.Is; the concrete error values returned additionally carry a
// core.AppError code and a detail message.
var (
	// ErrMalformed flags structurally insufficient or inconsistent bytes,
	// including every attempt to read past the end of the provided data.
	ErrMalformed = errors.New("malformed font data")

	// ErrMissingTable flags a required table tag absent from the directory.
	ErrMissingTable = errors.New("missing font table")

	// ErrHeadVersionUnsupported flags a 'head' table version other than 1.0.
	ErrHeadVersionUnsupported = errors.New("head table version not supported")

	// ErrHheaVersionUnsupported flags a 'hhea' table version other than 1.0.
	ErrHheaVersionUnsupported = errors.New("hhea table version not supported")

	// ErrMaxpVersionUnsupported flags an unknown 'maxp' table version.
	ErrMaxpVersionUnsupported = errors.New("maxp table version not supported")

	// ErrCmapEncodingUnsupported flags a 'cmap' without any recognized
	// platform/encoding pair.
	ErrCmapEncodingUnsupported = errors.New("cmap encoding subtable not supported")

	// ErrCmapFormatUnsupported flags a recognized 'cmap' subtable with an
	// undecodable format, e.g. format 2 (high-byte CJK mapping).
	ErrCmapFormatUnsupported = errors.New("cmap subtable format not supported")

	// ErrUnknownLocationFormat flags a 'head' indexToLocFormat outside {0,1}.
	ErrUnknownLocationFormat = errors.New("unknown loca table format")
)

// errFontFormat produces user level errors for font parsing.
func errFontFormat(x string) error {
	return core.WrapError(fmt.Errorf("%w: %s", ErrMalformed, x),
		core.EINVALID, "font format: %s", x)
}

// errVersion wraps one of the version-mismatch error kinds.
func errVersion(kind error, version uint32) error {
	return core.WrapError(fmt.Errorf("%w: 0x%08x", kind, version),
		core.EINVALID, "font table version not supported")
}
