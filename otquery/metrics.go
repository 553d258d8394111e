package otquery

import (
	"github.com/npillmayer/gtype/glyf"
	"github.com/npillmayer/gtype/ot"
	"golang.org/x/image/font/sfnt"
)

// BoundingBox is a rectangle in font units, y growing upwards.
type BoundingBox struct {
	MinX, MinY sfnt.Units
	MaxX, MaxY sfnt.Units
}

// Dx returns the horizontal extent of the box.
func (bb BoundingBox) Dx() sfnt.Units {
	return bb.MaxX - bb.MinX
}

// Dy returns the vertical extent of the box.
func (bb BoundingBox) Dy() sfnt.Units {
	return bb.MaxY - bb.MinY
}

// Empty is true for a box without extent.
func (bb BoundingBox) Empty() bool {
	return bb.MinX == bb.MaxX || bb.MinY == bb.MaxY
}

// FontMetricsInfo holds font-global metrics, all in font units.
type FontMetricsInfo struct {
	Ascent     sfnt.Units
	Descent    sfnt.Units // typically negative
	LineGap    sfnt.Units
	UnitsPerEm sfnt.Units
	BBox       BoundingBox
}

// GlyphMetricsInfo holds per-glyph metrics, all in font units.
type GlyphMetricsInfo struct {
	Advance sfnt.Units
	LSB     sfnt.Units
	RSB     sfnt.Units
	BBox    BoundingBox
}

// FontMetrics retrieves selected global metrics of a font.
func FontMetrics(otf *ot.Font) FontMetricsInfo {
	metrics := FontMetricsInfo{}
	ascent, descent, lineGap := otf.HHea.LineMetrics()
	metrics.Ascent = sfnt.Units(ascent)
	metrics.Descent = sfnt.Units(descent)
	metrics.LineGap = sfnt.Units(lineGap)
	metrics.UnitsPerEm = sfnt.Units(otf.Head.UnitsPerEm)
	metrics.BBox = BoundingBox{
		MinX: sfnt.Units(otf.Head.XMin),
		MinY: sfnt.Units(otf.Head.YMin),
		MaxX: sfnt.Units(otf.Head.XMax),
		MaxY: sfnt.Units(otf.Head.YMax),
	}
	return metrics
}

// GlyphIndex returns the glyph index for a given code-point.
// If the code-point cannot be found, 0 is returned.
//
// From the OpenType specification: character codes that do not correspond to any glyph in
// the font should be mapped to glyph index 0. The glyph at this location must be a special
// glyph representing a missing character, commonly known as '.notdef'.
func GlyphIndex(otf *ot.Font, codepoint rune) ot.GlyphIndex {
	return otf.CMap.GlyphIndexMap.Lookup(codepoint)
}

// CodePointForGlyph returns the code-point for a given glyph index.
//
// This is an inefficient operation: all code-points contained in the font's
// CMap are checked sequentially if they produce the given glyph.
// If the glyph index does not correspond to a code-point, 0 is returned.
func CodePointForGlyph(otf *ot.Font, gid ot.GlyphIndex) rune {
	if gid == 0 {
		return 0
	}
	return otf.CMap.GlyphIndexMap.ReverseLookup(gid)
}

// GlyphMetrics retrieves metrics for a given glyph.
func GlyphMetrics(otf *ot.Font, gid ot.GlyphIndex) GlyphMetricsInfo {
	metrics := GlyphMetricsInfo{}
	advance, lsb := otf.HMtx.Metrics(gid)
	metrics.Advance = sfnt.Units(advance)
	metrics.LSB = sfnt.Units(lsb)
	if box, ok := glyf.GlyphBox(otf, gid); ok {
		metrics.BBox = BoundingBox{
			MinX: sfnt.Units(box.X0),
			MinY: sfnt.Units(box.Y0),
			MaxX: sfnt.Units(box.X1),
			MaxY: sfnt.Units(box.Y1),
		}
	}
	// rsb = aw - (lsb + xMax - xMin)
	// From the spec:
	// If a glyph has no contours, xMax/xMin are not defined. The left side bearing indicated
	// in the 'hmtx' table for such glyphs should be zero.
	if !metrics.BBox.Empty() { // leave RSB for empty bboxes
		metrics.RSB = metrics.Advance - (metrics.LSB + metrics.BBox.Dx())
	}
	return metrics
}

// ScaleForPixelHeight computes the scaling factor that maps the font's
// line height, i.e. ascent minus descent, onto the given pixel height.
func ScaleForPixelHeight(otf *ot.Font, height float32) float32 {
	ascent, descent, _ := otf.HHea.LineMetrics()
	return height / float32(int(ascent)-int(descent))
}

// ScaleForEmToPixels computes the scaling factor that maps the font's
// em square onto the given pixel size.
func ScaleForEmToPixels(otf *ot.Font, pixels float32) float32 {
	return pixels / float32(otf.Head.UnitsPerEm)
}

// KernAdvance returns the kerning adjustment for a glyph pair in font
// units, or 0 if the font carries no usable kerning data.
func KernAdvance(otf *ot.Font, g1, g2 ot.GlyphIndex) sfnt.Units {
	if otf.Kern == nil {
		return 0
	}
	return sfnt.Units(otf.Kern.Kerning(g1, g2))
}
