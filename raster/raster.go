/*
Package raster turns decoded glyph outlines into antialiased coverage
bitmaps.

The pipeline is the classic scanline approach: quadratic curve segments are
flattened into polyline contours within a flatness tolerance, the contours
are chopped into y-sorted directed edges, and a sweep over the output rows
accumulates exact signed coverage per pixel. Coverage is analytic, not
supersampled, so small pixel sizes come out correctly antialiased.

Clients will usually call one of the convenience entry points:

	bm, xoff, yoff, err := raster.CodepointBitmap(otf, scale, scale, 'A')

which sizes a bitmap from the glyph's bounding box and renders into it.
Rasterize is the lower-level call for pre-allocated bitmaps.

A Font is safe for concurrent readers; every rasterization call owns its
bitmap, its edge list and its active-edge pool, so glyphs of the same font
may be rendered in parallel without locking.

# Status

Work in progress.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert.pillmayer@gmx.de>
*/
package raster

import (
	"math"
	"strings"

	"github.com/npillmayer/gtype/core"
	"github.com/npillmayer/gtype/glyf"
	"github.com/npillmayer/gtype/ot"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'gtype.raster'.
func tracer() tracing.Trace {
	return tracing.Select("gtype.raster")
}

// flatness is the allowable curve error in pixels.
const flatness = 0.35

// Bitmap is a single-channel 8bpp coverage bitmap, stored left-to-right,
// top-to-bottom. 0 is no coverage, 255 is fully covered.
type Bitmap struct {
	Width  int
	Height int
	Stride int
	Pixels []byte
}

// At returns the coverage value at (x,y).
func (bm *Bitmap) At(x, y int) byte {
	return bm.Pixels[y*bm.Stride+x]
}

// shades quantizes coverage to 8 levels for debugging output.
const shades = " .:ioVM@"

// String renders the bitmap as ASCII art, one line per row.
func (bm *Bitmap) String() string {
	var sb strings.Builder
	for y := 0; y < bm.Height; y++ {
		for x := 0; x < bm.Width; x++ {
			sb.WriteByte(shades[bm.At(x, y)>>5])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Rasterize draws an outline into dst, applying scale and shift to the
// outline's coordinates and offsetting the result by (-offX,-offY) pixels.
// invert flips the shape vertically; glyph outlines use y-up while bitmaps
// are y-down, so glyph rendering always inverts.
func Rasterize(dst *Bitmap, flatnessInPixels float32, outline glyf.Outline,
	scaleX, scaleY, shiftX, shiftY float32, offX, offY int, invert bool) {
	//
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}
	pts, contours := flattenOutline(outline, flatnessInPixels/scale)
	if len(contours) == 0 {
		return
	}
	edges := buildEdges(pts, contours, scaleX, scaleY, shiftX, shiftY, invert)
	sortEdges(edges)
	tracer().Debugf("rasterizing %d contours, %d edges", len(contours), len(edges))
	rasterizeSortedEdges(dst, edges, offX, offY)
}

// GlyphBitmapBoxSubpixel computes the pixel-space bounding box of a glyph
// rendered at the given scale and subpixel shift. The box is centered
// around the glyph origin, so the bitmap is placed at (lsb*scale, iy0).
// Whitespace glyphs yield an all-zero box.
func GlyphBitmapBoxSubpixel(otf *ot.Font, gid ot.GlyphIndex,
	scaleX, scaleY, shiftX, shiftY float32) (ix0, iy0, ix1, iy1 int) {
	//
	box, ok := glyf.GlyphBox(otf, gid)
	if !ok {
		return 0, 0, 0, 0
	}
	// y is flipped: outline box and bitmap box are vertically inverted
	ix0 = ifloor(float32(box.X0)*scaleX + shiftX)
	iy0 = ifloor(float32(-box.Y1)*scaleY + shiftY)
	ix1 = iceil(float32(box.X1)*scaleX + shiftX)
	iy1 = iceil(float32(-box.Y0)*scaleY + shiftY)
	return
}

// GlyphBitmapBox is GlyphBitmapBoxSubpixel with zero shift.
func GlyphBitmapBox(otf *ot.Font, gid ot.GlyphIndex, scaleX, scaleY float32) (int, int, int, int) {
	return GlyphBitmapBoxSubpixel(otf, gid, scaleX, scaleY, 0, 0)
}

// CodepointBitmapBoxSubpixel is GlyphBitmapBoxSubpixel for a codepoint.
func CodepointBitmapBoxSubpixel(otf *ot.Font, codepoint rune,
	scaleX, scaleY, shiftX, shiftY float32) (int, int, int, int) {
	//
	return GlyphBitmapBoxSubpixel(otf, otf.GlyphIndex(codepoint), scaleX, scaleY, shiftX, shiftY)
}

// CodepointBitmapBox is CodepointBitmapBoxSubpixel with zero shift.
func CodepointBitmapBox(otf *ot.Font, codepoint rune, scaleX, scaleY float32) (int, int, int, int) {
	return CodepointBitmapBoxSubpixel(otf, codepoint, scaleX, scaleY, 0, 0)
}

// GlyphBitmapSubpixel allocates a bitmap sized from the glyph's bitmap box
// and renders the glyph into it. It returns the bitmap together with the
// pixel-space offset from the glyph origin to the bitmap's top-left corner.
// A zero scale in one dimension is substituted by the other.
func GlyphBitmapSubpixel(otf *ot.Font, scaleX, scaleY, shiftX, shiftY float32,
	gid ot.GlyphIndex) (*Bitmap, int, int, error) {
	//
	if scaleX == 0 {
		scaleX = scaleY
	}
	if scaleY == 0 {
		if scaleX == 0 {
			return nil, 0, 0, core.Error(core.EINVALID, "rasterization needs a non-zero scale")
		}
		scaleY = scaleX
	}
	outline, err := glyf.GlyphOutline(otf, gid)
	if err != nil {
		return nil, 0, 0, err
	}
	ix0, iy0, ix1, iy1 := GlyphBitmapBoxSubpixel(otf, gid, scaleX, scaleY, shiftX, shiftY)
	bm := &Bitmap{Width: ix1 - ix0, Height: iy1 - iy0}
	if bm.Width > 0 && bm.Height > 0 {
		bm.Stride = bm.Width
		bm.Pixels = make([]byte, bm.Width*bm.Height)
		Rasterize(bm, flatness, outline, scaleX, scaleY, shiftX, shiftY, ix0, iy0, true)
	}
	return bm, ix0, iy0, nil
}

// GlyphBitmap is GlyphBitmapSubpixel with zero shift.
func GlyphBitmap(otf *ot.Font, scaleX, scaleY float32, gid ot.GlyphIndex) (*Bitmap, int, int, error) {
	return GlyphBitmapSubpixel(otf, scaleX, scaleY, 0, 0, gid)
}

// CodepointBitmapSubpixel is GlyphBitmapSubpixel for a codepoint.
func CodepointBitmapSubpixel(otf *ot.Font, scaleX, scaleY, shiftX, shiftY float32,
	codepoint rune) (*Bitmap, int, int, error) {
	//
	return GlyphBitmapSubpixel(otf, scaleX, scaleY, shiftX, shiftY, otf.GlyphIndex(codepoint))
}

// CodepointBitmap is CodepointBitmapSubpixel with zero shift.
func CodepointBitmap(otf *ot.Font, scaleX, scaleY float32, codepoint rune) (*Bitmap, int, int, error) {
	return CodepointBitmapSubpixel(otf, scaleX, scaleY, 0, 0, codepoint)
}

// MakeGlyphBitmapSubpixel renders a glyph into caller-provided bitmap
// storage, clipped to the bitmap's dimensions.
func MakeGlyphBitmapSubpixel(otf *ot.Font, dst *Bitmap,
	scaleX, scaleY, shiftX, shiftY float32, gid ot.GlyphIndex) error {
	//
	outline, err := glyf.GlyphOutline(otf, gid)
	if err != nil {
		return err
	}
	ix0, iy0, _, _ := GlyphBitmapBoxSubpixel(otf, gid, scaleX, scaleY, shiftX, shiftY)
	if dst.Width != 0 && dst.Height != 0 {
		Rasterize(dst, flatness, outline, scaleX, scaleY, shiftX, shiftY, ix0, iy0, true)
	}
	return nil
}

// MakeGlyphBitmap is MakeGlyphBitmapSubpixel with zero shift.
func MakeGlyphBitmap(otf *ot.Font, dst *Bitmap, scaleX, scaleY float32, gid ot.GlyphIndex) error {
	return MakeGlyphBitmapSubpixel(otf, dst, scaleX, scaleY, 0, 0, gid)
}

// MakeCodepointBitmapSubpixel is MakeGlyphBitmapSubpixel for a codepoint.
func MakeCodepointBitmapSubpixel(otf *ot.Font, dst *Bitmap,
	scaleX, scaleY, shiftX, shiftY float32, codepoint rune) error {
	//
	return MakeGlyphBitmapSubpixel(otf, dst, scaleX, scaleY, shiftX, shiftY, otf.GlyphIndex(codepoint))
}

// MakeCodepointBitmap is MakeCodepointBitmapSubpixel with zero shift.
func MakeCodepointBitmap(otf *ot.Font, dst *Bitmap, scaleX, scaleY float32, codepoint rune) error {
	return MakeCodepointBitmapSubpixel(otf, dst, scaleX, scaleY, 0, 0, codepoint)
}

func ifloor(x float32) int {
	return int(math.Floor(float64(x)))
}

func iceil(x float32) int {
	return int(math.Ceil(float64(x)))
}
