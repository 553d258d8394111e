/*
Package glyf decodes TrueType glyph outlines ('glyf' table entries) into
streams of vertex commands.

A glyph outline is a series of contours. Each one starts with an OpMove,
then consists of a series of mixed OpLine and OpCurve segments. A line
draws from the previous endpoint to its (x,y); a curve draws a quadratic
Bézier from the previous endpoint to its (x,y), using (cx,cy) as the
control point. All coordinates are expressed in unscaled font design
units, y growing upwards.

Whitespace glyphs decode to an empty outline, which is not an error.
Structurally damaged glyph data is an error.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package glyf

import (
	"fmt"
	"math"

	"github.com/npillmayer/gtype/core"
	"github.com/npillmayer/gtype/ot"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'gtype.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("gtype.fonts")
}

func errGlyphFormat(x string) error {
	return core.WrapError(fmt.Errorf("%w: %s", ot.ErrMalformed, x),
		core.EINVALID, "glyph data: %s", x)
}

// Op is a vertex command opcode.
type Op uint8

// Vertex commands of a glyph outline.
const (
	OpMove  Op = iota + 1 // start a new contour at (x,y)
	OpLine                // straight line to (x,y)
	OpCurve               // quadratic Bézier to (x,y), control point (cx,cy)
)

// Vertex is one command of a glyph outline, in font design units.
type Vertex struct {
	Op     Op
	X, Y   int16 // segment endpoint
	CX, CY int16 // control point, OpCurve only
}

// Outline is an ordered sequence of vertex commands describing the contours
// of a glyph. A nil or empty outline draws nothing.
type Outline []Vertex

// components of a composite glyph may nest; fonts in the wild stay flat or
// nest once, anything deeper indicates a reference cycle
const maxCompositeDepth = 8

// GlyphOutline decodes the outline of a glyph. Glyphs without visible ink
// (whitespace glyphs, out-of-range indices) decode to an empty outline and
// no error.
func GlyphOutline(otf *ot.Font, gid ot.GlyphIndex) (Outline, error) {
	return glyphOutline(otf, gid, 0)
}

// CodepointOutline decodes the outline of the glyph a code-point maps to.
func CodepointOutline(otf *ot.Font, codepoint rune) (Outline, error) {
	return GlyphOutline(otf, otf.GlyphIndex(codepoint))
}

// IsGlyphEmpty reports whether nothing is drawn for a glyph.
func IsGlyphEmpty(otf *ot.Font, gid ot.GlyphIndex) bool {
	g, ok := otf.GlyphData(gid)
	if !ok || len(g) < 2 {
		return true
	}
	return contourCount(g) == 0
}

// BBox is an axis-aligned bounding box in font design units, (X0,Y0) the
// lower left and (X1,Y1) the upper right corner.
type BBox struct {
	X0, Y0, X1, Y1 int
}

// GlyphBox returns the bounding box of the visible part of a glyph, in
// unscaled font units. ok is false for empty glyphs.
func GlyphBox(otf *ot.Font, gid ot.GlyphIndex) (box BBox, ok bool) {
	g, okData := otf.GlyphData(gid)
	if !okData || len(g) < 10 {
		return BBox{}, false
	}
	box.X0 = int(gi16(g, 2))
	box.Y0 = int(gi16(g, 4))
	box.X1 = int(gi16(g, 6))
	box.Y1 = int(gi16(g, 8))
	return box, true
}

// CodepointBox is GlyphBox for the glyph a code-point maps to.
func CodepointBox(otf *ot.Font, codepoint rune) (BBox, bool) {
	return GlyphBox(otf, otf.GlyphIndex(codepoint))
}

// --- Decoding --------------------------------------------------------------

func gu16(b []byte, i int) uint16 {
	return uint16(b[i])<<8 | uint16(b[i+1])
}

func gi16(b []byte, i int) int16 {
	return int16(gu16(b, i))
}

func contourCount(g []byte) int {
	return int(gi16(g, 0))
}

func glyphOutline(otf *ot.Font, gid ot.GlyphIndex, depth int) (Outline, error) {
	if depth > maxCompositeDepth {
		return nil, errGlyphFormat("composite glyph nesting too deep")
	}
	g, ok := otf.GlyphData(gid)
	if !ok {
		return nil, nil // nothing drawn for this glyph
	}
	if len(g) < 10 {
		return nil, errGlyphFormat("glyph header incomplete")
	}
	nContours := contourCount(g)
	switch {
	case nContours > 0:
		return simpleOutline(g, nContours)
	case nContours == -1:
		return compositeOutline(otf, g, depth)
	case nContours < -1:
		return nil, errGlyphFormat(fmt.Sprintf("contour count %d", nContours))
	}
	return nil, nil // zero contours, nothing drawn
}

// point flag bits of simple glyph data
const (
	flagOnCurve = 1 << 0
	flagXShort  = 1 << 1
	flagYShort  = 1 << 2
	flagRepeat  = 1 << 3
	flagXSame   = 1 << 4 // doubles as positive sign for 1-byte dx
	flagYSame   = 1 << 5 // doubles as positive sign for 1-byte dy
)

// simpleOutline decodes the contours of a simple glyph. The point data comes
// in three runs: run-length compressed flag bytes, then delta-encoded x
// coordinates, then delta-encoded y coordinates.
func simpleOutline(g []byte, nContours int) (Outline, error) {
	if len(g) < 10+nContours*2+2 {
		return nil, errGlyphFormat("contour index incomplete")
	}
	endPts := g[10:]
	n := 1 + int(gu16(endPts, (nContours-1)*2))
	ins := int(gu16(g, 10+nContours*2)) // instruction bytes, skipped
	p := 10 + nContours*2 + 2 + ins
	if p > len(g) {
		return nil, errGlyphFormat("instructions exceed glyph data")
	}

	flags := make([]uint8, n)
	for i := 0; i < n; {
		if p >= len(g) {
			return nil, errGlyphFormat("point flags exceed glyph data")
		}
		f := g[p]
		p++
		repeat := 1
		if f&flagRepeat != 0 {
			if p >= len(g) {
				return nil, errGlyphFormat("point flags exceed glyph data")
			}
			repeat += int(g[p])
			p++
		}
		for ; repeat > 0 && i < n; repeat-- {
			flags[i] = f
			i++
		}
	}

	xs := make([]int16, n)
	x := 0
	for i := 0; i < n; i++ {
		f := flags[i]
		if f&flagXShort != 0 {
			if p >= len(g) {
				return nil, errGlyphFormat("x coordinates exceed glyph data")
			}
			dx := int(g[p])
			p++
			if f&flagXSame != 0 {
				x += dx
			} else {
				x -= dx
			}
		} else if f&flagXSame == 0 {
			if p+2 > len(g) {
				return nil, errGlyphFormat("x coordinates exceed glyph data")
			}
			x += int(gi16(g, p))
			p += 2
		}
		xs[i] = int16(x)
	}

	ys := make([]int16, n)
	y := 0
	for i := 0; i < n; i++ {
		f := flags[i]
		if f&flagYShort != 0 {
			if p >= len(g) {
				return nil, errGlyphFormat("y coordinates exceed glyph data")
			}
			dy := int(g[p])
			p++
			if f&flagYSame != 0 {
				y += dy
			} else {
				y -= dy
			}
		} else if f&flagYSame == 0 {
			if p+2 > len(g) {
				return nil, errGlyphFormat("y coordinates exceed glyph data")
			}
			y += int(gi16(g, p))
			p += 2
		}
		ys[i] = int16(y)
	}

	// Convert the flag+coordinate stream into vertex commands per contour.
	// Contours may start with an off-curve point, in which case an on-curve
	// start point has to be synthesized; consecutive off-curve points imply
	// an on-curve midpoint between them.
	verts := make(Outline, 0, n+2*nContours)
	var sx, sy, scx, scy, cx, cy int16
	var wasOff, startOff bool
	nextMove, j := 0, 0
	for i := 0; i < n; i++ {
		f := flags[i]
		x, y := xs[i], ys[i]
		if nextMove == i { // starting a new contour
			if i != 0 {
				verts = closeShape(verts, wasOff, startOff, sx, sy, scx, scy, cx, cy)
			}
			startOff = f&flagOnCurve == 0
			if startOff {
				// save the off-curve start point for the wraparound at
				// contour close
				scx, scy = x, y
				nx, ny, non := x, y, true
				if i+1 < n {
					nx, ny, non = xs[i+1], ys[i+1], flags[i+1]&flagOnCurve != 0
				}
				if !non {
					// next point is off-curve too, interpolate an on-curve start
					sx = int16((int(x) + int(nx)) >> 1)
					sy = int16((int(y) + int(ny)) >> 1)
				} else {
					// otherwise just use the next point as our start point
					sx, sy = nx, ny
					i++ // the starting point is consumed, skip it in the scan
				}
			} else {
				sx, sy = x, y
			}
			verts = append(verts, Vertex{Op: OpMove, X: sx, Y: sy})
			wasOff = false
			if j < nContours {
				nextMove = 1 + int(gu16(endPts, j*2))
				j++
			}
		} else if f&flagOnCurve == 0 { // off-curve control point
			if wasOff {
				// two off-curve points in a row imply an on-curve midpoint
				verts = append(verts, Vertex{Op: OpCurve,
					X: int16((int(cx) + int(x)) >> 1), Y: int16((int(cy) + int(y)) >> 1),
					CX: cx, CY: cy})
			}
			cx, cy = x, y
			wasOff = true
		} else if wasOff {
			verts = append(verts, Vertex{Op: OpCurve, X: x, Y: y, CX: cx, CY: cy})
			wasOff = false
		} else {
			verts = append(verts, Vertex{Op: OpLine, X: x, Y: y})
		}
	}
	verts = closeShape(verts, wasOff, startOff, sx, sy, scx, scy, cx, cy)
	return verts, nil
}

// closeShape returns a contour to its starting point, replaying the same
// off-curve/on-curve resolution the contour was started with.
func closeShape(verts Outline, wasOff, startOff bool, sx, sy, scx, scy, cx, cy int16) Outline {
	if startOff {
		if wasOff {
			verts = append(verts, Vertex{Op: OpCurve,
				X: int16((int(cx) + int(scx)) >> 1), Y: int16((int(cy) + int(scy)) >> 1),
				CX: cx, CY: cy})
		}
		verts = append(verts, Vertex{Op: OpCurve, X: sx, Y: sy, CX: scx, CY: scy})
	} else if wasOff {
		verts = append(verts, Vertex{Op: OpCurve, X: sx, Y: sy, CX: cx, CY: cy})
	} else {
		verts = append(verts, Vertex{Op: OpLine, X: sx, Y: sy})
	}
	return verts
}

// component flag bits of composite glyph data
const (
	cFlagWordArgs = 1 << 0 // arguments are words, not bytes
	cFlagXYValues = 1 << 1 // arguments are offsets, not point indices
	cFlagScale    = 1 << 3 // uniform scale
	cFlagMore     = 1 << 5 // another component follows
	cFlagXYScale  = 1 << 6 // separate x and y scales
	cFlagTwoByTwo = 1 << 7 // full 2x2 transform
)

// compositeOutline decodes a compound glyph: a list of transformed
// references to other glyphs. The component transforms are affine, with the
// fractional parts stored as 2.14 fixed-point numbers.
func compositeOutline(otf *ot.Font, g []byte, depth int) (Outline, error) {
	var verts Outline
	comp := 10
	for more := true; more; {
		if comp+4 > len(g) {
			return nil, errGlyphFormat("composite component incomplete")
		}
		flags := gu16(g, comp)
		gidx := ot.GlyphIndex(gu16(g, comp+2))
		comp += 4

		mtx := [6]float64{1, 0, 0, 1, 0, 0}
		if flags&cFlagXYValues == 0 {
			// component is positioned by matching point indices
			return nil, errGlyphFormat("point-matching composite glyph not supported")
		}
		if flags&cFlagWordArgs != 0 {
			if comp+4 > len(g) {
				return nil, errGlyphFormat("composite component incomplete")
			}
			mtx[4] = float64(gi16(g, comp))
			mtx[5] = float64(gi16(g, comp+2))
			comp += 4
		} else {
			if comp+2 > len(g) {
				return nil, errGlyphFormat("composite component incomplete")
			}
			mtx[4] = float64(int8(g[comp]))
			mtx[5] = float64(int8(g[comp+1]))
			comp += 2
		}
		switch {
		case flags&cFlagScale != 0:
			if comp+2 > len(g) {
				return nil, errGlyphFormat("composite component incomplete")
			}
			s := f2dot14(g, comp)
			comp += 2
			mtx[0], mtx[3] = s, s
		case flags&cFlagXYScale != 0:
			if comp+4 > len(g) {
				return nil, errGlyphFormat("composite component incomplete")
			}
			mtx[0] = f2dot14(g, comp)
			mtx[3] = f2dot14(g, comp+2)
			comp += 4
		case flags&cFlagTwoByTwo != 0:
			if comp+8 > len(g) {
				return nil, errGlyphFormat("composite component incomplete")
			}
			mtx[0] = f2dot14(g, comp)
			mtx[1] = f2dot14(g, comp+2)
			mtx[2] = f2dot14(g, comp+4)
			mtx[3] = f2dot14(g, comp+6)
			comp += 8
		}

		compVerts, err := glyphOutline(otf, gidx, depth+1)
		if err != nil {
			return nil, err
		}
		if len(compVerts) > 0 {
			transformVerts(compVerts, mtx)
			verts = append(verts, compVerts...)
		}
		more = flags&cFlagMore != 0
	}
	tracer().Debugf("composite glyph has %d vertices", len(verts))
	return verts, nil
}

func f2dot14(b []byte, i int) float64 {
	return float64(gi16(b, i)) / 16384.0
}

// transformVerts applies a component transform to endpoint and control
// coordinates alike. The column norms m and n restore the scale that the
// 2.14 normalization took out.
func transformVerts(verts Outline, mtx [6]float64) {
	m := math.Hypot(mtx[0], mtx[1])
	n := math.Hypot(mtx[2], mtx[3])
	for i := range verts {
		v := &verts[i]
		x, y := float64(v.X), float64(v.Y)
		v.X = int16(m * (mtx[0]*x + mtx[2]*y + mtx[4]))
		v.Y = int16(n * (mtx[1]*x + mtx[3]*y + mtx[5]))
		x, y = float64(v.CX), float64(v.CY)
		v.CX = int16(m * (mtx[0]*x + mtx[2]*y + mtx[4]))
		v.CY = int16(n * (mtx[1]*x + mtx[3]*y + mtx[5]))
	}
}
