/*
Package bake renders a range of characters into a single texture atlas.

Glyph bitmaps are packed left-to-right into shelves with a one pixel
gutter, moving on to the next shelf when a row is full. The result is a
coverage atlas plus per-character placement data, from which BakedQuad
computes screen-space quads with texture coordinates.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert.pillmayer@gmx.de>
*/
package bake

import (
	"math"

	"github.com/npillmayer/gtype/ot"
	"github.com/npillmayer/gtype/otquery"
	"github.com/npillmayer/gtype/raster"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'gtype.raster'.
func tracer() tracing.Trace {
	return tracing.Select("gtype.raster")
}

// BakedChar records where a character's bitmap landed in the atlas and how
// to place it relative to the baseline.
type BakedChar struct {
	X0, Y0   uint16 // bbox in the atlas
	X1, Y1   uint16
	XOff     float32
	YOff     float32
	XAdvance float32
}

// AlignedQuad is a screen-space quad with texture coordinates, y
// increasing downwards.
type AlignedQuad struct {
	X0, Y0, S0, T0 float32 // top-left
	X1, Y1, S1, T1 float32 // bottom-right
}

// FontBitmap bakes the characters [firstChar, firstChar+numChars) of a
// font at the given pixel height into the caller-sized atlas. It returns
// placement data per character and the first unused atlas row; if the
// atlas runs out of room after i characters, it returns the baked prefix
// and -i instead.
func FontBitmap(fontData []byte, offset int, pixelHeight float32, atlas *raster.Bitmap,
	firstChar rune, numChars int) ([]BakedChar, int, error) {
	//
	otf, err := ot.ParseAt(fontData, offset)
	if err != nil {
		return nil, 0, err
	}
	for i := range atlas.Pixels { // background of 0 around the glyphs
		atlas.Pixels[i] = 0
	}
	scale := otquery.ScaleForPixelHeight(otf, pixelHeight)
	tracer().Debugf("baking %d chars at scale %g", numChars, scale)
	chardata := make([]BakedChar, numChars)
	x, y, bottomY := 1, 1, 1
	for i := 0; i < numChars; i++ {
		g := otf.GlyphIndex(firstChar + rune(i))
		advance, _ := otf.HMtx.Metrics(g)
		x0, y0, x1, y1 := raster.GlyphBitmapBox(otf, g, scale, scale)
		gw, gh := x1-x0, y1-y0
		if x+gw+1 >= atlas.Width {
			y = bottomY
			x = 1 // advance to the next shelf
		}
		if y+gh+1 >= atlas.Height { // checked after potentially moving down
			return chardata[:i], -i, nil
		}
		window := &raster.Bitmap{
			Width:  gw,
			Height: gh,
			Stride: atlas.Stride,
			Pixels: atlas.Pixels[x+y*atlas.Stride:],
		}
		if err := raster.MakeGlyphBitmap(otf, window, scale, scale, g); err != nil {
			return chardata[:i], -i, err
		}
		chardata[i] = BakedChar{
			X0:       uint16(x),
			Y0:       uint16(y),
			X1:       uint16(x + gw),
			Y1:       uint16(y + gh),
			XOff:     float32(x0),
			YOff:     float32(y0),
			XAdvance: scale * float32(advance),
		}
		x += gw + 1
		if y+gh+1 > bottomY {
			bottomY = y + gh + 1
		}
	}
	return chardata, bottomY, nil
}

// BakedQuad creates the quad needed to draw a baked character at the
// current pen position and advances the position by the character's
// advance width. Call it with charIndex = character - firstChar. pw and ph
// are the atlas dimensions; openGLFillRule selects between OpenGL and
// Direct3D pixel center conventions.
//
// Characters will extend both above and below the baseline position.
func BakedQuad(chardata []BakedChar, pw, ph int, charIndex int,
	xpos *float32, ypos float32, openGLFillRule bool) AlignedQuad {
	//
	d3dBias := float32(-0.5)
	if openGLFillRule {
		d3dBias = 0
	}
	ipw := 1 / float32(pw)
	iph := 1 / float32(ph)
	b := &chardata[charIndex]
	roundX := float32(ifloor(*xpos + b.XOff + 0.5))
	roundY := float32(ifloor(ypos + b.YOff + 0.5))

	q := AlignedQuad{
		X0: roundX + d3dBias,
		Y0: roundY + d3dBias,
		X1: roundX + float32(b.X1) - float32(b.X0) + d3dBias,
		Y1: roundY + float32(b.Y1) - float32(b.Y0) + d3dBias,
		S0: float32(b.X0) * ipw,
		T0: float32(b.Y0) * iph,
		S1: float32(b.X1) * ipw,
		T1: float32(b.Y1) * iph,
	}
	*xpos += b.XAdvance
	return q
}

func ifloor(x float32) int {
	return int(math.Floor(float64(x)))
}
