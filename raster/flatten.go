package raster

import "github.com/npillmayer/gtype/glyf"

type point struct {
	x, y float32
}

// flattenOutline subdivides an outline's curve segments into polyline
// contours, returning the flattened points plus a per-contour point count.
// The work is done in two passes, a counting pass and a fill pass into an
// exactly sized slice, and both passes make identical subdivision
// decisions.
func flattenOutline(outline glyf.Outline, objspaceFlatness float32) ([]point, []int) {
	n := 0
	for _, v := range outline {
		if v.Op == glyf.OpMove {
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	contours := make([]int, n)
	flatnessSq := objspaceFlatness * objspaceFlatness
	var points []point
	numPoints := 0
	for pass := 0; pass < 2; pass++ {
		var x, y float32
		if pass == 1 {
			points = make([]point, numPoints)
		}
		numPoints = 0
		c := -1
		start := 0
		for _, v := range outline {
			switch v.Op {
			case glyf.OpMove:
				if c >= 0 {
					contours[c] = numPoints - start
				}
				c++
				start = numPoints
				x, y = float32(v.X), float32(v.Y)
				addPoint(points, numPoints, x, y)
				numPoints++
			case glyf.OpLine:
				x, y = float32(v.X), float32(v.Y)
				addPoint(points, numPoints, x, y)
				numPoints++
			case glyf.OpCurve:
				tesselateCurve(points, &numPoints, x, y,
					float32(v.CX), float32(v.CY),
					float32(v.X), float32(v.Y), flatnessSq, 0)
				x, y = float32(v.X), float32(v.Y)
			}
		}
		contours[c] = numPoints - start
	}
	return points, contours
}

// addPoint records a point during the fill pass; the counting pass runs
// with a nil slice.
func addPoint(points []point, n int, x, y float32) {
	if points == nil {
		return
	}
	points[n] = point{x: x, y: y}
}

// tesselateCurve recursively subdivides a quadratic segment until the
// midpoint deviates from the chord by less than the flatness tolerance.
// Recursion is capped at depth 16, i.e. 65536 segments per curve.
func tesselateCurve(points []point, numPoints *int, x0, y0, x1, y1, x2, y2,
	flatnessSq float32, depth int) {
	//
	mx := (x0 + 2*x1 + x2) / 4 // de Casteljau midpoint
	my := (y0 + 2*y1 + y2) / 4
	dx := (x0+x2)/2 - mx // deviation from the chord
	dy := (y0+y2)/2 - my
	if depth > 16 {
		return
	}
	if dx*dx+dy*dy > flatnessSq {
		tesselateCurve(points, numPoints, x0, y0, (x0+x1)/2, (y0+y1)/2, mx, my, flatnessSq, depth+1)
		tesselateCurve(points, numPoints, mx, my, (x1+x2)/2, (y1+y2)/2, x2, y2, flatnessSq, depth+1)
	} else {
		addPoint(points, *numPoints, x2, y2)
		(*numPoints)++
	}
}
