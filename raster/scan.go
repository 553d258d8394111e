package raster

import "math"

// noEdge is the nil handle of the active-edge arena.
const noEdge = -1

// activeEdge is the per-row state of an edge crossing the current
// scanline: current x intersection, inverse slopes, winding direction and
// the edge's y extent.
type activeEdge struct {
	next      int32
	fx        float32
	fdx, fdy  float32
	direction float32
	sy, ey    float32
}

// edgePool is a handle-indexed arena of active edges with a free list.
// Glyph rasterization is allocation-hot, so dead list nodes are recycled
// instead of handed back to the garbage collector. A pool is scoped to a
// single rasterization call and never shared.
type edgePool struct {
	arena []activeEdge
	free  int32
}

func newEdgePool(capacity int) *edgePool {
	return &edgePool{
		arena: make([]activeEdge, 0, capacity),
		free:  noEdge,
	}
}

// at resolves a handle. The returned pointer is invalidated by the next
// alloc.
func (pool *edgePool) at(h int32) *activeEdge {
	return &pool.arena[h]
}

func (pool *edgePool) alloc() int32 {
	if pool.free != noEdge {
		h := pool.free
		pool.free = pool.arena[h].next
		pool.arena[h] = activeEdge{}
		return h
	}
	pool.arena = append(pool.arena, activeEdge{})
	return int32(len(pool.arena) - 1)
}

func (pool *edgePool) release(h int32) {
	pool.arena[h] = activeEdge{next: pool.free}
	pool.free = h
}

// newActive activates an edge for the row starting at startPoint,
// computing its x intersection with the row top and its slopes.
func (pool *edgePool) newActive(e *edge, offX int, startPoint float32) int32 {
	h := pool.alloc()
	z := pool.at(h)
	dxdy := (e.x1 - e.x0) / (e.y1 - e.y0)
	z.fdx = dxdy
	if dxdy != 0 {
		z.fdy = 1 / dxdy
	}
	z.fx = e.x0 + dxdy*(startPoint-e.y0) - float32(offX)
	z.direction = -1
	if e.invert {
		z.direction = 1
	}
	z.sy = e.y0
	z.ey = e.y1
	z.next = noEdge
	return h
}

// rasterizeSortedEdges sweeps the sorted edge list row by row, maintaining
// an active-edge list and accumulating signed coverage into the bitmap.
// Row coverage is kept in two float accumulators: scanline holds per-pixel
// coverage deltas, scanline2 holds fill contributions that affect
// everything to the right of a pixel; committing a row is a running sum
// over both.
func rasterizeSortedEdges(result *Bitmap, edges []edge, offX, offY int) {
	pool := newEdgePool(len(edges))
	active := int32(noEdge)
	w := result.Width
	scanline := make([]float32, w)
	scanline2 := make([]float32, w+1)

	// sentinel terminates the insertion scan past the last row
	edges = append(edges, edge{y0: float32(offY+result.Height) + 1})

	eIdx := 0
	y := offY
	for j := 0; j < result.Height; j++ {
		scanYTop := float32(y)
		scanYBottom := float32(y) + 1
		for i := range scanline {
			scanline[i] = 0
		}
		for i := range scanline2 {
			scanline2[i] = 0
		}

		// remove all active edges that terminate before the top of this row
		step := &active
		for *step != noEdge {
			z := pool.at(*step)
			if z.ey <= scanYTop {
				dead := *step
				*step = z.next
				z.direction = 0
				pool.release(dead)
			} else {
				step = &z.next
			}
		}

		// insert all edges that start before the bottom of this row
		for edges[eIdx].y0 <= scanYBottom {
			if edges[eIdx].y0 != edges[eIdx].y1 {
				h := pool.newActive(&edges[eIdx], offX, scanYTop)
				pool.at(h).next = active
				active = h
			}
			eIdx++
		}

		if active != noEdge {
			fillActiveEdges(scanline, scanline2, w, pool, active, scanYTop)
		}

		// commit the row: running fill sum plus the per-pixel delta
		sum := float32(0)
		for i := 0; i < w; i++ {
			sum += scanline2[i]
			k := scanline[i] + sum
			k = float32(math.Abs(float64(k)))*255 + 0.5
			m := int(k)
			if m > 255 {
				m = 255
			}
			result.Pixels[j*result.Stride+i] = byte(m)
		}

		// advance all edges to their x position on the next row
		for h := active; h != noEdge; h = pool.at(h).next {
			z := pool.at(h)
			z.fx += z.fdx
		}
		y++
	}
}

// fillActiveEdges accumulates the coverage of all active edges for the row
// [yTop,yTop+1). scanline2 is the fill accumulator, one entry wider than
// the row: a fill contribution at index i+1 covers every pixel right of i.
func fillActiveEdges(scanline, scanline2 []float32, width int, pool *edgePool,
	active int32, yTop float32) {
	//
	yBottom := yTop + 1
	for h := active; h != noEdge; h = pool.at(h).next {
		z := pool.at(h)

		if z.fdx == 0 {
			// vertical edge: all coverage lands in one column
			x0 := z.fx
			if x0 < float32(width) {
				if x0 >= 0 {
					handleClippedEdge(scanline, int(x0), z, x0, yTop, x0, yBottom)
					handleClippedEdge(scanline2, int(x0)+1, z, x0, yTop, x0, yBottom)
				} else {
					handleClippedEdge(scanline2, 0, z, x0, yTop, x0, yBottom)
				}
			}
			continue
		}

		x0 := z.fx
		dx := z.fdx
		xb := x0 + dx
		dy := z.fdy

		// clip the segment to this row; x0 is the intersection with the row
		// top, which may lie off the segment
		var xTop, xBottom float32
		var sy0, sy1 float32
		if z.sy > yTop {
			xTop = x0 + dx*(z.sy-yTop)
			sy0 = z.sy
		} else {
			xTop = x0
			sy0 = yTop
		}
		if z.ey < yBottom {
			xBottom = x0 + dx*(z.ey-yTop)
			sy1 = z.ey
		} else {
			xBottom = xb
			sy1 = yBottom
		}

		if xTop >= 0 && xBottom >= 0 && xTop < float32(width) && xBottom < float32(width) {
			// no range checks needed from here on
			if int(xTop) == int(xBottom) {
				// spans a single pixel
				x := int(xTop)
				height := sy1 - sy0
				scanline[x] += z.direction * (1 - ((xTop-float32(x))+(xBottom-float32(x)))/2) * height
				scanline2[x+1] += z.direction * height // everything right of this pixel is filled
			} else {
				// covers two or more pixels
				if xTop > xBottom {
					// flip the row vertically; the signed area is unchanged
					sy0 = yBottom - (sy0 - yTop)
					sy1 = yBottom - (sy1 - yTop)
					sy0, sy1 = sy1, sy0
					xBottom, xTop = xTop, xBottom
					dy = -dy
					x0 = xb
				}
				x1 := int(xTop)
				x2 := int(xBottom)
				// intersection with the vertical line at x1+1
				yCrossing := (float32(x1)+1-x0)*dy + yTop
				sign := z.direction
				// rectangle area from sy0 to yCrossing
				area := sign * (yCrossing - sy0)
				// plus the triangle (xTop,sy0), (x1+1,sy0), (x1+1,yCrossing)
				scanline[x1] += area * (1 - ((xTop-float32(x1))+1)/2)

				step := sign * dy
				for x := x1 + 1; x < x2; x++ {
					scanline[x] += area + step/2
					area += step
				}
				yCrossing += dy * float32(x2-(x1+1))

				scanline[x2] += area + sign*(1-(xBottom-float32(x2))/2)*(sy1-yCrossing)
				scanline2[x2+1] += sign * (sy1 - sy0)
			}
		} else {
			// the edge leaves the bitmap during this row: split it into up
			// to three clipped sub-segments per pixel column, depending on
			// how its x range straddles the column's borders
			for x := 0; x < width; x++ {
				xl := float32(x)
				xr := float32(x) + 1
				x3 := xb
				y3 := yBottom
				y1 := (float32(x)-x0)/dx + yTop
				y2 := (float32(x)+1-x0)/dx + yTop
				switch {
				case x0 < xl && x3 > xr: // three segments descending down-right
					handleClippedEdge(scanline, x, z, x0, yTop, xl, y1)
					handleClippedEdge(scanline, x, z, xl, y1, xr, y2)
					handleClippedEdge(scanline, x, z, xr, y2, x3, y3)
				case x3 < xl && x0 > xr: // three segments descending down-left
					handleClippedEdge(scanline, x, z, x0, yTop, xr, y2)
					handleClippedEdge(scanline, x, z, xr, y2, xl, y1)
					handleClippedEdge(scanline, x, z, xl, y1, x3, y3)
				case x0 < xl && x3 > xl: // two segments across x, down-right
					handleClippedEdge(scanline, x, z, x0, yTop, xl, y1)
					handleClippedEdge(scanline, x, z, xl, y1, x3, y3)
				case x3 < xl && x0 > xl: // two segments across x, down-left
					handleClippedEdge(scanline, x, z, x0, yTop, xl, y1)
					handleClippedEdge(scanline, x, z, xl, y1, x3, y3)
				case x0 < xr && x3 > xr: // two segments across x+1, down-right
					handleClippedEdge(scanline, x, z, x0, yTop, xr, y2)
					handleClippedEdge(scanline, x, z, xr, y2, x3, y3)
				case x3 < xr && x0 > xr: // two segments across x+1, down-left
					handleClippedEdge(scanline, x, z, x0, yTop, xr, y2)
					handleClippedEdge(scanline, x, z, xr, y2, x3, y3)
				default: // one segment
					handleClippedEdge(scanline, x, z, x0, yTop, x3, y3)
				}
			}
		}
	}
}

// handleClippedEdge accumulates the coverage of a sub-segment that does
// not cross the vertical lines at x or x+1; callers clip to those first.
func handleClippedEdge(scanline []float32, x int, z *activeEdge, x0, y0, x1, y1 float32) {
	if y0 == y1 {
		return
	}
	if y0 > z.ey {
		return
	}
	if y1 < z.sy {
		return
	}
	if y0 < z.sy {
		x0 += (x1 - x0) * (z.sy - y0) / (y1 - y0)
		y0 = z.sy
	}
	if y1 > z.ey {
		x1 += (x1 - x0) * (z.ey - y1) / (y1 - y0)
		y1 = z.ey
	}
	fx := float32(x)
	if x0 <= fx && x1 <= fx {
		scanline[x] += z.direction * (y1 - y0)
	} else if x0 >= fx+1 && x1 >= fx+1 {
		// entirely right of the pixel, nothing to do
	} else {
		// coverage = 1 - average x position
		scanline[x] += z.direction * (y1 - y0) * (1 - ((x0-fx)+(x1-fx))/2)
	}
}
