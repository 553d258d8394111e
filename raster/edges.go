package raster

// edge is a directed scan edge with y0 < y1 after normalization. invert
// records the pre-normalization traversal direction and decides the
// winding sign during scan conversion.
type edge struct {
	x0, y0 float32
	x1, y1 float32
	invert bool
}

// buildEdges chops flattened contours into scan edges, applying scale and
// shift on the fly. Horizontal edges are dropped; all others are
// normalized to point downward in y, recording the original direction in
// the invert flag. With invert set, the y axis is flipped to the bitmap's
// y-down convention, which also flips what counts as "downward".
func buildEdges(pts []point, contours []int, scaleX, scaleY, shiftX, shiftY float32,
	invert bool) []edge {
	//
	yScale := scaleY
	if invert {
		yScale = -scaleY
	}
	total := 0
	for _, c := range contours {
		total += c
	}
	edges := make([]edge, 0, total+1) // one spare slot for the sentinel
	m := 0
	for _, count := range contours {
		p := pts[m : m+count]
		m += count
		j := count - 1
		for k := 0; k < count; k++ {
			if p[j].y == p[k].y { // skip horizontal edges
				j = k
				continue
			}
			a, b := k, j
			inv := false
			if (invert && p[j].y > p[k].y) || (!invert && p[j].y < p[k].y) {
				inv = true
				a, b = j, k
			}
			edges = append(edges, edge{
				x0:     p[a].x*scaleX + shiftX,
				y0:     p[a].y*yScale + shiftY,
				x1:     p[b].x*scaleX + shiftX,
				y1:     p[b].y*yScale + shiftY,
				invert: inv,
			})
			j = k
		}
	}
	return edges
}

// sortEdges sorts edges by their top y coordinate: quicksort down to
// partitions of 12, then one insertion sort pass over the whole slice.
func sortEdges(e []edge) {
	quicksortEdges(e)
	insSortEdges(e)
}

func insSortEdges(p []edge) {
	for i := 1; i < len(p); i++ {
		t := p[i]
		j := i
		for j > 0 && t.y0 < p[j-1].y0 {
			p[j] = p[j-1]
			j--
		}
		if i != j {
			p[j] = t
		}
	}
}

func quicksortEdges(p []edge) {
	n := len(p)
	for n > 12 {
		// median of three, swapped to the front as the pivot
		m := n >> 1
		c01 := p[0].y0 < p[m].y0
		c12 := p[m].y0 < p[n-1].y0
		if c01 != c12 {
			z := n - 1
			if (p[0].y0 < p[n-1].y0) == c12 {
				z = 0
			}
			p[z], p[m] = p[m], p[z]
		}
		p[0], p[m] = p[m], p[0]
		// partition; equality handling matters for duplicates
		i, j := 1, n-1
		for {
			for p[i].y0 < p[0].y0 {
				i++
			}
			for p[0].y0 < p[j].y0 {
				j--
			}
			if i >= j {
				break
			}
			p[i], p[j] = p[j], p[i]
			i++
			j--
		}
		// recurse on the smaller side, iterate on the larger
		if j < n-i {
			quicksortEdges(p[:j])
			p = p[i:n]
			n = n - i
		} else {
			quicksortEdges(p[i:n])
			n = j
		}
	}
}
