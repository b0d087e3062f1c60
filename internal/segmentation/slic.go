package segmentation

import (
	"math"

	"github.com/ironsheep/superpixel-tools/internal/imaging"
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// SLIC is a Partitioner implementing simple linear iterative clustering in
// CIELAB space.
//
// # Algorithm
//
//  1. Convert the raster to CIELAB (L in 0-100).
//  2. Seed cluster centers at the middles of a grid of cells about
//     S = sqrt(pixels / targetCount) on a side, sized so the seed count stays
//     close to targetCount. Each seed moves to the lowest-gradient pixel of
//     its 3x3 neighborhood so seeds avoid edges.
//  3. For Iterations rounds, assign every pixel within a window covering a
//     seed cell around each center to the closest center by
//     D = sqrt(dc² + (ds/S)² · m²)
//     where dc is the Lab distance, ds the spatial distance and m the
//     compactness, then move each center to the mean of its pixels.
//  4. Enforce connectivity: 4-connected fragments smaller than a quarter of
//     the expected region size are merged into an adjacent region.
//
// The returned grid is relabeled to contiguous 0-based ids.
type SLIC struct {
	// Iterations is the number of assignment/update rounds.
	Iterations int
}

// NewSLIC returns a SLIC partitioner with 10 iterations.
func NewSLIC() *SLIC {
	return &SLIC{Iterations: 10}
}

type slicCenter struct {
	l, a, b, x, y float64
}

// Partition implements Partitioner.
func (s *SLIC) Partition(r *imaging.Raster, targetCount int, compactness float64) (*superpixel.LabelGrid, error) {
	if r == nil || r.Width <= 0 || r.Height <= 0 {
		return nil, superpixel.InputError("raster has zero area")
	}
	if targetCount <= 0 {
		return nil, superpixel.InputError("region count must be positive, got %d", targetCount)
	}

	w, h := r.Width, r.Height
	lab := r.LabPlane()
	interval := math.Sqrt(float64(w*h) / float64(targetCount))
	cols, rows := seedGrid(w, h, interval)

	// The search window must reach across a whole seed cell, which can be
	// wider than interval along a thin image's long side.
	window := max(int(math.Ceil(interval)), (w+cols-1)/cols, (h+rows-1)/rows)

	centers := seedCenters(lab, w, h, cols, rows)
	clusters := s.iterate(lab, w, h, window, interval, compactness, centers)
	labels := enforceConnectivity(clusters, w, h, len(centers))

	grid := &superpixel.LabelGrid{Width: w, Height: h, Labels: labels}
	grid.Compact()
	return grid, nil
}

// seedGrid returns the number of seed columns and rows for cells of roughly
// interval x interval pixels. The shorter side is divided first and the other
// side gets whatever keeps cols*rows close to the requested region count, so
// thin images and small intervals do not overshoot it.
func seedGrid(w, h int, interval float64) (cols, rows int) {
	target := float64(w*h) / (interval * interval)
	if h <= w {
		rows = min(max(int(math.Round(float64(h)/interval)), 1), h)
		cols = min(max(int(math.Round(target/float64(rows))), 1), w)
		return cols, rows
	}
	cols = min(max(int(math.Round(float64(w)/interval)), 1), w)
	rows = min(max(int(math.Round(target/float64(cols))), 1), h)
	return cols, rows
}

// seedCenters places one center at the middle of each cell of a cols x rows
// grid, nudged to the lowest gradient position in its 3x3 neighborhood.
func seedCenters(lab []float64, w, h, cols, rows int) []slicCenter {
	centers := make([]slicCenter, 0, cols*rows)
	for j := 0; j < rows; j++ {
		cy := int((float64(j) + 0.5) * float64(h) / float64(rows))
		for i := 0; i < cols; i++ {
			cx := int((float64(i) + 0.5) * float64(w) / float64(cols))
			bx, by := cx, cy
			best := math.MaxFloat64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := cx+dx, cy+dy
					if nx < 0 || nx >= w-1 || ny < 0 || ny >= h-1 {
						continue
					}
					here := lab[(ny*w+nx)*3]
					below := lab[((ny+1)*w+nx)*3]
					right := lab[(ny*w+nx+1)*3]
					grad := math.Abs(below-here) + math.Abs(right-here)
					if grad < best {
						best = grad
						bx, by = nx, ny
					}
				}
			}
			off := (by*w + bx) * 3
			centers = append(centers, slicCenter{
				l: lab[off], a: lab[off+1], b: lab[off+2],
				x: float64(bx), y: float64(by),
			})
		}
	}
	return centers
}

// iterate runs the assignment/update rounds and returns a center index per
// pixel. Each center searches window pixels in every direction. Pixels no
// window reached keep -1.
func (s *SLIC) iterate(lab []float64, w, h, window int, interval, compactness float64, centers []slicCenter) []int {
	n := w * h
	clusters := make([]int, n)
	distances := make([]float64, n)
	for i := range clusters {
		clusters[i] = -1
	}

	// (ds/S)² · m² folded into one factor.
	spatial := (compactness * compactness) / (interval * interval)

	type acc struct {
		l, a, b, x, y float64
		n             int
	}
	sums := make([]acc, len(centers))

	iterations := max(s.Iterations, 1)
	for it := 0; it < iterations; it++ {
		for i := range distances {
			distances[i] = math.MaxFloat64
		}
		for ci, c := range centers {
			x0 := max(int(c.x)-window, 0)
			x1 := min(int(c.x)+window+1, w)
			y0 := max(int(c.y)-window, 0)
			y1 := min(int(c.y)+window+1, h)
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					p := y*w + x
					off := p * 3
					dL := lab[off] - c.l
					dA := lab[off+1] - c.a
					dB := lab[off+2] - c.b
					dx := float64(x) - c.x
					dy := float64(y) - c.y
					d := dL*dL + dA*dA + dB*dB + (dx*dx+dy*dy)*spatial
					if d < distances[p] {
						distances[p] = d
						clusters[p] = ci
					}
				}
			}
		}

		for i := range sums {
			sums[i] = acc{}
		}
		for p, ci := range clusters {
			if ci < 0 {
				continue
			}
			off := p * 3
			sums[ci].l += lab[off]
			sums[ci].a += lab[off+1]
			sums[ci].b += lab[off+2]
			sums[ci].x += float64(p % w)
			sums[ci].y += float64(p / w)
			sums[ci].n++
		}
		for ci := range centers {
			if sums[ci].n == 0 {
				continue
			}
			k := float64(sums[ci].n)
			centers[ci] = slicCenter{
				l: sums[ci].l / k, a: sums[ci].a / k, b: sums[ci].b / k,
				x: sums[ci].x / k, y: sums[ci].y / k,
			}
		}
	}
	return clusters
}

// enforceConnectivity relabels 4-connected fragments of the cluster map.
// Fragments no larger than a quarter of the mean region size are absorbed by
// the region adjacent to their first pixel.
func enforceConnectivity(clusters []int, w, h, centerCount int) []int {
	n := w * h
	minSize := max(n/max(centerCount, 1), 1) >> 2
	dx4 := [4]int{-1, 0, 1, 0}
	dy4 := [4]int{0, -1, 0, 1}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	next := 0
	queue := make([]int, 0, 64)
	for start := 0; start < n; start++ {
		if labels[start] >= 0 {
			continue
		}
		sx, sy := start%w, start/w

		// Region adjacent to the fragment, for merging small fragments.
		adjacent := -1
		for k := 0; k < 4; k++ {
			nx, ny := sx+dx4[k], sy+dy4[k]
			if nx >= 0 && nx < w && ny >= 0 && ny < h && labels[ny*w+nx] >= 0 {
				adjacent = labels[ny*w+nx]
				break
			}
		}

		queue = append(queue[:0], start)
		labels[start] = next
		for q := 0; q < len(queue); q++ {
			cur := queue[q]
			cx, cy := cur%w, cur/w
			for k := 0; k < 4; k++ {
				nx, ny := cx+dx4[k], cy+dy4[k]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				nIdx := ny*w + nx
				if labels[nIdx] == -1 && clusters[nIdx] == clusters[cur] {
					labels[nIdx] = next
					queue = append(queue, nIdx)
				}
			}
		}

		if len(queue) <= minSize && adjacent >= 0 {
			for _, p := range queue {
				labels[p] = adjacent
			}
			continue
		}
		next++
	}
	return labels
}
