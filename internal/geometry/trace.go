package geometry

import (
	"image"

	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// moore lists the 8 neighbor offsets clockwise (y grows downward), starting east.
var moore = [8]image.Point{
	{X: 1, Y: 0},   // E
	{X: 1, Y: 1},   // SE
	{X: 0, Y: 1},   // S
	{X: -1, Y: 1},  // SW
	{X: -1, Y: 0},  // W
	{X: -1, Y: -1}, // NW
	{X: 0, Y: -1},  // N
	{X: 1, Y: -1},  // NE
}

const west = 4

func directionOf(d image.Point) int {
	for i, m := range moore {
		if m == d {
			return i
		}
	}
	return -1
}

// tracer walks the outer boundary of one region.
type tracer struct {
	grid *superpixel.LabelGrid
	id   int
}

func (t tracer) inside(p image.Point) bool {
	g := t.grid
	return p.X >= 0 && p.Y >= 0 && p.X < g.Width && p.Y < g.Height && g.Labels[p.Y*g.Width+p.X] == t.id
}

// advance searches clockwise around cur starting just after the background
// neighbor in direction back. It returns the next boundary pixel and the
// direction, seen from that pixel, of the last background cell examined.
func (t tracer) advance(cur image.Point, back int) (image.Point, int, bool) {
	for i := 1; i <= 8; i++ {
		d := (back + i) % 8
		n := cur.Add(moore[d])
		if t.inside(n) {
			prev := cur.Add(moore[(d+7)%8])
			return n, directionOf(prev.Sub(n)), true
		}
	}
	return cur, back, false
}

// traceBoundary returns the outer boundary of the 8-connected blob whose
// first pixel in raster order is start. The ring is not closed: the start
// pixel appears once at the beginning. Pixels where the boundary pinches are
// listed each time they are passed.
//
// Tracing stops when the walk is about to repeat its first move (Jacob's
// criterion) or after limit steps.
func traceBoundary(g *superpixel.LabelGrid, id int, start image.Point, limit int) []image.Point {
	t := tracer{grid: g, id: id}
	contour := []image.Point{start}

	// start is the first pixel of its blob in raster order, so its west
	// neighbor is background.
	second, back, ok := t.advance(start, west)
	if !ok {
		return contour
	}

	cur := second
	for steps := 0; steps < limit; steps++ {
		if cur == start {
			next, nextBack, _ := t.advance(cur, back)
			if next == second {
				break
			}
			contour = append(contour, cur)
			cur, back = next, nextBack
			continue
		}
		contour = append(contour, cur)
		cur, back, _ = t.advance(cur, back)
	}
	return contour
}
