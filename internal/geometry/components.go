package geometry

import (
	"image"

	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// regionBoxes returns the bounding rectangle of every id in 0..MaxID, indexed
// by id. Ids absent from the grid get an empty rectangle.
func regionBoxes(g *superpixel.LabelGrid) []image.Rectangle {
	boxes := make([]image.Rectangle, g.MaxID()+1)
	seen := make([]bool, len(boxes))
	for y := 0; y < g.Height; y++ {
		row := g.Labels[y*g.Width : (y+1)*g.Width]
		for x, id := range row {
			if !seen[id] {
				seen[id] = true
				boxes[id] = image.Rect(x, y, x+1, y+1)
				continue
			}
			b := &boxes[id]
			b.Min.X = min(b.Min.X, x)
			b.Max.X = max(b.Max.X, x+1)
			b.Max.Y = y + 1
		}
	}
	return boxes
}

// blob is one 8-connected piece of a region.
type blob struct {
	// start is the first pixel of the blob in raster order.
	start image.Point
	// pixels is the number of pixels in the blob.
	pixels int
}

// findBlobs splits the pixels of id inside box into 8-connected blobs,
// ordered by their first pixel in raster order.
func findBlobs(g *superpixel.LabelGrid, id int, box image.Rectangle) []blob {
	bw, bh := box.Dx(), box.Dy()
	visited := make([]bool, bw*bh)

	var blobs []blob
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			if g.Labels[y*g.Width+x] != id || visited[(y-box.Min.Y)*bw+x-box.Min.X] {
				continue
			}
			n := floodFill(g, id, box, visited, image.Pt(x, y))
			blobs = append(blobs, blob{start: image.Pt(x, y), pixels: n})
		}
	}
	return blobs
}

// floodFill marks the 8-connected blob containing start and returns its size.
func floodFill(g *superpixel.LabelGrid, id int, box image.Rectangle, visited []bool, start image.Point) int {
	bw := box.Dx()
	stack := []image.Point{start}
	count := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !p.In(box) {
			continue
		}
		v := (p.Y-box.Min.Y)*bw + p.X - box.Min.X
		if visited[v] || g.Labels[p.Y*g.Width+p.X] != id {
			continue
		}

		visited[v] = true
		count++

		// 8-connected neighbors
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Pt(p.X+dx, p.Y+dy))
			}
		}
	}
	return count
}
