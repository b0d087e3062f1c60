package geometry

import (
	"image"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// RatioOfPerimeter is the Douglas-Peucker tolerance as a fraction of the traced
// ring's perimeter.
const RatioOfPerimeter = 0.01

// Polygon is the simplified outer boundary of one region.
type Polygon struct {
	// ID is the region id.
	ID int `json:"id"`

	// Vertices are [x, y] pixel coordinates of an implicitly closed ring.
	Vertices [][2]int `json:"polygon"`

	// Components is the number of 8-connected blobs the region consists of.
	// Only the largest is outlined.
	Components int `json:"-"`
}

// Meta summarizes an extraction.
type Meta struct {
	// LabelsFound is the number of distinct region ids in the grid.
	LabelsFound int `json:"labels_found"`
}

// Result holds one polygon per region, ordered by ascending id.
type Result struct {
	Polygons []Polygon
	Meta     Meta
}

// Extract outlines every region of g.
//
// Every id present in the grid produces exactly one polygon. Errors wrap
// superpixel.ErrInput when the grid is malformed.
func Extract(g *superpixel.LabelGrid) (*Result, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	boxes := regionBoxes(g)
	res := &Result{Polygons: make([]Polygon, 0, len(boxes))}
	for id, box := range boxes {
		if box.Empty() {
			continue
		}
		res.Polygons = append(res.Polygons, outline(g, id, box))
	}
	res.Meta.LabelsFound = len(res.Polygons)
	return res, nil
}

// outline traces every blob of id, keeps the one enclosing the most area and
// simplifies it.
func outline(g *superpixel.LabelGrid, id int, box image.Rectangle) Polygon {
	blobs := findBlobs(g, id, box)
	limit := 4*box.Dx()*box.Dy() + 16

	var best []image.Point
	bestArea, bestPixels := -1.0, -1
	for _, b := range blobs {
		contour := traceBoundary(g, id, b.start, limit)
		area := math.Abs(planar.Area(closedRing(contour)))
		// Ties go to the blob with more pixels, then to the earlier one.
		if area > bestArea || (area == bestArea && b.pixels > bestPixels) {
			best, bestArea, bestPixels = contour, area, b.pixels
		}
	}

	return Polygon{
		ID:         id,
		Vertices:   simplifyContour(best),
		Components: len(blobs),
	}
}

func closedRing(contour []image.Point) orb.Ring {
	ring := make(orb.Ring, 0, len(contour)+1)
	for _, p := range contour {
		ring = append(ring, orb.Point{float64(p.X), float64(p.Y)})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}

// simplifyContour runs Douglas-Peucker over the closed contour and returns the
// vertices without the repeated closing point. A ring enclosing area never
// drops below three vertices; if simplification would collapse it further the
// traced contour is returned unchanged. Zero-area contours (single pixels,
// lines) keep at least two.
func simplifyContour(contour []image.Point) [][2]int {
	if distinctCount(contour) < 3 {
		return dedupe(contour)
	}

	ring := closedRing(contour)
	keep := 2
	if planar.Area(ring) != 0 {
		keep = 3
	}

	eps := RatioOfPerimeter * planar.Length(ring)
	line := simplify.DouglasPeucker(eps).LineString(orb.LineString(ring.Clone()))

	out := make([]image.Point, 0, len(line))
	for _, p := range line {
		out = append(out, image.Pt(int(math.Round(p[0])), int(math.Round(p[1]))))
	}
	if len(out) > 1 && out[len(out)-1] == out[0] {
		out = out[:len(out)-1]
	}
	if distinctCount(out) < keep {
		if keep == 2 {
			return dedupe(contour)
		}
		return toVertices(contour)
	}
	return toVertices(out)
}

func distinctCount(pts []image.Point) int {
	seen := make(map[image.Point]struct{}, len(pts))
	for _, p := range pts {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// dedupe drops repeated points, keeping first occurrences in order.
func dedupe(pts []image.Point) [][2]int {
	seen := make(map[image.Point]struct{}, len(pts))
	out := make([][2]int, 0, len(pts))
	for _, p := range pts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, [2]int{p.X, p.Y})
	}
	return out
}

func toVertices(pts []image.Point) [][2]int {
	out := make([][2]int, len(pts))
	for i, p := range pts {
		out[i] = [2]int{p.X, p.Y}
	}
	return out
}
