package features

import (
	"image"

	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/superpixel-tools/internal/imaging"
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// Region holds the statistics of one region.
type Region struct {
	ID int `json:"-"`

	// Area is the pixel count.
	Area int `json:"area"`

	// Centroid is the mean [x, y] pixel position.
	Centroid [2]float64 `json:"centroid"`

	// LabMean is the mean CIELAB color (L in 0-100).
	LabMean [3]float64 `json:"lab_mean"`

	// Vector is the Width-component feature vector laid out as FieldNames.
	Vector []float64 `json:"-"`
}

// Set is the result of Extract, ordered by ascending region id.
type Set struct {
	Regions []Region
}

// IDs returns the region ids in the order of Matrix rows.
func (s *Set) IDs() []int {
	ids := make([]int, len(s.Regions))
	for i, r := range s.Regions {
		ids[i] = r.ID
	}
	return ids
}

// Matrix returns one feature vector per region, in the order of IDs.
func (s *Set) Matrix() [][]float64 {
	m := make([][]float64, len(s.Regions))
	for i, r := range s.Regions {
		m[i] = r.Vector
	}
	return m
}

// ByID returns the region with the given id.
func (s *Set) ByID(id int) (Region, bool) {
	lo, hi := 0, len(s.Regions)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case s.Regions[mid].ID == id:
			return s.Regions[mid], true
		case s.Regions[mid].ID < id:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return Region{}, false
}

// Extract computes one Region per id present in g.
//
// img must have exactly the grid's dimensions; pass the image that was
// segmented, not a larger original. Errors wrap superpixel.ErrInput on a shape
// mismatch or a malformed grid. Results are deterministic: running Extract
// twice on the same input yields identical vectors.
func Extract(img image.Image, g *superpixel.LabelGrid) (*Set, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, superpixel.InputError("image is nil")
	}
	b := img.Bounds()
	if b.Dx() != g.Width || b.Dy() != g.Height {
		return nil, superpixel.InputError("image is %dx%d but label grid is %dx%d", b.Dx(), b.Dy(), g.Width, g.Height)
	}

	raster, err := imaging.NewRaster(img)
	if err != nil {
		return nil, err
	}
	lab := raster.LabPlane()
	gray := effect.Grayscale(img)
	gb := gray.Bounds()

	accs := make([]accumulator, g.MaxID()+1)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			id := g.Labels[y*g.Width+x]
			off := raster.Offset(x, y)
			red, green, blue := raster.RGB(x, y)
			accs[id].add(x, y,
				red*255, green*255, blue*255,
				[3]float64{lab[off], lab[off+1], lab[off+2]},
				gray.RGBAAt(gb.Min.X+x, gb.Min.Y+y).R,
			)
		}
	}

	set := &Set{Regions: make([]Region, 0, len(accs))}
	for id := range accs {
		if accs[id].area == 0 {
			continue
		}
		set.Regions = append(set.Regions, accs[id].region(id))
	}
	return set, nil
}
