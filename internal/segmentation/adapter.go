package segmentation

import (
	"image"

	"github.com/rs/zerolog"

	"github.com/ironsheep/superpixel-tools/internal/imaging"
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// Default segmentation parameters.
const (
	DefaultTargetCount = 800
	DefaultCompactness = 10.0
)

// Partitioner splits a normalized raster into labeled regions.
//
// Implementations receive roughly targetCount as the number of regions to
// produce and a compactness weight trading color fidelity (low values)
// against regular region shapes (high values). The returned grid must match
// the raster dimensions; ids need not be contiguous.
type Partitioner interface {
	Partition(r *imaging.Raster, targetCount int, compactness float64) (*superpixel.LabelGrid, error)
}

// Params controls one segmentation run.
type Params struct {
	// TargetCount is the approximate number of regions. Must be positive.
	TargetCount int `json:"n_segments"`

	// Compactness weighs spatial distance against color distance. Must be
	// non-negative.
	Compactness float64 `json:"compactness"`

	// MaxDimension caps the longest image side. Larger images are downscaled
	// proportionally before segmentation. Zero or negative disables the cap.
	MaxDimension int `json:"max_dimension"`
}

// DefaultParams returns the parameters used when a caller supplies none.
func DefaultParams() Params {
	return Params{
		TargetCount:  DefaultTargetCount,
		Compactness:  DefaultCompactness,
		MaxDimension: imaging.DefaultMaxDimension,
	}
}

// Result is the outcome of Segment.
//
// All coordinates derived from Grid are in the frame that was segmented.
// When Downscaled is true that frame is smaller than the uploaded image, and
// Shape reports the smaller frame, not the original.
type Result struct {
	// Grid holds 0-based, contiguous region ids.
	Grid *superpixel.LabelGrid

	// RegionCount is the number of distinct ids in Grid.
	RegionCount int

	// Shape is [height, width, channels] of the segmented frame.
	Shape [3]int

	// Image is the segmented frame. Feature extraction must use it rather
	// than the original so pixels line up with Grid.
	Image image.Image

	// Raster is the normalized RGB copy of Image that was partitioned.
	Raster *imaging.Raster

	// Scale is the factor applied to the original image (1.0 if unchanged).
	Scale float64

	// Downscaled reports whether the image exceeded MaxDimension.
	Downscaled bool
}

// Adapter normalizes images and hands them to a Partitioner.
//
// Adapter holds no per-call state and is safe for concurrent use as long as
// its Partitioner is.
type Adapter struct {
	partitioner Partitioner
	logger      zerolog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for downscale notices.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// NewAdapter creates an adapter around p. A nil p selects SLIC.
func NewAdapter(p Partitioner, opts ...Option) *Adapter {
	if p == nil {
		p = NewSLIC()
	}
	a := &Adapter{
		partitioner: p,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Segment partitions img into regions.
//
// Errors wrap superpixel.ErrInput when the image has zero area, when
// TargetCount is not positive or when Compactness is negative. A grid
// returned by the partitioner with the wrong shape wraps
// superpixel.ErrConsistency.
func (a *Adapter) Segment(img image.Image, p Params) (*Result, error) {
	if p.TargetCount <= 0 {
		return nil, superpixel.InputError("region count must be positive, got %d", p.TargetCount)
	}
	if p.Compactness < 0 {
		return nil, superpixel.InputError("compactness must be non-negative, got %g", p.Compactness)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, superpixel.InputError("image has zero area")
	}

	ds := imaging.Downscale(img, p.MaxDimension)
	if ds.Downscaled {
		b := img.Bounds()
		nb := ds.Image.Bounds()
		a.logger.Info().
			Int("width", b.Dx()).Int("height", b.Dy()).
			Int("new_width", nb.Dx()).Int("new_height", nb.Dy()).
			Float64("scale", ds.Scale).
			Msg("downscaling image before segmentation")
	}

	raster, err := imaging.NewRaster(ds.Image)
	if err != nil {
		return nil, err
	}

	grid, err := a.partitioner.Partition(raster, p.TargetCount, p.Compactness)
	if err != nil {
		return nil, err
	}
	if grid == nil || grid.Width != raster.Width || grid.Height != raster.Height {
		return nil, superpixel.ConsistencyError("partitioner returned a grid that does not match the %dx%d image", raster.Width, raster.Height)
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	count := grid.Compact()

	return &Result{
		Grid:        grid,
		RegionCount: count,
		Shape:       [3]int{raster.Height, raster.Width, 3},
		Image:       ds.Image,
		Raster:      raster,
		Scale:       ds.Scale,
		Downscaled:  ds.Downscaled,
	}, nil
}
