package segmentation

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/superpixel-tools/internal/imaging"
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// createSplitImage creates an image whose left half is left and right half is right.
func createSplitImage(width, height int, left, right color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.Set(x, y, left)
			} else {
				img.Set(x, y, right)
			}
		}
	}
	return img
}

func createUniformImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// fixedPartitioner returns a canned grid so adapter behavior can be tested
// without running SLIC.
type fixedPartitioner struct {
	grid *superpixel.LabelGrid
}

func (f fixedPartitioner) Partition(r *imaging.Raster, _ int, _ float64) (*superpixel.LabelGrid, error) {
	return f.grid, nil
}

func TestSegment_InvalidInput(t *testing.T) {
	a := NewAdapter(nil)
	img := createUniformImage(10, 10, color.RGBA{10, 20, 30, 255})

	tests := []struct {
		name   string
		img    image.Image
		params Params
	}{
		{"zero region count", img, Params{TargetCount: 0, Compactness: 10}},
		{"negative region count", img, Params{TargetCount: -5, Compactness: 10}},
		{"negative compactness", img, Params{TargetCount: 10, Compactness: -1}},
		{"zero area image", image.NewRGBA(image.Rect(0, 0, 0, 0)), DefaultParams()},
		{"nil image", nil, DefaultParams()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Segment(tt.img, tt.params)
			require.Error(t, err)
			assert.ErrorIs(t, err, superpixel.ErrInput)
		})
	}
}

func TestSegment_TwoColorHalves(t *testing.T) {
	img := createSplitImage(40, 20, color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255})

	res, err := NewAdapter(nil).Segment(img, Params{TargetCount: 2, Compactness: 10})
	require.NoError(t, err)

	assert.Equal(t, 2, res.RegionCount)
	assert.Equal(t, [3]int{20, 40, 3}, res.Shape)
	assert.False(t, res.Downscaled)
	assert.Equal(t, 1.0, res.Scale)

	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			want := 0
			if x >= 20 {
				want = 1
			}
			require.Equal(t, want, res.Grid.At(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestSegment_IdsAreContiguousFromZero(t *testing.T) {
	img := createUniformImage(60, 45, color.RGBA{90, 140, 60, 255})

	res, err := NewAdapter(nil).Segment(img, Params{TargetCount: 12, Compactness: 10})
	require.NoError(t, err)

	assert.Equal(t, res.RegionCount, res.Grid.MaxID()+1)
	for id, area := range res.Grid.Areas() {
		assert.Positive(t, area, "region %d has no pixels", id)
	}
	assert.Greater(t, res.RegionCount, 1)
}

func TestSegment_GrayscaleIsReplicated(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 16, 8))
	for i := range img.Pix {
		img.Pix[i] = 128
	}

	res, err := NewAdapter(nil).Segment(img, Params{TargetCount: 4, Compactness: 10})
	require.NoError(t, err)
	assert.Equal(t, [3]int{8, 16, 3}, res.Shape)

	r, g, b := res.Raster.RGB(3, 3)
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
	assert.InDelta(t, 128.0/255.0, r, 1e-9)
}

func TestSegment_DownscalesLargeImages(t *testing.T) {
	img := createSplitImage(40, 20, color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255})

	res, err := NewAdapter(nil).Segment(img, Params{TargetCount: 4, Compactness: 10, MaxDimension: 20})
	require.NoError(t, err)

	assert.True(t, res.Downscaled)
	assert.InDelta(t, 0.5, res.Scale, 1e-12)
	assert.Equal(t, [3]int{10, 20, 3}, res.Shape, "shape reports the segmented frame")
	assert.Equal(t, 20, res.Grid.Width)
	assert.Equal(t, 10, res.Grid.Height)
	assert.Equal(t, 20, res.Image.Bounds().Dx())
}

func TestSegment_CompactsPartitionerOutput(t *testing.T) {
	grid, err := superpixel.LabelGridFromRows([][]int{
		{5, 5, 9},
		{5, 9, 9},
	})
	require.NoError(t, err)

	img := createUniformImage(3, 2, color.RGBA{0, 0, 0, 255})
	res, err := NewAdapter(fixedPartitioner{grid: grid}).Segment(img, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, 2, res.RegionCount)
	assert.Equal(t, []int{0, 0, 1, 0, 1, 1}, res.Grid.Labels)
}

func TestSegment_RejectsMismatchedPartitionerGrid(t *testing.T) {
	img := createUniformImage(4, 4, color.RGBA{0, 0, 0, 255})
	res, err := NewAdapter(fixedPartitioner{grid: superpixel.NewLabelGrid(3, 4)}).Segment(img, DefaultParams())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, superpixel.ErrConsistency)
}

func TestSLIC_MoreRegionsThanPixels(t *testing.T) {
	r, err := imaging.NewRaster(createUniformImage(3, 3, color.RGBA{1, 2, 3, 255}))
	require.NoError(t, err)

	grid, err := NewSLIC().Partition(r, 100, 10)
	require.NoError(t, err)
	require.NoError(t, grid.Validate())
	assert.Equal(t, grid.RegionCount(), grid.MaxID()+1)
}

func TestSLIC_RegionCountTracksTarget(t *testing.T) {
	r, err := imaging.NewRaster(createUniformImage(40, 30, color.RGBA{120, 80, 40, 255}))
	require.NoError(t, err)

	grid, err := NewSLIC().Partition(r, 400, 10)
	require.NoError(t, err)
	require.NoError(t, grid.Validate())

	count := grid.RegionCount()
	assert.GreaterOrEqual(t, count, 300)
	assert.LessOrEqual(t, count, 500)
}

func TestSeedGrid(t *testing.T) {
	tests := []struct {
		name       string
		w, h, n    int
		cols, rows int
	}{
		{"halves", 40, 20, 2, 2, 1},
		{"small interval", 40, 30, 400, 24, 17},
		{"exact", 100, 100, 25, 5, 5},
		{"thin strip", 50, 1, 5, 5, 1},
		{"tall strip", 1, 50, 5, 1, 5},
		{"more regions than pixels", 3, 3, 100, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interval := math.Sqrt(float64(tt.w*tt.h) / float64(tt.n))
			cols, rows := seedGrid(tt.w, tt.h, interval)
			assert.Equal(t, tt.cols, cols, "cols")
			assert.Equal(t, tt.rows, rows, "rows")
		})
	}
}
