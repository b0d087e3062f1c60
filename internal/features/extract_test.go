package features

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// createHalvesImage paints columns left of the midpoint black and the rest white.
func createHalvesImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func halvesGrid(width, height int) *superpixel.LabelGrid {
	g := superpixel.NewLabelGrid(width, height)
	for y := 0; y < height; y++ {
		for x := width / 2; x < width; x++ {
			g.Set(x, y, 1)
		}
	}
	return g
}

func TestExtract_Halves(t *testing.T) {
	set, err := Extract(createHalvesImage(8, 4), halvesGrid(8, 4))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, set.IDs())
	m := set.Matrix()
	require.Len(t, m, 2)

	black, white := m[0], m[1]
	require.Len(t, black, Width)

	assert.InDelta(t, 0, black[OffsetMeanRGB], 1e-9)
	assert.InDelta(t, 255, white[OffsetMeanRGB+1], 1e-9)
	assert.InDelta(t, 0, black[OffsetMeanLab], 1e-6)
	assert.InDelta(t, 100, white[OffsetMeanLab], 1e-3)
	assert.Equal(t, 1.0, black[OffsetHistogram])
	assert.Equal(t, 1.0, white[OffsetHistogram+HistogramBins-1])
	assert.Equal(t, 16.0, black[OffsetArea])

	r0, ok := set.ByID(0)
	require.True(t, ok)
	assert.Equal(t, [2]float64{1.5, 1.5}, r0.Centroid)
	r1, _ := set.ByID(1)
	assert.Equal(t, [2]float64{5.5, 1.5}, r1.Centroid)
}

func TestExtract_ZeroVarianceStdIsExactlyZero(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:], []uint8{37, 141, 203, 255})
	}

	set, err := Extract(img, superpixel.NewLabelGrid(10, 10))
	require.NoError(t, err)
	require.Len(t, set.Regions, 1)

	v := set.Regions[0].Vector
	for c := 0; c < 3; c++ {
		assert.Equal(t, 0.0, v[OffsetStdRGB+c], "channel %d", c)
	}
	assert.InDelta(t, 37, v[OffsetMeanRGB], 1e-9)
	assert.InDelta(t, 203, v[OffsetMeanRGB+2], 1e-9)
	assert.Equal(t, 100.0, v[OffsetArea])
}

func TestExtract_StdMatchesPopulationFormula(t *testing.T) {
	// One row: red values 0, 100, 200 in a single region.
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.Set(0, 0, color.RGBA{0, 0, 0, 255})
	img.Set(1, 0, color.RGBA{100, 0, 0, 255})
	img.Set(2, 0, color.RGBA{200, 0, 0, 255})

	set, err := Extract(img, superpixel.NewLabelGrid(3, 1))
	require.NoError(t, err)

	v := set.Regions[0].Vector
	assert.InDelta(t, 100, v[OffsetMeanRGB], 1e-9)
	// sqrt(((100)^2 + 0 + (100)^2) / 3)
	assert.InDelta(t, 81.64965809, v[OffsetStdRGB], 1e-6)
}

func TestExtract_AreaSumAndHistogram(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 7, 5))
	for y := 0; y < 5; y++ {
		for x := 0; x < 7; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 36), uint8(y * 60), 90, 255})
		}
	}
	g := superpixel.NewLabelGrid(7, 5)
	for i := range g.Labels {
		g.Labels[i] = i % 4
	}

	set, err := Extract(img, g)
	require.NoError(t, err)

	total := 0
	for _, r := range set.Regions {
		total += r.Area
		sum := 0.0
		for i := 0; i < HistogramBins; i++ {
			sum += r.Vector[OffsetHistogram+i]
		}
		assert.InDelta(t, 1.0, sum, 1e-12, "region %d histogram", r.ID)
	}
	assert.Equal(t, 35, total)
}

func TestExtract_Idempotent(t *testing.T) {
	img := createHalvesImage(10, 6)
	g := halvesGrid(10, 6)
	g.Set(0, 0, 2)

	first, err := Extract(img, g)
	require.NoError(t, err)
	second, err := Extract(img, g)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated extraction differs (-first +second):\n%s", diff)
	}
}

func TestExtract_SkipsAbsentIds(t *testing.T) {
	g, err := superpixel.LabelGridFromRows([][]int{{0, 3}, {3, 3}})
	require.NoError(t, err)

	set, err := Extract(createHalvesImage(2, 2), g)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, set.IDs())

	_, ok := set.ByID(1)
	assert.False(t, ok)
}

func TestExtract_ShapeMismatch(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
		grid *superpixel.LabelGrid
	}{
		{"wider image", createHalvesImage(9, 4), halvesGrid(8, 4)},
		{"taller grid", createHalvesImage(8, 4), halvesGrid(8, 5)},
		{"nil image", nil, halvesGrid(8, 4)},
		{"nil grid", createHalvesImage(8, 4), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.img, tt.grid)
			assert.ErrorIs(t, err, superpixel.ErrInput)
		})
	}
}

func TestFieldNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, Width)
	assert.Equal(t, "area", names[OffsetArea])
	assert.Equal(t, "hist_0", names[OffsetHistogram])

	names[0] = "changed"
	assert.Equal(t, "mean_r", FieldNames[0])
}
