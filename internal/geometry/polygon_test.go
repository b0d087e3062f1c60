package geometry

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

func mustGrid(t *testing.T, rows [][]int) *superpixel.LabelGrid {
	t.Helper()
	g, err := superpixel.LabelGridFromRows(rows)
	require.NoError(t, err)
	return g
}

// quadrantGrid builds a size x size grid split into four equal blocks with
// ids 0 (top-left), 1 (top-right), 2 (bottom-left) and 3 (bottom-right).
func quadrantGrid(t *testing.T, size int) *superpixel.LabelGrid {
	t.Helper()
	g := superpixel.NewLabelGrid(size, size)
	half := size / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			id := 0
			if x >= half {
				id++
			}
			if y >= half {
				id += 2
			}
			g.Set(x, y, id)
		}
	}
	return g
}

func TestExtract_Quadrants(t *testing.T) {
	res, err := Extract(quadrantGrid(t, 8))
	require.NoError(t, err)

	require.Len(t, res.Polygons, 4)
	assert.Equal(t, 4, res.Meta.LabelsFound)

	want := map[int][][2]int{
		0: {{0, 0}, {3, 0}, {3, 3}, {0, 3}},
		1: {{4, 0}, {7, 0}, {7, 3}, {4, 3}},
		2: {{0, 4}, {3, 4}, {3, 7}, {0, 7}},
		3: {{4, 4}, {7, 4}, {7, 7}, {4, 7}},
	}
	for i, p := range res.Polygons {
		assert.Equal(t, i, p.ID, "polygons are ordered by id")
		assert.Equal(t, 1, p.Components)
		if diff := cmp.Diff(want[p.ID], p.Vertices); diff != "" {
			t.Errorf("region %d vertices mismatch (-want +got):\n%s", p.ID, diff)
		}
	}
}

func TestExtract_VerticesStayInsideRegionBounds(t *testing.T) {
	g := quadrantGrid(t, 12)
	res, err := Extract(g)
	require.NoError(t, err)

	boxes := regionBoxes(g)
	for _, p := range res.Polygons {
		for _, v := range p.Vertices {
			pt := image.Pt(v[0], v[1])
			assert.True(t, pt.In(boxes[p.ID]), "region %d vertex %v outside %v", p.ID, v, boxes[p.ID])
			assert.Equal(t, p.ID, g.At(v[0], v[1]), "vertex %v is not a pixel of region %d", v, p.ID)
		}
	}
}

func TestExtract_SinglePixelRegions(t *testing.T) {
	res, err := Extract(mustGrid(t, [][]int{
		{0, 1},
		{2, 3},
	}))
	require.NoError(t, err)
	require.Len(t, res.Polygons, 4)

	want := [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	for i, p := range res.Polygons {
		assert.Equal(t, [][2]int{want[i]}, p.Vertices)
	}
}

func TestExtract_DisjointRegionKeepsLargestBlob(t *testing.T) {
	res, err := Extract(mustGrid(t, [][]int{
		{0, 0, 1, 1, 1},
		{0, 0, 1, 1, 0},
		{1, 1, 1, 1, 1},
	}))
	require.NoError(t, err)
	require.Len(t, res.Polygons, 2)

	p := res.Polygons[0]
	assert.Equal(t, 2, p.Components)
	assert.Equal(t, [][2]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, p.Vertices)

	assert.Equal(t, 1, res.Polygons[1].Components)
}

func TestExtract_ThinRegion(t *testing.T) {
	res, err := Extract(mustGrid(t, [][]int{
		{0, 0, 0},
		{1, 1, 1},
	}))
	require.NoError(t, err)

	v := res.Polygons[0].Vertices
	require.NotEmpty(t, v)
	assert.Equal(t, [2]int{0, 0}, v[0])
	assert.Contains(t, v, [2]int{2, 0})
	assert.NotEqual(t, v[0], v[len(v)-1], "closing vertex must not be repeated")
}

func TestExtract_SkipsAbsentIds(t *testing.T) {
	res, err := Extract(mustGrid(t, [][]int{
		{0, 0, 5},
		{0, 5, 5},
	}))
	require.NoError(t, err)

	require.Len(t, res.Polygons, 2)
	assert.Equal(t, 0, res.Polygons[0].ID)
	assert.Equal(t, 5, res.Polygons[1].ID)
	assert.Equal(t, 2, res.Meta.LabelsFound)
}

func TestExtract_InvalidGrid(t *testing.T) {
	tests := []struct {
		name string
		grid *superpixel.LabelGrid
	}{
		{"nil", nil},
		{"zero area", &superpixel.LabelGrid{}},
		{"short labels", &superpixel.LabelGrid{Width: 2, Height: 2, Labels: []int{0, 0, 0}}},
		{"negative id", &superpixel.LabelGrid{Width: 1, Height: 1, Labels: []int{-1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.grid)
			assert.ErrorIs(t, err, superpixel.ErrInput)
		})
	}
}

func TestTraceBoundary_Block(t *testing.T) {
	g := mustGrid(t, [][]int{
		{1, 1, 1, 1},
		{1, 0, 0, 1},
		{1, 0, 0, 1},
		{1, 1, 1, 1},
	})
	got := traceBoundary(g, 0, image.Pt(1, 1), 100)
	want := []image.Point{{1, 1}, {2, 1}, {2, 2}, {1, 2}}
	assert.Equal(t, want, got)
}

func TestFindBlobs(t *testing.T) {
	g := mustGrid(t, [][]int{
		{0, 1, 0},
		{1, 1, 1},
		{0, 1, 1},
	})
	blobs := findBlobs(g, 0, g.Bounds())
	require.Len(t, blobs, 3)
	assert.Equal(t, image.Pt(0, 0), blobs[0].start)
	assert.Equal(t, image.Pt(2, 0), blobs[1].start)
	assert.Equal(t, image.Pt(0, 2), blobs[2].start)
}
