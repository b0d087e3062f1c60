package superpixel

import "image"

// LabelGrid holds one region id per pixel of the frame that was segmented.
//
// A LabelGrid is immutable once built by segmentation; derived views such as
// polygons and feature vectors are recomputed from it rather than stored in it.
type LabelGrid struct {
	// Width is the number of columns.
	Width int

	// Height is the number of rows.
	Height int

	// Labels holds Width*Height region ids in row-major order.
	Labels []int
}

// NewLabelGrid allocates a zero-filled grid. Every cell starts in region 0.
func NewLabelGrid(width, height int) *LabelGrid {
	return &LabelGrid{
		Width:  width,
		Height: height,
		Labels: make([]int, width*height),
	}
}

// LabelGridFromRows builds a grid from rows of ids. All rows must have the
// same length and no id may be negative.
func LabelGridFromRows(rows [][]int) (*LabelGrid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, InputError("label grid has zero area")
	}
	width := len(rows[0])
	g := NewLabelGrid(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, InputError("row %d has %d cells, want %d", y, len(row), width)
		}
		copy(g.Labels[y*width:(y+1)*width], row)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the grid dimensions and that every id is non-negative.
func (g *LabelGrid) Validate() error {
	if g == nil {
		return InputError("label grid is nil")
	}
	if g.Width <= 0 || g.Height <= 0 {
		return InputError("label grid has zero area (%dx%d)", g.Width, g.Height)
	}
	if len(g.Labels) != g.Width*g.Height {
		return InputError("label grid holds %d cells, want %d", len(g.Labels), g.Width*g.Height)
	}
	for i, id := range g.Labels {
		if id < 0 {
			return InputError("negative region id %d at (%d,%d)", id, i%g.Width, i/g.Width)
		}
	}
	return nil
}

// At returns the region id at (x, y). No bounds checking is performed.
func (g *LabelGrid) At(x, y int) int {
	return g.Labels[y*g.Width+x]
}

// Set stores id at (x, y). No bounds checking is performed.
func (g *LabelGrid) Set(x, y, id int) {
	g.Labels[y*g.Width+x] = id
}

// Bounds returns the grid frame as an image rectangle anchored at the origin.
func (g *LabelGrid) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// MaxID returns the largest region id in the grid, or -1 for an empty grid.
func (g *LabelGrid) MaxID() int {
	maxID := -1
	for _, id := range g.Labels {
		if id > maxID {
			maxID = id
		}
	}
	return maxID
}

// Areas returns the pixel count of every id in 0..MaxID, indexed by id.
// Ids absent from the grid have area 0.
func (g *LabelGrid) Areas() []int {
	areas := make([]int, g.MaxID()+1)
	for _, id := range g.Labels {
		areas[id]++
	}
	return areas
}

// RegionIDs returns the ids with non-zero area in ascending order.
func (g *LabelGrid) RegionIDs() []int {
	areas := g.Areas()
	ids := make([]int, 0, len(areas))
	for id, area := range areas {
		if area > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// RegionCount returns the number of ids with non-zero area.
func (g *LabelGrid) RegionCount() int {
	return len(g.RegionIDs())
}

// Compact renumbers ids in order of first appearance in raster order so the
// grid uses exactly 0..N-1. It returns N.
func (g *LabelGrid) Compact() int {
	remap := make(map[int]int)
	for i, id := range g.Labels {
		next, ok := remap[id]
		if !ok {
			next = len(remap)
			remap[id] = next
		}
		g.Labels[i] = next
	}
	return len(remap)
}
