// Package projection paints per-region predictions back onto the pixel grid.
package projection

import (
	"image"

	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// Unassigned fills the slots of ids that are absent from a grid, which only
// non-contiguous grids have.
const Unassigned = -1

// Project builds a class mask by giving every pixel the prediction of its
// region. predictions is indexed by region id.
//
// A region id present in g with no entry in predictions, or whose entry is
// negative, wraps superpixel.ErrConsistency; the mask is never partially
// filled.
func Project(g *superpixel.LabelGrid, predictions []int) (*superpixel.ClassMask, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if maxID := g.MaxID(); maxID >= len(predictions) {
		return nil, superpixel.ConsistencyError("no prediction for region %d (%d predictions)", maxID, len(predictions))
	}

	mask := superpixel.NewClassMask(g.Width, g.Height, 0)
	for i, id := range g.Labels {
		class := predictions[id]
		if class < 0 {
			return nil, superpixel.ConsistencyError("region %d has no class (prediction %d)", id, class)
		}
		mask.Values[i] = class
	}
	return mask, nil
}

// PredictionsByID spreads predictions made for ids (e.g. the rows of a
// feature matrix) into a table indexed by region id. Ids without a
// prediction hold Unassigned.
func PredictionsByID(ids, predictions []int) ([]int, error) {
	if len(ids) != len(predictions) {
		return nil, superpixel.ConsistencyError("%d ids but %d predictions", len(ids), len(predictions))
	}
	maxID := -1
	for _, id := range ids {
		if id < 0 {
			return nil, superpixel.InputError("negative region id %d", id)
		}
		maxID = max(maxID, id)
	}
	table := make([]int, maxID+1)
	for i := range table {
		table[i] = Unassigned
	}
	for i, id := range ids {
		table[id] = predictions[i]
	}
	return table, nil
}

// MaskImage encodes a class mask as an 8-bit gray image for persistence.
func MaskImage(m *superpixel.ClassMask) *image.Gray {
	return m.Image()
}
