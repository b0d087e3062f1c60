// Package labeling turns a pixel-level ground truth mask into one class per
// region by majority vote.
package labeling

import (
	"github.com/ironsheep/superpixel-tools/internal/features"
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// DefaultClass is assigned to regions that received no valid votes.
const DefaultClass = 0

// Result holds the outcome of Aggregate, indexed by region id.
type Result struct {
	// Classes is the winning class of every id in 0..MaxID. Ids absent from
	// the grid and regions without valid votes hold DefaultClass.
	Classes []int

	// Votes is the number of valid mask pixels counted for each id.
	Votes []int

	// Counts holds per-class vote counts for each id.
	Counts [][]int
}

// Aggregate assigns every region the class most of its pixels carry in mask.
//
// Mask values outside [0, numClasses) are ignored. Ties go to the lowest
// class index. The mask must have exactly the grid's dimensions; errors wrap
// superpixel.ErrInput otherwise, or when numClasses is not positive.
func Aggregate(g *superpixel.LabelGrid, mask *superpixel.ClassMask, numClasses int) (*Result, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if mask == nil {
		return nil, superpixel.InputError("mask is nil")
	}
	if numClasses <= 0 {
		return nil, superpixel.InputError("class count must be positive, got %d", numClasses)
	}
	if mask.Width != g.Width || mask.Height != g.Height || len(mask.Values) != len(g.Labels) {
		return nil, superpixel.InputError("mask is %dx%d but label grid is %dx%d", mask.Width, mask.Height, g.Width, g.Height)
	}

	n := g.MaxID() + 1
	counts := make([][]int, n)
	flat := make([]int, n*numClasses)
	for id := range counts {
		counts[id] = flat[id*numClasses : (id+1)*numClasses]
	}

	votes := make([]int, n)
	for i, id := range g.Labels {
		class := mask.Values[i]
		if class < 0 || class >= numClasses {
			continue
		}
		counts[id][class]++
		votes[id]++
	}

	classes := make([]int, n)
	for id := range classes {
		classes[id] = majority(counts[id], votes[id])
	}

	return &Result{Classes: classes, Votes: votes, Counts: counts}, nil
}

func majority(counts []int, total int) int {
	if total == 0 {
		return DefaultClass
	}
	best := 0
	for class, c := range counts {
		// Strict comparison keeps the lowest class on ties.
		if c > counts[best] {
			best = class
		}
	}
	return best
}

// Example pairs a region's feature vector with its class.
type Example struct {
	ID     int
	Vector []float64
	Class  int
}

// TrainingExamples pairs every region in set with its aggregated class, in
// set order. A region id that res does not cover wraps
// superpixel.ErrConsistency.
func TrainingExamples(set *features.Set, res *Result) ([]Example, error) {
	if set == nil || res == nil {
		return nil, superpixel.InputError("feature set and aggregation result are required")
	}
	out := make([]Example, 0, len(set.Regions))
	for _, r := range set.Regions {
		if r.ID >= len(res.Classes) {
			return nil, superpixel.ConsistencyError("region %d has features but no aggregated class", r.ID)
		}
		out = append(out, Example{ID: r.ID, Vector: r.Vector, Class: res.Classes[r.ID]})
	}
	return out, nil
}

// Unzip splits examples into a feature matrix and a class vector.
func Unzip(examples []Example) ([][]float64, []int) {
	X := make([][]float64, len(examples))
	y := make([]int, len(examples))
	for i, e := range examples {
		X[i] = e.Vector
		y[i] = e.Class
	}
	return X, y
}
