package labeling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/superpixel-tools/internal/features"
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

func grid(t *testing.T, rows [][]int) *superpixel.LabelGrid {
	t.Helper()
	g, err := superpixel.LabelGridFromRows(rows)
	require.NoError(t, err)
	return g
}

func mask(rows [][]int) *superpixel.ClassMask {
	m := superpixel.NewClassMask(len(rows[0]), len(rows), 0)
	for y, row := range rows {
		copy(m.Values[y*m.Width:], row)
	}
	return m
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name       string
		grid       [][]int
		mask       [][]int
		numClasses int
		want       []int
	}{
		{
			name:       "majority wins",
			grid:       [][]int{{0, 0, 0, 1}},
			mask:       [][]int{{2, 2, 1, 1}},
			numClasses: 3,
			want:       []int{2, 1},
		},
		{
			name:       "tie goes to lowest class",
			grid:       [][]int{{0, 0, 0, 0}},
			mask:       [][]int{{2, 1, 2, 1}},
			numClasses: 3,
			want:       []int{1},
		},
		{
			name:       "out of range values ignored",
			grid:       [][]int{{0, 0, 0, 1, 1}},
			mask:       [][]int{{7, 7, 2, -1, 9}},
			numClasses: 3,
			want:       []int{2, DefaultClass},
		},
		{
			name:       "absent id gets default",
			grid:       [][]int{{0, 2}},
			mask:       [][]int{{1, 1}},
			numClasses: 2,
			want:       []int{1, DefaultClass, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Aggregate(grid(t, tt.grid), mask(tt.mask), tt.numClasses)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Classes)
		})
	}
}

func TestAggregate_Votes(t *testing.T) {
	res, err := Aggregate(grid(t, [][]int{{0, 0, 1, 1}}), mask([][]int{{0, 5, 1, 1}}), 2)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, res.Votes)
	assert.Equal(t, []int{1, 0}, res.Counts[0])
	assert.Equal(t, []int{0, 2}, res.Counts[1])
}

func TestAggregate_ShapeMismatch(t *testing.T) {
	g := superpixel.NewLabelGrid(100, 100)
	m := superpixel.NewClassMask(100, 99, 0)

	res, err := Aggregate(g, m, 3)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, superpixel.ErrInput)
}

func TestAggregate_InvalidArguments(t *testing.T) {
	g := superpixel.NewLabelGrid(2, 2)

	_, err := Aggregate(g, nil, 3)
	assert.ErrorIs(t, err, superpixel.ErrInput)

	_, err = Aggregate(g, superpixel.NewClassMask(2, 2, 0), 0)
	assert.ErrorIs(t, err, superpixel.ErrInput)

	_, err = Aggregate(nil, superpixel.NewClassMask(2, 2, 0), 3)
	assert.ErrorIs(t, err, superpixel.ErrInput)
}

func TestTrainingExamples(t *testing.T) {
	set := &features.Set{Regions: []features.Region{
		{ID: 0, Vector: []float64{1}},
		{ID: 2, Vector: []float64{3}},
	}}
	res := &Result{Classes: []int{1, 0, 2}}

	examples, err := TrainingExamples(set, res)
	require.NoError(t, err)
	require.Len(t, examples, 2)
	assert.Equal(t, Example{ID: 2, Vector: []float64{3}, Class: 2}, examples[1])

	X, y := Unzip(examples)
	assert.Equal(t, [][]float64{{1}, {3}}, X)
	assert.Equal(t, []int{1, 2}, y)

	_, err = TrainingExamples(set, &Result{Classes: []int{1}})
	assert.ErrorIs(t, err, superpixel.ErrConsistency)
}
