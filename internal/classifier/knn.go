package classifier

import (
	"encoding/json"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// KindKNN identifies k-nearest-neighbor models in model files.
const KindKNN = "knn"

// DefaultK is the neighbor count used when none is configured.
const DefaultK = 5

// KNNTrainer fits k-nearest-neighbor models on standardized features.
type KNNTrainer struct {
	// K is the number of neighbors that vote. Values above the training set
	// size use the whole set.
	K int
}

// NewKNNTrainer returns a trainer with k neighbors.
func NewKNNTrainer(k int) *KNNTrainer {
	return &KNNTrainer{K: k}
}

// Fit implements Trainer. Each feature is standardized by its training mean
// and standard deviation; constant features are centered only.
func (t *KNNTrainer) Fit(X [][]float64, y []int) (Model, error) {
	if t.K <= 0 {
		return nil, superpixel.InputError("k must be positive, got %d", t.K)
	}
	width, err := checkTrainingSet(X, y)
	if err != nil {
		return nil, err
	}

	m := &KNN{
		K:      min(t.K, len(X)),
		Mean:   make([]float64, width),
		Scale:  make([]float64, width),
		Points: make([][]float64, len(X)),
		Labels: append([]int(nil), y...),
	}

	column := make([]float64, len(X))
	for j := 0; j < width; j++ {
		for i, row := range X {
			column[i] = row[j]
		}
		mean, std := stat.MeanStdDev(column, nil)
		if std == 0 || len(X) < 2 {
			std = 1
		}
		m.Mean[j] = mean
		m.Scale[j] = std
	}
	for i, row := range X {
		m.Points[i] = m.standardize(row)
	}
	return m, nil
}

// KNN is a fitted k-nearest-neighbor model. Points are stored standardized.
type KNN struct {
	K      int         `json:"k"`
	Mean   []float64   `json:"mean"`
	Scale  []float64   `json:"scale"`
	Points [][]float64 `json:"points"`
	Labels []int       `json:"labels"`
}

// Kind implements Model.
func (m *KNN) Kind() string { return KindKNN }

// Width implements Model.
func (m *KNN) Width() int { return len(m.Mean) }

func (m *KNN) standardize(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - m.Mean[j]) / m.Scale[j]
	}
	return out
}

type neighbor struct {
	index    int
	distance float64
}

// Predict implements Model. The k nearest training points vote; ties
// between classes go to the lowest class and ties in distance to the
// earlier training point.
func (m *KNN) Predict(X [][]float64) ([]int, error) {
	if err := checkWidth(X, m.Width()); err != nil {
		return nil, err
	}

	out := make([]int, len(X))
	neighbors := make([]neighbor, len(m.Points))
	votes := make(map[int]int)
	for i, row := range X {
		q := m.standardize(row)
		for p, point := range m.Points {
			neighbors[p] = neighbor{index: p, distance: floats.Distance(q, point, 2)}
		}
		sort.SliceStable(neighbors, func(a, b int) bool {
			return neighbors[a].distance < neighbors[b].distance
		})

		clear(votes)
		for _, n := range neighbors[:m.K] {
			votes[m.Labels[n.index]]++
		}
		best, bestVotes := -1, 0
		for class, v := range votes {
			if v > bestVotes || (v == bestVotes && class < best) {
				best, bestVotes = class, v
			}
		}
		out[i] = best
	}
	return out, nil
}

// MarshalBinary implements Model.
func (m *KNN) MarshalBinary() ([]byte, error) {
	return json.Marshal(m)
}

func decodeKNN(data []byte) (Model, error) {
	var m KNN
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode knn model: %w", err)
	}
	if len(m.Mean) == 0 || len(m.Mean) != len(m.Scale) {
		return nil, superpixel.ConsistencyError("knn model has %d means and %d scales", len(m.Mean), len(m.Scale))
	}
	if len(m.Points) == 0 || len(m.Points) != len(m.Labels) || m.K <= 0 || m.K > len(m.Points) {
		return nil, superpixel.ConsistencyError("knn model has %d points, %d labels and k=%d", len(m.Points), len(m.Labels), m.K)
	}
	if err := checkWidth(m.Points, len(m.Mean)); err != nil {
		return nil, err
	}
	for j, s := range m.Scale {
		if s == 0 {
			return nil, superpixel.ConsistencyError("knn model has zero scale for feature %d", j)
		}
	}
	return &m, nil
}
