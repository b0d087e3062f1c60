// Package classifier defines the capability the pipeline needs from a
// region classifier, provides a k-nearest-neighbor implementation and reads
// and writes model files.
//
// Training internals stay behind Trainer and Model so another algorithm can
// be registered without touching callers.
package classifier

import (
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// Model predicts one class per feature vector.
type Model interface {
	// Kind names the algorithm; it selects the decoder when loading.
	Kind() string

	// Width is the feature vector length the model was trained on.
	Width() int

	// Predict returns one class per row of X. Rows of the wrong width wrap
	// superpixel.ErrConsistency.
	Predict(X [][]float64) ([]int, error)

	// MarshalBinary serializes the model parameters.
	MarshalBinary() ([]byte, error)
}

// Trainer builds a Model from labeled vectors.
type Trainer interface {
	Fit(X [][]float64, y []int) (Model, error)
}

// Decoder restores a model of one kind from MarshalBinary output.
type Decoder func(data []byte) (Model, error)

// Decoders maps Model.Kind values to their decoder.
var Decoders = map[string]Decoder{
	KindKNN: decodeKNN,
}

// checkTrainingSet validates X and y and returns the vector width.
func checkTrainingSet(X [][]float64, y []int) (int, error) {
	if len(X) == 0 {
		return 0, superpixel.InputError("training set is empty")
	}
	if len(X) != len(y) {
		return 0, superpixel.InputError("%d vectors but %d classes", len(X), len(y))
	}
	width := len(X[0])
	if width == 0 {
		return 0, superpixel.InputError("feature vectors are empty")
	}
	for i, row := range X {
		if len(row) != width {
			return 0, superpixel.InputError("vector %d has %d components, want %d", i, len(row), width)
		}
		if y[i] < 0 {
			return 0, superpixel.InputError("vector %d has negative class %d", i, y[i])
		}
	}
	return width, nil
}

// checkWidth rejects rows that do not match a model's width.
func checkWidth(X [][]float64, width int) error {
	for i, row := range X {
		if len(row) != width {
			return superpixel.ConsistencyError("vector %d has %d components but the model expects %d", i, len(row), width)
		}
	}
	return nil
}

// Accuracy returns the fraction of predictions equal to truth. It returns 0
// for empty or mismatched input.
func Accuracy(predicted, truth []int) float64 {
	if len(predicted) == 0 || len(predicted) != len(truth) {
		return 0
	}
	hits := 0
	for i := range predicted {
		if predicted[i] == truth[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(predicted))
}

// Confusion counts predictions per (true class, predicted class). Classes
// outside [0, numClasses) are skipped.
func Confusion(predicted, truth []int, numClasses int) [][]int {
	m := make([][]int, numClasses)
	for i := range m {
		m[i] = make([]int, numClasses)
	}
	for i := 0; i < len(predicted) && i < len(truth); i++ {
		t, p := truth[i], predicted[i]
		if t < 0 || t >= numClasses || p < 0 || p >= numClasses {
			continue
		}
		m[t][p]++
	}
	return m
}
