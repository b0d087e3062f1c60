package training

import (
	"math"
	"math/rand"
	"sort"

	"github.com/ironsheep/superpixel-tools/internal/classifier"
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// Split holds row indices of a train/test partition.
type Split struct {
	Train []int
	Test  []int
}

// StratifiedSplit partitions the rows of y so every class contributes about
// testSize of its rows to Test. Rows are shuffled per class with seed, so the
// same inputs always give the same split. Classes with a single row stay in
// Train.
func StratifiedSplit(y []int, testSize float64, seed int64) (Split, error) {
	if testSize <= 0 || testSize >= 1 {
		return Split{}, superpixel.InputError("test size must be within (0, 1), got %g", testSize)
	}

	byClass := make(map[int][]int)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))
	var s Split
	for _, c := range classes {
		rows := byClass[c]
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

		nTest := int(math.Round(testSize * float64(len(rows))))
		if nTest >= len(rows) {
			nTest = len(rows) - 1
		}
		s.Test = append(s.Test, rows[:nTest]...)
		s.Train = append(s.Train, rows[nTest:]...)
	}
	sort.Ints(s.Train)
	sort.Ints(s.Test)
	return s, nil
}

func pick(X [][]float64, y []int, rows []int) ([][]float64, []int) {
	outX := make([][]float64, len(rows))
	outY := make([]int, len(rows))
	for i, r := range rows {
		outX[i] = X[r]
		outY[i] = y[r]
	}
	return outX, outY
}

// Report summarizes a training run.
type Report struct {
	Images      int         `json:"images"`
	Samples     int         `json:"samples"`
	TrainSize   int         `json:"train_size"`
	TestSize    int         `json:"test_size"`
	ClassCounts map[int]int `json:"class_counts"`

	// Accuracy is measured on the held-out rows; it is zero when no rows
	// were held out.
	Accuracy  float64 `json:"accuracy"`
	Confusion [][]int `json:"confusion"`
}

// Fit splits ds, trains on the training rows and evaluates on the rest.
func Fit(ds *Dataset, trainer classifier.Trainer, numClasses int, testSize float64, seed int64) (classifier.Model, *Report, error) {
	if ds == nil || len(ds.X) == 0 {
		return nil, nil, superpixel.InputError("dataset is empty")
	}
	split, err := StratifiedSplit(ds.Y, testSize, seed)
	if err != nil {
		return nil, nil, err
	}

	trainX, trainY := pick(ds.X, ds.Y, split.Train)
	model, err := trainer.Fit(trainX, trainY)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{
		Images:      ds.Images,
		Samples:     len(ds.X),
		TrainSize:   len(split.Train),
		TestSize:    len(split.Test),
		ClassCounts: make(map[int]int),
	}
	for _, c := range ds.Y {
		report.ClassCounts[c]++
	}

	if len(split.Test) > 0 {
		testX, testY := pick(ds.X, ds.Y, split.Test)
		pred, err := model.Predict(testX)
		if err != nil {
			return nil, nil, err
		}
		report.Accuracy = classifier.Accuracy(pred, testY)
		report.Confusion = classifier.Confusion(pred, testY, numClasses)
	}
	return model, report, nil
}
