// Package features computes a fixed-width statistics vector for every region
// of a label grid.
package features

// Width is the number of components in a feature vector.
const Width = 19

// HistogramBins is the number of gray-level histogram bins in a vector.
const HistogramBins = 8

// Offsets of each group within a vector.
const (
	OffsetMeanRGB   = 0
	OffsetStdRGB    = 3
	OffsetMeanLab   = 6
	OffsetMeanGray  = 9
	OffsetHistogram = 10
	OffsetArea      = 18
)

// FieldNames names every vector component, in order. Model files record
// these so a model trained on one layout is never applied to another.
var FieldNames = [Width]string{
	"mean_r", "mean_g", "mean_b",
	"std_r", "std_g", "std_b",
	"mean_l", "mean_a", "mean_lab_b",
	"mean_gray",
	"hist_0", "hist_1", "hist_2", "hist_3", "hist_4", "hist_5", "hist_6", "hist_7",
	"area",
}

// Names returns FieldNames as a slice.
func Names() []string {
	return append([]string(nil), FieldNames[:]...)
}
