package features

import "math"

// welford tracks a running mean and sum of squared deviations.
type welford struct {
	n    int
	mean float64
	m2   float64
}

func (w *welford) add(v float64) {
	w.n++
	delta := v - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (v - w.mean)
}

// std returns the population standard deviation. Rounding can push m2
// slightly below zero for constant input, so it is clamped.
func (w *welford) std() float64 {
	if w.n == 0 {
		return 0
	}
	return math.Sqrt(math.Max(w.m2/float64(w.n), 0))
}

// accumulator collects everything a region's vector needs in one pass.
type accumulator struct {
	rgb       [3]welford
	lab       [3]float64
	gray      float64
	histogram [HistogramBins]int
	sumX      float64
	sumY      float64
	area      int
}

func (a *accumulator) add(x, y int, r, g, b float64, lab [3]float64, gray uint8) {
	a.rgb[0].add(r)
	a.rgb[1].add(g)
	a.rgb[2].add(b)
	a.lab[0] += lab[0]
	a.lab[1] += lab[1]
	a.lab[2] += lab[2]
	a.gray += float64(gray)
	a.histogram[int(gray)*HistogramBins/256]++
	a.sumX += float64(x)
	a.sumY += float64(y)
	a.area++
}

func (a *accumulator) region(id int) Region {
	n := float64(a.area)
	r := Region{
		ID:       id,
		Area:     a.area,
		Centroid: [2]float64{a.sumX / n, a.sumY / n},
		LabMean:  [3]float64{a.lab[0] / n, a.lab[1] / n, a.lab[2] / n},
		Vector:   make([]float64, Width),
	}

	v := r.Vector
	for c := 0; c < 3; c++ {
		v[OffsetMeanRGB+c] = a.rgb[c].mean
		v[OffsetStdRGB+c] = a.rgb[c].std()
		v[OffsetMeanLab+c] = r.LabMean[c]
	}
	v[OffsetMeanGray] = a.gray / n
	for i, count := range a.histogram {
		v[OffsetHistogram+i] = float64(count) / n
	}
	v[OffsetArea] = n
	return r
}
