// Package stats is the numerical toolkit behind report rendering: population
// statistics over reading slices plus an exponential moving average for
// trend smoothing. Standard deviation is the population form (÷n).
package stats

import (
	"cmp"
	"math"
	"slices"
)

// Well-known percentile arguments.
const (
	PercentileMedian = 0.5
	PercentileP95    = 0.95
)

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var total float64

	for _, v := range values {
		total += v
	}

	return total / float64(len(values))
}

// MeanStdDev returns the mean and population standard deviation of values,
// (0, 0) for an empty slice.
func MeanStdDev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	mean = Mean(values)

	var acc float64

	for _, v := range values {
		dev := v - mean
		acc += dev * dev
	}

	return mean, math.Sqrt(acc / float64(len(values)))
}

// Percentile returns the p-th percentile of values by linear interpolation,
// with p in [0, 1]. The input slice is left unmodified; a copy is sorted.
// Returns 0 for an empty slice.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))

	if lo == hi || hi >= len(sorted) {
		return sorted[lo]
	}

	weight := rank - float64(lo)

	return sorted[lo]*(1-weight) + sorted[hi]*weight
}

// Median returns the 50th percentile of values.
func Median(values []float64) float64 {
	return Percentile(values, PercentileMedian)
}

// Min returns the smallest element, the zero value of T for an empty slice.
func Min[T cmp.Ordered](values []T) T {
	if len(values) == 0 {
		var zero T

		return zero
	}

	return slices.Min(values)
}

// Max returns the largest element, the zero value of T for an empty slice.
func Max[T cmp.Ordered](values []T) T {
	if len(values) == 0 {
		var zero T

		return zero
	}

	return slices.Max(values)
}
