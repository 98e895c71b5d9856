// Package sample holds the statistics used on fat sample vectors.
//
// A fat vector is a fixed-length series of observations. Vectors of different
// ingredients are index aligned: position k of every vector belongs to the same
// scenario, so a composed product's fat series is the elementwise sum of its
// ingredients' vectors.
package sample

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrLengthMismatch is returned when series of different lengths are combined.
var ErrLengthMismatch = errors.New("sample series length mismatch")

// Reducer collapses a sample vector into a scalar. The optimizer uses it to
// turn a stochastic attribute into a coefficient of a linear program.
type Reducer func(samples []float64) float64

// Mean returns the arithmetic mean of x, or 0 for an empty series.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// Percentile returns the q-th quantile (0 ≤ q ≤ 1) of x using linear
// interpolation between closest ranks, the numpy default. It returns NaN for
// an empty series or a q outside [0, 1].
func Percentile(x []float64, q float64) float64 {
	if len(x) == 0 || q < 0 || q > 1 || math.IsNaN(q) {
		return math.NaN()
	}
	sorted := slices.Clone(x)
	slices.Sort(sorted)

	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Quantile returns a Reducer evaluating Percentile at q.
func Quantile(q float64) Reducer {
	return func(x []float64) float64 {
		return Percentile(x, q)
	}
}

// Sum adds the given series elementwise. All series must share one length.
// Sum of no series is an empty series.
func Sum(series ...[]float64) ([]float64, error) {
	if len(series) == 0 {
		return nil, nil
	}
	out := slices.Clone(series[0])
	for i, s := range series[1:] {
		if len(s) != len(out) {
			return nil, fmt.Errorf("%w: series %d has %d samples, want %d", ErrLengthMismatch, i+1, len(s), len(out))
		}
		floats.Add(out, s)
	}
	return out, nil
}
