// Package stats implements the statistical validation layer of the research
// pipeline: effect sizes, two-sample significance tests, multiple-testing
// correction, and bootstrap confidence intervals over trial results.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean. Zero for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation (ddof=1).
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// Skewness returns the sample skewness (biased estimator).
func Skewness(values []float64) float64 {
	if len(values) < 3 {
		return 0
	}
	m := Mean(values)
	var m2, m3 float64
	for _, v := range values {
		d := v - m
		m2 += d * d
		m3 += d * d * d
	}
	n := float64(len(values))
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return 0
	}
	return m3 / math.Pow(m2, 1.5)
}

// ExcessKurtosis returns the sample excess kurtosis (biased estimator).
func ExcessKurtosis(values []float64) float64 {
	if len(values) < 4 {
		return 0
	}
	m := Mean(values)
	var m2, m4 float64
	for _, v := range values {
		d := v - m
		m2 += d * d
		m4 += d * d * d * d
	}
	n := float64(len(values))
	m2 /= n
	m4 /= n
	if m2 == 0 {
		return 0
	}
	return m4/(m2*m2) - 3
}

// Percentile computes the p-th percentile with linear interpolation between
// closest ranks. Zero for empty input.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
