// Package analysis computes summary statistics over streak frequency
// tables and renders box plots of the expanded samples.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/discochess/streaklab/internal/tables"
)

// Summary contains the descriptive statistics of a streak sample.
type Summary struct {
	N      int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
	// Mode is the streak value with the highest frequency.
	Mode float64
	P1   float64
	P5   float64
	Q1   float64
	Q2   float64
	Q3   float64
	P99  float64
	// HighestStreak is the largest streak value in the table, with
	// its frequency.
	HighestStreak     float64
	HighestStreakFreq int
}

// Expand repeats each streak value by its frequency, reconstructing the
// full sample the table was built from. The result is sorted.
func Expand(rows []tables.FrequencyRow) []float64 {
	var sample []float64
	for _, row := range rows {
		for i := 0; i < row.Fi; i++ {
			sample = append(sample, row.Xi)
		}
	}
	sort.Float64s(sample)
	return sample
}

// Summarize computes descriptive statistics from a frequency table.
// Returns a zero Summary for an empty or all-zero table.
func Summarize(rows []tables.FrequencyRow) *Summary {
	sample := Expand(rows)
	if len(sample) == 0 {
		return &Summary{}
	}

	s := &Summary{
		N:      len(sample),
		Mean:   stat.Mean(sample, nil),
		Median: percentile(sample, 50),
		StdDev: stat.StdDev(sample, nil),
		Min:    sample[0],
		Max:    sample[len(sample)-1],
		P1:     percentile(sample, 1),
		P5:     percentile(sample, 5),
		Q1:     percentile(sample, 25),
		Q2:     percentile(sample, 50),
		Q3:     percentile(sample, 75),
		P99:    percentile(sample, 99),
	}

	maxFreq := -1
	for _, row := range rows {
		if row.Fi > maxFreq {
			maxFreq = row.Fi
			s.Mode = row.Xi
		}
		if row.Xi > s.HighestStreak {
			s.HighestStreak = row.Xi
			s.HighestStreakFreq = row.Fi
		}
	}

	return s
}

// percentile returns the p-th percentile of a sorted sample using
// linear interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
