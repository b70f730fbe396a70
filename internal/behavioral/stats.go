package behavioral

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/harrison/trialscope/internal/models"
)

// latencyStats summarizes latencies with the sample standard deviation.
// Mean is absent for no values; StdDev and SEM are absent for fewer than two.
func latencyStats(values []float64) models.LatencyStats {
	out := models.LatencyStats{N: len(values)}
	if len(values) == 0 {
		return out
	}

	mean, std := stat.MeanStdDev(values, nil)
	out.Mean = &mean
	if len(values) > 1 && !math.IsNaN(std) {
		sem := std / math.Sqrt(float64(len(values)))
		out.StdDev = &std
		out.SEM = &sem
	}
	return out
}

// mode returns the most frequent value, the smallest one on ties.
// Returns nil for no values.
func mode(values []int) *int {
	if len(values) == 0 {
		return nil
	}
	counts := make(map[int]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return &best
}

// percent returns num/den as a percentage, or nil when den is zero
func percent(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	p := float64(num) / float64(den) * 100
	return &p
}
