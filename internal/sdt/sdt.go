// Package sdt computes signal-detection metrics from response counts.
//
// Rates use a Laplace correction of (count+0.5)/(total+1) and are clipped to
// [MinRate, MaxRate] so that d′ stays finite.
package sdt

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/harrison/trialscope/internal/models"
)

const (
	MinRate = 0.01
	MaxRate = 0.99
)

// Result holds the hit rate, false-alarm rate and sensitivity index
type Result struct {
	HitRate    float64 `json:"hit_rate"`
	FalseAlarm float64 `json:"false_alarm_rate"`
	DPrime     float64 `json:"d_prime"`
}

// Point is one step of a cumulative trajectory
type Point struct {
	Trial       int  `json:"trial"`                  // 1-based position among classified trials
	TrialNumber *int `json:"trial_number,omitempty"` // nil when the row had no trial number
	Correct     int  `json:"correct"`
	Incorrect   int  `json:"incorrect"`
	Result
}

// Compute returns the corrected, clipped rates and d′ for the given counts.
// A zero total yields HR = FA = 0.5 and d′ = 0.
func Compute(correct, incorrect, total int) Result {
	hr := Rate(correct, total)
	fa := Rate(incorrect, total)
	return Result{
		HitRate:    hr,
		FalseAlarm: fa,
		DPrime:     distuv.UnitNormal.Quantile(hr) - distuv.UnitNormal.Quantile(fa),
	}
}

// Rate applies the Laplace correction and clips the result
func Rate(count, total int) float64 {
	return clip((float64(count)+0.5)/(float64(total)+1), MinRate, MaxRate)
}

// Trajectory computes the metrics after each classified trial.
// Correct counts rewarded trials and incorrect counts punished trials seen so far.
func Trajectory(trials []models.TrialRecord) []Point {
	points := make([]Point, 0, len(trials))
	correct, incorrect, n := 0, 0, 0
	for i := range trials {
		if trials[i].Category == models.CategoryNone {
			continue
		}
		n++
		if trials[i].Reward {
			correct++
		}
		if trials[i].Punishment {
			incorrect++
		}
		p := Point{
			Trial:     n,
			Correct:   correct,
			Incorrect: incorrect,
			Result:    Compute(correct, incorrect, n),
		}
		if !trials[i].MissingTrialNumber {
			p.TrialNumber = models.Int(trials[i].TrialNumber)
		}
		points = append(points, p)
	}
	return points
}

// String formats the result for log output
func (r Result) String() string {
	return fmt.Sprintf("HR=%.4f FA=%.4f d'=%.4f", r.HitRate, r.FalseAlarm, r.DPrime)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
