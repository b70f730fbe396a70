package behavioral

import (
	"time"

	"github.com/harrison/trialscope/internal/blocks"
	"github.com/harrison/trialscope/internal/classify"
	"github.com/harrison/trialscope/internal/models"
	"github.com/harrison/trialscope/internal/protocol"
	"github.com/harrison/trialscope/internal/sdt"
)

// Options tunes per-session computation
type Options struct {
	ToneDelay time.Duration // zero means models.DefaultToneDelay
	Subtitle  string
}

func (o Options) toneDelay() time.Duration {
	if o.ToneDelay <= 0 {
		return models.DefaultToneDelay
	}
	return o.ToneDelay
}

// ComputeSession builds the report for one session from its classified trials.
// The trials are not modified.
func ComputeSession(meta models.SessionMeta, p *protocol.Protocol, trials []models.TrialRecord, opts Options) *SessionReport {
	report := &SessionReport{
		Metrics:  computeMetrics(meta, p.Features, trials, opts.toneDelay()),
		Title:    p.Title,
		Subtitle: opts.Subtitle,
	}

	if p.Features.SignalDetection {
		report.Trajectory = sdt.Trajectory(trials)
	}

	if p.Features.Blocks {
		for _, bt := range models.BlockTypes {
			runs := blocks.Segment(trials, bt)
			if len(runs) == 0 {
				continue
			}
			subset := filterBlock(trials, bt)
			report.Blocks = append(report.Blocks, BlockReport{
				BlockType: bt,
				Runs:      runs,
				Metrics:   computeMetrics(meta, p.Features, subset, opts.toneDelay()),
			})
		}
	}

	return report
}

// Analyze classifies raw records with the protocol's rules and computes the report
func Analyze(meta models.SessionMeta, p *protocol.Protocol, records []models.TrialRecord, opts Options) *SessionReport {
	return ComputeSession(meta, p, p.Classifier().ClassifyAll(records), opts)
}

func computeMetrics(meta models.SessionMeta, features protocol.Features, trials []models.TrialRecord, delay time.Duration) models.SessionMetrics {
	m := models.SessionMetrics{
		SessionMeta:    meta,
		TotalTrials:    len(trials),
		CategoryCounts: classify.CountByCategory(trials),
	}

	var (
		leftLatencies  []float64
		rightLatencies []float64
		qws            []int
		automRewards   int
	)

	for i := range trials {
		t := &trials[i]
		if t.Category == models.CategoryNone {
			m.Unclassified++
		} else {
			m.Classified++
		}

		if t.LeftSpout && t.Reward {
			m.CorrectLeft++
		}
		if t.LeftSpout && t.Punishment {
			m.IncorrectLeft++
		}
		if t.RightSpout && t.Reward {
			m.CorrectRight++
		}
		if t.RightSpout && t.Punishment {
			m.IncorrectRight++
		}
		if t.EarlyLick {
			m.EarlyLicks++
		}
		if t.Omission {
			m.Omissions++
		}
		if t.AutomReward {
			automRewards++
		}
		if t.QW != nil {
			qws = append(qws, *t.QW)
		}

		if features.Latency {
			if latency, ok := t.LickLatency(delay); ok {
				if t.LeftSpout {
					leftLatencies = append(leftLatencies, latency)
				}
				if t.RightSpout {
					rightLatencies = append(rightLatencies, latency)
				}
			}
		}
	}

	result := sdt.Compute(m.Correct(), m.Incorrect(), m.TotalTrials)
	m.HitRate = result.HitRate
	m.FalseAlarmRate = result.FalseAlarm
	m.DPrime = result.DPrime

	m.LatencyLeft = latencyStats(leftLatencies)
	m.LatencyRight = latencyStats(rightLatencies)
	m.QW = mode(qws)
	m.AutomRewardDominant = automRewards*2 > m.TotalTrials
	m.Performance = percent(m.Correct(), m.Correct()+m.Incorrect()+m.Omissions)

	if features.SignalDetection {
		fillPercentages(&m, trials)
	}
	if features.Stimuli {
		m.Stimuli = stimulusCounts(trials)
	}
	if features.Blocks {
		m.BlockCounts = make(map[models.BlockType]int, len(models.BlockTypes))
		for _, bt := range models.BlockTypes {
			m.BlockCounts[bt] = 0
		}
		for bt, n := range blocks.CountInstances(trials) {
			m.BlockCounts[bt] = n
		}
	}
	if features.Licks {
		m.Licks = lickCounts(trials)
	}

	return m
}

// fillPercentages sets the outcome percentages over classified trials
func fillPercentages(m *models.SessionMetrics, trials []models.TrialRecord) {
	var correct, incorrect, correctLeft, correctRight int
	for i := range trials {
		t := &trials[i]
		if t.Category == models.CategoryNone {
			continue
		}
		if t.Reward {
			correct++
			if t.LeftSpout {
				correctLeft++
			}
			if t.RightSpout {
				correctRight++
			}
		}
		if t.Punishment {
			incorrect++
		}
	}
	m.PercentCorrect = percent(correct, m.Classified)
	m.PercentIncorrect = percent(incorrect, m.Classified)
	m.PercentCorrectLeft = percent(correctLeft, m.Classified)
	m.PercentCorrectRight = percent(correctRight, m.Classified)
}

func stimulusCounts(trials []models.TrialRecord) map[string]models.StimulusCounts {
	counts := make(map[string]models.StimulusCounts)
	for i := range trials {
		t := &trials[i]
		if t.Stimulus == "" {
			continue
		}
		c := counts[t.Stimulus]
		c.Trials++
		if t.Omission {
			c.Omissions++
		}
		responded := t.LeftSpout || t.RightSpout
		if responded && t.Reward {
			c.Correct++
		}
		if responded && t.Punishment {
			c.Incorrect++
		}
		counts[t.Stimulus] = c
	}
	for tone, c := range counts {
		c.Performance = percent(c.Correct, c.Correct+c.Incorrect+c.Omissions)
		counts[tone] = c
	}
	return counts
}

func lickCounts(trials []models.TrialRecord) *models.LickCounts {
	lc := &models.LickCounts{}
	for i := range trials {
		if !trials[i].Lick {
			continue
		}
		lc.Total++
		if trials[i].LeftSpout {
			lc.Left++
		}
		if trials[i].RightSpout {
			lc.Right++
		}
	}
	return lc
}

func filterBlock(trials []models.TrialRecord, bt models.BlockType) []models.TrialRecord {
	var out []models.TrialRecord
	for i := range trials {
		if trials[i].Block == bt {
			out = append(out, trials[i])
		}
	}
	return out
}
