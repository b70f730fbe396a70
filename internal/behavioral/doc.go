// Package behavioral turns classified trial streams into per-session metrics
// and orders sessions into cross-day summaries.
//
// A session report holds:
//   - outcome counts per category and per response side
//   - hit rate, false-alarm rate and d′, scalar and cumulative
//   - lick latency statistics per spout
//   - per-tone counts and performance
//   - block instance counts and per-block outcome breakdowns
//
// Example usage:
//
//	classified := p.Classifier().ClassifyAll(records)
//	report := behavioral.ComputeSession(meta, p, classified, behavioral.Options{})
//	summary := behavioral.Aggregate([]models.SessionMetrics{report.Metrics})
//	out, err := behavioral.ExportSummary(summary, "csv")
package behavioral
