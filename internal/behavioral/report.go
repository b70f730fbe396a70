package behavioral

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/harrison/trialscope/internal/models"
)

// RenderSession renders a session report as json, markdown or html
func RenderSession(report *SessionReport, format string) (string, error) {
	if err := report.Validate(); err != nil {
		return "", err
	}

	switch normalizeFormat(format) {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(data), nil
	case "markdown":
		return sessionMarkdown(report), nil
	case "html":
		return markdownToHTML(report.Title, sessionMarkdown(report))
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: json, markdown, html)", format)
	}
}

func sessionMarkdown(r *SessionReport) string {
	m := &r.Metrics
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s | Animal: %s | Date: %s | Box %s\n\n",
		r.Title, m.Animal, m.Date.Format("2006-01-02"), m.Box))
	if r.Subtitle != "" {
		sb.WriteString(fmt.Sprintf("_%s_\n\n", r.Subtitle))
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Total Trials**: %d\n", m.TotalTrials))
	sb.WriteString(fmt.Sprintf("- **Classified**: %d\n", m.Classified))
	sb.WriteString(fmt.Sprintf("- **Hit Rate**: %.4f\n", m.HitRate))
	sb.WriteString(fmt.Sprintf("- **False Alarm Rate**: %.4f\n", m.FalseAlarmRate))
	sb.WriteString(fmt.Sprintf("- **d'**: %.4f\n", m.DPrime))
	sb.WriteString(fmt.Sprintf("- **Performance**: %s\n", percentText(m.Performance)))
	sb.WriteString(fmt.Sprintf("- **QW**: %s\n", qwText(m.QW)))
	sb.WriteString(fmt.Sprintf("- **Automatic Reward Dominant**: %t\n", m.AutomRewardDominant))
	sb.WriteString("\n")

	writeOutcomeTable(&sb, m)

	if m.LatencyLeft.N > 0 || m.LatencyRight.N > 0 {
		sb.WriteString("## Lick Latency\n\n")
		sb.WriteString("| Spout | N | Mean (s) | Std (s) | SEM (s) |\n")
		sb.WriteString("|-------|---|----------|---------|---------|\n")
		writeLatencyRow(&sb, "Left", m.LatencyLeft)
		writeLatencyRow(&sb, "Right", m.LatencyRight)
		sb.WriteString("\n")
	}

	if len(m.Stimuli) > 0 {
		sb.WriteString("## Stimuli\n\n")
		sb.WriteString("| Tone | Trials | Omissions | Correct | Incorrect | Performance |\n")
		sb.WriteString("|------|--------|-----------|---------|-----------|-------------|\n")
		tones := make([]string, 0, len(m.Stimuli))
		for tone := range m.Stimuli {
			tones = append(tones, tone)
		}
		sort.Strings(tones)
		for _, tone := range tones {
			c := m.Stimuli[tone]
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %s |\n",
				tone, c.Trials, c.Omissions, c.Correct, c.Incorrect, percentText(c.Performance)))
		}
		sb.WriteString("\n")
	}

	if m.Licks != nil {
		sb.WriteString("## Licks\n\n")
		sb.WriteString(fmt.Sprintf("- **Total**: %d\n", m.Licks.Total))
		sb.WriteString(fmt.Sprintf("- **Left**: %d\n", m.Licks.Left))
		sb.WriteString(fmt.Sprintf("- **Right**: %d\n\n", m.Licks.Right))
	}

	if len(r.Blocks) > 0 {
		sb.WriteString("## Blocks\n\n")
		sb.WriteString("| Block | Instances | Trials | Correct | Incorrect | Omissions | Early Licks |\n")
		sb.WriteString("|-------|-----------|--------|---------|-----------|-----------|-------------|\n")
		for _, b := range r.Blocks {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %d | %d |\n",
				b.BlockType, len(b.Runs), b.Metrics.TotalTrials, b.Metrics.Correct(),
				b.Metrics.Incorrect(), b.Metrics.Omissions, b.Metrics.EarlyLicks))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeOutcomeTable(sb *strings.Builder, m *models.SessionMetrics) {
	if len(m.CategoryCounts) == 0 {
		return
	}
	sb.WriteString("## Outcomes\n\n")
	sb.WriteString("| Category | Count |\n")
	sb.WriteString("|----------|-------|\n")

	categories := make([]models.Category, 0, len(m.CategoryCounts))
	for c := range m.CategoryCounts {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	for _, c := range categories {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", c, m.CategoryCounts[c]))
	}
	if m.Unclassified > 0 {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", models.CategoryNone, m.Unclassified))
	}
	sb.WriteString("\n")
}

func writeLatencyRow(sb *strings.Builder, side string, s models.LatencyStats) {
	sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s |\n",
		side, s.N, floatText(s.Mean), floatText(s.StdDev), floatText(s.SEM)))
}

func floatText(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", *v)
}

func percentText(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func qwText(v *int) string {
	if v == nil {
		return "NA"
	}
	return fmt.Sprintf("%d", *v)
}
