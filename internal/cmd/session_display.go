package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/trialscope/internal/behavioral"
	"github.com/harrison/trialscope/internal/models"
)

// formatSessionText renders a session report for the terminal.
// Colors follow fatih/color's own NO_COLOR and TTY detection when useColor is set.
func formatSessionText(r *behavioral.SessionReport, useColor bool) string {
	heading := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgCyan)
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	if !useColor {
		for _, c := range []*color.Color{heading, label, good, bad} {
			c.DisableColor()
		}
	}

	m := &r.Metrics
	var sb strings.Builder

	sb.WriteString(heading.Sprintf("%s | Animal: %s | Date: %s | Box %s", r.Title, m.Animal, m.Date.Format("2006-01-02"), m.Box))
	sb.WriteString("\n")
	if r.Subtitle != "" {
		sb.WriteString(r.Subtitle + "\n")
	}
	sb.WriteString(strings.Repeat("─", 60) + "\n")

	fmt.Fprintf(&sb, "%s %d (%d classified, %d unclassified)\n", label.Sprint("Trials:"), m.TotalTrials, m.Classified, m.Unclassified)

	if len(m.CategoryCounts) > 0 {
		sb.WriteString(label.Sprint("Outcomes:") + "\n")
		for _, c := range sortedCategories(m.CategoryCounts) {
			name := c.String()
			count := fmt.Sprintf("%d", m.CategoryCounts[c])
			switch {
			case c.IsCorrect():
				count = good.Sprint(count)
			case c.IsIncorrect():
				count = bad.Sprint(count)
			}
			fmt.Fprintf(&sb, "  %-16s %s\n", name, count)
		}
	}

	fmt.Fprintf(&sb, "%s hit rate %.4f, false alarm %.4f, d' %.4f\n", label.Sprint("Detection:"), m.HitRate, m.FalseAlarmRate, m.DPrime)
	if m.Performance != nil {
		fmt.Fprintf(&sb, "%s %.1f%%\n", label.Sprint("Performance:"), *m.Performance)
	}
	if m.QW != nil {
		fmt.Fprintf(&sb, "%s %d\n", label.Sprint("QW:"), *m.QW)
	}
	if m.AutomRewardDominant {
		sb.WriteString(bad.Sprint("Automatic rewards dominate this session") + "\n")
	}

	for _, side := range []struct {
		name  string
		stats models.LatencyStats
	}{{"left", m.LatencyLeft}, {"right", m.LatencyRight}} {
		if side.stats.N == 0 {
			continue
		}
		fmt.Fprintf(&sb, "%s n=%d mean=%s std=%s\n", label.Sprintf("Latency %s:", side.name),
			side.stats.N, optionalSeconds(side.stats.Mean), optionalSeconds(side.stats.StdDev))
	}

	if m.Licks != nil {
		fmt.Fprintf(&sb, "%s %d (left %d, right %d)\n", label.Sprint("Licks:"), m.Licks.Total, m.Licks.Left, m.Licks.Right)
	}

	for _, b := range r.Blocks {
		fmt.Fprintf(&sb, "%s %d run(s), %d correct, %d incorrect, %d omissions\n",
			label.Sprintf("Block %s:", b.BlockType), len(b.Runs), b.Metrics.Correct(), b.Metrics.Incorrect(), b.Metrics.Omissions)
	}

	return sb.String()
}

func sortedCategories(counts map[models.Category]int) []models.Category {
	order := make(map[models.Category]int, len(models.TwoChoiceCategories))
	for i, c := range models.TwoChoiceCategories {
		order[c] = i
	}
	cats := make([]models.Category, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		oi, iok := order[cats[i]]
		oj, jok := order[cats[j]]
		if iok && jok {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return cats[i] < cats[j]
	})
	return cats
}

func optionalSeconds(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.3fs", *v)
}
