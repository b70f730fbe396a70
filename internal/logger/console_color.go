package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/trialscope/internal/models"
)

// d′ thresholds for coloring: below dPrimeLow is chance-like, above dPrimeHigh is learned
const (
	dPrimeLow  = 0.5
	dPrimeHigh = 1.5
)

// colorScheme defines consistent colors for session metrics.
// Green: learned/positive metrics
// Red: chance-level metrics
// Yellow: intermediate metrics
// Cyan: labels
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
	value   *color.Color
}

func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		value:   color.New(color.FgWhite),
	}
}

// formatColorizedMetric formats "label: value" with a cyan label.
func formatColorizedMetric(label string, value interface{}, scheme *colorScheme) string {
	return fmt.Sprintf("%s: %s", scheme.label.Sprint(label), scheme.value.Sprintf("%v", value))
}

// formatSessionMetrics renders the headline numbers of a session.
// Format: "d′: 1.35, performance: 72.5%, omissions: 3"
// Without color the plain text is returned.
func formatSessionMetrics(m *models.SessionMetrics, useColor bool) string {
	scheme := newColorScheme()
	if !useColor {
		return plainSessionMetrics(m)
	}

	var parts []string
	d := fmt.Sprintf("%.2f", m.DPrime)
	switch {
	case m.DPrime >= dPrimeHigh:
		parts = append(parts, fmt.Sprintf("%s: %s", scheme.label.Sprint("d′"), scheme.success.Sprint(d)))
	case m.DPrime < dPrimeLow:
		parts = append(parts, fmt.Sprintf("%s: %s", scheme.label.Sprint("d′"), scheme.fail.Sprint(d)))
	default:
		parts = append(parts, fmt.Sprintf("%s: %s", scheme.label.Sprint("d′"), scheme.warn.Sprint(d)))
	}
	if m.Performance != nil {
		parts = append(parts, formatColorizedMetric("performance", fmt.Sprintf("%.1f%%", *m.Performance), scheme))
	}
	if m.Omissions > 0 {
		parts = append(parts, fmt.Sprintf("%s: %s", scheme.label.Sprint("omissions"), scheme.warn.Sprint(m.Omissions)))
	}
	if m.Licks != nil {
		parts = append(parts, formatColorizedMetric("licks", m.Licks.Total, scheme))
	}
	return strings.Join(parts, ", ")
}

func plainSessionMetrics(m *models.SessionMetrics) string {
	parts := []string{fmt.Sprintf("d′: %.2f", m.DPrime)}
	if m.Performance != nil {
		parts = append(parts, fmt.Sprintf("performance: %.1f%%", *m.Performance))
	}
	if m.Omissions > 0 {
		parts = append(parts, fmt.Sprintf("omissions: %d", m.Omissions))
	}
	if m.Licks != nil {
		parts = append(parts, fmt.Sprintf("licks: %d", m.Licks.Total))
	}
	return strings.Join(parts, ", ")
}
