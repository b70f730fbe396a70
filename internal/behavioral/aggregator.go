package behavioral

import (
	"sort"

	"github.com/harrison/trialscope/internal/models"
)

// Aggregate orders sessions by date ascending and assigns zero-based day indices.
// Sessions on the same date keep timestamp order, then input order.
// The input slice is not reordered.
func Aggregate(sessions []models.SessionMetrics) *CrossDaySummary {
	sorted := make([]models.SessionMetrics, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	summary := &CrossDaySummary{Entries: make([]CrossDayEntry, len(sorted))}
	for i, s := range sorted {
		summary.Entries[i] = CrossDayEntry{DayIndex: i, SessionMetrics: s}
	}
	summary.Animal = commonAnimal(sorted)
	return summary
}

// commonAnimal returns the animal shared by every session, or "" when they differ
func commonAnimal(sessions []models.SessionMetrics) string {
	if len(sessions) == 0 {
		return ""
	}
	animal := sessions[0].Animal
	for _, s := range sessions[1:] {
		if s.Animal != animal {
			return ""
		}
	}
	return animal
}

// Stimuli returns the tone names present in any session, in first-seen order
// across days and in configured order within a day
func (s *CrossDaySummary) Stimuli(order []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range s.Entries {
		var names []string
		for tone := range e.Stimuli {
			names = append(names, tone)
		}
		sort.Slice(names, func(i, j int) bool {
			return stimulusLess(order, names[i], names[j])
		})
		for _, tone := range names {
			if !seen[tone] {
				seen[tone] = true
				out = append(out, tone)
			}
		}
	}
	return out
}

// stimulusLess reports whether a sorts before b given a preferred order;
// names outside the order sort after it, alphabetically
func stimulusLess(order []string, a, b string) bool {
	ia, ib := indexOf(order, a), indexOf(order, b)
	switch {
	case ia >= 0 && ib >= 0:
		return ia < ib
	case ia >= 0:
		return true
	case ib >= 0:
		return false
	default:
		return a < b
	}
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
