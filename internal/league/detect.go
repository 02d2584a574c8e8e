package league

import (
	"fmt"
	"sort"
	"strings"
)

// Weekdays lists weekday names in announcement order.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// WeekdayIndex returns the position of day in Weekdays, or len(Weekdays) for
// anything unrecognized so it sorts last.
func WeekdayIndex(day string) int {
	day = strings.ToLower(day)
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return len(Weekdays)
}

// Detect returns the leagues in current worth announcing given the previous
// snapshot. A league qualifies when its name was not in previous, or when the
// stored copy still carries openStatus. The second rule re-announces a league
// on every poll while it stays open.
//
// Results are ordered Monday through Sunday, keeping API order within a day.
// Repeated names collapse to the position of the first and the value of the
// last.
func Detect(current, previous []League, openStatus string) []League {
	old := make(map[string]League, len(previous))
	for _, l := range previous {
		old[l.Name] = l
	}

	pos := make(map[string]int, len(current))
	latest := make([]League, 0, len(current))
	for _, l := range current {
		if i, ok := pos[l.Name]; ok {
			latest[i] = l
			continue
		}
		pos[l.Name] = len(latest)
		latest = append(latest, l)
	}

	out := make([]League, 0, len(latest))
	for _, l := range latest {
		prev, seen := old[l.Name]
		if !seen || prev.Status == openStatus {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return WeekdayIndex(out[i].DayOfWeek) < WeekdayIndex(out[j].DayOfWeek)
	})
	return out
}

// FormatLine renders one announcement line.
func FormatLine(l League) string {
	return fmt.Sprintf("(Spots left: %d): %s signup: (%s)", l.OpenSlots, l.Name, l.SignupURL)
}
