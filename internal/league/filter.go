package league

import "strings"

// Criteria selects the leagues worth watching.
type Criteria struct {
	// PlayLevel is matched case-insensitively.
	PlayLevel string
	// Day is an English weekday name. Empty means every day passes.
	Day string
}

// Matches reports whether l satisfies c.
func (c Criteria) Matches(l League) bool {
	if !strings.EqualFold(l.PlayLevel, strings.TrimSpace(c.PlayLevel)) {
		return false
	}
	day := strings.ToLower(strings.TrimSpace(c.Day))
	return day == "" || l.DayOfWeek == day
}

// Filter returns the leagues matching c, keeping their order.
func Filter(leagues []League, c Criteria) []League {
	out := make([]League, 0, len(leagues))
	for _, l := range leagues {
		if c.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}
