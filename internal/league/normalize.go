package league

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout of start_date in API responses.
const DateLayout = "2006-01-02"

var (
	// ErrMissingField reports a league row without one of the expected keys.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidDate reports a start_date that is not a calendar date.
	ErrInvalidDate = errors.New("invalid start_date")
)

// DayOfWeek returns the lower-case English weekday of a YYYY-MM-DD date.
func DayOfWeek(date string) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidDate, date, err)
	}
	return strings.ToLower(t.Weekday().String()), nil
}

// SignupURL builds the team registration link for a league.
func SignupURL(base string, leagueID, sportID ID) string {
	return fmt.Sprintf("%s/league/team-registration/%s/%s", strings.TrimRight(base, "/"), leagueID, sportID)
}

// Refine validates a raw record and derives the augmented fields.
func Refine(rec Record, signupBase string) (League, error) {
	name := "<unnamed>"
	if rec.Name != nil {
		name = *rec.Name
	}
	missing := func(field string) error {
		return fmt.Errorf("league %q: %w %q", name, ErrMissingField, field)
	}
	switch {
	case rec.Name == nil:
		return League{}, missing("name")
	case rec.ID == nil:
		return League{}, missing("id")
	case rec.StartDate == nil:
		return League{}, missing("start_date")
	case rec.Teams == nil:
		return League{}, missing("teams")
	case rec.TeamSize == nil:
		return League{}, missing("team_size")
	case rec.PlayLevel == nil:
		return League{}, missing("play_level")
	case rec.Status == nil:
		return League{}, missing("status")
	case rec.Sport == nil || rec.Sport.ID == nil:
		return League{}, missing("sport.id")
	}

	day, err := DayOfWeek(*rec.StartDate)
	if err != nil {
		return League{}, fmt.Errorf("league %q: %w", name, err)
	}

	teams, size := *rec.Teams, *rec.TeamSize
	return League{
		ID:        *rec.ID,
		Name:      name,
		StartDate: *rec.StartDate,
		Teams:     teams,
		TeamSize:  size,
		PlayLevel: strings.ToLower(*rec.PlayLevel),
		Status:    *rec.Status,
		Sport:     Sport{ID: *rec.Sport.ID},
		DayOfWeek: day,
		IsFull:    teams >= size,
		OpenSlots: size - teams,
		SignupURL: SignupURL(signupBase, *rec.ID, *rec.Sport.ID),
	}, nil
}

// Normalize decodes an all-leagues response body and refines every row in API
// order. Any bad row fails the whole batch.
func Normalize(body []byte, signupBase string) ([]League, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode leagues response: %w", err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("leagues response: %w %q", ErrMissingField, "data")
	}
	out := make([]League, 0, len(resp.Data.Rows))
	for _, rec := range resp.Data.Rows {
		l, err := Refine(rec, signupBase)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
