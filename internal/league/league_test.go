package league

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signupBase = "https://users.example.com"

func ptr[T any](v T) *T { return &v }

func validRecord(name, date string, teams, size int, level string) Record {
	id := ID("101")
	sportID := ID("47")
	return Record{
		ID:        &id,
		Name:      ptr(name),
		StartDate: ptr(date),
		Teams:     ptr(teams),
		TeamSize:  ptr(size),
		PlayLevel: ptr(level),
		Status:    ptr("sign_up"),
		Sport:     &sportField{ID: &sportID},
	}
}

func TestDayOfWeekMatchesCalendar(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 400; i++ {
		d := start.AddDate(0, 0, i)
		got, err := DayOfWeek(d.Format(DateLayout))
		require.NoError(t, err)
		want := Weekdays[(int(d.Weekday())+6)%7]
		require.Equal(t, want, got, "date %s", d.Format(DateLayout))
	}
}

func TestDayOfWeekRejectsMalformedDates(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "2024-13-01", "01-06-2025", "2025/01/06", "tomorrow"} {
		_, err := DayOfWeek(raw)
		require.ErrorIs(t, err, ErrInvalidDate, "input %q", raw)
	}
}

func TestRefineDerivesFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		teams     int
		size      int
		wantSlots int
		wantFull  bool
	}{
		{name: "open", teams: 3, size: 6, wantSlots: 3, wantFull: false},
		{name: "exactly full", teams: 6, size: 6, wantSlots: 0, wantFull: true},
		{name: "oversubscribed", teams: 8, size: 6, wantSlots: -2, wantFull: true},
		{name: "empty", teams: 0, size: 10, wantSlots: 10, wantFull: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l, err := Refine(validRecord("Mon Coed", "2025-01-06", tt.teams, tt.size, "Recreational"), signupBase)
			require.NoError(t, err)
			assert.Equal(t, tt.size-tt.teams, l.OpenSlots)
			assert.Equal(t, tt.wantSlots, l.OpenSlots)
			assert.Equal(t, tt.wantFull, l.IsFull)
			assert.Equal(t, "monday", l.DayOfWeek)
			assert.Equal(t, "recreational", l.PlayLevel)
			assert.Equal(t, "https://users.example.com/league/team-registration/101/47", l.SignupURL)
		})
	}
}

func TestRefineMissingFields(t *testing.T) {
	t.Parallel()

	cases := map[string]func(r *Record){
		"name":       func(r *Record) { r.Name = nil },
		"id":         func(r *Record) { r.ID = nil },
		"start_date": func(r *Record) { r.StartDate = nil },
		"teams":      func(r *Record) { r.Teams = nil },
		"team_size":  func(r *Record) { r.TeamSize = nil },
		"play_level": func(r *Record) { r.PlayLevel = nil },
		"status":     func(r *Record) { r.Status = nil },
		"sport.id":   func(r *Record) { r.Sport = nil },
	}
	for field, mutate := range cases {
		field, mutate := field, mutate
		t.Run(field, func(t *testing.T) {
			t.Parallel()
			rec := validRecord("League", "2025-01-06", 1, 2, "Recreational")
			mutate(&rec)
			_, err := Refine(rec, signupBase)
			require.ErrorIs(t, err, ErrMissingField)
			require.Contains(t, err.Error(), fmt.Sprintf("%q", field))
		})
	}
}

func TestNormalizeKeepsOrderAndFailsWholeBatch(t *testing.T) {
	t.Parallel()

	body := []byte(`{"data":{"rows":[
		{"id":1,"name":"B","start_date":"2025-01-10","teams":1,"team_size":4,"play_level":"Competitive","status":"sign_up","sport":{"id":47}},
		{"id":"2","name":"A","start_date":"2025-01-06","teams":2,"team_size":4,"play_level":"Recreational","status":"sign_up","sport":{"id":"47"}}
	]}}`)
	leagues, err := Normalize(body, signupBase)
	require.NoError(t, err)
	require.Len(t, leagues, 2)
	assert.Equal(t, "B", leagues[0].Name)
	assert.Equal(t, "friday", leagues[0].DayOfWeek)
	assert.Equal(t, ID("1"), leagues[0].ID)
	assert.Equal(t, "A", leagues[1].Name)
	assert.Equal(t, ID("2"), leagues[1].ID)

	bad := []byte(`{"data":{"rows":[
		{"id":1,"name":"ok","start_date":"2025-01-10","teams":1,"team_size":4,"play_level":"x","status":"s","sport":{"id":47}},
		{"id":2,"name":"bad","start_date":"01/10/2025","teams":1,"team_size":4,"play_level":"x","status":"s","sport":{"id":47}}
	]}}`)
	_, err = Normalize(bad, signupBase)
	require.ErrorIs(t, err, ErrInvalidDate)

	_, err = Normalize([]byte(`{"rows":[]}`), signupBase)
	require.ErrorIs(t, err, ErrMissingField)

	_, err = Normalize([]byte(`not json`), signupBase)
	require.Error(t, err)
}

func TestIDRoundTripsNumbersAndStrings(t *testing.T) {
	t.Parallel()

	in := []League{{ID: "12"}, {ID: "abc-7"}, {ID: "007"}}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	require.Contains(t, string(data), `"id":12`)
	require.Contains(t, string(data), `"id":"abc-7"`)
	require.Contains(t, string(data), `"id":"007"`)

	var out []League
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, in, out)
}

func TestFilterPlayLevelCaseInsensitive(t *testing.T) {
	t.Parallel()

	leagues := []League{
		{Name: "a", PlayLevel: "recreational", DayOfWeek: "monday"},
		{Name: "b", PlayLevel: "competitive", DayOfWeek: "monday"},
		{Name: "c", PlayLevel: "recreational", DayOfWeek: "friday"},
		{Name: "d", PlayLevel: "recreational plus", DayOfWeek: "friday"},
	}

	all := Filter(leagues, Criteria{PlayLevel: "RECREATIONAL"})
	require.Len(t, all, 2)
	for _, l := range all {
		assert.True(t, l.PlayLevel == "recreational")
	}

	friday := Filter(leagues, Criteria{PlayLevel: "Recreational", Day: "Friday"})
	require.Len(t, friday, 1)
	assert.Equal(t, "c", friday[0].Name)

	none := Filter(leagues, Criteria{PlayLevel: "Recreational", Day: "sunday"})
	assert.Empty(t, none)
}

func TestDetectReannouncesOpenLeagues(t *testing.T) {
	t.Parallel()

	a := League{Name: "A", Status: "sign_up", DayOfWeek: "friday"}
	b := League{Name: "B", Status: "sign_up", DayOfWeek: "friday"}

	got := Detect([]League{a, b}, []League{a}, "sign_up")
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "B", got[1].Name)
}

func TestDetectSkipsStoredClosedLeagues(t *testing.T) {
	t.Parallel()

	stored := League{Name: "A", Status: "closed", DayOfWeek: "friday"}
	current := League{Name: "A", Status: "sign_up", DayOfWeek: "friday"}

	got := Detect([]League{current}, []League{stored}, "sign_up")
	assert.Empty(t, got)
}

func TestDetectOrdersByCanonicalWeekday(t *testing.T) {
	t.Parallel()

	current := []League{
		{Name: "sun", DayOfWeek: "sunday"},
		{Name: "wed-1", DayOfWeek: "wednesday"},
		{Name: "mon", DayOfWeek: "monday"},
		{Name: "wed-2", DayOfWeek: "wednesday"},
		{Name: "sat", DayOfWeek: "saturday"},
	}
	got := Detect(current, nil, "sign_up")
	names := make([]string, 0, len(got))
	for _, l := range got {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"mon", "wed-1", "wed-2", "sat", "sun"}, names)
}

func TestDetectCollapsesDuplicateNames(t *testing.T) {
	t.Parallel()

	current := []League{
		{Name: "dup", OpenSlots: 1, DayOfWeek: "friday"},
		{Name: "other", DayOfWeek: "friday"},
		{Name: "dup", OpenSlots: 5, DayOfWeek: "friday"},
	}
	got := Detect(current, nil, "sign_up")
	require.Len(t, got, 2)
	assert.Equal(t, "dup", got[0].Name)
	assert.Equal(t, 5, got[0].OpenSlots)
	assert.Equal(t, "other", got[1].Name)
}

func TestFormatLine(t *testing.T) {
	t.Parallel()

	l := League{Name: "Friday Coed", OpenSlots: -1, SignupURL: "https://x/league/team-registration/1/47"}
	assert.Equal(t, "(Spots left: -1): Friday Coed signup: (https://x/league/team-registration/1/47)", FormatLine(l))
}

func TestSentinelsAreDistinct(t *testing.T) {
	t.Parallel()
	require.False(t, errors.Is(ErrMissingField, ErrInvalidDate))
}

func TestStringIDsPersistAsCanonicalNumbers(t *testing.T) {
	t.Parallel()

	body := []byte(`{"data":{"rows":[
		{"id":"12","name":"A","start_date":"2025-01-06","teams":1,"team_size":4,"play_level":"x","status":"sign_up","sport":{"id":"47"}}
	]}}`)
	leagues, err := Normalize(body, signupBase)
	require.NoError(t, err)
	require.Len(t, leagues, 1)

	data, err := json.Marshal(leagues)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":12`)
	assert.Contains(t, string(data), `"sport":{"id":47}`)

	var back []League
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, leagues, back)
	assert.Equal(t, "https://users.example.com/league/team-registration/12/47", back[0].SignupURL)
}
