// Package league defines the league records polled from the signup API and the
// pure transformations applied to them: normalization, filtering, and change
// detection against the previous poll.
package league

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID holds a league or sport identifier as text. The API is not consistent
// about numbers versus strings, so both decode to the same ID: 12 and "12"
// are equal. The JSON kind is not kept; see MarshalJSON.
type ID string

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("id is null")
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes canonical integers as JSON numbers and everything else
// as strings. An ID the API sent as "12" is therefore persisted as 12. Nothing
// keys on the JSON kind: detection joins on name and signup URLs use the text.
func (id ID) MarshalJSON() ([]byte, error) {
	s := string(id)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return []byte(s), nil
	}
	out, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode id: %w", err)
	}
	return out, nil
}

// Sport is the nested sport object attached to each league.
type Sport struct {
	ID ID `json:"id"`
}

// Record is a league row as returned by the API. Pointer fields let the
// normalizer tell a missing key from a zero value.
type Record struct {
	ID        *ID         `json:"id"`
	Name      *string     `json:"name"`
	StartDate *string     `json:"start_date"`
	Teams     *int        `json:"teams"`
	TeamSize  *int        `json:"team_size"`
	PlayLevel *string     `json:"play_level"`
	Status    *string     `json:"status"`
	Sport     *sportField `json:"sport"`
}

type sportField struct {
	ID *ID `json:"id"`
}

// Response is the envelope of the all-leagues endpoint.
type Response struct {
	Data *struct {
		Rows []Record `json:"rows"`
	} `json:"data"`
}

// League is an augmented league record. It is what gets filtered, announced,
// and persisted between polls.
type League struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	Teams     int    `json:"teams"`
	TeamSize  int    `json:"team_size"`
	PlayLevel string `json:"play_level"`
	Status    string `json:"status"`
	Sport     Sport  `json:"sport"`
	DayOfWeek string `json:"day_of_week"`
	IsFull    bool   `json:"is_full"`
	OpenSlots int    `json:"open_slots"`
	SignupURL string `json:"signup_url"`
}
