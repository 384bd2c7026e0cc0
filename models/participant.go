package models

import (
	"database/sql/driver"
	"strings"
)

// Participant is an entrant identified by its display name within a tournament.
type Participant struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	Email string `json:"email,omitempty"`
}

// SameName reports whether two display names collide under the tournament's
// uniqueness policy: surrounding whitespace is ignored and case does not matter.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

type Participants []Participant

// IndexOf returns the position of the participant with the given name, or -1.
func (ps Participants) IndexOf(name string) int {
	for i, p := range ps {
		if SameName(p.Name, name) {
			return i
		}
	}
	return -1
}

func (ps Participants) Value() (driver.Value, error) { return jsonValue(ps) }

func (ps *Participants) Scan(src interface{}) error { return jsonScan(src, ps) }
