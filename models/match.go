package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// MatchResult is the outcome of a match from one side's point of view.
type MatchResult string

const (
	ResultWin  MatchResult = "win"
	ResultLoss MatchResult = "loss"
	ResultDraw MatchResult = "draw"
)

func (r MatchResult) Valid() bool {
	switch r {
	case ResultWin, ResultLoss, ResultDraw:
		return true
	}
	return false
}

// Opposite returns the outcome seen by the other side of the same match.
func (r MatchResult) Opposite() MatchResult {
	switch r {
	case ResultWin:
		return ResultLoss
	case ResultLoss:
		return ResultWin
	}
	return r
}

// Match is one side of a pairing. Every Match has a mirror in the opponent's
// list carrying the same completion state and score and the opposite result.
type Match struct {
	Opponent  Participant `json:"opponent"`
	Completed bool        `json:"completed"`
	Score     string      `json:"score,omitempty"`
	Result    MatchResult `json:"result,omitempty"`
}

// Matchup lists a participant's matches in the order they were created.
type Matchup struct {
	Participant Participant `json:"participant"`
	Matches     []Match     `json:"matches"`
}

// Matchups is the full assignment of a tournament. It is stored as a single
// JSONB document, so the JSON shape above is the persistence contract.
type Matchups []Matchup

// Find returns the index of the matchup belonging to name, or -1.
func (ms Matchups) Find(name string) int {
	for i := range ms {
		if SameName(ms[i].Participant.Name, name) {
			return i
		}
	}
	return -1
}

// MatchWith returns the index of the match against opponent, or -1.
func (m *Matchup) MatchWith(opponent string) int {
	for i := range m.Matches {
		if SameName(m.Matches[i].Opponent.Name, opponent) {
			return i
		}
	}
	return -1
}

// Participants lists the participants in assignment order.
func (ms Matchups) Participants() []Participant {
	out := make([]Participant, len(ms))
	for i := range ms {
		out[i] = ms[i].Participant
	}
	return out
}

// Clone returns a deep copy so callers can mutate it without touching ms.
func (ms Matchups) Clone() Matchups {
	if ms == nil {
		return nil
	}
	out := make(Matchups, len(ms))
	for i := range ms {
		out[i].Participant = ms[i].Participant
		out[i].Matches = append([]Match(nil), ms[i].Matches...)
	}
	return out
}

func (ms Matchups) Value() (driver.Value, error) { return jsonValue(ms) }

func (ms *Matchups) Scan(src interface{}) error { return jsonScan(src, ms) }

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	// Nil slices marshal to null; the columns are NOT NULL with a '[]' default.
	if string(b) == "null" {
		return []byte("[]"), nil
	}
	return b, nil
}

func jsonScan(src interface{}, dst interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for JSON column", src)
	}
	if len(data) == 0 {
		return errors.New("empty JSON column")
	}
	return json.Unmarshal(data, dst)
}
