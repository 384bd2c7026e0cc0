package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

const (
	SlotDateLayout = "2006-01-02"
	SlotTimeLayout = "15:04"
)

// TimeSlot is a window on a given day when a player can play. Times are
// wall-clock in the tournament's local time.
type TimeSlot struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type TimeSlots []TimeSlot

func (ts TimeSlots) Value() (driver.Value, error) { return jsonValue(ts) }

func (ts *TimeSlots) Scan(src interface{}) error { return jsonScan(src, ts) }

// PlayerAvailability is one user's availability for one tournament.
type PlayerAvailability struct {
	ID             uuid.UUID `json:"id"`
	TournamentID   uuid.UUID `json:"tournament_id"`
	UserID         uuid.UUID `json:"user_id"`
	AvailableTimes TimeSlots `json:"available_times"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
