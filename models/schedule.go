package models

import (
	"time"

	"github.com/google/uuid"
)

type Court struct {
	ID           uuid.UUID `json:"id"`
	TournamentID uuid.UUID `json:"tournament_id"`
	Name         string    `json:"name"`
	Location     *string   `json:"location,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type ScheduledMatchStatus string

const (
	ScheduledStatusScheduled ScheduledMatchStatus = "scheduled"
	ScheduledStatusCompleted ScheduledMatchStatus = "completed"
	ScheduledStatusCanceled  ScheduledMatchStatus = "canceled"
)

// ScheduledMatch places one pairing of the matchups on a court and time slot.
type ScheduledMatch struct {
	ID               uuid.UUID            `json:"id"`
	TournamentID     uuid.UUID            `json:"tournament_id"`
	MatchNumber      int                  `json:"match_number"`
	Participant1Name string               `json:"participant1_name"`
	Participant2Name string               `json:"participant2_name"`
	CourtID          *uuid.UUID           `json:"court_id,omitempty"`
	ScheduledTime    *time.Time           `json:"scheduled_time,omitempty"`
	DurationMinutes  *int                 `json:"duration_minutes,omitempty"`
	Status           ScheduledMatchStatus `json:"status"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}
