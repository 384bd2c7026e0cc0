package models

import (
	"time"

	"github.com/google/uuid"
)

// TournamentStatus mirrors the status column of the tournaments table.
type TournamentStatus string

const (
	StatusRegistration TournamentStatus = "registration"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
	StatusCanceled     TournamentStatus = "canceled"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case StatusRegistration, StatusActive, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Reminder kinds recorded in Tournament.RemindersSent.
const (
	ReminderDayBefore  = "24-hour"
	ReminderHourBefore = "1-hour"
)

// Tournament is the persisted tournament record. Participants and Matchups
// are stored as JSONB documents and replaced as a whole on every write.
type Tournament struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	CreatorID       *uuid.UUID       `json:"creator_id,omitempty"`
	Status          TournamentStatus `json:"status"`
	MaxParticipants int              `json:"max_participants"`
	StartDate       *time.Time       `json:"start_date,omitempty"`
	Participants    Participants     `json:"participants"`
	Matchups        Matchups         `json:"matchups"`
	RegisteredUsers []string         `json:"registered_users,omitempty"`
	RemindersSent   []string         `json:"reminders_sent,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// HasMatchups reports whether matchups have been generated.
func (t *Tournament) HasMatchups() bool {
	return len(t.Matchups) > 0
}

// IsOrganizer reports whether userID created the tournament.
func (t *Tournament) IsOrganizer(userID uuid.UUID) bool {
	return t.CreatorID != nil && *t.CreatorID == userID
}

func (t *Tournament) ReminderSent(kind string) bool {
	for _, k := range t.RemindersSent {
		if k == kind {
			return true
		}
	}
	return false
}
