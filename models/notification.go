package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationAnnouncement NotificationType = "announcement"
	NotificationReminder     NotificationType = "reminder"
	NotificationMatchups     NotificationType = "matchups"
)

// Notification is an in-app message shown to a registered user.
type Notification struct {
	ID           uuid.UUID        `json:"id"`
	TournamentID uuid.UUID        `json:"tournament_id"`
	UserID       uuid.UUID        `json:"user_id"`
	Type         NotificationType `json:"notification_type"`
	Message      string           `json:"message"`
	Read         bool             `json:"read"`
	CreatedAt    time.Time        `json:"created_at"`
}
