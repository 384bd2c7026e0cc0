package models

type DashboardStats struct {
	UsersTotal             int `json:"users_total"`
	TournamentsTotal       int `json:"tournaments_total"`
	ActiveTournaments      int `json:"active_tournaments"`
	ParticipantsTotal      int `json:"participants_total"`
	RegistrationsOpen      int `json:"registrations_open"`
	ScheduledMatchesTotal  int `json:"scheduled_matches_total"`
	UnreadNotificationsSum int `json:"unread_notifications"`
}
