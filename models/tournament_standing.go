package models

// StandingsEntry is a participant's record derived from the matchups.
type StandingsEntry struct {
	Participant Participant `json:"participant"`
	Wins        int         `json:"wins"`
	Losses      int         `json:"losses"`
	Draws       int         `json:"draws"`
	Completed   int         `json:"completed"`
	Scheduled   int         `json:"scheduled"`
}

// TieGroup holds entries that finished level on wins and losses.
type TieGroup struct {
	Wins    int              `json:"wins"`
	Losses  int              `json:"losses"`
	Entries []StandingsEntry `json:"entries"`
}
