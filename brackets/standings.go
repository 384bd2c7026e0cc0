package brackets

import (
	"sort"
	"strings"

	"github.com/Dosada05/tournament-matchups/models"
)

// ComputeStandings tallies each participant's record. Match order does not
// matter.
func ComputeStandings(ms models.Matchups) []models.StandingsEntry {
	entries := make([]models.StandingsEntry, len(ms))
	for i, m := range ms {
		e := models.StandingsEntry{Participant: m.Participant, Scheduled: len(m.Matches)}
		for _, match := range m.Matches {
			switch match.Result {
			case models.ResultWin:
				e.Wins++
			case models.ResultLoss:
				e.Losses++
			case models.ResultDraw:
				e.Draws++
			}
			if match.Completed {
				e.Completed++
			}
		}
		entries[i] = e
	}
	return entries
}

// Rank orders entries by wins (desc), losses (asc) and draws (desc). Entries
// level on all three stay tied for tie-break purposes; they are listed by
// name so the order does not depend on the input order.
func Rank(entries []models.StandingsEntry) []models.StandingsEntry {
	ranked := append([]models.StandingsEntry(nil), entries...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Losses != b.Losses {
			return a.Losses < b.Losses
		}
		if a.Draws != b.Draws {
			return a.Draws > b.Draws
		}
		an, bn := strings.ToLower(a.Participant.Name), strings.ToLower(b.Participant.Name)
		if an != bn {
			return an < bn
		}
		return a.Participant.Name < b.Participant.Name
	})
	return ranked
}

// finished reports whether every scheduled match of the entry is played.
// Entries that carry no schedule count need the standard three.
func finished(e models.StandingsEntry) bool {
	target := e.Scheduled
	if target == 0 {
		target = MatchesPerParticipant
	}
	return e.Completed >= target
}

// AllFinished reports whether the tournament is played out.
func AllFinished(entries []models.StandingsEntry) bool {
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if !finished(e) {
			return false
		}
	}
	return true
}

// FindTieGroups groups ranked entries sharing the same wins and losses once
// every match is played. Groups of one are dropped; groups keep rank order.
func FindTieGroups(ranked []models.StandingsEntry) []models.TieGroup {
	groups := make([]models.TieGroup, 0)
	if !AllFinished(ranked) {
		return groups
	}

	type record struct{ wins, losses int }
	index := make(map[record]int)
	for _, e := range ranked {
		key := record{e.Wins, e.Losses}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, models.TieGroup{Wins: e.Wins, Losses: e.Losses})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}

	ties := groups[:0]
	for _, g := range groups {
		if len(g.Entries) > 1 {
			ties = append(ties, g)
		}
	}
	return ties
}
