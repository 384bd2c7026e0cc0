package brackets

import (
	"fmt"

	"github.com/Dosada05/tournament-matchups/models"
)

// Shortfall names a participant left with fewer than MatchesPerParticipant
// opponents.
type Shortfall struct {
	Name    string `json:"name"`
	Matches int    `json:"matches"`
}

// Assignment is the outcome of a generation or insertion. Shortfall is empty
// when every participant reached its quota.
type Assignment struct {
	Matchups  models.Matchups `json:"matchups"`
	Strategy  Strategy        `json:"strategy"`
	Shortfall []Shortfall     `json:"shortfall"`
}

// Complete reports whether every participant got a full set of opponents.
func (a *Assignment) Complete() bool {
	return len(a.Shortfall) == 0
}

// Generate pairs every participant with MatchesPerParticipant distinct
// opponents as far as the participant count allows. Names are assumed to be
// unique; callers validate that before registering a participant.
func (e *Engine) Generate(participants []models.Participant) (*Assignment, error) {
	if len(participants) < MinParticipants {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientParticipants, MinParticipants, len(participants))
	}

	matchups := make(models.Matchups, len(participants))
	for i, p := range participants {
		matchups[i] = models.Matchup{Participant: p, Matches: make([]models.Match, 0, MatchesPerParticipant)}
	}

	for _, pair := range e.strategy.Pair(e.permutation(len(participants)), e.rng) {
		link(matchups, pair.A, pair.B)
	}

	return &Assignment{
		Matchups:  matchups,
		Strategy:  e.strategy.Name(),
		Shortfall: Shortfalls(matchups),
	}, nil
}

// AddParticipant inserts a late entrant into existing matchups. Opponents are
// drawn first from participants still under quota, then from a random sample
// of everyone else; nobody is picked twice. Existing matches are left as
// they are and the input is not modified.
func (e *Engine) AddParticipant(current models.Matchups, newcomer models.Participant) (*Assignment, error) {
	if current.Find(newcomer.Name) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateParticipant, newcomer.Name)
	}

	out := current.Clone()
	var open, full []int
	for i := range out {
		if len(out[i].Matches) < MatchesPerParticipant {
			open = append(open, i)
		} else {
			full = append(full, i)
		}
	}
	shuffleInts(open, e.rng)
	shuffleInts(full, e.rng)

	opponents := make([]int, 0, MatchesPerParticipant)
	opponents = append(opponents, open[:min(MatchesPerParticipant, len(open))]...)
	if missing := MatchesPerParticipant - len(opponents); missing > 0 {
		opponents = append(opponents, full[:min(missing, len(full))]...)
	}

	out = append(out, models.Matchup{Participant: newcomer, Matches: make([]models.Match, 0, MatchesPerParticipant)})
	idx := len(out) - 1
	for _, o := range opponents {
		link(out, idx, o)
	}

	return &Assignment{
		Matchups:  out,
		Strategy:  e.strategy.Name(),
		Shortfall: Shortfalls(out),
	}, nil
}

// link appends a pending match to both sides.
func link(ms models.Matchups, a, b int) {
	ms[a].Matches = append(ms[a].Matches, models.Match{Opponent: ms[b].Participant})
	ms[b].Matches = append(ms[b].Matches, models.Match{Opponent: ms[a].Participant})
}

// Shortfalls lists participants below MatchesPerParticipant, in matchup order.
func Shortfalls(ms models.Matchups) []Shortfall {
	out := make([]Shortfall, 0)
	for _, m := range ms {
		if len(m.Matches) < MatchesPerParticipant {
			out = append(out, Shortfall{Name: m.Participant.Name, Matches: len(m.Matches)})
		}
	}
	return out
}
