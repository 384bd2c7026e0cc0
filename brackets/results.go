package brackets

import (
	"fmt"

	"github.com/Dosada05/tournament-matchups/models"
)

// RecordResult completes the match between a and b on both sides: a's side
// gets resultForA, b's side the opposite, and both carry score. The input is
// never modified; on error nothing is returned.
func RecordResult(ms models.Matchups, a, b, score string, resultForA models.MatchResult) (models.Matchups, error) {
	if models.SameName(a, b) {
		return nil, fmt.Errorf("%w: %q", ErrSameParticipant, a)
	}
	if !resultForA.Valid() {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidResult, resultForA)
	}

	ai, bi := ms.Find(a), ms.Find(b)
	if ai < 0 || bi < 0 {
		return nil, fmt.Errorf("%w: %q vs %q", ErrMatchNotFound, a, b)
	}
	am, bm := ms[ai].MatchWith(b), ms[bi].MatchWith(a)
	if am < 0 || bm < 0 {
		return nil, fmt.Errorf("%w: %q vs %q", ErrMatchNotFound, a, b)
	}

	out := ms.Clone()
	complete(&out[ai].Matches[am], score, resultForA)
	complete(&out[bi].Matches[bm], score, resultForA.Opposite())
	return out, nil
}

func complete(m *models.Match, score string, result models.MatchResult) {
	m.Completed = true
	m.Score = score
	m.Result = result
}

// ClearResults returns a copy with every match back to pending. The pairings
// themselves are kept.
func ClearResults(ms models.Matchups) models.Matchups {
	out := ms.Clone()
	for i := range out {
		for j := range out[i].Matches {
			out[i].Matches[j] = models.Match{Opponent: out[i].Matches[j].Opponent}
		}
	}
	return out
}
