package brackets

// greedyStrategy is the bounded-retry forward scan: each participant still
// under quota takes the first later participant that is also under quota and
// not yet met. It gives up after n*10 passes and may leave participants short.
type greedyStrategy struct{}

func (greedyStrategy) Name() Strategy { return StrategyGreedy }

func (greedyStrategy) Pair(order []int, rng RandomSource) []Pair {
	n := len(order)
	counts := make(map[int]int, n)
	seen := make(map[int]map[int]bool, n)
	for _, p := range order {
		seen[p] = make(map[int]bool, MatchesPerParticipant)
	}

	var pairs []Pair
	under := make([]int, 0, n)
	for attempt := 0; attempt < n*10; attempt++ {
		under = under[:0]
		for _, p := range order {
			if counts[p] < MatchesPerParticipant {
				under = append(under, p)
			}
		}
		if len(under) < 2 {
			break
		}
		if attempt > 0 {
			shuffleInts(under, rng)
		}

		progress := false
		for i, p1 := range under {
			for _, p2 := range under[i+1:] {
				if counts[p1] >= MatchesPerParticipant {
					break
				}
				if counts[p2] >= MatchesPerParticipant || seen[p1][p2] {
					continue
				}
				counts[p1]++
				counts[p2]++
				seen[p1][p2] = true
				seen[p2][p1] = true
				pairs = append(pairs, Pair{A: p1, B: p2})
				progress = true
				break
			}
		}
		// A pass without a single pairing means no eligible pair is left.
		if !progress {
			break
		}
	}
	return pairs
}
