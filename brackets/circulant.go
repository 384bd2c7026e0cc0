package brackets

// circulantStrategy lays the participants on a ring and joins every vertex to
// both ring neighbours and to the vertex directly across. For an even count
// m >= 4 that is a simple 3-regular graph (K4 when m = 4).
//
// An odd count cannot be 3-regular, so the last participant of the order is
// held back, the ring is built on the rest, and the ring edge between the
// first two vertices is swapped for two edges to the held-back participant.
// Everyone keeps three opponents except the held-back one, who gets two.
type circulantStrategy struct{}

func (circulantStrategy) Name() Strategy { return StrategyCirculant }

func (circulantStrategy) Pair(order []int, _ RandomSource) []Pair {
	n := len(order)
	if n < MinParticipants {
		return nil
	}

	ring := order
	spare := -1
	if n%2 == 1 {
		ring = order[:n-1]
		spare = order[n-1]
	}
	m := len(ring)

	pairs := make([]Pair, 0, (n*MatchesPerParticipant+1)/2)
	for i := 0; i < m; i++ {
		if spare >= 0 && i == 0 {
			continue
		}
		pairs = append(pairs, Pair{A: ring[i], B: ring[(i+1)%m]})
	}
	for i := 0; i < m/2; i++ {
		pairs = append(pairs, Pair{A: ring[i], B: ring[i+m/2]})
	}
	if spare >= 0 {
		pairs = append(pairs, Pair{A: spare, B: ring[0]}, Pair{A: spare, B: ring[1]})
	}
	return pairs
}
