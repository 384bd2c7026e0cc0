package brackets

import (
	"fmt"
	"strings"
)

type Strategy string

const (
	StrategyCirculant Strategy = "circulant"
	StrategyGreedy    Strategy = "greedy"
)

// Pair links two participants by their index in the input slice.
type Pair struct {
	A, B int
}

// PairingStrategy decides who plays whom. order is a shuffled permutation of
// participant indices; the returned pairs are in creation order and must
// never repeat a pairing or pair an index with itself.
type PairingStrategy interface {
	Pair(order []int, rng RandomSource) []Pair
	Name() Strategy
}

var strategies = map[Strategy]PairingStrategy{
	StrategyCirculant: circulantStrategy{},
	StrategyGreedy:    greedyStrategy{},
}

// ParseStrategy accepts a strategy name in any case.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := strategies[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
	return st, nil
}
