// Package brackets holds the matchup engine: pairing generation, incremental
// insertion of late participants, result recording, standings and the winner
// wheel. Every function takes a snapshot and returns a new one; nothing here
// touches storage or shared state.
package brackets

import (
	"errors"
	"math/rand"
)

const (
	// MatchesPerParticipant is the number of distinct opponents each
	// participant should face.
	MatchesPerParticipant = 3
	// MinParticipants is the smallest field for which matchups are generated.
	MinParticipants = MatchesPerParticipant + 1
)

var (
	ErrInsufficientParticipants = errors.New("not enough participants to generate matchups")
	ErrDuplicateParticipant     = errors.New("participant is already in the matchups")
	ErrSameParticipant          = errors.New("a participant cannot play against itself")
	ErrInvalidResult            = errors.New("result must be one of win, loss or draw")
	ErrMatchNotFound            = errors.New("no match between these participants")
	ErrNoEntrants               = errors.New("the wheel needs at least one entrant")
	ErrUnknownStrategy          = errors.New("unknown pairing strategy")
)

// RandomSource supplies the engine's randomness. *rand.Rand satisfies it, so
// tests can pass a seeded generator.
type RandomSource interface {
	Intn(n int) int
	Float64() float64
}

// globalSource draws from math/rand's package functions, which are safe for
// concurrent use and self-seeded.
type globalSource struct{}

func (globalSource) Intn(n int) int   { return rand.Intn(n) }
func (globalSource) Float64() float64 { return rand.Float64() }

type Option func(*Engine)

func WithRandomSource(src RandomSource) Option {
	return func(e *Engine) {
		if src != nil {
			e.rng = src
		}
	}
}

func WithStrategy(s Strategy) Option {
	return func(e *Engine) {
		if st, ok := strategies[s]; ok {
			e.strategy = st
		}
	}
}

// Engine generates and extends matchups. It is safe for concurrent use as
// long as its RandomSource is.
type Engine struct {
	rng      RandomSource
	strategy PairingStrategy
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rng:      globalSource{},
		strategy: strategies[StrategyCirculant],
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strategy returns the name of the pairing strategy in use.
func (e *Engine) Strategy() Strategy {
	return e.strategy.Name()
}

// permutation returns 0..n-1 in Fisher-Yates shuffled order.
func (e *Engine) permutation(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	shuffleInts(order, e.rng)
	return order
}

func shuffleInts(s []int, rng RandomSource) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
