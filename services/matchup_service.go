package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/tournament-matchups/brackets"
	"github.com/Dosada05/tournament-matchups/metrics"
	"github.com/Dosada05/tournament-matchups/models"
	"github.com/Dosada05/tournament-matchups/realtime"
	"github.com/Dosada05/tournament-matchups/repositories"
	"github.com/google/uuid"
)

type MatchupService interface {
	Generate(ctx context.Context, actor Actor, tournamentID uuid.UUID) (*GenerateResult, error)
	RecordResult(ctx context.Context, actor Actor, tournamentID uuid.UUID, input RecordResultInput) (*models.Tournament, error)
	ClearResults(ctx context.Context, actor Actor, tournamentID uuid.UUID) (*models.Tournament, error)
	Standings(ctx context.Context, tournamentID uuid.UUID) (*Standings, error)
	Spin(ctx context.Context, tournamentID uuid.UUID, tieGroup *int) (*SpinOutcome, error)
	SpinNames(ctx context.Context, names []string) (*SpinOutcome, error)
}

// MaxWheelNames bounds a free-form wheel.
const MaxWheelNames = 500

type GenerateResult struct {
	Tournament *models.Tournament   `json:"tournament"`
	Strategy   brackets.Strategy    `json:"strategy"`
	Shortfall  []brackets.Shortfall `json:"shortfall"`
}

// RecordResultInput reports the outcome from Participant's side.
type RecordResultInput struct {
	Participant string             `json:"participant"`
	Opponent    string             `json:"opponent"`
	Score       string             `json:"score"`
	Result      models.MatchResult `json:"result"`
}

type Standings struct {
	TournamentID uuid.UUID               `json:"tournament_id"`
	Entries      []models.StandingsEntry `json:"entries"`
	TieGroups    []models.TieGroup       `json:"tie_groups"`
	Finished     bool                    `json:"finished"`
	Shortfall    []brackets.Shortfall    `json:"shortfall"`
}

type SpinOutcome struct {
	*brackets.SpinResult
	TieGroup *int `json:"tie_group,omitempty"`
	Entrants int  `json:"entrants"`
}

type matchupService struct {
	repo      repositories.TournamentRepository
	tx        repositories.Transactor
	engine    *brackets.Engine
	publisher realtime.Publisher
	metrics   *metrics.Manager
	logger    *slog.Logger
}

func NewMatchupService(
	repo repositories.TournamentRepository,
	tx repositories.Transactor,
	engine *brackets.Engine,
	publisher realtime.Publisher,
	m *metrics.Manager,
	logger *slog.Logger,
) MatchupService {
	return &matchupService{
		repo:      repo,
		tx:        tx,
		engine:    engine,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Generate replaces any existing matchups, results included.
func (s *matchupService) Generate(ctx context.Context, actor Actor, tournamentID uuid.UUID) (*GenerateResult, error) {
	var assignment *brackets.Assignment
	t, err := mutateTournament(ctx, s.tx, s.repo, tournamentID, func(t *models.Tournament) error {
		if err := authorize(actor, t); err != nil {
			return err
		}
		a, err := s.engine.Generate(t.Participants)
		if err != nil {
			return mapEngineError(err)
		}
		t.Matchups = a.Matchups
		assignment = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordGeneration(string(assignment.Strategy), len(assignment.Shortfall))
	attrs := []any{
		slog.String("tournament_id", t.ID.String()),
		slog.Int("participants", len(t.Participants)),
		slog.String("strategy", string(assignment.Strategy)),
	}
	if assignment.Complete() {
		s.logger.InfoContext(ctx, "matchups generated", attrs...)
	} else {
		s.logger.WarnContext(ctx, "matchups generated with shortfall", append(attrs, slog.Any("shortfall", assignment.Shortfall))...)
	}

	publish(s.publisher, t.ID, realtime.EventMatchupsUpdated, t.Matchups)
	return &GenerateResult{Tournament: t, Strategy: assignment.Strategy, Shortfall: assignment.Shortfall}, nil
}

func (s *matchupService) RecordResult(ctx context.Context, actor Actor, tournamentID uuid.UUID, input RecordResultInput) (*models.Tournament, error) {
	score := strings.TrimSpace(input.Score)
	if score == "" {
		return nil, ErrScoreRequired
	}
	t, err := mutateTournament(ctx, s.tx, s.repo, tournamentID, func(t *models.Tournament) error {
		if err := authorize(actor, t); err != nil {
			return err
		}
		if !t.HasMatchups() {
			return ErrMatchupsNotGenerated
		}
		updated, err := brackets.RecordResult(t.Matchups, input.Participant, input.Opponent, score, input.Result)
		if err != nil {
			return mapEngineError(err)
		}
		t.Matchups = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordResult()
	s.logger.InfoContext(ctx, "match result recorded",
		slog.String("tournament_id", t.ID.String()),
		slog.String("participant", input.Participant),
		slog.String("opponent", input.Opponent),
		slog.String("result", string(input.Result)))
	publish(s.publisher, t.ID, realtime.EventMatchupsUpdated, t.Matchups)
	return t, nil
}

func (s *matchupService) ClearResults(ctx context.Context, actor Actor, tournamentID uuid.UUID) (*models.Tournament, error) {
	t, err := mutateTournament(ctx, s.tx, s.repo, tournamentID, func(t *models.Tournament) error {
		if err := authorize(actor, t); err != nil {
			return err
		}
		if !t.HasMatchups() {
			return ErrMatchupsNotGenerated
		}
		t.Matchups = brackets.ClearResults(t.Matchups)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "match results cleared", slog.String("tournament_id", t.ID.String()))
	publish(s.publisher, t.ID, realtime.EventMatchupsUpdated, t.Matchups)
	return t, nil
}

func (s *matchupService) Standings(ctx context.Context, tournamentID uuid.UUID) (*Standings, error) {
	t, err := getTournament(ctx, s.repo, tournamentID)
	if err != nil {
		return nil, err
	}
	return standingsOf(t), nil
}

func standingsOf(t *models.Tournament) *Standings {
	ranked := brackets.Rank(brackets.ComputeStandings(t.Matchups))
	return &Standings{
		TournamentID: t.ID,
		Entries:      ranked,
		TieGroups:    brackets.FindTieGroups(ranked),
		Finished:     brackets.AllFinished(ranked),
		Shortfall:    brackets.Shortfalls(t.Matchups),
	}
}

// Spin draws over every participant, or over tie group *tieGroup (0-based,
// in standings order) once all matches are played.
func (s *matchupService) Spin(ctx context.Context, tournamentID uuid.UUID, tieGroup *int) (*SpinOutcome, error) {
	t, err := getTournament(ctx, s.repo, tournamentID)
	if err != nil {
		return nil, err
	}

	entrants := []models.Participant(t.Participants)
	if tieGroup != nil {
		groups := standingsOf(t).TieGroups
		if *tieGroup < 0 || *tieGroup >= len(groups) {
			return nil, fmt.Errorf("%w: index %d of %d", ErrTieGroupNotFound, *tieGroup, len(groups))
		}
		entries := groups[*tieGroup].Entries
		entrants = make([]models.Participant, len(entries))
		for i, e := range entries {
			entrants[i] = e.Participant
		}
	}

	res, err := s.engine.Spin(entrants)
	if err != nil {
		return nil, mapEngineError(err)
	}
	out := &SpinOutcome{SpinResult: res, TieGroup: tieGroup, Entrants: len(entrants)}

	scope := metrics.SpinScopeAll
	if tieGroup != nil {
		scope = metrics.SpinScopeTieGroup
	}
	s.metrics.RecordSpin(scope)
	s.logger.InfoContext(ctx, "wheel spun",
		slog.String("tournament_id", t.ID.String()),
		slog.String("winner", res.Winner.Name),
		slog.Int("entrants", len(entrants)))
	publish(s.publisher, t.ID, realtime.EventWheelSpun, out)
	return out, nil
}

// SpinNames draws over an arbitrary list of names, outside any tournament.
// Blank names are dropped; duplicates stay as separate segments.
func (s *matchupService) SpinNames(ctx context.Context, names []string) (*SpinOutcome, error) {
	if len(names) > MaxWheelNames {
		return nil, fmt.Errorf("%w: at most %d names", ErrValidationFailed, MaxWheelNames)
	}
	entrants := make([]models.Participant, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			entrants = append(entrants, models.Participant{Name: n})
		}
	}

	res, err := s.engine.Spin(entrants)
	if err != nil {
		return nil, mapEngineError(err)
	}

	s.metrics.RecordSpin(metrics.SpinScopeNames)
	s.logger.InfoContext(ctx, "name wheel spun",
		slog.String("winner", res.Winner.Name),
		slog.Int("entrants", len(entrants)))
	return &SpinOutcome{SpinResult: res, Entrants: len(entrants)}, nil
}
