package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tournament-matchups/models"
	"github.com/Dosada05/tournament-matchups/repositories"
	"github.com/google/uuid"
)

const DefaultMatchDuration = 30

type ScheduleService interface {
	CreateCourt(ctx context.Context, actor Actor, tournamentID uuid.UUID, input CreateCourtInput) (*models.Court, error)
	ListCourts(ctx context.Context, tournamentID uuid.UUID) ([]models.Court, error)
	DeleteCourt(ctx context.Context, actor Actor, courtID uuid.UUID) error
	Generate(ctx context.Context, actor Actor, tournamentID uuid.UUID, input GenerateScheduleInput) ([]models.ScheduledMatch, error)
	List(ctx context.Context, tournamentID uuid.UUID) ([]models.ScheduledMatch, error)
	Update(ctx context.Context, actor Actor, matchID uuid.UUID, input UpdateScheduledMatchInput) (*models.ScheduledMatch, error)
	Delete(ctx context.Context, actor Actor, matchID uuid.UUID) error
}

type CreateCourtInput struct {
	Name     string  `json:"name"`
	Location *string `json:"location,omitempty"`
}

// GenerateScheduleInput places matches on the tournament's courts in slots
// of DurationMinutes from StartTime. Without a start time the matches are
// created unscheduled.
type GenerateScheduleInput struct {
	StartTime       *time.Time `json:"start_time,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
}

type UpdateScheduledMatchInput struct {
	CourtID         *uuid.UUID                   `json:"court_id,omitempty"`
	ScheduledTime   *time.Time                   `json:"scheduled_time,omitempty"`
	DurationMinutes *int                         `json:"duration_minutes,omitempty"`
	Status          *models.ScheduledMatchStatus `json:"status,omitempty"`
}

type scheduleService struct {
	tournaments repositories.TournamentRepository
	courts      repositories.CourtRepository
	matches     repositories.ScheduledMatchRepository
	tx          repositories.Transactor
	logger      *slog.Logger
}

func NewScheduleService(
	tournaments repositories.TournamentRepository,
	courts repositories.CourtRepository,
	matches repositories.ScheduledMatchRepository,
	tx repositories.Transactor,
	logger *slog.Logger,
) ScheduleService {
	return &scheduleService{
		tournaments: tournaments,
		courts:      courts,
		matches:     matches,
		tx:          tx,
		logger:      logger,
	}
}

func (s *scheduleService) authorizeFor(ctx context.Context, actor Actor, tournamentID uuid.UUID) (*models.Tournament, error) {
	t, err := getTournament(ctx, s.tournaments, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *scheduleService) CreateCourt(ctx context.Context, actor Actor, tournamentID uuid.UUID, input CreateCourtInput) (*models.Court, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: court name is required", ErrValidationFailed)
	}
	if _, err := s.authorizeFor(ctx, actor, tournamentID); err != nil {
		return nil, err
	}

	court := &models.Court{TournamentID: tournamentID, Name: name, Location: trimmedOrNil(input.Location)}
	if err := s.courts.Create(ctx, court); err != nil {
		if errors.Is(err, repositories.ErrCourtNameConflict) {
			return nil, fmt.Errorf("%w: %q", ErrCourtNameConflict, name)
		}
		return nil, fmt.Errorf("failed to create court: %w", err)
	}
	return court, nil
}

func (s *scheduleService) ListCourts(ctx context.Context, tournamentID uuid.UUID) ([]models.Court, error) {
	if _, err := getTournament(ctx, s.tournaments, tournamentID); err != nil {
		return nil, err
	}
	courts, err := s.courts.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts: %w", err)
	}
	if courts == nil {
		return []models.Court{}, nil
	}
	return courts, nil
}

func (s *scheduleService) DeleteCourt(ctx context.Context, actor Actor, courtID uuid.UUID) error {
	court, err := s.courts.GetByID(ctx, courtID)
	if err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return ErrCourtNotFound
		}
		return err
	}
	if _, err := s.authorizeFor(ctx, actor, court.TournamentID); err != nil {
		return err
	}
	if err := s.courts.Delete(ctx, courtID); err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return ErrCourtNotFound
		}
		return err
	}
	return nil
}

// Generate rebuilds the tournament's schedule from its matchups, replacing
// whatever was scheduled before.
func (s *scheduleService) Generate(ctx context.Context, actor Actor, tournamentID uuid.UUID, input GenerateScheduleInput) ([]models.ScheduledMatch, error) {
	duration := input.DurationMinutes
	if duration == 0 {
		duration = DefaultMatchDuration
	}
	if duration < 0 {
		return nil, ErrInvalidDuration
	}

	var built []models.ScheduledMatch
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.tournaments.GetByID(ctx, exec, tournamentID)
		if err != nil {
			return mapTournamentRepoError(err)
		}
		if err := authorize(actor, t); err != nil {
			return err
		}
		if !t.HasMatchups() {
			return ErrMatchupsNotGenerated
		}
		courts, err := s.courts.ListByTournament(ctx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list courts: %w", err)
		}

		built = BuildSchedule(t.Matchups, courts, input.StartTime, duration)
		if err := s.matches.ReplaceForTournament(ctx, exec, tournamentID, built); err != nil {
			return fmt.Errorf("failed to store schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "schedule generated",
		slog.String("tournament_id", tournamentID.String()),
		slog.Int("matches", len(built)))
	return built, nil
}

// BuildSchedule lists every pairing of the matchups once, in the order the
// pairings first appear, numbered from 1. With courts, consecutive matches
// share a time slot until every court is used; without courts each match
// gets its own slot.
func BuildSchedule(ms models.Matchups, courts []models.Court, start *time.Time, durationMinutes int) []models.ScheduledMatch {
	type pairKey struct{ a, b string }
	seen := make(map[pairKey]bool)
	out := make([]models.ScheduledMatch, 0)

	for _, m := range ms {
		for _, match := range m.Matches {
			a := strings.ToLower(strings.TrimSpace(m.Participant.Name))
			b := strings.ToLower(strings.TrimSpace(match.Opponent.Name))
			if b < a {
				a, b = b, a
			}
			key := pairKey{a, b}
			if seen[key] {
				continue
			}
			seen[key] = true

			status := models.ScheduledStatusScheduled
			if match.Completed {
				status = models.ScheduledStatusCompleted
			}
			i := len(out)
			sm := models.ScheduledMatch{
				MatchNumber:      i + 1,
				Participant1Name: m.Participant.Name,
				Participant2Name: match.Opponent.Name,
				Status:           status,
			}
			duration := durationMinutes
			sm.DurationMinutes = &duration

			slot := i
			if len(courts) > 0 {
				courtID := courts[i%len(courts)].ID
				sm.CourtID = &courtID
				slot = i / len(courts)
			}
			if start != nil {
				at := start.Add(time.Duration(slot*durationMinutes) * time.Minute)
				sm.ScheduledTime = &at
			}
			out = append(out, sm)
		}
	}
	return out
}

func (s *scheduleService) List(ctx context.Context, tournamentID uuid.UUID) ([]models.ScheduledMatch, error) {
	if _, err := getTournament(ctx, s.tournaments, tournamentID); err != nil {
		return nil, err
	}
	list, err := s.matches.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule: %w", err)
	}
	if list == nil {
		return []models.ScheduledMatch{}, nil
	}
	return list, nil
}

func (s *scheduleService) getMatch(ctx context.Context, actor Actor, matchID uuid.UUID) (*models.ScheduledMatch, error) {
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrScheduledMatchNotFound) {
			return nil, ErrScheduledMatchNotFound
		}
		return nil, err
	}
	if _, err := s.authorizeFor(ctx, actor, m.TournamentID); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *scheduleService) Update(ctx context.Context, actor Actor, matchID uuid.UUID, input UpdateScheduledMatchInput) (*models.ScheduledMatch, error) {
	m, err := s.getMatch(ctx, actor, matchID)
	if err != nil {
		return nil, err
	}

	if input.CourtID != nil {
		court, err := s.courts.GetByID(ctx, *input.CourtID)
		if err != nil {
			if errors.Is(err, repositories.ErrCourtNotFound) {
				return nil, ErrCourtNotFound
			}
			return nil, err
		}
		if court.TournamentID != m.TournamentID {
			return nil, fmt.Errorf("%w: court belongs to another tournament", ErrValidationFailed)
		}
		m.CourtID = input.CourtID
	}
	if input.ScheduledTime != nil {
		m.ScheduledTime = input.ScheduledTime
	}
	if input.DurationMinutes != nil {
		if *input.DurationMinutes <= 0 {
			return nil, ErrInvalidDuration
		}
		m.DurationMinutes = input.DurationMinutes
	}
	if input.Status != nil {
		switch *input.Status {
		case models.ScheduledStatusScheduled, models.ScheduledStatusCompleted, models.ScheduledStatusCanceled:
			m.Status = *input.Status
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidationFailed, *input.Status)
		}
	}

	if err := s.matches.Update(ctx, m); err != nil {
		switch {
		case errors.Is(err, repositories.ErrScheduledMatchNotFound):
			return nil, ErrScheduledMatchNotFound
		case errors.Is(err, repositories.ErrScheduledMatchCourt):
			return nil, ErrCourtNotFound
		default:
			return nil, fmt.Errorf("failed to update scheduled match: %w", err)
		}
	}
	return m, nil
}

func (s *scheduleService) Delete(ctx context.Context, actor Actor, matchID uuid.UUID) error {
	if _, err := s.getMatch(ctx, actor, matchID); err != nil {
		return err
	}
	if err := s.matches.Delete(ctx, matchID); err != nil {
		if errors.Is(err, repositories.ErrScheduledMatchNotFound) {
			return ErrScheduledMatchNotFound
		}
		return err
	}
	return nil
}
