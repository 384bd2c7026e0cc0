package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tournament-matchups/models"
	"github.com/Dosada05/tournament-matchups/realtime"
	"github.com/Dosada05/tournament-matchups/repositories"
	"github.com/google/uuid"
)

const (
	MinTournamentCapacity     = 4
	MaxTournamentCapacity     = 256
	DefaultTournamentCapacity = 16
	defaultListLimit          = 50
	maxListLimit              = 200
)

type TournamentService interface {
	Create(ctx context.Context, actor Actor, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsInput) ([]models.Tournament, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateTournamentInput) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status models.TournamentStatus) (*models.Tournament, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type CreateTournamentInput struct {
	Name            string     `json:"name"`
	MaxParticipants *int       `json:"max_participants,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
}

// UpdateTournamentInput only changes the fields that are set.
type UpdateTournamentInput struct {
	Name            *string    `json:"name,omitempty"`
	MaxParticipants *int       `json:"max_participants,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
}

type ListTournamentsInput struct {
	Status    *models.TournamentStatus
	CreatorID *uuid.UUID
	Limit     int
	Offset    int
}

type tournamentService struct {
	repo      repositories.TournamentRepository
	tx        repositories.Transactor
	publisher realtime.Publisher
	logger    *slog.Logger
}

func NewTournamentService(
	repo repositories.TournamentRepository,
	tx repositories.Transactor,
	publisher realtime.Publisher,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		repo:      repo,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
	}
}

func validateCapacity(n int) error {
	if n < MinTournamentCapacity || n > MaxTournamentCapacity {
		return fmt.Errorf("%w: got %d", ErrTournamentInvalidCapacity, n)
	}
	return nil
}

func (s *tournamentService) Create(ctx context.Context, actor Actor, input CreateTournamentInput) (*models.Tournament, error) {
	if actor.Anonymous() {
		return nil, ErrAuthenticationFailed
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	capacity := DefaultTournamentCapacity
	if input.MaxParticipants != nil {
		capacity = *input.MaxParticipants
	}
	if err := validateCapacity(capacity); err != nil {
		return nil, err
	}

	creator := actor.UserID
	t := &models.Tournament{
		Name:            name,
		CreatorID:       &creator,
		Status:          models.StatusRegistration,
		MaxParticipants: capacity,
		StartDate:       input.StartDate,
		Participants:    models.Participants{},
		Matchups:        models.Matchups{},
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", mapTournamentRepoError(err))
	}

	s.logger.InfoContext(ctx, "tournament created",
		slog.String("tournament_id", t.ID.String()),
		slog.String("creator_id", creator.String()),
		slog.Int("max_participants", capacity))
	return t, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	return getTournament(ctx, s.repo, id)
}

func (s *tournamentService) List(ctx context.Context, input ListTournamentsInput) ([]models.Tournament, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrTournamentInvalidStatus, *input.Status)
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	list, err := s.repo.List(ctx, repositories.ListTournamentsFilter{
		CreatorID: input.CreatorID,
		Status:    input.Status,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	if list == nil {
		return []models.Tournament{}, nil
	}
	return list, nil
}

func (s *tournamentService) Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateTournamentInput) (*models.Tournament, error) {
	t, err := mutateTournament(ctx, s.tx, s.repo, id, func(t *models.Tournament) error {
		if err := authorize(actor, t); err != nil {
			return err
		}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return ErrTournamentNameRequired
			}
			t.Name = name
		}
		if input.MaxParticipants != nil {
			if err := validateCapacity(*input.MaxParticipants); err != nil {
				return err
			}
			if *input.MaxParticipants < len(t.Participants) {
				return fmt.Errorf("%w: %d registered", ErrTournamentCapacityBelowCount, len(t.Participants))
			}
			t.MaxParticipants = *input.MaxParticipants
		}
		if input.StartDate != nil {
			if t.StartDate == nil || !t.StartDate.Equal(*input.StartDate) {
				// A new start time re-arms both reminders.
				t.RemindersSent = nil
			}
			t.StartDate = input.StartDate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(s.publisher, t.ID, realtime.EventTournamentUpdated, t)
	return t, nil
}

func (s *tournamentService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status models.TournamentStatus) (*models.Tournament, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrTournamentInvalidStatus, status)
	}
	var previous models.TournamentStatus
	t, err := mutateTournament(ctx, s.tx, s.repo, id, func(t *models.Tournament) error {
		if err := authorize(actor, t); err != nil {
			return err
		}
		if !isValidStatusTransition(t.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatusTransition, t.Status, status)
		}
		previous = t.Status
		t.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament status changed",
		slog.String("tournament_id", t.ID.String()),
		slog.String("from", string(previous)),
		slog.String("to", string(status)))
	publish(s.publisher, t.ID, realtime.EventTournamentUpdated, t)
	return t, nil
}

func (s *tournamentService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	t, err := getTournament(ctx, s.repo, id)
	if err != nil {
		return err
	}
	if err := authorize(actor, t); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapTournamentRepoError(err)
	}
	s.logger.InfoContext(ctx, "tournament deleted", slog.String("tournament_id", id.String()))
	return nil
}
