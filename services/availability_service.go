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

const MaxTimeSlots = 100

// AvailabilityService keeps each signed-in player's playing windows for a
// tournament, for organizers to consult when placing matches.
type AvailabilityService interface {
	Get(ctx context.Context, actor Actor, tournamentID uuid.UUID) (*models.PlayerAvailability, error)
	Put(ctx context.Context, actor Actor, tournamentID uuid.UUID, input PutAvailabilityInput) (*models.PlayerAvailability, error)
}

type PutAvailabilityInput struct {
	AvailableTimes []models.TimeSlot `json:"available_times"`
	Notes          *string           `json:"notes,omitempty"`
}

type availabilityService struct {
	tournaments  repositories.TournamentRepository
	availability repositories.AvailabilityRepository
	logger       *slog.Logger
}

func NewAvailabilityService(
	tournaments repositories.TournamentRepository,
	availability repositories.AvailabilityRepository,
	logger *slog.Logger,
) AvailabilityService {
	return &availabilityService{
		tournaments:  tournaments,
		availability: availability,
		logger:       logger,
	}
}

// Get returns the caller's saved availability, or an empty one when nothing
// was saved yet.
func (s *availabilityService) Get(ctx context.Context, actor Actor, tournamentID uuid.UUID) (*models.PlayerAvailability, error) {
	if actor.Anonymous() {
		return nil, ErrAuthenticationFailed
	}
	if _, err := getTournament(ctx, s.tournaments, tournamentID); err != nil {
		return nil, err
	}

	a, err := s.availability.Get(ctx, tournamentID, actor.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrAvailabilityNotFound) {
			return &models.PlayerAvailability{
				TournamentID:   tournamentID,
				UserID:         actor.UserID,
				AvailableTimes: models.TimeSlots{},
			}, nil
		}
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}
	if a.AvailableTimes == nil {
		a.AvailableTimes = models.TimeSlots{}
	}
	return a, nil
}

// Put replaces the caller's slots and notes.
func (s *availabilityService) Put(ctx context.Context, actor Actor, tournamentID uuid.UUID, input PutAvailabilityInput) (*models.PlayerAvailability, error) {
	if actor.Anonymous() {
		return nil, ErrAuthenticationFailed
	}
	slots, err := normalizeTimeSlots(input.AvailableTimes)
	if err != nil {
		return nil, err
	}

	t, err := getTournament(ctx, s.tournaments, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status == models.StatusCompleted || t.Status == models.StatusCanceled {
		return nil, ErrAvailabilityClosed
	}

	a := &models.PlayerAvailability{
		TournamentID:   tournamentID,
		UserID:         actor.UserID,
		AvailableTimes: slots,
		Notes:          trimmedOrNil(input.Notes),
	}
	if err := s.availability.Upsert(ctx, a); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, ErrTournamentNotFound
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to save availability: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "availability saved",
		slog.String("tournament_id", tournamentID.String()),
		slog.String("user_id", actor.UserID.String()),
		slog.Int("slots", len(slots)))
	return a, nil
}

// normalizeTimeSlots trims every field and rejects slots that do not parse
// or whose end is not after their start.
func normalizeTimeSlots(in []models.TimeSlot) (models.TimeSlots, error) {
	if len(in) > MaxTimeSlots {
		return nil, fmt.Errorf("%w: at most %d", ErrTooManyTimeSlots, MaxTimeSlots)
	}
	out := make(models.TimeSlots, 0, len(in))
	for i, slot := range in {
		slot.Date = strings.TrimSpace(slot.Date)
		slot.StartTime = strings.TrimSpace(slot.StartTime)
		slot.EndTime = strings.TrimSpace(slot.EndTime)

		if _, err := time.Parse(models.SlotDateLayout, slot.Date); err != nil {
			return nil, fmt.Errorf("%w: slot %d has date %q", ErrInvalidTimeSlot, i+1, slot.Date)
		}
		start, err := time.Parse(models.SlotTimeLayout, slot.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %d has start time %q", ErrInvalidTimeSlot, i+1, slot.StartTime)
		}
		end, err := time.Parse(models.SlotTimeLayout, slot.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %d has end time %q", ErrInvalidTimeSlot, i+1, slot.EndTime)
		}
		if !end.After(start) {
			return nil, fmt.Errorf("%w: slot %d ends at or before it starts", ErrInvalidTimeSlot, i+1)
		}
		out = append(out, slot)
	}
	return out, nil
}
