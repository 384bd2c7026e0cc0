package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-matchups/brackets"
	"github.com/Dosada05/tournament-matchups/models"
	"github.com/Dosada05/tournament-matchups/realtime"
	"github.com/Dosada05/tournament-matchups/repositories"
	"github.com/google/uuid"
)

// Actor is the authenticated caller of a mutating operation.
type Actor struct {
	UserID uuid.UUID
	Role   models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Anonymous reports whether the call came without a token.
func (a Actor) Anonymous() bool {
	return a.UserID == uuid.Nil
}

// authorize allows the tournament creator and admins.
func authorize(actor Actor, t *models.Tournament) error {
	if actor.Anonymous() {
		return ErrAuthenticationFailed
	}
	if actor.IsAdmin() || t.IsOrganizer(actor.UserID) {
		return nil
	}
	return ErrForbiddenOperation
}

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusRegistration: {models.StatusActive, models.StatusCanceled},
		models.StatusActive:       {models.StatusCompleted, models.StatusCanceled},
		models.StatusCompleted:    {},
		models.StatusCanceled:     {},
	}
	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

// mapEngineError translates brackets errors into service errors, keeping the
// engine's message as detail.
func mapEngineError(err error) error {
	if err == nil {
		return nil
	}
	var target error
	switch {
	case errors.Is(err, brackets.ErrInsufficientParticipants):
		target = ErrNotEnoughParticipants
	case errors.Is(err, brackets.ErrDuplicateParticipant):
		target = ErrParticipantNameTaken
	case errors.Is(err, brackets.ErrSameParticipant):
		target = ErrSameParticipant
	case errors.Is(err, brackets.ErrInvalidResult):
		target = ErrInvalidResult
	case errors.Is(err, brackets.ErrMatchNotFound):
		target = ErrMatchNotFound
	case errors.Is(err, brackets.ErrNoEntrants):
		target = ErrNoEntrants
	default:
		return err
	}
	return fmt.Errorf("%w: %v", target, err)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func mapTournamentRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTournamentInvalidCreator):
		return fmt.Errorf("%w: unknown creator", ErrValidationFailed)
	default:
		return err
	}
}

// mutateTournament loads the tournament with its row locked, applies fn and
// writes the whole record back in the same transaction. Nothing is written
// when fn fails.
func mutateTournament(
	ctx context.Context,
	tx repositories.Transactor,
	repo repositories.TournamentRepository,
	id uuid.UUID,
	fn func(t *models.Tournament) error,
) (*models.Tournament, error) {
	var updated *models.Tournament
	err := tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := repo.GetByID(ctx, exec, id)
		if err != nil {
			return mapTournamentRepoError(err)
		}
		if err := fn(t); err != nil {
			return err
		}
		if err := repo.Update(ctx, exec, t); err != nil {
			return mapTournamentRepoError(err)
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func getTournament(ctx context.Context, repo repositories.TournamentRepository, id uuid.UUID) (*models.Tournament, error) {
	t, err := repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	return t, nil
}

func publish(p realtime.Publisher, id uuid.UUID, event string, payload any) {
	if p != nil {
		p.Publish(id, event, payload)
	}
}
