package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-matchups/models"
	"github.com/google/uuid"
)

var ErrAvailabilityNotFound = errors.New("player availability not found")

type AvailabilityRepository interface {
	Get(ctx context.Context, tournamentID, userID uuid.UUID) (*models.PlayerAvailability, error)
	Upsert(ctx context.Context, a *models.PlayerAvailability) error
}

type postgresAvailabilityRepository struct {
	db *sql.DB
}

func NewPostgresAvailabilityRepository(db *sql.DB) AvailabilityRepository {
	return &postgresAvailabilityRepository{db: db}
}

func (r *postgresAvailabilityRepository) Get(ctx context.Context, tournamentID, userID uuid.UUID) (*models.PlayerAvailability, error) {
	a := &models.PlayerAvailability{}
	query := `
		SELECT id, tournament_id, user_id, available_times, notes, created_at, updated_at
		FROM player_availability
		WHERE tournament_id = $1 AND user_id = $2`
	err := r.db.QueryRowContext(ctx, query, tournamentID, userID).Scan(
		&a.ID, &a.TournamentID, &a.UserID, &a.AvailableTimes, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAvailabilityNotFound
		}
		return nil, err
	}
	return a, nil
}

// Upsert stores a's slots and notes, keeping the row id of an earlier save
// for the same user and tournament.
func (r *postgresAvailabilityRepository) Upsert(ctx context.Context, a *models.PlayerAvailability) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	query := `
		INSERT INTO player_availability (id, tournament_id, user_id, available_times, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tournament_id, user_id) DO UPDATE
		SET available_times = EXCLUDED.available_times,
		    notes = EXCLUDED.notes,
		    updated_at = now()
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, a.ID, a.TournamentID, a.UserID, a.AvailableTimes, a.Notes).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if constraint, ok := pqViolation(err, pqForeignKeyViolation); ok && constraint == "player_availability_tournament_id_fkey" {
			return ErrTournamentNotFound
		}
		if _, ok := pqViolation(err, pqForeignKeyViolation); ok {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
