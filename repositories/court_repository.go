package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-matchups/models"
	"github.com/google/uuid"
)

var (
	ErrCourtNotFound     = errors.New("court not found")
	ErrCourtNameConflict = errors.New("court name already used in this tournament")
)

type CourtRepository interface {
	Create(ctx context.Context, court *models.Court) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Court, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Court, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) Create(ctx context.Context, c *models.Court) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	query := `
		INSERT INTO courts (id, tournament_id, name, location)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.TournamentID, c.Name, c.Location).Scan(&c.CreatedAt)
	if err != nil {
		if constraint, ok := pqViolation(err, pqUniqueViolation); ok && constraint == "courts_tournament_id_name_key" {
			return ErrCourtNameConflict
		}
		if _, ok := pqViolation(err, pqForeignKeyViolation); ok {
			return ErrTournamentNotFound
		}
		return err
	}
	return nil
}

func (r *postgresCourtRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Court, error) {
	c := &models.Court{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, tournament_id, name, location, created_at FROM courts WHERE id = $1`, id,
	).Scan(&c.ID, &c.TournamentID, &c.Name, &c.Location, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresCourtRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Court, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tournament_id, name, location, created_at FROM courts WHERE tournament_id = $1 ORDER BY name`,
		tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courts := make([]models.Court, 0)
	for rows.Next() {
		var c models.Court
		if err := rows.Scan(&c.ID, &c.TournamentID, &c.Name, &c.Location, &c.CreatedAt); err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

func (r *postgresCourtRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM courts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}
