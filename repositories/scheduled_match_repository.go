package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-matchups/models"
	"github.com/google/uuid"
)

var (
	ErrScheduledMatchNotFound = errors.New("scheduled match not found")
	ErrScheduledMatchConflict = errors.New("match number already scheduled")
	ErrScheduledMatchCourt    = errors.New("invalid court reference")
)

type ScheduledMatchRepository interface {
	// ReplaceForTournament drops the tournament's schedule and inserts
	// matches in its place.
	ReplaceForTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID, matches []models.ScheduledMatch) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ScheduledMatch, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.ScheduledMatch, error)
	Update(ctx context.Context, match *models.ScheduledMatch) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type postgresScheduledMatchRepository struct {
	db *sql.DB
}

func NewPostgresScheduledMatchRepository(db *sql.DB) ScheduledMatchRepository {
	return &postgresScheduledMatchRepository{db: db}
}

func (r *postgresScheduledMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const scheduledMatchColumns = `
	id, tournament_id, match_number, participant1_name, participant2_name,
	court_id, scheduled_time, duration_minutes, status, created_at, updated_at`

func scanScheduledMatch(row rowScanner, m *models.ScheduledMatch) error {
	return row.Scan(
		&m.ID, &m.TournamentID, &m.MatchNumber, &m.Participant1Name, &m.Participant2Name,
		&m.CourtID, &m.ScheduledTime, &m.DurationMinutes, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
}

func (r *postgresScheduledMatchRepository) ReplaceForTournament(ctx context.Context, exec SQLExecutor, tournamentID uuid.UUID, matches []models.ScheduledMatch) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM scheduled_matches WHERE tournament_id = $1`, tournamentID); err != nil {
		return err
	}

	query := `
		INSERT INTO scheduled_matches (
			id, tournament_id, match_number, participant1_name, participant2_name,
			court_id, scheduled_time, duration_minutes, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`
	for i := range matches {
		m := &matches[i]
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.TournamentID = tournamentID
		err := executor.QueryRowContext(ctx, query,
			m.ID, m.TournamentID, m.MatchNumber, m.Participant1Name, m.Participant2Name,
			m.CourtID, m.ScheduledTime, m.DurationMinutes, m.Status,
		).Scan(&m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return r.handleError(err)
		}
	}
	return nil
}

func (r *postgresScheduledMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ScheduledMatch, error) {
	m := &models.ScheduledMatch{}
	err := scanScheduledMatch(r.db.QueryRowContext(ctx,
		`SELECT`+scheduledMatchColumns+` FROM scheduled_matches WHERE id = $1`, id), m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScheduledMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresScheduledMatchRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.ScheduledMatch, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+scheduledMatchColumns+` FROM scheduled_matches WHERE tournament_id = $1 ORDER BY match_number`,
		tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.ScheduledMatch, 0)
	for rows.Next() {
		var m models.ScheduledMatch
		if err := scanScheduledMatch(rows, &m); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresScheduledMatchRepository) Update(ctx context.Context, m *models.ScheduledMatch) error {
	query := `
		UPDATE scheduled_matches SET
			court_id = $1,
			scheduled_time = $2,
			duration_minutes = $3,
			status = $4,
			updated_at = now()
		WHERE id = $5
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		m.CourtID, m.ScheduledTime, m.DurationMinutes, m.Status, m.ID,
	).Scan(&m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrScheduledMatchNotFound
	}
	return r.handleError(err)
}

func (r *postgresScheduledMatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrScheduledMatchNotFound)
}

func (r *postgresScheduledMatchRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scheduled_matches`).Scan(&n)
	return n, err
}

func (r *postgresScheduledMatchRepository) handleError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := pqViolation(err, pqUniqueViolation); ok {
		return ErrScheduledMatchConflict
	}
	if constraint, ok := pqViolation(err, pqForeignKeyViolation); ok {
		if constraint == "scheduled_matches_court_id_fkey" {
			return ErrScheduledMatchCourt
		}
		return ErrTournamentNotFound
	}
	return err
}
