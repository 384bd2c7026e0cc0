package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-matchups/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentInvalidCreator = errors.New("invalid creator reference")
)

type ListTournamentsFilter struct {
	CreatorID *uuid.UUID
	Status    *models.TournamentStatus
	Limit     int
	Offset    int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	// GetByID loads a tournament. With a transaction executor the row is
	// locked until the transaction ends.
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.Tournament, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, kind string) (bool, error)
	CountByStatus(ctx context.Context) (map[models.TournamentStatus]int, error)
	CountParticipants(ctx context.Context) (int, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, name, creator_id, status, max_participants, start_date,
	participants, matchups, registered_users, reminders_sent, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTournament(row rowScanner, t *models.Tournament) error {
	var registered, reminders pq.StringArray
	if err := row.Scan(
		&t.ID, &t.Name, &t.CreatorID, &t.Status, &t.MaxParticipants, &t.StartDate,
		&t.Participants, &t.Matchups, &registered, &reminders, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return err
	}
	t.RegisteredUsers = []string(registered)
	t.RemindersSent = []string(reminders)
	return nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Participants == nil {
		t.Participants = models.Participants{}
	}
	if t.Matchups == nil {
		t.Matchups = models.Matchups{}
	}
	query := `
		INSERT INTO tournaments (
			id, name, creator_id, status, max_participants, start_date,
			participants, matchups, registered_users, reminders_sent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.Name, t.CreatorID, t.Status, t.MaxParticipants, t.StartDate,
		t.Participants, t.Matchups, pq.StringArray(t.RegisteredUsers), pq.StringArray(t.RemindersSent),
	).Scan(&t.CreatedAt, &t.UpdatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	if exec != nil {
		query += ` FOR UPDATE`
	}

	t := &models.Tournament{}
	err := scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.CreatorID != nil {
		query += fmt.Sprintf(" AND creator_id = $%d", argID)
		args = append(args, *filter.CreatorID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := scanTournament(rows, &t); err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

// Update replaces the whole record, JSONB documents included. Concurrent
// writers outside a locking transaction overwrite each other.
func (r *postgresTournamentRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1,
			status = $2,
			max_participants = $3,
			start_date = $4,
			participants = $5,
			matchups = $6,
			registered_users = $7,
			reminders_sent = $8,
			updated_at = now()
		WHERE id = $9
		RETURNING updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		t.Name, t.Status, t.MaxParticipants, t.StartDate,
		t.Participants, t.Matchups, pq.StringArray(t.RegisteredUsers), pq.StringArray(t.RemindersSent),
		t.ID,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTournamentNotFound
	}
	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// ListStartingBetween returns tournaments still in registration whose start
// falls in [from, to].
func (r *postgresTournamentRepository) ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + `
		FROM tournaments
		WHERE status = $1 AND start_date BETWEEN $2 AND $3
		ORDER BY start_date`

	rows, err := r.db.QueryContext(ctx, query, models.StatusRegistration, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments for reminders: %w", err)
	}
	defer rows.Close()

	var tournaments []models.Tournament
	for rows.Next() {
		var t models.Tournament
		if err := scanTournament(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan tournament for reminders: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

// MarkReminderSent records a reminder kind once. It reports false when the
// kind was already recorded, so concurrent schedulers send it only once.
func (r *postgresTournamentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, kind string) (bool, error) {
	query := `
		UPDATE tournaments
		SET reminders_sent = array_append(reminders_sent, $1)
		WHERE id = $2 AND NOT ($1 = ANY(reminders_sent))`
	result, err := r.db.ExecContext(ctx, query, kind, id)
	if err != nil {
		return false, fmt.Errorf("failed to record reminder %s for tournament %s: %w", kind, id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *postgresTournamentRepository) CountByStatus(ctx context.Context) (map[models.TournamentStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tournaments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.TournamentStatus]int)
	for rows.Next() {
		var status models.TournamentStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *postgresTournamentRepository) CountParticipants(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(jsonb_array_length(participants)), 0) FROM tournaments`).Scan(&n)
	return n, err
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if constraint, ok := pqViolation(err, pqForeignKeyViolation); ok && constraint == "tournaments_creator_id_fkey" {
		return ErrTournamentInvalidCreator
	}
	return err
}
