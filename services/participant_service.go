package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Dosada05/tournament-matchups/brackets"
	"github.com/Dosada05/tournament-matchups/metrics"
	"github.com/Dosada05/tournament-matchups/models"
	"github.com/Dosada05/tournament-matchups/realtime"
	"github.com/Dosada05/tournament-matchups/repositories"
	"github.com/Dosada05/tournament-matchups/storage"
	"github.com/Dosada05/tournament-matchups/utils"
	"github.com/google/uuid"
)

const (
	minParticipantNameLength = 2
	confirmationTimeout      = 20 * time.Second
)

type ParticipantService interface {
	Join(ctx context.Context, actor Actor, tournamentID uuid.UUID, input JoinInput) (*JoinResult, error)
	Remove(ctx context.Context, actor Actor, tournamentID uuid.UUID, name string) (*models.Tournament, error)
	UploadAvatar(ctx context.Context, tournamentID uuid.UUID, name string, input AvatarInput) (*models.Participant, error)
}

type JoinInput struct {
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
}

type JoinResult struct {
	Tournament  *models.Tournament   `json:"tournament"`
	Participant models.Participant   `json:"participant"`
	Late        bool                 `json:"late"`
	Shortfall   []brackets.Shortfall `json:"shortfall,omitempty"`
}

type AvatarInput struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

type participantService struct {
	repo      repositories.TournamentRepository
	tx        repositories.Transactor
	engine    *brackets.Engine
	uploader  storage.FileUploader
	email     *EmailService
	publisher realtime.Publisher
	metrics   *metrics.Manager
	logger    *slog.Logger
}

// NewParticipantService wires the join flow. uploader and email may be nil
// when the corresponding integration is not configured.
func NewParticipantService(
	repo repositories.TournamentRepository,
	tx repositories.Transactor,
	engine *brackets.Engine,
	uploader storage.FileUploader,
	email *EmailService,
	publisher realtime.Publisher,
	m *metrics.Manager,
	logger *slog.Logger,
) ParticipantService {
	return &participantService{
		repo:      repo,
		tx:        tx,
		engine:    engine,
		uploader:  uploader,
		email:     email,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

func (s *participantService) newParticipant(input JoinInput) (models.Participant, error) {
	name := strings.TrimSpace(input.Name)
	if utf8.RuneCountInString(name) < minParticipantNameLength {
		return models.Participant{}, ErrParticipantNameInvalid
	}
	p := models.Participant{Name: name}
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		email := utils.NormalizeEmail(*input.Email)
		if !utils.IsValidEmail(email) {
			return models.Participant{}, fmt.Errorf("%w: %q", ErrParticipantEmailInvalid, *input.Email)
		}
		p.Email = email
	}
	return p, nil
}

func (s *participantService) Join(ctx context.Context, actor Actor, tournamentID uuid.UUID, input JoinInput) (*JoinResult, error) {
	p, err := s.newParticipant(input)
	if err != nil {
		return nil, err
	}

	result := &JoinResult{Participant: p}
	t, err := mutateTournament(ctx, s.tx, s.repo, tournamentID, func(t *models.Tournament) error {
		if t.Status != models.StatusRegistration {
			return fmt.Errorf("%w: status is %s", ErrRegistrationNotOpen, t.Status)
		}
		if len(t.Participants) >= t.MaxParticipants {
			return fmt.Errorf("%w: %d/%d", ErrTournamentFull, len(t.Participants), t.MaxParticipants)
		}
		if t.Participants.IndexOf(p.Name) >= 0 {
			return fmt.Errorf("%w: %q", ErrParticipantNameTaken, p.Name)
		}
		if p.Email != "" {
			for _, other := range t.Participants {
				if strings.EqualFold(other.Email, p.Email) {
					return fmt.Errorf("%w: %q", ErrParticipantEmailTaken, p.Email)
				}
			}
		}

		if t.HasMatchups() {
			a, err := s.engine.AddParticipant(t.Matchups, p)
			if err != nil {
				return mapEngineError(err)
			}
			t.Matchups = a.Matchups
			result.Late = true
			result.Shortfall = a.Shortfall
		}
		t.Participants = append(t.Participants, p)
		if !actor.Anonymous() {
			t.RegisteredUsers = appendUnique(t.RegisteredUsers, actor.UserID.String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Tournament = t

	s.metrics.RecordJoin(result.Late)
	s.logger.InfoContext(ctx, "participant joined",
		slog.String("tournament_id", t.ID.String()),
		slog.String("participant", p.Name),
		slog.Bool("late", result.Late))
	if result.Late && len(result.Shortfall) > 0 {
		s.logger.WarnContext(ctx, "matchups left participants short after late join",
			slog.String("tournament_id", t.ID.String()),
			slog.Any("shortfall", result.Shortfall))
	}

	publish(s.publisher, t.ID, realtime.EventParticipantsUpdated, t.Participants)
	if result.Late {
		publish(s.publisher, t.ID, realtime.EventMatchupsUpdated, t.Matchups)
	}

	s.sendConfirmation(ctx, t, p)
	return result, nil
}

// sendConfirmation is best effort: the registration stands whatever happens.
func (s *participantService) sendConfirmation(ctx context.Context, t *models.Tournament, p models.Participant) {
	if p.Email == "" || !s.email.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), confirmationTimeout)
	defer cancel()

	err := s.email.SendRegistrationConfirmation(ctx, t, p)
	s.metrics.RecordEmail("confirmation", err)
	if err != nil {
		s.logger.WarnContext(ctx, "registration confirmation not sent",
			slog.String("tournament_id", t.ID.String()),
			slog.String("participant", p.Name),
			slog.Any("error", err))
	}
}

func (s *participantService) Remove(ctx context.Context, actor Actor, tournamentID uuid.UUID, name string) (*models.Tournament, error) {
	t, err := mutateTournament(ctx, s.tx, s.repo, tournamentID, func(t *models.Tournament) error {
		if err := authorize(actor, t); err != nil {
			return err
		}
		if t.HasMatchups() {
			return ErrMatchupsLocked
		}
		i := t.Participants.IndexOf(name)
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrParticipantNotFound, name)
		}
		t.Participants = append(t.Participants[:i], t.Participants[i+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(s.publisher, t.ID, realtime.EventParticipantsUpdated, t.Participants)
	return t, nil
}

func (s *participantService) UploadAvatar(ctx context.Context, tournamentID uuid.UUID, name string, input AvatarInput) (*models.Participant, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	if input.Size > storage.MaxImageBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, storage.MaxImageBytes)
	}
	ext, err := storage.ImageExtension(input.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFileType, err)
	}

	t, err := getTournament(ctx, s.repo, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Participants.IndexOf(name) < 0 {
		return nil, fmt.Errorf("%w: %q", ErrParticipantNotFound, name)
	}

	key := fmt.Sprintf("avatars/%s/%s%s", tournamentID, uuid.NewString(), ext)
	uploaded, err := s.uploader.Upload(ctx, key, input.ContentType, io.LimitReader(input.Body, storage.MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	var updated models.Participant
	t, err = mutateTournament(ctx, s.tx, s.repo, tournamentID, func(t *models.Tournament) error {
		i := t.Participants.IndexOf(name)
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrParticipantNotFound, name)
		}
		t.Participants[i].Image = uploaded.Location
		setMatchupImage(t.Matchups, t.Participants[i].Name, uploaded.Location)
		updated = t.Participants[i]
		return nil
	})
	if err != nil {
		if delErr := s.uploader.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.WarnContext(ctx, "orphaned avatar not deleted", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, err
	}

	publish(s.publisher, t.ID, realtime.EventParticipantsUpdated, t.Participants)
	if t.HasMatchups() {
		publish(s.publisher, t.ID, realtime.EventMatchupsUpdated, t.Matchups)
	}
	return &updated, nil
}

// setMatchupImage keeps the participant copies embedded in the matchups in
// step with the participant list.
func setMatchupImage(ms models.Matchups, name, image string) {
	for i := range ms {
		if models.SameName(ms[i].Participant.Name, name) {
			ms[i].Participant.Image = image
		}
		for j := range ms[i].Matches {
			if models.SameName(ms[i].Matches[j].Opponent.Name, name) {
				ms[i].Matches[j].Opponent.Image = image
			}
		}
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
