package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Dosada05/tournament-matchups/metrics"
	"github.com/Dosada05/tournament-matchups/models"
	"github.com/Dosada05/tournament-matchups/repositories"
	"github.com/Dosada05/tournament-matchups/utils"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	reminderWindow          = 15 * time.Minute
	defaultNotificationPage = 50
)

// reminderLeads maps each reminder kind to how long before the start it fires.
var reminderLeads = []struct {
	kind string
	lead time.Duration
}{
	{models.ReminderDayBefore, 24 * time.Hour},
	{models.ReminderHourBefore, time.Hour},
}

type NotificationService interface {
	Announce(ctx context.Context, actor Actor, tournamentID uuid.UUID, input AnnouncementInput) (*DeliveryReport, error)
	SendBackup(ctx context.Context, actor Actor, tournamentID uuid.UUID) error
	SendReminders(ctx context.Context, now time.Time) ([]ReminderReport, error)
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

type AnnouncementInput struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// DeliveryReport counts one fan-out. Recipients are participants with a
// usable email address; InApp counts notification rows written.
type DeliveryReport struct {
	Participants int `json:"total_participants"`
	Recipients   int `json:"recipients"`
	Sent         int `json:"emails_sent"`
	Failed       int `json:"emails_failed"`
	InApp        int `json:"in_app"`
}

type ReminderReport struct {
	TournamentID uuid.UUID `json:"tournament_id"`
	Kind         string    `json:"kind"`
	DeliveryReport
}

type notificationService struct {
	tournaments   repositories.TournamentRepository
	notifications repositories.NotificationRepository
	email         *EmailService
	backupEmail   string
	concurrency   int
	metrics       *metrics.Manager
	logger        *slog.Logger
}

func NewNotificationService(
	tournaments repositories.TournamentRepository,
	notifications repositories.NotificationRepository,
	email *EmailService,
	backupEmail string,
	concurrency int,
	m *metrics.Manager,
	logger *slog.Logger,
) NotificationService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &notificationService{
		tournaments:   tournaments,
		notifications: notifications,
		email:         email,
		backupEmail:   strings.TrimSpace(backupEmail),
		concurrency:   concurrency,
		metrics:       m,
		logger:        logger,
	}
}

func (s *notificationService) Announce(ctx context.Context, actor Actor, tournamentID uuid.UUID, input AnnouncementInput) (*DeliveryReport, error) {
	subject, message := strings.TrimSpace(input.Subject), strings.TrimSpace(input.Message)
	if subject == "" || message == "" {
		return nil, fmt.Errorf("%w: subject and message are required", ErrValidationFailed)
	}
	t, err := getTournament(ctx, s.tournaments, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, t); err != nil {
		return nil, err
	}

	report := s.fanOut(ctx, t, "announcement", func(ctx context.Context, p models.Participant) error {
		return s.email.SendAnnouncement(ctx, t, p, subject, message)
	})
	report.InApp, err = s.notifyRegistered(ctx, t, models.NotificationAnnouncement, subject+": "+message)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "announcement delivered",
		slog.String("tournament_id", t.ID.String()),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
		slog.Int("in_app", report.InApp))
	return report, nil
}

// fanOut emails every participant with a valid address, at most
// s.concurrency at a time. Failures are counted, not returned.
func (s *notificationService) fanOut(ctx context.Context, t *models.Tournament, kind string, send func(context.Context, models.Participant) error) *DeliveryReport {
	report := &DeliveryReport{Participants: len(t.Participants)}
	if !s.email.Enabled() {
		return report
	}

	var sent, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, p := range t.Participants {
		if p.Email == "" || !utils.IsValidEmail(p.Email) {
			continue
		}
		report.Recipients++
		p := p
		g.Go(func() error {
			err := send(ctx, p)
			s.metrics.RecordEmail(kind, err)
			if err != nil {
				failed.Add(1)
				s.logger.WarnContext(ctx, "email not delivered",
					slog.String("kind", kind),
					slog.String("tournament_id", t.ID.String()),
					slog.String("participant", p.Name),
					slog.Any("error", err))
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report.Sent = int(sent.Load())
	report.Failed = int(failed.Load())
	return report
}

// notifyRegistered writes one in-app notification per registered user.
func (s *notificationService) notifyRegistered(ctx context.Context, t *models.Tournament, kind models.NotificationType, message string) (int, error) {
	batch := make([]models.Notification, 0, len(t.RegisteredUsers))
	for _, raw := range t.RegisteredUsers {
		userID, err := uuid.Parse(raw)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping malformed registered user id",
				slog.String("tournament_id", t.ID.String()),
				slog.String("user_id", raw))
			continue
		}
		batch = append(batch, models.Notification{
			TournamentID: t.ID,
			UserID:       userID,
			Type:         kind,
			Message:      message,
		})
	}
	if len(batch) == 0 {
		return 0, nil
	}
	if err := s.notifications.CreateBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("failed to store notifications: %w", err)
	}
	return len(batch), nil
}

func (s *notificationService) SendBackup(ctx context.Context, actor Actor, tournamentID uuid.UUID) error {
	if s.backupEmail == "" || !s.email.Enabled() {
		return ErrEmailDisabled
	}
	t, err := getTournament(ctx, s.tournaments, tournamentID)
	if err != nil {
		return err
	}
	if err := authorize(actor, t); err != nil {
		return err
	}

	err = s.email.SendBackup(ctx, s.backupEmail, t, time.Now())
	s.metrics.RecordEmail("backup", err)
	if err != nil {
		return fmt.Errorf("failed to send tournament backup: %w", err)
	}
	s.logger.InfoContext(ctx, "tournament backup sent", slog.String("tournament_id", t.ID.String()))
	return nil
}

// SendReminders fires the 24-hour and 1-hour reminders for tournaments still
// in registration whose start falls within 15 minutes of now+lead. A kind is
// claimed in storage before any email goes out, so concurrent runs never
// send it twice.
func (s *notificationService) SendReminders(ctx context.Context, now time.Time) ([]ReminderReport, error) {
	var reports []ReminderReport
	var errs []error
	for _, r := range reminderLeads {
		target := now.Add(r.lead)
		due, err := s.tournaments.ListStartingBetween(ctx, target.Add(-reminderWindow), target.Add(reminderWindow))
		if err != nil {
			errs = append(errs, fmt.Errorf("list %s reminders: %w", r.kind, err))
			continue
		}
		for i := range due {
			t := &due[i]
			if t.ReminderSent(r.kind) {
				continue
			}
			claimed, err := s.tournaments.MarkReminderSent(ctx, t.ID, r.kind)
			if err != nil {
				errs = append(errs, fmt.Errorf("claim %s reminder for %s: %w", r.kind, t.ID, err))
				continue
			}
			if !claimed {
				continue
			}

			kind := r.kind
			report := s.fanOut(ctx, t, "reminder", func(ctx context.Context, p models.Participant) error {
				return s.email.SendReminder(ctx, t, p, kind)
			})
			report.InApp, err = s.notifyRegistered(ctx, t, models.NotificationReminder, reminderMessage(t, kind))
			if err != nil {
				errs = append(errs, err)
			}
			s.metrics.RecordReminder(kind)
			s.logger.InfoContext(ctx, "tournament reminder sent",
				slog.String("tournament_id", t.ID.String()),
				slog.String("kind", kind),
				slog.Int("sent", report.Sent),
				slog.Int("failed", report.Failed))
			reports = append(reports, ReminderReport{TournamentID: t.ID, Kind: kind, DeliveryReport: *report})
		}
	}
	return reports, errors.Join(errs...)
}

func reminderMessage(t *models.Tournament, kind string) string {
	if kind == models.ReminderHourBefore {
		return fmt.Sprintf("%s starts in 1 hour", t.Name)
	}
	return fmt.Sprintf("%s starts in 24 hours", t.Name)
}

func (s *notificationService) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultNotificationPage
	}
	list, err := s.notifications.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if list == nil {
		return []models.Notification{}, nil
	}
	return list, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	err := s.notifications.MarkRead(ctx, notificationID, userID)
	if errors.Is(err, repositories.ErrNotificationNotFound) {
		return ErrNotificationNotFound
	}
	return err
}
