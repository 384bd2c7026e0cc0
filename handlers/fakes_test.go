package handlers_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/Dosada05/tournament-matchups/middleware"
	"github.com/Dosada05/tournament-matchups/models"
	"github.com/Dosada05/tournament-matchups/services"
	"github.com/google/uuid"
)

var testSecret = []byte("handlers-test-secret")

func bearer(user *models.User) string {
	token, err := middleware.IssueToken(testSecret, user, time.Now())
	if err != nil {
		panic(err)
	}
	return "Bearer " + token
}

func do(h http.Handler, method, target, body, auth string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type fakeTournamentService struct {
	tournament *models.Tournament
	err        error

	lastActor  services.Actor
	lastFilter services.ListTournamentsInput
	lastCreate services.CreateTournamentInput
	lastStatus models.TournamentStatus
}

func (f *fakeTournamentService) Create(_ context.Context, actor services.Actor, input services.CreateTournamentInput) (*models.Tournament, error) {
	f.lastActor, f.lastCreate = actor, input
	if f.err != nil {
		return nil, f.err
	}
	creator := actor.UserID
	return &models.Tournament{ID: uuid.New(), Name: input.Name, CreatorID: &creator}, nil
}

func (f *fakeTournamentService) GetByID(_ context.Context, _ uuid.UUID) (*models.Tournament, error) {
	return f.tournament, f.err
}

func (f *fakeTournamentService) List(_ context.Context, filter services.ListTournamentsInput) ([]models.Tournament, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return []models.Tournament{}, nil
}

func (f *fakeTournamentService) Update(_ context.Context, actor services.Actor, _ uuid.UUID, _ services.UpdateTournamentInput) (*models.Tournament, error) {
	f.lastActor = actor
	return f.tournament, f.err
}

func (f *fakeTournamentService) UpdateStatus(_ context.Context, actor services.Actor, _ uuid.UUID, status models.TournamentStatus) (*models.Tournament, error) {
	f.lastActor, f.lastStatus = actor, status
	return f.tournament, f.err
}

func (f *fakeTournamentService) Delete(_ context.Context, actor services.Actor, _ uuid.UUID) error {
	f.lastActor = actor
	return f.err
}

type fakeParticipantService struct {
	err error

	lastActor  services.Actor
	lastName   string
	lastJoin   services.JoinInput
	lastAvatar services.AvatarInput
	avatarBody string
}

func (f *fakeParticipantService) Join(_ context.Context, actor services.Actor, _ uuid.UUID, input services.JoinInput) (*services.JoinResult, error) {
	f.lastActor, f.lastJoin = actor, input
	if f.err != nil {
		return nil, f.err
	}
	return &services.JoinResult{Participant: models.Participant{Name: input.Name}}, nil
}

func (f *fakeParticipantService) Remove(_ context.Context, actor services.Actor, _ uuid.UUID, name string) (*models.Tournament, error) {
	f.lastActor, f.lastName = actor, name
	if f.err != nil {
		return nil, f.err
	}
	return &models.Tournament{}, nil
}

func (f *fakeParticipantService) UploadAvatar(_ context.Context, _ uuid.UUID, name string, input services.AvatarInput) (*models.Participant, error) {
	f.lastName, f.lastAvatar = name, input
	body, _ := io.ReadAll(input.Body)
	f.avatarBody = string(body)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Participant{Name: name, Image: "https://cdn.example.com/a.png"}, nil
}

type fakeMatchupService struct {
	err error

	lastTieGroup *int
	lastResult   services.RecordResultInput
	lastNames    []string
}

func (f *fakeMatchupService) Generate(context.Context, services.Actor, uuid.UUID) (*services.GenerateResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.GenerateResult{Tournament: &models.Tournament{}}, nil
}

func (f *fakeMatchupService) RecordResult(_ context.Context, _ services.Actor, _ uuid.UUID, input services.RecordResultInput) (*models.Tournament, error) {
	f.lastResult = input
	if f.err != nil {
		return nil, f.err
	}
	return &models.Tournament{}, nil
}

func (f *fakeMatchupService) ClearResults(context.Context, services.Actor, uuid.UUID) (*models.Tournament, error) {
	return &models.Tournament{}, f.err
}

func (f *fakeMatchupService) Standings(_ context.Context, id uuid.UUID) (*services.Standings, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.Standings{TournamentID: id}, nil
}

func (f *fakeMatchupService) Spin(_ context.Context, _ uuid.UUID, tieGroup *int) (*services.SpinOutcome, error) {
	f.lastTieGroup = tieGroup
	if f.err != nil {
		return nil, f.err
	}
	return &services.SpinOutcome{TieGroup: tieGroup, Entrants: 4}, nil
}

func (f *fakeMatchupService) SpinNames(_ context.Context, names []string) (*services.SpinOutcome, error) {
	f.lastNames = names
	if f.err != nil {
		return nil, f.err
	}
	return &services.SpinOutcome{Entrants: len(names)}, nil
}

type fakeAvailabilityService struct {
	err error

	lastActor services.Actor
	lastPut   services.PutAvailabilityInput
}

func (f *fakeAvailabilityService) Get(_ context.Context, actor services.Actor, tournamentID uuid.UUID) (*models.PlayerAvailability, error) {
	f.lastActor = actor
	if f.err != nil {
		return nil, f.err
	}
	return &models.PlayerAvailability{TournamentID: tournamentID, UserID: actor.UserID, AvailableTimes: models.TimeSlots{}}, nil
}

func (f *fakeAvailabilityService) Put(_ context.Context, actor services.Actor, tournamentID uuid.UUID, input services.PutAvailabilityInput) (*models.PlayerAvailability, error) {
	f.lastActor, f.lastPut = actor, input
	if f.err != nil {
		return nil, f.err
	}
	return &models.PlayerAvailability{TournamentID: tournamentID, UserID: actor.UserID, AvailableTimes: input.AvailableTimes}, nil
}

type fakeNotificationService struct {
	err error

	lastUser   uuid.UUID
	lastUnread bool
	lastLimit  int
}

func (f *fakeNotificationService) Announce(context.Context, services.Actor, uuid.UUID, services.AnnouncementInput) (*services.DeliveryReport, error) {
	return &services.DeliveryReport{}, f.err
}

func (f *fakeNotificationService) SendBackup(context.Context, services.Actor, uuid.UUID) error {
	return f.err
}

func (f *fakeNotificationService) SendReminders(context.Context, time.Time) ([]services.ReminderReport, error) {
	return nil, f.err
}

func (f *fakeNotificationService) ListForUser(_ context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	f.lastUser, f.lastUnread, f.lastLimit = userID, unreadOnly, limit
	return []models.Notification{}, f.err
}

func (f *fakeNotificationService) MarkRead(_ context.Context, userID, _ uuid.UUID) error {
	f.lastUser = userID
	return f.err
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }
