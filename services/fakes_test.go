package services_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/tournament-matchups/brackets"
	"github.com/Dosada05/tournament-matchups/models"
	"github.com/Dosada05/tournament-matchups/repositories"
	"github.com/Dosada05/tournament-matchups/services"
	"github.com/Dosada05/tournament-matchups/storage"
	"github.com/google/uuid"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newEngine(seed int64) *brackets.Engine {
	return brackets.NewEngine(brackets.WithRandomSource(rand.New(rand.NewSource(seed))))
}

func organizer() services.Actor {
	return services.Actor{UserID: uuid.New(), Role: models.RoleUser}
}

// fakeTx runs fn without a transaction; services must not write before fn
// succeeds, which the fake repository relies on.
type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

func cloneTournament(t models.Tournament) models.Tournament {
	t.Participants = append(models.Participants(nil), t.Participants...)
	t.Matchups = t.Matchups.Clone()
	t.RegisteredUsers = append([]string(nil), t.RegisteredUsers...)
	t.RemindersSent = append([]string(nil), t.RemindersSent...)
	return t
}

type fakeTournamentRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]models.Tournament
	updates int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{items: make(map[uuid.UUID]models.Tournament)}
}

// seed stores a tournament in registration owned by owner.
func (r *fakeTournamentRepo) seed(owner services.Actor, capacity int, names ...string) *models.Tournament {
	creator := owner.UserID
	t := models.Tournament{
		ID:              uuid.New(),
		Name:            "Spring Cup",
		CreatorID:       &creator,
		Status:          models.StatusRegistration,
		MaxParticipants: capacity,
	}
	for _, n := range names {
		t.Participants = append(t.Participants, models.Participant{Name: n})
	}
	r.mu.Lock()
	r.items[t.ID] = cloneTournament(t)
	r.mu.Unlock()
	return &t
}

func (r *fakeTournamentRepo) get(id uuid.UUID) models.Tournament {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneTournament(r.items[id])
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	r.items[t.ID] = cloneTournament(*t)
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	c := cloneTournament(t)
	return &c, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Tournament
	for _, t := range r.items {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, cloneTournament(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	t.UpdatedAt = time.Now()
	r.items[t.ID] = cloneTournament(*t)
	r.updates++
	return nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeTournamentRepo) ListStartingBetween(ctx context.Context, from, to time.Time) ([]models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Tournament
	for _, t := range r.items {
		if t.Status != models.StatusRegistration || t.StartDate == nil {
			continue
		}
		if !t.StartDate.Before(from) && !t.StartDate.After(to) {
			out = append(out, cloneTournament(t))
		}
	}
	return out, nil
}

func (r *fakeTournamentRepo) MarkReminderSent(ctx context.Context, id uuid.UUID, kind string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return false, repositories.ErrTournamentNotFound
	}
	if t.ReminderSent(kind) {
		return false, nil
	}
	t.RemindersSent = append(t.RemindersSent, kind)
	r.items[id] = t
	return true, nil
}

func (r *fakeTournamentRepo) CountByStatus(ctx context.Context) (map[models.TournamentStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[models.TournamentStatus]int)
	for _, t := range r.items {
		out[t.Status]++
	}
	return out, nil
}

func (r *fakeTournamentRepo) CountParticipants(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.items {
		n += len(t.Participants)
	}
	return n, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Email]; ok {
		return repositories.ErrUserEmailConflict
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	r.users[u.Email] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

type fakeNotificationRepo struct {
	mu    sync.Mutex
	items []models.Notification
}

func (r *fakeNotificationRepo) CreateBatch(ctx context.Context, ns []models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range ns {
		n.ID = uuid.New()
		n.CreatedAt = time.Now()
		r.items = append(r.items, n)
	}
	return nil
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.items {
		if n.UserID == userID && (!unreadOnly || !n.Read) && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].UserID == userID {
			r.items[i].Read = true
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.items {
		if !item.Read {
			n++
		}
	}
	return n, nil
}

type fakeCourtRepo struct {
	mu     sync.Mutex
	courts []models.Court
}

func (r *fakeCourtRepo) Create(ctx context.Context, c *models.Court) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.courts {
		if other.TournamentID == c.TournamentID && other.Name == c.Name {
			return repositories.ErrCourtNameConflict
		}
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	r.courts = append(r.courts, *c)
	return nil
}

func (r *fakeCourtRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Court, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.courts {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, repositories.ErrCourtNotFound
}

func (r *fakeCourtRepo) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Court, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Court
	for _, c := range r.courts {
		if c.TournamentID == tournamentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCourtRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.courts {
		if c.ID == id {
			r.courts = append(r.courts[:i], r.courts[i+1:]...)
			return nil
		}
	}
	return repositories.ErrCourtNotFound
}

type availabilityKey struct{ tournament, user uuid.UUID }

type fakeAvailabilityRepo struct {
	mu    sync.Mutex
	items map[availabilityKey]models.PlayerAvailability
}

func newFakeAvailabilityRepo() *fakeAvailabilityRepo {
	return &fakeAvailabilityRepo{items: make(map[availabilityKey]models.PlayerAvailability)}
}

func (r *fakeAvailabilityRepo) Get(ctx context.Context, tournamentID, userID uuid.UUID) (*models.PlayerAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[availabilityKey{tournamentID, userID}]
	if !ok {
		return nil, repositories.ErrAvailabilityNotFound
	}
	a.AvailableTimes = append(models.TimeSlots(nil), a.AvailableTimes...)
	return &a, nil
}

func (r *fakeAvailabilityRepo) Upsert(ctx context.Context, a *models.PlayerAvailability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := availabilityKey{a.TournamentID, a.UserID}
	now := time.Now()
	if prev, ok := r.items[key]; ok {
		a.ID, a.CreatedAt = prev.ID, prev.CreatedAt
	} else {
		a.ID, a.CreatedAt = uuid.New(), now
	}
	a.UpdatedAt = now
	stored := *a
	stored.AvailableTimes = append(models.TimeSlots(nil), a.AvailableTimes...)
	r.items[key] = stored
	return nil
}

type fakeScheduledMatchRepo struct {
	mu      sync.Mutex
	matches []models.ScheduledMatch
}

func (r *fakeScheduledMatchRepo) ReplaceForTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID uuid.UUID, matches []models.ScheduledMatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.matches[:0]
	for _, m := range r.matches {
		if m.TournamentID != tournamentID {
			kept = append(kept, m)
		}
	}
	r.matches = kept
	for i := range matches {
		matches[i].ID = uuid.New()
		matches[i].TournamentID = tournamentID
		r.matches = append(r.matches, matches[i])
	}
	return nil
}

func (r *fakeScheduledMatchRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ScheduledMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, repositories.ErrScheduledMatchNotFound
}

func (r *fakeScheduledMatchRepo) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.ScheduledMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ScheduledMatch
	for _, m := range r.matches {
		if m.TournamentID == tournamentID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeScheduledMatchRepo) Update(ctx context.Context, m *models.ScheduledMatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.matches {
		if r.matches[i].ID == m.ID {
			r.matches[i] = *m
			return nil
		}
	}
	return repositories.ErrScheduledMatchNotFound
}

func (r *fakeScheduledMatchRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.matches {
		if m.ID == id {
			r.matches = append(r.matches[:i], r.matches[i+1:]...)
			return nil
		}
	}
	return repositories.ErrScheduledMatchNotFound
}

func (r *fakeScheduledMatchRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches), nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// fakeMailer fails for every address listed in failFor.
type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	failFor map[string]bool
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[to] {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, s := range m.sent {
		out[i] = s.To
	}
	sort.Strings(out)
	return out
}

type event struct {
	TournamentID uuid.UUID
	Type         string
	Payload      any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []event
}

func (p *fakePublisher) Publish(id uuid.UUID, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event{id, eventType, payload})
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte)}
}

func (u *fakeUploader) Upload(ctx context.Context, key, contentType string, r io.Reader) (*storage.UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = buf.Bytes()
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + strings.TrimPrefix(key, "/")
}

func newEmailService(m services.Mailer) *services.EmailService {
	s, err := services.NewEmailService(m, "https://app.test")
	if err != nil {
		panic(err)
	}
	return s
}
