package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/tournament-matchups/models"
	"github.com/Dosada05/tournament-matchups/services"
	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
)

func withEmails(repo *fakeTournamentRepo, id uuid.UUID, emails map[string]string, users ...uuid.UUID) {
	stored := repo.get(id)
	for i := range stored.Participants {
		stored.Participants[i].Email = emails[stored.Participants[i].Name]
	}
	for _, u := range users {
		stored.RegisteredUsers = append(stored.RegisteredUsers, u.String())
	}
	_ = repo.Update(context.Background(), nil, &stored)
}

func TestNotificationService_Announce(t *testing.T) {
	Convey("Given participants with and without working addresses", t, func() {
		repo := newFakeTournamentRepo()
		notes := &fakeNotificationRepo{}
		mailer := &fakeMailer{failFor: map[string]bool{"bob@example.com": true}}
		svc := services.NewNotificationService(repo, notes, newEmailService(mailer), "", 2, nil, discardLogger)
		ctx := context.Background()
		owner := organizer()
		userA, userB := uuid.New(), uuid.New()

		tour := repo.seed(owner, 8, "Ann", "Bob", "Cid", "Dan")
		withEmails(repo, tour.ID, map[string]string{
			"Ann": "ann@example.com",
			"Bob": "bob@example.com",
			"Cid": "broken",
		}, userA, userB)

		Convey("When the organizer announces", func() {
			report, err := svc.Announce(ctx, owner, tour.ID, services.AnnouncementInput{Subject: "Delay", Message: "We start at 7pm"})
			So(err, ShouldBeNil)

			Convey("Then every usable address is tried and counted", func() {
				So(report.Participants, ShouldEqual, 4)
				So(report.Recipients, ShouldEqual, 2)
				So(report.Sent, ShouldEqual, 1)
				So(report.Failed, ShouldEqual, 1)
				So(mailer.recipients(), ShouldResemble, []string{"ann@example.com"})
				So(mailer.sent[0].Subject, ShouldEqual, "Spring Cup: Delay")
				So(mailer.sent[0].Body, ShouldContainSubstring, "We start at 7pm")
			})

			Convey("And each registered user gets an in-app notification", func() {
				So(report.InApp, ShouldEqual, 2)
				list, err := svc.ListForUser(ctx, userA, true, 0)
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 1)
				So(list[0].Type, ShouldEqual, models.NotificationAnnouncement)

				So(svc.MarkRead(ctx, userA, list[0].ID), ShouldBeNil)
				unread, _ := svc.ListForUser(ctx, userA, true, 0)
				So(unread, ShouldBeEmpty)
				So(errors.Is(svc.MarkRead(ctx, userB, list[0].ID), services.ErrNotificationNotFound), ShouldBeTrue)
			})
		})

		Convey("When the message is blank", func() {
			_, err := svc.Announce(ctx, owner, tour.ID, services.AnnouncementInput{Subject: "Hi"})
			So(errors.Is(err, services.ErrValidationFailed), ShouldBeTrue)
		})

		Convey("When a stranger announces", func() {
			_, err := svc.Announce(ctx, organizer(), tour.ID, services.AnnouncementInput{Subject: "Hi", Message: "x"})
			So(errors.Is(err, services.ErrForbiddenOperation), ShouldBeTrue)
		})
	})

	Convey("Given email is not configured", t, func() {
		repo := newFakeTournamentRepo()
		svc := services.NewNotificationService(repo, &fakeNotificationRepo{}, newEmailService(nil), "backup@example.com", 2, nil, discardLogger)
		owner := organizer()
		tour := repo.seed(owner, 8, "Ann")
		withEmails(repo, tour.ID, map[string]string{"Ann": "ann@example.com"})

		Convey("Announcements still succeed without emails", func() {
			report, err := svc.Announce(context.Background(), owner, tour.ID, services.AnnouncementInput{Subject: "Hi", Message: "x"})
			So(err, ShouldBeNil)
			So(report.Sent+report.Failed, ShouldEqual, 0)
		})

		Convey("Backups are unavailable", func() {
			err := svc.SendBackup(context.Background(), owner, tour.ID)
			So(errors.Is(err, services.ErrEmailDisabled), ShouldBeTrue)
		})
	})
}

func TestNotificationService_SendBackup(t *testing.T) {
	Convey("Given a backup address", t, func() {
		repo := newFakeTournamentRepo()
		mailer := &fakeMailer{}
		svc := services.NewNotificationService(repo, &fakeNotificationRepo{}, newEmailService(mailer), "backup@example.com", 2, nil, discardLogger)
		owner := organizer()
		tour := repo.seed(owner, 8, "A", "B", "C", "D")
		stored := repo.get(tour.ID)
		a, _ := newEngine(1).Generate(stored.Participants)
		stored.Matchups = a.Matchups
		_ = repo.Update(context.Background(), nil, &stored)

		Convey("The backup lists participants and their progress", func() {
			So(svc.SendBackup(context.Background(), owner, tour.ID), ShouldBeNil)
			So(mailer.recipients(), ShouldResemble, []string{"backup@example.com"})
			So(mailer.sent[0].Subject, ShouldEqual, "Tournament Backup: Spring Cup")
			So(mailer.sent[0].Body, ShouldContainSubstring, tour.ID.String())
			So(mailer.sent[0].Body, ShouldContainSubstring, "0/3 matches completed")
		})
	})
}

func TestNotificationService_SendReminders(t *testing.T) {
	Convey("Given tournaments starting at different times", t, func() {
		repo := newFakeTournamentRepo()
		notes := &fakeNotificationRepo{}
		mailer := &fakeMailer{}
		svc := services.NewNotificationService(repo, notes, newEmailService(mailer), "", 4, nil, discardLogger)
		ctx := context.Background()
		now := time.Date(2030, 3, 10, 12, 0, 0, 0, time.UTC)
		user := uuid.New()

		schedule := func(name string, start time.Time, status models.TournamentStatus) uuid.UUID {
			tour := repo.seed(organizer(), 8, "Ann")
			withEmails(repo, tour.ID, map[string]string{"Ann": name + "@example.com"}, user)
			stored := repo.get(tour.ID)
			stored.StartDate = &start
			stored.Status = status
			_ = repo.Update(ctx, nil, &stored)
			return tour.ID
		}
		dayAhead := schedule("day", now.Add(24*time.Hour+10*time.Minute), models.StatusRegistration)
		hourAhead := schedule("hour", now.Add(50*time.Minute), models.StatusRegistration)
		schedule("far", now.Add(3*time.Hour), models.StatusRegistration)
		schedule("active", now.Add(time.Hour), models.StatusActive)

		Convey("When the scheduler runs", func() {
			reports, err := svc.SendReminders(ctx, now)
			So(err, ShouldBeNil)

			Convey("Then only tournaments inside a window are reminded", func() {
				So(reports, ShouldHaveLength, 2)
				So(mailer.recipients(), ShouldResemble, []string{"day@example.com", "hour@example.com"})
				So(repo.get(dayAhead).RemindersSent, ShouldResemble, []string{models.ReminderDayBefore})
				So(repo.get(hourAhead).RemindersSent, ShouldResemble, []string{models.ReminderHourBefore})
			})

			Convey("And registered users get in-app reminders", func() {
				list, _ := svc.ListForUser(ctx, user, false, 10)
				So(list, ShouldHaveLength, 2)
				So(list[0].Type, ShouldEqual, models.NotificationReminder)
			})

			Convey("And a second run sends nothing", func() {
				again, err := svc.SendReminders(ctx, now.Add(5*time.Minute))
				So(err, ShouldBeNil)
				So(again, ShouldBeEmpty)
				So(mailer.recipients(), ShouldHaveLength, 2)
			})
		})
	})
}
