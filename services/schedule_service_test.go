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

func TestBuildSchedule(t *testing.T) {
	Convey("Given four participants with a full round of matchups", t, func() {
		a, err := newEngine(5).Generate(models.Participants{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}})
		So(err, ShouldBeNil)
		start := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

		Convey("With two courts", func() {
			courts := []models.Court{{ID: uuid.New(), Name: "1"}, {ID: uuid.New(), Name: "2"}}
			out := services.BuildSchedule(a.Matchups, courts, &start, 20)

			Convey("Then every unordered pair appears once, numbered from 1", func() {
				So(out, ShouldHaveLength, 6)
				seen := map[string]bool{}
				for i, m := range out {
					So(m.MatchNumber, ShouldEqual, i+1)
					key := m.Participant1Name + m.Participant2Name
					if m.Participant2Name < m.Participant1Name {
						key = m.Participant2Name + m.Participant1Name
					}
					So(seen[key], ShouldBeFalse)
					seen[key] = true
					So(m.Status, ShouldEqual, models.ScheduledStatusScheduled)
				}
			})

			Convey("Then courts alternate and slots advance once both are used", func() {
				for i, m := range out {
					So(*m.CourtID, ShouldEqual, courts[i%2].ID)
					So(*m.ScheduledTime, ShouldEqual, start.Add(time.Duration(i/2)*20*time.Minute))
					So(*m.DurationMinutes, ShouldEqual, 20)
				}
			})
		})

		Convey("Without courts or a start time", func() {
			out := services.BuildSchedule(a.Matchups, nil, nil, 30)

			Convey("Then matches are unplaced", func() {
				So(out, ShouldHaveLength, 6)
				for _, m := range out {
					So(m.CourtID, ShouldBeNil)
					So(m.ScheduledTime, ShouldBeNil)
				}
			})
		})
	})
}

func TestScheduleService(t *testing.T) {
	Convey("Given a tournament with courts", t, func() {
		tournaments := newFakeTournamentRepo()
		courts := &fakeCourtRepo{}
		matches := &fakeScheduledMatchRepo{}
		svc := services.NewScheduleService(tournaments, courts, matches, fakeTx{}, discardLogger)
		ctx := context.Background()
		owner := organizer()
		tour := tournaments.seed(owner, 8, "A", "B", "C", "D")

		court, err := svc.CreateCourt(ctx, owner, tour.ID, services.CreateCourtInput{Name: " Court 1 ", Location: strPtr("  ")})
		So(err, ShouldBeNil)
		So(court.Name, ShouldEqual, "Court 1")
		So(court.Location, ShouldBeNil)

		Convey("Duplicate court names are rejected", func() {
			_, err := svc.CreateCourt(ctx, owner, tour.ID, services.CreateCourtInput{Name: "Court 1"})
			So(errors.Is(err, services.ErrCourtNameConflict), ShouldBeTrue)
		})

		Convey("A schedule needs matchups", func() {
			_, err := svc.Generate(ctx, owner, tour.ID, services.GenerateScheduleInput{})
			So(errors.Is(err, services.ErrMatchupsNotGenerated), ShouldBeTrue)
		})

		Convey("Once matchups exist", func() {
			stored := tournaments.get(tour.ID)
			a, _ := newEngine(2).Generate(stored.Participants)
			stored.Matchups = a.Matchups
			_ = tournaments.Update(ctx, nil, &stored)

			list, err := svc.Generate(ctx, owner, tour.ID, services.GenerateScheduleInput{})
			So(err, ShouldBeNil)

			Convey("Then the schedule is stored with the default duration", func() {
				So(list, ShouldHaveLength, 6)
				So(*list[0].DurationMinutes, ShouldEqual, services.DefaultMatchDuration)
				stored, _ := svc.List(ctx, tour.ID)
				So(stored, ShouldHaveLength, 6)
			})

			Convey("Then regenerating replaces it", func() {
				_, err := svc.Generate(ctx, owner, tour.ID, services.GenerateScheduleInput{DurationMinutes: 15})
				So(err, ShouldBeNil)
				stored, _ := svc.List(ctx, tour.ID)
				So(stored, ShouldHaveLength, 6)
			})

			Convey("Then a match can be moved and canceled", func() {
				at := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
				canceled := models.ScheduledStatusCanceled
				updated, err := svc.Update(ctx, owner, list[0].ID, services.UpdateScheduledMatchInput{ScheduledTime: &at, Status: &canceled})
				So(err, ShouldBeNil)
				So(*updated.ScheduledTime, ShouldEqual, at)
				So(updated.Status, ShouldEqual, models.ScheduledStatusCanceled)

				_, err = svc.Update(ctx, owner, list[0].ID, services.UpdateScheduledMatchInput{DurationMinutes: intPtr(0)})
				So(errors.Is(err, services.ErrInvalidDuration), ShouldBeTrue)
			})

			Convey("Then only the organizer can delete a match", func() {
				So(errors.Is(svc.Delete(ctx, organizer(), list[0].ID), services.ErrForbiddenOperation), ShouldBeTrue)
				So(svc.Delete(ctx, owner, list[0].ID), ShouldBeNil)
				So(errors.Is(svc.Delete(ctx, owner, list[0].ID), services.ErrScheduledMatchNotFound), ShouldBeTrue)
			})
		})

		Convey("Courts can be listed and deleted", func() {
			list, err := svc.ListCourts(ctx, tour.ID)
			So(err, ShouldBeNil)
			So(list, ShouldHaveLength, 1)
			So(svc.DeleteCourt(ctx, owner, court.ID), ShouldBeNil)
			So(errors.Is(svc.DeleteCourt(ctx, owner, court.ID), services.ErrCourtNotFound), ShouldBeTrue)
		})
	})
}
