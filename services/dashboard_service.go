package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-matchups/models"
	"github.com/Dosada05/tournament-matchups/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

type dashboardService struct {
	userRepo           repositories.UserRepository
	tournamentRepo     repositories.TournamentRepository
	scheduledMatchRepo repositories.ScheduledMatchRepository
	notificationRepo   repositories.NotificationRepository
}

func NewDashboardService(
	userRepo repositories.UserRepository,
	tournamentRepo repositories.TournamentRepository,
	scheduledMatchRepo repositories.ScheduledMatchRepository,
	notificationRepo repositories.NotificationRepository,
) DashboardService {
	return &dashboardService{
		userRepo:           userRepo,
		tournamentRepo:     tournamentRepo,
		scheduledMatchRepo: scheduledMatchRepo,
		notificationRepo:   notificationRepo,
	}
}

func (s *dashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	var byStatus map[models.TournamentStatus]int

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.UsersTotal, err = s.userRepo.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		byStatus, err = s.tournamentRepo.CountByStatus(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.ParticipantsTotal, err = s.tournamentRepo.CountParticipants(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.ScheduledMatchesTotal, err = s.scheduledMatchRepo.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.UnreadNotificationsSum, err = s.notificationRepo.CountUnread(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, fmt.Errorf("failed to collect dashboard stats: %w", err)
	}

	for _, n := range byStatus {
		stats.TournamentsTotal += n
	}
	stats.ActiveTournaments = byStatus[models.StatusActive]
	stats.RegistrationsOpen = byStatus[models.StatusRegistration]
	return stats, nil
}
