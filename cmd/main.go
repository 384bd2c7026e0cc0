package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Dosada05/tournament-matchups/brackets"
	"github.com/Dosada05/tournament-matchups/config"
	"github.com/Dosada05/tournament-matchups/db"
	"github.com/Dosada05/tournament-matchups/handlers"
	"github.com/Dosada05/tournament-matchups/metrics"
	"github.com/Dosada05/tournament-matchups/realtime"
	"github.com/Dosada05/tournament-matchups/repositories"
	api "github.com/Dosada05/tournament-matchups/routes"
	"github.com/Dosada05/tournament-matchups/services"
	"github.com/Dosada05/tournament-matchups/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

const shutdownTimeout = 15 * time.Second

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.Migrate(ctx, dbConn); err != nil {
		logger.Error("failed to apply schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured, avatar uploads are disabled")
	}

	var mailer services.Mailer
	if cfg.SMTPEnabled() {
		mailer = services.NewSMTPMailer(cfg)
		logger.Info("SMTP mailer configured", slog.String("host", cfg.SMTPHost))
	} else {
		logger.Warn("SMTP is not configured, emails are disabled")
	}
	emailService, err := services.NewEmailService(mailer, cfg.PublicURL)
	if err != nil {
		logger.Error("failed to load email templates", slog.Any("error", err))
		os.Exit(1)
	}

	strategy, err := brackets.ParseStrategy(cfg.MatchupStrategy)
	if err != nil {
		logger.Error("invalid matchup strategy", slog.Any("error", err))
		os.Exit(1)
	}
	engine := brackets.NewEngine(brackets.WithStrategy(strategy))

	metricsManager := metrics.NewManager()

	wsHub := realtime.NewHub(
		realtime.WithLogger(logger),
		realtime.WithClientGauge(metricsManager.SetWebsocketClients),
	)
	go wsHub.Run(ctx)
	logger.Info("WebSocket hub started")

	tx := repositories.NewTransactor(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)
	scheduledMatchRepo := repositories.NewPostgresScheduledMatchRepository(dbConn)
	availabilityRepo := repositories.NewPostgresAvailabilityRepository(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(userRepo, logger)
	tournamentService := services.NewTournamentService(tournamentRepo, tx, wsHub, logger)
	participantService := services.NewParticipantService(tournamentRepo, tx, engine, uploader, emailService, wsHub, metricsManager, logger)
	matchupService := services.NewMatchupService(tournamentRepo, tx, engine, wsHub, metricsManager, logger)
	notificationService := services.NewNotificationService(tournamentRepo, notificationRepo, emailService, cfg.BackupEmail, cfg.EmailConcurrency, metricsManager, logger)
	scheduleService := services.NewScheduleService(tournamentRepo, courtRepo, scheduledMatchRepo, tx, logger)
	availabilityService := services.NewAvailabilityService(tournamentRepo, availabilityRepo, logger)
	dashboardService := services.NewDashboardService(userRepo, tournamentRepo, scheduledMatchRepo, notificationRepo)
	logger.Info("services initialized", slog.String("strategy", string(engine.Strategy())))

	go runReminders(ctx, notificationService, cfg.ReminderInterval, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:         handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		Tournament:   handlers.NewTournamentHandler(tournamentService),
		Participant:  handlers.NewParticipantHandler(participantService),
		Matchup:      handlers.NewMatchupHandler(matchupService),
		Notification: handlers.NewNotificationHandler(notificationService),
		Schedule:     handlers.NewScheduleHandler(scheduleService),
		Availability: handlers.NewAvailabilityHandler(availabilityService),
		Dashboard:    handlers.NewDashboardHandler(dashboardService),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins, logger),
		Health:       handlers.NewHealthHandler(dbConn),
	}, api.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        metricsManager,
	})
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stop()
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	stop()
	logger.Info("application exited")
}

// runReminders sends due start reminders until ctx is done. It runs once at
// startup so a restart does not miss a window.
func runReminders(ctx context.Context, ns services.NotificationService, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		logger.Warn("reminder scheduler disabled", slog.Duration("interval", interval))
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("reminder scheduler started", slog.Duration("interval", interval))

	run := func() {
		reports, err := ns.SendReminders(ctx, time.Now())
		if err != nil {
			logger.Error("reminder run failed", slog.Any("error", err))
		}
		for _, r := range reports {
			logger.Info("reminder sent",
				slog.String("tournament_id", r.TournamentID.String()),
				slog.String("kind", r.Kind),
				slog.Int("emails_sent", r.Sent),
				slog.Int("emails_failed", r.Failed))
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
