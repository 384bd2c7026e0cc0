package routes

import (
	"net/http"

	"github.com/Dosada05/tournament-matchups/handlers"
	"github.com/Dosada05/tournament-matchups/metrics"
	"github.com/Dosada05/tournament-matchups/middleware"
	"github.com/Dosada05/tournament-matchups/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers bundles everything SetupRoutes mounts.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Tournament   *handlers.TournamentHandler
	Participant  *handlers.ParticipantHandler
	Matchup      *handlers.MatchupHandler
	Notification *handlers.NotificationHandler
	Schedule     *handlers.ScheduleHandler
	Availability *handlers.AvailabilityHandler
	Dashboard    *handlers.DashboardHandler
	WebSocket    *handlers.WebSocketHandler
	Health       *handlers.HealthHandler
}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	Metrics        *metrics.Manager
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if opts.Metrics != nil {
		router.Use(middleware.Metrics(opts.Metrics))
		router.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	authenticate := middleware.Authenticate(opts.JWTSecret)
	optionalAuth := middleware.OptionalAuthenticate(opts.JWTSecret)

	router.Get("/healthz", h.Health.Healthz)
	router.Get(handlers.SwaggerDocPath, handlers.SwaggerDoc)
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(handlers.SwaggerDocPath)))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)
	router.Post("/wheel", h.Matchup.SpinNames)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.ListHandler)
		r.With(authenticate).Post("/", h.Tournament.CreateHandler)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", h.Tournament.GetByIDHandler)
			r.Get("/standings", h.Matchup.Standings)
			r.Post("/wheel", h.Matchup.Spin)
			r.With(optionalAuth).Post("/participants", h.Participant.Join)
			r.Post("/participants/{name}/avatar", h.Participant.UploadAvatar)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)

				r.Patch("/", h.Tournament.UpdateHandler)
				r.Patch("/status", h.Tournament.UpdateStatusHandler)
				r.Delete("/", h.Tournament.DeleteHandler)

				r.Delete("/participants/{name}", h.Participant.Remove)

				r.Post("/matchups", h.Matchup.Generate)
				r.Post("/matchups/results", h.Matchup.RecordResult)
				r.Delete("/matchups/results", h.Matchup.ClearResults)

				r.Post("/announcements", h.Notification.Announce)
				r.Post("/backup", h.Notification.Backup)

				r.Get("/courts", h.Schedule.ListCourts)
				r.Post("/courts", h.Schedule.CreateCourt)
				r.Get("/schedule", h.Schedule.List)
				r.Post("/schedule", h.Schedule.Generate)

				r.Get("/availability", h.Availability.Get)
				r.Put("/availability", h.Availability.Put)
			})
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Delete("/courts/{courtID}", h.Schedule.DeleteCourt)
		r.Patch("/schedule/{matchID}", h.Schedule.Update)
		r.Delete("/schedule/{matchID}", h.Schedule.Delete)

		r.Get("/notifications", h.Notification.List)
		r.Post("/notifications/{notificationID}/read", h.Notification.MarkRead)

		r.With(middleware.RequireRole(models.RoleAdmin)).Get("/admin/dashboard", h.Dashboard.Stats)
	})
}
