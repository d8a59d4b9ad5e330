package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/prmpt-academy/prmpt-api/internal/auth/middleware"
	"github.com/prmpt-academy/prmpt-api/internal/credits"
	"github.com/prmpt-academy/prmpt-api/internal/events"
	"github.com/prmpt-academy/prmpt-api/internal/judge"
	"github.com/prmpt-academy/prmpt-api/internal/lesson"
	"github.com/prmpt-academy/prmpt-api/internal/logging"
	"github.com/prmpt-academy/prmpt-api/internal/metrics"
	"github.com/prmpt-academy/prmpt-api/internal/rbac"
	"github.com/prmpt-academy/prmpt-api/internal/users"
)

type Deps struct {
	Auth    *auth.AuthService
	Lessons *lesson.Service
	Judge   *judge.Service
	Ledger  *credits.Ledger
	Users   users.Store
	Events  events.Publisher
	Logger  *slog.Logger

	// EventLog backs the admin event feed; nil leaves it unmounted.
	EventLog events.Reader

	// Ready is checked by /readyz.
	Ready map[string]Pinger

	CORSOrigins     []string
	RequestTimeout  time.Duration
	EnableLocalAuth bool
	Login           auth.LoginConfig
	// AllowClaimRole lets the token's app_metadata role stand in when the
	// user has no stored role.
	AllowClaimRole bool
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.RequestLogger(d.Logger), middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", RootHandler())
	r.Get("/health", HealthHandler())
	r.Get("/healthz", HealthHandler())
	r.Get("/readyz", ReadyHandler(d.Ready))
	r.Handle("/metrics", metrics.Handler())

	// Local login (enabled in offline mode by default; can be enabled online via env)
	if d.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Login))
		r.Post("/auth/guest", auth.GuestLoginHandler(d.Auth))
	}

	r.Route("/api", func(ar chi.Router) {
		// Public catalogue
		ar.Get("/levels", ListLevelsHandler(d.Lessons))
		ar.Get("/levels/{levelID}", GetLevelHandler(d.Lessons))

		// Authenticated (JWT → stored role in context → RBAC)
		ar.Group(func(pr chi.Router) {
			pr.Use(auth.JWTMiddleware(d.Auth))
			pr.Use(auth.AttachRole(d.Users, d.AllowClaimRole))

			pr.With(rbac.Require("judge:submit")).
				Post("/judge", JudgeHandler(d.Judge))

			pr.With(rbac.Require("credits:read")).
				Get("/user/credits", GetCreditsHandler(d.Ledger))
			pr.With(rbac.Require("credits:spend")).
				Post("/user/credits/deduct", DeductCreditsHandler(d.Ledger, d.Events))
			pr.With(rbac.Require("credits:read")).
				Post("/user/credits/initialize", InitializeCreditsHandler(d.Ledger))

			pr.Route("/admin", func(adm chi.Router) {
				adm.Group(func(lr chi.Router) {
					lr.Use(rbac.Require("lessons:manage"))
					lr.Get("/lessons", AdminListLessonsHandler(d.Lessons))
					lr.Post("/lessons", AdminCreateLessonHandler(d.Lessons))
					lr.Get("/lessons/{lessonID}", AdminGetLessonHandler(d.Lessons))
					lr.Put("/lessons/{lessonID}", AdminUpdateLessonHandler(d.Lessons))
					lr.Delete("/lessons/{lessonID}", AdminDeleteLessonHandler(d.Lessons))
					lr.Get("/game-types", GameTypesHandler())
				})
				adm.Group(func(ur chi.Router) {
					ur.Use(rbac.Require("users:manage"))
					ur.Get("/users", ListUsersHandler(d.Users))
					ur.Put("/users/{userID}/role", UpdateUserRoleHandler(d.Users))
					ur.Delete("/users/{userID}", DeleteUserHandler(d.Users))
				})
				if d.EventLog != nil {
					adm.With(rbac.Require("events:read")).
						Get("/events", ListEventsHandler(d.EventLog))
				}
			})
		})
	})

	return r
}
