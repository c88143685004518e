// Package router assembles the HTTP surface: middleware chain, /api routes,
// health and metrics.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/skillshare/backend/internal/auth"
	"github.com/skillshare/backend/internal/chat"
	"github.com/skillshare/backend/internal/handlers"
	"github.com/skillshare/backend/internal/middleware"
	"github.com/skillshare/backend/internal/services"
)

type Handlers struct {
	Auth     *auth.Handler
	Skills   *handlers.SkillHandler
	Bookings *handlers.BookingHandler
	Accounts *handlers.AccountHandler
	Projects *handlers.ProjectHandler
	Chat     *chat.Handler
}

type Options struct {
	Tokens         middleware.TokenValidator
	Validator      middleware.BodyValidator
	AllowedOrigins []string
	MetricsEnabled bool
	Logger         *slog.Logger
}

// New returns the root handler. Everything except /health and /metrics lives
// under /api.
func New(h Handlers, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	v := func(schema string) func(http.Handler) http.Handler {
		return middleware.ValidateJSON(opts.Validator, schema)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	if opts.MetricsEnabled {
		r.Use(middleware.Metrics)
	}
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if opts.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(opts.Tokens))

		r.Route("/auth", func(r chi.Router) {
			r.With(v(services.SchemaSignup)).Post("/signup", h.Auth.Signup)
			r.With(v(services.SchemaSignin)).Post("/signin", h.Auth.Signin)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(middleware.RequireUser).Get("/me", h.Accounts.GetMe)
			r.Get("/{id}", h.Accounts.GetProfile)
			r.Get("/{id}/transactions", h.Accounts.ListTransactions)
			r.Get("/{id}/transactions/export", h.Accounts.ExportTransactions)
			r.Get("/{id}/balance", h.Accounts.GetBalance)
		})
		r.With(middleware.RequireUser, v(services.SchemaDonate)).Post("/credits/donate", h.Accounts.Donate)

		r.Route("/skills", func(r chi.Router) {
			r.Get("/", h.Skills.List)
			r.With(v(services.SchemaSkillCreate)).Post("/", h.Skills.Create)
			r.Get("/nearby", h.Skills.Nearby)
			r.Get("/{id}", h.Skills.Get)
			r.With(middleware.RequireUser).Delete("/{id}", h.Skills.Deactivate)
			r.Get("/{id}/reviews", h.Skills.ListReviews)
			r.With(middleware.RequireUser, v(services.SchemaReviewCreate)).Post("/{id}/reviews", h.Skills.CreateReview)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", h.Bookings.List)
			r.With(v(services.SchemaBookingCreate)).Post("/", h.Bookings.Create)
			r.With(v(services.SchemaBookingStatus)).Put("/", h.Bookings.UpdateStatus)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.Projects.List)
			r.With(middleware.RequireUser, v(services.SchemaProjectCreate)).Post("/", h.Projects.Create)
			r.With(middleware.RequireUser).Post("/{id}/join", h.Projects.Join)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/rooms", h.Chat.ListRooms)
			r.With(v(services.SchemaRoomCreate)).Post("/rooms", h.Chat.CreateRoom)
			r.Get("/rooms/{id}/messages", h.Chat.ListMessages)
			r.With(v(services.SchemaMessageSend)).Post("/rooms/{id}/messages", h.Chat.SendMessage)
			r.With(v(services.SchemaMessageStatus)).Put("/rooms/{id}/messages/{messageID}", h.Chat.UpdateMessageStatus)
			r.Get("/stream", h.Chat.Stream)
		})
	})

	return r
}
