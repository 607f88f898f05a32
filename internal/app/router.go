package app

import (
	"database/sql"
	"net/http"
	"time"

	"examsched/internal/app/apiresp"
	"examsched/internal/app/observability"
	"examsched/internal/auth"
	"examsched/internal/exam"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg Config, db *sql.DB) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	obs := observability.NewCollector(db)
	r.Use(obs.Middleware)

	authSvc := auth.NewService(db, auth.ServiceConfig{
		BcryptCost: cfg.BcryptCost,
	})
	authHandler := auth.NewHandler(authSvc)

	examSvc := exam.NewService(db)
	examHandler := exam.NewHandler(examSvc)

	signupLimiter := NewIPRateLimiter(cfg.SignupRateLimitPerMin, time.Minute)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		apiresp.WriteOK(w, r, http.StatusOK, map[string]string{"status": "up"})
	})
	r.Get("/metricsz", obs.MetricsHandler)

	r.Group(func(pub chi.Router) {
		pub.Use(RateLimitMiddleware(signupLimiter))
		pub.Post("/signup", authHandler.Signup)
	})

	r.Group(func(secure chi.Router) {
		secure.Use(CSRFMiddleware(cfg.CSRFEnforced))
		secure.Use(authHandler.RequireAuth)

		secure.Get("/me", authHandler.Me)

		secure.Post("/exams", examHandler.Add)
		secure.Get("/exams", examHandler.List)
		secure.Get("/exams/export", examHandler.Export)
		secure.Get("/exams/{id}", examHandler.Get)
		secure.Put("/exams/{id}", examHandler.Update)
		secure.Delete("/exams/{id}", examHandler.Delete)
	})

	return r
}
