package http

import (
	"log/slog"
	"net/http"

	"siteplan/internal/auth"
	"siteplan/internal/config"
	"siteplan/internal/http/handler"
	mw "siteplan/internal/http/middleware"
	"siteplan/internal/notify"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, jwtSvc *auth.JWT, proc notify.BatchProcessor, q handler.Enqueuer, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ph := &handler.ProcessHandler{Processor: proc, Logger: logger}
	eh := &handler.EnqueueHandler{Queue: q, Logger: logger}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(jwtSvc, auth.RoleService))

		r.Post("/functions/process-notification-queue", ph.Process)
		r.Post("/notifications", eh.Enqueue)
	})

	return r
}
