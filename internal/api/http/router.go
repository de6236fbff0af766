package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/mind-engage/examsim/internal/auth/middleware"
	"github.com/mind-engage/examsim/internal/decode"
	"github.com/mind-engage/examsim/internal/exam"
	"github.com/mind-engage/examsim/internal/extract"
	"github.com/mind-engage/examsim/internal/rbac"
	"github.com/mind-engage/examsim/internal/storage"
	syncx "github.com/mind-engage/examsim/internal/sync"
)

// EventLog is the part of syncx.EventRepo the handlers use.
type EventLog interface {
	Append(ctx context.Context, e syncx.Event) error
	Since(ctx context.Context, after int64, limit int) ([]syncx.Event, error)
}

// Deps wires the handlers. Blobs and Events are optional.
type Deps struct {
	Store     exam.Store
	Auth      *auth.AuthService
	Decoders  *decode.Registry
	Extractor *extract.Extractor
	Blobs     storage.BlobStore
	Events    EventLog
	Logger    *slog.Logger

	AdminUser     string
	AdminPassHash string

	MaxUploadBytes  int64
	DefaultDuration time.Duration // applied when neither the form nor the profile sets one
	TokenTTL        time.Duration
	CORSOrigins     []string

	// Ready reports whether backing services are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

func (d *Deps) defaults() {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Extractor == nil {
		d.Extractor = extract.New(extract.WithLogger(d.Logger))
	}
	if d.Decoders == nil {
		d.Decoders = decode.NewRegistry(decode.Capabilities{})
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 16 << 20
	}
	if d.TokenTTL <= 0 {
		d.TokenTTL = 12 * time.Hour
	}
}

// NewRouter mounts the public, candidate and admin routes.
func NewRouter(d Deps) http.Handler {
	d.defaults()

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})

	// Public: stateless utilities and self-service upload.
	r.Get("/capabilities", CapabilitiesHandler(d.Decoders))
	r.Post("/extract", ExtractHandler(d.Extractor, d.MaxUploadBytes))
	r.Post("/score", ScoreHandler(d.MaxUploadBytes))
	r.Post("/exams", UploadExamHandler(d))
	r.Post("/auth/login", auth.LoginHandler(d.Auth, d.AdminUser, d.AdminPassHash))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		// Candidate: the token subject is the attempt id.
		own := func(r *http.Request) bool {
			id := auth.AttemptFromContext(r.Context())
			return id != "" && id == chi.URLParam(r, "attemptID")
		}
		pr.With(rbac.Require("attempt:view-own"), rbac.RequireOwnerOr("attempt:view-all", own)).
			Get("/attempts/{attemptID}", GetAttemptHandler(d))
		pr.With(rbac.Require("exam:view"), rbac.RequireOwnerOr("attempt:view-all", own)).
			Get("/attempts/{attemptID}/exam", GetAttemptExamHandler(d.Store))
		pr.With(rbac.Require("attempt:answer"), rbac.RequireOwnerOr("attempt:answer-all", own)).
			Post("/attempts/{attemptID}/answers", SaveAnswerHandler(d.Store))
		pr.With(rbac.Require("attempt:navigate"), rbac.RequireOwnerOr("attempt:navigate-all", own)).
			Post("/attempts/{attemptID}/navigate", NavigateHandler(d.Store))
		pr.With(rbac.Require("attempt:submit"), rbac.RequireOwnerOr("attempt:submit-all", own)).
			Post("/attempts/{attemptID}/submit", SubmitAttemptHandler(d))
		pr.With(rbac.Require("attempt:view-own"), rbac.RequireOwnerOr("attempt:view-all", own)).
			Get("/attempts/{attemptID}/results", ResultsHandler(d))
		pr.With(rbac.Require("attempt:restart"), rbac.RequireOwnerOr("attempt:restart-all", own)).
			Post("/attempts/{attemptID}/restart", RestartHandler(d))

		// Admin
		pr.With(rbac.Require("exam:list")).Get("/exams", ListExamsHandler(d.Store))
		pr.With(rbac.Require("exam:view-all")).Get("/exams/{id}", GetExamAdminHandler(d.Store))
		pr.With(rbac.Require("attempt:view-all")).Get("/attempts", ListAttemptsHandler(d.Store))
		pr.With(rbac.Require("exam:export")).Get("/exams/{id}/export", ExportQTIHandler(d.Store))
		pr.With(rbac.Require("exam:source")).Get("/exams/{id}/source", SourceHandler(d.Store, d.Blobs))
		pr.With(rbac.Require("events:read")).Get("/events", EventsHandler(d.Events))
	})
	return r
}
