package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dgallion1/kozlony/internal/config"
	"github.com/dgallion1/kozlony/internal/listing"
	"github.com/dgallion1/kozlony/internal/pipeline"
	"github.com/dgallion1/kozlony/internal/summary"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Fetcher downloads documents from allow-listed hosts.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
	Allowed(rawURL string) bool
}

// IssueLister returns the recent issues from the gazette home page.
type IssueLister interface {
	Latest(ctx context.Context) ([]listing.Item, error)
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Issues       IssueLister
	Fetcher      Fetcher
	Parser       pipeline.DocumentParser
	Summarizer   summary.Summarizer
	Stats        *summary.LLMStats
	Orchestrator *pipeline.Orchestrator
}

// Server is the HTTP API server for kozlony.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	if deps.Summarizer == nil {
		deps.Summarizer = summary.Noop{}
	}
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/api/issues", s.handleIssues)
		r.Get("/api/proxy", s.handleProxy)

		r.Get("/api/toc", s.handleTocFromURL)
		r.Post("/api/toc", s.handleTocUpload)
		r.Post("/api/export/{format}", s.handleExport)
		r.Post("/api/summary", s.handleSummary)

		r.Post("/api/jobs", s.handleSubmitJobs)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
