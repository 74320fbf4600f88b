// Package dashboard serves the gold market indicators over HTTP. It is a
// read-only consumer of the gold layer: every request reads the current flat
// gold file, so a pipeline rerun is visible without restarting the server.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"valeurverte/internal/config"
	"valeurverte/internal/lake"
	"valeurverte/internal/storage"
	"valeurverte/pkg/contracts/domain"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the gold indicators and the analytics report.
type Server struct {
	store      storage.ObjectStore
	goldBucket string
	logger     *slog.Logger
}

// NewServer builds a server from the pipeline configuration.
func NewServer(store storage.ObjectStore, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:      store,
		goldBucket: cfg.Buckets.Gold,
		logger:     logger,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/indicators", s.handleIndicators)
	r.Get("/api/indicators/{departement}", s.handleDepartement)
	r.Get("/api/analytics", s.handleAnalytics)
	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("dashboard listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "healthy"})
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.loadGold(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, map[string]any{
		"count":      len(rows),
		"indicators": rows,
	})
}

func (s *Server) handleDepartement(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.loadGold(w, r)
	if !ok {
		return
	}

	dept := chi.URLParam(r, "departement")
	var filtered []domain.GoldRow
	for _, row := range rows {
		if row.Departement == dept {
			filtered = append(filtered, row)
		}
	}
	if len(filtered) == 0 {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "unknown departement " + dept})
		return
	}
	render.JSON(w, r, map[string]any{
		"departement": dept,
		"count":       len(filtered),
		"indicators":  filtered,
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Get(r.Context(), s.goldBucket, lake.AnalyticsReportKey)
	if err != nil {
		s.logger.Error("analytics report unavailable", slog.String("error", err.Error()))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]string{"error": "analytics report not available yet"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// loadGold reads the flat gold file; on failure it writes a 503 and returns
// ok=false so handlers can bail out.
func (s *Server) loadGold(w http.ResponseWriter, r *http.Request) ([]domain.GoldRow, bool) {
	data, err := s.store.Get(r.Context(), s.goldBucket, lake.GoldCompleteKey)
	if err != nil {
		s.logger.Error("gold dataset unavailable", slog.String("error", err.Error()))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]string{"error": "gold dataset not available yet"})
		return nil, false
	}

	rows, err := lake.UnmarshalParquet[domain.GoldRow](data)
	if err != nil {
		s.logger.Error("gold dataset unreadable", slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "gold dataset is unreadable"})
		return nil, false
	}
	return rows, true
}
