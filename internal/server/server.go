// Package server exposes a cleaned listings table over a read-only HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/KaramelBytes/carlot-cli/internal/charts"
	"github.com/KaramelBytes/carlot-cli/internal/dataset"
	"github.com/KaramelBytes/carlot-cli/internal/logging"
)

// Options tunes chart and table output.
type Options struct {
	HistogramBins int
	ChartWidth    int
	ChartHeight   int
	// HeadRows is the default row limit for /api/rows; 0 returns every row.
	HeadRows int
}

// Server serves views of one table. The table is shared read-only; every
// request derives its own view.
type Server struct {
	table  *dataset.Table
	opt    Options
	logger *slog.Logger
	router chi.Router
}

// New builds the router for t.
func New(t *dataset.Table, opt Options, logger *slog.Logger) *Server {
	if opt.HistogramBins <= 0 {
		opt.HistogramBins = charts.DefaultBins
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{table: t, opt: opt, logger: logger}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	s.RegisterRoutes(r)
	s.router = r
	return s
}

// RegisterRoutes mounts the API on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", s.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.Summary)
		r.Get("/types", s.Types)
		r.Get("/rows", s.Rows)
	})
	r.Route("/charts", func(r chi.Router) {
		r.Get("/price-histogram.png", s.PriceHistogram)
		r.Get("/odometer-price.png", s.MileagePrice)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		l := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(ww, r.WithContext(logging.NewContext(r.Context(), l)))
		l.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", ln.Addr().String(), "rows", s.table.Len())
		errCh <- srv.Serve(ln)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.logger.Info("dashboard stopped")
		return nil
	}
}
