package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Server hosts the triage engine HTTP surface.
type Server struct {
	logger   *slog.Logger
	httpSrv  *http.Server
	handlers *Handlers
}

// NewServer builds the HTTP server with all routes registered.
func NewServer(addr string, logger *slog.Logger, handlers *Handlers) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/incidents/analyze", handlers.AnalyzeIncident)
	mux.HandleFunc("GET /api/v1/predict/anomalies", handlers.PredictAnomalies)
	mux.HandleFunc("POST /api/v1/remediation/execute", handlers.ExecuteRemediation)
	mux.HandleFunc("GET /health", handlers.Health)

	return &Server{
		logger:   logger,
		handlers: handlers,
		httpSrv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Start blocks serving HTTP until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("http server listening", slog.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
