package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"hlstranscoder/internal/model"
	"hlstranscoder/internal/service"
	"hlstranscoder/internal/storage"
	"hlstranscoder/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server encapsulates the HTTP server functionality
type Server struct {
	services     *service.Services
	port         string
	outputBucket string
	server       *http.Server
}

// NewServer creates a new API server with the provided services. When the
// configured store can check buckets, /healthz also checks outputBucket.
func NewServer(svc *service.Services, port, outputBucket string) *Server {
	if port == "" {
		port = "8080"
	}

	return &Server{
		services:     svc,
		port:         port,
		outputBucket: outputBucket,
	}
}

// Handler returns the router with every endpoint registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/submit", s.handleSubmitJob)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start initializes routes and starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         ":" + s.port,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		telemetry.Logger.Info("Starting server", zap.String("port", s.port))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		telemetry.Logger.Info("Shutting down server gracefully")
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// handleSubmitJob validates a VideoJob and pushes it onto the job queue.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var job model.VideoJob
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		telemetry.Logger.Error("User error: Failed to decode job from request", zap.Error(err))
		s.services.Metrics.IncrementServerRequestCounter("failed")
		http.Error(w, "Invalid job format", http.StatusBadRequest)
		return
	}
	if err := job.Validate(); err != nil {
		telemetry.Logger.Error("User error: Invalid job", zap.String("video_id", job.VideoID), zap.Error(err))
		s.services.Metrics.IncrementServerRequestCounter("failed")
		http.Error(w, "Invalid job: "+err.Error(), http.StatusBadRequest)
		return
	}

	jobBytes, err := json.Marshal(job)
	if err != nil {
		telemetry.Logger.Error("System Error: Failed to marshal job into JSON string", zap.Error(err))
		s.services.Metrics.IncrementServerRequestCounter("failed")
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.services.Redis.EnqueueJob(ctx, string(jobBytes)); err != nil {
		telemetry.Logger.Error("System Error: Failed to enqueue job", zap.Error(err))
		s.services.Metrics.IncrementServerRequestCounter("failed")
		http.Error(w, "Failed to enqueue job", http.StatusInternalServerError)
		return
	}

	telemetry.Logger.Info("Job submitted successfully",
		zap.String("video_id", job.VideoID),
		zap.String("bucket", job.Bucket),
		zap.String("path", job.Path),
	)

	s.services.Metrics.IncrementQueuePushCounter("job_pushed")
	s.services.Metrics.IncrementServerRequestCounter("success")
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.services.Redis.Ping(ctx); err != nil {
		telemetry.Logger.Warn("Health check failed", zap.Error(err))
		http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
		return
	}
	if checker, ok := s.services.Storage.(storage.BucketChecker); ok && s.outputBucket != "" {
		exists, err := checker.BucketExists(ctx, s.outputBucket)
		if err != nil || !exists {
			telemetry.Logger.Warn("Health check failed: output bucket unavailable",
				zap.String("bucket", s.outputBucket), zap.Bool("exists", exists), zap.Error(err))
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
