package worker

import (
	"context"
	"sync"
	"time"

	"hlstranscoder/internal/model"
	"hlstranscoder/internal/pipeline"
	"hlstranscoder/internal/service"
	"hlstranscoder/internal/telemetry"

	"go.uber.org/zap"
)

const (
	dequeueBackoff    = time.Second
	maxDequeueBackoff = 30 * time.Second
)

// JobProcessor runs one decoded job to a terminal status and calls ack
// exactly once after that status is published.
type JobProcessor interface {
	Process(ctx context.Context, job model.VideoJob, ack pipeline.AckFunc) pipeline.Outcome
}

// InternalErrorHandler receives infrastructure failures of the worker loop.
type InternalErrorHandler interface {
	HandleError(err error)
}

type JobError struct {
	JobString string
	error
}

func (e JobError) Unwrap() error { return e.error }

type logErrorHandler struct{}

func (logErrorHandler) HandleError(err error) {
	telemetry.Logger.Error("System Error: Worker error", zap.Error(err))
}

// WorkerService consumes the job queue one job at a time.
type WorkerService struct {
	*service.Services
	processor    JobProcessor
	errorHandler InternalErrorHandler
	requeue      bool
	retryDelay   time.Duration
	wg           sync.WaitGroup
}

// NewWorkerService builds a worker. A nil errorHandler logs errors.
func NewWorkerService(svc *service.Services, processor JobProcessor, errorHandler InternalErrorHandler) *WorkerService {
	if errorHandler == nil {
		errorHandler = logErrorHandler{}
	}
	return &WorkerService{
		Services:     svc,
		processor:    processor,
		errorHandler: errorHandler,
		retryDelay:   dequeueBackoff,
	}
}

// RequeueOnStart makes Start move payloads stranded on the processing list
// back to the job queue before consuming.
func (w *WorkerService) RequeueOnStart(enabled bool) {
	w.requeue = enabled
}

// Start launches the consume loop and returns immediately. The loop stops
// taking new jobs once ctx is done; a job already running finishes.
func (w *WorkerService) Start(ctx context.Context) error {
	if w.requeue {
		if _, err := w.Redis.RequeueStranded(ctx); err != nil {
			return err
		}
	}
	w.wg.Add(1)
	go w.getJobs(ctx)
	return nil
}

// Wait blocks until the consume loop has exited.
func (w *WorkerService) Wait() {
	w.wg.Wait()
}

func (w *WorkerService) getJobs(ctx context.Context) {
	defer w.wg.Done()
	backoff := w.retryDelay
	for {
		if ctx.Err() != nil {
			telemetry.Logger.Info("Worker stopping")
			return
		}

		jobStr, err := w.Redis.DequeueJob(ctx)
		if err != nil {
			if ctx.Err() != nil {
				telemetry.Logger.Info("Worker stopping")
				return
			}
			w.errorHandler.HandleError(JobError{jobStr, err})
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxDequeueBackoff)
			continue
		}
		backoff = w.retryDelay
		if jobStr == "" {
			continue
		}
		w.handle(ctx, jobStr)
	}
}

// handle processes one payload. The job runs on a context that ignores
// ctx's cancellation.
func (w *WorkerService) handle(ctx context.Context, jobStr string) {
	jobCtx := context.WithoutCancel(ctx)
	ack := func(ctx context.Context) error {
		return w.Redis.AckJob(ctx, jobStr)
	}

	job, err := model.DecodeJob(jobStr)
	if err != nil {
		w.reject(jobCtx, job, err, ack)
		return
	}

	telemetry.Logger.Info("Dequeued job", zap.String("video_id", job.VideoID))
	out := w.processor.Process(jobCtx, job, ack)
	telemetry.Logger.Info("Finished job",
		zap.String("video_id", job.VideoID),
		zap.String("state", string(out.Final())),
		zap.Int("renditions", len(out.Completed)))
}

// reject acknowledges a payload that can never be processed. An ERROR
// status goes out when the payload named a video.
func (w *WorkerService) reject(ctx context.Context, job model.VideoJob, cause error, ack pipeline.AckFunc) {
	telemetry.Logger.Error("User error: Rejected job payload", zap.Error(cause))
	if job.VideoID != "" {
		msg := model.StatusMessage{VideoID: job.VideoID, Status: model.StatusError, Error: cause.Error()}
		if err := w.Redis.PublishStatus(ctx, msg); err != nil {
			w.errorHandler.HandleError(JobError{"", err})
		}
	}
	if err := ack(ctx); err != nil {
		w.errorHandler.HandleError(JobError{"", err})
	}
	w.Metrics.IncrementJobCounter("REJECTED")
}
