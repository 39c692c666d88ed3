package main

import (
	"context"
	"os/signal"
	"syscall"

	"hlstranscoder/internal/api"
	"hlstranscoder/internal/config"
	"hlstranscoder/internal/encoder"
	"hlstranscoder/internal/pipeline"
	"hlstranscoder/internal/probe"
	"hlstranscoder/internal/repository/redis"
	"hlstranscoder/internal/service"
	"hlstranscoder/internal/storage"
	"hlstranscoder/internal/telemetry"
	"hlstranscoder/internal/worker"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.Logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if err := telemetry.Configure(telemetry.LogConfig{
		Level:            cfg.Log.Level,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	}); err != nil {
		telemetry.Logger.Fatal("Failed to configure logger", zap.Error(err))
	}
	defer telemetry.Logger.Sync()

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, closeFn, err := buildServices(cfg)
	if err != nil {
		telemetry.Logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer closeFn()

	telemetry.Logger.Info("Starting application", zap.String("mode", cfg.App.Mode))
	if err := run(ctx, cfg, svc); err != nil {
		telemetry.Logger.Fatal("Application error", zap.String("mode", cfg.App.Mode), zap.Error(err))
	}
}

func buildServices(cfg *config.Config) (*service.Services, func(), error) {
	metrics, err := telemetry.NewDefaultMetricsClient()
	if err != nil {
		return nil, nil, err
	}
	redisClient, err := redis.NewDefaultRedisClient(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.New(cfg.Storage)
	if err != nil {
		redisClient.Close()
		return nil, nil, err
	}
	return service.NewServices(metrics, redisClient, store), func() { redisClient.Close() }, nil
}

func newOrchestrator(cfg *config.Config, svc *service.Services) *pipeline.Orchestrator {
	prober := probe.NewProber(probe.FFprobe{
		Binary:       cfg.FFmpeg.FFprobePath,
		CountPackets: cfg.FFmpeg.CountPackets,
	})
	enc := encoder.New(encoder.FFmpeg{Binary: cfg.FFmpeg.FFmpegPath})
	return pipeline.NewOrchestrator(svc.Storage, svc.Redis, prober, enc, svc.Metrics, pipeline.Options{
		WorkDir:           cfg.Worker.WorkDir,
		OutputBucket:      cfg.Storage.OutputBucket,
		UploadConcurrency: cfg.Storage.UploadConcurrency,
	})
}

func run(ctx context.Context, cfg *config.Config, svc *service.Services) error {
	switch cfg.App.Mode {
	case "server", "api":
		return api.NewServer(svc, cfg.HTTP.Port, cfg.Storage.OutputBucket).Start(ctx)
	case "worker":
		if cfg.Metrics.Enabled {
			go func() {
				if err := telemetry.ServeMetrics(ctx, cfg.Metrics.Port); err != nil {
					telemetry.Logger.Error("System Error: Metrics server stopped", zap.Error(err))
				}
			}()
		}
		workerSvc := worker.NewWorkerService(svc, newOrchestrator(cfg, svc), nil)
		workerSvc.RequeueOnStart(cfg.Worker.RequeueOnStart)
		if err := workerSvc.Start(ctx); err != nil {
			return err
		}
		workerSvc.Wait()
		return nil
	default:
		telemetry.Logger.Fatal("Unknown application mode", zap.String("mode", cfg.App.Mode))
		return nil
	}
}
