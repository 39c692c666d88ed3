package service

import (
	"hlstranscoder/internal/repository/redis"
	"hlstranscoder/internal/storage"
	"hlstranscoder/internal/telemetry"
)

// Services holds all application dependencies
type Services struct {
	Metrics telemetry.MetricsClient
	Redis   redis.RedisClient
	Storage storage.Store
}

// NewServices creates a new Services instance
func NewServices(metrics telemetry.MetricsClient, redisClient redis.RedisClient, store storage.Store) *Services {
	return &Services{
		Metrics: metrics,
		Redis:   redisClient,
		Storage: store,
	}
}
