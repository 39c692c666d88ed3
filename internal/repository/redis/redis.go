package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"hlstranscoder/internal/config"
	"hlstranscoder/internal/model"
	"hlstranscoder/internal/telemetry"

	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisClient is the queue and status sink used by the worker and the API.
//
// DequeueJob moves the payload onto a processing list; it stays there until
// AckJob removes it. Payloads stranded by a crash are moved back by
// RequeueStranded, which is how redelivery happens.
type RedisClient interface {
	EnqueueJob(ctx context.Context, job string) error
	DequeueJob(ctx context.Context) (string, error)
	AckJob(ctx context.Context, job string) error
	RequeueStranded(ctx context.Context) (int, error)
	PublishStatus(ctx context.Context, msg model.StatusMessage) error
	Ping(ctx context.Context) error
	Close() error
}

type DefaultRedisClient struct {
	client          *redis.Client
	jobQueue        string
	processingQueue string
	statusQueue     string
	statusMode      string
	dequeueTimeout  time.Duration
}

func NewDefaultRedisClient(cfg config.RedisConfig) (*DefaultRedisClient, error) {
	options := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := redis.NewClient(options)
	_, err := client.Ping(context.Background()).Result()
	if err != nil {
		telemetry.Logger.Error("System Error: Failed to connect to Redis", zap.String("addr", cfg.Addr), zap.Error(err))
		return nil, err
	}
	telemetry.Logger.Info("Connected to Redis", zap.String("addr", cfg.Addr))

	return newWithClient(client, cfg), nil
}

func newWithClient(client *redis.Client, cfg config.RedisConfig) *DefaultRedisClient {
	timeout := cfg.DequeueTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DefaultRedisClient{
		client:          client,
		jobQueue:        cfg.JobQueue,
		processingQueue: cfg.ProcessingQueue,
		statusQueue:     cfg.StatusQueue,
		statusMode:      cfg.StatusMode,
		dequeueTimeout:  timeout,
	}
}

// EnqueueJob pushes a job onto the Redis jobQueue, using LPUSH.
func (r *DefaultRedisClient) EnqueueJob(ctx context.Context, job string) error {
	err := r.client.LPush(ctx, r.jobQueue, job).Err()
	if err != nil {
		telemetry.Logger.Error("System Error: Failed to enqueue job in Redis", zap.String("queue", r.jobQueue), zap.Error(err))
		return err
	}
	telemetry.Logger.Info("Job enqueued in Redis", zap.String("queue", r.jobQueue))
	return nil
}

// DequeueJob waits for a job with BRPOPLPUSH, leaving a copy on the
// processing list. An empty string with a nil error means the wait timed out.
func (r *DefaultRedisClient) DequeueJob(ctx context.Context) (string, error) {
	job, err := r.client.BRPopLPush(ctx, r.jobQueue, r.processingQueue, r.dequeueTimeout).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			telemetry.Logger.Debug("No job available in Redis queue", zap.String("queue", r.jobQueue))
			return "", nil
		}
		telemetry.Logger.Error("System Error: Failed to dequeue job from Redis", zap.String("queue", r.jobQueue), zap.Error(err))
		return "", err
	}
	telemetry.Logger.Info("Job dequeued from Redis", zap.String("queue", r.jobQueue))
	return job, nil
}

// AckJob removes one copy of job from the processing list.
func (r *DefaultRedisClient) AckJob(ctx context.Context, job string) error {
	removed, err := r.client.LRem(ctx, r.processingQueue, 1, job).Result()
	if err != nil {
		telemetry.Logger.Error("System Error: Failed to acknowledge job", zap.String("queue", r.processingQueue), zap.Error(err))
		return err
	}
	if removed == 0 {
		telemetry.Logger.Warn("Acknowledged job was not on the processing list", zap.String("queue", r.processingQueue))
	}
	return nil
}

// RequeueStranded moves every payload on the processing list back to the
// job queue. Call it only while no worker shares the processing list.
func (r *DefaultRedisClient) RequeueStranded(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := r.client.RPopLPush(ctx, r.processingQueue, r.jobQueue).Err()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			telemetry.Logger.Error("System Error: Failed to requeue stranded job", zap.Error(err))
			return moved, err
		}
		moved++
	}
	if moved > 0 {
		telemetry.Logger.Info("Requeued stranded jobs", zap.Int("count", moved), zap.String("queue", r.jobQueue))
	}
	return moved, nil
}

// PublishStatus sends msg to the status list (LPUSH) or channel (PUBLISH).
func (r *DefaultRedisClient) PublishStatus(ctx context.Context, msg model.StatusMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if r.statusMode == config.StatusModePubSub {
		return r.client.Publish(ctx, r.statusQueue, body).Err()
	}
	return r.client.LPush(ctx, r.statusQueue, body).Err()
}

func (r *DefaultRedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client connection
func (r *DefaultRedisClient) Close() error {
	err := r.client.Close()
	if err != nil {
		telemetry.Logger.Error("System Error: Failed to close Redis client", zap.Error(err))
		return err
	}
	telemetry.Logger.Info("Redis client closed")
	return nil
}
