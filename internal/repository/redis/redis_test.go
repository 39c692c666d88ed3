package redis

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"hlstranscoder/internal/config"
	"hlstranscoder/internal/model"

	redis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a disposable Redis; set REDIS_TEST_ADDR to run them.
func testClient(t *testing.T, mode string) *DefaultRedisClient {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	prefix := "test:" + t.Name()
	cfg := config.RedisConfig{
		Addr:            addr,
		JobQueue:        prefix + ":jobs",
		ProcessingQueue: prefix + ":processing",
		StatusQueue:     prefix + ":status",
		StatusMode:      mode,
		DequeueTimeout:  time.Second,
	}
	c, err := NewDefaultRedisClient(cfg)
	require.NoError(t, err)
	ctx := context.Background()
	c.client.Del(ctx, cfg.JobQueue, cfg.ProcessingQueue, cfg.StatusQueue)
	t.Cleanup(func() {
		c.client.Del(ctx, cfg.JobQueue, cfg.ProcessingQueue, cfg.StatusQueue)
		c.Close()
	})
	return c
}

func TestDequeueAckLifecycle(t *testing.T) {
	c := testClient(t, config.StatusModeList)
	ctx := context.Background()

	require.NoError(t, c.EnqueueJob(ctx, `{"videoId":"a"}`))
	require.NoError(t, c.EnqueueJob(ctx, `{"videoId":"b"}`))

	job, err := c.DequeueJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"videoId":"a"}`, job, "FIFO order")
	assert.Equal(t, int64(1), c.client.LLen(ctx, c.processingQueue).Val())

	require.NoError(t, c.AckJob(ctx, job))
	assert.Equal(t, int64(0), c.client.LLen(ctx, c.processingQueue).Val())
}

func TestDequeueTimeoutReturnsEmpty(t *testing.T) {
	c := testClient(t, config.StatusModeList)
	job, err := c.DequeueJob(context.Background())
	require.NoError(t, err)
	assert.Empty(t, job)
}

func TestRequeueStranded(t *testing.T) {
	c := testClient(t, config.StatusModeList)
	ctx := context.Background()

	require.NoError(t, c.EnqueueJob(ctx, `{"videoId":"a"}`))
	_, err := c.DequeueJob(ctx)
	require.NoError(t, err)

	moved, err := c.RequeueStranded(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	job, err := c.DequeueJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"videoId":"a"}`, job)
}

func TestPublishStatusList(t *testing.T) {
	c := testClient(t, config.StatusModeList)
	ctx := context.Background()

	msg := model.StatusMessage{VideoID: "a", Status: model.StatusTranscoding, Progress: map[string]int{"720p": 10}}
	require.NoError(t, c.PublishStatus(ctx, msg))

	raw, err := c.client.RPop(ctx, c.statusQueue).Result()
	require.NoError(t, err)
	var got model.StatusMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, msg, got)
}

func TestPublishStatusPubSub(t *testing.T) {
	c := testClient(t, config.StatusModePubSub)
	ctx := context.Background()

	sub := c.client.Subscribe(ctx, c.statusQueue)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, c.PublishStatus(ctx, model.StatusMessage{VideoID: "a", Status: model.StatusCompleted}))

	select {
	case m := <-sub.Channel():
		assert.JSONEq(t, `{"videoId":"a","progress":null,"status":"COMPLETED","error":null}`, m.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("no status message received")
	}
}

func TestNewWithClientDefaultsTimeout(t *testing.T) {
	c := newWithClient(redis.NewClient(&redis.Options{Addr: "localhost:0"}), config.RedisConfig{})
	assert.Equal(t, 30*time.Second, c.dequeueTimeout)
}
