package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hlstranscoder/internal/model"
	"hlstranscoder/internal/service"
	"hlstranscoder/test/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *mocks.MetricsClient, *mocks.RedisClient) {
	t.Helper()
	metricsMock := mocks.NewMetricsClient(t)
	redisMock := mocks.NewRedisClient(t)

	svc := &service.Services{
		Metrics: metricsMock,
		Redis:   redisMock,
	}
	return NewServer(svc, "0", "encoded"), metricsMock, redisMock
}

// checkingStore is a Store that can also report bucket existence.
type checkingStore struct {
	*mocks.Store
	exists bool
	err    error
	asked  []string
}

func (c *checkingStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	c.asked = append(c.asked, bucket)
	return c.exists, c.err
}

// TestHandleSubmitJob tests the handleSubmitJob method using mockery-generated mocks
func TestHandleSubmitJob(t *testing.T) {
	server, metricsMock, redisMock := newTestServer(t)

	job := model.VideoJob{VideoID: "v1", Bucket: "raw", Path: "uploads/v1.mp4"}
	jobJSON, err := json.Marshal(job)
	require.NoError(t, err, "failed to marshal job payload")

	metricsMock.On("IncrementQueuePushCounter", "job_pushed").Return()
	metricsMock.On("IncrementServerRequestCounter", "success").Return()
	redisMock.On("EnqueueJob", mock.Anything, string(jobJSON)).Return(nil)

	req, err := http.NewRequest("POST", "/submit", bytes.NewBuffer(jobJSON))
	require.NoError(t, err, "failed to create HTTP request")
	rr := httptest.NewRecorder()

	server.handleSubmitJob(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code, "expected HTTP 202 Accepted status")
}

// Test for method not allowed
func TestHandleSubmitJobMethodNotAllowed(t *testing.T) {
	server, _, _ := newTestServer(t)

	req, err := http.NewRequest("GET", "/submit", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	server.handleSubmitJob(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandleSubmitJobBadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"BrokenJSON", `{"videoId": "v1", "path":}`},
		{"MissingVideoID", `{"path": "uploads/a.mp4", "bucket": "raw"}`},
		{"NestedVideoID", `{"videoId": "a/b", "path": "uploads/a.mp4", "bucket": "raw"}`},
		{"MissingBucket", `{"videoId": "v1", "path": "uploads/a.mp4"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, metricsMock, _ := newTestServer(t)
			metricsMock.On("IncrementServerRequestCounter", "failed").Return().Once()

			req, _ := http.NewRequest("POST", "/submit", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			server.handleSubmitJob(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

// Test for Redis failure
func TestHandleSubmitJobRedisFailure(t *testing.T) {
	server, metricsMock, redisMock := newTestServer(t)

	metricsMock.On("IncrementServerRequestCounter", "failed").Return()
	redisMock.On("EnqueueJob", mock.Anything, mock.AnythingOfType("string")).Return(
		errors.New("redis connection error"),
	)

	jobJSON, _ := json.Marshal(model.VideoJob{VideoID: "v1", Bucket: "raw", Path: "uploads/v1.mp4"})
	req, _ := http.NewRequest("POST", "/submit", bytes.NewBuffer(jobJSON))
	rr := httptest.NewRecorder()

	server.handleSubmitJob(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHealth(t *testing.T) {
	server, _, redisMock := newTestServer(t)
	redisMock.On("Ping", mock.Anything).Return(nil).Once()
	redisMock.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()

	handler := server.Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestHealthChecksOutputBucket(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
		err    error
		want   int
	}{
		{"Present", true, nil, http.StatusOK},
		{"Missing", false, nil, http.StatusServiceUnavailable},
		{"Unreachable", false, errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _, redisMock := newTestServer(t)
			redisMock.On("Ping", mock.Anything).Return(nil).Once()
			store := &checkingStore{Store: mocks.NewStore(t), exists: tt.exists, err: tt.err}
			server.services.Storage = store

			rr := httptest.NewRecorder()
			server.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))

			assert.Equal(t, tt.want, rr.Code)
			assert.Equal(t, []string{"encoded"}, store.asked)
		})
	}
}
