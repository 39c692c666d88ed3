// Package progress keeps the per-rendition progress of one job and publishes
// it as combined status snapshots.
package progress

import (
	"context"
	"maps"
	"sync"

	"hlstranscoder/internal/model"
	"hlstranscoder/internal/telemetry"

	"go.uber.org/zap"
)

// Publisher delivers status messages to the status sink.
type Publisher interface {
	PublishStatus(ctx context.Context, msg model.StatusMessage) error
}

// Aggregator is shared by every rendition task of a single job.
//
// Each update and the publish of the resulting snapshot happen under one
// lock, so for any label the published percentages never decrease.
type Aggregator struct {
	videoID   string
	publisher Publisher

	mu       sync.Mutex
	progress map[string]int
}

func NewAggregator(videoID string, publisher Publisher) *Aggregator {
	return &Aggregator{
		videoID:   videoID,
		publisher: publisher,
		progress:  make(map[string]int),
	}
}

// Start records 0% for every label and publishes the initial snapshot.
func (a *Aggregator) Start(ctx context.Context, labels []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, l := range labels {
		if _, ok := a.progress[l]; !ok {
			a.progress[l] = 0
		}
	}
	a.publishLocked(ctx, "")
}

// Update stores percent for label and publishes the full snapshot. Values are
// clamped to [0,100] and a lower value than the stored one is ignored.
func (a *Aggregator) Update(ctx context.Context, label string, percent int) {
	percent = min(max(percent, 0), 100)

	a.mu.Lock()
	defer a.mu.Unlock()
	if cur, ok := a.progress[label]; ok && percent < cur {
		percent = cur
	}
	a.progress[label] = percent
	a.publishLocked(ctx, "")
}

// Fail publishes the current snapshot annotated with a rendition failure.
// The label keeps its last percentage.
func (a *Aggregator) Fail(ctx context.Context, label string, cause error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.progress[label]; !ok {
		a.progress[label] = 0
	}
	a.publishLocked(ctx, cause.Error())
}

// Snapshot returns a copy of the current progress map.
func (a *Aggregator) Snapshot() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return maps.Clone(a.progress)
}

// PublishTerminal publishes a phase status (UPLOADING, COMPLETED, ERROR)
// without a progress map. cause may be nil.
func (a *Aggregator) PublishTerminal(ctx context.Context, status model.Status, cause error) error {
	msg := model.StatusMessage{VideoID: a.videoID, Status: status}
	if cause != nil {
		msg.Error = cause.Error()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.publisher.PublishStatus(ctx, msg); err != nil {
		telemetry.Logger.Error("System Error: Failed to publish status",
			zap.String("video_id", a.videoID), zap.String("status", string(status)), zap.Error(err))
		return err
	}
	return nil
}

func (a *Aggregator) publishLocked(ctx context.Context, errText string) {
	msg := model.StatusMessage{
		VideoID:  a.videoID,
		Status:   model.StatusTranscoding,
		Progress: maps.Clone(a.progress),
		Error:    errText,
	}
	if err := a.publisher.PublishStatus(ctx, msg); err != nil {
		telemetry.Logger.Warn("Failed to publish progress",
			zap.String("video_id", a.videoID), zap.Error(err))
	}
}
