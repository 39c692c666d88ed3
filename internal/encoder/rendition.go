package encoder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"hlstranscoder/internal/model"
	"hlstranscoder/internal/quality"
	"hlstranscoder/internal/telemetry"

	"go.uber.org/zap"
)

const (
	SegmentSeconds     = 6
	PlaylistName       = "playlist.m3u8"
	SegmentPattern     = "s_%03d.ts"
	ThumbnailName      = "thumbnail.jpg"
	ThumbnailTimestamp = "00:00:01"
)

// Task is one rendition of one job.
type Task struct {
	Source      string
	OutputDir   string
	Quality     quality.Level
	IsReference bool
	TotalFrames int64
}

// Artifacts lists what a successful rendition left on disk.
type Artifacts struct {
	Quality   quality.Level
	Dir       string
	Playlist  string
	Thumbnail string
}

// ProgressFunc receives normalized percentages for a rendition label.
type ProgressFunc func(label string, percent int)

// Encoder turns a Task into engine parameters and runs it.
type Encoder struct {
	engine Engine
}

func New(engine Engine) *Encoder {
	return &Encoder{engine: engine}
}

// ParamsFor derives the engine parameters for task.
func ParamsFor(task Task) Params {
	dir := filepath.Join(task.OutputDir, task.Quality.Label)
	return Params{
		Input:          task.Source,
		PlaylistPath:   filepath.Join(dir, PlaylistName),
		SegmentPattern: filepath.Join(dir, SegmentPattern),
		Width:          task.Quality.Width,
		Height:         task.Quality.Height,
		BitrateKbps:    task.Quality.BitrateKbps,
		SegmentSeconds: SegmentSeconds,
		TotalFrames:    task.TotalFrames,
	}
}

// Run encodes one rendition. Any failure comes back as *model.EncodeError
// and leaves no thumbnail behind. A thumbnail failure on the reference
// rendition is logged and does not fail the rendition.
func (e *Encoder) Run(ctx context.Context, task Task, onProgress ProgressFunc) (Artifacts, error) {
	params := ParamsFor(task)
	dir := filepath.Dir(params.PlaylistPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Artifacts{}, &model.EncodeError{Quality: task.Quality, Err: err}
	}

	artifacts := Artifacts{Quality: task.Quality, Dir: dir, Playlist: params.PlaylistPath}
	fail := func(err error) (Artifacts, error) {
		if artifacts.Thumbnail != "" {
			if rerr := os.Remove(artifacts.Thumbnail); rerr != nil && !os.IsNotExist(rerr) {
				telemetry.Logger.Warn("Failed to remove thumbnail of failed rendition",
					zap.String("quality", task.Quality.Label), zap.Error(rerr))
			}
		}
		return Artifacts{}, &model.EncodeError{Quality: task.Quality, Err: err}
	}

	if task.IsReference {
		thumb := filepath.Join(task.OutputDir, ThumbnailName)
		if err := e.engine.Thumbnail(ctx, task.Source, thumb, ThumbnailTimestamp); err != nil {
			telemetry.Logger.Warn("Thumbnail extraction failed",
				zap.String("quality", task.Quality.Label), zap.Error(err))
		} else {
			artifacts.Thumbnail = thumb
		}
	}

	sink := &percentSink{label: task.Quality.Label, forward: onProgress, last: -1}
	if err := e.engine.Encode(ctx, params, sink); err != nil {
		return fail(err)
	}
	if _, err := os.Stat(params.PlaylistPath); err != nil {
		return fail(fmt.Errorf("engine finished without a playlist: %w", err))
	}

	onProgress(task.Quality.Label, 100)
	return artifacts, nil
}

// percentSink converts frame callbacks into percentages, forwarding only
// when the percentage grows.
type percentSink struct {
	label   string
	forward ProgressFunc
	last    int
}

func (s *percentSink) Report(frame, totalFrames int64) {
	p := Percent(frame, totalFrames)
	if p <= s.last {
		return
	}
	s.last = p
	s.forward(s.label, p)
}

// Percent is floor(frame/total*100) clamped to [0,100].
func Percent(frame, totalFrames int64) int {
	if totalFrames <= 0 || frame <= 0 {
		return 0
	}
	p := frame * 100 / totalFrames
	if p > 100 {
		return 100
	}
	return int(p)
}
