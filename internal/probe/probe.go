// Package probe extracts the source facts a job needs before encoding: the
// total frame count that drives progress percentages and the detected
// quality that bounds the rendition ladder.
package probe

import (
	"context"
	"errors"
	"fmt"

	"hlstranscoder/internal/model"
	"hlstranscoder/internal/quality"
)

var (
	errNoVideoStream = errors.New("no video stream")
	errNoFrameCount  = errors.New("frame count unavailable and duration or frame rate missing")
	errNoResolution  = errors.New("resolution unavailable")
)

// SourceInfo is derived once per job.
type SourceInfo struct {
	TotalFrames int64
	Width       int
	Height      int
	Quality     quality.Level
}

// Prober derives SourceInfo from an Inspector.
type Prober struct {
	inspector Inspector
}

func NewProber(inspector Inspector) *Prober {
	return &Prober{inspector: inspector}
}

// Probe inspects path once and derives both the frame count and the quality.
func (p *Prober) Probe(ctx context.Context, path string) (SourceInfo, error) {
	stream, err := p.videoStream(ctx, path)
	if err != nil {
		return SourceInfo{}, err
	}
	frames, err := totalFrames(path, stream)
	if err != nil {
		return SourceInfo{}, err
	}
	level, err := detectedQuality(path, stream)
	if err != nil {
		return SourceInfo{}, err
	}
	return SourceInfo{
		TotalFrames: frames,
		Width:       stream.Width,
		Height:      stream.Height,
		Quality:     level,
	}, nil
}

// TotalFrames returns the exact frame count, or duration × average frame
// rate truncated when no exact count is available.
func (p *Prober) TotalFrames(ctx context.Context, path string) (int64, error) {
	stream, err := p.videoStream(ctx, path)
	if err != nil {
		return 0, err
	}
	return totalFrames(path, stream)
}

// DetectedQuality maps the source height onto the ladder.
func (p *Prober) DetectedQuality(ctx context.Context, path string) (quality.Level, error) {
	stream, err := p.videoStream(ctx, path)
	if err != nil {
		return quality.Level{}, err
	}
	return detectedQuality(path, stream)
}

func (p *Prober) videoStream(ctx context.Context, path string) (Stream, error) {
	result, err := p.inspector.Inspect(ctx, path)
	if err != nil {
		return Stream{}, &model.ProbeError{Path: path, Err: err}
	}
	stream, ok := result.VideoStream()
	if !ok {
		return Stream{}, &model.ProbeError{Path: path, Err: errNoVideoStream}
	}
	// Stream durations are missing in some containers (mkv, webm).
	if parseFloat(stream.Duration) == 0 {
		stream.Duration = result.Format.Duration
	}
	return stream, nil
}

func totalFrames(path string, stream Stream) (int64, error) {
	if n := stream.ExactFrames(); n > 0 {
		return n, nil
	}
	seconds := parseFloat(stream.Duration)
	rate := stream.FrameRate()
	frames := int64(seconds * rate)
	if frames <= 0 {
		return 0, &model.ProbeError{Path: path, Err: errNoFrameCount}
	}
	return frames, nil
}

func detectedQuality(path string, stream Stream) (quality.Level, error) {
	if stream.Width <= 0 || stream.Height <= 0 {
		return quality.Level{}, &model.ProbeError{Path: path, Err: errNoResolution}
	}
	level, ok := quality.ForHeight(stream.Height)
	if !ok {
		return quality.Level{}, &model.ProbeError{
			Path: path,
			Err:  fmt.Errorf("height %d is below the lowest rendition", stream.Height),
		}
	}
	return level, nil
}
