package encoder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// ProgressSink receives frame-level progress. Engines call Report
// synchronously from the goroutine running the encode.
type ProgressSink interface {
	Report(frame, totalFrames int64)
}

// Params fully describes one rendition encode.
type Params struct {
	Input          string
	PlaylistPath   string
	SegmentPattern string
	Width          int
	Height         int
	BitrateKbps    int
	SegmentSeconds int
	TotalFrames    int64
}

// Engine is the external encode capability.
type Engine interface {
	Encode(ctx context.Context, params Params, sink ProgressSink) error
	Thumbnail(ctx context.Context, input, output, at string) error
}

// FFmpeg drives the ffmpeg binary.
type FFmpeg struct {
	Binary string
}

func (f FFmpeg) binary() string {
	if b := strings.TrimSpace(f.Binary); b != "" {
		return b
	}
	return "ffmpeg"
}

// Args builds the ffmpeg command line for params.
func (f FFmpeg) Args(params Params) []string {
	return []string{
		"-hide_banner", "-nostats", "-loglevel", "error", "-y",
		"-i", params.Input,
		"-map", "0:v:0", "-map", "0:a:0?",
		"-c:v", "libx264",
		"-b:v", fmt.Sprintf("%dk", params.BitrateKbps),
		"-vf", fmt.Sprintf("scale=%d:%d", params.Width, params.Height),
		"-c:a", "aac", "-b:a", "128k",
		"-f", "hls",
		"-hls_time", strconv.Itoa(params.SegmentSeconds),
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", params.SegmentPattern,
		"-progress", "pipe:1",
		params.PlaylistPath,
	}
}

// Encode runs ffmpeg and reports each frame= line of its progress stream.
func (f FFmpeg) Encode(ctx context.Context, params Params, sink ProgressSink) error {
	cmd := exec.CommandContext(ctx, f.binary(), f.Args(params)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start: %w", err)
	}

	scanErr := readProgress(stdout, params.TotalFrames, sink)
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(stderr.String(), 512))
	}
	if scanErr != nil {
		return fmt.Errorf("ffmpeg progress: %w", scanErr)
	}
	return nil
}

// Thumbnail extracts one still frame at the given HH:MM:SS timestamp.
func (f FFmpeg) Thumbnail(ctx context.Context, input, output, at string) error {
	cmd := exec.CommandContext(ctx, f.binary(),
		"-hide_banner", "-loglevel", "error", "-y",
		"-ss", at, "-i", input,
		"-frames:v", "1", "-q:v", "2",
		output,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg thumbnail: %w: %s", err, tail(string(out), 512))
	}
	return nil
}

// readProgress consumes "-progress" key=value output until EOF.
func readProgress(r io.Reader, totalFrames int64, sink ProgressSink) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok || key != "frame" {
			continue
		}
		frame, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			continue
		}
		sink.Report(frame, totalFrames)
	}
	return scanner.Err()
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
