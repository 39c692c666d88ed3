package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result is the decoded JSON output of ffprobe.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes one stream in the container.
type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Duration      string `json:"duration"`
	NBFrames      string `json:"nb_frames"`
	NBReadPackets string `json:"nb_read_packets"`
	AvgFrameRate  string `json:"avg_frame_rate"`
	RFrameRate    string `json:"r_frame_rate"`
}

// Format is container-level metadata.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Inspector runs a probe against a local file.
type Inspector interface {
	Inspect(ctx context.Context, path string) (Result, error)
}

// FFprobe shells out to the ffprobe binary.
type FFprobe struct {
	Binary string
	// CountPackets asks ffprobe to demux the file and count video packets,
	// which gives an exact frame count for containers without nb_frames.
	CountPackets bool
}

// Inspect executes ffprobe against path and decodes the JSON response.
func (f FFprobe) Inspect(ctx context.Context, path string) (Result, error) {
	binary := strings.TrimSpace(f.Binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	args := []string{"-v", "error", "-hide_banner", "-select_streams", "v:0"}
	if f.CountPackets {
		args = append(args, "-count_packets")
	}
	args = append(args, "-show_format", "-show_streams", "-of", "json", "--", path)

	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// VideoStream returns the first video stream.
func (r Result) VideoStream() (Stream, bool) {
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, "video") {
			return s, true
		}
	}
	return Stream{}, false
}

// ExactFrames returns the frame count reported by the container or counted
// by ffprobe, or 0 when neither is present.
func (s Stream) ExactFrames() int64 {
	for _, v := range []string{s.NBFrames, s.NBReadPackets} {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// FrameRate returns the average frame rate, falling back to the base rate.
func (s Stream) FrameRate() float64 {
	if rate := parseRate(s.AvgFrameRate); rate > 0 {
		return rate
	}
	return parseRate(s.RFrameRate)
}

// parseRate parses "30000/1001" or "25". Invalid or zero denominators give 0.
func parseRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	num, den, found := strings.Cut(value, "/")
	if !found {
		return parseFloat(value)
	}
	n, d := parseFloat(num), parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(value string) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) || parsed < 0 {
		return 0
	}
	return parsed
}
