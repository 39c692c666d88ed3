package model

import (
	"encoding/json"
	"strings"
)

// VideoJob is one inbound transcoding request. VideoID also namespaces every
// derived output path.
type VideoJob struct {
	VideoID string `json:"videoId"`
	Path    string `json:"path"`
	Bucket  string `json:"bucket"`
}

// DecodeJob parses a queue payload. A payload that is not JSON or lacks a
// videoId is an IntakeError; the returned job carries whatever was decoded.
func DecodeJob(payload string) (VideoJob, error) {
	var job VideoJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return job, &IntakeError{Payload: payload, Err: err}
	}
	job.VideoID = strings.TrimSpace(job.VideoID)
	if err := job.Validate(); err != nil {
		return job, &IntakeError{Payload: payload, Err: err}
	}
	return job, nil
}

// Validate checks the fields required to process the job.
func (j VideoJob) Validate() error {
	if j.VideoID == "" {
		return ErrMissingVideoID
	}
	if strings.Contains(j.VideoID, "/") || j.VideoID == "." || j.VideoID == ".." {
		return ErrInvalidVideoID
	}
	if strings.TrimSpace(j.Path) == "" {
		return ErrMissingPath
	}
	if strings.TrimSpace(j.Bucket) == "" {
		return ErrMissingBucket
	}
	return nil
}
