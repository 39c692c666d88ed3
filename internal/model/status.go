package model

import "encoding/json"

// Status is the phase reported to status consumers.
type Status string

const (
	StatusTranscoding Status = "TRANSCODING"
	StatusUploading   Status = "UPLOADING"
	StatusCompleted   Status = "COMPLETED"
	StatusError       Status = "ERROR"
)

// IsTerminal reports whether no further status follows s for a job.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// StatusMessage is published to the status sink. Each TRANSCODING message
// carries the whole progress map, not a delta.
type StatusMessage struct {
	VideoID  string
	Progress map[string]int
	Status   Status
	Error    string
}

type statusWire struct {
	VideoID  *string        `json:"videoId"`
	Progress map[string]int `json:"progress"`
	Status   Status         `json:"status"`
	Error    *string        `json:"error"`
}

// MarshalJSON renders empty fields as null.
func (m StatusMessage) MarshalJSON() ([]byte, error) {
	w := statusWire{Status: m.Status}
	if m.VideoID != "" {
		w.VideoID = &m.VideoID
	}
	if len(m.Progress) > 0 {
		w.Progress = m.Progress
	}
	if m.Error != "" {
		w.Error = &m.Error
	}
	return json.Marshal(w)
}

func (m *StatusMessage) UnmarshalJSON(data []byte) error {
	var w statusWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = StatusMessage{Status: w.Status, Progress: w.Progress}
	if w.VideoID != nil {
		m.VideoID = *w.VideoID
	}
	if w.Error != nil {
		m.Error = *w.Error
	}
	return nil
}
