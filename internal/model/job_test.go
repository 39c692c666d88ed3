package model

import (
	"encoding/json"
	"errors"
	"testing"

	"hlstranscoder/internal/quality"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJob(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
		wantID  string
	}{
		{"Valid", `{"videoId":"abc","path":"uploads/abc.mp4","bucket":"raw"}`, nil, "abc"},
		{"TrimsVideoID", `{"videoId":"  abc ","path":"p","bucket":"b"}`, nil, "abc"},
		{"MissingVideoID", `{"path":"p","bucket":"b"}`, ErrMissingVideoID, ""},
		{"SlashInVideoID", `{"videoId":"a/b","path":"p","bucket":"b"}`, ErrInvalidVideoID, "a/b"},
		{"MissingPath", `{"videoId":"abc","bucket":"b"}`, ErrMissingPath, "abc"},
		{"MissingBucket", `{"videoId":"abc","path":"p"}`, ErrMissingBucket, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := DecodeJob(tt.payload)
			assert.Equal(t, tt.wantID, job.VideoID)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			var intake *IntakeError
			require.ErrorAs(t, err, &intake)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.payload, intake.Payload)
		})
	}
}

func TestDecodeJobMalformedJSON(t *testing.T) {
	_, err := DecodeJob(`{"videoId":`)
	var intake *IntakeError
	require.ErrorAs(t, err, &intake)
}

func TestStatusMessageNulls(t *testing.T) {
	b, err := json.Marshal(StatusMessage{Status: StatusError, Error: "boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"videoId":null,"progress":null,"status":"ERROR","error":"boom"}`, string(b))

	b, err = json.Marshal(StatusMessage{
		VideoID:  "v1",
		Status:   StatusTranscoding,
		Progress: map[string]int{"720p": 40, "360p": 100},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"videoId":"v1","progress":{"720p":40,"360p":100},"status":"TRANSCODING","error":null}`, string(b))

	var back StatusMessage
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "v1", back.VideoID)
	assert.Equal(t, 40, back.Progress["720p"])
	assert.Empty(t, back.Error)
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusError.IsTerminal())
	assert.False(t, StatusTranscoding.IsTerminal())
	assert.False(t, StatusUploading.IsTerminal())
}

func TestErrorTaxonomyUnwraps(t *testing.T) {
	cause := errors.New("exit status 1")
	l, _ := quality.ByLabel("720p")

	err := error(&EncodeError{Quality: l, Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "encode 720p: exit status 1", err.Error())

	for _, err := range []error{
		&ProbeError{Path: "x", Err: cause},
		&DownloadError{Bucket: "b", Key: "k", Err: cause},
		&AssemblyError{Path: "m", Err: cause},
		&UploadError{Bucket: "b", Prefix: "v", Err: cause},
		&CleanupError{Path: "w", Err: cause},
		&IntakeError{Err: cause},
	} {
		assert.ErrorIs(t, err, cause, "%T", err)
	}
}
