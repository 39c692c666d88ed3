// Package playlist writes the HLS master manifest for a job.
package playlist

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"hlstranscoder/internal/model"
	"hlstranscoder/internal/quality"
)

const (
	MasterName        = "master.m3u8"
	RenditionPlaylist = "playlist.m3u8"
)

// Render produces the master playlist for the completed levels. Entries
// follow ladder order (descending bitrate) regardless of the order of
// completed; levels not in completed are left out.
func Render(completed []quality.Level) []byte {
	done := make(map[string]bool, len(completed))
	for _, l := range completed {
		done[l.Label] = true
	}

	var b bytes.Buffer
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")
	for _, l := range quality.Ladder() {
		if !done[l.Label] {
			continue
		}
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%s,NAME=\"%s\"\n",
			l.Bandwidth(), l.Resolution(), l.Label)
		b.WriteString(path.Join(l.Label, RenditionPlaylist))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// WriteMaster writes the master playlist as baseDir/fileName. The file is
// written to a temporary name and renamed into place.
func WriteMaster(baseDir string, completed []quality.Level, fileName string) (string, error) {
	if fileName == "" {
		fileName = MasterName
	}
	target := filepath.Join(baseDir, fileName)

	tmp, err := os.CreateTemp(baseDir, ".master-*")
	if err != nil {
		return "", &model.AssemblyError{Path: target, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(Render(completed)); err != nil {
		tmp.Close()
		return "", &model.AssemblyError{Path: target, Err: err}
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return "", &model.AssemblyError{Path: target, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &model.AssemblyError{Path: target, Err: err}
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", &model.AssemblyError{Path: target, Err: err}
	}
	return target, nil
}
