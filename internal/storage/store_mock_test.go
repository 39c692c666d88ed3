package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"hlstranscoder/internal/storage"
	"hlstranscoder/test/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFetchPassesObjectToStore(t *testing.T) {
	storeMock := mocks.NewStore(t)
	dir := t.TempDir()
	storeMock.On("Download", mock.Anything, "raw", "uploads/v1.mov", filepath.Join(dir, "v1.mov")).Return(nil).Once()

	local, err := storage.Fetch(context.Background(), storeMock, "raw", "uploads/v1.mov", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "v1.mov"), local)
}

func TestUploadTreeSetsContentType(t *testing.T) {
	root := t.TempDir()
	seg := filepath.Join(root, "360p", "s_000.ts")
	require.NoError(t, os.MkdirAll(filepath.Dir(seg), 0o755))
	require.NoError(t, os.WriteFile(seg, []byte("seg"), 0o644))

	storeMock := mocks.NewStore(t)
	storeMock.On("Upload", mock.Anything, "encoded", "v1/360p/s_000.ts", seg, "video/mp2t").Return(nil).Once()

	n, err := storage.UploadTree(context.Background(), storeMock, root, "v1", "encoded", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
