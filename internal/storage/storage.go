// Package storage moves job artifacts between object storage and the local
// working directory.
package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"hlstranscoder/internal/config"
	"hlstranscoder/internal/telemetry"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store is an object store holding sources and renditions.
type Store interface {
	Download(ctx context.Context, bucket, key, localPath string) error
	Upload(ctx context.Context, bucket, key, localPath, contentType string) error
}

// BucketChecker is implemented by stores that can report whether a bucket
// is reachable.
type BucketChecker interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
}

// New builds the Store selected by cfg.Backend.
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendMinio:
		return NewMinioStore(cfg)
	case config.BackendS3:
		return NewS3Store(cfg), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// Fetch downloads bucket/key into dir, keeping the object's base name.
func Fetch(ctx context.Context, store Store, bucket, key, dir string) (string, error) {
	name := path.Base(strings.TrimSuffix(key, "/"))
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("object key %q has no file name", key)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	local := filepath.Join(dir, name)
	if err := store.Download(ctx, bucket, key, local); err != nil {
		return "", err
	}
	return local, nil
}

// UploadTree uploads every regular file under localDir to
// bucket/prefix/<relative path>, at most concurrency at a time. The first
// failure cancels the remaining uploads and is returned.
func UploadTree(ctx context.Context, store Store, localDir, prefix, bucket string, concurrency int) (int, error) {
	var files []string
	err := filepath.WalkDir(localDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", localDir, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, f := range files {
		rel, err := filepath.Rel(localDir, f)
		if err != nil {
			return 0, err
		}
		key := path.Join(prefix, filepath.ToSlash(rel))
		g.Go(func() error {
			if err := store.Upload(gctx, bucket, key, f, ContentType(f)); err != nil {
				return fmt.Errorf("upload %s: %w", key, err)
			}
			telemetry.Logger.Debug("Uploaded object", zap.String("bucket", bucket), zap.String("key", key))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(files), nil
}

var contentTypes = map[string]string{
	".m3u8": "application/vnd.apple.mpegurl",
	".ts":   "video/mp2t",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// ContentType returns the MIME type stored with an artifact.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
