package uploader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/feedsnap/feedsnap/internal/fileutils"
)

// FileStore stores payloads below a local directory, mirroring the bucket and
// key layout of the object store. It backs dry runs and local development.
type FileStore struct {
	dir    string
	bucket string
	key    string

	log *slog.Logger
}

// NewFileStore returns a new FileStore writing payloads below dir.
func NewFileStore(l *slog.Logger, dir, bucket, key string) (FileStore, error) {
	l.Debug("Creating new file store uploader", "dir", dir, "bucket", bucket, "key", key)

	if dir == "" {
		return FileStore{}, errors.New("directory cannot be an empty string")
	}
	if bucket == "" {
		return FileStore{}, errors.New("bucket cannot be an empty string")
	}
	if key == "" {
		return FileStore{}, errors.New("key cannot be an empty string")
	}

	return FileStore{
		dir:    dir,
		bucket: bucket,
		key:    key,

		log: l,
	}, nil
}

// Upload writes the payload to the file standing in for the object location,
// replacing any previous contents. The last successful upload wins.
func (u FileStore) Upload(ctx context.Context, payload []byte) (string, error) {
	path := u.path()
	u.log.Debug("Writing payload", "path", path, "bytes", len(payload))

	if err := ctx.Err(); err != nil {
		return "", errors.Join(ErrUploadFailed, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", errors.Join(ErrUploadFailed, fmt.Errorf("failed to create directory: %v", err))
	}
	if err := fileutils.AtomicWrite(path, payload); err != nil {
		return "", errors.Join(ErrUploadFailed, fmt.Errorf("failed to write payload: %v", err))
	}

	location := u.Location()
	u.log.Info("Payload written", "location", location, "bytes", len(payload))
	return location, nil
}

// Location returns the file location uploads are written to.
func (u FileStore) Location() string {
	abs, err := filepath.Abs(u.path())
	if err != nil {
		abs = u.path()
	}
	return "file://" + filepath.ToSlash(abs)
}

func (u FileStore) path() string {
	return filepath.Join(u.dir, u.bucket, filepath.FromSlash(u.key))
}
