package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/document-verification-go/internal/logger"
)

const maxCollisionAttempts = 1000

// LocalStorage writes uploads into a directory on disk
type LocalStorage struct {
	dir string
	now func() time.Time
}

// NewLocalStorage creates the upload directory if it does not exist
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalStorage{dir: dir, now: time.Now}, nil
}

// Save writes data under a timestamped name. Files are created exclusively,
// so two uploads of the same name in the same second get a numeric suffix
// instead of overwriting each other.
func (s *LocalStorage) Save(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := StoredName(s.now(), filename)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for attempt := 0; attempt < maxCollisionAttempts; attempt++ {
		candidate := name
		if attempt > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, attempt, ext)
		}
		path := filepath.Join(s.dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", candidate, err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("write %s: %w", candidate, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("close %s: %w", candidate, err)
		}

		logger.WithFields(logrus.Fields{
			"path":  path,
			"bytes": len(data),
		}).Debug("Stored uploaded file")
		return path, nil
	}

	return "", fmt.Errorf("no free file name for %q after %d attempts", name, maxCollisionAttempts)
}
