// Package storage persists the raw bytes of uploaded documents.
package storage

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// FileStore saves an uploaded file and returns where it was written
type FileStore interface {
	Save(ctx context.Context, filename string, data []byte) (string, error)
}

// FilenameTimeLayout prefixes every stored file name
const FilenameTimeLayout = "20060102_150405"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces a client supplied name to a safe basename made of
// ASCII letters, digits, underscores, dots and dashes. Leading dots and
// underscores are dropped so the result is never hidden or empty.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}

// StoredName combines an upload timestamp with the sanitized filename
func StoredName(now time.Time, filename string) string {
	return now.Format(FilenameTimeLayout) + "_" + SanitizeFilename(filename)
}
