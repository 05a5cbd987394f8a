package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
)

var (
	// ErrEmptyFilename indicates a file part without a name
	ErrEmptyFilename = errors.New("no file selected")

	// ErrExtensionNotAllowed indicates an unsupported file type
	ErrExtensionNotAllowed = errors.New("file type not allowed")
)

// DefaultAllowedExtensions lists the accepted upload extensions
var DefaultAllowedExtensions = []string{"pdf", "png", "jpg", "jpeg", "tif", "tiff"}

// UploadValidator checks uploaded file names before any processing
type UploadValidator struct {
	allowed map[string]struct{}
}

// NewUploadValidator creates a validator for the given extensions;
// nil selects DefaultAllowedExtensions.
func NewUploadValidator(extensions []string) *UploadValidator {
	if extensions == nil {
		extensions = DefaultAllowedExtensions
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &UploadValidator{allowed: allowed}
}

// ValidateFilename rejects empty names and extensions outside the allowed set.
// The extension match is case-insensitive.
func (v *UploadValidator) ValidateFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyFilename
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if _, ok := v.allowed[ext]; !ok || ext == "" {
		return fmt.Errorf("%w: %q", ErrExtensionNotAllowed, name)
	}
	return nil
}

// AllowedExtensions returns the accepted extensions for error messages:
// defaults in their usual order, then any custom ones sorted
func (v *UploadValidator) AllowedExtensions() []string {
	exts := make([]string, 0, len(v.allowed))
	for _, ext := range DefaultAllowedExtensions {
		if _, ok := v.allowed[ext]; ok {
			exts = append(exts, ext)
		}
	}
	custom := make([]string, 0, len(v.allowed)-len(exts))
	for ext := range v.allowed {
		if !contains(exts, ext) {
			custom = append(custom, ext)
		}
	}
	sort.Strings(custom)
	return append(exts, custom...)
}

// DetectMediaType sniffs the MIME type from the first bytes of a file.
// The declared extension stays authoritative for acceptance; the sniffed
// type decides how the content is decoded.
func DetectMediaType(head []byte) string {
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream"
	}
	return kind.MIME.Value
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
