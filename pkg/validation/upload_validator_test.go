package validation

import (
	"errors"
	"reflect"
	"testing"
)

func TestValidateFilename(t *testing.T) {
	validator := NewUploadValidator(nil)

	tests := []struct {
		name        string
		filename    string
		expectedErr error
	}{
		{"pdf", "contract.pdf", nil},
		{"png", "passport.png", nil},
		{"upper case jpg", "SCAN.JPG", nil},
		{"jpeg", "id.jpeg", nil},
		{"tif", "fax.tif", nil},
		{"tiff", "fax.tiff", nil},
		{"empty", "", ErrEmptyFilename},
		{"blank", "   ", ErrEmptyFilename},
		{"gif rejected", "funny.gif", ErrExtensionNotAllowed},
		{"executable rejected", "payload.exe", ErrExtensionNotAllowed},
		{"no extension", "README", ErrExtensionNotAllowed},
		{"double extension", "scan.png.exe", ErrExtensionNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateFilename(tt.filename)
			if tt.expectedErr == nil && err != nil {
				t.Errorf("Expected %q to be accepted, got %v", tt.filename, err)
			}
			if tt.expectedErr != nil && !errors.Is(err, tt.expectedErr) {
				t.Errorf("Expected %v for %q, got %v", tt.expectedErr, tt.filename, err)
			}
		})
	}
}

func TestValidateFilename_CustomExtensions(t *testing.T) {
	validator := NewUploadValidator([]string{".PNG"})

	if err := validator.ValidateFilename("a.png"); err != nil {
		t.Errorf("Expected png to be accepted, got %v", err)
	}
	if err := validator.ValidateFilename("a.pdf"); !errors.Is(err, ErrExtensionNotAllowed) {
		t.Errorf("Expected pdf to be rejected, got %v", err)
	}
	if exts := validator.AllowedExtensions(); len(exts) != 1 || exts[0] != "png" {
		t.Errorf("Expected [png], got %v", exts)
	}
}

func TestAllowedExtensions_StableOrder(t *testing.T) {
	validator := NewUploadValidator([]string{"webp", "png", "bmp", "gif", "pdf", "heic"})
	expected := []string{"pdf", "png", "bmp", "gif", "heic", "webp"}

	for i := 0; i < 20; i++ {
		if got := validator.AllowedExtensions(); !reflect.DeepEqual(got, expected) {
			t.Fatalf("AllowedExtensions() = %v, want %v", got, expected)
		}
	}
}

func TestDetectMediaType(t *testing.T) {
	tests := []struct {
		name     string
		head     []byte
		expected string
	}{
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D}, "image/png"},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10}, "image/jpeg"},
		{"pdf", []byte("%PDF-1.7\n"), "application/pdf"},
		{"unknown", []byte("plain text"), "application/octet-stream"},
		{"empty", nil, "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectMediaType(tt.head); got != tt.expected {
				t.Errorf("DetectMediaType() = %q, want %q", got, tt.expected)
			}
		})
	}
}
