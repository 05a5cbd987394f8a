package config

import (
	"reflect"
	"runtime"
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.ServerAddress() != "0.0.0.0:8080" {
		t.Errorf("Expected default address 0.0.0.0:8080, got %s", cfg.ServerAddress())
	}
	if cfg.MaxRequestBodySize != 16*1024*1024 {
		t.Errorf("Expected 16MiB body limit, got %d", cfg.MaxRequestBodySize)
	}
	if cfg.OCRTimeout != 30*time.Second {
		t.Errorf("Expected 30s OCR timeout, got %s", cfg.OCRTimeout)
	}
	if cfg.MaxImagePixels != 89_478_485 {
		t.Errorf("Expected default pixel cap, got %d", cfg.MaxImagePixels)
	}
	if !reflect.DeepEqual(cfg.OCRLanguages, []string{"uzb", "eng", "rus"}) {
		t.Errorf("Unexpected primary OCR languages: %v", cfg.OCRLanguages)
	}
	if !reflect.DeepEqual(cfg.OCRFallbackLanguages, []string{"eng", "rus"}) {
		t.Errorf("Unexpected fallback OCR languages: %v", cfg.OCRFallbackLanguages)
	}
	if cfg.StorageBackend != StorageLocal {
		t.Errorf("Expected local storage backend, got %s", cfg.StorageBackend)
	}
	if cfg.MaxWorkers != runtime.NumCPU() {
		t.Errorf("Expected %d workers, got %d", runtime.NumCPU(), cfg.MaxWorkers)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", " 9090 ")
	t.Setenv("OCR_TIMEOUT", "5s")
	t.Setenv("OCR_LANGUAGES", "eng,deu")
	t.Setenv("MAX_WORKERS", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, http://localhost:5173")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %q", cfg.Port)
	}
	if cfg.OCRTimeout != 5*time.Second {
		t.Errorf("Expected 5s OCR timeout, got %s", cfg.OCRTimeout)
	}
	if !reflect.DeepEqual(cfg.OCRLanguages, []string{"eng", "deu"}) {
		t.Errorf("Unexpected OCR languages: %v", cfg.OCRLanguages)
	}
	if cfg.MaxWorkers != 3 {
		t.Errorf("Expected 3 workers, got %d", cfg.MaxWorkers)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("Expected 2 CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric port", "PORT", "http"},
		{"port out of range", "PORT", "70000"},
		{"zero body size", "MAX_REQUEST_BODY_SIZE", "0"},
		{"zero pixel cap", "MAX_IMAGE_PIXELS", "0"},
		{"bad timeout", "OCR_TIMEOUT", "soon"},
		{"unknown storage", "STORAGE_BACKEND", "ftp"},
		{"azure without credentials", "STORAGE_BACKEND", "azure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFromEnv(); err == nil {
				t.Errorf("Expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"uzb+eng+rus", []string{"uzb", "eng", "rus"}},
		{"eng, rus", []string{"eng", "rus"}},
		{"eng,rus", []string{"eng", "rus"}},
		{"uzb eng", []string{"uzb", "eng"}},
		{"", []string{}},
		{"*", []string{"*"}},
	}

	for _, tt := range tests {
		got := SplitList(tt.input)
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("SplitList(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
