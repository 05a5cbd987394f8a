package container

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anime-shed/document-verification-go/internal/config"
	"github.com/anime-shed/document-verification-go/internal/factory"
	"github.com/anime-shed/document-verification-go/pkg/models"
)

type silentEngine struct{}

func (silentEngine) Recognize(ctx context.Context, image []byte, languages []string) (string, error) {
	return "", nil
}

func TestNewContainer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	cfg := &config.Config{
		RequestTimeout:     time.Second,
		AnalysisTimeout:    time.Second,
		OCRTimeout:         time.Second,
		MaxRequestBodySize: 1 << 20,
		UploadDir:          filepath.Join(dir, "uploads"),
		DatabasePath:       filepath.Join(dir, "documents.db"),
		StorageBackend:     config.StorageLocal,
		OCRLanguages:       []string{"eng"},
		MaxWorkers:         1,
		CORSAllowedOrigins: []string{"*"},
	}
	components := &factory.ComponentFactory{
		StorageFactory:  factory.NewStorageFactory(),
		PipelineFactory: factory.NewPipelineFactory(silentEngine{}),
	}

	c, err := NewContainerWithFactory(cfg, components)
	if err != nil {
		t.Fatalf("NewContainerWithFactory() error = %v", err)
	}
	defer c.Close()

	if c.Config() != cfg {
		t.Error("Expected container to keep the configuration")
	}

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/statistics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var stats models.Statistics
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("Expected empty statistics, got %+v", stats)
	}

	w = httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	var metrics models.PipelineMetrics
	if err := json.Unmarshal(w.Body.Bytes(), &metrics); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if metrics.WorkerPool.Workers != cfg.MaxWorkers || metrics.WorkerPool.JobsSubmitted != 0 {
		t.Errorf("Expected idle pool of %d workers, got %+v", cfg.MaxWorkers, metrics.WorkerPool)
	}
}

func TestNewContainer_BadStorage(t *testing.T) {
	cfg := &config.Config{
		DatabasePath:   filepath.Join(t.TempDir(), "documents.db"),
		StorageBackend: "tape",
	}

	if _, err := NewContainer(cfg); err == nil {
		t.Error("Expected unsupported storage backend to fail")
	}
}
