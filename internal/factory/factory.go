package factory

import (
	"fmt"

	"github.com/anime-shed/document-verification-go/internal/analyzer"
	"github.com/anime-shed/document-verification-go/internal/config"
	"github.com/anime-shed/document-verification-go/internal/document"
	"github.com/anime-shed/document-verification-go/internal/ocr"
	"github.com/anime-shed/document-verification-go/internal/scoring"
	"github.com/anime-shed/document-verification-go/internal/service"
	"github.com/anime-shed/document-verification-go/internal/storage"
)

// StorageFactory creates file stores
type StorageFactory interface {
	CreateStorage(cfg *config.Config) (storage.FileStore, error)
}

// PipelineFactory creates analysis pipelines
type PipelineFactory interface {
	CreatePipeline(cfg *config.Config) *service.Pipeline
}

// storageFactory implements StorageFactory
type storageFactory struct{}

// NewStorageFactory creates a new storage factory
func NewStorageFactory() StorageFactory {
	return &storageFactory{}
}

// CreateStorage creates the file store selected by STORAGE_BACKEND
func (f *storageFactory) CreateStorage(cfg *config.Config) (storage.FileStore, error) {
	switch cfg.StorageBackend {
	case config.StorageLocal, "":
		return storage.NewLocalStorage(cfg.UploadDir)
	case config.StorageAzure:
		return storage.NewAzureStorage(cfg.AzureStorageAccount, cfg.AzureStorageKey, cfg.AzureStorageContainer)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}

// pipelineFactory implements PipelineFactory
type pipelineFactory struct {
	engine ocr.Engine
}

// NewPipelineFactory creates a pipeline factory; a nil engine uses Tesseract
func NewPipelineFactory(engine ocr.Engine) PipelineFactory {
	if engine == nil {
		engine = ocr.NewTesseractEngine()
	}
	return &pipelineFactory{engine: engine}
}

// CreatePipeline wires the decoder, both extractors and the default rule set
func (f *pipelineFactory) CreatePipeline(cfg *config.Config) *service.Pipeline {
	decoder := document.NewDecoder()

	analyzerOptions := analyzer.DefaultOptions()
	analyzerOptions.MaxWorkers = cfg.MaxWorkers
	if cfg.MaxImagePixels > 0 {
		analyzerOptions.MaxImagePixels = cfg.MaxImagePixels
	}
	features := analyzer.NewFeatureExtractor(decoder, analyzerOptions)

	text := ocr.NewExtractor(f.engine, decoder, ocr.Options{
		Languages:         cfg.OCRLanguages,
		FallbackLanguages: cfg.OCRFallbackLanguages,
		Timeout:           cfg.OCRTimeout,
	})

	return service.NewPipeline(features, text, scoring.NewScorer(scoring.DefaultRuleSet()))
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory  StorageFactory
	PipelineFactory PipelineFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory() *ComponentFactory {
	return &ComponentFactory{
		StorageFactory:  NewStorageFactory(),
		PipelineFactory: NewPipelineFactory(nil),
	}
}
