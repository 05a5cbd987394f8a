package container

import (
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/anime-shed/document-verification-go/internal/config"
	"github.com/anime-shed/document-verification-go/internal/factory"
	"github.com/anime-shed/document-verification-go/internal/logger"
	"github.com/anime-shed/document-verification-go/internal/observer"
	"github.com/anime-shed/document-verification-go/internal/repository"
	"github.com/anime-shed/document-verification-go/internal/service"
	"github.com/anime-shed/document-verification-go/internal/transport"
	"github.com/anime-shed/document-verification-go/pkg/models"
)

// Container holds all application dependencies
type Container struct {
	config    *config.Config
	db        *gorm.DB
	service   *service.DocumentAnalysisService
	publisher *observer.EventPublisher
	metrics   *observer.MetricsObserver
	handler   http.Handler
}

// NewContainer builds the dependency graph from cfg using the default
// component factories.
func NewContainer(cfg *config.Config) (*Container, error) {
	return NewContainerWithFactory(cfg, factory.NewComponentFactory())
}

// NewContainerWithFactory builds the dependency graph with custom factories
func NewContainerWithFactory(cfg *config.Config, components *factory.ComponentFactory) (*Container, error) {
	db, err := repository.Open(repository.Options{
		Path:     cfg.DatabasePath,
		LogLevel: cfg.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store, err := components.StorageFactory.CreateStorage(cfg)
	if err != nil {
		repository.Close(db)
		return nil, fmt.Errorf("failed to create file storage: %w", err)
	}

	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	svc := service.NewDocumentService(
		components.PipelineFactory.CreatePipeline(cfg),
		store,
		repository.NewGormDocumentRepository(db),
		publisher,
		service.Options{
			AnalysisTimeout: cfg.AnalysisTimeout,
			MaxWorkers:      cfg.MaxWorkers,
		},
	)

	return &Container{
		config:    cfg,
		db:        db,
		service:   svc,
		publisher: publisher,
		metrics:   metrics,
		handler:   transport.NewHandler(svc, pipelineMetrics{observer: metrics, service: svc}, cfg),
	}, nil
}

// pipelineMetrics joins event counters with the live worker pool state
type pipelineMetrics struct {
	observer *observer.MetricsObserver
	service  *service.DocumentAnalysisService
}

func (m pipelineMetrics) GetMetrics() models.PipelineMetrics {
	metrics := m.observer.GetMetrics()
	metrics.WorkerPool = m.service.PoolMetrics()
	return metrics
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close stops the workers, flushes pending events and closes the database
func (c *Container) Close() error {
	c.service.Close()
	c.publisher.Wait()
	return repository.Close(c.db)
}
