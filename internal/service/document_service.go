package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/document-verification-go/internal/document"
	apperrors "github.com/anime-shed/document-verification-go/internal/errors"
	"github.com/anime-shed/document-verification-go/internal/logger"
	"github.com/anime-shed/document-verification-go/internal/observer"
	"github.com/anime-shed/document-verification-go/internal/repository"
	"github.com/anime-shed/document-verification-go/internal/storage"
	"github.com/anime-shed/document-verification-go/pkg/models"
)

// DocumentService defines the document verification use cases
type DocumentService interface {
	// Analyze runs one document through the full pipeline and stores the record
	Analyze(ctx context.Context, doc models.Document) (*models.AnalysisRecord, error)

	// AnalyzeBatch analyses documents concurrently; results keep input order
	AnalyzeBatch(ctx context.Context, docs []models.Document) []BatchResult

	ListDocuments(ctx context.Context) ([]models.AnalysisRecord, error)
	GetDocument(ctx context.Context, id uint) (*models.AnalysisRecord, error)
	Statistics(ctx context.Context) (models.Statistics, error)
}

// BatchResult is the outcome for one document of a batch. Exactly one of
// Record and Err is set.
type BatchResult struct {
	Filename string
	Record   *models.AnalysisRecord
	Err      error
}

// Options configures the document service
type Options struct {
	// AnalysisTimeout bounds extraction and persistence of one document
	AnalysisTimeout time.Duration
	MaxWorkers      int
}

type DocumentAnalysisService struct {
	pipeline  *Pipeline
	store     storage.FileStore
	repo      repository.DocumentRepository
	publisher observer.Subject
	pool      *WorkerPool
	options   Options
	now       func() time.Time
}

// NewDocumentService creates the service and starts its worker pool
func NewDocumentService(
	pipeline *Pipeline,
	store storage.FileStore,
	repo repository.DocumentRepository,
	publisher observer.Subject,
	options Options,
) *DocumentAnalysisService {
	pool := NewWorkerPool(options.MaxWorkers)
	pool.Start()

	return &DocumentAnalysisService{
		pipeline:  pipeline,
		store:     store,
		repo:      repo,
		publisher: publisher,
		pool:      pool,
		options:   options,
		now:       time.Now,
	}
}

// Close stops accepting work and waits for queued documents to finish
func (s *DocumentAnalysisService) Close() {
	s.pool.Close()
	s.pool.Wait()
}

// PoolMetrics reports the batch worker pool counters
func (s *DocumentAnalysisService) PoolMetrics() models.WorkerPoolMetrics {
	stats := s.pool.GetStats()
	return models.WorkerPoolMetrics{
		Workers:       s.pool.Workers(),
		JobsSubmitted: stats.TotalJobs,
		JobsCompleted: stats.CompletedJobs,
		ActiveWorkers: stats.ActiveWorkers,
	}
}

// Analyze fingerprints, stores, scores and records one document. Decode and
// OCR problems never fail the call; only identity, storage and persistence
// errors do.
func (s *DocumentAnalysisService) Analyze(ctx context.Context, doc models.Document) (*models.AnalysisRecord, error) {
	start := time.Now()
	filename := storage.SanitizeFilename(doc.Filename)
	s.notify(ctx, observer.AnalysisEvent{EventType: observer.DocumentReceived, Filename: filename})

	data, fp, err := s.pipeline.Identify(doc)
	if err != nil {
		return nil, s.fail(ctx, filename, "", start, apperrors.NewIdentityError("failed to read uploaded file", err))
	}
	src := document.NewSource(data)
	log := logger.ForDocument(filename, fp).WithField("media_type", src.MediaType)
	log.Debug("Document identified")

	path, err := s.store.Save(ctx, filename, data)
	if err != nil {
		return nil, s.fail(ctx, filename, fp, start, apperrors.NewStorageError("failed to store uploaded file", err))
	}

	if s.options.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.options.AnalysisTimeout)
		defer cancel()
	}

	eval := s.pipeline.Evaluate(ctx, src)
	if eval.DecodeErr != nil {
		log.WithError(eval.DecodeErr).Debug("Quality features unavailable")
		s.notify(ctx, observer.AnalysisEvent{EventType: observer.DecodeFailed, Filename: filename, Fingerprint: fp})
	}
	if eval.Text.Length == 0 {
		s.notify(ctx, observer.AnalysisEvent{EventType: observer.TextMissing, Filename: filename, Fingerprint: fp})
	}

	record := &models.AnalysisRecord{
		Filename:    filename,
		Fingerprint: fp,
		UploadedAt:  s.now(),
		Status:      models.StatusFromVerdict(eval.Result.IsFraud),
		Confidence:  eval.Result.Confidence,
		Analysis:    eval.Result,
		StoredPath:  path,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, s.fail(ctx, filename, fp, start, apperrors.NewPersistenceError("document analysed but not recorded", err))
	}

	s.notify(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		Filename:       filename,
		Fingerprint:    fp,
		ProcessingTime: time.Since(start),
		Success:        true,
		Status:         record.Status,
		Metadata: map[string]interface{}{
			"id":          record.ID,
			"media_type":  src.MediaType,
			"fraud_score": record.Analysis.FraudScore,
			"confidence":  record.Confidence,
		},
	})
	return record, nil
}

// AnalyzeBatch runs every document on the worker pool. A failure or panic
// in one document only affects its own entry.
func (s *DocumentAnalysisService) AnalyzeBatch(ctx context.Context, docs []models.Document) []BatchResult {
	results := make([]BatchResult, len(docs))
	var wg sync.WaitGroup

	for i, doc := range docs {
		results[i].Filename = storage.SanitizeFilename(doc.Filename)
		wg.Add(1)
		submitted := s.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.WithFields(logrus.Fields{
						"filename": doc.Filename,
						"panic":    r,
					}).Error("Panic while analysing document")
					results[i].Err = apperrors.NewInternalError("unexpected analysis failure", fmt.Errorf("panic: %v", r))
				}
			}()
			results[i].Record, results[i].Err = s.Analyze(ctx, doc)
		})
		if !submitted {
			wg.Done()
			results[i].Err = apperrors.NewInternalError("service is shutting down", nil)
		}
	}

	wg.Wait()
	return results
}

// ListDocuments returns every record, newest first
func (s *DocumentAnalysisService) ListDocuments(ctx context.Context) ([]models.AnalysisRecord, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to list documents", err)
	}
	return records, nil
}

// GetDocument returns one record or a not found error
func (s *DocumentAnalysisService) GetDocument(ctx context.Context, id uint) (*models.AnalysisRecord, error) {
	record, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return nil, apperrors.NewNotFoundError("document not found", err)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to load document", err)
	}
	return record, nil
}

// Statistics aggregates all stored verdicts
func (s *DocumentAnalysisService) Statistics(ctx context.Context) (models.Statistics, error) {
	stats, err := s.repo.Statistics(ctx)
	if err != nil {
		return models.Statistics{}, apperrors.NewPersistenceError("failed to compute statistics", err)
	}
	return stats, nil
}

func (s *DocumentAnalysisService) fail(ctx context.Context, filename, fp string, start time.Time, err *apperrors.AppError) error {
	s.notify(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisFailed,
		Filename:       filename,
		Fingerprint:    fp,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
	return err
}

func (s *DocumentAnalysisService) notify(ctx context.Context, event observer.AnalysisEvent) {
	if s.publisher != nil {
		s.publisher.NotifyObservers(ctx, event)
	}
}
