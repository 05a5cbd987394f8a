package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/document-verification-go/internal/logger"
	"github.com/anime-shed/document-verification-go/pkg/models"
)

// AnalysisEvent represents a document pipeline event
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	Filename       string                 `json:"filename"`
	Fingerprint    string                 `json:"fingerprint,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	Status         models.Status          `json:"status,omitempty"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of pipeline event
type EventType string

const (
	// DocumentReceived when a document enters the pipeline
	DocumentReceived EventType = "document_received"
	// AnalysisCompleted when a record has been stored
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when the document could not be analysed or recorded
	AnalysisFailed EventType = "analysis_failed"
	// DecodeFailed when the image could not be decoded and the neutral verdict applies
	DecodeFailed EventType = "decode_failed"
	// TextMissing when OCR produced no text
	TextMissing EventType = "text_missing"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs pipeline events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles pipeline events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"filename":        event.Filename,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}

	if event.Fingerprint != "" {
		fields["fingerprint"] = event.Fingerprint
	}
	if event.Status != "" {
		fields["status"] = event.Status
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case DocumentReceived:
		entry.Debug("Document received")
	case AnalysisCompleted:
		entry.Info("Document analysis completed")
	case AnalysisFailed:
		entry.Error("Document analysis failed")
	case DecodeFailed:
		entry.Warn("Document image could not be decoded, using neutral verdict")
	case TextMissing:
		entry.Info("No text extracted from document")
	default:
		entry.Info("Pipeline event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects pipeline counters
type MetricsObserver struct {
	mu                  sync.RWMutex
	received            int64
	analyzed            int64
	failed              int64
	decodeFailures      int64
	emptyText           int64
	fraudVerdicts       int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles pipeline events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case DocumentReceived:
		o.received++
	case AnalysisCompleted:
		o.analyzed++
		o.totalProcessingTime += event.ProcessingTime
		if event.Status == models.StatusFraud {
			o.fraudVerdicts++
		}
	case AnalysisFailed:
		o.failed++
	case DecodeFailed:
		o.decodeFailures++
	case TextMissing:
		o.emptyText++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() models.PipelineMetrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var avgMs float64
	if o.analyzed > 0 {
		avg := o.totalProcessingTime / time.Duration(o.analyzed)
		avgMs = float64(avg.Microseconds()) / 1000
	}

	return models.PipelineMetrics{
		DocumentsReceived:   o.received,
		DocumentsAnalyzed:   o.analyzed,
		DocumentsFailed:     o.failed,
		DecodeFailures:      o.decodeFailures,
		EmptyTextResults:    o.emptyText,
		FraudVerdicts:       o.fraudVerdicts,
		AvgProcessingTimeMs: avgMs,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	wg        sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// NotifyObservers notifies all observers of an event without blocking the
// pipeline. Timestamp is filled in when the caller left it zero.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Observers must not inherit request cancellation
	ctx = context.WithoutCancel(ctx)

	for _, observer := range observers {
		p.wg.Add(1)
		go func(obs Observer) {
			defer p.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.WithFields(logrus.Fields{
						"observer": obs.GetObserverName(),
						"panic":    r,
					}).Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until every notification issued so far has been handled
func (p *EventPublisher) Wait() {
	p.wg.Wait()
}
