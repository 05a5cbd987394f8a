package observer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/document-verification-go/internal/logger"
	"github.com/anime-shed/document-verification-go/pkg/models"
)

type recordingObserver struct {
	name   string
	mu     sync.Mutex
	events []EventType
}

func (r *recordingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.EventType)
}

func (r *recordingObserver) GetObserverName() string { return r.name }

type panickingObserver struct{}

func (panickingObserver) OnEvent(ctx context.Context, event AnalysisEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string                          { return "panicking" }

func TestMetricsObserver(t *testing.T) {
	metrics := NewMetricsObserver()
	ctx := context.Background()

	events := []AnalysisEvent{
		{EventType: DocumentReceived},
		{EventType: DocumentReceived},
		{EventType: DocumentReceived},
		{EventType: DecodeFailed},
		{EventType: TextMissing},
		{EventType: AnalysisCompleted, Status: models.StatusFraud, ProcessingTime: 30 * time.Millisecond},
		{EventType: AnalysisCompleted, Status: models.StatusGenuine, ProcessingTime: 10 * time.Millisecond},
		{EventType: AnalysisFailed},
	}
	for _, e := range events {
		metrics.OnEvent(ctx, e)
	}

	expected := models.PipelineMetrics{
		DocumentsReceived:   3,
		DocumentsAnalyzed:   2,
		DocumentsFailed:     1,
		DecodeFailures:      1,
		EmptyTextResults:    1,
		FraudVerdicts:       1,
		AvgProcessingTimeMs: 20,
	}
	if got := metrics.GetMetrics(); got != expected {
		t.Errorf("Expected %+v, got %+v", expected, got)
	}
}

func TestMetricsObserver_Empty(t *testing.T) {
	if got := NewMetricsObserver().GetMetrics(); got != (models.PipelineMetrics{}) {
		t.Errorf("Expected zero metrics, got %+v", got)
	}
}

func TestEventPublisher_NotifiesSubscribers(t *testing.T) {
	publisher := NewEventPublisher()
	first := &recordingObserver{name: "first"}
	second := &recordingObserver{name: "second"}
	publisher.Subscribe(first)
	publisher.Subscribe(second)
	publisher.Subscribe(panickingObserver{})

	publisher.NotifyObservers(context.Background(), AnalysisEvent{EventType: DocumentReceived})
	publisher.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisCompleted})
	publisher.Wait()

	for _, obs := range []*recordingObserver{first, second} {
		if len(obs.events) != 2 {
			t.Errorf("Expected %s observer to see 2 events, got %v", obs.name, obs.events)
		}
	}
}

func TestEventPublisher_ObserverPanicIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger.Logger.SetOutput(&buf)
	t.Cleanup(func() { logger.Logger.SetOutput(os.Stdout) })

	publisher := NewEventPublisher()
	publisher.Subscribe(panickingObserver{})
	publisher.NotifyObservers(context.Background(), AnalysisEvent{EventType: DocumentReceived})
	publisher.Wait()

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Expected one JSON log line from the application logger, got %q", buf.String())
	}
	if entry["observer"] != "panicking" || entry["level"] != "error" {
		t.Errorf("Unexpected log entry %v", entry)
	}
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	obs := NewLoggingObserver(log)
	obs.OnEvent(context.Background(), AnalysisEvent{
		EventType:   AnalysisCompleted,
		Filename:    "scan.png",
		Fingerprint: "abc123",
		Status:      models.StatusGenuine,
		Success:     true,
		Metadata:    map[string]interface{}{"fraud_score": 25},
	})

	out := buf.String()
	for _, want := range []string{`"filename":"scan.png"`, `"status":"GENUINE"`, `"fraud_score":25`, "Document analysis completed"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log output to contain %s, got %s", want, out)
		}
	}
}
