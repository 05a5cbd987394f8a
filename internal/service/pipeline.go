package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/anime-shed/document-verification-go/internal/analyzer"
	"github.com/anime-shed/document-verification-go/internal/document"
	"github.com/anime-shed/document-verification-go/internal/fingerprint"
	"github.com/anime-shed/document-verification-go/internal/logger"
	"github.com/anime-shed/document-verification-go/internal/ocr"
	"github.com/anime-shed/document-verification-go/pkg/models"
)

// Scorer turns extracted signals into a verdict
type Scorer interface {
	Score(features *models.QualityFeatures, text models.ExtractedText) models.ScoreResult
}

// Evaluation is the outcome of running the extractors and the scorer on one
// document. DecodeErr is informational: a failed decode still yields the
// neutral verdict in Result.
type Evaluation struct {
	Result    models.ScoreResult
	Text      models.ExtractedText
	DecodeErr error
}

// Pipeline computes identity and verdict for a document without touching
// storage or the database.
type Pipeline struct {
	features analyzer.FeatureExtractor
	text     ocr.TextExtractor
	scorer   Scorer
}

// NewPipeline creates a pipeline from its three stages
func NewPipeline(features analyzer.FeatureExtractor, text ocr.TextExtractor, scorer Scorer) *Pipeline {
	return &Pipeline{
		features: features,
		text:     text,
		scorer:   scorer,
	}
}

// Identify reads the document once, returning its bytes and fingerprint
func (p *Pipeline) Identify(doc models.Document) ([]byte, string, error) {
	if doc.Open == nil {
		return nil, "", fmt.Errorf("%w: document %q has no content", fingerprint.ErrRead, doc.Filename)
	}

	rc, err := doc.Open()
	if err != nil {
		return nil, "", fmt.Errorf("%w: open %q: %v", fingerprint.ErrRead, doc.Filename, err)
	}
	defer rc.Close()

	return fingerprint.ReadAll(rc)
}

// Evaluate runs quality extraction and OCR concurrently, then scores the
// joined result. Both stages share src, so a PDF page is rendered once.
func (p *Pipeline) Evaluate(ctx context.Context, src *document.Source) Evaluation {
	var (
		features  *models.QualityFeatures
		decodeErr error
		text      models.ExtractedText
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer recoverStage("quality", func(r any) {
			features, decodeErr = nil, fmt.Errorf("%w: panic: %v", document.ErrDecode, r)
		})
		features, decodeErr = p.features.Extract(src)
		return nil
	})
	g.Go(func() error {
		defer recoverStage("ocr", func(any) {
			text = ocr.NewExtractedText("")
		})
		text = p.text.Extract(gctx, src)
		return nil
	})
	_ = g.Wait()

	return Evaluation{
		Result:    p.scorer.Score(features, text),
		Text:      text,
		DecodeErr: decodeErr,
	}
}

// recoverStage turns a panic inside an extractor into that extractor's
// failure value, so a bad input degrades instead of killing the process.
func recoverStage(stage string, onPanic func(r any)) {
	if r := recover(); r != nil {
		logger.WithField("stage", stage).WithField("panic", r).Error("Extractor panicked")
		onPanic(r)
	}
}
