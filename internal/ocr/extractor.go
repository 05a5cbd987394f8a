// Package ocr extracts document text with a language-set fallback policy.
package ocr

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/document-verification-go/internal/document"
	"github.com/anime-shed/document-verification-go/internal/logger"
	"github.com/anime-shed/document-verification-go/pkg/models"
)

// ErrTimeout is reported when an attempt exceeds the extraction deadline
var ErrTimeout = errors.New("ocr: timed out")

// Engine recognises text in an encoded image
type Engine interface {
	Recognize(ctx context.Context, image []byte, languages []string) (string, error)
}

// TextExtractor is the contract the pipeline depends on
type TextExtractor interface {
	Extract(ctx context.Context, src *document.Source) models.ExtractedText
}

// Options configures the extractor
type Options struct {
	Languages         []string
	FallbackLanguages []string
	Timeout           time.Duration
}

// DefaultOptions returns the Uzbek/English/Russian language policy
func DefaultOptions() Options {
	return Options{
		Languages:         []string{"uzb", "eng", "rus"},
		FallbackLanguages: []string{"eng", "rus"},
		Timeout:           30 * time.Second,
	}
}

// Extractor runs the primary language set and retries once with the fallback
type Extractor struct {
	engine  Engine
	decoder *document.Decoder
	options Options
}

// NewExtractor creates an extractor; a nil decoder uses the default one
func NewExtractor(engine Engine, decoder *document.Decoder, options Options) *Extractor {
	if decoder == nil {
		decoder = document.NewDecoder()
	}
	return &Extractor{
		engine:  engine,
		decoder: decoder,
		options: options,
	}
}

// Extract never fails: engine errors, unreadable input and timeouts all
// degrade to empty text so the analysis can continue.
func (e *Extractor) Extract(ctx context.Context, src *document.Source) models.ExtractedText {
	if e.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.options.Timeout)
		defer cancel()
	}

	input, err := e.decoder.OCRInput(src)
	if err != nil {
		logger.WithError(err).Warn("OCR input could not be prepared")
		return NewExtractedText("")
	}

	text, err := e.recognize(ctx, input, e.options.Languages)
	if err == nil {
		return NewExtractedText(text)
	}
	logger.WithError(err).WithFields(logrus.Fields{
		"languages": strings.Join(e.options.Languages, "+"),
	}).Warn("OCR failed with primary languages")

	if len(e.options.FallbackLanguages) == 0 || errors.Is(err, ErrTimeout) {
		return NewExtractedText("")
	}

	text, err = e.recognize(ctx, input, e.options.FallbackLanguages)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"languages": strings.Join(e.options.FallbackLanguages, "+"),
		}).Warn("OCR failed with fallback languages, continuing without text")
		return NewExtractedText("")
	}
	return NewExtractedText(text)
}

// recognize runs one attempt and abandons it when ctx expires. The engine
// call itself cannot be interrupted, so its goroutine finishes on its own.
func (e *Extractor) recognize(ctx context.Context, input []byte, languages []string) (string, error) {
	type result struct {
		text string
		err  error
	}

	resultCh := make(chan result, 1)
	go func() {
		text, err := e.engine.Recognize(ctx, input, languages)
		resultCh <- result{text: text, err: err}
	}()

	select {
	case res := <-resultCh:
		return res.text, res.err
	case <-ctx.Done():
		return "", ErrTimeout
	}
}

// NewExtractedText derives length and word statistics from raw OCR output
func NewExtractedText(text string) models.ExtractedText {
	words := strings.Fields(text)
	distinct := make(map[string]struct{}, len(words))
	for _, w := range words {
		distinct[w] = struct{}{}
	}
	return models.ExtractedText{
		Text:          text,
		Length:        utf8.RuneCountInString(text),
		Words:         words,
		DistinctWords: len(distinct),
	}
}
