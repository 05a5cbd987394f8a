package models

import (
	"io"
	"time"
)

// Status is the persisted verdict of an analysed document
type Status string

const (
	StatusFraud   Status = "FRAUD"
	StatusGenuine Status = "GENUINE"
)

// StatusFromVerdict maps the scorer verdict onto the persisted status
func StatusFromVerdict(isFraud bool) Status {
	if isFraud {
		return StatusFraud
	}
	return StatusGenuine
}

// Document is an uploaded file on its way through the pipeline.
// Open is called once per analysis; the bytes are not retained afterwards.
type Document struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

// QualityFeatures holds the image quality signals computed from the
// luminance channel of a decoded document.
// A nil *QualityFeatures means the image could not be decoded.
type QualityFeatures struct {
	Sharpness   float64 `json:"sharpness"`
	Contrast    float64 `json:"contrast"`
	Brightness  float64 `json:"brightness"`
	EdgeDensity float64 `json:"edge_density"`
}

// ExtractedText is the output of one OCR attempt
type ExtractedText struct {
	Text          string   `json:"text"`
	Length        int      `json:"length"`
	Words         []string `json:"-"`
	DistinctWords int      `json:"distinct_words"`
}

// ScoreResult is the verdict produced by the authenticity scorer
type ScoreResult struct {
	IsFraud    bool             `json:"is_fraud"`
	FraudScore int              `json:"fraud_score"`
	Confidence float64          `json:"confidence"`
	Reasons    []string         `json:"reasons"`
	TextLength int              `json:"text_length"`
	Features   *QualityFeatures `json:"features,omitempty"`
}

// TimestampLayout is the fixed-width ISO-8601 layout for upload dates. All
// timestamps are rendered in UTC, so they also sort lexically.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// AnalysisRecord is the immutable audit record of one processed upload
type AnalysisRecord struct {
	ID          uint        `json:"id"`
	Filename    string      `json:"filename"`
	Fingerprint string      `json:"file_hash"`
	UploadedAt  time.Time   `json:"upload_date"`
	Status      Status      `json:"status"`
	Confidence  float64     `json:"confidence"`
	Analysis    ScoreResult `json:"analysis"`
	StoredPath  string      `json:"-"`
}

// Statistics aggregates the persisted records
type Statistics struct {
	Total                int64   `json:"total"`
	Fraud                int64   `json:"fraud"`
	Genuine              int64   `json:"genuine"`
	FraudPercentage      float64 `json:"fraud_percentage"`
	AvgFraudConfidence   float64 `json:"avg_fraud_confidence"`
	AvgGenuineConfidence float64 `json:"avg_genuine_confidence"`
}
