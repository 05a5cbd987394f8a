package models

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// UploadResult is the per-file entry of an upload response.
// Error is set when this file failed; sibling entries are unaffected.
type UploadResult struct {
	ID         uint     `json:"id,omitempty"`
	Filename   string   `json:"filename"`
	Status     Status   `json:"status,omitempty"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// UploadResponse is returned by POST /api/upload
type UploadResponse struct {
	Results []UploadResult `json:"results"`
	Total   int            `json:"total"`
}

// DocumentSummary is the abbreviated listing entry
type DocumentSummary struct {
	ID         uint    `json:"id"`
	Filename   string  `json:"filename"`
	UploadDate string  `json:"upload_date"`
	Status     Status  `json:"status"`
	Confidence float64 `json:"confidence"`
}

// DocumentListResponse is returned by GET /api/documents
type DocumentListResponse struct {
	Documents []DocumentSummary `json:"documents"`
}

// DocumentDetailResponse is returned by GET /api/document/:id
type DocumentDetailResponse struct {
	ID         uint        `json:"id"`
	Filename   string      `json:"filename"`
	FileHash   string      `json:"file_hash"`
	UploadDate string      `json:"upload_date"`
	Status     Status      `json:"status"`
	Confidence float64     `json:"confidence"`
	Analysis   ScoreResult `json:"analysis"`
}

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status string `json:"status"`
}

// PipelineMetrics is returned by GET /api/metrics
type PipelineMetrics struct {
	DocumentsReceived   int64   `json:"documents_received"`
	DocumentsAnalyzed   int64   `json:"documents_analyzed"`
	DocumentsFailed     int64   `json:"documents_failed"`
	DecodeFailures      int64   `json:"decode_failures"`
	EmptyTextResults    int64   `json:"empty_text_results"`
	FraudVerdicts       int64   `json:"fraud_verdicts"`
	AvgProcessingTimeMs float64 `json:"avg_processing_time_ms"`

	WorkerPool WorkerPoolMetrics `json:"worker_pool"`
}

// WorkerPoolMetrics describes the batch worker pool
type WorkerPoolMetrics struct {
	Workers       int   `json:"workers"`
	JobsSubmitted int64 `json:"jobs_submitted"`
	JobsCompleted int64 `json:"jobs_completed"`
	ActiveWorkers int64 `json:"active_workers"`
}
