package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/document-verification-go/internal/config"
	apperrors "github.com/anime-shed/document-verification-go/internal/errors"
	"github.com/anime-shed/document-verification-go/internal/logger"
	"github.com/anime-shed/document-verification-go/internal/service"
	"github.com/anime-shed/document-verification-go/pkg/models"
	"github.com/anime-shed/document-verification-go/pkg/validation"
)

// MetricsProvider exposes pipeline counters
type MetricsProvider interface {
	GetMetrics() models.PipelineMetrics
}

type handler struct {
	service   service.DocumentService
	metrics   MetricsProvider
	validator *validation.UploadValidator
	cfg       *config.Config
}

// NewHandler builds the gin engine with all /api routes, wrapped in CORS
func NewHandler(svc service.DocumentService, metrics MetricsProvider, cfg *config.Config) http.Handler {
	h := &handler{
		service:   svc,
		metrics:   metrics,
		validator: validation.NewUploadValidator(nil),
		cfg:       cfg,
	}

	r := gin.New()
	r.Use(
		requestID(),
		requestLogger(),
		recovery(),
	)

	api := r.Group("/api")
	api.GET("/health", healthCheck)
	api.OPTIONS("/upload", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	api.POST("/upload", requestSizeLimiter(cfg.MaxRequestBodySize), h.upload)
	api.GET("/documents", h.listDocuments)
	api.GET("/document/:id", h.getDocument)
	api.GET("/statistics", h.statistics)
	api.GET("/metrics", h.pipelineMetrics)

	return withCORS(r, cfg.CORSAllowedOrigins)
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "ok"})
}

// upload validates every file before analysing any of them, so a single
// disallowed file rejects the whole request without side effects.
func (h *handler) upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(c, apperrors.NewPayloadTooLargeError("request body too large", err).
				WithDetails(sizeLimitDetails(h.cfg.MaxRequestBodySize)))
			return
		}
		respondError(c, apperrors.NewValidationError("no files found", err).
			WithDetails("expected multipart form field 'files' or 'file'"))
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 || files[0].Filename == "" {
		// A file input submitted with nothing chosen arrives as a value part
		if hasField(form, "files") || hasField(form, "file") {
			respondError(c, apperrors.NewValidationError("no files selected", nil))
			return
		}
		respondError(c, apperrors.NewValidationError("no files found", nil).
			WithDetails("expected multipart form field 'files' or 'file'"))
		return
	}

	for _, fh := range files {
		if err := h.validator.ValidateFilename(fh.Filename); err != nil {
			details := fmt.Sprintf("%s: allowed types are %v", fh.Filename, h.validator.AllowedExtensions())
			if errors.Is(err, validation.ErrEmptyFilename) {
				details = "every file part needs a filename"
			}
			respondError(c, apperrors.NewValidationError("file type not allowed", err).WithDetails(details))
			return
		}
	}

	docs := make([]models.Document, 0, len(files))
	for _, fh := range files {
		docs = append(docs, toDocument(fh))
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	batch := h.service.AnalyzeBatch(ctx, docs)

	results := make([]models.UploadResult, 0, len(batch))
	for _, r := range batch {
		if r.Err != nil {
			entry := logger.WithError(r.Err).WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"filename":   r.Filename,
			})
			// An unreadable upload is the client's problem, not ours
			if apperrors.IsType(r.Err, apperrors.ErrorTypeIdentity) {
				entry.Warn("Document could not be read")
			} else {
				entry.Error("Document failed")
			}
			results = append(results, models.UploadResult{
				Filename: r.Filename,
				Error:    clientMessage(r.Err),
			})
			continue
		}
		results = append(results, models.UploadResult{
			ID:         r.Record.ID,
			Filename:   r.Record.Filename,
			Status:     r.Record.Status,
			Confidence: r.Record.Confidence,
			Reasons:    r.Record.Analysis.Reasons,
		})
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		Results: results,
		Total:   len(results),
	})
}

func (h *handler) listDocuments(c *gin.Context) {
	records, err := h.service.ListDocuments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	documents := make([]models.DocumentSummary, 0, len(records))
	for _, r := range records {
		documents = append(documents, models.DocumentSummary{
			ID:         r.ID,
			Filename:   r.Filename,
			UploadDate: formatDate(r),
			Status:     r.Status,
			Confidence: r.Confidence,
		})
	}
	c.JSON(http.StatusOK, models.DocumentListResponse{Documents: documents})
}

func (h *handler) getDocument(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		respondError(c, apperrors.NewNotFoundError("document not found", err))
		return
	}

	record, err := h.service.GetDocument(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DocumentDetailResponse{
		ID:         record.ID,
		Filename:   record.Filename,
		FileHash:   record.Fingerprint,
		UploadDate: formatDate(*record),
		Status:     record.Status,
		Confidence: record.Confidence,
		Analysis:   record.Analysis,
	})
}

func (h *handler) statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *handler) pipelineMetrics(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusOK, models.PipelineMetrics{})
		return
	}
	c.JSON(http.StatusOK, h.metrics.GetMetrics())
}

// toDocument defers opening the multipart file until the pipeline reads it
func toDocument(fh *multipart.FileHeader) models.Document {
	return models.Document{
		Filename: fh.Filename,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func hasField(form *multipart.Form, name string) bool {
	_, inValues := form.Value[name]
	_, inFiles := form.File[name]
	return inValues || inFiles
}

func formatDate(r models.AnalysisRecord) string {
	return r.UploadedAt.UTC().Format(models.TimestampLayout)
}

func sizeLimitDetails(maxBytes int64) string {
	return fmt.Sprintf("maximum request size is %d bytes", maxBytes)
}

// clientMessage keeps internal causes out of responses
func clientMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

func respondError(c *gin.Context, err error) {
	code := apperrors.GetStatusCode(err)

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"request_id":  c.GetString("request_id"),
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	resp := models.ErrorResponse{Error: clientMessage(err)}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Details = appErr.Details
	}
	c.AbortWithStatusJSON(code, resp)
}
