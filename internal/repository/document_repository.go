package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/anime-shed/document-verification-go/internal/logger"
	"github.com/anime-shed/document-verification-go/pkg/models"
)

// Options configures the SQLite database
type Options struct {
	Path     string
	LogLevel string // silent, error, warn, info
}

// Open connects to SQLite and migrates the documents table. The pool is
// limited to a single connection so inserts are serialized at the store.
func Open(opts Options) (*gorm.DB, error) {
	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create db dir %s: %v", ErrRepositoryUnavailable, dir, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(opts.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel(opts.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite %s: %v", ErrRepositoryUnavailable, opts.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&DocumentRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: migrate: %v", ErrRepositoryUnavailable, err)
	}

	logger.WithField("path", opts.Path).Info("Database initialized")
	return db, nil
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "info", "debug":
		return gormlogger.Info
	case "warn":
		return gormlogger.Warn
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Silent
	}
}

// GormDocumentRepository implements DocumentRepository on GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a repository over an open database
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// Create inserts the record inside its own transaction
func (r *GormDocumentRepository) Create(ctx context.Context, record *models.AnalysisRecord) error {
	analysis, err := json.Marshal(record.Analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}

	row := DocumentRecord{
		Filename:       record.Filename,
		FileHash:       record.Fingerprint,
		UploadDate:     record.UploadedAt.UTC().Format(models.TimestampLayout),
		Status:         string(record.Status),
		Confidence:     record.Confidence,
		AnalysisResult: string(analysis),
		FilePath:       record.StoredPath,
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	record.ID = row.ID
	logger.WithFields(logrus.Fields{
		"id":     row.ID,
		"status": row.Status,
	}).Debug("Document record stored")
	return nil
}

// List returns all records ordered by upload date, newest first
func (r *GormDocumentRepository) List(ctx context.Context) ([]models.AnalysisRecord, error) {
	var rows []DocumentRecord
	err := r.db.WithContext(ctx).
		Order("upload_date DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	records := make([]models.AnalysisRecord, 0, len(rows))
	for _, row := range rows {
		record, err := toModel(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Get retrieves one record; unknown ids return ErrDocumentNotFound
func (r *GormDocumentRepository) Get(ctx context.Context, id uint) (*models.AnalysisRecord, error) {
	var row DocumentRecord
	err := r.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %d: %w", id, err)
	}

	record, err := toModel(row)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Statistics aggregates over all stored records. Percentages and averages
// are zero when there is nothing to aggregate.
func (r *GormDocumentRepository) Statistics(ctx context.Context) (models.Statistics, error) {
	var agg struct {
		Total      int64
		Fraud      int64
		Genuine    int64
		AvgFraud   float64
		AvgGenuine float64
	}

	err := r.db.WithContext(ctx).
		Model(&DocumentRecord{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS fraud, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS genuine, "+
				"COALESCE(AVG(CASE WHEN status = ? THEN confidence END), 0) AS avg_fraud, "+
				"COALESCE(AVG(CASE WHEN status = ? THEN confidence END), 0) AS avg_genuine",
			models.StatusFraud, models.StatusGenuine, models.StatusFraud, models.StatusGenuine,
		).
		Scan(&agg).Error
	if err != nil {
		return models.Statistics{}, fmt.Errorf("aggregate documents: %w", err)
	}

	stats := models.Statistics{
		Total:                agg.Total,
		Fraud:                agg.Fraud,
		Genuine:              agg.Genuine,
		AvgFraudConfidence:   round2(agg.AvgFraud),
		AvgGenuineConfidence: round2(agg.AvgGenuine),
	}
	if agg.Total > 0 {
		stats.FraudPercentage = round2(float64(agg.Fraud) / float64(agg.Total) * 100)
	}
	return stats, nil
}

func toModel(row DocumentRecord) (models.AnalysisRecord, error) {
	uploadedAt, err := time.Parse(models.TimestampLayout, row.UploadDate)
	if err != nil {
		return models.AnalysisRecord{}, fmt.Errorf("document %d: bad upload date %q: %w", row.ID, row.UploadDate, err)
	}

	var analysis models.ScoreResult
	if row.AnalysisResult != "" {
		if err := json.Unmarshal([]byte(row.AnalysisResult), &analysis); err != nil {
			return models.AnalysisRecord{}, fmt.Errorf("document %d: decode analysis: %w", row.ID, err)
		}
	}

	return models.AnalysisRecord{
		ID:          row.ID,
		Filename:    row.Filename,
		Fingerprint: row.FileHash,
		UploadedAt:  uploadedAt,
		Status:      models.Status(row.Status),
		Confidence:  row.Confidence,
		Analysis:    analysis,
		StoredPath:  row.FilePath,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
