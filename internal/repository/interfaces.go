package repository

import (
	"context"

	"github.com/anime-shed/document-verification-go/pkg/models"
)

// DocumentRepository defines the persistence operations for analysis records
type DocumentRepository interface {
	// Create inserts a record and assigns its ID
	Create(ctx context.Context, record *models.AnalysisRecord) error

	// List returns every record, newest first
	List(ctx context.Context) ([]models.AnalysisRecord, error)

	// Get retrieves one record by id
	Get(ctx context.Context, id uint) (*models.AnalysisRecord, error)

	// Statistics aggregates verdict counts and confidences
	Statistics(ctx context.Context) (models.Statistics, error)
}

// DocumentRecord is the row layout of the documents table
type DocumentRecord struct {
	ID             uint    `gorm:"primaryKey;autoIncrement"`
	Filename       string  `gorm:"not null"`
	FileHash       string  `gorm:"index;not null"`
	UploadDate     string  `gorm:"index;not null"`
	Status         string  `gorm:"index;not null"`
	Confidence     float64 `gorm:"not null"`
	AnalysisResult string  `gorm:"type:text"`
	FilePath       string
}

// TableName keeps the historical table name
func (DocumentRecord) TableName() string {
	return "documents"
}
