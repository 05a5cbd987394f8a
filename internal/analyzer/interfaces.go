package analyzer

import (
	"image"

	"github.com/anime-shed/document-verification-go/internal/document"
	"github.com/anime-shed/document-verification-go/pkg/models"
)

// FeatureExtractor computes quality features for an uploaded document
type FeatureExtractor interface {
	// Extract decodes src and computes its features. A decode failure is
	// returned as an error wrapping document.ErrDecode with nil features.
	Extract(src *document.Source) (*models.QualityFeatures, error)

	// Calculate computes features for an already decoded image
	Calculate(img image.Image) models.QualityFeatures
}

// MetricsCalculator handles the per-signal computations on the luminance grid
type MetricsCalculator interface {
	CalculateLaplacianVariance(gray *image.Gray) float64
	CalculateContrast(gray *image.Gray) float64
	CalculateBrightness(gray *image.Gray) float64
	CalculateEdgeDensity(gray *image.Gray, low, high float64) float64
}
