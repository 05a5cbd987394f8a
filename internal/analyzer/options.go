package analyzer

import "github.com/anime-shed/document-verification-go/internal/document"

// Options configures feature extraction
type Options struct {
	// Hysteresis thresholds of the edge detector, on the 8-bit luminance scale
	EdgeLowThreshold  float64
	EdgeHighThreshold float64

	// Resolution used to rasterise PDF uploads
	PDFRenderDPI float64

	// Largest width×height decoded; bigger uploads count as undecodable
	MaxImagePixels int64

	// Row strips processed concurrently; 0 means runtime.NumCPU()
	MaxWorkers int
}

// DefaultOptions returns default extraction options
func DefaultOptions() Options {
	return Options{
		EdgeLowThreshold:  100,
		EdgeHighThreshold: 200,
		PDFRenderDPI:      200,
		MaxImagePixels:    document.DefaultMaxImagePixels,
		MaxWorkers:        0,
	}
}

