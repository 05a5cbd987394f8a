package analyzer

import (
	"image"
	"image/draw"
	"sync"

	"github.com/anime-shed/document-verification-go/internal/document"
	"github.com/anime-shed/document-verification-go/pkg/models"
)

// featureExtractor implements FeatureExtractor and orchestrates the decoder
// and the metrics calculator
type featureExtractor struct {
	decoder           *document.Decoder
	metricsCalculator MetricsCalculator
	options           Options
	grayPool          sync.Pool
}

// NewFeatureExtractor creates a feature extractor with the given options
func NewFeatureExtractor(decoder *document.Decoder, options Options) FeatureExtractor {
	if decoder == nil {
		decoder = document.NewDecoder()
	}
	if options.PDFRenderDPI > 0 {
		decoder.PDFDPI = options.PDFRenderDPI
	}
	if options.MaxImagePixels > 0 {
		decoder.MaxPixels = options.MaxImagePixels
	}

	return &featureExtractor{
		decoder:           decoder,
		metricsCalculator: NewMetricsCalculator(options.MaxWorkers),
		options:           options,
		grayPool: sync.Pool{
			New: func() interface{} {
				return &image.Gray{}
			},
		},
	}
}

// Extract decodes the source and computes its quality features
func (fe *featureExtractor) Extract(src *document.Source) (*models.QualityFeatures, error) {
	img, _, err := fe.decoder.Decode(src)
	if err != nil {
		return nil, err
	}
	features := fe.Calculate(img)
	return &features, nil
}

// Calculate computes all four features from one luminance grid
func (fe *featureExtractor) Calculate(img image.Image) models.QualityFeatures {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	gray := fe.grayPool.Get().(*image.Gray)
	defer fe.grayPool.Put(gray)

	if cap(gray.Pix) < width*height {
		gray.Pix = make([]uint8, width*height)
	}
	gray.Pix = gray.Pix[:width*height]
	gray.Stride = width
	gray.Rect = image.Rect(0, 0, width, height)

	// Gray conversion weights R, G and B by 0.299, 0.587 and 0.114
	draw.Draw(gray, gray.Rect, img, bounds.Min, draw.Src)

	return models.QualityFeatures{
		Sharpness:   fe.metricsCalculator.CalculateLaplacianVariance(gray),
		Contrast:    fe.metricsCalculator.CalculateContrast(gray),
		Brightness:  fe.metricsCalculator.CalculateBrightness(gray),
		EdgeDensity: fe.metricsCalculator.CalculateEdgeDensity(gray, fe.options.EdgeLowThreshold, fe.options.EdgeHighThreshold),
	}
}
