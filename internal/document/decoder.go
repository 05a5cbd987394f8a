// Package document turns uploaded bytes into rasters the extractors can read.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"sync"

	"github.com/gen2brain/go-fitz"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/anime-shed/document-verification-go/pkg/validation"
)

// ErrDecode marks content that cannot be turned into an image
var ErrDecode = errors.New("document: image could not be decoded")

const (
	// DefaultPDFDPI is the resolution used to rasterise the first PDF page
	DefaultPDFDPI = 200.0

	// DefaultMaxImagePixels caps width×height of a decoded raster
	DefaultMaxImagePixels = 89_478_485

	mediaTypePDF  = "application/pdf"
	pointsPerInch = 72.0
)

// Source is one uploaded document shared by the extractors of a single
// evaluation. The first page of a PDF is rendered at most once per Source.
type Source struct {
	Data      []byte
	MediaType string

	once    sync.Once
	page    image.Image
	pageErr error
}

// NewSource sniffs the media type of data once
func NewSource(data []byte) *Source {
	return &Source{
		Data:      data,
		MediaType: validation.DetectMediaType(data),
	}
}

// IsPDF reports whether the source was sniffed as a PDF
func (s *Source) IsPDF() bool {
	return s.MediaType == mediaTypePDF
}

// Decoder decodes raster images and renders the first page of PDFs
type Decoder struct {
	PDFDPI float64

	// MaxPixels rejects rasters larger than this; PDF pages are rendered at a
	// lower resolution instead. Zero selects DefaultMaxImagePixels.
	MaxPixels int64

	render func(data []byte, dpi float64, maxPixels int64) (image.Image, error)
}

// NewDecoder returns a decoder with the default PDF resolution and pixel cap
func NewDecoder() *Decoder {
	return &Decoder{
		PDFDPI:    DefaultPDFDPI,
		MaxPixels: DefaultMaxImagePixels,
		render:    renderFirstPage,
	}
}

// Decode returns the raster and its format name ("png", "jpeg", "tiff", "pdf", ...)
func (d *Decoder) Decode(src *Source) (image.Image, string, error) {
	if len(src.Data) == 0 {
		return nil, "", fmt.Errorf("%w: empty input", ErrDecode)
	}

	if src.IsPDF() {
		img, err := d.firstPage(src)
		if err != nil {
			return nil, "", err
		}
		return img, "pdf", nil
	}

	if err := d.checkDimensions(src.Data); err != nil {
		return nil, "", err
	}
	img, format, err := image.Decode(bytes.NewReader(src.Data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", fmt.Errorf("%w: zero-sized image", ErrDecode)
	}
	return img, format, nil
}

// OCRInput returns bytes an OCR engine can read directly. Raster uploads are
// passed through after the size check; PDFs are rendered and re-encoded as PNG.
func (d *Decoder) OCRInput(src *Source) ([]byte, error) {
	if !src.IsPDF() {
		if err := d.checkDimensions(src.Data); err != nil {
			return nil, err
		}
		return src.Data, nil
	}
	img, err := d.firstPage(src)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode rendered page: %w", err)
	}
	return buf.Bytes(), nil
}

func (d *Decoder) firstPage(src *Source) (image.Image, error) {
	src.once.Do(func() {
		render := d.render
		if render == nil {
			render = renderFirstPage
		}
		src.page, src.pageErr = render(src.Data, d.dpi(), d.maxPixels())
	})
	return src.page, src.pageErr
}

// checkDimensions reads only the image header so oversized rasters are
// rejected before any pixel buffer is allocated.
func (d *Decoder) checkDimensions(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > d.maxPixels() {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, d.maxPixels())
	}
	return nil
}

func (d *Decoder) dpi() float64 {
	if d.PDFDPI <= 0 {
		return DefaultPDFDPI
	}
	return d.PDFDPI
}

func (d *Decoder) maxPixels() int64 {
	if d.MaxPixels <= 0 {
		return DefaultMaxImagePixels
	}
	return d.MaxPixels
}

func renderFirstPage(data []byte, dpi float64, maxPixels int64) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", ErrDecode, err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("%w: pdf has no pages", ErrDecode)
	}

	bounds, err := doc.Bound(0)
	if err != nil {
		return nil, fmt.Errorf("%w: page bounds: %v", ErrDecode, err)
	}
	dpi = FitDPI(bounds.Dx(), bounds.Dy(), dpi, maxPixels)
	if dpi <= 0 {
		return nil, fmt.Errorf("%w: empty pdf page", ErrDecode)
	}

	img, err := doc.ImageDPI(0, dpi)
	if err != nil {
		return nil, fmt.Errorf("%w: render pdf page: %v", ErrDecode, err)
	}
	return img, nil
}

// FitDPI lowers dpi until a page of the given size in points renders within
// maxPixels. It returns 0 for an empty page.
func FitDPI(widthPt, heightPt int, dpi float64, maxPixels int64) float64 {
	if widthPt <= 0 || heightPt <= 0 {
		return 0
	}
	scale := dpi / pointsPerInch
	pixels := float64(widthPt) * scale * float64(heightPt) * scale
	if pixels <= float64(maxPixels) {
		return dpi
	}
	// floor keeps the rounded-up render size under the cap
	return math.Floor(dpi*math.Sqrt(float64(maxPixels)/pixels)*100) / 100
}
