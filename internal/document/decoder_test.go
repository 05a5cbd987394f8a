package document

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/image/tiff"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), 90, 255})
		}
	}
	return img
}

func TestDecode_RasterFormats(t *testing.T) {
	src := testImage(32, 24)

	var pngBuf, jpegBuf, tiffBuf bytes.Buffer
	if err := png.Encode(&pngBuf, src); err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(&jpegBuf, src, nil); err != nil {
		t.Fatal(err)
	}
	if err := tiff.Encode(&tiffBuf, src, nil); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{"png", pngBuf.Bytes(), "png"},
		{"jpeg", jpegBuf.Bytes(), "jpeg"},
		{"tiff", tiffBuf.Bytes(), "tiff"},
	}

	decoder := NewDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, format, err := decoder.Decode(NewSource(tt.data))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if format != tt.format {
				t.Errorf("Expected format %s, got %s", tt.format, format)
			}
			if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 24 {
				t.Errorf("Unexpected bounds %v", img.Bounds())
			}
		})
	}
}

func TestDecode_Corrupt(t *testing.T) {
	decoder := NewDecoder()

	inputs := map[string][]byte{
		"empty":         nil,
		"garbage":       []byte("definitely not an image"),
		"truncated png": {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00},
	}
	for name, data := range inputs {
		if _, _, err := decoder.Decode(NewSource(data)); !errors.Is(err, ErrDecode) {
			t.Errorf("%s: expected ErrDecode, got %v", name, err)
		}
	}
}

func TestDecode_CorruptPDF(t *testing.T) {
	data := []byte("%PDF-1.4\n garbage that is not a real pdf body")
	src := NewSource(data)
	if !src.IsPDF() {
		t.Fatalf("Expected PDF signature to be detected, got %q", src.MediaType)
	}
	if _, _, err := NewDecoder().Decode(src); !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode for broken PDF, got %v", err)
	}
}

func TestOCRInput_PassesRasterThrough(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(8, 8)); err != nil {
		t.Fatal(err)
	}
	out, err := NewDecoder().OCRInput(NewSource(buf.Bytes()))
	if err != nil {
		t.Fatalf("OCRInput() error = %v", err)
	}
	if !bytes.Equal(out, buf.Bytes()) {
		t.Error("Expected raster bytes to be passed through unchanged")
	}
}

// pngHeader returns a PNG signature and IHDR chunk declaring a w×h grayscale
// image with no pixel data behind it
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth

	chunk := append([]byte("IHDR"), ihdr...)
	var buf bytes.Buffer
	buf.Write([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecode_RejectsOversizedHeader(t *testing.T) {
	data := pngHeader(40000, 40000)
	decoder := NewDecoder()

	if _, _, err := decoder.Decode(NewSource(data)); !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode for a 1.6 gigapixel header, got %v", err)
	}
	if _, err := decoder.OCRInput(NewSource(data)); !errors.Is(err, ErrDecode) {
		t.Errorf("Expected OCR input to be refused too, got %v", err)
	}
}

func TestDecode_MaxPixels(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(32, 24)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		maxPixels int64
		wantErr   bool
	}{
		{"default cap", 0, false},
		{"exactly at cap", 32 * 24, false},
		{"one pixel over", 32*24 - 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoder := NewDecoder()
			decoder.MaxPixels = tt.maxPixels
			_, _, err := decoder.Decode(NewSource(buf.Bytes()))
			if (err != nil) != tt.wantErr {
				t.Errorf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrDecode) {
				t.Errorf("Expected ErrDecode, got %v", err)
			}
		})
	}
}

func TestFitDPI(t *testing.T) {
	tests := []struct {
		name      string
		w, h      int
		dpi       float64
		maxPixels int64
		expected  float64
	}{
		{"a4 fits at 200", 595, 842, 200, DefaultMaxImagePixels, 200},
		{"empty page", 0, 842, 200, DefaultMaxImagePixels, 0},
		{"poster is scaled down", 14400, 14400, 200, 10_001, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitDPI(tt.w, tt.h, tt.dpi, tt.maxPixels)
			if got != tt.expected {
				t.Errorf("FitDPI() = %v, want %v", got, tt.expected)
			}
			if got > 0 {
				side := float64(tt.w) * got / pointsPerInch
				if side*float64(tt.h)*got/pointsPerInch > float64(tt.maxPixels) {
					t.Errorf("Render at %v dpi exceeds %d pixels", got, tt.maxPixels)
				}
			}
		})
	}
}

func TestSource_RendersPDFPageOnce(t *testing.T) {
	var renders atomic.Int32
	decoder := NewDecoder()
	decoder.render = func(data []byte, dpi float64, maxPixels int64) (image.Image, error) {
		renders.Add(1)
		return testImage(16, 16), nil
	}

	src := NewSource([]byte("%PDF-1.7\n1 0 obj"))
	if src.MediaType != "application/pdf" {
		t.Fatalf("Expected sniffed PDF, got %q", src.MediaType)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, format, err := decoder.Decode(src); err != nil || format != "pdf" {
			t.Errorf("Decode() = %q, %v", format, err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := decoder.OCRInput(src); err != nil {
			t.Errorf("OCRInput() error = %v", err)
		}
	}()
	wg.Wait()

	if n := renders.Load(); n != 1 {
		t.Errorf("Expected one render per source, got %d", n)
	}
}

func TestSource_RoutesBySniffedType(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(4, 4)); err != nil {
		t.Fatal(err)
	}

	decoder := NewDecoder()
	decoder.render = func([]byte, float64, int64) (image.Image, error) {
		t.Error("Expected rasters never to reach the PDF renderer")
		return nil, ErrDecode
	}

	src := NewSource(buf.Bytes())
	if src.MediaType != "image/png" || src.IsPDF() {
		t.Fatalf("Expected image/png, got %q", src.MediaType)
	}
	if _, format, err := decoder.Decode(src); err != nil || format != "png" {
		t.Errorf("Decode() = %q, %v", format, err)
	}
}
