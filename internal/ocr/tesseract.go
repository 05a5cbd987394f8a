package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine recognises text with a fresh gosseract client per call,
// so concurrent pipeline runs never share Tesseract state.
type TesseractEngine struct {
	// TessdataPrefix overrides TESSDATA_PREFIX when set
	TessdataPrefix string
}

// NewTesseractEngine creates a Tesseract-backed engine
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{}
}

// Recognize implements Engine
func (t *TesseractEngine) Recognize(ctx context.Context, image []byte, languages []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.TessdataPrefix != "" {
		client.TessdataPrefix = t.TessdataPrefix
	}
	if err := client.SetLanguage(languages...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}
