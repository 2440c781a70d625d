//go:build !ocr
// +build !ocr

package extractor

import (
	"context"

	"github.com/Caia-Tech/pdfocr/pkg/document"
	"github.com/Caia-Tech/pdfocr/pkg/logging"
)

// DefaultLanguage is the Tesseract language model used for recognition
const DefaultLanguage = "jpn"

// OCRExtractor is the stand-in used when the binary is built without Tesseract
type OCRExtractor struct {
	Language string
	DPI      int
}

// NewOCRExtractor creates an OCR extractor (fallback version)
func NewOCRExtractor() *OCRExtractor {
	return &OCRExtractor{
		Language: DefaultLanguage,
	}
}

// Recognize always fails with a *RecognitionError
func (o *OCRExtractor) Recognize(ctx context.Context, img document.PageImage) (string, error) {
	logger := logging.GetLogger("recognizer")
	logger.Info().
		Int("page", img.Page).
		Str("language", o.Language).
		Msg("Extract characters from an image...")

	return "", &RecognitionError{
		Page:    img.Page,
		Message: "OCR functionality requires Tesseract; rebuild with -tags ocr after installing tesseract-ocr and tesseract-ocr-jpn",
	}
}
