//go:build ocr
// +build ocr

package extractor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Caia-Tech/pdfocr/pkg/document"
	"github.com/Caia-Tech/pdfocr/pkg/logging"
	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is the Tesseract language model used for recognition
const DefaultLanguage = "jpn"

// OCRExtractor recognizes page images with Tesseract
type OCRExtractor struct {
	Language             string // Tesseract language code (e.g., "jpn", "jpn+eng")
	PageSegmentationMode gosseract.PageSegMode
	DPI                  int
}

// NewOCRExtractor creates a Japanese OCR extractor
func NewOCRExtractor() *OCRExtractor {
	return &OCRExtractor{
		Language:             DefaultLanguage,
		PageSegmentationMode: gosseract.PSM_AUTO,
	}
}

// Recognize returns the text Tesseract reads from the image as-is. Line breaks
// are kept; cleanup happens once over the whole document.
func (o *OCRExtractor) Recognize(ctx context.Context, img document.PageImage) (string, error) {
	logger := logging.GetLogger("recognizer")
	logger.Info().
		Int("page", img.Page).
		Str("language", o.Language).
		Msg("Extract characters from an image...")

	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(o.Language); err != nil {
		return "", &RecognitionError{Page: img.Page, Message: fmt.Sprintf("failed to set OCR language '%s'", o.Language), Err: err}
	}
	if err := client.SetPageSegMode(o.PageSegmentationMode); err != nil {
		return "", &RecognitionError{Page: img.Page, Message: "failed to set page segmentation mode", Err: err}
	}
	if o.DPI > 0 {
		if err := client.SetVariable("user_defined_dpi", strconv.Itoa(o.DPI)); err != nil {
			return "", &RecognitionError{Page: img.Page, Message: "failed to set dpi", Err: err}
		}
	}
	if err := client.SetImageFromBytes(img.Data); err != nil {
		return "", &RecognitionError{Page: img.Page, Message: "failed to set OCR image data", Err: err}
	}

	text, err := client.Text()
	if err != nil {
		return "", &RecognitionError{Page: img.Page, Message: "OCR text extraction failed", Err: err}
	}

	logger.Debug().
		Int("page", img.Page).
		Int("text_length", len(text)).
		Msg("Page recognized")
	return text, nil
}
