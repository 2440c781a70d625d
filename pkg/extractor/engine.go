package extractor

import (
	"context"

	"github.com/Caia-Tech/pdfocr/pkg/document"
)

// Rasterizer renders a page range of a PDF to images, one per page, in page order
type Rasterizer interface {
	Rasterize(ctx context.Context, ref document.Reference) ([]document.PageImage, error)
}

// Recognizer extracts the text of a single page image
type Recognizer interface {
	Recognize(ctx context.Context, image document.PageImage) (string, error)
}

// RecognizerFunc adapts a plain function to the Recognizer interface
type RecognizerFunc func(ctx context.Context, image document.PageImage) (string, error)

func (f RecognizerFunc) Recognize(ctx context.Context, image document.PageImage) (string, error) {
	return f(ctx, image)
}

// RasterizerFunc adapts a plain function to the Rasterizer interface
type RasterizerFunc func(ctx context.Context, ref document.Reference) ([]document.PageImage, error)

func (f RasterizerFunc) Rasterize(ctx context.Context, ref document.Reference) ([]document.PageImage, error) {
	return f(ctx, ref)
}
