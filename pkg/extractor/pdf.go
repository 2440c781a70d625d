package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/Caia-Tech/pdfocr/pkg/document"
	"github.com/Caia-Tech/pdfocr/pkg/logging"
	"github.com/ledongthuc/pdf"
	_ "golang.org/x/image/tiff"
)

// Default rasterization settings
const (
	DefaultDPI    = 200
	DefaultFormat = document.ImageFormatPNG
)

// PDFRasterizer turns a page range of a PDF file into page images
type PDFRasterizer struct {
	Renderer Renderer
	DPI      int
	Format   document.ImageFormat
	Enhance  bool
	TempDir  string
}

// NewPDFRasterizer creates a rasterizer backed by pdftoppm
func NewPDFRasterizer() *PDFRasterizer {
	return &PDFRasterizer{
		Renderer: NewPdftoppmRenderer(""),
		DPI:      DefaultDPI,
		Format:   DefaultFormat,
	}
}

// Rasterize validates the document and range, then renders exactly one image per page.
// Any failure is a *DocumentError and no images are returned.
func (p *PDFRasterizer) Rasterize(ctx context.Context, ref document.Reference) ([]document.PageImage, error) {
	logger := logging.GetLogger("rasterizer")
	logger.Info().
		Str("path", ref.Path).
		Str("pages", ref.Pages.String()).
		Msgf("Convert a PDF (%s) to a %s...", ref.Path, p.format())

	total, err := CountPages(ref.Path)
	if err != nil {
		return nil, err
	}
	if err := ref.Pages.Validate(total); err != nil {
		return nil, newDocumentError(ref.Path, "invalid page range", err)
	}

	dir, err := os.MkdirTemp(p.TempDir, "pdfocr-*")
	if err != nil {
		return nil, newDocumentError(ref.Path, "failed to create render directory", err)
	}
	defer os.RemoveAll(dir)

	files, err := p.Renderer.RenderPages(ctx, ref.Path, ref.Pages, RenderOptions{DPI: p.DPI, Format: p.format()}, dir)
	if err != nil {
		return nil, newDocumentError(ref.Path, "failed to render pages", err)
	}
	if len(files) != ref.Pages.Count() {
		return nil, newDocumentError(ref.Path, fmt.Sprintf("renderer produced %d images for %d pages", len(files), ref.Pages.Count()), nil)
	}

	images := make([]document.PageImage, 0, len(files))
	for i, file := range files {
		img, err := p.loadPage(file, ref.Pages.First+i)
		if err != nil {
			return nil, newDocumentError(ref.Path, "failed to load rendered page", err)
		}
		images = append(images, img)
	}

	logger.Info().
		Int("images", len(images)).
		Msgf("A total of converted %s images is %d.", p.format(), len(images))
	return images, nil
}

func (p *PDFRasterizer) format() document.ImageFormat {
	if p.Format == "" {
		return DefaultFormat
	}
	return p.Format
}

func (p *PDFRasterizer) loadPage(path string, page int) (document.PageImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return document.PageImage{}, fmt.Errorf("reading page %d: %w", page, err)
	}

	if p.Enhance {
		data, err = EnhancePage(data)
		if err != nil {
			return document.PageImage{}, fmt.Errorf("enhancing page %d: %w", page, err)
		}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return document.PageImage{}, fmt.Errorf("decoding page %d: %w", page, err)
	}

	format := p.format()
	if p.Enhance {
		format = document.ImageFormatPNG
	}

	return document.PageImage{
		Page:   page,
		Format: format,
		Data:   data,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// CountPages opens a PDF and returns its page count. Files that are missing,
// unreadable, or not parseable as PDF yield a *DocumentError.
func CountPages(path string) (n int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, newDocumentError(path, "failed to open PDF", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, newDocumentError(path, "failed to stat PDF", err)
	}
	if info.IsDir() {
		return 0, newDocumentError(path, "path is a directory", nil)
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(f, header); err != nil || string(header) != "%PDF" {
		return 0, newDocumentError(path, fmt.Sprintf("not a valid PDF file - content starts with: %q", string(header)), nil)
	}

	// the parser panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			n = 0
			err = newDocumentError(path, "failed to parse PDF", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return 0, newDocumentError(path, "failed to parse PDF", err)
	}

	n = reader.NumPage()
	if n == 0 {
		return 0, newDocumentError(path, "PDF has no pages", nil)
	}
	return n, nil
}
