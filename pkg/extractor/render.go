package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Caia-Tech/pdfocr/pkg/document"
)

// RenderOptions controls how pages are rasterized
type RenderOptions struct {
	DPI    int
	Format document.ImageFormat
}

// Renderer writes one image file per page into dir and returns their paths in page order
type Renderer interface {
	RenderPages(ctx context.Context, path string, pages document.PageRange, opts RenderOptions, dir string) ([]string, error)
}

// PdftoppmRenderer renders pages with poppler's pdftoppm
type PdftoppmRenderer struct {
	BinPath string
}

// NewPdftoppmRenderer creates a renderer. If binPath is empty, "pdftoppm" is resolved from PATH.
func NewPdftoppmRenderer(binPath string) *PdftoppmRenderer {
	if binPath == "" {
		binPath = "pdftoppm"
	}
	return &PdftoppmRenderer{BinPath: binPath}
}

const renderPrefix = "page"

// RenderPages runs pdftoppm for the inclusive page range
func (p *PdftoppmRenderer) RenderPages(ctx context.Context, path string, pages document.PageRange, opts RenderOptions, dir string) ([]string, error) {
	args := []string{
		"-" + formatFlag(opts.Format),
		"-f", strconv.Itoa(pages.First),
		"-l", strconv.Itoa(pages.Last),
	}
	if opts.DPI > 0 {
		args = append(args, "-r", strconv.Itoa(opts.DPI))
	}
	args = append(args, path, filepath.Join(dir, renderPrefix))

	cmd := exec.CommandContext(ctx, p.BinPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("pdftoppm not found at %q (install poppler-utils): %w", p.BinPath, err)
		}
		return nil, fmt.Errorf("pdftoppm failed for %s: %s: %w", path, strings.TrimSpace(stderr.String()), err)
	}

	return collectPageFiles(dir, opts.Format)
}

func formatFlag(format document.ImageFormat) string {
	switch format {
	case document.ImageFormatJPEG:
		return "jpeg"
	case document.ImageFormatTIFF:
		return "tiff"
	default:
		return "png"
	}
}

type pageFile struct {
	page int
	path string
}

// collectPageFiles finds "<prefix>-<n>.<ext>" files and orders them by page number.
// pdftoppm zero-pads n to the width of the document's page count, so a lexical sort
// is not enough.
func collectPageFiles(dir string, format document.ImageFormat) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, renderPrefix+"-*."+format.Extension()))
	if err != nil {
		return nil, fmt.Errorf("listing rendered pages: %w", err)
	}

	files := make([]pageFile, 0, len(matches))
	for _, match := range matches {
		page, err := pageNumber(match)
		if err != nil {
			return nil, err
		}
		files = append(files, pageFile{page: page, path: match})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].page < files[j].page
	})

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

func pageNumber(path string) (int, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	idx := strings.LastIndex(name, "-")
	if idx == -1 {
		return 0, fmt.Errorf("unexpected rendered file name %q", filepath.Base(path))
	}
	page, err := strconv.Atoi(name[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("unexpected rendered file name %q: %w", filepath.Base(path), err)
	}
	return page, nil
}
