package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Caia-Tech/pdfocr/internal/events"
	"github.com/Caia-Tech/pdfocr/internal/processing"
	"github.com/Caia-Tech/pdfocr/pkg/document"
	"github.com/Caia-Tech/pdfocr/pkg/extractor"
	"github.com/Caia-Tech/pdfocr/pkg/logging"
	"github.com/google/uuid"
)

// Normalizer rewrites the concatenated OCR text
type Normalizer interface {
	Normalize(text string) string
}

// EventPublisher receives run progress events
type EventPublisher interface {
	Publish(event *events.RunEvent) error
}

// Runner sequences rasterization, recognition and normalization for one document.
// Events is optional.
type Runner struct {
	Rasterizer extractor.Rasterizer
	Recognizer extractor.Recognizer
	Normalizer Normalizer
	Events     EventPublisher
	Now        func() time.Time
}

// NewRunner wires the pdftoppm rasterizer, the Tesseract recognizer and the
// default normalizer from the processing config.
func NewRunner(config *ProcessingConfig) *Runner {
	rasterizer := extractor.NewPDFRasterizer()
	rasterizer.Renderer = extractor.NewPdftoppmRenderer(config.PdftoppmPath)
	rasterizer.DPI = config.DPI
	rasterizer.Enhance = config.Enhance
	rasterizer.TempDir = config.TempDir

	recognizer := extractor.NewOCRExtractor()
	recognizer.Language = config.OCRLanguage
	recognizer.DPI = config.DPI

	return &Runner{
		Rasterizer: rasterizer,
		Recognizer: recognizer,
		Normalizer: processing.NewNormalizer(),
		Now:        time.Now,
	}
}

// Run processes the referenced pages and returns the report. Any stage error
// aborts the run; no partial report is produced.
func (r *Runner) Run(ctx context.Context, ref document.Reference) (*document.Report, error) {
	runID := uuid.New().String()
	logger := logging.GetPipelineLogger(runID, "run")
	start := r.now()

	logger.Info().
		Str("path", ref.Path).
		Str("pages", ref.Pages.String()).
		Msg("OCR run started")
	r.publish(runID, ref.Path, events.EventRunStarted, nil)

	images, err := r.Rasterizer.Rasterize(ctx, ref)
	if err != nil {
		logger.Error().Err(err).Msg("Rasterization failed")
		r.publish(runID, ref.Path, events.EventRunFailed, func(e *events.RunEvent) { e.Error = err.Error() })
		return nil, err
	}
	r.publish(runID, ref.Path, events.EventPagesRasterized, func(e *events.RunEvent) { e.Pages = len(images) })

	var result strings.Builder
	for _, image := range images {
		text, err := r.Recognizer.Recognize(ctx, image)
		if err != nil {
			logger.Error().Err(err).Int("page", image.Page).Msg("Recognition failed")
			r.publish(runID, ref.Path, events.EventRunFailed, func(e *events.RunEvent) {
				e.Page = image.Page
				e.Error = err.Error()
			})
			return nil, err
		}
		result.WriteString(text)
		r.publish(runID, ref.Path, events.EventPageRecognized, func(e *events.RunEvent) { e.Page = image.Page })
	}

	normalized := r.Normalizer.Normalize(result.String())
	end := r.now()

	report := &document.Report{
		Start:  start,
		End:    end,
		Pages:  len(images),
		Result: normalized,
	}

	logger.Info().
		Int("pages", report.Pages).
		Int64("duration_seconds", report.Duration()).
		Int("result_length", len(normalized)).
		Msg("OCR run completed")
	r.publish(runID, ref.Path, events.EventRunCompleted, func(e *events.RunEvent) { e.Pages = report.Pages })
	return report, nil
}

func (r *Runner) publish(runID, path string, eventType events.EventType, fill func(*events.RunEvent)) {
	if r.Events == nil {
		return
	}
	event := events.NewRunEvent(eventType, runID, path)
	if fill != nil {
		fill(event)
	}
	if err := r.Events.Publish(event); err != nil {
		logger := logging.GetPipelineLogger(runID, "events")
		logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Run event not published")
	}
}

// RunAndPrint runs the pipeline and writes the report block to w
func (r *Runner) RunAndPrint(ctx context.Context, ref document.Reference, w io.Writer) error {
	report, err := r.Run(ctx, ref)
	if err != nil {
		return err
	}
	if err := report.Write(w); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
