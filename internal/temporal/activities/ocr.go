package activities

import (
	"context"
	"fmt"

	"github.com/Caia-Tech/pdfocr/internal/temporal/workflows"
	"github.com/Caia-Tech/pdfocr/pkg/document"
	"github.com/Caia-Tech/pdfocr/pkg/extractor"
	"github.com/Caia-Tech/pdfocr/pkg/pipeline"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

// OCRActivities runs the OCR pipeline inside a worker
type OCRActivities struct {
	config    pipeline.ProcessingConfig
	events    pipeline.EventPublisher
	newRunner func(*pipeline.ProcessingConfig) *pipeline.Runner
}

// NewOCRActivities creates activities that build runners from the given processing
// config. Run progress goes to events when it is non-nil.
func NewOCRActivities(config *pipeline.ProcessingConfig, events pipeline.EventPublisher) *OCRActivities {
	return &OCRActivities{
		config:    *config,
		events:    events,
		newRunner: pipeline.NewRunner,
	}
}

// OCRDocumentActivity rasterizes, recognizes and normalizes the requested pages.
// Document and recognition failures are returned as non-retryable application errors.
func (a *OCRActivities) OCRDocumentActivity(ctx context.Context, input workflows.OCRInput) (document.Report, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Running OCR", "path", input.Path, "firstPage", input.FirstPage, "lastPage", input.LastPage)

	config := a.config
	if input.Language != "" {
		config.OCRLanguage = input.Language
	}

	runner := a.newRunner(&config)
	if a.events != nil {
		runner.Events = a.events
	}

	report, err := runner.Run(ctx, input.Reference())
	if err != nil {
		return document.Report{}, toActivityError(err)
	}

	logger.Info("OCR completed", "pages", report.Pages, "resultLength", len(report.Result))
	return *report, nil
}

func toActivityError(err error) error {
	switch {
	case extractor.IsDocumentError(err):
		return temporal.NewNonRetryableApplicationError(err.Error(), extractor.DocumentErrorType, err)
	case extractor.IsRecognitionError(err):
		return temporal.NewNonRetryableApplicationError(err.Error(), extractor.RecognitionErrorType, err)
	default:
		return fmt.Errorf("ocr run failed: %w", err)
	}
}
