package workflows

import (
	"time"

	"github.com/Caia-Tech/pdfocr/pkg/document"
	"github.com/Caia-Tech/pdfocr/pkg/extractor"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// OCRInput identifies the document and pages one workflow run processes
type OCRInput struct {
	Path      string `json:"path"`
	FirstPage int    `json:"first_page"`
	LastPage  int    `json:"last_page"`
	Language  string `json:"language,omitempty"`
}

// Reference converts the input to a document reference
func (in OCRInput) Reference() document.Reference {
	return document.Reference{
		Path:  in.Path,
		Pages: document.PageRange{First: in.FirstPage, Last: in.LastPage},
	}
}

// InvalidInputErrorType marks inputs rejected before any activity runs
const InvalidInputErrorType = "InvalidInputError"

// Activity names
const (
	OCRDocumentActivityName = "OCRDocumentActivity"
)

var nonRetryableOCRErrors = []string{
	InvalidInputErrorType,
	extractor.DocumentErrorType,
	extractor.RecognitionErrorType,
}

// DocumentOCRWorkflow runs one OCR pass over the referenced pages and returns
// the report. OCR runs are not retried: a failed page aborts the document.
func DocumentOCRWorkflow(ctx workflow.Context, input OCRInput) (document.Report, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting document OCR", "path", input.Path, "firstPage", input.FirstPage, "lastPage", input.LastPage)

	if err := input.Reference().Validate(); err != nil {
		return document.Report{}, temporal.NewNonRetryableApplicationError(err.Error(), InvalidInputErrorType, err)
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        1,
			NonRetryableErrorTypes: nonRetryableOCRErrors,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var report document.Report
	if err := workflow.ExecuteActivity(ctx, OCRDocumentActivityName, input).Get(ctx, &report); err != nil {
		logger.Error("Document OCR failed", "path", input.Path, "error", err)
		return document.Report{}, err
	}

	logger.Info("Document OCR completed", "path", input.Path, "pages", report.Pages)
	return report, nil
}
