package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Caia-Tech/pdfocr/internal/events"
	"github.com/Caia-Tech/pdfocr/internal/temporal/workflows"
	"github.com/Caia-Tech/pdfocr/pkg/document"
	"github.com/Caia-Tech/pdfocr/pkg/extractor"
	"github.com/Caia-Tech/pdfocr/pkg/logging"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
)

// EventStats reports run event delivery counters
type EventStats interface {
	GetStats() events.EventBusStats
}

// Handlers contains the HTTP handlers for the API
type Handlers struct {
	temporal      client.Client
	taskQueue     string
	resultTimeout time.Duration
	eventStats    EventStats
}

// NewHandlers creates a new handlers instance
func NewHandlers(temporal client.Client, taskQueue string, resultTimeout time.Duration) *Handlers {
	return &Handlers{
		temporal:      temporal,
		taskQueue:     taskQueue,
		resultTimeout: resultTimeout,
	}
}

// Health returns the service health status
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"service":   "pdfocr",
		"timestamp": time.Now().UTC(),
	})
}

// WithEventStats exposes event bus counters on the stats endpoint
func (h *Handlers) WithEventStats(stats EventStats) *Handlers {
	h.eventStats = stats
	return h
}

// GetStats returns run event counters
func (h *Handlers) GetStats(c *fiber.Ctx) error {
	if h.eventStats == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Event stats are not enabled",
		})
	}
	return c.JSON(fiber.Map{
		"events":    h.eventStats.GetStats(),
		"timestamp": time.Now().UTC(),
	})
}

// OCRRequest represents a request to OCR a page range of a PDF on the worker host
type OCRRequest struct {
	Path      string `json:"path"`
	FirstPage int    `json:"first_page"`
	LastPage  int    `json:"last_page"`
	Language  string `json:"language"`
}

// OCRResponse identifies the started workflow
type OCRResponse struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
}

// OCRResultResponse carries a finished report and its printed form
type OCRResultResponse struct {
	WorkflowID      string    `json:"workflow_id"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationSeconds int64     `json:"duration_seconds"`
	Pages           int       `json:"pages"`
	Result          string    `json:"result"`
	Report          string    `json:"report"`
}

// StartOCR starts a document OCR workflow
func (h *Handlers) StartOCR(c *fiber.Ctx) error {
	logger := logging.GetLogger("api")

	var req OCRRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}

	input := workflows.OCRInput{
		Path:      req.Path,
		FirstPage: req.FirstPage,
		LastPage:  req.LastPage,
		Language:  req.Language,
	}
	if err := input.Reference().Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": err.Error(),
		})
	}

	workflowID := fmt.Sprintf("ocr-%s", uuid.New().String())

	we, err := h.temporal.ExecuteWorkflow(c.Context(), client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: h.taskQueue,
	}, workflows.DocumentOCRWorkflow, input)
	if err != nil {
		logger.Error().Err(err).Str("path", req.Path).Msg("Failed to start OCR workflow")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to start document OCR",
			"details": err.Error(),
		})
	}

	logger.Info().
		Str("workflow_id", workflowID).
		Str("path", req.Path).
		Str("pages", input.Reference().Pages.String()).
		Msg("Started document OCR workflow")

	return c.Status(fiber.StatusAccepted).JSON(OCRResponse{
		WorkflowID: we.GetID(),
		RunID:      we.GetRunID(),
	})
}

// GetOCRResult waits for the workflow to finish and returns its report
func (h *Handlers) GetOCRResult(c *fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Workflow ID is required",
		})
	}

	ctx := context.Background()
	if h.resultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.resultTimeout)
		defer cancel()
	}

	var report document.Report
	if err := h.temporal.GetWorkflow(ctx, workflowID, "").Get(ctx, &report); err != nil {
		workflowLog := logging.GetWorkflowLogger(workflowID, workflows.OCRDocumentActivityName)
		workflowLog.Error().Err(err).Msg("OCR workflow did not produce a report")
		return c.Status(statusForWorkflowError(err)).JSON(fiber.Map{
			"error":       err.Error(),
			"workflow_id": workflowID,
		})
	}

	var rendered bytes.Buffer
	if err := report.Write(&rendered); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(OCRResultResponse{
		WorkflowID:      workflowID,
		Start:           report.Start,
		End:             report.End,
		DurationSeconds: report.Duration(),
		Pages:           report.Pages,
		Result:          report.Result,
		Report:          rendered.String(),
	})
}

func statusForWorkflowError(err error) int {
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return fiber.StatusNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusGatewayTimeout
	}

	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		switch appErr.Type() {
		case workflows.InvalidInputErrorType, extractor.DocumentErrorType:
			return fiber.StatusUnprocessableEntity
		case extractor.RecognitionErrorType:
			return fiber.StatusBadGateway
		}
	}
	return fiber.StatusInternalServerError
}
