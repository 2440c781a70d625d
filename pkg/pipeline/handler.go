package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/Caia-Tech/pdfocr/pkg/document"
)

// Handler adapts a function-host invocation to a pipeline run over a fixed
// document reference. Host metadata travels in the context.
type Handler struct {
	Runner    *Runner
	Reference document.Reference
	Out       io.Writer
}

// NewHandler creates a handler that processes the configured document and
// prints the report to stdout.
func NewHandler(config *ProcessingConfig) *Handler {
	return &Handler{
		Runner:    NewRunner(config),
		Reference: config.Reference(),
		Out:       os.Stdout,
	}
}

// Handle ignores the event payload and runs the pipeline once
func (h *Handler) Handle(ctx context.Context, event json.RawMessage) error {
	out := h.Out
	if out == nil {
		out = os.Stdout
	}
	return h.Runner.RunAndPrint(ctx, h.Reference, out)
}
