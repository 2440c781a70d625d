// Package main serves the OCR pipeline as an AWS Lambda function
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Caia-Tech/pdfocr/pkg/logging"
	"github.com/Caia-Tech/pdfocr/pkg/pipeline"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
)

func main() {
	config := pipeline.ProductionPipelineConfig()
	if err := pipeline.ApplyEnvOverrides(config); err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logging.SetupLogger(config.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup logging: %v\n", err)
		os.Exit(1)
	}

	log := logging.GetLogger("lambda")
	if err := pipeline.ValidateConfiguration(config); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("path", config.Processing.InputPath).
		Str("pages", config.Processing.Reference().Pages.String()).
		Msg("Starting pdfocr function")
	lambda.Start(invokeHandler(pipeline.NewHandler(config.Processing)))
}

// invokeHandler wraps the pipeline handler with per-invocation logging
func invokeHandler(h *pipeline.Handler) func(context.Context, json.RawMessage) error {
	return func(ctx context.Context, event json.RawMessage) error {
		logger := logging.GetLogger("lambda")
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			logger = logger.With().Str("request_id", lc.AwsRequestID).Logger()
		}

		logger.Info().Int("event_bytes", len(event)).Msg("Invocation received")
		if err := h.Handle(ctx, event); err != nil {
			logger.Error().Err(err).Msg("OCR run failed")
			return err
		}
		logger.Info().Msg("Invocation completed")
		return nil
	}
}
