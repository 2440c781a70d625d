// Package main provides the one-shot command that OCRs a PDF page range and prints the report
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Caia-Tech/pdfocr/pkg/logging"
	"github.com/Caia-Tech/pdfocr/pkg/pipeline"
	"github.com/spf13/cobra"
)

func main() {
	config := pipeline.DefaultPipelineConfig()
	if err := pipeline.ApplyEnvOverrides(config); err != nil {
		logger := logging.GetLogger("main")
		logger.Error().Err(err).Msg("Invalid environment configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(config).ExecuteContext(ctx); err != nil {
		logger := logging.GetLogger("main")
		logger.Error().Err(err).Msg("OCR run failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd(config *pipeline.PipelineConfig) *cobra.Command {
	p := config.Processing

	cmd := &cobra.Command{
		Use:   "pdfocr",
		Short: "OCR a page range of a PDF and print the normalized text",
		Long: `pdfocr renders the selected pages of a PDF, recognizes each page with
Tesseract, joins the page texts, removes line breaks and the spaces OCR leaves
between Japanese characters, and prints a timestamped report.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.SetupLogger(config.Logging); err != nil {
				return err
			}
			if err := pipeline.ValidateConfiguration(config); err != nil {
				return err
			}

			runner := pipeline.NewRunner(p)
			return runner.RunAndPrint(cmd.Context(), p.Reference(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&p.InputPath, "input", "i", p.InputPath, "PDF file to process")
	flags.IntVar(&p.FirstPage, "first-page", p.FirstPage, "first page to process (1-based)")
	flags.IntVar(&p.LastPage, "last-page", p.LastPage, "last page to process (inclusive)")
	flags.StringVarP(&p.OCRLanguage, "lang", "l", p.OCRLanguage, "Tesseract language")
	flags.IntVar(&p.DPI, "dpi", p.DPI, "rasterization resolution")
	flags.BoolVar(&p.Enhance, "enhance", p.Enhance, "grayscale, contrast and sharpen pages before OCR")
	flags.StringVar(&p.PdftoppmPath, "pdftoppm", p.PdftoppmPath, "path to the pdftoppm binary")
	flags.StringVar(&config.Logging.Level, "log-level", config.Logging.Level, "log level (debug, info, warn, error)")
	flags.StringVar(&config.Logging.Format, "log-format", config.Logging.Format, "log format (pretty, json)")

	return cmd
}
