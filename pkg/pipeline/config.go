package pipeline

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Caia-Tech/pdfocr/pkg/document"
	"github.com/Caia-Tech/pdfocr/pkg/extractor"
	"github.com/Caia-Tech/pdfocr/pkg/logging"
)

// PipelineConfig holds complete pipeline configuration
type PipelineConfig struct {
	// Logging configuration
	Logging *logging.LogConfig `json:"logging"`

	// Processing configuration
	Processing *ProcessingConfig `json:"processing"`

	// Server configuration
	Server *ServerConfig `json:"server"`

	// Temporal configuration
	Temporal *TemporalConfig `json:"temporal"`
}

// ProcessingConfig holds the run input and the OCR settings
type ProcessingConfig struct {
	InputPath    string `json:"input_path"`    // PDF to process
	FirstPage    int    `json:"first_page"`    // 1-based, inclusive
	LastPage     int    `json:"last_page"`     // 1-based, inclusive
	OCRLanguage  string `json:"ocr_language"`  // tesseract language
	DPI          int    `json:"dpi"`           // rasterization resolution
	PdftoppmPath string `json:"pdftoppm_path"` // poppler renderer binary
	Enhance      bool   `json:"enhance"`       // grayscale/contrast/sharpen pages before OCR
	TempDir      string `json:"temp_dir"`      // parent of per-run render directories
}

// ServerConfig holds server settings
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// TemporalConfig holds workflow host settings
type TemporalConfig struct {
	HostPort      string        `json:"host_port"`
	TaskQueue     string        `json:"task_queue"`
	ResultTimeout time.Duration `json:"result_timeout"`
}

// Reference returns the document reference described by the processing config
func (p *ProcessingConfig) Reference() document.Reference {
	return document.Reference{
		Path:  p.InputPath,
		Pages: document.PageRange{First: p.FirstPage, Last: p.LastPage},
	}
}

// DefaultPipelineConfig returns a complete default configuration
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Logging: logging.DefaultLogConfig(),

		Processing: &ProcessingConfig{
			InputPath:    "run-melos.pdf",
			FirstPage:    1,
			LastPage:     2,
			OCRLanguage:  "jpn",
			DPI:          200,
			PdftoppmPath: "pdftoppm",
			Enhance:      false,
		},

		Server: &ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
		},

		Temporal: &TemporalConfig{
			HostPort:      "localhost:7233",
			TaskQueue:     "pdfocr",
			ResultTimeout: 10 * time.Minute,
		},
	}
}

// ProductionPipelineConfig returns production-ready configuration
func ProductionPipelineConfig() *PipelineConfig {
	config := DefaultPipelineConfig()

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	return config
}

// DevelopmentPipelineConfig returns development configuration
func DevelopmentPipelineConfig() *PipelineConfig {
	config := DefaultPipelineConfig()

	config.Logging.Level = "debug"
	config.Logging.Format = "pretty"
	config.Logging.Console = true

	return config
}

// ApplyEnvOverrides overrides settings from PDFOCR_* environment variables
func ApplyEnvOverrides(config *PipelineConfig) error {
	p := config.Processing
	p.InputPath = getEnv("PDFOCR_INPUT", p.InputPath)
	p.OCRLanguage = getEnv("PDFOCR_LANG", p.OCRLanguage)
	p.PdftoppmPath = getEnv("PDFOCR_PDFTOPPM", p.PdftoppmPath)
	p.TempDir = getEnv("PDFOCR_TEMP_DIR", p.TempDir)

	var err error
	if p.FirstPage, err = getEnvInt("PDFOCR_FIRST_PAGE", p.FirstPage); err != nil {
		return err
	}
	if p.LastPage, err = getEnvInt("PDFOCR_LAST_PAGE", p.LastPage); err != nil {
		return err
	}
	if p.DPI, err = getEnvInt("PDFOCR_DPI", p.DPI); err != nil {
		return err
	}
	if v := os.Getenv("PDFOCR_ENHANCE"); v != "" {
		if p.Enhance, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("PDFOCR_ENHANCE: %w", err)
		}
	}

	config.Logging.Level = getEnv("PDFOCR_LOG_LEVEL", config.Logging.Level)
	config.Logging.Format = getEnv("PDFOCR_LOG_FORMAT", config.Logging.Format)
	config.Temporal.HostPort = getEnv("TEMPORAL_HOST", config.Temporal.HostPort)
	config.Temporal.TaskQueue = getEnv("PDFOCR_TASK_QUEUE", config.Temporal.TaskQueue)

	if config.Server.Port, err = getEnvInt("PORT", config.Server.Port); err != nil {
		return err
	}
	return nil
}

// ValidateConfiguration checks the configuration before a run starts. A bad
// document reference is reported as a *extractor.DocumentError.
func ValidateConfiguration(config *PipelineConfig) error {
	if config == nil || config.Processing == nil || config.Logging == nil {
		return fmt.Errorf("configuration is incomplete")
	}

	p := config.Processing
	if err := p.Reference().Validate(); err != nil {
		return &extractor.DocumentError{Path: p.InputPath, Message: "invalid document reference", Err: err}
	}
	if p.OCRLanguage == "" {
		return fmt.Errorf("ocr language cannot be empty")
	}
	if p.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %d", p.DPI)
	}

	switch config.Logging.Format {
	case "json", "pretty":
	default:
		return fmt.Errorf("unknown log format %q", config.Logging.Format)
	}
	return nil
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
