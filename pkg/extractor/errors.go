package extractor

import (
	"errors"
	"fmt"
)

// Error type names used when errors cross the workflow boundary
const (
	DocumentErrorType    = "DocumentError"
	RecognitionErrorType = "RecognitionError"
)

// DocumentError reports a source PDF that is missing, unreadable, corrupt, or
// asked for pages it does not have. It is never retried.
type DocumentError struct {
	Path    string
	Message string
	Err     error
}

func (e *DocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("document %s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("document %s: %s", e.Path, e.Message)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// RecognitionError reports an OCR engine that is unavailable or misconfigured
type RecognitionError struct {
	Page    int
	Message string
	Err     error
}

func (e *RecognitionError) Error() string {
	prefix := "ocr"
	if e.Page > 0 {
		prefix = fmt.Sprintf("ocr page %d", e.Page)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// IsDocumentError reports whether err wraps a *DocumentError
func IsDocumentError(err error) bool {
	var target *DocumentError
	return errors.As(err, &target)
}

// IsRecognitionError reports whether err wraps a *RecognitionError
func IsRecognitionError(err error) bool {
	var target *RecognitionError
	return errors.As(err, &target)
}

func newDocumentError(path, message string, err error) *DocumentError {
	return &DocumentError{Path: path, Message: message, Err: err}
}
