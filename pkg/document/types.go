package document

import (
	"fmt"
	"io"
	"time"
)

// Report timestamp layouts. The fraction is left out when the microseconds are zero.
const (
	TimestampLayout        = "2006-01-02 15:04:05.000000"
	TimestampLayoutSeconds = "2006-01-02 15:04:05"
)

// ReportDelimiter frames the printed report block
const ReportDelimiter = "----------------------------------------"

// ImageFormat identifies the encoding of a rasterized page
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "png"
	ImageFormatJPEG ImageFormat = "jpeg"
	ImageFormatTIFF ImageFormat = "tiff"
)

// Extension returns the file extension written by the renderer for this format
func (f ImageFormat) Extension() string {
	switch f {
	case ImageFormatJPEG:
		return "jpg"
	case ImageFormatTIFF:
		return "tif"
	default:
		return "png"
	}
}

// PageRange is an inclusive, 1-based range of PDF pages
type PageRange struct {
	First int `json:"first_page"`
	Last  int `json:"last_page"`
}

// Count returns the number of pages covered by the range
func (r PageRange) Count() int {
	if r.Last < r.First {
		return 0
	}
	return r.Last - r.First + 1
}

// Validate checks the range against the document's page count
func (r PageRange) Validate(total int) error {
	if r.First < 1 {
		return fmt.Errorf("first page must be positive, got %d", r.First)
	}
	if r.Last < r.First {
		return fmt.Errorf("last page %d is before first page %d", r.Last, r.First)
	}
	if r.Last > total {
		return fmt.Errorf("last page %d exceeds page count %d", r.Last, total)
	}
	return nil
}

func (r PageRange) String() string {
	return fmt.Sprintf("%d-%d", r.First, r.Last)
}

// Reference identifies the PDF and page range a run processes
type Reference struct {
	Path  string    `json:"path"`
	Pages PageRange `json:"pages"`
}

// Validate checks the reference fields that can be checked without opening the file
func (r Reference) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("document path cannot be empty")
	}
	if r.Pages.First < 1 {
		return fmt.Errorf("first page must be positive, got %d", r.Pages.First)
	}
	if r.Pages.Last < r.Pages.First {
		return fmt.Errorf("last page %d is before first page %d", r.Pages.Last, r.Pages.First)
	}
	return nil
}

// PageImage is one rasterized page. It is consumed once by the recognizer.
type PageImage struct {
	Page   int         `json:"page"`
	Format ImageFormat `json:"format"`
	Data   []byte      `json:"-"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
}

// Fragment is the recognized text of a single page
type Fragment struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// Report is the outcome of one run
type Report struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Pages  int       `json:"pages"`
	Result string    `json:"result"`
}

// Duration returns the elapsed run time truncated to whole seconds
func (r *Report) Duration() int64 {
	return int64(r.End.Sub(r.Start) / time.Second)
}

// FormatTimestamp renders t with microsecond precision
func FormatTimestamp(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(TimestampLayoutSeconds)
	}
	return t.Format(TimestampLayout)
}

// Write prints the report block
func (r *Report) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s\nStart: %s\nEnd: %s\nDuration: %d seconds\nResult: %s\n%s\n",
		ReportDelimiter,
		FormatTimestamp(r.Start),
		FormatTimestamp(r.End),
		r.Duration(),
		r.Result,
		ReportDelimiter,
	)
	return err
}
