package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Caia-Tech/pdfocr/internal/events"
	"github.com/Caia-Tech/pdfocr/internal/processing"
	"github.com/Caia-Tech/pdfocr/pkg/document"
	"github.com/Caia-Tech/pdfocr/pkg/extractor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRasterizer struct {
	mock.Mock
}

func (m *mockRasterizer) Rasterize(ctx context.Context, ref document.Reference) ([]document.PageImage, error) {
	args := m.Called(ctx, ref)
	images, _ := args.Get(0).([]document.PageImage)
	return images, args.Error(1)
}

type mockRecognizer struct {
	mock.Mock
}

func (m *mockRecognizer) Recognize(ctx context.Context, image document.PageImage) (string, error) {
	args := m.Called(ctx, image)
	return args.String(0), args.Error(1)
}

type countingNormalizer struct {
	calls  int
	inputs []string
}

func (c *countingNormalizer) Normalize(text string) string {
	c.calls++
	c.inputs = append(c.inputs, text)
	return processing.Normalize(text)
}

func pageImages(pages ...int) []document.PageImage {
	images := make([]document.PageImage, len(pages))
	for i, page := range pages {
		images[i] = document.PageImage{Page: page, Format: document.ImageFormatPNG, Data: []byte{byte(page)}}
	}
	return images
}

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

var testRef = document.Reference{Path: "run-melos.pdf", Pages: document.PageRange{First: 1, Last: 2}}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()
	images := pageImages(1, 2)

	rasterizer := &mockRasterizer{}
	rasterizer.On("Rasterize", ctx, testRef).Return(images, nil).Once()

	recognizer := &mockRecognizer{}
	recognizer.On("Recognize", ctx, images[0]).Return("こんにちは\n", nil).Once()
	recognizer.On("Recognize", ctx, images[1]).Return("世界\n", nil).Once()

	normalizer := &countingNormalizer{}
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	runner := &Runner{
		Rasterizer: rasterizer,
		Recognizer: recognizer,
		Normalizer: normalizer,
		Now:        fixedClock(start, start.Add(3700*time.Millisecond)),
	}

	report, err := runner.Run(ctx, testRef)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, "こんにちは世界", report.Result)
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, start, report.Start)
	assert.Equal(t, int64(3), report.Duration())

	// normalization runs once, over the whole accumulated text
	assert.Equal(t, 1, normalizer.calls)
	assert.Equal(t, []string{"こんにちは\n世界\n"}, normalizer.inputs)

	rasterizer.AssertExpectations(t)
	recognizer.AssertExpectations(t)
}

func TestRunner_FragmentsFollowPageOrder(t *testing.T) {
	ctx := context.Background()
	fragments := map[int]string{1: "走れ\n", 2: "メロス\n", 3: "は激怒した\n"}

	tests := []struct {
		name     string
		pages    []int
		expected string
	}{
		{name: "ascending", pages: []int{1, 2, 3}, expected: "走れメロスは激怒した"},
		{name: "reordered", pages: []int{3, 1, 2}, expected: "は激怒した走れメロス"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen []int
			runner := &Runner{
				Rasterizer: extractor.RasterizerFunc(func(ctx context.Context, ref document.Reference) ([]document.PageImage, error) {
					return pageImages(tt.pages...), nil
				}),
				Recognizer: extractor.RecognizerFunc(func(ctx context.Context, image document.PageImage) (string, error) {
					seen = append(seen, image.Page)
					return fragments[image.Page], nil
				}),
				Normalizer: processing.NewNormalizer(),
			}

			report, err := runner.Run(ctx, testRef)
			require.NoError(t, err)
			assert.Equal(t, tt.pages, seen)
			assert.Equal(t, tt.expected, report.Result)
			assert.Equal(t, len(tt.pages), report.Pages)
		})
	}
}

func TestRunner_RasterizerFailure(t *testing.T) {
	ctx := context.Background()
	docErr := &extractor.DocumentError{Path: "run-melos.pdf", Message: "failed to open PDF"}

	rasterizer := &mockRasterizer{}
	rasterizer.On("Rasterize", ctx, testRef).Return(nil, docErr).Once()

	recognizer := &mockRecognizer{}
	normalizer := &countingNormalizer{}

	runner := &Runner{Rasterizer: rasterizer, Recognizer: recognizer, Normalizer: normalizer}

	var out bytes.Buffer
	err := runner.RunAndPrint(ctx, testRef, &out)
	require.Error(t, err)
	assert.True(t, extractor.IsDocumentError(err))
	assert.Empty(t, out.String(), "no report is printed on failure")

	recognizer.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
	assert.Zero(t, normalizer.calls)
}

func TestRunner_RecognizerFailure(t *testing.T) {
	ctx := context.Background()
	images := pageImages(1, 2, 3)

	rasterizer := &mockRasterizer{}
	rasterizer.On("Rasterize", ctx, testRef).Return(images, nil)

	recErr := &extractor.RecognitionError{Page: 2, Message: "failed to set OCR language 'jpn'", Err: errors.New("missing traineddata")}
	recognizer := &mockRecognizer{}
	recognizer.On("Recognize", ctx, images[0]).Return("一\n", nil).Once()
	recognizer.On("Recognize", ctx, images[1]).Return("", recErr).Once()

	normalizer := &countingNormalizer{}
	runner := &Runner{Rasterizer: rasterizer, Recognizer: recognizer, Normalizer: normalizer}

	var out bytes.Buffer
	err := runner.RunAndPrint(ctx, testRef, &out)
	require.Error(t, err)
	assert.True(t, extractor.IsRecognitionError(err))
	assert.Empty(t, out.String())
	assert.Zero(t, normalizer.calls)

	recognizer.AssertNotCalled(t, "Recognize", ctx, images[2])
	recognizer.AssertExpectations(t)
}

func TestRunner_RunAndPrint(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	runner := &Runner{
		Rasterizer: extractor.RasterizerFunc(func(ctx context.Context, ref document.Reference) ([]document.PageImage, error) {
			return pageImages(1, 2), nil
		}),
		Recognizer: extractor.RecognizerFunc(func(ctx context.Context, image document.PageImage) (string, error) {
			if image.Page == 1 {
				return "こんにちは\n", nil
			}
			return "世界\n", nil
		}),
		Normalizer: processing.NewNormalizer(),
		Now:        fixedClock(start, start.Add(12*time.Second)),
	}

	var out bytes.Buffer
	require.NoError(t, runner.RunAndPrint(ctx, testRef, &out))

	expected := strings.Join([]string{
		document.ReportDelimiter,
		"Start: 2024-05-01 10:00:00",
		"End: 2024-05-01 10:00:12",
		"Duration: 12 seconds",
		"Result: こんにちは世界",
		document.ReportDelimiter,
	}, "\n") + "\n"
	assert.Equal(t, expected, out.String())
}

func TestRunner_MissingInputFile(t *testing.T) {
	config := DefaultPipelineConfig().Processing
	config.InputPath = filepath.Join(t.TempDir(), "run-melos.pdf")

	runner := NewRunner(config)
	recognizer := &mockRecognizer{}
	runner.Recognizer = recognizer

	var out bytes.Buffer
	err := runner.RunAndPrint(context.Background(), config.Reference(), &out)
	require.Error(t, err)

	var docErr *extractor.DocumentError
	require.ErrorAs(t, err, &docErr)
	assert.Equal(t, config.InputPath, docErr.Path)
	assert.Empty(t, out.String())
	recognizer.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
}

func TestHandler_Handle(t *testing.T) {
	runner := &Runner{
		Rasterizer: extractor.RasterizerFunc(func(ctx context.Context, ref document.Reference) ([]document.PageImage, error) {
			assert.Equal(t, testRef, ref)
			return pageImages(1, 2), nil
		}),
		Recognizer: extractor.RecognizerFunc(func(ctx context.Context, image document.PageImage) (string, error) {
			return "あ い\n", nil
		}),
		Normalizer: processing.NewNormalizer(),
	}

	var out bytes.Buffer
	handler := &Handler{Runner: runner, Reference: testRef, Out: &out}

	event := json.RawMessage(`{"source":"aws.events","detail":{}}`)
	require.NoError(t, handler.Handle(context.Background(), event))
	assert.Contains(t, out.String(), "Result: あいあい\n")
}

func TestNewHandler(t *testing.T) {
	config := DefaultPipelineConfig().Processing
	handler := NewHandler(config)

	assert.Equal(t, config.Reference(), handler.Reference)
	require.NotNil(t, handler.Runner)
	assert.IsType(t, &extractor.PDFRasterizer{}, handler.Runner.Rasterizer)
	assert.IsType(t, &extractor.OCRExtractor{}, handler.Runner.Recognizer)
}

type recordingPublisher struct {
	events []*events.RunEvent
}

func (p *recordingPublisher) Publish(event *events.RunEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []events.EventType {
	types := make([]events.EventType, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

func TestRunner_PublishesEvents(t *testing.T) {
	publisher := &recordingPublisher{}
	runner := &Runner{
		Rasterizer: extractor.RasterizerFunc(func(ctx context.Context, ref document.Reference) ([]document.PageImage, error) {
			return pageImages(1, 2), nil
		}),
		Recognizer: extractor.RecognizerFunc(func(ctx context.Context, image document.PageImage) (string, error) {
			return "一\n", nil
		}),
		Normalizer: processing.NewNormalizer(),
		Events:     publisher,
	}

	_, err := runner.Run(context.Background(), testRef)
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{
		events.EventRunStarted,
		events.EventPagesRasterized,
		events.EventPageRecognized,
		events.EventPageRecognized,
		events.EventRunCompleted,
	}, publisher.types())

	runID := publisher.events[0].RunID
	for _, e := range publisher.events {
		assert.Equal(t, runID, e.RunID)
		assert.Equal(t, testRef.Path, e.Path)
	}
	assert.Equal(t, 2, publisher.events[1].Pages)
	assert.Equal(t, 1, publisher.events[2].Page)
	assert.Equal(t, 2, publisher.events[3].Page)
	assert.Equal(t, 2, publisher.events[4].Pages)
}

func TestRunner_PublishesFailure(t *testing.T) {
	publisher := &recordingPublisher{}
	runner := &Runner{
		Rasterizer: extractor.RasterizerFunc(func(ctx context.Context, ref document.Reference) ([]document.PageImage, error) {
			return pageImages(1, 2), nil
		}),
		Recognizer: extractor.RecognizerFunc(func(ctx context.Context, image document.PageImage) (string, error) {
			return "", &extractor.RecognitionError{Page: image.Page, Message: "engine unavailable"}
		}),
		Normalizer: processing.NewNormalizer(),
		Events:     publisher,
	}

	_, err := runner.Run(context.Background(), testRef)
	require.Error(t, err)

	assert.Equal(t, []events.EventType{
		events.EventRunStarted,
		events.EventPagesRasterized,
		events.EventRunFailed,
	}, publisher.types())

	failed := publisher.events[2]
	assert.Equal(t, 1, failed.Page)
	assert.Contains(t, failed.Error, "engine unavailable")
}
