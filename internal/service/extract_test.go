package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/ragpipe/internal/domain"
)

// MockObjectFetcher is a mock implementation of ObjectFetcher
type MockObjectFetcher struct {
	mock.Mock
}

func (m *MockObjectFetcher) GetObject(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func testDocument(mimeType string) *domain.Document {
	return &domain.Document{
		ID:         "doc-1",
		ProjectID:  "default",
		Filename:   "notes.txt",
		MimeType:   mimeType,
		StorageKey: "default/doc-1/notes.txt",
	}
}

func TestPassthroughExtractor_PlainText(t *testing.T) {
	fetcher := new(MockObjectFetcher)
	fetcher.On("GetObject", mock.Anything, "default/doc-1/notes.txt").Return([]byte("  hello world  \n"), nil)

	extractor := NewPassthroughExtractor(fetcher)
	result, err := extractor.Extract(context.Background(), testDocument("text/plain"), domain.ExtractorConfig{ID: "ext-1"})

	require.NoError(t, err)
	assert.Equal(t, "hello world", result.Content)
	assert.Equal(t, domain.ContentFormatText, result.Format)
	assert.True(t, result.Passthrough)
	fetcher.AssertExpectations(t)
}

func TestPassthroughExtractor_Markdown(t *testing.T) {
	fetcher := new(MockObjectFetcher)
	fetcher.On("GetObject", mock.Anything, mock.Anything).Return([]byte("# Title\n\nBody"), nil)

	extractor := NewPassthroughExtractor(fetcher)

	for _, mimeType := range []string{"text/markdown", "text/x-markdown", "text/markdown; charset=utf-8"} {
		result, err := extractor.Extract(context.Background(), testDocument(mimeType), domain.ExtractorConfig{ID: "ext-1"})

		require.NoError(t, err, "mime type %q", mimeType)
		assert.Equal(t, domain.ContentFormatMarkdown, result.Format)
	}
}

func TestPassthroughExtractor_MissingMimeTypeDefaultsToText(t *testing.T) {
	fetcher := new(MockObjectFetcher)
	fetcher.On("GetObject", mock.Anything, mock.Anything).Return([]byte("content"), nil)

	extractor := NewPassthroughExtractor(fetcher)
	result, err := extractor.Extract(context.Background(), testDocument(""), domain.ExtractorConfig{ID: "ext-1"})

	require.NoError(t, err)
	assert.Equal(t, domain.ContentFormatText, result.Format)
}

func TestPassthroughExtractor_UnsupportedMimeType(t *testing.T) {
	fetcher := new(MockObjectFetcher)

	extractor := NewPassthroughExtractor(fetcher)
	_, err := extractor.Extract(context.Background(), testDocument("application/pdf"), domain.ExtractorConfig{ID: "ext-1"})

	assert.ErrorIs(t, err, domain.ErrUnsupportedMimeType)
	fetcher.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything)
}

func TestPassthroughExtractor_EmptyContent(t *testing.T) {
	fetcher := new(MockObjectFetcher)
	fetcher.On("GetObject", mock.Anything, mock.Anything).Return([]byte("   \n\t "), nil)

	extractor := NewPassthroughExtractor(fetcher)
	_, err := extractor.Extract(context.Background(), testDocument("text/plain"), domain.ExtractorConfig{ID: "ext-1"})

	assert.ErrorIs(t, err, domain.ErrEmptyExtractionOutput)
}

func TestPassthroughExtractor_FetchError(t *testing.T) {
	fetcher := new(MockObjectFetcher)
	fetcher.On("GetObject", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	extractor := NewPassthroughExtractor(fetcher)
	_, err := extractor.Extract(context.Background(), testDocument("text/plain"), domain.ExtractorConfig{ID: "ext-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch document doc-1")
}
