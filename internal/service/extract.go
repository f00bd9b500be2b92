package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/cloo-solutions/ragpipe/internal/pipeline"
)

// ObjectFetcher reads a stored document's raw bytes by storage key.
type ObjectFetcher interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// PassthroughExtractor handles documents whose stored bytes already are the
// text to index. Anything that would need real parsing is rejected with
// ErrUnsupportedMimeType so the job surfaces as errored instead of producing
// garbage content.
type PassthroughExtractor struct {
	fetcher ObjectFetcher
}

func NewPassthroughExtractor(fetcher ObjectFetcher) *PassthroughExtractor {
	return &PassthroughExtractor{fetcher: fetcher}
}

var _ pipeline.Extractor = (*PassthroughExtractor)(nil)

func (e *PassthroughExtractor) Extract(ctx context.Context, doc *domain.Document, cfg domain.ExtractorConfig) (*pipeline.ExtractResult, error) {
	format, ok := formatForMimeType(doc.MimeType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedMimeType, doc.MimeType)
	}

	data, err := e.fetcher.GetObject(ctx, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("fetch document %s: %w", doc.ID, err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, domain.ErrEmptyExtractionOutput
	}

	return &pipeline.ExtractResult{
		Content:     content,
		Format:      format,
		Passthrough: true,
	}, nil
}

func formatForMimeType(mimeType string) (domain.ContentFormat, bool) {
	base := mimeType
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = base[:idx]
	}
	base = strings.ToLower(strings.TrimSpace(base))

	switch base {
	case "text/plain", "":
		return domain.ContentFormatText, true
	case "text/markdown", "text/x-markdown":
		return domain.ContentFormatMarkdown, true
	default:
		return "", false
	}
}
