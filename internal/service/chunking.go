package service

import (
	"context"
	"strings"
	"unicode"

	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/cloo-solutions/ragpipe/internal/pipeline"
)

// TextChunker splits extracted text on whitespace boundaries, preferring to
// cut near the end of the window and carrying a configurable overlap into the
// next chunk.
type TextChunker struct{}

func NewTextChunker() *TextChunker {
	return &TextChunker{}
}

var _ pipeline.Chunker = (*TextChunker)(nil)

func (c *TextChunker) Chunk(ctx context.Context, text string, cfg domain.ChunkerConfig) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := domain.ValidateChunkerConfig(cfg); err != nil {
		return nil, err
	}
	return chunkText(text, cfg), nil
}

func chunkText(text string, cfg domain.ChunkerConfig) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if cfg.MaxChars <= 0 {
		cfg = domain.DefaultChunkerConfig(cfg.ID)
	}
	runes := []rune(clean)
	if len(runes) <= cfg.MaxChars {
		return []string{clean}
	}

	chunks := make([]string, 0, 8)
	start := 0
	for start < len(runes) {
		if cfg.MaxChunks > 0 && len(chunks) >= cfg.MaxChunks {
			break
		}

		end := start + cfg.MaxChars
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			cut := end
			minCut := start + cfg.MinChars
			if minCut > end {
				minCut = start
			}
			for i := end; i > minCut; i-- {
				if unicode.IsSpace(runes[i-1]) {
					cut = i
					break
				}
			}
			end = cut
		}

		if end <= start {
			break
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		nextStart := end
		if cfg.Overlap > 0 {
			if end-start > cfg.Overlap {
				nextStart = end - cfg.Overlap
			}
		}
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	return chunks
}
