package domain

import (
	"strings"
	"time"
)

// PrefixSeparator joins config identifiers into pipeline prefix keys
const PrefixSeparator = "::"

// ExtractorConfig identifies one extractor behavior. The behavior itself
// lives behind the pipeline's Extractor contract; the pipeline only cares
// about identity.
type ExtractorConfig struct {
	ID string
}

// ChunkerConfig identifies one chunker behavior along with its segmentation
// parameters.
type ChunkerConfig struct {
	ID        string
	MaxChars  int
	MinChars  int
	Overlap   int
	MaxChunks int
}

// DefaultChunkerConfig provides sane defaults for chunking.
func DefaultChunkerConfig(id string) ChunkerConfig {
	return ChunkerConfig{
		ID:        id,
		MaxChars:  1200,
		MinChars:  400,
		Overlap:   200,
		MaxChunks: 40,
	}
}

// EmbeddingConfig identifies one embedding model configuration.
type EmbeddingConfig struct {
	ID         string
	Model      string
	Dimensions int
}

// RagConfig names one complete pipeline: which extractor, chunker and
// embedding config derive the index, and which vector store serves it.
// Several rag configs may share any leading part of the triple; shared
// prefixes mean shared derived artifacts.
type RagConfig struct {
	ID                  string
	Name                string
	ExtractorConfigID   string
	ChunkerConfigID     string
	EmbeddingConfigID   string
	VectorStoreConfigID string
	CreatedAt           time.Time
}

// ExtractorPrefix returns the one-level prefix key for this config
func (c *RagConfig) ExtractorPrefix() string {
	return c.ExtractorConfigID
}

// ChunkerPrefix returns the two-level prefix key for this config
func (c *RagConfig) ChunkerPrefix() string {
	return strings.Join([]string{c.ExtractorConfigID, c.ChunkerConfigID}, PrefixSeparator)
}

// EmbeddingPrefix returns the full three-level prefix key for this config
func (c *RagConfig) EmbeddingPrefix() string {
	return strings.Join([]string{c.ExtractorConfigID, c.ChunkerConfigID, c.EmbeddingConfigID}, PrefixSeparator)
}

// ValidateRagConfig validates a RagConfig instance
func ValidateRagConfig(c *RagConfig) error {
	if c == nil {
		return ErrMissingRequiredField
	}
	if c.ID == "" || c.Name == "" {
		return ErrMissingRequiredField
	}
	if c.ExtractorConfigID == "" || c.ChunkerConfigID == "" || c.EmbeddingConfigID == "" {
		return ErrInvalidRagConfig
	}
	return nil
}

// ValidateChunkerConfig validates chunker segmentation parameters
func ValidateChunkerConfig(c ChunkerConfig) error {
	if c.ID == "" {
		return ErrMissingRequiredField
	}
	if c.MaxChars <= 0 || c.MinChars < 0 || c.Overlap < 0 {
		return ErrInvalidChunkerConfig
	}
	if c.MinChars > c.MaxChars || c.Overlap >= c.MaxChars {
		return ErrInvalidChunkerConfig
	}
	return nil
}
