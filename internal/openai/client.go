package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cloo-solutions/ragpipe/internal/domain"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
)

var (
	// ErrEmptyInput is returned when there are no texts to embed
	ErrEmptyInput = errors.New("no texts to embed")
	// ErrWrongDimensions is returned when an embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrCountMismatch is returned when the API returns a different number of embeddings than inputs
	ErrCountMismatch = errors.New("embedding count does not match input count")
	// ErrNoAPIKey is returned when OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string, model openai.EmbeddingModel) ([][]float32, error)
}

// Client generates chunk embeddings through the OpenAI API. One call embeds
// a whole chunked document; the returned vectors are index-aligned with the
// input texts.
type Client struct {
	api EmbeddingAPI
}

type OpenAIAdapter struct {
	client *openai.Client
}

func NewOpenAIAdapter(apiKey string) *OpenAIAdapter {
	return &OpenAIAdapter{client: openai.NewClient(apiKey)}
}

// CreateEmbeddings calls the OpenAI API to embed a batch of texts
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string, model openai.EmbeddingModel) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: model,
	})
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// NewClient creates a new OpenAI embedding client
func NewClient(apiKey string) *Client {
	return &Client{api: NewOpenAIAdapter(apiKey)}
}

// NewClientFromEnv creates a new OpenAI client using OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// Embed generates one embedding per input text under the given config,
// preserving input order
func (c *Client) Embed(ctx context.Context, texts []string, cfg domain.EmbeddingConfig) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	model := openai.EmbeddingModel(cfg.Model)
	if model == "" {
		model = DefaultEmbeddingModel
	}
	expected := cfg.Dimensions
	if expected <= 0 {
		expected = DefaultEmbeddingDimensions
	}

	vectors, err := c.api.CreateEmbeddings(ctx, texts, model)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d for %d texts", ErrCountMismatch, len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) != expected {
			return nil, fmt.Errorf("%w: index %d has %d, expected %d", ErrWrongDimensions, i, len(v), expected)
		}
	}

	return vectors, nil
}
