package openai

import (
	"context"
	"errors"
	"testing"

	openaisdk "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/cloo-solutions/ragpipe/internal/domain"
)

// MockOpenAIAPI is a mock for the OpenAI API
type MockOpenAIAPI struct {
	mock.Mock
}

func (m *MockOpenAIAPI) CreateEmbeddings(ctx context.Context, texts []string, model openaisdk.EmbeddingModel) ([][]float32, error) {
	args := m.Called(ctx, texts, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func makeVectors(count, dims int) [][]float32 {
	out := make([][]float32, count)
	for i := range out {
		v := make([]float32, dims)
		for j := range v {
			v[j] = float32(i*dims+j) * 0.001
		}
		out[i] = v
	}
	return out
}

func TestClient_Embed_Success(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI}

	ctx := context.Background()
	texts := []string{"first chunk", "second chunk", "third chunk"}
	expected := makeVectors(3, 1536)

	mockAPI.On("CreateEmbeddings", ctx, texts, DefaultEmbeddingModel).Return(expected, nil)

	vectors, err := client.Embed(ctx, texts, domain.EmbeddingConfig{ID: "emb-default"})

	assert.NoError(t, err)
	assert.Len(t, vectors, 3)
	assert.Equal(t, expected, vectors)
	mockAPI.AssertExpectations(t)
}

func TestClient_Embed_UsesConfiguredModel(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI}

	ctx := context.Background()
	texts := []string{"a chunk"}
	cfg := domain.EmbeddingConfig{ID: "emb-small", Model: "text-embedding-3-small", Dimensions: 256}

	mockAPI.On("CreateEmbeddings", ctx, texts, openaisdk.EmbeddingModel("text-embedding-3-small")).
		Return(makeVectors(1, 256), nil)

	vectors, err := client.Embed(ctx, texts, cfg)

	assert.NoError(t, err)
	assert.Len(t, vectors, 1)
	assert.Len(t, vectors[0], 256)
	mockAPI.AssertExpectations(t)
}

func TestClient_Embed_EmptyInput(t *testing.T) {
	client := NewClient("")

	ctx := context.Background()
	vectors, err := client.Embed(ctx, nil, domain.EmbeddingConfig{ID: "emb-default"})

	assert.Error(t, err)
	assert.Nil(t, vectors)
	assert.Equal(t, ErrEmptyInput, err)
}

func TestClient_Embed_APIError(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI}

	ctx := context.Background()
	texts := []string{"a chunk"}
	apiErr := errors.New("API rate limit exceeded")

	mockAPI.On("CreateEmbeddings", ctx, texts, DefaultEmbeddingModel).Return(nil, apiErr)

	vectors, err := client.Embed(ctx, texts, domain.EmbeddingConfig{ID: "emb-default"})

	assert.Error(t, err)
	assert.Nil(t, vectors)
	assert.Contains(t, err.Error(), "failed to create embeddings")
	mockAPI.AssertExpectations(t)
}

func TestClient_Embed_CountMismatch(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI}

	ctx := context.Background()
	texts := []string{"one", "two", "three"}

	mockAPI.On("CreateEmbeddings", ctx, texts, DefaultEmbeddingModel).Return(makeVectors(2, 1536), nil)

	vectors, err := client.Embed(ctx, texts, domain.EmbeddingConfig{ID: "emb-default"})

	assert.Error(t, err)
	assert.Nil(t, vectors)
	assert.ErrorIs(t, err, ErrCountMismatch)
	mockAPI.AssertExpectations(t)
}

func TestClient_Embed_WrongDimensions(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI}

	ctx := context.Background()
	texts := []string{"a chunk"}

	mockAPI.On("CreateEmbeddings", ctx, texts, DefaultEmbeddingModel).Return(makeVectors(1, 512), nil)

	vectors, err := client.Embed(ctx, texts, domain.EmbeddingConfig{ID: "emb-default"})

	assert.Error(t, err)
	assert.Nil(t, vectors)
	assert.ErrorIs(t, err, ErrWrongDimensions)
	mockAPI.AssertExpectations(t)
}

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key")

	assert.NotNil(t, client)
	assert.NotNil(t, client.api)
}

func TestNewClientFromEnv_NoAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	client, err := NewClientFromEnv()

	assert.Nil(t, client)
	assert.Error(t, err)
	assert.Equal(t, ErrNoAPIKey, err)
}

func TestNewClientFromEnv_WithAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-api-key")

	client, err := NewClientFromEnv()

	assert.NotNil(t, client)
	assert.NoError(t, err)
}
