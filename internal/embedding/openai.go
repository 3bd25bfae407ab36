package embedding

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"

	openai "github.com/sashabaranov/go-openai"

	"docchat/internal/domain"
)

// Known output dimensions per embedding model. Unknown models fall back to
// the dimension observed on the first response.
var modelDimensions = map[string]int{
	"text-embedding-3-large": 3072,
	"text-embedding-3-small": 1536,
	"text-embedding-ada-002": 1536,
}

// OpenAIConfig configures the OpenAI-compatible embedding client. The API
// key is read from the environment variable named by APIKeyEnv.
type OpenAIConfig struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	BatchSize int
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint. It
// implements domain.Embedder.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	batchSize int
	dimension atomic.Int64
}

// NewOpenAI builds the embedder. A missing API key is a configuration
// error reported before any request is attempted.
func NewOpenAI(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := strings.TrimSpace(os.Getenv(cfg.APIKeyEnv))
	if key == "" {
		return nil, domain.NewConfigError("embedder.api_key", "environment variable "+cfg.APIKeyEnv+" is not set")
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	e := &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
	}
	e.dimension.Store(int64(modelDimensions[cfg.Model]))
	return e, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds the texts in request-sized batches, preserving input
// order in the returned vectors.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(e.model),
			Input: texts[start:end],
		})
		if err != nil {
			return nil, &domain.EmbeddingError{Err: err}
		}
		if len(resp.Data) != end-start {
			return nil, &domain.EmbeddingError{Err: errors.New("embedding response size mismatch")}
		}
		for _, item := range resp.Data {
			vec := make([]float64, len(item.Embedding))
			for i, v := range item.Embedding {
				vec[i] = float64(v)
			}
			e.dimension.CompareAndSwap(0, int64(len(vec)))
			out = append(out, vec)
		}
	}
	return out, nil
}

// Dimension reports the vector length produced by the configured model.
// Zero until the first embedding when the model is not a known one.
func (e *OpenAIEmbedder) Dimension() int { return int(e.dimension.Load()) }
