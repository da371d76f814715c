// Package gemini adapts Google's Gemini API to the embedding interface used
// by the related-task scorer.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/daybookhq/daybook-api/internal/config"
	"github.com/daybookhq/daybook-api/internal/recommend"
)

// ErrInvalidConfig is returned when the embedder configuration is incomplete.
var ErrInvalidConfig = errors.New("invalid gemini configuration")

// Embedder produces text embeddings through the Gemini API.
type Embedder struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// Ensure Embedder implements the scorer's interface.
var _ recommend.Embedder = (*Embedder)(nil)

// NewEmbedder creates a Gemini-backed embedder from the recommendation
// configuration.
func NewEmbedder(ctx context.Context, cfg config.RecommendConfig, log *slog.Logger) (*Embedder, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: API key cannot be empty", ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Embedder{
		client: client,
		model:  cfg.Model,
		logger: log.With(slog.String("component", "gemini_embedder")),
	}, nil
}

// EmbedTexts embeds the given texts in a single batched call. The returned
// slice is parallel to the input.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts",
			len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vectors[i] = emb.Values
	}

	e.logger.DebugContext(ctx, "embedded texts",
		slog.Int("count", len(texts)),
		slog.String("model", e.model))
	return vectors, nil
}
