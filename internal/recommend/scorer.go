// Package recommend ranks a user's tasks by semantic similarity to a target
// task, using text embeddings from an external model.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/daybookhq/daybook-api/internal/domain"
)

// Embedder produces embedding vectors for a batch of texts. The returned
// slice is parallel to the input.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// RelatedTask pairs a task with its similarity score against the target.
type RelatedTask struct {
	Task  *domain.Task `json:"task"`
	Score float64      `json:"score"`
}

// Scorer ranks tasks by embedding similarity. It is stateless apart from its
// dependencies and safe for concurrent use.
type Scorer struct {
	embedder Embedder
	logger   *slog.Logger
}

// NewScorer creates a scorer backed by the given embedder.
func NewScorer(embedder Embedder, log *slog.Logger) *Scorer {
	if embedder == nil {
		panic("embedder cannot be nil")
	}
	return &Scorer{
		embedder: embedder,
		logger:   log.With(slog.String("component", "recommend")),
	}
}

// RankRelated scores every candidate against the target and returns up to
// limit candidates in descending similarity order. The target itself is
// excluded from the result.
func (s *Scorer) RankRelated(ctx context.Context, target *domain.Task, candidates []*domain.Task, limit int) ([]RelatedTask, error) {
	others := make([]*domain.Task, 0, len(candidates))
	for _, c := range candidates {
		if c.ID != target.ID {
			others = append(others, c)
		}
	}
	if len(others) == 0 {
		return nil, nil
	}

	texts := make([]string, 0, len(others)+1)
	texts = append(texts, taskText(target))
	for _, c := range others {
		texts = append(texts, taskText(c))
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed tasks: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}

	targetVec := vectors[0]
	scored := make([]RelatedTask, 0, len(others))
	for i, c := range others {
		scored = append(scored, RelatedTask{
			Task:  c,
			Score: CosineSimilarity(targetVec, vectors[i+1]),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// taskText builds the text that represents a task for embedding. Title and
// description dominate; tags add topical signal.
func taskText(t *domain.Task) string {
	parts := []string{t.Title}
	if t.Description != "" {
		parts = append(parts, t.Description)
	}
	if len(t.Tags) > 0 {
		parts = append(parts, strings.Join(t.Tags, " "))
	}
	return strings.Join(parts, "\n")
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
