package retrieval

import (
	"context"

	"github.com/triskell-ai/answerdex/internal/domain"
)

// VectorSearcher is the nearest-neighbour backend (embedding-based branch).
type VectorSearcher interface {
	SearchKNN(ctx context.Context, vector []float32, k int) ([]domain.ScoredContext, error)
}

// KeywordSearcher is the ranked keyword backend. Scores are raw and get
// normalized by the retriever.
type KeywordSearcher interface {
	Search(ctx context.Context, query string, k int) ([]domain.ScoredContext, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
