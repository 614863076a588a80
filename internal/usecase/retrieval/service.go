// Package retrieval fuses vector similarity and keyword ranking into one
// ordered candidate list per query.
package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/triskell-ai/answerdex/internal/domain"
	"github.com/triskell-ai/answerdex/internal/logger"
)

// Service is the hybrid retriever over the shared corpus.
type Service struct {
	embed          Embedder
	vectors        VectorSearcher
	keywords       KeywordSearcher
	vectorWeight   float64
	keywordCeiling float64
}

// Config holds retrieval tuning.
type Config struct {
	VectorWeight   float64 // weight of the vector branch in hybrid fusion, in [0,1]
	KeywordCeiling float64 // raw keyword score at which the normalized score saturates
}

// New creates a hybrid retrieval service.
func New(embed Embedder, vectors VectorSearcher, keywords KeywordSearcher, cfg Config) *Service {
	if cfg.KeywordCeiling <= 0 {
		cfg.KeywordCeiling = 10.0
	}
	return &Service{
		embed:          embed,
		vectors:        vectors,
		keywords:       keywords,
		vectorWeight:   cfg.VectorWeight,
		keywordCeiling: cfg.KeywordCeiling,
	}
}

// Search runs the vector branch alone: embed the query, return the top-k by
// cosine similarity.
func (s *Service) Search(ctx context.Context, query string, k int) ([]domain.ScoredContext, error) {
	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := s.vectors.SearchKNN(ctx, emb.Embedding, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return results, nil
}

// KeywordSearch runs the keyword branch alone with scores normalized into [0,1].
func (s *Service) KeywordSearch(ctx context.Context, query string, k int) ([]domain.ScoredContext, error) {
	raw, err := s.keywords.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return s.normalizeKeyword(raw), nil
}

// HybridSearch runs both branches and fuses them by weighted score plus a
// term-overlap boost. A failed branch degrades to empty; when both branches
// fail there is no signal left and the error is returned.
func (s *Service) HybridSearch(
	ctx context.Context, query string, k int, vectorWeight float64,
) ([]domain.ScoredContext, error) {
	log := logger.FromContext(ctx)

	vecResults, vecErr := s.Search(ctx, query, k)
	if vecErr != nil {
		log.Warn("vector branch failed, degrading to keyword only",
			zap.String("query", query), zap.Error(vecErr))
		vecResults = nil
	}

	kwResults, kwErr := s.KeywordSearch(ctx, query, k)
	if kwErr != nil {
		log.Warn("keyword branch failed, degrading to vector only",
			zap.String("query", query), zap.Error(kwErr))
		kwResults = nil
	}

	if vecErr != nil && kwErr != nil {
		return nil, fmt.Errorf("%w: vector: %v; keyword: %v",
			domain.ErrRetrievalUnavailable, vecErr, kwErr)
	}

	fused := fuse(vecResults, kwResults, vectorWeight)
	fused = applyOverlapBoost(fused, query)

	sortByScore(fused)

	if len(fused) > k {
		fused = fused[:k]
	}
	return fused, nil
}

// VectorWeight returns the configured fusion weight.
func (s *Service) VectorWeight() float64 { return s.vectorWeight }

func (s *Service) normalizeKeyword(raw []domain.ScoredContext) []domain.ScoredContext {
	out := make([]domain.ScoredContext, len(raw))
	for i, r := range raw {
		score := r.Score / s.keywordCeiling
		if score > 1 {
			score = 1
		}
		if score < 0 {
			score = 0
		}
		out[i] = domain.ScoredContext{Document: r.Document, Score: score}
	}
	return out
}
