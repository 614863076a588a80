package redis

import (
	"context"
	"strconv"

	"github.com/triskell-ai/answerdex/internal/db"
)

// EnsureVectorIndex creates the corpus FT index if it does not exist yet.
// Schema: content TEXT, answer TEXT, embedding VECTOR HNSW (cosine, float32).
func (s *Store) EnsureVectorIndex(ctx context.Context, spec db.VectorIndexSpec) error {
	args := []string{
		spec.Name,
		"ON", "HASH",
		"PREFIX", "1", spec.Prefix,
		"SCHEMA",
		"content", "TEXT",
		"answer", "TEXT",
		"embedding", "VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(spec.Dimensions),
		"DISTANCE_METRIC", "COSINE",
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}
