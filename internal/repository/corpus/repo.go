// Package corpus persists the historical Q&A corpus in the vector store and
// reads it back for search and keyword-index rebuilds.
package corpus

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/triskell-ai/answerdex/internal/db"
	"github.com/triskell-ai/answerdex/internal/domain"
)

// store is the consumer interface for the corpus repository (ISP).
type store interface {
	EnsureVectorIndex(ctx context.Context, spec db.VectorIndexSpec) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	ScanKeys(ctx context.Context, match string) ([]string, error)
}

// Repo implements the corpus contract over the Redis store.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a corpus repository. keyPrefix namespaces every key and the
// index name, e.g. "answerdex:".
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// EnsureIndex creates the corpus vector index if missing.
func (r *Repo) EnsureIndex(ctx context.Context, dimensions int) error {
	err := r.store.EnsureVectorIndex(ctx, db.VectorIndexSpec{
		Name:       r.indexName(),
		Prefix:     r.docPrefix(),
		Dimensions: dimensions,
	})
	if err != nil {
		return fmt.Errorf("ensure corpus index: %w", err)
	}
	return nil
}

// Insert stores a document with its embedding.
func (r *Repo) Insert(ctx context.Context, doc domain.Document, embedding []float32) error {
	fields := map[string]string{
		"content":   doc.Content,
		"answer":    doc.Answer,
		"embedding": encodeVector(embedding),
	}
	if err := r.store.HSet(ctx, r.docKey(doc.ID), fields); err != nil {
		return fmt.Errorf("insert document %s: %w: %w", doc.ID, domain.ErrCorpusUnavailable, err)
	}
	return nil
}

// SearchKNN returns the top-k nearest documents with cosine similarity
// scores in [0,1], best first.
func (r *Repo) SearchKNN(ctx context.Context, vector []float32, k int) ([]domain.ScoredContext, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"content", "answer"},
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	contexts := make([]domain.ScoredContext, 0, len(res.Entries))
	for _, e := range res.Entries {
		contexts = append(contexts, domain.ScoredContext{
			Document: domain.Document{
				ID:      r.docID(e.Key),
				Content: e.Fields["content"],
				Answer:  e.Fields["answer"],
			},
			Score: e.Score,
		})
	}
	return contexts, nil
}

// ListAll returns every document (without embeddings) for keyword index
// rebuilds. Order is unspecified.
func (r *Repo) ListAll(ctx context.Context) ([]domain.Document, error) {
	keys, err := r.store.ScanKeys(ctx, r.docPrefix()+"*")
	if err != nil {
		return nil, fmt.Errorf("scan corpus keys: %w: %w", domain.ErrCorpusUnavailable, err)
	}

	docs := make([]domain.Document, 0, len(keys))
	for _, key := range keys {
		fields, err := r.store.HGetAll(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read document %s: %w", key, err)
		}
		if len(fields) == 0 {
			continue // expired between scan and read
		}
		docs = append(docs, domain.Document{
			ID:      r.docID(key),
			Content: fields["content"],
			Answer:  fields["answer"],
		})
	}
	return docs, nil
}

func (r *Repo) indexName() string {
	return strings.TrimSuffix(r.keyPrefix, ":") + "_qa_idx"
}

func (r *Repo) docPrefix() string {
	return r.keyPrefix + "doc:"
}

func (r *Repo) docKey(id string) string {
	return r.docPrefix() + id
}

func (r *Repo) docID(key string) string {
	return strings.TrimPrefix(key, r.docPrefix())
}

// encodeVector packs a float32 vector as little-endian bytes, the layout the
// FT vector index expects in hash fields.
func encodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
