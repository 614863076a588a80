// Package keyword is an in-memory ranked-retrieval index over the corpus's
// question texts. It is rebuilt from the store on startup and extended
// incrementally on ingestion; reads are concurrent, writes are single-writer
// by the ingestion contract.
package keyword

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/triskell-ai/answerdex/internal/domain"
)

// BM25 parameters (standard Robertson/Walker values).
const (
	k1 = 1.5
	b  = 0.75
)

type entry struct {
	doc    domain.Document
	terms  map[string]int
	length int
}

// Index ranks corpus documents against a query by a BM25 scheme.
type Index struct {
	mu      sync.RWMutex
	entries []entry
	df      map[string]int
	totalLn int
}

// New creates an empty keyword index.
func New() *Index {
	return &Index{df: make(map[string]int)}
}

// Rebuild replaces the whole index with the given corpus snapshot.
func (ix *Index) Rebuild(docs []domain.Document) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.entries = make([]entry, 0, len(docs))
	ix.df = make(map[string]int)
	ix.totalLn = 0
	for _, d := range docs {
		ix.addLocked(d)
	}
}

// Add indexes one document. The caller guarantees the id is not already
// indexed (the vector and keyword corpora stay in 1:1 correspondence).
func (ix *Index) Add(doc domain.Document) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.addLocked(doc)
}

func (ix *Index) addLocked(doc domain.Document) {
	tokens := Tokenize(doc.Content)
	terms := make(map[string]int, len(tokens))
	for _, t := range tokens {
		terms[t]++
	}
	for t := range terms {
		ix.df[t]++
	}
	ix.entries = append(ix.entries, entry{doc: doc, terms: terms, length: len(tokens)})
	ix.totalLn += len(tokens)
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Search returns the top-k documents by raw BM25 score, best first. Ties
// keep insertion order, so results are reproducible for a fixed corpus.
// Scores are unnormalized; callers map them into [0,1]. The error is always
// nil; the signature matches the retrieval branch contract so a remote
// keyword backend could stand in.
func (ix *Index) Search(_ context.Context, query string, k int) ([]domain.ScoredContext, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := len(ix.entries)
	if n == 0 || k <= 0 {
		return nil, nil
	}

	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}
	avgLen := float64(ix.totalLn) / float64(n)

	scored := make([]domain.ScoredContext, 0, n)
	for _, e := range ix.entries {
		score := ix.scoreEntry(e, tokens, avgLen)
		if score <= 0 {
			continue
		}
		scored = append(scored, domain.ScoredContext{Document: e.doc, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (ix *Index) scoreEntry(e entry, queryTokens []string, avgLen float64) float64 {
	var score float64
	n := float64(len(ix.entries))
	for _, t := range queryTokens {
		tf := float64(e.terms[t])
		if tf == 0 {
			continue
		}
		df := float64(ix.df[t])
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		norm := tf * (k1 + 1) / (tf + k1*(1-b+b*float64(e.length)/avgLen))
		score += idf * norm
	}
	return score
}

// Tokenize lowercases and splits on whitespace.
func Tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
