// Package ingest loads raw Q&A texts into the corpus: extract the
// question/answer pair, embed the question, skip near-duplicates with an
// audit record, and keep the keyword index in step with the vector store.
//
// Ingestion is single-writer: callers must serialize Ingest calls. Reads
// (search) stay safe concurrently with one running ingestion.
package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/triskell-ai/answerdex/internal/domain"
	"github.com/triskell-ai/answerdex/internal/logger"
)

// pairRe extracts the question and answer from a raw text. Case-insensitive,
// and the answer captures everything to the end including newlines.
var pairRe = regexp.MustCompile(`(?is)question:\s*(.*?)\s*answer:\s*(.*)`)

// Embedder vectorizes question texts, one vector per text in order.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Corpus is the document store dependency.
type Corpus interface {
	Insert(ctx context.Context, doc domain.Document, embedding []float32) error
	SearchKNN(ctx context.Context, vector []float32, k int) ([]domain.ScoredContext, error)
}

// KeywordIndex receives every inserted document so keyword and vector
// corpora stay in 1:1 correspondence.
type KeywordIndex interface {
	Add(doc domain.Document)
}

// DuplicateAudit records skipped near-duplicates.
type DuplicateAudit interface {
	LogDuplicate(ctx context.Context, original domain.Document, duplicateText string, similarity float64) error
}

// Service ingests raw Q&A texts.
type Service struct {
	embed     Embedder
	corpus    Corpus
	keywords  KeywordIndex
	audit     DuplicateAudit
	threshold float64
	newID     func() string
}

// New creates an ingestion service. threshold is the cosine similarity at or
// above which a text counts as a duplicate of an existing document.
func New(embed Embedder, corpus Corpus, keywords KeywordIndex, audit DuplicateAudit, threshold float64) *Service {
	if threshold <= 0 {
		threshold = 0.95
	}
	return &Service{
		embed:     embed,
		corpus:    corpus,
		keywords:  keywords,
		audit:     audit,
		threshold: threshold,
		newID:     uuid.NewString,
	}
}

// Report summarizes one ingestion batch.
type Report struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
}

type pair struct {
	question string
	answer   string
	cleaned  string
}

// Ingest processes a batch of raw texts. Texts without a question/answer
// pair are skipped with a warning; the remaining questions are embedded in
// one batch call, then checked one by one so a duplicate earlier in the
// batch is visible to later texts. Near-duplicates are audit-logged and
// skipped. Provider or store failures abort the batch and return the report
// of what completed before the failure.
func (s *Service) Ingest(ctx context.Context, texts []string) (Report, error) {
	log := logger.FromContext(ctx)
	var report Report

	pairs := make([]pair, 0, len(texts))
	for _, text := range texts {
		cleaned := cleanText(text)

		m := pairRe.FindStringSubmatch(cleaned)
		if m == nil {
			log.Warn("skipping document without question/answer pair",
				zap.String("text", truncate(cleaned, 50)))
			report.Skipped++
			continue
		}
		pairs = append(pairs, pair{
			question: strings.TrimSpace(m[1]),
			answer:   strings.TrimSpace(m[2]),
			cleaned:  cleaned,
		})
	}
	if len(pairs) == 0 {
		return report, nil
	}

	questions := make([]string, len(pairs))
	for i, p := range pairs {
		questions[i] = p.question
	}

	batch, err := s.embed.BatchEmbed(ctx, questions)
	if err != nil {
		return report, fmt.Errorf("embed questions: %w", err)
	}
	if len(batch.Embeddings) != len(pairs) {
		return report, fmt.Errorf("embed questions: got %d embeddings for %d questions",
			len(batch.Embeddings), len(pairs))
	}

	for i, p := range pairs {
		embedding := batch.Embeddings[i]

		dup, similarity, err := s.findDuplicate(ctx, embedding)
		if err != nil {
			return report, err
		}
		if similarity >= s.threshold {
			if err := s.audit.LogDuplicate(ctx, dup, p.cleaned, similarity); err != nil {
				log.Warn("duplicate audit write failed", zap.Error(err))
			}
			log.Warn("duplicate detected, logged for review",
				zap.String("question", truncate(p.question, 50)),
				zap.Float64("similarity", similarity))
			report.Duplicates++
			continue
		}

		doc := domain.Document{ID: s.newID(), Content: p.question, Answer: p.answer}
		if err := s.corpus.Insert(ctx, doc, embedding); err != nil {
			return report, err
		}
		s.keywords.Add(doc)
		report.Inserted++

		log.Info("inserted document",
			zap.String("id", doc.ID), zap.String("question", truncate(p.question, 50)))
	}

	return report, nil
}

// findDuplicate returns the nearest existing document and its similarity.
func (s *Service) findDuplicate(ctx context.Context, embedding []float32) (domain.Document, float64, error) {
	matches, err := s.corpus.SearchKNN(ctx, embedding, 1)
	if err != nil {
		return domain.Document{}, 0, fmt.Errorf("duplicate check: %w", err)
	}
	if len(matches) == 0 {
		return domain.Document{}, 0, nil
	}
	return matches[0].Document, matches[0].Score, nil
}

// cleanText removes spreadsheet carriage-return artifacts.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "_x000D_", "")
	text = strings.ReplaceAll(text, "\r", "")
	return strings.TrimSpace(text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
