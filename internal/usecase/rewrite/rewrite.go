// Package rewrite turns a user question into two keyword-dense search
// queries, one per corpus language. Rewriting is best effort: every failure
// path falls back to the original query.
package rewrite

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/triskell-ai/answerdex/internal/domain"
	"github.com/triskell-ai/answerdex/internal/logger"
)

// delimiter separates the two rewrites in the model output. Chosen to never
// occur in natural-language text.
const delimiter = "|||"

// shortQueryTokens is the short-circuit threshold: queries at or under this
// token count are assumed already keyword-like and skip the LLM.
const shortQueryTokens = 3

const promptTemplate = `Original Query: %s

Your task is to rewrite the above query into TWO versions optimized for
information retrieval over a bilingual English/French corpus:
1. An English version with English keywords and domain-specific terms.
2. A French version with French keywords and domain-specific terms.

For each version:
- Identify the core information need
- Remove filler words and unnecessary context
- Include important keywords and domain-specific terms
- Expand acronyms into their full form
- Make the query more specific and targeted

You must preserve the original meaning and intent of the query.
Return only the two rewritten queries separated by the exact delimiter ` + delimiter + `
with the English version first, no explanations or additional text.`

// Completer is the chat completion dependency.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

// Rewriter produces the English- and French-focused query variants.
type Rewriter struct {
	completer Completer
}

// New creates a query rewriter.
func New(completer Completer) *Rewriter {
	return &Rewriter{completer: completer}
}

// Rewrite returns (english, french) search variants of the query. It never
// returns an error: any rewrite problem degrades to the original query in
// both slots.
func (r *Rewriter) Rewrite(ctx context.Context, query string) (en, fr string) {
	log := logger.FromContext(ctx)

	if len(strings.Fields(query)) <= shortQueryTokens {
		log.Debug("query too short, skipping rewrite", zap.String("query", query))
		return query, query
	}

	res, err := r.completer.Complete(ctx, domain.CompletionRequest{
		Messages: []domain.Message{
			{Role: "user", Content: fmt.Sprintf(promptTemplate, query)},
		},
		Temperature: 0.1,
		MaxTokens:   1024,
	})
	if err != nil {
		log.Error("query rewrite failed, using original", zap.Error(err))
		return query, query
	}

	return parseRewrite(ctx, query, res.Text)
}

// parseRewrite splits the model output on the delimiter and validates the
// segments. One non-empty segment is duplicated into both slots; anything
// else falls back to the original query.
func parseRewrite(ctx context.Context, query, raw string) (en, fr string) {
	log := logger.FromContext(ctx)

	var segments []string
	for _, s := range strings.Split(raw, delimiter) {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}

	switch len(segments) {
	case 2:
		log.Info("query rewritten",
			zap.String("english", segments[0]), zap.String("french", segments[1]))
		return segments[0], segments[1]
	case 1:
		log.Warn("rewrite returned a single variant, duplicating",
			zap.String("variant", segments[0]))
		return segments[0], segments[0]
	default:
		log.Warn("rewrite output malformed, using original",
			zap.Int("segments", len(segments)), zap.String("raw", raw))
		return query, query
	}
}
