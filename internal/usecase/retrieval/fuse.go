package retrieval

import (
	"sort"
	"strings"

	"github.com/triskell-ai/answerdex/internal/domain"
	"github.com/triskell-ai/answerdex/internal/index/keyword"
)

// stopwords covers the function words of both corpus languages. Terms in
// this set carry no lexical signal and are excluded from the overlap boost.
var stopwords = map[string]struct{}{
	// English
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"of": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "and": {},
	"or": {}, "with": {}, "what": {}, "how": {}, "why": {}, "who": {},
	"which": {}, "do": {}, "does": {}, "can": {}, "it": {}, "this": {},
	"that": {}, "be": {},
	// French
	"le": {}, "la": {}, "les": {}, "un": {}, "une": {}, "des": {}, "de": {},
	"du": {}, "et": {}, "ou": {}, "est": {}, "sont": {}, "dans": {},
	"pour": {}, "sur": {}, "que": {}, "qui": {}, "quoi": {}, "comment": {},
	"pourquoi": {}, "quel": {}, "quelle": {}, "quels": {}, "quelles": {},
	"ce": {}, "cette": {}, "avec": {},
}

// fuse merges the two branches by document content. A document seen in one
// branch keeps that branch's weighted contribution; seen in both, the
// contributions sum. Insertion order (vector first, then keyword) is
// preserved so the later stable sort stays reproducible.
func fuse(vecResults, kwResults []domain.ScoredContext, vectorWeight float64) []domain.ScoredContext {
	kwWeight := 1 - vectorWeight

	fused := make([]domain.ScoredContext, 0, len(vecResults)+len(kwResults))
	byContent := make(map[string]int, len(vecResults)+len(kwResults))

	for _, r := range vecResults {
		byContent[r.Document.Content] = len(fused)
		fused = append(fused, domain.ScoredContext{
			Document: r.Document,
			Score:    vectorWeight * r.Score,
		})
	}
	for _, r := range kwResults {
		if i, ok := byContent[r.Document.Content]; ok {
			fused[i].Score += kwWeight * r.Score
			continue
		}
		byContent[r.Document.Content] = len(fused)
		fused = append(fused, domain.ScoredContext{
			Document: r.Document,
			Score:    kwWeight * r.Score,
		})
	}
	return fused
}

// applyOverlapBoost adds min(0.2, 0.1*fraction) to each candidate, where
// fraction is the share of non-stopword query terms literally present in the
// candidate's text. The combined score never exceeds 1.
func applyOverlapBoost(results []domain.ScoredContext, query string) []domain.ScoredContext {
	var terms []string
	for _, t := range keyword.Tokenize(query) {
		if _, skip := stopwords[t]; skip {
			continue
		}
		terms = append(terms, t)
	}
	if len(terms) == 0 {
		return results
	}

	for i := range results {
		text := strings.ToLower(results[i].Document.Content)
		matched := 0
		for _, t := range terms {
			if strings.Contains(text, t) {
				matched++
			}
		}
		fraction := float64(matched) / float64(len(terms))
		boost := 0.1 * fraction
		if boost > 0.2 {
			boost = 0.2
		}
		score := results[i].Score + boost
		if score > 1 {
			score = 1
		}
		results[i].Score = score
	}
	return results
}

func sortByScore(results []domain.ScoredContext) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
