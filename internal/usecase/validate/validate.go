// Package validate implements the relevance validation stage: an LLM reads
// the user's question and the retrieved Q&A pairs from both language
// branches and selects the pairs worth answering from. Every failure mode
// resolves to a fallback result, never an error.
package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/triskell-ai/answerdex/internal/domain"
	"github.com/triskell-ai/answerdex/internal/domain/language"
	"github.com/triskell-ai/answerdex/internal/domain/validation"
	"github.com/triskell-ai/answerdex/internal/logger"
)

const systemPrompt = "You are an expert at carefully reading and analyzing text to identify relevant information. You focus on understanding exactly what the user needs and which available information helps answer their question."

const promptTemplate = `You are a careful analyst. Your job is to read the user's query and the retrieved Q&A pairs, then identify which Q&A pairs are important for answering the user's question.

USER'S QUERY: "%s"

RETRIEVED Q&A PAIRS:
%s

INSTRUCTIONS:
1. Read the user's query carefully to understand exactly what they are asking
2. Read each Q&A pair carefully to understand what information it contains
3. Identify which Q&A pairs contain information that helps answer the user's query
4. Select ALL Q&A pairs that are relevant, even if they only partially answer the question
5. If NO Q&A pairs are relevant to the user's query, say NONE

RESPONSE FORMAT:
RELEVANT_IDS: [List the IDs of relevant Q&A pairs, e.g., "EN_1, FR_2" or "NONE"]
REASONING: [Brief explanation of why these are relevant or why none are relevant]`

// noneToken is the literal the model emits when nothing is relevant.
const noneToken = "NONE"

var (
	relevantIDsRe = regexp.MustCompile(`(?i)RELEVANT_IDS:\s*([^\n]+)`)
	reasoningRe   = regexp.MustCompile(`(?is)REASONING:\s*(.+?)(?:\n\n|\z)`)
)

// Completer is the chat completion dependency.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

// Agent selects the relevant contexts for a question.
type Agent struct {
	completer Completer
}

// New creates a validation agent.
func New(completer Completer) *Agent {
	return &Agent{completer: completer}
}

// candidate is one retrieved pair tagged with its branch-and-rank identifier.
type candidate struct {
	id  string
	ctx domain.ScoredContext
}

// Validate selects the contexts relevant to the original query from the two
// branch result lists. The result is always total: Success carries at least
// one context, Fallback carries a ready-to-serve localized message.
func (a *Agent) Validate(
	ctx context.Context,
	originalQuery string,
	resultsEN, resultsFR []domain.ScoredContext,
	lang language.Language,
) validation.Result {
	log := logger.FromContext(ctx)

	if len(resultsEN) == 0 && len(resultsFR) == 0 {
		log.Warn("both retrieval branches empty, skipping validation")
		return validation.Fallback(lang.NoInformationFound(), "both retrieval branches returned no results")
	}

	candidates := tagCandidates(resultsEN, resultsFR)

	res, err := a.completer.Complete(ctx, domain.CompletionRequest{
		Messages: []domain.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(promptTemplate, originalQuery, formatCandidates(candidates))},
		},
		Temperature: 0.0,
		MaxTokens:   500,
	})
	if err != nil {
		log.Error("validation call failed", zap.Error(err))
		return validation.Fallback(lang.CannotAnswer(), fmt.Sprintf("validation call failed: %v", err))
	}

	result := parseSelection(strings.TrimSpace(res.Text), candidates, lang)
	if result.IsFallback() {
		log.Warn("validation fell back", zap.String("reason", result.Reason()))
	} else {
		log.Info("validation selected contexts", zap.Int("count", len(result.Contexts())))
	}
	return result
}

// tagCandidates assigns each pair a stable identifier encoding its branch
// and 1-based rank, English branch first.
func tagCandidates(resultsEN, resultsFR []domain.ScoredContext) []candidate {
	candidates := make([]candidate, 0, len(resultsEN)+len(resultsFR))
	for i, r := range resultsEN {
		candidates = append(candidates, candidate{id: fmt.Sprintf("EN_%d", i+1), ctx: r})
	}
	for i, r := range resultsFR {
		candidates = append(candidates, candidate{id: fmt.Sprintf("FR_%d", i+1), ctx: r})
	}
	return candidates
}

func formatCandidates(candidates []candidate) string {
	var b strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&b, "\nID: %s (Score: %.3f)\nQ: %s\nA: %s\n---", c.id, c.ctx.Score, c.ctx.Document.Content, c.ctx.Document.Answer)
	}
	return strings.TrimPrefix(b.String(), "\n")
}

// parseSelection maps the model's RELEVANT_IDS line back to contexts.
// Unresolvable identifiers are skipped; zero resolved, the NONE token, or a
// missing identifier line all yield distinct fallback reasons behind the
// same user-facing message.
func parseSelection(raw string, candidates []candidate, lang language.Language) validation.Result {
	m := relevantIDsRe.FindStringSubmatch(raw)
	if m == nil {
		return validation.Fallback(lang.CannotAnswer(), "could not parse validation result")
	}

	idsText := strings.TrimSpace(m[1])
	idsText = strings.Trim(idsText, "[]")
	if strings.EqualFold(strings.TrimSpace(idsText), noneToken) {
		return validation.Fallback(lang.CannotAnswer(), "no relevant Q&A pairs found for this query")
	}

	byID := make(map[string]domain.ScoredContext, len(candidates))
	for _, c := range candidates {
		byID[c.id] = c.ctx
	}

	var selected []domain.ScoredContext
	for _, id := range strings.Split(idsText, ",") {
		id = strings.Trim(strings.TrimSpace(id), `"'`)
		if ctx, ok := byID[id]; ok {
			selected = append(selected, ctx)
		}
	}
	if len(selected) == 0 {
		return validation.Fallback(lang.CannotAnswer(), "selected IDs not found in candidates")
	}

	reasoning := "Relevant contexts identified"
	if rm := reasoningRe.FindStringSubmatch(raw); rm != nil {
		reasoning = strings.TrimSpace(rm[1])
	}

	message := fmt.Sprintf("Relevant information found (%d Q&A pairs). %s", len(selected), reasoning)
	return validation.Success(selected, message)
}
