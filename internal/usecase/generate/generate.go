// Package generate synthesizes the draft answer from validated contexts.
// Fallback results pass through untouched: the fallback message is the final
// answer and must reach the user byte-for-byte.
package generate

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

const templateEN = `You are a Triskell Software PPM specialist providing concise, business-focused RFP responses. Answer questions using ONLY the historical Q&A data from our winning proposals.

Context from successful RFP responses:
%s

RESPONSE STYLE REQUIREMENTS (Critical - Match Our Winning Style):
- BE CONCISE: Give direct, brief answers without unnecessary elaboration
- BE SPECIFIC: Focus on concrete capabilities and features, not generic descriptions
- BE BUSINESS-FOCUSED: Address practical business value and outcomes
- AVOID: Long explanations, marketing language, or theoretical discussions
- USE: Simple, clear sentences that directly answer the question
- STRUCTURE: Use bullet points for multiple items, but keep each point brief

Content Rules:
1. Use ONLY information from the provided historical Q&A pairs
2. DO NOT include source references, scores, or citations
3. Match the exact tone and brevity of our historical winning responses
4. Address the specific question asked - no more, no less
5. Do not comment on the context or the retrieval process

Query: %s`

const templateFR = `Vous êtes un spécialiste Triskell Software PPM fournissant des réponses RFP concises et axées sur les affaires. Répondez aux questions en utilisant UNIQUEMENT les données Q&R historiques de nos propositions gagnantes.

Contexte des réponses RFP réussies :
%s

EXIGENCES DE STYLE DE RÉPONSE (Critique - Correspondre à Notre Style Gagnant) :
- SOYEZ CONCIS : Donnez des réponses directes et brèves sans élaboration inutile
- SOYEZ SPÉCIFIQUE : Concentrez-vous sur les capacités et fonctionnalités concrètes, pas sur des descriptions génériques
- AXEZ SUR LES AFFAIRES : Abordez la valeur commerciale pratique et les résultats
- ÉVITEZ : Les longues explications, le langage marketing ou les discussions théoriques
- UTILISEZ : Des phrases simples et claires qui répondent directement à la question
- STRUCTURE : Utilisez des puces pour plusieurs éléments, mais gardez chaque point bref

Règles de contenu :
1. Utilisez UNIQUEMENT les informations des paires Q&R historiques fournies
2. N'incluez PAS de références de source, scores ou citations
3. Correspondez au ton exact et à la brièveté de nos réponses gagnantes historiques
4. Adressez la question spécifique posée - ni plus, ni moins
5. Ne commentez pas le contexte ni le processus de récupération

Requête : %s`

// verbosePhrases are hedging lead-ins and filler the draft must not carry.
var verbosePhrases = []string{
	"I hope this helps",
	"Please let me know if you need",
	"Feel free to ask",
	"Based on the information provided",
	"According to the context",
	"It's worth noting that",
	"Additionally, it should be mentioned",
	"Furthermore,",
	"Moreover,",
	"In conclusion,",
	"To summarize,",
}

var (
	spacesRe     = regexp.MustCompile(`[ \t]+`)
	blankLinesRe = regexp.MustCompile(`\n\s*\n+`)
)

// Completer is the chat completion dependency.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

// Agent produces the draft answer for a validated question.
type Agent struct {
	completer Completer
}

// New creates a generator agent.
func New(completer Completer) *Agent {
	return &Agent{completer: completer}
}

// Generate turns a validation result into answer text. A fallback result's
// message is returned verbatim with no LLM call. On any generation failure
// the localized apology is returned; Generate never errors.
func (a *Agent) Generate(
	ctx context.Context,
	originalQuery string,
	result validation.Result,
	lang language.Language,
) string {
	log := logger.FromContext(ctx)

	if result.IsFallback() {
		log.Info("returning fallback message unchanged", zap.String("reason", result.Reason()))
		return result.Message()
	}

	template := templateEN
	if lang == language.FR {
		template = templateFR
	}
	prompt := fmt.Sprintf(template, formatContexts(result.Contexts()), originalQuery)

	res, err := a.completer.Complete(ctx, domain.CompletionRequest{
		Messages:    []domain.Message{{Role: "user", Content: prompt}},
		Temperature: 0.0,
		MaxTokens:   1024,
	})
	if err != nil {
		log.Error("answer generation failed", zap.Error(err))
		return lang.Apology()
	}

	return postProcess(res.Text)
}

// formatContexts renders the selected pairs as compact Q/A blocks with no
// scores or source labels.
func formatContexts(contexts []domain.ScoredContext) string {
	entries := make([]string, len(contexts))
	for i, c := range contexts {
		entries[i] = fmt.Sprintf("Q: %s\nA: %s\n", c.Document.Content, c.Document.Answer)
	}
	return strings.Join(entries, "\n---\n")
}

// postProcess strips verbose filler and collapses repeated whitespace while
// keeping the line structure (bullet lists survive).
func postProcess(text string) string {
	for _, phrase := range verbosePhrases {
		text = strings.ReplaceAll(text, phrase, "")
	}
	text = spacesRe.ReplaceAllString(text, " ")
	text = blankLinesRe.ReplaceAllString(text, "\n")

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
