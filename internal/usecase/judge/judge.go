// Package judge rewrites the draft answer to match the persona and tone of
// the historical winning responses, and enforces French output with a
// heuristic check plus a single corrective retry.
package judge

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/triskell-ai/answerdex/internal/domain"
	"github.com/triskell-ai/answerdex/internal/domain/language"
	"github.com/triskell-ai/answerdex/internal/logger"
)

const personaEN = `As a Triskell Software employee responding to RFPs:
- Be direct and straight to the point
- Be professional and formal as in our previous RFP responses
- Focus on practical solutions our software offers
- Use confident, authoritative language (we know our product)
- Start answers with direct statements, not hedging phrases
- Speak with the voice of experience and domain expertise
- Answer in the same way we did in our winning RFP responses
- Use the same tone and style as in the provided response examples
- ALWAYS respond in English`

const personaFR = `En tant qu'employé de Triskell Software répondant aux RFP:
- Soyez direct et allez droit au but
- Soyez professionnel et formel comme dans nos réponses RFP précédentes
- Concentrez-vous sur les solutions pratiques que notre logiciel offre
- Utilisez un langage confiant et autoritaire (nous connaissons notre produit)
- Commencez les réponses par des déclarations directes, pas des phrases hésitantes
- Parlez avec la voix de l'expérience et de l'expertise du domaine
- Répondez de la même manière que nous l'avons fait dans nos réponses RFP gagnantes
- Utilisez le même ton et style que dans les exemples de réponses fournis
- Répondez TOUJOURS en français`

const judgeTemplateEN = `Original User Query: %s
Rewritten Query: %s

Initial Response:
%s

Previous RFP Response Examples for Verification:
%s

%s

As a Response Judge for Triskell RFP, your job is to thoroughly evaluate and improve the response:

STEP 1: QUERY ASSESSMENT AND RFP ALIGNMENT
- Identify the PRIMARY INTENT of the user's original query
- Determine if the response directly addresses this primary intent
- Check if the response CLOSELY MATCHES the style and tone of our winning RFP responses

STEP 2: CONTENT EVALUATION
- Check if the response contains accurate information based STRICTLY on the provided context
- Identify any statements that are not supported by the context (hallucinations)
- Evaluate if the response makes assumptions beyond what's in the context
- Verify that the response aligns with the content and style of our winning RFP responses

STEP 3: IMPROVEMENT
- Rewrite the response to directly address the user's original question
- MIRROR the tone, style, and structure of the winning RFP responses in the context
- Stay consistent with our way of communicating in RFPs
- Include ONLY information from the provided context
- If the context doesn't contain relevant information, clearly state this limitation
- DO NOT use phrases like "based on the context", "from the information provided", etc.
- DO NOT reference the retrieval process or the existence of context

IMPORTANT: Your final response should resemble one we would have given in a winning RFP, with the same style, tone, and structure.

FINAL RESPONSE (in English):`

const judgeTemplateFR = `Requête Originale de l'Utilisateur: %s
Requête Reformulée: %s

Réponse Initiale:
%s

Exemples de Réponses RFP Précédentes pour Vérification:
%s

%s

En tant que Juge de Réponse pour Triskell RFP, votre travail est d'évaluer et d'améliorer la réponse:

ÉTAPE 1: ÉVALUATION DE LA REQUÊTE ET ALIGNEMENT RFP
- Identifiez l'INTENTION PRINCIPALE de la requête de l'utilisateur
- Déterminez si la réponse aborde directement cette intention principale
- Vérifiez si la réponse CORRESPOND BIEN au style et au ton de nos réponses RFP gagnantes

ÉTAPE 2: ÉVALUATION DU CONTENU
- Vérifiez si la réponse contient des informations précises basées STRICTEMENT sur le contexte fourni
- Identifiez les déclarations qui ne sont pas soutenues par le contexte (hallucinations)
- Évaluez si la réponse fait des suppositions au-delà de ce qui se trouve dans le contexte
- Vérifiez que la réponse s'aligne avec le contenu et le style de nos réponses RFP gagnantes

ÉTAPE 3: AMÉLIORATION
- Réécrivez la réponse pour répondre directement à la question originale de l'utilisateur
- IMITEZ le ton, le style et la structure des réponses RFP gagnantes dans le contexte
- Restez cohérent avec notre façon de communiquer dans les RFP
- Incluez UNIQUEMENT des informations du contexte fourni
- Si le contexte ne contient pas d'informations pertinentes, indiquez clairement cette limitation
- N'utilisez PAS de phrases comme "selon le contexte", "d'après les informations fournies", etc.
- NE faites PAS référence au processus de recherche ou à l'existence du contexte

IMPORTANT: Votre réponse finale doit ressembler à une réponse que nous aurions donnée dans un RFP gagnant, avec le même style, ton et structure.

RÉPONSE FINALE (en français):`

const retranslateTemplate = `Traduisez la réponse suivante en français, en conservant le même sens et le même style professionnel de RFP:

%s

Traduction en français (maintenir le ton RFP professionnel):`

// frenchIndicators mark text as French for the compliance heuristic.
var frenchIndicators = []string{
	"é", "è", "ê", "à", "ç", "ù",
	"vous", "nous", "est", "sont", "et",
	"le", "la", "les", "dans", "pour",
}

// Completer is the chat completion dependency.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

// Agent rewrites draft answers into the winning-response persona.
type Agent struct {
	completer Completer
}

// New creates a judge agent.
func New(completer Completer) *Agent {
	return &Agent{completer: completer}
}

// Judge rewrites the draft to mirror the historical winning answers and
// enforces the target language. It is best effort: on any provider failure
// the last usable text (the draft, or the pre-retry rewrite) is returned.
// Only call Judge for successful validations; fallback messages are
// immutable and must bypass judging.
func (a *Agent) Judge(
	ctx context.Context,
	originalQuery, rewrittenQuery, draft string,
	contexts []domain.ScoredContext,
	lang language.Language,
) (text string, retried bool) {
	log := logger.FromContext(ctx)

	template, persona := judgeTemplateEN, personaEN
	if lang == language.FR {
		template, persona = judgeTemplateFR, personaFR
	}
	prompt := fmt.Sprintf(template,
		originalQuery, rewrittenQuery, draft, formatExamples(contexts), persona)

	res, err := a.completer.Complete(ctx, domain.CompletionRequest{
		Messages:    []domain.Message{{Role: "user", Content: prompt}},
		Temperature: 0.1,
		MaxTokens:   1024,
	})
	if err != nil {
		log.Error("judge rewrite failed, keeping draft", zap.Error(err))
		return draft, false
	}
	judged := res.Text

	if lang != language.FR || isFrench(judged) {
		return judged, false
	}

	log.Warn("judged response is not French, forcing retranslation")
	retry, err := a.completer.Complete(ctx, domain.CompletionRequest{
		Messages: []domain.Message{
			{Role: "user", Content: fmt.Sprintf(retranslateTemplate, judged)},
		},
		Temperature: 0.1,
		MaxTokens:   1024,
	})
	if err != nil {
		log.Error("retranslation failed, keeping judged text", zap.Error(err))
		return judged, true
	}
	// single retry: the retranslation output is final even if still non-compliant
	return retry.Text, true
}

// formatExamples renders the validated pairs as the historical examples the
// model must mirror.
func formatExamples(contexts []domain.ScoredContext) string {
	blocks := make([]string, len(contexts))
	for i, c := range contexts {
		blocks[i] = fmt.Sprintf("RFP Q&A %d:\nQuestion: %s\nWinning Response: %s",
			i+1, c.Document.Content, c.Document.Answer)
	}
	return strings.Join(blocks, "\n\n")
}

// isFrench is a cheap compliance check: at least two indicators, or any
// accented 'é' in a text long enough to not be a single borrowed word.
func isFrench(text string) bool {
	lower := strings.ToLower(text)
	count := 0
	for _, ind := range frenchIndicators {
		if strings.Contains(lower, ind) {
			count++
		}
	}
	return count >= 2 || (len(text) > 20 && strings.Contains(lower, "é"))
}
