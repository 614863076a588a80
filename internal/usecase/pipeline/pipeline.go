// Package pipeline orchestrates one question through the full answer flow:
// detect language, rewrite, run both hybrid searches in parallel, validate,
// generate, and judge successful drafts.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"
	"go.uber.org/zap"

	"github.com/triskell-ai/answerdex/internal/domain"
	"github.com/triskell-ai/answerdex/internal/domain/language"
	"github.com/triskell-ai/answerdex/internal/domain/validation"
	"github.com/triskell-ai/answerdex/internal/logger"
	"github.com/triskell-ai/answerdex/internal/metrics"
)

// Rewriter produces the two language-focused query variants.
type Rewriter interface {
	Rewrite(ctx context.Context, query string) (en, fr string)
}

// Searcher is the hybrid retrieval dependency.
type Searcher interface {
	HybridSearch(ctx context.Context, query string, k int, vectorWeight float64) ([]domain.ScoredContext, error)
	VectorWeight() float64
}

// Validator selects the relevant contexts.
type Validator interface {
	Validate(ctx context.Context, originalQuery string, resultsEN, resultsFR []domain.ScoredContext, lang language.Language) validation.Result
}

// Generator drafts the answer.
type Generator interface {
	Generate(ctx context.Context, originalQuery string, result validation.Result, lang language.Language) string
}

// Judge rewrites drafts into the winning-response persona.
type Judge interface {
	Judge(ctx context.Context, originalQuery, rewrittenQuery, draft string, contexts []domain.ScoredContext, lang language.Language) (text string, retried bool)
}

// Orchestrator sequences the pipeline stages for one question.
type Orchestrator struct {
	rewriter  Rewriter
	searcher  Searcher
	validator Validator
	generator Generator
	judge     Judge
	topK      int
}

// New creates the question pipeline.
func New(rewriter Rewriter, searcher Searcher, validator Validator, generator Generator, judge Judge, topK int) *Orchestrator {
	if topK <= 0 {
		topK = 3
	}
	return &Orchestrator{
		rewriter:  rewriter,
		searcher:  searcher,
		validator: validator,
		generator: generator,
		judge:     judge,
		topK:      topK,
	}
}

// detectOptions restricts detection to the two corpus languages.
var detectOptions = whatlanggo.Options{
	Whitelist: map[whatlanggo.Lang]bool{
		whatlanggo.Eng: true,
		whatlanggo.Fra: true,
	},
}

// DetectLanguage classifies the question as English or French, defaulting
// to English.
func DetectLanguage(text string) language.Language {
	info := whatlanggo.DetectWithOptions(text, detectOptions)
	if info.Lang == whatlanggo.Fra {
		return language.FR
	}
	return language.EN
}

// ProcessQuestion runs the question through every stage and returns the
// final answer with the full stage trace. Stage failures degrade inside
// their stage; the only error surfaced is total retrieval failure on both
// branches.
func (o *Orchestrator) ProcessQuestion(ctx context.Context, question string) (domain.PipelineResult, error) {
	log := logger.FromContext(ctx)
	durations := make(map[string]time.Duration)

	lang := DetectLanguage(question)
	log.Info("processing question",
		zap.String("language", lang.String()), zap.String("question", question))

	start := time.Now()
	queryEN, queryFR := o.rewriter.Rewrite(ctx, question)
	observeStage(durations, "rewrite", start)

	// the two branches are joined before validation; no partial consumption
	var (
		wg                 sync.WaitGroup
		branchEN, branchFR []domain.ScoredContext
		errEN, errFR       error
	)
	start = time.Now()
	wg.Add(2)
	go func() {
		defer wg.Done()
		branchEN, errEN = o.searcher.HybridSearch(ctx, queryEN, o.topK, o.searcher.VectorWeight())
	}()
	go func() {
		defer wg.Done()
		branchFR, errFR = o.searcher.HybridSearch(ctx, queryFR, o.topK, o.searcher.VectorWeight())
	}()
	wg.Wait()
	observeStage(durations, "retrieve", start)

	if errEN != nil && errFR != nil {
		metrics.PipelineOutcomesTotal.WithLabelValues("error", lang.String()).Inc()
		return domain.PipelineResult{}, errEN
	}
	if errEN != nil {
		log.Warn("english branch failed", zap.Error(errEN))
		branchEN = nil
	}
	if errFR != nil {
		log.Warn("french branch failed", zap.Error(errFR))
		branchFR = nil
	}

	start = time.Now()
	validated := o.validator.Validate(ctx, question, branchEN, branchFR, lang)
	observeStage(durations, "validate", start)

	start = time.Now()
	draft := o.generator.Generate(ctx, question, validated, lang)
	observeStage(durations, "generate", start)

	answer := draft
	judged, judgeRetried := false, false
	if !validated.IsFallback() {
		rewritten := queryEN
		if lang == language.FR {
			rewritten = queryFR
		}
		start = time.Now()
		answer, judgeRetried = o.judge.Judge(ctx, question, rewritten, draft, validated.Contexts(), lang)
		observeStage(durations, "judge", start)
		judged = true
	}

	outcome := "success"
	if validated.IsFallback() {
		outcome = "fallback"
	}
	metrics.PipelineOutcomesTotal.WithLabelValues(outcome, lang.String()).Inc()

	return domain.PipelineResult{
		Answer:        answer,
		Language:      lang,
		OriginalQuery: question,
		RewrittenEN:   queryEN,
		RewrittenFR:   queryFR,
		ContextsUsed:  validated.Contexts(),
		Trace: domain.Trace{
			DetectedLanguage:  lang,
			RewriteUsedLLM:    queryEN != question || queryFR != question,
			BranchEN:          branchEN,
			BranchFR:          branchFR,
			ValidationStatus:  string(validated.Status()),
			ValidationMessage: validated.Message(),
			ValidationReason:  validated.Reason(),
			Draft:             draft,
			Judged:            judged,
			JudgeRetried:      judgeRetried,
			StageDurations:    durations,
		},
	}, nil
}

func observeStage(durations map[string]time.Duration, stage string, start time.Time) {
	d := time.Since(start)
	durations[stage] = d
	metrics.PipelineStageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
