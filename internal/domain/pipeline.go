package domain

import (
	"time"

	"github.com/triskell-ai/answerdex/internal/domain/language"
)

// PipelineResult is the final outcome of one processed question. Built once
// per request and discarded after return; no cross-request state.
type PipelineResult struct {
	Answer        string
	Language      language.Language
	OriginalQuery string
	RewrittenEN   string
	RewrittenFR   string
	ContextsUsed  []ScoredContext
	Trace         Trace
}

// Trace retains every intermediate stage's raw output for observability.
// Nothing in it is used for recomputation.
type Trace struct {
	DetectedLanguage language.Language
	RewriteUsedLLM   bool

	BranchEN []ScoredContext
	BranchFR []ScoredContext

	ValidationStatus  string
	ValidationMessage string // stage message, or the fallback answer text
	ValidationReason  string // diagnostic reason on fallback

	Draft        string // generator output before judging
	Judged       bool
	JudgeRetried bool // one corrective retranslation happened

	StageDurations map[string]time.Duration
}
