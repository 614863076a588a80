// Package validation defines the tagged outcome of the relevance validation
// stage. The type is total: a Success always carries at least one context,
// a Fallback never carries any. Constructors enforce the invariant so the
// rest of the pipeline can switch on Status without re-checking.
package validation

import "github.com/triskell-ai/answerdex/internal/domain"

// Status tags a Result as success or fallback.
type Status string

const (
	// StatusSuccess means at least one relevant context was selected.
	StatusSuccess Status = "success"
	// StatusFallback means no usable context exists; Message is the final answer.
	StatusFallback Status = "fallback"
)

// Result is the validation stage outcome.
type Result struct {
	status   Status
	contexts []domain.ScoredContext
	message  string
	reason   string // diagnostic, never shown to the user
}

// Success creates a success result. Panics if contexts is empty: callers
// decide fallback before constructing, and an empty success would break the
// totality contract downstream.
func Success(contexts []domain.ScoredContext, message string) Result {
	if len(contexts) == 0 {
		panic("validation: Success with no contexts")
	}
	return Result{status: StatusSuccess, contexts: contexts, message: message}
}

// Fallback creates a fallback result carrying the localized user-facing
// message and a diagnostic reason.
func Fallback(message, reason string) Result {
	return Result{status: StatusFallback, message: message, reason: reason}
}

// Status returns the result tag.
func (r Result) Status() Status { return r.status }

// IsFallback reports whether the result is a fallback.
func (r Result) IsFallback() bool { return r.status == StatusFallback }

// Contexts returns the selected contexts, in the order the model listed them.
// Empty exactly when the result is a fallback.
func (r Result) Contexts() []domain.ScoredContext { return r.contexts }

// Message returns the stage message. For a fallback this is the final,
// immutable user-facing answer.
func (r Result) Message() string { return r.message }

// Reason returns the diagnostic reason for a fallback, empty on success.
func (r Result) Reason() string { return r.reason }
